package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-redis/redis/v8"
	"github.com/joho/godotenv"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"

	"farofatrip/internal/auth"
	"farofatrip/internal/catalog"
	"farofatrip/internal/config"
	"farofatrip/internal/kafka"
	"farofatrip/internal/logger"
	"farofatrip/internal/models"
	"farofatrip/internal/notify"
	"farofatrip/internal/order"
	"farofatrip/internal/users"
)

func main() {
	if err := godotenv.Load(); err != nil {
		fmt.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()
	log := logger.NewLogger()

	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.DSN)))
	sqldb.SetMaxOpenConns(cfg.Database.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.Database.MaxIdleConns)
	db := bun.NewDB(sqldb, pgdialect.New())

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to database: %v", err))
	}
	if err := models.Migrate(ctx, db); err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to run migrations: %v", err))
	}
	log.Info("DATABASE", "Connected and migrated")

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr})
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatal("REDIS", fmt.Sprintf("Failed to connect to redis: %v", err))
	}
	log.Info("REDIS", "Connected to "+cfg.Redis.Addr)

	userDB := &users.DB{Bun: db}
	userService := users.NewService(userDB)
	userHandler := users.NewHandler(userService, log)

	blacklist := auth.NewRedisBlacklist(redisClient)
	tokenService := auth.NewTokenService(cfg.Auth, blacklist, userDB)
	resolver := auth.NewResolver(userDB)
	authHandler := auth.NewHandler(resolver, tokenService, userService, log)

	catalogDB := &catalog.DB{Bun: db}
	catalogHandler := catalog.NewHandler(catalogDB, log)

	whatsapp := notify.NewWhatsApp(cfg.WhatsApp, log)

	var publisher order.Publisher
	var producer *kafka.Producer
	if cfg.Kafka.Enabled {
		producer = kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic, log)
		publisher = producer
		log.Info("KAFKA", fmt.Sprintf("Publishing order events to %s", cfg.Kafka.Topic))
	}

	orderDB := &order.DB{Bun: db}
	orderService := order.NewService(orderDB, whatsapp, publisher, log)
	orderHandler := order.NewHandler(orderService, log)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	requireAuth := auth.Middleware(tokenService)
	optionalAuth := auth.OptionalMiddleware(tokenService)

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/refresh", authHandler.Refresh)

	r.Get("/eventos", catalogHandler.ListEvents)
	r.Get("/eventos/{eventoID}", catalogHandler.GetEvent)

	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Post("/auth/logout", authHandler.Logout)
		r.Post("/auth/change-password", authHandler.ChangePassword)

		r.Get("/usuarios", userHandler.ListUsers)
		r.Get("/usuarios/me", userHandler.GetMe)
		r.Patch("/usuarios/me", userHandler.UpdateMe)

		r.Post("/eventos", catalogHandler.CreateEvent)
		r.Put("/eventos/{eventoID}", catalogHandler.UpdateEvent)
		r.Patch("/eventos/{eventoID}", catalogHandler.UpdateEvent)
		r.Delete("/eventos/{eventoID}", catalogHandler.DeleteEvent)
	})

	r.Group(func(r chi.Router) {
		r.Use(optionalAuth)

		r.Post("/pedidos", orderHandler.CreateOrder)
		r.Get("/pedidos", orderHandler.ListOrders)
		r.Get("/pedidos/{pedidoID}", orderHandler.GetOrder)
		r.Get("/pedidos/{pedidoID}/qr", orderHandler.GetOrderQR)
	})

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("SERVER", "Listening on "+cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("SERVER", fmt.Sprintf("Server failed: %v", err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("SERVER", "Shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("SERVER", fmt.Sprintf("Graceful shutdown failed: %v", err))
	}
	if producer != nil {
		if err := producer.Close(); err != nil {
			log.Error("KAFKA", fmt.Sprintf("Close producer: %v", err))
		}
	}
	if err := redisClient.Close(); err != nil {
		log.Error("REDIS", fmt.Sprintf("Close redis: %v", err))
	}
	if err := db.Close(); err != nil {
		log.Error("DATABASE", fmt.Sprintf("Close database: %v", err))
	}
	log.Info("SERVER", "Stopped")
}
