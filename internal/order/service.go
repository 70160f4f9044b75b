package order

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"farofatrip/internal/logger"
	"farofatrip/internal/models"
)

var (
	ErrInvalidQuantity = errors.New("quantity must be a positive integer")
	ErrInvalidPayment  = errors.New("unknown payment method")
	ErrEventNotFound   = errors.New("event not found")
	ErrOrderNotFound   = errors.New("order not found")
)

type DBLayer interface {
	GetEventByID(ctx context.Context, id int64) (*models.Event, error)
	CreateOrderWithItems(ctx context.Context, order *models.Order, items []*models.OrderItem) error
	ListOrdersByUser(ctx context.Context, userID int64) ([]models.Order, error)
	GetOrderByID(ctx context.Context, id int64) (*models.Order, error)
}

// Notifier delivers the order summary to the outside world. Best effort:
// implementations log failures and never return them.
type Notifier interface {
	SendOrderCreated(ctx context.Context, order *models.Order)
}

type Publisher interface {
	PublishOrderCreated(order *models.Order) error
}

type ItemRequest struct {
	EventoID      int64            `json:"evento_id"`
	Quantidade    *int             `json:"quantidade,omitempty"`
	PrecoIngresso *decimal.Decimal `json:"preco_ingresso,omitempty"`
	PrecoExcursao *decimal.Decimal `json:"preco_excursao,omitempty"`
}

type OrderRequest struct {
	FormaPagamento string        `json:"forma_pagamento,omitempty"`
	Observacoes    string        `json:"observacoes,omitempty"`
	Itens          []ItemRequest `json:"itens"`
}

// Service is the pricing engine: it resolves unit prices, snapshots them
// onto the order lines, totals the order and persists everything in one
// transaction.
type Service struct {
	DB        DBLayer
	Notifier  Notifier
	Publisher Publisher
	Logger    *logger.Logger
}

func NewService(db DBLayer, notifier Notifier, publisher Publisher, log *logger.Logger) *Service {
	return &Service{DB: db, Notifier: notifier, Publisher: publisher, Logger: log}
}

func (s *Service) PlaceOrder(ctx context.Context, userID *int64, req OrderRequest) (*models.Order, error) {
	switch req.FormaPagamento {
	case "", models.PaymentCard, models.PaymentPix, models.PaymentBoleto:
	default:
		return nil, ErrInvalidPayment
	}

	// Quantities are checked up front: nothing is written when any line
	// is invalid.
	for _, item := range req.Itens {
		if item.Quantidade != nil && *item.Quantidade <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	now := time.Now()
	order := &models.Order{
		UserID:         userID,
		Status:         models.StatusPending,
		FormaPagamento: req.FormaPagamento,
		ValorTotal:     decimal.Zero,
		Observacoes:    req.Observacoes,
		CriadoEm:       now,
		AtualizadoEm:   now,
	}

	total := decimal.Zero
	items := make([]*models.OrderItem, 0, len(req.Itens))
	for _, line := range req.Itens {
		event, err := s.DB.GetEventByID(ctx, line.EventoID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, fmt.Errorf("%w: evento %d", ErrEventNotFound, line.EventoID)
			}
			return nil, fmt.Errorf("load event %d: %w", line.EventoID, err)
		}

		quantidade := 1
		if line.Quantidade != nil {
			quantidade = *line.Quantidade
		}

		// The override wins; otherwise snapshot the event's current price.
		ingresso := event.Preco
		if line.PrecoIngresso != nil {
			ingresso = *line.PrecoIngresso
		}
		excursao := event.PrecoExcursao
		if line.PrecoExcursao != nil {
			excursao = *line.PrecoExcursao
		}

		subtotal := ingresso.Add(excursao).Mul(decimal.NewFromInt(int64(quantidade)))
		total = total.Add(subtotal)

		items = append(items, &models.OrderItem{
			EventID:       event.ID,
			Quantidade:    quantidade,
			PrecoIngresso: ingresso,
			PrecoExcursao: excursao,
			Subtotal:      subtotal,
			Event:         event,
		})
	}

	order.ValorTotal = total
	if order.FormaPagamento != "" {
		order.Status = models.StatusPaid
	}

	if err := s.DB.CreateOrderWithItems(ctx, order, items); err != nil {
		return nil, fmt.Errorf("persist order: %w", err)
	}
	order.Items = items

	// The order is committed; side effects from here on are best effort
	// and must never bubble back to the caller.
	s.Notifier.SendOrderCreated(context.WithoutCancel(ctx), order)
	if s.Publisher != nil {
		if err := s.Publisher.PublishOrderCreated(order); err != nil {
			s.Logger.Error("ORDER", fmt.Sprintf("PlaceOrder: publish order %d: %v", order.ID, err))
		}
	}

	s.Logger.Info("ORDER", fmt.Sprintf("PlaceOrder: order %d created, %d itens, total %s",
		order.ID, len(items), order.ValorTotal.StringFixed(2)))
	return order, nil
}

// ListOrders returns the account's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.DB.ListOrdersByUser(ctx, userID)
}

// GetOrder fetches one order, visible only to its owner.
func (s *Service) GetOrder(ctx context.Context, id int64, userID *int64) (*models.Order, error) {
	order, err := s.DB.GetOrderByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	if order.UserID == nil || userID == nil || *order.UserID != *userID {
		return nil, ErrOrderNotFound
	}
	return order, nil
}
