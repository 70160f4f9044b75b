package order

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"farofatrip/internal/auth"
	"farofatrip/internal/logger"
	"farofatrip/internal/models"
	"farofatrip/internal/utils"
)

type Handler struct {
	Service *Service
	QR      QRGenerator
	Logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req OrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	// Anonymous checkout is allowed; the order simply has no owner.
	var owner *int64
	if userID, ok := auth.UserID(r.Context()); ok {
		owner = &userID
	}

	created, err := h.Service.PlaceOrder(r.Context(), owner, req)
	if err != nil {
		fe := utils.FieldErrors{}
		switch {
		case errors.Is(err, ErrInvalidQuantity):
			fe.Add("quantidade", "A quantidade deve ser um número inteiro positivo.")
		case errors.Is(err, ErrInvalidPayment):
			fe.Add("forma_pagamento", "Forma de pagamento inválida.")
		case errors.Is(err, ErrEventNotFound):
			fe.Add("evento_id", "Evento não encontrado.")
		default:
			h.Logger.Error("API", fmt.Sprintf("CreateOrder: %v", err))
			http.Error(w, "Failed to create order", http.StatusInternalServerError)
			return
		}
		utils.WriteFieldErrors(w, fe)
		return
	}

	utils.WriteJSON(w, http.StatusCreated, created)
}

// ListOrders answers with the caller's own orders; anonymous callers get an
// empty list, not an error.
func (h *Handler) ListOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserID(r.Context())
	if !ok {
		utils.WriteJSON(w, http.StatusOK, []models.Order{})
		return
	}

	orders, err := h.Service.ListOrders(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListOrders: user %d: %v", userID, err))
		http.Error(w, "Failed to list orders", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, orders)
}

func (h *Handler) GetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}
	utils.WriteJSON(w, http.StatusOK, order)
}

func (h *Handler) GetOrderQR(w http.ResponseWriter, r *http.Request) {
	order, ok := h.loadOwnedOrder(w, r)
	if !ok {
		return
	}

	png, err := h.QR.Generate(order)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetOrderQR: order %d: %v", order.ID, err))
		http.Error(w, "Failed to generate QR code", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Write(png)
}

func (h *Handler) loadOwnedOrder(w http.ResponseWriter, r *http.Request) (*models.Order, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "pedidoID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid order id", http.StatusBadRequest)
		return nil, false
	}

	var owner *int64
	if userID, ok := auth.UserID(r.Context()); ok {
		owner = &userID
	}

	order, err := h.Service.GetOrder(r.Context(), id, owner)
	if err != nil {
		if errors.Is(err, ErrOrderNotFound) {
			http.Error(w, "Order not found", http.StatusNotFound)
			return nil, false
		}
		h.Logger.Error("API", fmt.Sprintf("GetOrder: order %d: %v", id, err))
		http.Error(w, "Failed to load order", http.StatusInternalServerError)
		return nil, false
	}
	return order, true
}
