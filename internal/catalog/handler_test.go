package catalog

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"farofatrip/internal/logger"
	"farofatrip/internal/models"
)

func newTestRouter(t *testing.T) (*chi.Mux, *DB) {
	t.Helper()
	db := newTestDB(t)
	h := NewHandler(db, logger.Discard())

	r := chi.NewRouter()
	r.Get("/eventos", h.ListEvents)
	r.Post("/eventos", h.CreateEvent)
	r.Get("/eventos/{eventoID}", h.GetEvent)
	r.Put("/eventos/{eventoID}", h.UpdateEvent)
	r.Delete("/eventos/{eventoID}", h.DeleteEvent)
	return r, db
}

func do(t *testing.T, r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestCreateEventHTTP(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/eventos", map[string]interface{}{
		"nome":           "Farofa na Praia",
		"local":          "Praia Grande",
		"cidade":         "Ubatuba",
		"data":           "2026-12-20",
		"preco":          "100.00",
		"preco_excursao": "20.00",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var event models.Event
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &event))
	assert.NotZero(t, event.ID)
	assert.Equal(t, "Farofa na Praia", event.Nome)
}

func TestCreateEventValidation(t *testing.T) {
	r, _ := newTestRouter(t)

	rec := do(t, r, http.MethodPost, "/eventos", map[string]interface{}{
		"nome":  "Sem cidade",
		"preco": "-1.00",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var fields map[string][]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &fields))
	assert.Contains(t, fields, "local")
	assert.Contains(t, fields, "cidade")
	assert.Contains(t, fields, "data")
	assert.Contains(t, fields, "preco")
}

func TestGetEventNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	rec := do(t, r, http.MethodGet, "/eventos/999", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteProtectedEventHTTP(t *testing.T) {
	r, db := newTestRouter(t)
	ctx := context.Background()

	event := seedEvent(t, db, "Farofa na Praia", "Ubatuba", time.Now().Add(72*time.Hour), "100.00")

	order := &models.Order{Status: models.StatusPaid, ValorTotal: decimal.RequireFromString("120.00"), CriadoEm: time.Now()}
	_, err := db.Bun.NewInsert().Model(order).Exec(ctx)
	require.NoError(t, err)
	item := &models.OrderItem{
		OrderID:       order.ID,
		EventID:       event.ID,
		Quantidade:    1,
		PrecoIngresso: event.Preco,
		PrecoExcursao: event.PrecoExcursao,
		Subtotal:      event.Preco.Add(event.PrecoExcursao),
	}
	_, err = db.Bun.NewInsert().Model(item).Exec(ctx)
	require.NoError(t, err)

	rec := do(t, r, http.MethodDelete, fmt.Sprintf("/eventos/%d", event.ID), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), "protected")
}
