package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"farofatrip/internal/logger"
	"farofatrip/internal/models"
	"farofatrip/internal/utils"
)

type Handler struct {
	DB     *DB
	Logger *logger.Logger
}

func NewHandler(db *DB, log *logger.Logger) *Handler {
	return &Handler{DB: db, Logger: log}
}

type eventRequest struct {
	Nome          string           `json:"nome"`
	Local         string           `json:"local"`
	Cidade        string           `json:"cidade"`
	Data          string           `json:"data"`
	Descricao     string           `json:"descricao"`
	Imagem        string           `json:"imagem"`
	Preco         *decimal.Decimal `json:"preco"`
	PrecoExcursao *decimal.Decimal `json:"preco_excursao"`
}

func (req *eventRequest) validate() (utils.FieldErrors, time.Time) {
	fe := utils.FieldErrors{}
	for field, value := range map[string]string{
		"nome": req.Nome, "local": req.Local, "cidade": req.Cidade, "data": req.Data,
	} {
		if value == "" {
			fe.Add(field, "Este campo é obrigatório.")
		}
	}
	if req.Preco == nil {
		fe.Add("preco", "Este campo é obrigatório.")
	} else if req.Preco.IsNegative() {
		fe.Add("preco", "O preço não pode ser negativo.")
	}
	if req.PrecoExcursao != nil && req.PrecoExcursao.IsNegative() {
		fe.Add("preco_excursao", "O preço não pode ser negativo.")
	}

	var data time.Time
	if req.Data != "" {
		var err error
		data, err = parseDate(req.Data)
		if err != nil {
			fe.Add("data", "Informe uma data válida (AAAA-MM-DD).")
		}
	}
	return fe, data
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t, nil
	}
	return time.Parse(time.RFC3339, value)
}

func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := ListFilter{
		Scope:    r.URL.Query().Get("scope"),
		Search:   r.URL.Query().Get("search"),
		Ordering: r.URL.Query().Get("ordering"),
	}
	events, err := h.DB.ListEvents(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		http.Error(w, "Failed to list events", http.StatusInternalServerError)
		return
	}
	if events == nil {
		events = []models.Event{}
	}
	utils.WriteJSON(w, http.StatusOK, events)
}

func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventoID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}
	event, err := h.DB.GetEventByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	fe, data := req.validate()
	if len(fe) > 0 {
		utils.WriteFieldErrors(w, fe)
		return
	}

	event := &models.Event{
		Nome:      req.Nome,
		Local:     req.Local,
		Cidade:    req.Cidade,
		Data:      data,
		Descricao: req.Descricao,
		Imagem:    req.Imagem,
		Preco:     *req.Preco,
	}
	if req.PrecoExcursao != nil {
		event.PrecoExcursao = *req.PrecoExcursao
	}

	if err := h.DB.CreateEvent(r.Context(), event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		http.Error(w, "Failed to create event", http.StatusInternalServerError)
		return
	}
	h.Logger.Info("API", fmt.Sprintf("CreateEvent: created event %d (%s)", event.ID, event.Nome))
	utils.WriteJSON(w, http.StatusCreated, event)
}

func (h *Handler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventoID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}
	event, err := h.DB.GetEventByID(r.Context(), id)
	if err != nil {
		http.Error(w, "Event not found", http.StatusNotFound)
		return
	}

	var req eventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	fe, data := req.validate()
	if len(fe) > 0 {
		utils.WriteFieldErrors(w, fe)
		return
	}

	event.Nome = req.Nome
	event.Local = req.Local
	event.Cidade = req.Cidade
	event.Data = data
	event.Descricao = req.Descricao
	event.Imagem = req.Imagem
	event.Preco = *req.Preco
	if req.PrecoExcursao != nil {
		event.PrecoExcursao = *req.PrecoExcursao
	} else {
		event.PrecoExcursao = decimal.Zero
	}

	if err := h.DB.UpdateEvent(r.Context(), event); err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateEvent: event %d: %v", id, err))
		http.Error(w, "Failed to update event", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, event)
}

func (h *Handler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "eventoID"), 10, 64)
	if err != nil {
		http.Error(w, "Invalid event id", http.StatusBadRequest)
		return
	}
	if err := h.DB.DeleteEvent(r.Context(), id); err != nil {
		if errors.Is(err, ErrEventInUse) {
			utils.WriteJSON(w, http.StatusConflict, map[string]string{
				"detail": "Evento possui pedidos e não pode ser excluído.",
				"code":   "protected",
			})
			return
		}
		h.Logger.Error("API", fmt.Sprintf("DeleteEvent: event %d: %v", id, err))
		http.Error(w, "Failed to delete event", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
