package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"farofatrip/internal/config"
	"farofatrip/internal/logger"
	"farofatrip/internal/models"
)

const defaultBaseURL = "https://graph.facebook.com/v21.0"

// WhatsApp posts a text summary of a committed order to the WhatsApp Cloud
// API. It is strictly best effort: without credentials it is a silent no-op,
// and transport failures are logged and swallowed. The order is already
// committed and must not be affected.
type WhatsApp struct {
	BaseURL string

	cfg    config.WhatsAppConfig
	client *http.Client
	logger *logger.Logger
}

func NewWhatsApp(cfg config.WhatsAppConfig, log *logger.Logger) *WhatsApp {
	return &WhatsApp{
		BaseURL: defaultBaseURL,
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		logger:  log,
	}
}

type textMessage struct {
	MessagingProduct string      `json:"messaging_product"`
	To               string      `json:"to"`
	Type             string      `json:"type"`
	Text             textPayload `json:"text"`
}

type textPayload struct {
	PreviewURL bool   `json:"preview_url"`
	Body       string `json:"body"`
}

func (w *WhatsApp) SendOrderCreated(ctx context.Context, order *models.Order) {
	if w.cfg.Token == "" || w.cfg.PhoneID == "" {
		return
	}

	payload, err := json.Marshal(textMessage{
		MessagingProduct: "whatsapp",
		To:               strings.TrimPrefix(w.cfg.Target, "+"),
		Type:             "text",
		Text: textPayload{
			PreviewURL: false,
			Body:       FormatOrderMessage(order),
		},
	})
	if err != nil {
		w.logger.Error("WHATSAPP", fmt.Sprintf("marshal message for order %d: %v", order.ID, err))
		return
	}

	url := fmt.Sprintf("%s/%s/messages", w.BaseURL, w.cfg.PhoneID)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		w.logger.Error("WHATSAPP", fmt.Sprintf("build request for order %d: %v", order.ID, err))
		return
	}
	req.Header.Set("Authorization", "Bearer "+w.cfg.Token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := w.client.Do(req)
	if err != nil {
		w.logger.Error("WHATSAPP", fmt.Sprintf("send message for order %d: %v", order.ID, err))
		return
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		w.logger.Error("WHATSAPP", fmt.Sprintf("send message for order %d: status %d", order.ID, resp.StatusCode))
	}
}

// FormatOrderMessage builds the human-readable multi-line order summary.
func FormatOrderMessage(order *models.Order) string {
	header := []string{
		fmt.Sprintf("🧾 *Novo pedido #%d*", order.ID),
		"",
	}

	if order.User != nil {
		header = append(header,
			fmt.Sprintf("👤 Cliente: %s", order.User.FullName()),
			fmt.Sprintf("📧 Email: %s", order.User.Email),
			"",
		)
	}

	forma := order.FormaPagamento
	if forma == "" {
		forma = "não informada"
	}
	header = append(header,
		fmt.Sprintf("💳 Forma de pagamento: %s", forma),
		fmt.Sprintf("💰 Valor total: R$ %s", order.ValorTotal.StringFixed(2)),
		"",
	)

	itemLines := []string{"📦 *Itens do pedido:*"}
	for _, item := range order.Items {
		nome := fmt.Sprintf("evento %d", item.EventID)
		if item.Event != nil {
			nome = item.Event.Nome
		}
		parts := []string{fmt.Sprintf("- %dx %s", item.Quantidade, nome)}
		if item.PrecoIngresso.IsPositive() {
			parts = append(parts, fmt.Sprintf("ingresso R$ %s", item.PrecoIngresso.StringFixed(2)))
		}
		if item.PrecoExcursao.IsPositive() {
			parts = append(parts, fmt.Sprintf("excursão R$ %s", item.PrecoExcursao.StringFixed(2)))
		}
		parts = append(parts, fmt.Sprintf("subtotal R$ %s", item.Subtotal.StringFixed(2)))
		itemLines = append(itemLines, strings.Join(parts, " | "))
	}
	if len(order.Items) == 0 {
		itemLines = append(itemLines, "- (sem itens cadastrados 😅)")
	}

	if order.Observacoes != "" {
		itemLines = append(itemLines, "", "📝 Observações:", order.Observacoes)
	}

	lines := append(header, "")
	lines = append(lines, itemLines...)
	return strings.Join(lines, "\n")
}
