package order

import (
	"encoding/json"

	"github.com/skip2/go-qrcode"

	"farofatrip/internal/models"
)

// QRGenerator renders an order confirmation as a QR code PNG, scannable at
// the excursion meeting point.
type QRGenerator struct{}

type qrPayload struct {
	PedidoID   int64  `json:"pedido_id"`
	Status     string `json:"status"`
	ValorTotal string `json:"valor_total"`
}

func (QRGenerator) Generate(order *models.Order) ([]byte, error) {
	payload, err := json.Marshal(qrPayload{
		PedidoID:   order.ID,
		Status:     order.Status,
		ValorTotal: order.ValorTotal.StringFixed(2),
	})
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(string(payload), qrcode.Medium, 256)
}
