package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"farofatrip/internal/logger"
	"farofatrip/internal/models"
)

// Producer publishes order lifecycle events for downstream consumers
// (reporting, fulfilment). Publishing is fire-and-forget from the API's
// point of view; the caller logs failures and moves on.
type Producer struct {
	writer *kafka.Writer
	logger *logger.Logger
}

func NewProducer(brokers []string, topic string, log *logger.Logger) *Producer {
	writer := &kafka.Writer{
		Addr:         kafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &kafka.LeastBytes{},
		BatchTimeout: 10 * time.Millisecond,
	}
	return &Producer{writer: writer, logger: log}
}

type orderCreatedEvent struct {
	PedidoID   int64     `json:"pedido_id"`
	UserID     *int64    `json:"user_id,omitempty"`
	Status     string    `json:"status"`
	ValorTotal string    `json:"valor_total"`
	Itens      int       `json:"itens"`
	CriadoEm   time.Time `json:"criado_em"`
}

func (p *Producer) PublishOrderCreated(order *models.Order) error {
	payload, err := json.Marshal(orderCreatedEvent{
		PedidoID:   order.ID,
		UserID:     order.UserID,
		Status:     order.Status,
		ValorTotal: order.ValorTotal.StringFixed(2),
		Itens:      len(order.Items),
		CriadoEm:   order.CriadoEm,
	})
	if err != nil {
		return fmt.Errorf("marshal order %d: %w", order.ID, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err = p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(fmt.Sprintf("%d", order.ID)),
		Value: payload,
	})
	if err != nil {
		return fmt.Errorf("write order %d: %w", order.ID, err)
	}

	p.logger.Debug("KAFKA", fmt.Sprintf("published order %d to %s", order.ID, p.writer.Topic))
	return nil
}

func (p *Producer) Close() error {
	return p.writer.Close()
}
