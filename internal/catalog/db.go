package catalog

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/uptrace/bun"

	"farofatrip/internal/models"
)

// ErrEventInUse signals that an event is referenced by at least one order
// line and therefore protected against deletion.
var ErrEventInUse = errors.New("event is referenced by order items")

// Query filters for the event listing.
type ListFilter struct {
	Scope    string // future | past | all
	Search   string // substring match on nome and cidade
	Ordering string // data | preco | nome, "-" prefix for descending
}

var orderableColumns = map[string]string{
	"data":  "data",
	"preco": "preco",
	"nome":  "nome",
}

type DB struct {
	Bun *bun.DB
}

func (d *DB) ListEvents(ctx context.Context, filter ListFilter) ([]models.Event, error) {
	var events []models.Event
	q := d.Bun.NewSelect().Model(&events)

	today := time.Now().Truncate(24 * time.Hour)
	switch filter.Scope {
	case "future":
		q = q.Where("data >= ?", today)
	case "past":
		q = q.Where("data < ?", today)
	}

	if filter.Search != "" {
		pattern := "%" + strings.ToLower(filter.Search) + "%"
		q = q.WhereGroup(" AND ", func(q *bun.SelectQuery) *bun.SelectQuery {
			return q.
				WhereOr("lower(nome) LIKE ?", pattern).
				WhereOr("lower(cidade) LIKE ?", pattern)
		})
	}

	ordering := filter.Ordering
	direction := "ASC"
	if strings.HasPrefix(ordering, "-") {
		ordering = ordering[1:]
		direction = "DESC"
	}
	column, ok := orderableColumns[ordering]
	if !ok {
		column, direction = "data", "ASC"
	}
	q = q.Order(column + " " + direction)

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return events, nil
}

func (d *DB) GetEventByID(ctx context.Context, id int64) (*models.Event, error) {
	var event models.Event
	err := d.Bun.NewSelect().
		Model(&event).
		Where("id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) CreateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewInsert().Model(event).Exec(ctx)
	return err
}

func (d *DB) UpdateEvent(ctx context.Context, event *models.Event) error {
	_, err := d.Bun.NewUpdate().
		Model(event).
		Column("nome", "local", "cidade", "data", "descricao", "imagem", "preco", "preco_excursao").
		WherePK().
		Exec(ctx)
	return err
}

// DeleteEvent refuses to delete an event with order history. The foreign
// key is RESTRICT as well, so a race past this check still cannot cascade
// into order lines.
func (d *DB) DeleteEvent(ctx context.Context, id int64) error {
	referenced, err := d.Bun.NewSelect().
		Model((*models.OrderItem)(nil)).
		Where("event_id = ?", id).
		Exists(ctx)
	if err != nil {
		return err
	}
	if referenced {
		return ErrEventInUse
	}

	_, err = d.Bun.NewDelete().
		Model((*models.Event)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "foreign key") {
		return ErrEventInUse
	}
	return err
}
