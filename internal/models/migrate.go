package models

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

// Migrate creates the schema. Cascade and restrict rules live in the
// database so that partial writes and dangling order lines are impossible
// even under concurrent requests.
func Migrate(ctx context.Context, db *bun.DB) error {
	if _, err := db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create users table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Profile)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE CASCADE`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create profiles table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Event)(nil)).
		IfNotExists().
		Exec(ctx); err != nil {
		return fmt.Errorf("create eventos table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*Order)(nil)).
		IfNotExists().
		ForeignKey(`("user_id") REFERENCES "users" ("id") ON DELETE SET NULL`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create pedidos table: %w", err)
	}

	if _, err := db.NewCreateTable().
		Model((*OrderItem)(nil)).
		IfNotExists().
		ForeignKey(`("order_id") REFERENCES "pedidos" ("id") ON DELETE CASCADE`).
		ForeignKey(`("event_id") REFERENCES "eventos" ("id") ON DELETE RESTRICT`).
		Exec(ctx); err != nil {
		return fmt.Errorf("create itens_pedido table: %w", err)
	}

	return nil
}
