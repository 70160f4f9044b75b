package users

import (
	"context"
	"database/sql"
	"strings"

	"github.com/uptrace/bun"

	"farofatrip/internal/models"
)

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetUserByID(ctx context.Context, id int64) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Relation("Profile").
		Where("\"user\".id = ?", id).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (d *DB) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	var user models.User
	err := d.Bun.NewSelect().
		Model(&user).
		Relation("Profile").
		Where("\"user\".username = ?", username).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetUsersByEmail matches case-insensitively and returns every row, so the
// caller can surface the ambiguous case instead of silently picking one.
func (d *DB) GetUsersByEmail(ctx context.Context, email string) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Where("lower(email) = ?", strings.ToLower(email)).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

func (d *DB) EmailExists(ctx context.Context, email string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.User)(nil)).
		Where("lower(email) = ?", strings.ToLower(email)).
		Exists(ctx)
}

func (d *DB) CPFExists(ctx context.Context, cpf string) (bool, error) {
	return d.Bun.NewSelect().
		Model((*models.Profile)(nil)).
		Where("cpf = ?", cpf).
		Exists(ctx)
}

func (d *DB) ListUsers(ctx context.Context) ([]models.User, error) {
	var users []models.User
	err := d.Bun.NewSelect().
		Model(&users).
		Relation("Profile").
		Order("id ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return users, nil
}

// CreateUserWithProfile creates the account and its profile in one
// transaction. The profile write is an upsert keyed by the account, so a
// pre-existing profile row is updated rather than duplicated.
func (d *DB) CreateUserWithProfile(ctx context.Context, user *models.User, profile *models.Profile) error {
	return d.Bun.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(user).Exec(ctx); err != nil {
			return err
		}
		profile.UserID = user.ID
		_, err := tx.NewInsert().
			Model(profile).
			On("CONFLICT (user_id) DO UPDATE").
			Set("cpf = EXCLUDED.cpf").
			Set("telefone = EXCLUDED.telefone").
			Set("endereco = EXCLUDED.endereco").
			Exec(ctx)
		return err
	})
}

func (d *DB) UpdateUser(ctx context.Context, user *models.User) error {
	_, err := d.Bun.NewUpdate().
		Model(user).
		Column("username", "email", "first_name", "last_name", "password", "active", "updated_at").
		WherePK().
		Exec(ctx)
	return err
}

func (d *DB) UpdateProfile(ctx context.Context, profile *models.Profile) error {
	_, err := d.Bun.NewUpdate().
		Model(profile).
		Column("cpf", "telefone", "endereco").
		WherePK().
		Exec(ctx)
	return err
}
