package users

import (
	"context"
	"database/sql"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"
	"golang.org/x/crypto/bcrypt"

	"farofatrip/internal/models"
)

func newTestDB(t *testing.T) *bun.DB {
	t.Helper()
	sqldb, err := sql.Open(sqliteshim.ShimName, ":memory:")
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)

	db := bun.NewDB(sqldb, sqlitedialect.New())
	require.NoError(t, models.Migrate(context.Background(), db))
	t.Cleanup(func() { db.Close() })
	return db
}

func validInput() RegisterInput {
	return RegisterInput{
		Nome:     "Maria Clara Silva",
		Email:    "maria@example.com",
		Password: "farofa2024",
		CPF:      "123.456.789-00",
		Telefone: "(19) 97117-3838",
		Endereco: "Rua das Flores, 10",
	}
}

func TestRegisterCreatesUserAndProfile(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})
	ctx := context.Background()

	user, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	assert.Equal(t, "Maria", user.FirstName)
	assert.Equal(t, "Clara Silva", user.LastName)
	assert.Equal(t, "maria@example.com", user.Email)
	assert.True(t, user.Active)
	require.NotNil(t, user.Profile)
	assert.Equal(t, "123.456.789-00", user.Profile.CPF)

	// The stored password is a hash, never the plaintext.
	assert.NotEqual(t, "farofa2024", user.Password)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.Password), []byte("farofa2024")))

	loaded, err := svc.DB.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, loaded.Profile)
	assert.Equal(t, user.ID, loaded.Profile.UserID)
}

func TestRegisterUsernameDefaultsToEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})

	in := validInput()
	in.Username = ""
	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Username)
}

func TestRegisterNormalizesEmail(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})

	in := validInput()
	in.Email = "  MARIA@Example.COM "
	user, err := svc.Register(context.Background(), in)
	require.NoError(t, err)
	assert.Equal(t, "maria@example.com", user.Email)
}

func TestRegisterDuplicateEmailLeavesNothingBehind(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	// Same e-mail with different case and a different CPF.
	dup := validInput()
	dup.Email = "Maria@Example.com"
	dup.CPF = "987.654.321-00"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateEmail)

	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterDuplicateCPFLeavesNothingBehind(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})
	ctx := context.Background()

	_, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	dup := validInput()
	dup.Email = "outra@example.com"
	_, err = svc.Register(ctx, dup)
	assert.ErrorIs(t, err, ErrDuplicateCPF)

	users, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, users)

	profiles, err := db.NewSelect().Model((*models.Profile)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, profiles)
}

func TestRegisterInvalidInputFailsBeforeWrites(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})
	ctx := context.Background()

	in := validInput()
	in.Password = "12345678"
	_, err := svc.Register(ctx, in)

	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "password")

	count, err := db.NewSelect().Model((*models.User)(nil)).Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestChangePassword(t *testing.T) {
	db := newTestDB(t)
	svc := NewService(&DB{Bun: db})
	ctx := context.Background()

	user, err := svc.Register(ctx, validInput())
	require.NoError(t, err)

	err = svc.ChangePassword(ctx, user.ID, "errada", "novasenha1", "novasenha1")
	var verrs ValidationErrors
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "old_password")

	err = svc.ChangePassword(ctx, user.ID, "farofa2024", "novasenha1", "outra")
	require.ErrorAs(t, err, &verrs)
	assert.Contains(t, verrs.Fields(), "new_password_confirm")

	require.NoError(t, svc.ChangePassword(ctx, user.ID, "farofa2024", "novasenha1", "novasenha1"))

	updated, err := svc.DB.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(updated.Password), []byte("novasenha1")))
}
