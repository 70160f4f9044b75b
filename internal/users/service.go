package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"farofatrip/internal/models"
)

const bcryptCost = 12

var (
	ErrDuplicateEmail    = errors.New("e-mail already registered")
	ErrDuplicateCPF      = errors.New("cpf already registered")
	ErrDuplicateUsername = errors.New("username already registered")
)

type RegisterInput struct {
	Nome     string `json:"nome,omitempty"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email"`
	Password string `json:"password"`
	CPF      string `json:"cpf"`
	Telefone string `json:"telefone,omitempty"`
	Endereco string `json:"endereco,omitempty"`
}

// Service provisions accounts. Registration runs as one transaction:
// either the account and its profile both exist afterwards, or neither
// does.
type Service struct {
	DB *DB
}

func NewService(db *DB) *Service {
	return &Service{DB: db}
}

func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	in.Email = normalizeEmail(in.Email)

	if errs := validateRegister(&in); len(errs) > 0 {
		return nil, errs
	}

	// Friendly pre-checks. The unique indexes remain the source of truth
	// under concurrency; violations at commit are translated below.
	if exists, err := s.DB.EmailExists(ctx, in.Email); err != nil {
		return nil, fmt.Errorf("check email: %w", err)
	} else if exists {
		return nil, ErrDuplicateEmail
	}
	if exists, err := s.DB.CPFExists(ctx, in.CPF); err != nil {
		return nil, fmt.Errorf("check cpf: %w", err)
	} else if exists {
		return nil, ErrDuplicateCPF
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	first, last := SplitNome(in.Nome)
	username := in.Username
	if username == "" {
		username = in.Email
	}

	user := &models.User{
		Username:  username,
		Email:     in.Email,
		Password:  string(hash),
		FirstName: first,
		LastName:  last,
		Active:    true,
		CreatedAt: time.Now(),
	}
	profile := &models.Profile{
		CPF:      in.CPF,
		Telefone: in.Telefone,
		Endereco: in.Endereco,
	}

	if err := s.DB.CreateUserWithProfile(ctx, user, profile); err != nil {
		if dup := translateUniqueViolation(err); dup != nil {
			return nil, dup
		}
		return nil, fmt.Errorf("create user: %w", err)
	}

	user.Profile = profile
	return user, nil
}

func (s *Service) ChangePassword(ctx context.Context, userID int64, oldPassword, newPassword, confirm string) error {
	user, err := s.DB.GetUserByID(ctx, userID)
	if err != nil {
		return fmt.Errorf("load user: %w", err)
	}

	var errs ValidationErrors
	if bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(oldPassword)) != nil {
		errs = append(errs, ValidationError{Field: "old_password", Message: "Senha atual incorreta."})
	}
	if newPassword != confirm {
		errs = append(errs, ValidationError{Field: "new_password_confirm", Message: "As senhas não coincidem."})
	}
	if msg := passwordPolicyViolation(newPassword); msg != "" {
		errs = append(errs, ValidationError{Field: "new_password", Message: msg})
	}
	if len(errs) > 0 {
		return errs
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcryptCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	user.Password = string(hash)
	user.UpdatedAt = time.Now()
	return s.DB.UpdateUser(ctx, user)
}

// translateUniqueViolation maps storage-layer uniqueness errors onto the
// duplicate taxonomy, so a lost race answers the same way a pre-check hit
// would. Covers the sqlite and postgres message formats.
func translateUniqueViolation(err error) error {
	msg := strings.ToLower(err.Error())
	if !strings.Contains(msg, "unique") && !strings.Contains(msg, "duplicate key") {
		return nil
	}
	switch {
	case strings.Contains(msg, "cpf"):
		return ErrDuplicateCPF
	case strings.Contains(msg, "email"):
		return ErrDuplicateEmail
	case strings.Contains(msg, "username"):
		return ErrDuplicateUsername
	default:
		return nil
	}
}
