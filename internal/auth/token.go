package auth

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"farofatrip/internal/config"
	"farofatrip/internal/models"
)

type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh,omitempty"`
}

// UserGetter loads accounts during refresh, so tokens of deactivated or
// deleted accounts stop working before their expiry.
type UserGetter interface {
	GetUserByID(ctx context.Context, id int64) (*models.User, error)
}

// TokenService issues and verifies the paired access/refresh tokens.
// Both are HS256-signed; refresh tokens carry a jti that the blacklist
// is keyed by.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	rotate     bool
	blacklist  Blacklist
	users      UserGetter
}

func NewTokenService(cfg config.AuthConfig, blacklist Blacklist, users UserGetter) *TokenService {
	if len(cfg.Secret) < 32 {
		panic("auth secret must be at least 32 bytes")
	}
	return &TokenService{
		secret:     []byte(cfg.Secret),
		accessTTL:  cfg.AccessTTL,
		refreshTTL: cfg.RefreshTTL,
		rotate:     cfg.RotateRefresh,
		blacklist:  blacklist,
		users:      users,
	}
}

// Issue produces a fresh access/refresh pair for an authenticated account.
func (s *TokenService) Issue(user *models.User) (*TokenPair, error) {
	access, err := s.signAccess(user.ID)
	if err != nil {
		return nil, err
	}
	refresh, err := s.signRefresh(user.ID)
	if err != nil {
		return nil, err
	}
	return &TokenPair{Access: access, Refresh: refresh}, nil
}

// Refresh exchanges a live refresh token for a new access token. When
// rotation is configured, the old refresh token is revoked and a new one
// returned alongside.
func (s *TokenService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.parse(refreshToken, "refresh")
	if err != nil {
		return nil, err
	}

	jti, _ := claims["jti"].(string)
	if jti == "" {
		return nil, ErrTokenNotValid
	}
	revoked, err := s.blacklist.IsRevoked(ctx, jti)
	if err != nil {
		return nil, fmt.Errorf("blacklist lookup: %w", err)
	}
	if revoked {
		return nil, ErrTokenNotValid
	}

	userID, err := subjectID(claims)
	if err != nil {
		return nil, ErrTokenNotValid
	}
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil || !user.Active {
		return nil, ErrTokenNotValid
	}

	access, err := s.signAccess(user.ID)
	if err != nil {
		return nil, err
	}
	pair := &TokenPair{Access: access}

	if s.rotate {
		if ttl := remainingTTL(claims); ttl > 0 {
			if err := s.blacklist.Revoke(ctx, jti, ttl); err != nil {
				return nil, fmt.Errorf("revoke rotated token: %w", err)
			}
		}
		refresh, err := s.signRefresh(user.ID)
		if err != nil {
			return nil, err
		}
		pair.Refresh = refresh
	}

	return pair, nil
}

// Revoke inserts a refresh token into the blacklist. Once revoked the token
// can never again produce an access token.
func (s *TokenService) Revoke(ctx context.Context, refreshToken string) error {
	claims, err := s.parse(refreshToken, "refresh")
	if err != nil {
		return err
	}
	jti, _ := claims["jti"].(string)
	if jti == "" {
		return ErrTokenNotValid
	}
	ttl := remainingTTL(claims)
	if ttl <= 0 {
		return ErrTokenNotValid
	}
	return s.blacklist.Revoke(ctx, jti, ttl)
}

// VerifyAccess validates an access token and returns the account id it was
// issued for.
func (s *TokenService) VerifyAccess(tokenString string) (int64, error) {
	claims, err := s.parse(tokenString, "access")
	if err != nil {
		return 0, err
	}
	userID, err := subjectID(claims)
	if err != nil {
		return 0, ErrTokenNotValid
	}
	return userID, nil
}

func (s *TokenService) signAccess(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"typ": "access",
		"iat": now.Unix(),
		"exp": now.Add(s.accessTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

func (s *TokenService) signRefresh(userID int64) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
		"typ": "refresh",
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.refreshTTL).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign refresh token: %w", err)
	}
	return signed, nil
}

// parse validates signature, expiry and token type. Every failure mode maps
// to ErrTokenNotValid so callers answer with one stable reason code.
func (s *TokenService) parse(tokenString, wantTyp string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrTokenNotValid
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, ErrTokenNotValid
	}
	if typ, _ := claims["typ"].(string); typ != wantTyp {
		return nil, ErrTokenNotValid
	}
	return claims, nil
}

func subjectID(claims jwt.MapClaims) (int64, error) {
	sub, _ := claims["sub"].(string)
	return strconv.ParseInt(sub, 10, 64)
}

func remainingTTL(claims jwt.MapClaims) time.Duration {
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return 0
	}
	return time.Until(exp.Time)
}
