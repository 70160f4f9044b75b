package auth

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"farofatrip/internal/utils"
)

// Middleware rejects requests without a valid bearer access token and puts
// the account id into the request context.
func Middleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			rawToken, err := bearerToken(r)
			if err != nil {
				utils.WriteAuthError(w, http.StatusUnauthorized,
					"As credenciais de autenticação não foram fornecidas.", "not_authenticated")
				return
			}

			userID, err := tokens.VerifyAccess(rawToken)
			if err != nil {
				utils.WriteAuthError(w, http.StatusUnauthorized,
					"O token é inválido ou expirado.", "token_not_valid")
				return
			}

			ctx := utils.WithUserID(r.Context(), userID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// OptionalMiddleware attaches the account id when a valid token is present
// and lets the request through anonymously otherwise. Owner-scoped handlers
// degrade to empty results instead of failing.
func OptionalMiddleware(tokens *TokenService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if rawToken, err := bearerToken(r); err == nil {
				if userID, err := tokens.VerifyAccess(rawToken); err == nil {
					r = r.WithContext(utils.WithUserID(r.Context(), userID))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// UserID extracts the authenticated account id from a request context.
func UserID(ctx context.Context) (int64, bool) {
	return utils.UserID(ctx)
}

func bearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return "", errors.New("authorization header is missing")
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errors.New("authorization header format must be 'Bearer {token}'")
	}
	return parts[1], nil
}
