package auth

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"farofatrip/internal/logger"
	"farofatrip/internal/users"
	"farofatrip/internal/utils"
)

type Handler struct {
	Resolver *Resolver
	Tokens   *TokenService
	Users    *users.Service
	Logger   *logger.Logger
}

func NewHandler(resolver *Resolver, tokens *TokenService, userService *users.Service, log *logger.Logger) *Handler {
	return &Handler{Resolver: resolver, Tokens: tokens, Users: userService, Logger: log}
}

type loginRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Resolver.Resolve(r.Context(), req.Username, req.Email, req.Password)
	if err != nil {
		switch {
		case errors.Is(err, ErrUserNotFound):
			utils.WriteAuthError(w, http.StatusUnauthorized,
				"Usuário com esse e-mail não encontrado.", "user_not_found")
		case errors.Is(err, ErrAmbiguousEmail):
			h.Logger.Warn("AUTH", fmt.Sprintf("Login: ambiguous e-mail %q", req.Email))
			utils.WriteAuthError(w, http.StatusUnauthorized,
				"Há mais de um usuário com este e-mail. Contate o suporte.", "ambiguous_email")
		case errors.Is(err, ErrInvalidCredentials):
			utils.WriteAuthError(w, http.StatusUnauthorized,
				"Usuário ou senha inválidos.", "invalid_credentials")
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("Login: %v", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
		}
		return
	}

	pair, err := h.Tokens.Issue(user)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Login: issue tokens for user %d: %v", user.ID, err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, pair)
}

type refreshRequest struct {
	Refresh string `json:"refresh"`
}

func (h *Handler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}
	if req.Refresh == "" {
		fe := utils.FieldErrors{}
		fe.Add("refresh", "Este campo é obrigatório.")
		utils.WriteFieldErrors(w, fe)
		return
	}

	pair, err := h.Tokens.Refresh(r.Context(), req.Refresh)
	if err != nil {
		if errors.Is(err, ErrTokenNotValid) {
			utils.WriteAuthError(w, http.StatusUnauthorized,
				"O token é inválido ou expirado.", "token_not_valid")
			return
		}
		h.Logger.Error("AUTH", fmt.Sprintf("Refresh: %v", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, pair)
}

// Logout blacklists the session's refresh token. Runs behind the auth
// middleware; a missing or already-invalid token answers 400, success 205.
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Refresh == "" {
		fe := utils.FieldErrors{}
		fe.Add("refresh", "Este campo é obrigatório.")
		utils.WriteFieldErrors(w, fe)
		return
	}

	if err := h.Tokens.Revoke(r.Context(), req.Refresh); err != nil {
		if errors.Is(err, ErrTokenNotValid) {
			utils.WriteAuthError(w, http.StatusBadRequest,
				"O token é inválido ou expirado.", "token_not_valid")
			return
		}
		h.Logger.Error("AUTH", fmt.Sprintf("Logout: %v", err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusResetContent)
}

func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req users.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Users.Register(r.Context(), req)
	if err != nil {
		var verrs users.ValidationErrors
		fe := utils.FieldErrors{}
		switch {
		case errors.As(err, &verrs):
			for field, msgs := range verrs.Fields() {
				fe[field] = msgs
			}
		case errors.Is(err, users.ErrDuplicateEmail):
			fe.Add("email", "E-mail já cadastrado.")
		case errors.Is(err, users.ErrDuplicateCPF):
			fe.Add("cpf", "CPF já cadastrado.")
		case errors.Is(err, users.ErrDuplicateUsername):
			fe.Add("username", "Nome de usuário já cadastrado.")
		default:
			h.Logger.Error("AUTH", fmt.Sprintf("Register: %v", err))
			http.Error(w, "Internal server error", http.StatusInternalServerError)
			return
		}
		utils.WriteFieldErrors(w, fe)
		return
	}

	h.Logger.Info("AUTH", fmt.Sprintf("Register: created user %d (%s)", user.ID, user.Username))
	utils.WriteJSON(w, http.StatusCreated, map[string]interface{}{
		"user": users.NewProfileResponse(user),
	})
}

type changePasswordRequest struct {
	OldPassword        string `json:"old_password"`
	NewPassword        string `json:"new_password"`
	NewPasswordConfirm string `json:"new_password_confirm"`
}

func (h *Handler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := UserID(r.Context())
	if !ok {
		utils.WriteAuthError(w, http.StatusUnauthorized,
			"As credenciais de autenticação não foram fornecidas.", "not_authenticated")
		return
	}

	var req changePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	if err := h.Users.ChangePassword(r.Context(), userID, req.OldPassword, req.NewPassword, req.NewPasswordConfirm); err != nil {
		var verrs users.ValidationErrors
		if errors.As(err, &verrs) {
			utils.WriteFieldErrors(w, utils.FieldErrors(verrs.Fields()))
			return
		}
		h.Logger.Error("AUTH", fmt.Sprintf("ChangePassword: user %d: %v", userID, err))
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}
	utils.WriteJSON(w, http.StatusOK, map[string]string{"detail": "Senha alterada com sucesso."})
}
