package users

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"farofatrip/internal/logger"
	"farofatrip/internal/models"
	"farofatrip/internal/utils"
)

// ProfileResponse is the combined account + profile representation the
// /usuarios endpoints speak.
type ProfileResponse struct {
	ID        int64  `json:"id"`
	Username  string `json:"username"`
	Email     string `json:"email"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	CPF       string `json:"cpf,omitempty"`
	Telefone  string `json:"telefone,omitempty"`
	Endereco  string `json:"endereco,omitempty"`
}

func NewProfileResponse(user *models.User) ProfileResponse {
	resp := ProfileResponse{
		ID:        user.ID,
		Username:  user.Username,
		Email:     user.Email,
		FirstName: user.FirstName,
		LastName:  user.LastName,
	}
	if user.Profile != nil {
		resp.CPF = user.Profile.CPF
		resp.Telefone = user.Profile.Telefone
		resp.Endereco = user.Profile.Endereco
	}
	return resp
}

type Handler struct {
	Service *Service
	Logger  *logger.Logger
}

func NewHandler(service *Service, log *logger.Logger) *Handler {
	return &Handler{Service: service, Logger: log}
}

func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Service.DB.ListUsers(r.Context())
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListUsers: %v", err))
		http.Error(w, "Failed to list users", http.StatusInternalServerError)
		return
	}
	out := make([]ProfileResponse, len(users))
	for i := range users {
		out[i] = NewProfileResponse(&users[i])
	}
	utils.WriteJSON(w, http.StatusOK, out)
}

func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.UserID(r.Context())
	if !ok {
		utils.WriteAuthError(w, http.StatusUnauthorized,
			"As credenciais de autenticação não foram fornecidas.", "not_authenticated")
		return
	}
	user, err := h.Service.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetMe: user %d not found: %v", userID, err))
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}
	utils.WriteJSON(w, http.StatusOK, NewProfileResponse(user))
}

type updateMeRequest struct {
	Username  *string `json:"username"`
	Email     *string `json:"email"`
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	CPF       *string `json:"cpf"`
	Telefone  *string `json:"telefone"`
	Endereco  *string `json:"endereco"`
}

func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := utils.UserID(r.Context())
	if !ok {
		utils.WriteAuthError(w, http.StatusUnauthorized,
			"As credenciais de autenticação não foram fornecidas.", "not_authenticated")
		return
	}

	var req updateMeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body: "+err.Error(), http.StatusBadRequest)
		return
	}

	user, err := h.Service.DB.GetUserByID(r.Context(), userID)
	if err != nil {
		http.Error(w, "User not found", http.StatusNotFound)
		return
	}

	fe := utils.FieldErrors{}
	if req.Username != nil && *req.Username != "" {
		user.Username = *req.Username
	}
	if req.Email != nil {
		email := normalizeEmail(*req.Email)
		if !emailRegexp.MatchString(email) {
			fe.Add("email", "Informe um endereço de e-mail válido.")
		} else {
			user.Email = email
		}
	}
	if req.FirstName != nil {
		user.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		user.LastName = *req.LastName
	}
	if user.Profile != nil {
		if req.CPF != nil {
			if !cpfRegexp.MatchString(*req.CPF) {
				fe.Add("cpf", "O CPF deve estar no formato 000.000.000-00.")
			} else {
				user.Profile.CPF = *req.CPF
			}
		}
		if req.Telefone != nil {
			if *req.Telefone != "" && !telefoneRegexp.MatchString(*req.Telefone) {
				fe.Add("telefone", "O telefone deve estar no formato (00) 00000-0000.")
			} else {
				user.Profile.Telefone = *req.Telefone
			}
		}
		if req.Endereco != nil {
			user.Profile.Endereco = *req.Endereco
		}
	}
	if len(fe) > 0 {
		utils.WriteFieldErrors(w, fe)
		return
	}

	user.UpdatedAt = time.Now()
	if err := h.Service.DB.UpdateUser(r.Context(), user); err != nil {
		if dup := translateUniqueViolation(err); dup != nil {
			h.writeDuplicate(w, dup)
			return
		}
		h.Logger.Error("API", fmt.Sprintf("UpdateMe: update user %d: %v", userID, err))
		http.Error(w, "Failed to update user", http.StatusInternalServerError)
		return
	}
	if user.Profile != nil {
		if err := h.Service.DB.UpdateProfile(r.Context(), user.Profile); err != nil {
			if dup := translateUniqueViolation(err); dup != nil {
				h.writeDuplicate(w, dup)
				return
			}
			h.Logger.Error("API", fmt.Sprintf("UpdateMe: update profile of user %d: %v", userID, err))
			http.Error(w, "Failed to update profile", http.StatusInternalServerError)
			return
		}
	}

	utils.WriteJSON(w, http.StatusOK, NewProfileResponse(user))
}

func (h *Handler) writeDuplicate(w http.ResponseWriter, dup error) {
	fe := utils.FieldErrors{}
	switch dup {
	case ErrDuplicateEmail:
		fe.Add("email", "E-mail já cadastrado.")
	case ErrDuplicateCPF:
		fe.Add("cpf", "CPF já cadastrado.")
	case ErrDuplicateUsername:
		fe.Add("username", "Nome de usuário já cadastrado.")
	}
	utils.WriteFieldErrors(w, fe)
}
