package utils

import (
	"encoding/json"
	"net/http"
)

// AuthError is the body of 401 responses on the token endpoints:
// a human-readable detail plus a stable machine-readable code.
type AuthError struct {
	Detail string `json:"detail"`
	Code   string `json:"code"`
}

// FieldErrors maps input field names to their validation messages,
// the shape the register and change-password endpoints answer 400 with.
type FieldErrors map[string][]string

func (fe FieldErrors) Add(field, message string) {
	fe[field] = append(fe[field], message)
}

func WriteJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func WriteAuthError(w http.ResponseWriter, status int, detail, code string) {
	WriteJSON(w, status, AuthError{Detail: detail, Code: code})
}

func WriteFieldErrors(w http.ResponseWriter, fe FieldErrors) {
	WriteJSON(w, http.StatusBadRequest, fe)
}
