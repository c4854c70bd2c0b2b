package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nordbooks/tenauth/internal/auth/service"
	"github.com/nordbooks/tenauth/pkg/httpx"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

// RegisterHandler creates a self-registered account inside a tenant.
type RegisterHandler struct {
	Registration *service.RegistrationService
}

type registerRequest struct {
	TenantID string `json:"tenant_id"`
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

type registerResponse struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	TenantID string `json:"tenant_id"`
	Role     string `json:"role"`
}

func (h *RegisterHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}

	user, err := h.Registration.Register(r.Context(), req.TenantID, req.Username, req.Password, req.Email)
	switch {
	case errors.Is(err, service.ErrUsernameTaken):
		httpx.WriteError(w, http.StatusConflict, "username_taken", "that username is already registered")
		return
	case err != nil:
		slogx.FromContext(r.Context()).Warn("registration rejected", "error", err)
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", err.Error())
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, registerResponse{
		UserID:   user.ID,
		Username: user.Username,
		TenantID: user.TenantID,
		Role:     user.Role,
	})
}
