package http

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/service"
	"github.com/nordbooks/tenauth/pkg/httpx"
	"github.com/nordbooks/tenauth/pkg/jwtx"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

// LoginHandler authenticates a username/password pair and issues a session
// token.
type LoginHandler struct {
	Authenticator *service.Authenticator
	Signer        *jwtx.SessionSigner
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type sessionPayload struct {
	Token    string        `json:"token,omitempty"`
	UserID   string        `json:"user_id"`
	Username string        `json:"username"`
	Role     string        `json:"role"`
	Tenant   tenantPayload `json:"tenant"`
}

type tenantPayload struct {
	ID                   string `json:"id"`
	DisplayName          string `json:"display_name,omitempty"`
	IdentificationNumber string `json:"identification_number,omitempty"`
}

func sessionResponse(sess domain.Session, token string) sessionPayload {
	return sessionPayload{
		Token:    token,
		UserID:   sess.User.ID,
		Username: sess.User.Username,
		Role:     sess.User.Role,
		Tenant: tenantPayload{
			ID:                   sess.Tenant.Tenant.ID,
			DisplayName:          sess.Tenant.Tenant.DisplayName,
			IdentificationNumber: sess.Tenant.Tenant.IdentificationNumber,
		},
	}
}

func (h *LoginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "malformed JSON body")
		return
	}
	if req.Username == "" || req.Password == "" {
		httpx.WriteError(w, http.StatusBadRequest, "invalid_request", "username and password are required")
		return
	}

	sess, err := h.Authenticator.Login(r.Context(), req.Username, req.Password)
	if err != nil {
		// Every login failure maps to the same generic answer so the
		// response never reveals whether the username exists anywhere.
		httpx.WriteError(w, http.StatusUnauthorized, "invalid_credentials", "username or password is incorrect")
		return
	}

	token, err := h.Signer.Sign(sess.User.ID, sess.User.Username, sess.User.TenantID, sess.User.Role, time.Now())
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to sign session token", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "failed to issue session token")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionResponse(sess, token))
}
