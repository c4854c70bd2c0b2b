package http

import (
	"net/http"

	"github.com/nordbooks/tenauth/internal/auth/service"
	"github.com/nordbooks/tenauth/pkg/httpx"
	"github.com/nordbooks/tenauth/pkg/slogx"
)

// SessionHandler exposes the current durable session and logout.
type SessionHandler struct {
	Authenticator *service.Authenticator
}

// HandleGet returns the active session, with its tenant linkage repaired and
// re-resolved against the tenant directory.
func (h *SessionHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	sess, err := h.Authenticator.CurrentSession(r.Context())
	if err != nil {
		slogx.FromContext(r.Context()).Error("failed to load session", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "failed to load session")
		return
	}
	if sess == nil {
		httpx.WriteError(w, http.StatusUnauthorized, "no_session", "nobody is logged in")
		return
	}

	httpx.WriteJSON(w, http.StatusOK, sessionResponse(*sess, ""))
}

// HandleLogout destroys the durable session.
func (h *SessionHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	if err := h.Authenticator.Logout(r.Context()); err != nil {
		slogx.FromContext(r.Context()).Error("failed to clear session", "error", err)
		httpx.WriteError(w, http.StatusInternalServerError, "server_error", "failed to clear session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
