// Package session owns the process's single active session and its durable
// local state.
package session

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
)

// Storage keys for the two persisted entries.
const (
	userKey           = "session.user"
	selectedTenantKey = "session.selected_tenant"
)

// persistedUser is the on-disk shape of the session user. Kept separate from
// domain.User so the storage format stays stable under domain refactors.
type persistedUser struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	PasswordHash string     `json:"-"`
	Email        string     `json:"email,omitempty"`
	TenantID     string     `json:"tenant_id,omitempty"`
	Role         string     `json:"role"`
	IsActive     bool       `json:"is_active"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// Manager exclusively owns the single active session of this process. It is
// safe for concurrent use, but logins themselves are expected to be
// serialized by the caller: the last committed login wins.
type Manager struct {
	storage         Storage
	logger          *slog.Logger
	defaultTenantID string

	mu     sync.Mutex
	cached *domain.User
	loaded bool
}

func NewManager(storage Storage, defaultTenantID string, logger *slog.Logger) *Manager {
	return &Manager{
		storage:         storage,
		logger:          logger,
		defaultTenantID: defaultTenantID,
	}
}

// Commit makes user the active session, replacing any prior one, and
// persists both the user entry and the selected tenant entry.
func (m *Manager) Commit(user domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.writeUser(user); err != nil {
		return err
	}
	if user.TenantID != "" {
		if err := m.writeSelectedTenant(user.TenantID); err != nil {
			return err
		}
	}

	u := user
	m.cached = &u
	m.loaded = true
	return nil
}

// Current returns the active session user, or nil when there is none. Before
// returning it enforces the tenant-linkage invariant: a restored user with no
// tenant id gets one from the persisted selected-tenant entry, falling back
// to the fixed default tenant, and the repaired user is persisted. The repair
// writes at most once; later calls see the linked user and touch nothing.
func (m *Manager) Current() (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		u, err := m.readUser()
		if err != nil {
			return nil, err
		}
		m.cached = u
		m.loaded = true
	}

	if m.cached == nil {
		return nil, nil
	}

	if m.cached.TenantID == "" {
		tenantID := m.readSelectedTenant()
		if tenantID == "" {
			tenantID = m.defaultTenantID
			m.logger.Warn("session missing tenant linkage and no selected tenant persisted, using default",
				"tenant_id", tenantID)
		}
		m.cached.TenantID = tenantID

		if err := m.writeUser(*m.cached); err != nil {
			return nil, fmt.Errorf("persist repaired session: %w", err)
		}
	}

	u := *m.cached
	return &u, nil
}

// Clear destroys the active session: both the in-memory copy and the
// persisted user entry. The selected tenant entry survives so the next
// session in this deployment lands on the same tenant.
func (m *Manager) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.cached = nil
	m.loaded = true
	return m.storage.Delete(userKey)
}

func (m *Manager) readUser() (*domain.User, error) {
	raw, ok, err := m.storage.Get(userKey)
	if err != nil {
		return nil, fmt.Errorf("read session user: %w", err)
	}
	if !ok {
		return nil, nil
	}

	var p persistedUser
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, fmt.Errorf("decode session user: %w", err)
	}
	return &domain.User{
		ID:          p.ID,
		Username:    p.Username,
		Email:       p.Email,
		TenantID:    p.TenantID,
		Role:        p.Role,
		IsActive:    p.IsActive,
		LastLoginAt: p.LastLoginAt,
		CreatedAt:   p.CreatedAt,
		UpdatedAt:   p.UpdatedAt,
	}, nil
}

func (m *Manager) writeUser(u domain.User) error {
	// The credential hash never touches the session state file.
	raw, err := json.Marshal(persistedUser{
		ID:          u.ID,
		Username:    u.Username,
		Email:       u.Email,
		TenantID:    u.TenantID,
		Role:        u.Role,
		IsActive:    u.IsActive,
		LastLoginAt: u.LastLoginAt,
		CreatedAt:   u.CreatedAt,
		UpdatedAt:   u.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return m.storage.Put(userKey, raw)
}

func (m *Manager) readSelectedTenant() string {
	raw, ok, err := m.storage.Get(selectedTenantKey)
	if err != nil {
		m.logger.Warn("failed to read selected tenant entry", "error", err)
		return ""
	}
	if !ok {
		return ""
	}

	var id string
	if err := json.Unmarshal(raw, &id); err != nil {
		m.logger.Warn("corrupt selected tenant entry", "error", err)
		return ""
	}
	return id
}

func (m *Manager) writeSelectedTenant(id string) error {
	raw, err := json.Marshal(id)
	if err != nil {
		return err
	}
	return m.storage.Put(selectedTenantKey, raw)
}
