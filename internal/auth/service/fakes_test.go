package service

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/session"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/pkg/cryptox"
)

func TestMain(m *testing.M) {
	cryptox.SetPepperPath(filepath.Join(os.TempDir(), "tenauth-service-test-pepper"))
	os.Exit(m.Run())
}

// fakeStore is an in-memory store.Store for unit tests.
type fakeStore struct {
	users *fakeUsers
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: &fakeUsers{byID: map[string]domain.User{}}}
}

func (s *fakeStore) Users() store.Users       { return s.users }
func (s *fakeStore) ApplyMigrations() error   { return nil }
func (s *fakeStore) Close() error             { return nil }
func (s *fakeStore) Ping(context.Context) error { return nil }

func (s *fakeStore) Tx(ctx context.Context) (store.Tx, error) {
	return &fakeTx{fakeStore: s}, nil
}

func (s *fakeStore) WithTx(ctx context.Context, fn func(tx store.Tx) error) error {
	return fn(&fakeTx{fakeStore: s})
}

type fakeTx struct{ *fakeStore }

func (t *fakeTx) Commit() error   { return nil }
func (t *fakeTx) Rollback() error { return nil }

type fakeUsers struct {
	mu      sync.Mutex
	byID    map[string]domain.User
	findErr error // injected store-level failure
}

func (f *fakeUsers) GetUserByID(ctx context.Context, id string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[id]
	if !ok {
		return domain.User{}, store.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) FindActiveByUsername(ctx context.Context, username string) (domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.findErr != nil {
		return domain.User{}, f.findErr
	}
	for _, u := range f.byID {
		if u.Username == username && u.IsActive {
			return u, nil
		}
	}
	return domain.User{}, store.ErrNotFound
}

func (f *fakeUsers) CreateUser(ctx context.Context, u domain.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.byID {
		if existing.Username == u.Username {
			return store.ErrAlreadyExists
		}
	}
	f.byID[u.ID] = u
	return nil
}

func (f *fakeUsers) TouchLastLogin(ctx context.Context, userID string, at time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.byID[userID]
	if !ok {
		return store.ErrNotFound
	}
	u.LastLoginAt = &at
	f.byID[userID] = u
	return nil
}

func (f *fakeUsers) IsEmpty(ctx context.Context) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID) == 0, nil
}

func (f *fakeUsers) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.byID)
}

// spyDirectory records every directory interaction so tests can assert the
// legacy probe was or was not involved.
type spyDirectory struct {
	mu        sync.Mutex
	tenants   []domain.Tenant
	configs   map[string]domain.TenantConfig
	configErr map[string]error
	loadDelay map[string]time.Duration
	listErr   error

	listCalls int
	loadCalls map[string]int
}

func newSpyDirectory(tenants ...domain.Tenant) *spyDirectory {
	return &spyDirectory{
		tenants:   tenants,
		configs:   map[string]domain.TenantConfig{},
		configErr: map[string]error{},
		loadDelay: map[string]time.Duration{},
		loadCalls: map[string]int{},
	}
}

func (d *spyDirectory) ListTenants(ctx context.Context) ([]domain.Tenant, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listCalls++
	if d.listErr != nil {
		return nil, d.listErr
	}
	return append([]domain.Tenant(nil), d.tenants...), nil
}

func (d *spyDirectory) LoadConfig(ctx context.Context, tenantID string) (domain.TenantConfig, error) {
	d.mu.Lock()
	d.loadCalls[tenantID]++
	delay := d.loadDelay[tenantID]
	err := d.configErr[tenantID]
	cfg := d.configs[tenantID]
	d.mu.Unlock()

	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return domain.TenantConfig{}, ctx.Err()
		}
	}
	if err != nil {
		return domain.TenantConfig{}, err
	}
	return cfg, nil
}

func (d *spyDirectory) calls() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	total := d.listCalls
	for _, n := range d.loadCalls {
		total += n
	}
	return total
}

func (d *spyDirectory) loads(tenantID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.loadCalls[tenantID]
}

// syncScheduler runs migrations inline so tests see their effects
// immediately; set m to nil to only record scheduling.
type syncScheduler struct {
	mu        sync.Mutex
	m         *Migrator
	scheduled int
}

func (s *syncScheduler) Schedule(user domain.User, password string) {
	s.mu.Lock()
	s.scheduled++
	s.mu.Unlock()
	if s.m != nil {
		_ = s.m.Migrate(context.Background(), user, password)
	}
}

func (s *syncScheduler) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduled
}

func discardLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newTestSessions(t *testing.T) *session.Manager {
	t.Helper()
	storage := session.NewFileStorage(filepath.Join(t.TempDir(), "state.json"))
	return session.NewManager(storage, "default", slog.Default())
}
