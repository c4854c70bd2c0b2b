package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nordbooks/tenauth/internal/auth/domain"
	"github.com/nordbooks/tenauth/internal/auth/store"
	"github.com/nordbooks/tenauth/pkg/cryptox"
)

const migrateTimeout = 30 * time.Second

// Migrator moves legacy-authenticated identities into the primary credential
// store in the background. Migration failures are logged and otherwise
// invisible: the login that scheduled the migration has already succeeded,
// and the next legacy login simply schedules it again.
type Migrator struct {
	Store  store.Store
	Logger *slog.Logger

	queue  chan migrationJob
	stopCh chan struct{}
	doneCh chan struct{}
}

type migrationJob struct {
	user     domain.User
	password string
}

// NewMigrator creates a migrator with a bounded queue. If queueSize is not
// positive it defaults to 16.
func NewMigrator(st store.Store, logger *slog.Logger, queueSize int) *Migrator {
	if queueSize <= 0 {
		queueSize = 16
	}
	return &Migrator{
		Store:  st,
		Logger: logger,
		queue:  make(chan migrationJob, queueSize),
		stopCh: make(chan struct{}),
		doneCh: make(chan struct{}),
	}
}

// Start begins the background worker. Call Stop() to shut it down.
func (m *Migrator) Start() {
	go m.run()
	m.Logger.Info("migration worker started", "queue_size", cap(m.queue))
}

// Stop gracefully shuts down the worker, draining any queued migrations.
func (m *Migrator) Stop() {
	close(m.stopCh)
	<-m.doneCh
	m.Logger.Info("migration worker stopped")
}

// Schedule enqueues a migration without ever blocking the caller. When the
// queue is full the job is dropped with a log line; the identity migrates on
// a later legacy login instead.
func (m *Migrator) Schedule(user domain.User, password string) {
	select {
	case m.queue <- migrationJob{user: user, password: password}:
	default:
		m.Logger.Warn("migration queue full, dropping job",
			"username", user.Username, "tenant_id", user.TenantID)
	}
}

func (m *Migrator) run() {
	defer close(m.doneCh)

	for {
		select {
		case job := <-m.queue:
			m.process(job)
		case <-m.stopCh:
			// Drain whatever is already queued before exiting.
			for {
				select {
				case job := <-m.queue:
					m.process(job)
				default:
					return
				}
			}
		}
	}
}

func (m *Migrator) process(job migrationJob) {
	ctx, cancel := context.WithTimeout(context.Background(), migrateTimeout)
	defer cancel()

	if err := m.Migrate(ctx, job.user, job.password); err != nil {
		m.Logger.Error("legacy credential migration failed",
			"username", job.user.Username, "tenant_id", job.user.TenantID, "error", err)
		return
	}
	m.Logger.Info("legacy credentials migrated",
		"username", job.user.Username, "tenant_id", job.user.TenantID)
}

// Migrate inserts the legacy identity into the primary store. It is safe to
// run any number of times for the same username: an existing row, found
// either by the guard lookup or by the unique index at insert time, makes
// the migration a no-op.
func (m *Migrator) Migrate(ctx context.Context, user domain.User, password string) error {
	hash, err := cryptox.HashPassword(password)
	if err != nil {
		return err
	}
	user.PasswordHash = hash

	return m.Store.WithTx(ctx, func(tx store.Tx) error {
		_, err := tx.Users().FindActiveByUsername(ctx, user.Username)
		if err == nil {
			// Already migrated; the next login takes the primary path.
			return nil
		}
		if !errors.Is(err, store.ErrNotFound) {
			return err
		}

		if err := tx.Users().CreateUser(ctx, user); err != nil {
			if errors.Is(err, store.ErrAlreadyExists) {
				// Lost a race with a concurrent migration; same outcome.
				return nil
			}
			return err
		}
		return nil
	})
}
