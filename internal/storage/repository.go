// Package storage keeps rendered emails in a SQLite outbox until an external
// delivery pipeline picks them up.
package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"finalyze/internal/log"

	_ "modernc.org/sqlite"
)

// Outbox statuses.
const (
	StatusPending   = "pending"
	StatusDelivered = "delivered"
)

var (
	ErrNotFound  = errors.New("rendered email not found")
	ErrMissingID = errors.New("rendered email id is required")
)

// RenderedEmail is one outbox entry.
type RenderedEmail struct {
	ID          string
	Recipient   string
	EmailType   string
	Subject     string
	HTML        string
	Text        string
	Fallback    bool
	Status      string
	CreatedAt   time.Time
	DeliveredAt *time.Time
}

type SQLiteRepository struct {
	db      *sql.DB
	queries *Queries
	now     func() time.Time
	logger  *log.Logger
}

// NewSQLiteRepository opens dbPath and applies pending migrations. A nil
// logger logs through the default logger under the storage component.
func NewSQLiteRepository(dbPath string, logger *log.Logger) (*SQLiteRepository, error) {
	if logger == nil {
		logger = log.Default(log.ComponentStorage)
	}

	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// One writer keeps SQLite from returning SQLITE_BUSY under concurrent saves.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{
		db:      db,
		queries: New(db),
		now:     time.Now,
		logger:  logger,
	}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Ping reports whether the database is reachable.
func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// Save stores e as pending. Saving an ID that already exists is a no-op and
// returns created=false, which makes redelivered messages harmless.
func (r *SQLiteRepository) Save(ctx context.Context, e RenderedEmail) (bool, error) {
	if e.ID == "" {
		return false, ErrMissingID
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = r.now()
	}
	n, err := r.queries.InsertRenderedEmail(ctx, RenderedEmailRow{
		ID:        e.ID,
		Recipient: e.Recipient,
		EmailType: e.EmailType,
		Subject:   e.Subject,
		HTML:      e.HTML,
		Text:      e.Text,
		Fallback:  e.Fallback,
		Status:    StatusPending,
		CreatedAt: createdAt.UnixMilli(),
	})
	if err != nil {
		return false, fmt.Errorf("insert rendered email: %w", err)
	}
	if n == 0 {
		r.logger.DebugContext(ctx, "Rendered email already stored", log.FieldMessageID, e.ID)
		return false, nil
	}
	r.logger.InfoContext(ctx, "Rendered email saved to outbox",
		log.FieldOperation, log.OpSave,
		log.FieldMessageID, e.ID,
		log.FieldEmailType, e.EmailType,
		log.FieldRecipient, e.Recipient)
	return true, nil
}

// Get returns the entry with id or ErrNotFound.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (RenderedEmail, error) {
	row, err := r.queries.GetRenderedEmail(ctx, id)
	if errors.Is(err, sql.ErrNoRows) {
		return RenderedEmail{}, ErrNotFound
	}
	if err != nil {
		return RenderedEmail{}, fmt.Errorf("get rendered email %s: %w", id, err)
	}
	return fromRow(row), nil
}

// ListPending returns up to limit pending entries, oldest first.
func (r *SQLiteRepository) ListPending(ctx context.Context, limit int) ([]RenderedEmail, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.queries.ListByStatus(ctx, StatusPending, int64(limit))
	if err != nil {
		return nil, fmt.Errorf("list pending emails: %w", err)
	}
	out := make([]RenderedEmail, len(rows))
	for i, row := range rows {
		out[i] = fromRow(row)
	}
	return out, nil
}

// MarkDelivered flags a pending entry as delivered. Unknown or already
// delivered IDs return ErrNotFound.
func (r *SQLiteRepository) MarkDelivered(ctx context.Context, id string) error {
	n, err := r.queries.MarkDelivered(ctx, id, r.now().UnixMilli())
	if err != nil {
		return fmt.Errorf("mark delivered %s: %w", id, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeDelivered deletes entries delivered more than olderThan ago and
// returns how many were removed.
func (r *SQLiteRepository) PurgeDelivered(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := r.now().Add(-olderThan).UnixMilli()
	n, err := r.queries.PurgeDelivered(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge delivered emails: %w", err)
	}
	return n, nil
}

// PendingCount returns the number of entries waiting for delivery.
func (r *SQLiteRepository) PendingCount(ctx context.Context) (int64, error) {
	n, err := r.queries.CountByStatus(ctx, StatusPending)
	if err != nil {
		return 0, fmt.Errorf("count pending emails: %w", err)
	}
	return n, nil
}

func fromRow(row RenderedEmailRow) RenderedEmail {
	e := RenderedEmail{
		ID:        row.ID,
		Recipient: row.Recipient,
		EmailType: row.EmailType,
		Subject:   row.Subject,
		HTML:      row.HTML,
		Text:      row.Text,
		Fallback:  row.Fallback,
		Status:    row.Status,
		CreatedAt: time.UnixMilli(row.CreatedAt).UTC(),
	}
	if row.DeliveredAt.Valid {
		t := time.UnixMilli(row.DeliveredAt.Int64).UTC()
		e.DeliveredAt = &t
	}
	return e
}
