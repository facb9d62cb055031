package storage

import (
	"context"
	"database/sql"
)

// DBTX is satisfied by *sql.DB and *sql.Tx.
type DBTX interface {
	ExecContext(context.Context, string, ...any) (sql.Result, error)
	QueryContext(context.Context, string, ...any) (*sql.Rows, error)
	QueryRowContext(context.Context, string, ...any) *sql.Row
}

// Queries holds the outbox statements.
type Queries struct {
	db DBTX
}

func New(db DBTX) *Queries {
	return &Queries{db: db}
}

// RenderedEmailRow mirrors one rendered_emails row.
type RenderedEmailRow struct {
	ID          string
	Recipient   string
	EmailType   string
	Subject     string
	HTML        string
	Text        string
	Fallback    bool
	Status      string
	CreatedAt   int64
	DeliveredAt sql.NullInt64
}

const columns = `id, recipient, email_type, subject, html, text, fallback, status, created_at, delivered_at`

const insertRenderedEmail = `INSERT INTO rendered_emails (` + columns + `)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, NULL)
ON CONFLICT (id) DO NOTHING`

func (q *Queries) InsertRenderedEmail(ctx context.Context, r RenderedEmailRow) (int64, error) {
	res, err := q.db.ExecContext(ctx, insertRenderedEmail,
		r.ID, r.Recipient, r.EmailType, r.Subject, r.HTML, r.Text, r.Fallback, r.Status, r.CreatedAt)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const getRenderedEmail = `SELECT ` + columns + ` FROM rendered_emails WHERE id = ?`

func (q *Queries) GetRenderedEmail(ctx context.Context, id string) (RenderedEmailRow, error) {
	return scanRow(q.db.QueryRowContext(ctx, getRenderedEmail, id))
}

const listByStatus = `SELECT ` + columns + ` FROM rendered_emails
WHERE status = ?
ORDER BY created_at, id
LIMIT ?`

func (q *Queries) ListByStatus(ctx context.Context, status string, limit int64) ([]RenderedEmailRow, error) {
	rows, err := q.db.QueryContext(ctx, listByStatus, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []RenderedEmailRow
	for rows.Next() {
		r, err := scanRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

const markDelivered = `UPDATE rendered_emails
SET status = 'delivered', delivered_at = ?
WHERE id = ? AND status = 'pending'`

func (q *Queries) MarkDelivered(ctx context.Context, id string, at int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, markDelivered, at, id)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const purgeDelivered = `DELETE FROM rendered_emails
WHERE status = 'delivered' AND delivered_at < ?`

func (q *Queries) PurgeDelivered(ctx context.Context, before int64) (int64, error) {
	res, err := q.db.ExecContext(ctx, purgeDelivered, before)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

const countByStatus = `SELECT COUNT(*) FROM rendered_emails WHERE status = ?`

func (q *Queries) CountByStatus(ctx context.Context, status string) (int64, error) {
	var n int64
	err := q.db.QueryRowContext(ctx, countByStatus, status).Scan(&n)
	return n, err
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRow(s scanner) (RenderedEmailRow, error) {
	var r RenderedEmailRow
	err := s.Scan(&r.ID, &r.Recipient, &r.EmailType, &r.Subject, &r.HTML, &r.Text,
		&r.Fallback, &r.Status, &r.CreatedAt, &r.DeliveredAt)
	return r, err
}
