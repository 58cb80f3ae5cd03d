package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RecordBroadcast stores a broadcast and its recipients. An empty ID is
// replaced with a new UUID; a zero CreatedAt with the current time.
func (db *DB) RecordBroadcast(ctx context.Context, b Broadcast) (Broadcast, error) {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.CreatedAt.IsZero() {
		b.CreatedAt = time.Now()
	}

	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return b, err
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO broadcasts (id, body, recipient_count, status, error_message, duration_ms, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Body, len(b.Recipients), b.Status, b.Error, b.Duration.Milliseconds(), b.CreatedAt.UnixMilli())
	if err != nil {
		return b, fmt.Errorf("insert broadcast: %w", err)
	}

	for i, phone := range b.Recipients {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO broadcast_recipients (broadcast_id, position, phone) VALUES (?, ?, ?)`,
			b.ID, i, phone); err != nil {
			return b, fmt.Errorf("insert recipient: %w", err)
		}
	}
	return b, tx.Commit()
}

// ListBroadcasts returns the most recent broadcasts, newest first.
func (db *DB) ListBroadcasts(ctx context.Context, limit int) ([]Broadcast, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.QueryContext(ctx, `
		SELECT id, body, status, error_message, duration_ms, created_at
		FROM broadcasts ORDER BY created_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	broadcasts := []Broadcast{}
	for rows.Next() {
		var (
			b          Broadcast
			durationMS int64
			createdAt  int64
		)
		if err := rows.Scan(&b.ID, &b.Body, &b.Status, &b.Error, &durationMS, &createdAt); err != nil {
			return nil, err
		}
		b.Duration = time.Duration(durationMS) * time.Millisecond
		b.CreatedAt = time.UnixMilli(createdAt)
		broadcasts = append(broadcasts, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range broadcasts {
		recipients, err := db.recipients(ctx, broadcasts[i].ID)
		if err != nil {
			return nil, err
		}
		broadcasts[i].Recipients = recipients
	}
	return broadcasts, nil
}

func (db *DB) recipients(ctx context.Context, id string) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT phone FROM broadcast_recipients WHERE broadcast_id = ? ORDER BY position`, id)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	phones := []string{}
	for rows.Next() {
		var phone string
		if err := rows.Scan(&phone); err != nil {
			return nil, err
		}
		phones = append(phones, phone)
	}
	return phones, rows.Err()
}

// BroadcastStats counts sent and failed broadcasts and the recipients
// reached by the sent ones.
func (db *DB) BroadcastStats(ctx context.Context) (BroadcastStats, error) {
	var (
		st         BroadcastStats
		recipients sql.NullInt64
	)
	err := db.QueryRowContext(ctx, `
		SELECT
			COUNT(CASE WHEN status = 'sent' THEN 1 END),
			COUNT(CASE WHEN status = 'failed' THEN 1 END),
			SUM(CASE WHEN status = 'sent' THEN recipient_count END)
		FROM broadcasts`).Scan(&st.Sent, &st.Failed, &recipients)
	if err != nil {
		return st, err
	}
	st.Recipients = int(recipients.Int64)
	return st, nil
}
