package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteHistory records every combine-and-deliver run.
type SQLiteHistory struct {
	db *sql.DB
}

func NewSQLiteHistory(dataSourceName string) (*SQLiteHistory, error) {
	db, err := sql.Open("sqlite3", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err = db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	// A single connection keeps ":memory:" databases coherent.
	db.SetMaxOpenConns(1)

	h := &SQLiteHistory{db: db}
	if err = h.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return h, nil
}

func (h *SQLiteHistory) Close() error {
	return h.db.Close()
}

func (h *SQLiteHistory) initSchema() error {
	schema := `
    CREATE TABLE IF NOT EXISTS deliveries (
        id TEXT PRIMARY KEY, -- UUID
        template TEXT NOT NULL,
        chats_json TEXT NOT NULL,
        errors INTEGER NOT NULL DEFAULT 0,
        document TEXT NOT NULL,
        created_at DATETIME NOT NULL
    );

    CREATE INDEX IF NOT EXISTS idx_deliveries_created_at ON deliveries (created_at);
    `
	_, err := h.db.Exec(schema)
	return err
}

// Record stores d, assigning its ID and timestamp when unset.
func (h *SQLiteHistory) Record(ctx context.Context, d *Delivery) error {
	if d.ID == "" {
		d.ID = uuid.NewString()
	}
	if d.CreatedAt.IsZero() {
		d.CreatedAt = time.Now().UTC()
	}
	chats := d.Chats
	if chats == nil {
		chats = []string{}
	}
	chatsJSON, err := json.Marshal(chats)
	if err != nil {
		return fmt.Errorf("failed to marshal chat names: %w", err)
	}

	stmt, err := h.db.PrepareContext(ctx, "INSERT INTO deliveries (id, template, chats_json, errors, document, created_at) VALUES (?, ?, ?, ?, ?, ?)")
	if err != nil {
		return fmt.Errorf("failed to prepare delivery insert: %w", err)
	}
	defer stmt.Close()

	if _, err = stmt.ExecContext(ctx, d.ID, d.Template, string(chatsJSON), d.Errors, d.Document, d.CreatedAt); err != nil {
		return fmt.Errorf("failed to execute delivery insert: %w", err)
	}
	return nil
}

// Recent returns up to limit deliveries, newest first.
func (h *SQLiteHistory) Recent(ctx context.Context, limit int) ([]Delivery, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := h.db.QueryContext(ctx, "SELECT id, template, chats_json, errors, document, created_at FROM deliveries ORDER BY created_at DESC, rowid DESC LIMIT ?", limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	deliveries := []Delivery{}
	for rows.Next() {
		var (
			d         Delivery
			chatsJSON string
		)
		if err := rows.Scan(&d.ID, &d.Template, &chatsJSON, &d.Errors, &d.Document, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan delivery row: %w", err)
		}
		if err := json.Unmarshal([]byte(chatsJSON), &d.Chats); err != nil {
			return nil, fmt.Errorf("failed to unmarshal chat names of delivery %s: %w", d.ID, err)
		}
		deliveries = append(deliveries, d)
	}
	return deliveries, rows.Err()
}
