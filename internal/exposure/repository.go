package exposure

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/exposure-core/internal/infrastructure/database"
)

// defaultDocumentID keys the single configuration document. The schema
// allows multiple documents but normal operation uses one.
const defaultDocumentID = "default"

// SyncRecord is one row of sync history.
type SyncRecord struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Exposed    int       `json:"exposed"`
	Excluded   int       `json:"excluded"`
	Unset      int       `json:"unset"`
	Explicit   int       `json:"explicit"`
	Trigger    string    `json:"trigger"`
	Error      string    `json:"error,omitempty"`
}

// Sync record statuses.
const (
	SyncStatusCompleted = "completed"
	SyncStatusFailed    = "failed"
)

// Repository provides persistence for the configuration document and
// sync history.
//
// The expected access pattern is single-admin with one in-flight edit,
// so no multi-writer transaction guarantee is offered: callers load
// before compute and save after recompute.
type Repository interface {
	// LoadDocument returns the stored document, or ErrDocumentNotFound
	// if none has been saved yet.
	LoadDocument(ctx context.Context) (*Document, error)

	// SaveDocument stores the document, replacing any previous version.
	SaveDocument(ctx context.Context, doc *Document) error

	// RecordSync appends a sync history row.
	RecordSync(ctx context.Context, rec *SyncRecord) error

	// ListSyncs returns the most recent sync records, newest first.
	ListSyncs(ctx context.Context, limit int) ([]*SyncRecord, error)
}

// SQLiteRepository implements Repository on the Exposure Core database.
type SQLiteRepository struct {
	db *database.DB
}

// NewSQLiteRepository creates a repository backed by the given database.
func NewSQLiteRepository(db *database.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// LoadDocument implements Repository.
func (r *SQLiteRepository) LoadDocument(ctx context.Context) (*Document, error) {
	var raw string
	err := r.db.QueryRowContext(ctx,
		"SELECT document FROM exposure_documents WHERE id = ?",
		defaultDocumentID,
	).Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading document: %w", err)
	}

	// Decoding over defaults keeps documented values for keys older
	// payloads omit.
	doc := DefaultDocument()
	if err := json.Unmarshal([]byte(raw), doc); err != nil {
		return nil, fmt.Errorf("decoding document: %w", err)
	}
	doc.Normalize()

	return doc, nil
}

// SaveDocument implements Repository.
func (r *SQLiteRepository) SaveDocument(ctx context.Context, doc *Document) error {
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("encoding document: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO exposure_documents (id, document, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			document = excluded.document,
			updated_at = excluded.updated_at
	`,
		defaultDocumentID,
		string(raw),
		time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("saving document: %w", err)
	}
	return nil
}

// RecordSync implements Repository.
func (r *SQLiteRepository) RecordSync(ctx context.Context, rec *SyncRecord) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO sync_history
			(id, started_at, finished_at, status, exposed, excluded, unset, explicit, trigger_kind, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		rec.ID,
		rec.StartedAt.UTC().Format(time.RFC3339),
		rec.FinishedAt.UTC().Format(time.RFC3339),
		rec.Status,
		rec.Exposed,
		rec.Excluded,
		rec.Unset,
		rec.Explicit,
		rec.Trigger,
		rec.Error,
	)
	if err != nil {
		return fmt.Errorf("recording sync: %w", err)
	}
	return nil
}

// ListSyncs implements Repository.
func (r *SQLiteRepository) ListSyncs(ctx context.Context, limit int) ([]*SyncRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, status, exposed, excluded, unset, explicit, trigger_kind, error
		FROM sync_history
		ORDER BY started_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("listing syncs: %w", err)
	}
	defer rows.Close()

	var records []*SyncRecord
	for rows.Next() {
		var rec SyncRecord
		var startedAt, finishedAt string
		if err := rows.Scan(
			&rec.ID,
			&startedAt,
			&finishedAt,
			&rec.Status,
			&rec.Exposed,
			&rec.Excluded,
			&rec.Unset,
			&rec.Explicit,
			&rec.Trigger,
			&rec.Error,
		); err != nil {
			return nil, fmt.Errorf("scanning sync row: %w", err)
		}
		rec.StartedAt, _ = time.Parse(time.RFC3339, startedAt)   //nolint:errcheck // Format is controlled
		rec.FinishedAt, _ = time.Parse(time.RFC3339, finishedAt) //nolint:errcheck // Format is controlled
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync rows: %w", err)
	}
	return records, nil
}
