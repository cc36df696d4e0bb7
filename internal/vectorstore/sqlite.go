package vectorstore

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/capitalize-ai/support-router/internal/model"
)

// SQLiteIndex persists vectors in a SQLite table and scans them on query.
// It shares the handle returned by store.OpenDB.
type SQLiteIndex struct {
	db *sql.DB
}

// NewSQLiteIndex creates the vectors table if needed.
func NewSQLiteIndex(db *sql.DB) (*SQLiteIndex, error) {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS vectors (
			id TEXT PRIMARY KEY,
			embedding BLOB NOT NULL,
			metadata TEXT,
			created_at INTEGER NOT NULL
		)`)
	if err != nil {
		return nil, fmt.Errorf("create vectors table: %w", err)
	}
	return &SQLiteIndex{db: db}, nil
}

// Upsert stores vectors in one transaction, replacing any with the same ID.
func (s *SQLiteIndex) Upsert(ctx context.Context, vectors []model.Vector) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin upsert: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO vectors (id, embedding, metadata, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET embedding = excluded.embedding, metadata = excluded.metadata`)
	if err != nil {
		return fmt.Errorf("prepare upsert: %w", err)
	}
	defer stmt.Close()

	now := time.Now().UnixMilli()
	for _, v := range vectors {
		meta, err := json.Marshal(v.Metadata)
		if err != nil {
			return fmt.Errorf("encode metadata for %s: %w", v.ID, err)
		}
		if _, err := stmt.ExecContext(ctx, v.ID, encodeVector(v.Values), string(meta), now); err != nil {
			return fmt.Errorf("upsert vector %s: %w", v.ID, err)
		}
	}
	return tx.Commit()
}

// Query scans every stored vector and returns up to k matching filter,
// best first.
func (s *SQLiteIndex) Query(ctx context.Context, vector []float32, k int, filter map[string]string) ([]model.Match, error) {
	if k <= 0 {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, embedding, metadata FROM vectors ORDER BY created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("query vectors: %w", err)
	}
	defer rows.Close()

	var matches []model.Match
	for rows.Next() {
		var (
			id   string
			blob []byte
			meta sql.NullString
		)
		if err := rows.Scan(&id, &blob, &meta); err != nil {
			return nil, fmt.Errorf("scan vector row: %w", err)
		}
		var md map[string]string
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &md); err != nil {
				return nil, fmt.Errorf("decode metadata for %s: %w", id, err)
			}
		}
		if !matchesFilter(md, filter) {
			continue
		}
		matches = append(matches, model.Match{ID: id, Score: Cosine(vector, decodeVector(blob)), Metadata: md})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return topK(matches, k), nil
}

// Delete removes every vector whose metadata matches filter and returns how
// many were removed.
func (s *SQLiteIndex) Delete(ctx context.Context, filter map[string]string) (int, error) {
	if len(filter) == 0 {
		return 0, ErrEmptyFilter
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin delete: %w", err)
	}
	defer tx.Rollback()

	rows, err := tx.QueryContext(ctx, `SELECT id, metadata FROM vectors`)
	if err != nil {
		return 0, fmt.Errorf("query vectors: %w", err)
	}
	var ids []string
	for rows.Next() {
		var (
			id   string
			meta sql.NullString
		)
		if err := rows.Scan(&id, &meta); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan vector row: %w", err)
		}
		var md map[string]string
		if meta.Valid && meta.String != "" {
			if err := json.Unmarshal([]byte(meta.String), &md); err != nil {
				rows.Close()
				return 0, fmt.Errorf("decode metadata for %s: %w", id, err)
			}
		}
		if matchesFilter(md, filter) {
			ids = append(ids, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	for _, id := range ids {
		if _, err := tx.ExecContext(ctx, `DELETE FROM vectors WHERE id = ?`, id); err != nil {
			return 0, fmt.Errorf("delete vector %s: %w", id, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit delete: %w", err)
	}
	return len(ids), nil
}

// Count returns the number of stored vectors.
func (s *SQLiteIndex) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM vectors`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count vectors: %w", err)
	}
	return n, nil
}
