// Package store persists conversations, messages, analytics and documents
// in SQLite.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/capitalize-ai/support-router/internal/model"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// OpenDB opens a SQLite database file, creating its directory if needed.
func OpenDB(dbPath string) (*sql.DB, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	dsn := dbPath + "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)&_pragma=foreign_keys(1)"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// A single writer connection avoids SQLITE_BUSY under concurrent requests.
	db.SetMaxOpenConns(1)
	db.SetConnMaxLifetime(0)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// SQLiteStore implements the conversation and document stores on SQLite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

// New creates a store on an open database and applies the schema.
func New(db *sql.DB) (*SQLiteStore, error) {
	s := &SQLiteStore{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return s, nil
}

// Open opens dbPath and returns a store on it.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := OpenDB(dbPath)
	if err != nil {
		return nil, err
	}
	s, err := New(db)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		metadata TEXT,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		role TEXT NOT NULL,
		content TEXT NOT NULL,
		agent_type TEXT,
		metadata TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_at);

	CREATE TABLE IF NOT EXISTS analytics (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		conversation_id TEXT,
		message_id TEXT,
		agent_used TEXT NOT NULL,
		response_time_ms INTEGER NOT NULL,
		success INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_analytics_created ON analytics(created_at);

	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		source TEXT,
		content_type TEXT NOT NULL,
		chunk_count INTEGER NOT NULL,
		metadata TEXT,
		ingested_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_documents_source ON documents(source);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// DB returns the underlying database handle.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// CreateConversation starts a new active conversation.
func (s *SQLiteStore) CreateConversation(ctx context.Context, userID string) (*model.Conversation, error) {
	now := s.now().UTC()
	conv := &model.Conversation{
		ID:        uuid.New().String(),
		UserID:    userID,
		Status:    model.ConversationActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO conversations (id, user_id, status, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		conv.ID, nullString(userID), string(conv.Status), nil, now.UnixMilli(), now.UnixMilli(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert conversation: %w", err)
	}
	return conv, nil
}

// GetConversation returns a conversation by id.
func (s *SQLiteStore) GetConversation(ctx context.Context, id string) (*model.Conversation, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, status, metadata, created_at, updated_at
		FROM conversations WHERE id = ?`, id)

	var (
		conv                 model.Conversation
		userID, meta         sql.NullString
		status               string
		createdAt, updatedAt int64
	)
	err := row.Scan(&conv.ID, &userID, &status, &meta, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}

	conv.UserID = userID.String
	conv.Status = model.ConversationStatus(status)
	conv.CreatedAt = time.UnixMilli(createdAt).UTC()
	conv.UpdatedAt = time.UnixMilli(updatedAt).UTC()
	if err := decodeJSON(meta, &conv.Metadata); err != nil {
		return nil, err
	}
	return &conv, nil
}

// UpdateConversationStatus changes the status of a conversation.
func (s *SQLiteStore) UpdateConversationStatus(ctx context.Context, id string, status model.ConversationStatus) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE conversations SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), s.now().UTC().UnixMilli(), id,
	)
	if err != nil {
		return fmt.Errorf("update conversation: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// AddMessage stores a message. ID and CreatedAt are filled in when empty.
func (s *SQLiteStore) AddMessage(ctx context.Context, msg *model.Message) error {
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = s.now().UTC()
	}
	meta, err := encodeJSON(msg.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO messages (id, conversation_id, role, content, agent_type, metadata, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		msg.ID, msg.ConversationID, string(msg.Role), msg.Content,
		nullString(msg.AgentType), meta, msg.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}

	if _, err := s.db.ExecContext(ctx, `UPDATE conversations SET updated_at = ? WHERE id = ?`,
		msg.CreatedAt.UnixMilli(), msg.ConversationID); err != nil {
		return fmt.Errorf("touch conversation: %w", err)
	}
	return nil
}

// ListMessages returns the messages of a conversation, oldest first. A
// positive limit returns only the most recent limit messages.
func (s *SQLiteStore) ListMessages(ctx context.Context, conversationID string, limit int) ([]model.Message, error) {
	query := `
		SELECT id, conversation_id, role, content, agent_type, metadata, created_at
		FROM (
			SELECT *, rowid AS seq FROM messages WHERE conversation_id = ?
			ORDER BY created_at DESC, seq DESC
			LIMIT ?
		)
		ORDER BY created_at ASC, seq ASC`
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query messages: %w", err)
	}
	defer rows.Close()

	messages := []model.Message{}
	for rows.Next() {
		var (
			msg             model.Message
			role            string
			agentType, meta sql.NullString
			createdAt       int64
		)
		if err := rows.Scan(&msg.ID, &msg.ConversationID, &role, &msg.Content, &agentType, &meta, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message row: %w", err)
		}
		msg.Role = model.Role(role)
		msg.AgentType = agentType.String
		msg.CreatedAt = time.UnixMilli(createdAt).UTC()
		if err := decodeJSON(meta, &msg.Metadata); err != nil {
			return nil, err
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// RecordAnalytics stores one response outcome.
func (s *SQLiteStore) RecordAnalytics(ctx context.Context, rec model.AnalyticsRecord) error {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = s.now().UTC()
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO analytics (conversation_id, message_id, agent_used, response_time_ms, success, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		nullString(rec.ConversationID), nullString(rec.MessageID), rec.AgentUsed,
		rec.ResponseTimeMs, boolToInt(rec.Success), rec.CreatedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert analytics: %w", err)
	}
	return nil
}

// AnalyticsSummary aggregates analytics per agent since the given time.
func (s *SQLiteStore) AnalyticsSummary(ctx context.Context, since time.Time) ([]model.AnalyticsSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT agent_used,
		       COUNT(*),
		       AVG(response_time_ms),
		       SUM(CASE WHEN success = 1 THEN 1 ELSE 0 END),
		       SUM(CASE WHEN success = 0 THEN 1 ELSE 0 END)
		FROM analytics
		WHERE created_at >= ?
		GROUP BY agent_used
		ORDER BY agent_used`, since.UnixMilli())
	if err != nil {
		return nil, fmt.Errorf("query analytics: %w", err)
	}
	defer rows.Close()

	out := []model.AnalyticsSummary{}
	for rows.Next() {
		var sum model.AnalyticsSummary
		if err := rows.Scan(&sum.AgentUsed, &sum.Total, &sum.AvgResponseMs, &sum.Successful, &sum.Failed); err != nil {
			return nil, fmt.Errorf("scan analytics row: %w", err)
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// SaveDocument registers an ingested document.
func (s *SQLiteStore) SaveDocument(ctx context.Context, doc *model.Document) error {
	if doc.ID == "" {
		doc.ID = uuid.New().String()
	}
	if doc.IngestedAt.IsZero() {
		doc.IngestedAt = s.now().UTC()
	}
	meta, err := encodeJSON(doc.Metadata)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO documents (id, title, source, content_type, chunk_count, metadata, ingested_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		doc.ID, doc.Title, nullString(doc.Source), doc.ContentType, doc.ChunkCount, meta, doc.IngestedAt.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// ListDocuments returns all documents, most recently ingested first.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]model.Document, error) {
	return s.queryDocuments(ctx, `
		SELECT id, title, source, content_type, chunk_count, metadata, ingested_at
		FROM documents ORDER BY ingested_at DESC, rowid DESC`)
}

// DocumentsBySource returns the documents ingested from source, oldest
// first. An empty source matches nothing.
func (s *SQLiteStore) DocumentsBySource(ctx context.Context, source string) ([]model.Document, error) {
	if source == "" {
		return []model.Document{}, nil
	}
	return s.queryDocuments(ctx, `
		SELECT id, title, source, content_type, chunk_count, metadata, ingested_at
		FROM documents WHERE source = ? ORDER BY ingested_at, rowid`, source)
}

// DeleteDocument removes a document row. Its vectors live in the vector
// index and are removed separately.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *SQLiteStore) queryDocuments(ctx context.Context, query string, args ...any) ([]model.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query documents: %w", err)
	}
	defer rows.Close()

	docs := []model.Document{}
	for rows.Next() {
		var (
			doc          model.Document
			source, meta sql.NullString
			ingestedAt   int64
		)
		if err := rows.Scan(&doc.ID, &doc.Title, &source, &doc.ContentType, &doc.ChunkCount, &meta, &ingestedAt); err != nil {
			return nil, fmt.Errorf("scan document row: %w", err)
		}
		doc.Source = source.String
		doc.IngestedAt = time.UnixMilli(ingestedAt).UTC()
		if err := decodeJSON(meta, &doc.Metadata); err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func encodeJSON(v any) (any, error) {
	switch m := v.(type) {
	case map[string]any:
		if len(m) == 0 {
			return nil, nil
		}
	case map[string]string:
		if len(m) == 0 {
			return nil, nil
		}
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("marshal metadata: %w", err)
	}
	return string(data), nil
}

func decodeJSON(s sql.NullString, v any) error {
	if !s.Valid || s.String == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(s.String), v); err != nil {
		return fmt.Errorf("unmarshal metadata: %w", err)
	}
	return nil
}
