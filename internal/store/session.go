// Package store persists session transcripts to SQLite so a
// conversation can be resumed or inspected later. Message order and
// tool-call correlation ids survive the round trip.
package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	"shellmind/internal/logging"
	"shellmind/internal/types"
)

const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id         TEXT PRIMARY KEY,
	title      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS messages (
	session_id      TEXT NOT NULL REFERENCES sessions(id) ON DELETE CASCADE,
	seq             INTEGER NOT NULL,
	role            TEXT NOT NULL,
	text            TEXT NOT NULL DEFAULT '',
	tool_calls_json TEXT NOT NULL DEFAULT '',
	tool_call_id    TEXT NOT NULL DEFAULT '',
	tool_name       TEXT NOT NULL DEFAULT '',
	is_error        INTEGER NOT NULL DEFAULT 0,
	created_at      TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	PRIMARY KEY (session_id, seq)
);

CREATE INDEX IF NOT EXISTS idx_messages_session ON messages(session_id);
`

// SessionInfo summarizes one stored session.
type SessionInfo struct {
	ID           string
	Title        string
	MessageCount int
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Store is a SQLite-backed transcript store. Safe for concurrent use.
type Store struct {
	mu sync.Mutex
	db *sql.DB
}

// Open opens (creating if needed) the store at path. Parent
// directories are created for file-backed stores.
func Open(path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("failed to create store directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	logging.Store("opened session store: %s", path)
	return &Store{db: db}, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

// CreateSession registers a new session. Creating an existing id is a
// no-op so callers can create unconditionally.
func (s *Store) CreateSession(id, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT OR IGNORE INTO sessions (id, title) VALUES (?, ?)",
		id, title,
	)
	if err != nil {
		return fmt.Errorf("failed to create session: %w", err)
	}
	logging.StoreDebug("session created: %s", id)
	return nil
}

// AppendMessage stores one message at the given transcript position.
// Duplicate (session, seq) writes are rejected so a transcript can
// never be silently reordered.
func (s *Store) AppendMessage(sessionID string, seq int, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	toolCallsJSON := ""
	if len(msg.ToolCalls) > 0 {
		data, err := json.Marshal(msg.ToolCalls)
		if err != nil {
			return fmt.Errorf("failed to marshal tool calls: %w", err)
		}
		toolCallsJSON = string(data)
	}

	isError := 0
	if msg.IsError {
		isError = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO messages (session_id, seq, role, text, tool_calls_json, tool_call_id, tool_name, is_error)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, seq, string(msg.Role), msg.Text, toolCallsJSON, msg.ToolCallID, msg.ToolName, isError,
	)
	if err != nil {
		return fmt.Errorf("failed to store message: %w", err)
	}

	_, err = s.db.Exec(
		"UPDATE sessions SET updated_at = CURRENT_TIMESTAMP WHERE id = ?",
		sessionID,
	)
	if err != nil {
		return fmt.Errorf("failed to touch session: %w", err)
	}

	logging.StoreDebug("stored message: session=%s seq=%d role=%s", sessionID, seq, msg.Role)
	return nil
}

// LoadMessages returns the full transcript in append order.
func (s *Store) LoadMessages(sessionID string) ([]types.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT role, text, tool_calls_json, tool_call_id, tool_name, is_error
		 FROM messages WHERE session_id = ? ORDER BY seq ASC`,
		sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query messages: %w", err)
	}
	defer rows.Close()

	var messages []types.Message
	for rows.Next() {
		var role, text, toolCallsJSON, toolCallID, toolName string
		var isError int
		if err := rows.Scan(&role, &text, &toolCallsJSON, &toolCallID, &toolName, &isError); err != nil {
			return nil, fmt.Errorf("failed to scan message: %w", err)
		}

		msg := types.Message{
			Role:       types.Role(role),
			Text:       text,
			ToolCallID: toolCallID,
			ToolName:   toolName,
			IsError:    isError != 0,
		}
		if toolCallsJSON != "" {
			if err := json.Unmarshal([]byte(toolCallsJSON), &msg.ToolCalls); err != nil {
				return nil, fmt.Errorf("failed to unmarshal tool calls: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	return messages, rows.Err()
}

// ListSessions returns stored sessions, most recently updated first.
func (s *Store) ListSessions(limit int) ([]SessionInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.Query(
		`SELECT s.id, s.title, s.created_at, s.updated_at,
		        (SELECT COUNT(*) FROM messages m WHERE m.session_id = s.id)
		 FROM sessions s ORDER BY s.updated_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query sessions: %w", err)
	}
	defer rows.Close()

	var sessions []SessionInfo
	for rows.Next() {
		var info SessionInfo
		if err := rows.Scan(&info.ID, &info.Title, &info.CreatedAt, &info.UpdatedAt, &info.MessageCount); err != nil {
			return nil, fmt.Errorf("failed to scan session: %w", err)
		}
		sessions = append(sessions, info)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its messages.
func (s *Store) DeleteSession(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.Exec("DELETE FROM sessions WHERE id = ?", id); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	logging.Store("deleted session: %s", id)
	return nil
}
