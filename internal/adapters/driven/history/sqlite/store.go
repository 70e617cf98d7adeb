// Package sqlite provides a SQLite-backed history store for conversation
// turns and operation records.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/history/sqlite/migrations"
	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.HistoryStore = (*Store)(nil)

// jsonNull is the JSON representation of null.
const jsonNull = "null"

// Store persists chat history and operation records in SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore creates a new SQLite history store at the specified data
// directory. If dataDir is empty, defaults to ~/.arkivist/data/history.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".arkivist", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "history.db")

	// WAL mode for better concurrency between the CLI and the MCP server.
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Store{
		db:   db,
		path: dbPath,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// migrate applies pending schema migrations in version order.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasSuffix(name, ".up.sql") {
			upFiles = append(upFiles, name)
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// LogChatMessage appends one conversation turn.
func (s *Store) LogChatMessage(ctx context.Context, msg domain.ChatMessage) error {
	sourceIDs := jsonNull
	if msg.SourceIDs != nil {
		encoded, err := json.Marshal(msg.SourceIDs)
		if err != nil {
			return fmt.Errorf("marshalling source IDs: %w", err)
		}
		sourceIDs = string(encoded)
	}

	createdAt := msg.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO chat_messages (id, role, content, source_ids, created_at)
		VALUES (?, ?, ?, ?, ?)
	`, msg.ID, string(msg.Role), msg.Content, sourceIDs, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting chat message: %w", err)
	}
	return nil
}

// LogAIOperation appends one structured operation record.
func (s *Store) LogAIOperation(ctx context.Context, op domain.AIOperation) error {
	createdAt := op.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO ai_operations (id, kind, query, backend, model, passage_count, duration_ms, cache_hit, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, op.ID, op.Kind, op.Query, op.Backend, op.Model, op.PassageCount, op.DurationMs, op.CacheHit, createdAt.UTC())
	if err != nil {
		return fmt.Errorf("inserting operation record: %w", err)
	}
	return nil
}

// RecentMessages returns the most recent conversation turns, newest first.
func (s *Store) RecentMessages(ctx context.Context, limit int) ([]domain.ChatMessage, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, role, content, source_ids, created_at
		FROM chat_messages
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying chat messages: %w", err)
	}
	defer rows.Close()

	var messages []domain.ChatMessage
	for rows.Next() {
		var (
			msg       domain.ChatMessage
			role      string
			sourceIDs string
			createdAt time.Time
		)
		if err := rows.Scan(&msg.ID, &role, &msg.Content, &sourceIDs, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning chat message: %w", err)
		}
		msg.Role = domain.ChatRole(role)
		msg.CreatedAt = createdAt
		if sourceIDs != jsonNull {
			if err := json.Unmarshal([]byte(sourceIDs), &msg.SourceIDs); err != nil {
				return nil, fmt.Errorf("unmarshalling source IDs: %w", err)
			}
		}
		messages = append(messages, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating chat messages: %w", err)
	}

	return messages, nil
}

// RecentOperations returns the most recent operation records, newest first.
func (s *Store) RecentOperations(ctx context.Context, limit int) ([]domain.AIOperation, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, kind, query, backend, model, passage_count, duration_ms, cache_hit, created_at
		FROM ai_operations
		ORDER BY created_at DESC, id DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying operation records: %w", err)
	}
	defer rows.Close()

	var operations []domain.AIOperation
	for rows.Next() {
		var (
			op        domain.AIOperation
			createdAt time.Time
		)
		if err := rows.Scan(&op.ID, &op.Kind, &op.Query, &op.Backend, &op.Model,
			&op.PassageCount, &op.DurationMs, &op.CacheHit, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning operation record: %w", err)
		}
		op.CreatedAt = createdAt
		operations = append(operations, op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating operation records: %w", err)
	}

	return operations, nil
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
