package memory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/mattn/go-sqlite3"
)

// SQLiteStore persists assistant memory in a local SQLite file. It is the
// default durable backend for single-node deployments.
type SQLiteStore struct {
	db *sql.DB
}

func NewSQLiteStore(ctx context.Context, path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_busy_timeout=5000&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// SQLite handles one writer at a time; a single connection avoids
	// SQLITE_BUSY churn under concurrent saves.
	db.SetMaxOpenConns(1)

	if err := initSQLiteSchema(ctx, db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteStore{db: db}, nil
}

func initSQLiteSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			id TEXT PRIMARY KEY,
			text TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			id TEXT PRIMARY KEY,
			user_input TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
	}
	for _, stmt := range stmts {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *SQLiteStore) SaveNote(ctx context.Context, text string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notes (id, text, created_at) VALUES (?, ?, ?)`,
		uuid.NewString(), text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	// Evict beyond the cap, oldest first. rowid preserves insert order even
	// when timestamps collide.
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM notes WHERE rowid NOT IN (SELECT rowid FROM notes ORDER BY rowid DESC LIMIT ?)`,
		MaxNotes,
	)
	if err != nil {
		return fmt.Errorf("evict notes: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentNotes(ctx context.Context, limit int) ([]Note, error) {
	if limit <= 0 || limit > MaxNotes {
		limit = MaxNotes
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, created_at FROM notes ORDER BY rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent notes: %w", err)
	}
	defer rows.Close()
	return scanNotes(rows)
}

func (s *SQLiteStore) SearchNotes(ctx context.Context, query string) ([]Note, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, text, created_at FROM notes
		 WHERE instr(lower(text), ?) > 0 ORDER BY rowid ASC`,
		q,
	)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()

	var out []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}
		out = append(out, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note rows: %w", err)
	}
	return out, nil
}

func (s *SQLiteStore) SaveExchange(ctx context.Context, userInput, response string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO exchanges (id, user_input, response, created_at) VALUES (?, ?, ?, ?)`,
		uuid.NewString(), userInput, response, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save exchange: %w", err)
	}
	_, err = s.db.ExecContext(ctx,
		`DELETE FROM exchanges WHERE rowid NOT IN (SELECT rowid FROM exchanges ORDER BY rowid DESC LIMIT ?)`,
		MaxExchanges,
	)
	if err != nil {
		return fmt.Errorf("evict exchanges: %w", err)
	}
	return nil
}

func (s *SQLiteStore) RecentExchanges(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 || limit > MaxExchanges {
		limit = MaxExchanges
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_input, response, created_at FROM exchanges ORDER BY rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent exchanges: %w", err)
	}
	defer rows.Close()

	items := make([]Exchange, 0, limit)
	for rows.Next() {
		var ex Exchange
		if err := rows.Scan(&ex.ID, &ex.UserInput, &ex.Response, &ex.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan exchange row: %w", err)
		}
		items = append(items, ex)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate exchange rows: %w", err)
	}
	reverseExchanges(items)
	return items, nil
}

func (s *SQLiteStore) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO preferences (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Preference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		`SELECT value FROM preferences WHERE key = ?`, key,
	).Scan(&value)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference: %w", err)
	}
	return value, true, nil
}

func (s *SQLiteStore) Counts(ctx context.Context) (int, int, error) {
	var notes, exchanges int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM notes`).Scan(&notes); err != nil {
		return 0, 0, fmt.Errorf("count notes: %w", err)
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&exchanges); err != nil {
		return 0, 0, fmt.Errorf("count exchanges: %w", err)
	}
	return notes, exchanges, nil
}

func (s *SQLiteStore) ClearOlderThan(ctx context.Context, cutoff time.Time) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("clear old notes: %w", err)
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM exchanges WHERE created_at < ?`, cutoff); err != nil {
		return fmt.Errorf("clear old exchanges: %w", err)
	}
	return nil
}

func (s *SQLiteStore) Close() error { return s.db.Close() }

func scanNotes(rows *sql.Rows) ([]Note, error) {
	var items []Note
	for rows.Next() {
		var n Note
		if err := rows.Scan(&n.ID, &n.Text, &n.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan note row: %w", err)
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate note rows: %w", err)
	}
	reverseNotes(items)
	return items, nil
}

// Reverse into chronological order for prompt coherence.
func reverseNotes(items []Note) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}

func reverseExchanges(items []Exchange) {
	for i, j := 0, len(items)-1; i < j; i, j = i+1, j-1 {
		items[i], items[j] = items[j], items[i]
	}
}
