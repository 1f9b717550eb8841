package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresStore persists assistant memory in PostgreSQL for multi-node setups.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}

	if err := initPostgresSchema(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}

	return &PostgresStore{pool: pool}, nil
}

func initPostgresSchema(ctx context.Context, pool *pgxpool.Pool) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS notes (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			text TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS exchanges (
			seq BIGSERIAL PRIMARY KEY,
			id TEXT NOT NULL UNIQUE,
			user_input TEXT NOT NULL,
			response TEXT NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		);`,
		`CREATE TABLE IF NOT EXISTS preferences (
			key TEXT PRIMARY KEY,
			value TEXT NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_created ON notes (created_at);`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_created ON exchanges (created_at);`,
	}

	for _, stmt := range stmts {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("init schema failed on %q: %w", stmt, err)
		}
	}
	return nil
}

func (s *PostgresStore) SaveNote(ctx context.Context, text string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO notes (id, text, created_at) VALUES ($1, $2, $3)`,
		uuid.NewString(), text, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save note: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM notes WHERE seq NOT IN (SELECT seq FROM notes ORDER BY seq DESC LIMIT $1)`,
		MaxNotes,
	)
	if err != nil {
		return fmt.Errorf("evict notes: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentNotes(ctx context.Context, limit int) ([]Note, error) {
	if limit <= 0 || limit > MaxNotes {
		limit = MaxNotes
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, created_at FROM notes ORDER BY seq DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query recent notes: %w", err)
	}
	defer rows.Close()

	items, err := collectNotes(rows)
	if err != nil {
		return nil, err
	}
	reverseNotes(items)
	return items, nil
}

func (s *PostgresStore) SearchNotes(ctx context.Context, query string) ([]Note, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return nil, nil
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, text, created_at FROM notes
		 WHERE text ILIKE '%' || $1 || '%' ORDER BY seq ASC`,
		q,
	)
	if err != nil {
		return nil, fmt.Errorf("search notes: %w", err)
	}
	defer rows.Close()
	return collectNotes(rows)
}

func (s *PostgresStore) SaveExchange(ctx context.Context, userInput, response string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO exchanges (id, user_input, response, created_at) VALUES ($1, $2, $3, $4)`,
		uuid.NewString(), userInput, response, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save exchange: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`DELETE FROM exchanges WHERE seq NOT IN (SELECT seq FROM exchanges ORDER BY seq DESC LIMIT $1)`,
		MaxExchanges,
	)
	if err != nil {
		return fmt.Errorf("evict exchanges: %w", err)
	}
	return nil
}

func (s *PostgresStore) RecentExchanges(ctx context.Context, limit int) ([]Exchange, error) {
	if limit <= 0 || limit > MaxExchanges {
		limit = MaxExchanges
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_input, response, created_at FROM exchanges ORDER BY seq DESC LIMIT $1`,
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

func (s *PostgresStore) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO preferences (key, value) VALUES ($1, $2)
		 ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value`,
		key, value,
	)
	if err != nil {
		return fmt.Errorf("set preference: %w", err)
	}
	return nil
}

func (s *PostgresStore) Preference(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx,
		`SELECT value FROM preferences WHERE key = $1`, key,
	).Scan(&value)
	if err == pgx.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("get preference: %w", err)
	}
	return value, true, nil
}

func (s *PostgresStore) Counts(ctx context.Context) (int, int, error) {
	var notes, exchanges int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM notes`).Scan(&notes); err != nil {
		return 0, 0, fmt.Errorf("count notes: %w", err)
	}
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM exchanges`).Scan(&exchanges); err != nil {
		return 0, 0, fmt.Errorf("count exchanges: %w", err)
	}
	return notes, exchanges, nil
}

func (s *PostgresStore) ClearOlderThan(ctx context.Context, cutoff time.Time) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM notes WHERE created_at < $1`, cutoff); err != nil {
		return fmt.Errorf("clear old notes: %w", err)
	}
	if _, err := s.pool.Exec(ctx, `DELETE FROM exchanges WHERE created_at < $1`, cutoff); err != nil {
		return fmt.Errorf("clear old exchanges: %w", err)
	}
	return nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

func collectNotes(rows pgx.Rows) ([]Note, error) {
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
	return items, nil
}
