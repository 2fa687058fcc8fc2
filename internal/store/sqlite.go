package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

const schema = `
CREATE TABLE IF NOT EXISTS session_snapshots (
	session_id TEXT PRIMARY KEY,
	state      BLOB NOT NULL,
	aux        BLOB NOT NULL,
	updated_at TIMESTAMP NOT NULL,
	expires_at TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_session_snapshots_expires
	ON session_snapshots (expires_at);
`

const sweepInterval = 10 * time.Minute

// SQLite is a Store backed by a sqlite database. Expired snapshots are
// filtered on read and swept periodically.
type SQLite struct {
	db     *sqlx.DB
	ttl    time.Duration
	logger *slog.Logger
	done   chan struct{}
}

// NewSQLite opens (and if needed initializes) a sqlite-backed store and
// starts its expiry sweep loop.
func NewSQLite(dsn string, ttl time.Duration, logger *slog.Logger) (*SQLite, error) {
	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open store: %w", err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init store schema: %w", err)
	}

	s := &SQLite{
		db:     db,
		ttl:    ttl,
		logger: logger,
		done:   make(chan struct{}),
	}
	go s.sweepLoop()
	return s, nil
}

// Save upserts the session's blobs with a fresh TTL. A zero ttl stores
// snapshots that never expire, matching the in-memory store.
func (s *SQLite) Save(ctx context.Context, sessionID string, state, aux []byte) error {
	now := time.Now().UTC()
	ttl := s.ttl
	if ttl <= 0 {
		ttl = 100 * 365 * 24 * time.Hour
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO session_snapshots (session_id, state, aux, updated_at, expires_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(session_id) DO UPDATE SET
			state = excluded.state,
			aux = excluded.aux,
			updated_at = excluded.updated_at,
			expires_at = excluded.expires_at`,
		sessionID, state, aux, now, now.Add(ttl))
	if err != nil {
		return fmt.Errorf("save snapshot: %w", err)
	}
	return nil
}

// Load returns the session's blobs if present and unexpired
func (s *SQLite) Load(ctx context.Context, sessionID string) ([]byte, []byte, error) {
	var row struct {
		State []byte `db:"state"`
		Aux   []byte `db:"aux"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT state, aux FROM session_snapshots
		WHERE session_id = ? AND expires_at > ?`,
		sessionID, time.Now().UTC())
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, ErrNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("load snapshot: %w", err)
	}
	return row.State, row.Aux, nil
}

// Delete removes the session's blobs
func (s *SQLite) Delete(ctx context.Context, sessionID string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM session_snapshots WHERE session_id = ?`, sessionID); err != nil {
		return fmt.Errorf("delete snapshot: %w", err)
	}
	return nil
}

// Close stops the sweep loop and closes the database
func (s *SQLite) Close() error {
	close(s.done)
	return s.db.Close()
}

func (s *SQLite) sweepLoop() {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			res, err := s.db.Exec(`DELETE FROM session_snapshots WHERE expires_at <= ?`, time.Now().UTC())
			if err != nil {
				s.logger.Warn("snapshot sweep failed", "error", err)
				continue
			}
			if n, _ := res.RowsAffected(); n > 0 {
				s.logger.Info("swept expired snapshots", "count", n)
			}
		}
	}
}
