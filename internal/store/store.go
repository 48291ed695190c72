// Package store persists completed games to Postgres. It is optional
// wiring: sessions and batches run fine without a database, they just
// lose durable history.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrNotFound = errors.New("not_found")

// Store wraps DB access.
type Store struct {
	Pool *pgxpool.Pool
}

func New(dsn string) (*Store, error) {
	pool, err := pgxpool.New(context.Background(), dsn)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	if s.Pool != nil {
		s.Pool.Close()
	}
}

func (s *Store) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return s.Pool.Ping(ctx)
}

// EnsureSchema creates the result tables when they do not exist yet.
func (s *Store) EnsureSchema(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS game_results (
	session_id        TEXT PRIMARY KEY,
	game_index        INT NOT NULL DEFAULT 0,
	finished_at       TIMESTAMPTZ NOT NULL,
	winner_side       TEXT NOT NULL,
	deceiver_player   TEXT NOT NULL,
	deceiver_provider TEXT NOT NULL,
	deceiver_model    TEXT NOT NULL,
	eliminated_player TEXT NOT NULL,
	secret_word       TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS game_players (
	session_id     TEXT NOT NULL REFERENCES game_results(session_id) ON DELETE CASCADE,
	seat           INT NOT NULL,
	name           TEXT NOT NULL,
	provider       TEXT NOT NULL,
	model          TEXT NOT NULL,
	is_deceiver    BOOLEAN NOT NULL,
	word           TEXT NOT NULL,
	survived       BOOLEAN NOT NULL,
	votes_received INT NOT NULL,
	PRIMARY KEY (session_id, seat)
);
CREATE TABLE IF NOT EXISTS game_messages (
	session_id TEXT NOT NULL REFERENCES game_results(session_id) ON DELETE CASCADE,
	seq        INT NOT NULL,
	player     TEXT NOT NULL,
	kind       TEXT NOT NULL,
	content    TEXT NOT NULL,
	round      INT NOT NULL,
	phase      TEXT NOT NULL,
	PRIMARY KEY (session_id, seq)
);
CREATE TABLE IF NOT EXISTS batch_summaries (
	batch_id        TEXT PRIMARY KEY,
	recorded_at     TIMESTAMPTZ NOT NULL,
	planned_games   INT NOT NULL,
	completed_games INT NOT NULL,
	failed_game     INT NOT NULL,
	success_rate    DOUBLE PRECISION NOT NULL,
	defender_wins   INT NOT NULL,
	deceiver_wins   INT NOT NULL
);`
	_, err := s.Pool.Exec(ctx, ddl)
	return err
}
