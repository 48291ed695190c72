package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/tournament"
)

// RecordGame writes one completed game atomically: header row, seat rows
// and the full transcript land together or not at all.
func (s *Store) RecordGame(ctx context.Context, res *game.Result) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO game_results (
			session_id, game_index, finished_at, winner_side,
			deceiver_player, deceiver_provider, deceiver_model,
			eliminated_player, secret_word
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (session_id) DO NOTHING`,
		res.SessionID, res.GameIndex, res.Timestamp, res.WinnerSide,
		res.DeceiverName, res.DeceiverModel.Provider, res.DeceiverModel.Model,
		res.EliminatedName, res.Secret)
	if err != nil {
		return err
	}

	for seat, p := range res.Players {
		if _, err := tx.Exec(ctx, `
			INSERT INTO game_players (
				session_id, seat, name, provider, model,
				is_deceiver, word, survived, votes_received
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
			ON CONFLICT (session_id, seat) DO NOTHING`,
			res.SessionID, seat, p.Name, p.Provider, p.Model,
			p.IsDeceiver, p.Word, p.Survived, p.VotesReceived); err != nil {
			return err
		}
	}

	for seq, m := range res.Messages {
		if _, err := tx.Exec(ctx, `
			INSERT INTO game_messages (
				session_id, seq, player, kind, content, round, phase
			) VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (session_id, seq) DO NOTHING`,
			res.SessionID, seq, m.Player, string(m.Type), m.Content, m.Round, string(m.Phase)); err != nil {
			return err
		}
	}

	return tx.Commit(ctx)
}

// RecordSummary stores the aggregate line for one finished batch.
func (s *Store) RecordSummary(ctx context.Context, batchID string, sum tournament.Summary) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO batch_summaries (
			batch_id, recorded_at, planned_games, completed_games,
			failed_game, success_rate, defender_wins, deceiver_wins
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (batch_id) DO NOTHING`,
		batchID, time.Now(), sum.Planned, sum.Completed,
		sum.FailedGame, sum.SuccessRate, sum.DefenderWins, sum.DeceiverWins)
	return err
}

// RecentGames lists result headers, newest first.
func (s *Store) RecentGames(ctx context.Context, limit int) ([]GameRow, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.Pool.Query(ctx, `
		SELECT session_id, game_index, finished_at, winner_side,
		       deceiver_player, eliminated_player, secret_word
		FROM game_results
		ORDER BY finished_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []GameRow
	for rows.Next() {
		var r GameRow
		if err := rows.Scan(&r.SessionID, &r.GameIndex, &r.FinishedAt, &r.WinnerSide,
			&r.DeceiverPlayer, &r.EliminatedPlayer, &r.SecretWord); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GameRow is one persisted result header.
type GameRow struct {
	SessionID        string    `json:"session_id"`
	GameIndex        int       `json:"game_index"`
	FinishedAt       time.Time `json:"finished_at"`
	WinnerSide       string    `json:"winner_side"`
	DeceiverPlayer   string    `json:"deceiver_player"`
	EliminatedPlayer string    `json:"eliminated_player"`
	SecretWord       string    `json:"secret_word"`
}
