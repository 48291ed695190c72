package tournament

import "github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"

// ModelStats accumulates raw counters for one (provider, model) pair.
// Counters are bumped incrementally after each completed game, never
// recomputed, so they stay correct when a batch stops early.
type ModelStats struct {
	GamesPlayed        int `json:"games_played"`
	GamesAsDeceiver    int `json:"games_as_deceiver"`
	WinsAsDeceiver     int `json:"wins_as_deceiver"`
	GamesAsDefender    int `json:"games_as_defender"`
	WinsAsDefender     int `json:"wins_as_defender"`
	TotalWins          int `json:"total_wins"`
	EliminatedCount    int `json:"eliminated_count"`
	TotalVotesReceived int `json:"total_votes_received"`
}

func (s *ModelStats) observe(p game.PlayerOutcome, winnerSide string) {
	s.GamesPlayed++
	s.TotalVotesReceived += p.VotesReceived
	if p.IsDeceiver {
		s.GamesAsDeceiver++
		if winnerSide == game.WinnerDeceiver {
			s.WinsAsDeceiver++
			s.TotalWins++
		}
	} else {
		s.GamesAsDefender++
		if winnerSide == game.WinnerDefenders {
			s.WinsAsDefender++
			s.TotalWins++
		}
	}
	if !p.Survived {
		s.EliminatedCount++
	}
}

// ModelSummary derives rates from a model's counters.
type ModelSummary struct {
	ModelStats
	WinRate         float64 `json:"win_rate"`
	DeceiverWinRate float64 `json:"deceiver_win_rate"`
	DefenderWinRate float64 `json:"defender_win_rate"`
	SurvivalRate    float64 `json:"survival_rate"`
	AvgVotes        float64 `json:"avg_votes_received"`
}

func (s ModelStats) summarize() ModelSummary {
	out := ModelSummary{ModelStats: s}
	if s.GamesPlayed > 0 {
		games := float64(s.GamesPlayed)
		out.WinRate = float64(s.TotalWins) / games
		out.SurvivalRate = float64(s.GamesPlayed-s.EliminatedCount) / games
		out.AvgVotes = float64(s.TotalVotesReceived) / games
	}
	if s.GamesAsDeceiver > 0 {
		out.DeceiverWinRate = float64(s.WinsAsDeceiver) / float64(s.GamesAsDeceiver)
	}
	if s.GamesAsDefender > 0 {
		out.DefenderWinRate = float64(s.WinsAsDefender) / float64(s.GamesAsDefender)
	}
	return out
}
