// Package export writes tournament reports as CSV file sets, one folder
// per batch, suitable for spreadsheet and notebook analysis.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/game"
	"github.com/NikitaDmitrieff/ai-arena-back-mr-white/internal/tournament"
)

// CSV writes a report as five files under a base directory:
// games, players, messages, model_stats and tournament_summary. File
// names share a "<N>games_<P>players_<timestamp>" base; the stats and
// summary files gain a "_partial" suffix when the batch stopped early.
type CSV struct {
	dir string
	now func() time.Time
}

func NewCSV(dir string) *CSV {
	return &CSV{dir: dir, now: time.Now}
}

// WriteReport writes every file for one batch and returns the shared
// file name base. players is the seat count the batch was planned with,
// which matters when zero games completed.
func (c *CSV) WriteReport(rep *tournament.Report, players int) (string, error) {
	if err := os.MkdirAll(c.dir, 0o755); err != nil {
		return "", err
	}

	base := fmt.Sprintf("%dgames_%dplayers_%s", rep.Planned, players, c.now().Format("20060102_150405"))
	finalBase := base
	if rep.FailedGame > 0 {
		finalBase += "_partial"
	}

	if err := c.writeGames(base, rep); err != nil {
		return "", err
	}
	if err := c.writePlayers(base, rep); err != nil {
		return "", err
	}
	if err := c.writeMessages(base, rep); err != nil {
		return "", err
	}
	sum := rep.Summary()
	if err := c.writeModelStats(finalBase, sum); err != nil {
		return "", err
	}
	if err := c.writeSummary(finalBase, sum); err != nil {
		return "", err
	}
	return base, nil
}

func (c *CSV) writeFile(name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(c.dir, name))
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return err
	}
	if err := w.WriteAll(rows); err != nil {
		return err
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (c *CSV) writeGames(base string, rep *tournament.Report) error {
	header := []string{
		"game_id", "timestamp", "secret_word", "winner_side",
		"deceiver_player", "deceiver_provider", "deceiver_model",
		"eliminated_player", "eliminated_provider", "eliminated_model",
		"total_votes_cast", "vote_counts_json",
	}
	rows := make([][]string, 0, len(rep.Results))
	for _, res := range rep.Results {
		total := 0
		for _, n := range res.VoteCounts {
			total += n
		}
		countsJSON, err := json.Marshal(res.VoteCounts)
		if err != nil {
			return err
		}
		rows = append(rows, []string{
			res.SessionID, res.Timestamp.Format(time.RFC3339), res.Secret, res.WinnerSide,
			res.DeceiverName, res.DeceiverModel.Provider, res.DeceiverModel.Model,
			res.EliminatedName, res.EliminatedModel.Provider, res.EliminatedModel.Model,
			strconv.Itoa(total), string(countsJSON),
		})
	}
	return c.writeFile(base+"_games.csv", header, rows)
}

func (c *CSV) writePlayers(base string, rep *tournament.Report) error {
	header := []string{
		"game_id", "player_name", "provider", "model", "is_deceiver",
		"word", "survived", "votes_received", "won_game", "secret_word", "winner_side",
	}
	var rows [][]string
	for _, res := range rep.Results {
		for _, p := range res.Players {
			won := p.IsDeceiver == (res.WinnerSide == game.WinnerDeceiver)
			rows = append(rows, []string{
				res.SessionID, p.Name, p.Provider, p.Model,
				strconv.FormatBool(p.IsDeceiver), p.Word,
				strconv.FormatBool(p.Survived), strconv.Itoa(p.VotesReceived),
				strconv.FormatBool(won), res.Secret, res.WinnerSide,
			})
		}
	}
	return c.writeFile(base+"_players.csv", header, rows)
}

func (c *CSV) writeMessages(base string, rep *tournament.Report) error {
	header := []string{
		"game_id", "provider", "model", "player_name", "message_type",
		"phase", "round", "content", "secret_word", "is_deceiver",
	}
	var rows [][]string
	for _, res := range rep.Results {
		seats := make(map[string]game.PlayerOutcome, len(res.Players))
		for _, p := range res.Players {
			seats[p.Name] = p
		}
		for _, m := range res.Messages {
			p := seats[m.Player]
			rows = append(rows, []string{
				res.SessionID, p.Provider, p.Model, m.Player, string(m.Type),
				string(m.Phase), strconv.Itoa(m.Round), m.Content,
				res.Secret, strconv.FormatBool(p.IsDeceiver),
			})
		}
	}
	return c.writeFile(base+"_messages.csv", header, rows)
}

func (c *CSV) writeModelStats(base string, sum tournament.Summary) error {
	header := []string{
		"provider", "model", "games_played", "total_wins", "win_rate",
		"games_as_deceiver", "wins_as_deceiver", "deceiver_win_rate",
		"games_as_defender", "wins_as_defender", "defender_win_rate",
		"eliminated_count", "survival_rate", "avg_votes_received",
	}
	keys := make([]string, 0, len(sum.PerModel))
	for key := range sum.PerModel {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	rows := make([][]string, 0, len(keys))
	for _, key := range keys {
		s := sum.PerModel[key]
		provider, model := splitKey(key)
		rows = append(rows, []string{
			provider, model,
			strconv.Itoa(s.GamesPlayed), strconv.Itoa(s.TotalWins), formatRate(s.WinRate),
			strconv.Itoa(s.GamesAsDeceiver), strconv.Itoa(s.WinsAsDeceiver), formatRate(s.DeceiverWinRate),
			strconv.Itoa(s.GamesAsDefender), strconv.Itoa(s.WinsAsDefender), formatRate(s.DefenderWinRate),
			strconv.Itoa(s.EliminatedCount), formatRate(s.SurvivalRate), formatRate(s.AvgVotes),
		})
	}
	return c.writeFile(base+"_model_stats.csv", header, rows)
}

func (c *CSV) writeSummary(base string, sum tournament.Summary) error {
	header := []string{
		"planned_games", "completed_games", "failed_game", "success_rate",
		"defender_wins", "deceiver_wins", "tournament_status",
		"total_models", "export_timestamp",
	}
	status := "COMPLETE"
	failed := ""
	if sum.FailedGame > 0 {
		status = "PARTIAL"
		failed = strconv.Itoa(sum.FailedGame)
	}
	row := []string{
		strconv.Itoa(sum.Planned), strconv.Itoa(sum.Completed), failed,
		formatRate(sum.SuccessRate),
		strconv.Itoa(sum.DefenderWins), strconv.Itoa(sum.DeceiverWins), status,
		strconv.Itoa(len(sum.PerModel)), c.now().Format("20060102_150405"),
	}
	return c.writeFile(base+"_tournament_summary.csv", header, [][]string{row})
}

// splitKey undoes ModelSpec.Key. The model part may itself contain
// underscores, so only the first one separates the provider.
func splitKey(key string) (provider, model string) {
	parts := strings.SplitN(key, "_", 2)
	if len(parts) != 2 {
		return key, ""
	}
	return parts[0], parts[1]
}

func formatRate(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}
