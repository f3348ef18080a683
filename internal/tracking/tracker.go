// Package tracking reports benchmark runs to result backends. The local
// archive always records; the remote backend is added when a tracker
// URL is configured, so offline runs lose nothing but the upload.
package tracking

import (
	"context"

	"github.com/allibot/rtsbench/internal/models"
)

// Table is a column-oriented result table logged at the end of a run.
type Table struct {
	Columns []string `json:"columns"`
	Rows    [][]any  `json:"rows"`
}

// BarChart describes a bar chart over a previously logged table.
type BarChart struct {
	Table string `json:"table"`
	Label string `json:"label"`
	Value string `json:"value"`
	Title string `json:"title"`
}

// Tracker receives run lifecycle events and results. Start must be
// called before any other method.
type Tracker interface {
	Start(ctx context.Context, run *models.Run) error
	LogMatch(ctx context.Context, rec models.MatchRecord) error
	LogTable(ctx context.Context, key string, table Table) error
	LogChart(ctx context.Context, key string, chart BarChart) error
	LogImage(ctx context.Context, key, path string) error
	Finish(ctx context.Context, summary []models.OpponentSummary) error
}

// MatchMetrics flattens a record into the per-match metric set.
func MatchMetrics(rec models.MatchRecord) map[string]any {
	return map[string]any{
		"match/index":        rec.Index,
		"match/opponent":     rec.Opponent,
		"match/map":          rec.Map,
		"match/bot_side":     rec.BotSide,
		"match/cycles":       rec.Cycles,
		"match/result_score": rec.Result.Score(),
	}
}

// MatchTable builds the full match table in record order. Columns match
// the match CSV.
func MatchTable(records []models.MatchRecord) Table {
	t := Table{
		Columns: []string{"match_index", "opponent", "map", "round", "bot_side", "winner", "cycles", "result"},
	}
	for _, rec := range records {
		t.Rows = append(t.Rows, []any{
			rec.Index, rec.Opponent, rec.Map, rec.Round,
			rec.BotSide, rec.Winner, rec.Cycles, string(rec.Result),
		})
	}
	return t
}

// SummaryTable builds the per-opponent summary table. Columns match the
// summary CSV.
func SummaryTable(summaries []models.OpponentSummary) Table {
	t := Table{
		Columns: []string{"opponent", "games", "wins", "losses", "ties", "win_rate", "score", "avg_cycles"},
	}
	for _, s := range summaries {
		t.Rows = append(t.Rows, []any{
			s.Opponent, s.Games, s.Wins, s.Losses, s.Ties,
			s.WinRate, s.Score, s.AvgCycles,
		})
	}
	return t
}
