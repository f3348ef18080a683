// Package report writes the run's CSV artifacts and knows where every
// report file lives under the reports dir.
package report

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/allibot/rtsbench/internal/models"
)

// Paths locates the artifacts of one run under a single reports dir.
type Paths struct {
	Dir string
}

func (p Paths) MatchCSV() string      { return filepath.Join(p.Dir, "match_results.csv") }
func (p Paths) SummaryCSV() string    { return filepath.Join(p.Dir, "summary.csv") }
func (p Paths) WinRatePNG() string    { return filepath.Join(p.Dir, "win_rate_by_opponent.png") }
func (p Paths) HeadToHeadDir() string { return filepath.Join(p.Dir, "head_to_head") }

func (p Paths) HeadToHeadPNG(opponent string) string {
	return filepath.Join(p.HeadToHeadDir(), "head_to_head_"+opponent+".png")
}

var matchHeader = []string{
	"match_index", "opponent", "map", "round", "bot_side", "winner", "cycles", "result",
}

var summaryHeader = []string{
	"opponent", "games", "wins", "losses", "ties", "win_rate", "score", "avg_cycles",
}

// WriteMatchCSV writes one row per match. No records means no file.
func WriteMatchCSV(path string, records []models.MatchRecord) error {
	if len(records) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(records)+1)
	rows = append(rows, matchHeader)
	for _, rec := range records {
		rows = append(rows, []string{
			strconv.Itoa(rec.Index),
			rec.Opponent,
			rec.Map,
			strconv.Itoa(rec.Round),
			strconv.Itoa(rec.BotSide),
			strconv.Itoa(rec.Winner),
			strconv.Itoa(rec.Cycles),
			string(rec.Result),
		})
	}
	return writeCSV(path, rows)
}

// WriteSummaryCSV writes one row per opponent. No summaries means no file.
func WriteSummaryCSV(path string, summaries []models.OpponentSummary) error {
	if len(summaries) == 0 {
		return nil
	}
	rows := make([][]string, 0, len(summaries)+1)
	rows = append(rows, summaryHeader)
	for _, s := range summaries {
		rows = append(rows, []string{
			s.Opponent,
			strconv.Itoa(s.Games),
			strconv.Itoa(s.Wins),
			strconv.Itoa(s.Losses),
			strconv.Itoa(s.Ties),
			formatFloat(s.WinRate),
			formatFloat(s.Score),
			formatFloat(s.AvgCycles),
		})
	}
	return writeCSV(path, rows)
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func writeCSV(path string, rows [][]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create report dir: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	w := csv.NewWriter(f)
	if err := w.WriteAll(rows); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
