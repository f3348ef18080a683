package bench

import (
	"math"
	"sort"

	"github.com/allibot/rtsbench/internal/models"
)

// Summarize aggregates match records per opponent. Score counts a tie as
// half a win. Rates are rounded to 4 decimals and cycles to 2, matching
// the CSV output. Summaries come back sorted by opponent key.
func Summarize(records []models.MatchRecord) []models.OpponentSummary {
	byOpponent := make(map[string][]models.MatchRecord)
	for _, rec := range records {
		byOpponent[rec.Opponent] = append(byOpponent[rec.Opponent], rec)
	}

	summaries := make([]models.OpponentSummary, 0, len(byOpponent))
	for opponent, matches := range byOpponent {
		var wins, losses, ties, cycles int
		for _, rec := range matches {
			switch rec.Result {
			case models.OutcomeWin:
				wins++
			case models.OutcomeLoss:
				losses++
			default:
				ties++
			}
			cycles += rec.Cycles
		}

		games := len(matches)
		denom := float64(max(games, 1))
		summaries = append(summaries, models.OpponentSummary{
			Opponent:  opponent,
			Games:     games,
			Wins:      wins,
			Losses:    losses,
			Ties:      ties,
			WinRate:   round4(float64(wins) / denom),
			Score:     round4((float64(wins) + 0.5*float64(ties)) / denom),
			AvgCycles: round2(float64(cycles) / denom),
		})
	}

	sort.Slice(summaries, func(i, j int) bool {
		return summaries[i].Opponent < summaries[j].Opponent
	})
	return summaries
}

func round4(v float64) float64 { return math.Round(v*10000) / 10000 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
