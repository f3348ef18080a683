package models

// MatchResult is the decoded JSON line printed by the eval.MatchRunner helper.
// Winner is the player index (0 or 1) or -1 when the engine declared a draw.
type MatchResult struct {
	Winner   int  `json:"winner"`
	Cycles   int  `json:"cycles"`
	GameOver bool `json:"game_over"`
}

// Outcome classifies a finished match from the candidate bot's perspective.
type Outcome string

const (
	OutcomeWin  Outcome = "win"
	OutcomeLoss Outcome = "loss"
	OutcomeTie  Outcome = "tie"
)

// Classify maps the helper's winner index to an outcome for the side the
// candidate bot played.
func Classify(botSide, winner int) Outcome {
	switch winner {
	case botSide:
		return OutcomeWin
	case 1 - botSide:
		return OutcomeLoss
	default:
		return OutcomeTie
	}
}

// Score returns the logged value for an outcome: 1 win, 0 tie, -1 loss.
func (o Outcome) Score() int {
	switch o {
	case OutcomeWin:
		return 1
	case OutcomeLoss:
		return -1
	default:
		return 0
	}
}

// MatchRecord is one played match. Index is monotonic across the whole run
// and follows execution order. Map holds the map file's base name.
type MatchRecord struct {
	Index         int     `json:"match_index"`
	Opponent      string  `json:"opponent"`
	OpponentClass string  `json:"opponent_class,omitempty"`
	Map           string  `json:"map"`
	Round         int     `json:"round"`
	BotSide       int     `json:"bot_side"`
	Winner        int     `json:"winner"`
	Cycles        int     `json:"cycles"`
	GameOver      bool    `json:"game_over"`
	Result        Outcome `json:"result"`
}

// OpponentSummary aggregates all matches against one roster opponent.
type OpponentSummary struct {
	Opponent  string  `json:"opponent"`
	Games     int     `json:"games"`
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Ties      int     `json:"ties"`
	WinRate   float64 `json:"win_rate"`
	Score     float64 `json:"score"`
	AvgCycles float64 `json:"avg_cycles"`
}
