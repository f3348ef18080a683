package match

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/allibot/rtsbench/internal/models"
)

// ParseError reports helper output that contains no result line. The full
// transcript is kept so the operator can see what the JVM printed instead.
type ParseError struct {
	Output string
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("no JSON result found in output:\n%s", e.Output)
}

// ParseResultLine scans the helper output from the end for the single JSON
// result line. Engine noise before the line is expected; bots print freely
// during the game. The result line starts with "{" and names "winner", and
// must carry all three result fields.
func ParseResultLine(output []byte) (models.MatchResult, error) {
	lines := strings.Split(string(output), "\n")
	for i := len(lines) - 1; i >= 0; i-- {
		line := strings.TrimSpace(lines[i])
		if !strings.HasPrefix(line, "{") || !strings.Contains(line, `"winner"`) {
			continue
		}

		var raw struct {
			Winner   *int  `json:"winner"`
			Cycles   *int  `json:"cycles"`
			GameOver *bool `json:"game_over"`
		}
		if err := json.Unmarshal([]byte(line), &raw); err != nil {
			return models.MatchResult{}, &ParseError{Output: string(output)}
		}
		if raw.Winner == nil || raw.Cycles == nil || raw.GameOver == nil {
			return models.MatchResult{}, &ParseError{Output: string(output)}
		}

		return models.MatchResult{
			Winner:   *raw.Winner,
			Cycles:   *raw.Cycles,
			GameOver: *raw.GameOver,
		}, nil
	}
	return models.MatchResult{}, &ParseError{Output: string(output)}
}
