package models

import "testing"

func TestClassify(t *testing.T) {
	tests := []struct {
		name    string
		botSide int
		winner  int
		want    Outcome
	}{
		{"Side0Win", 0, 0, OutcomeWin},
		{"Side0Loss", 0, 1, OutcomeLoss},
		{"Side0Draw", 0, -1, OutcomeTie},
		{"Side1Win", 1, 1, OutcomeWin},
		{"Side1Loss", 1, 0, OutcomeLoss},
		{"Side1Draw", 1, -1, OutcomeTie},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Classify(tt.botSide, tt.winner); got != tt.want {
				t.Errorf("Classify(%d, %d) = %v, want %v", tt.botSide, tt.winner, got, tt.want)
			}
		})
	}
}

func TestOutcomeScore(t *testing.T) {
	tests := []struct {
		name    string
		outcome Outcome
		want    int
	}{
		{"Win", OutcomeWin, 1},
		{"Tie", OutcomeTie, 0},
		{"Loss", OutcomeLoss, -1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.outcome.Score(); got != tt.want {
				t.Errorf("Score() = %d, want %d", got, tt.want)
			}
		})
	}
}
