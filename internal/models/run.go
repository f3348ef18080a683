package models

import "time"

// Run states as stored in the archive. A run that never reaches finished
// aborted mid-benchmark.
const (
	RunStateRunning  = "running"
	RunStateFinished = "finished"
)

// RunConfig is the configuration snapshot logged when a run starts.
type RunConfig struct {
	BotClass       string   `json:"bot_class"`
	Maps           []string `json:"maps"`
	Opponents      []string `json:"opponents"`
	Rounds         int      `json:"rounds"`
	MaxCycles      int      `json:"max_cycles"`
	UTTVersion     int      `json:"utt_version"`
	ConflictPolicy int      `json:"conflict_policy"`
}

// Run is the archived document for one benchmark run.
type Run struct {
	ID         string            `json:"id"`
	Name       string            `json:"name,omitempty"`
	Project    string            `json:"project"`
	Entity     string            `json:"entity,omitempty"`
	State      string            `json:"state"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt *time.Time        `json:"finished_at,omitempty"`
	Config     RunConfig         `json:"config"`
	Summary    []OpponentSummary `json:"summary,omitempty"`
}
