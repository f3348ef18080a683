package tracking

import (
	"context"

	"github.com/allibot/rtsbench/internal/models"
)

// Multi fans every call out to each tracker in order and stops at the
// first error. Callers register the archive before any remote tracker.
type Multi struct {
	trackers []Tracker
}

// NewMulti combines trackers.
func NewMulti(trackers ...Tracker) *Multi {
	return &Multi{trackers: trackers}
}

func (m *Multi) Start(ctx context.Context, run *models.Run) error {
	for _, t := range m.trackers {
		if err := t.Start(ctx, run); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) LogMatch(ctx context.Context, rec models.MatchRecord) error {
	for _, t := range m.trackers {
		if err := t.LogMatch(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) LogTable(ctx context.Context, key string, table Table) error {
	for _, t := range m.trackers {
		if err := t.LogTable(ctx, key, table); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) LogChart(ctx context.Context, key string, chart BarChart) error {
	for _, t := range m.trackers {
		if err := t.LogChart(ctx, key, chart); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) LogImage(ctx context.Context, key, path string) error {
	for _, t := range m.trackers {
		if err := t.LogImage(ctx, key, path); err != nil {
			return err
		}
	}
	return nil
}

func (m *Multi) Finish(ctx context.Context, summary []models.OpponentSummary) error {
	for _, t := range m.trackers {
		if err := t.Finish(ctx, summary); err != nil {
			return err
		}
	}
	return nil
}
