package tracking

import (
	"context"
	"time"

	"github.com/allibot/rtsbench/internal/models"
	"github.com/allibot/rtsbench/internal/store"
)

// Archive records runs in the local store. It is always active, so
// offline runs remain queryable through the API. Tables, charts and
// images are derived artifacts and are not archived separately.
type Archive struct {
	store *store.RunStore
	runID string
}

// NewArchive creates an archive tracker over an open store.
func NewArchive(s *store.RunStore) *Archive {
	return &Archive{store: s}
}

func (a *Archive) Start(_ context.Context, run *models.Run) error {
	a.runID = run.ID
	return a.store.CreateRun(run)
}

func (a *Archive) LogMatch(_ context.Context, rec models.MatchRecord) error {
	return a.store.AppendMatch(a.runID, rec)
}

func (a *Archive) LogTable(context.Context, string, Table) error { return nil }

func (a *Archive) LogChart(context.Context, string, BarChart) error { return nil }

func (a *Archive) LogImage(context.Context, string, string) error { return nil }

func (a *Archive) Finish(_ context.Context, summary []models.OpponentSummary) error {
	return a.store.FinishRun(a.runID, summary, time.Now().UTC())
}
