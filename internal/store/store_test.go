package store

import (
	"errors"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/allibot/rtsbench/internal/models"
)

func newTestStore(t *testing.T) *RunStore {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "data", "rtsbench.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func testRun(id string, startedAt time.Time) *models.Run {
	return &models.Run{
		ID:        id,
		Project:   "microrts-bot-eval",
		State:     models.RunStateRunning,
		StartedAt: startedAt,
		Config: models.RunConfig{
			BotClass:       "alliBot.alli",
			Maps:           []string{"/engine/maps/16x16/basesWorkers16x16.xml"},
			Opponents:      []string{"random"},
			Rounds:         3,
			MaxCycles:      5000,
			UTTVersion:     2,
			ConflictPolicy: 1,
		},
	}
}

func TestRunRoundTrip(t *testing.T) {
	s := newTestStore(t)
	run := testRun("run-1", time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC))

	if err := s.CreateRun(run); err != nil {
		t.Fatalf("create run: %v", err)
	}
	got, err := s.GetRun("run-1")
	if err != nil {
		t.Fatalf("get run: %v", err)
	}
	if !reflect.DeepEqual(got, run) {
		t.Errorf("expected %+v, got %+v", run, got)
	}
}

func TestGetRunNotFound(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.GetRun("missing"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListRunsMostRecentFirst(t *testing.T) {
	s := newTestStore(t)
	base := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"run-a", "run-b", "run-c"} {
		if err := s.CreateRun(testRun(id, base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("create %s: %v", id, err)
		}
	}

	runs, err := s.ListRuns()
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	var ids []string
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	want := []string{"run-c", "run-b", "run-a"}
	if !reflect.DeepEqual(ids, want) {
		t.Errorf("expected %v, got %v", want, ids)
	}
}

func TestMatchesPlayOrder(t *testing.T) {
	s := newTestStore(t)
	run := testRun("run-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err := s.CreateRun(run); err != nil {
		t.Fatal(err)
	}

	// Enough records that lexicographic keys would misorder without
	// zero padding.
	const n = 12
	for i := 0; i < n; i++ {
		rec := models.MatchRecord{
			Index:    i,
			Opponent: "random",
			Map:      "basesWorkers16x16.xml",
			BotSide:  i % 2,
			Cycles:   100 * i,
			Result:   models.OutcomeWin,
		}
		if err := s.AppendMatch("run-1", rec); err != nil {
			t.Fatalf("append match %d: %v", i, err)
		}
	}

	records, err := s.GetMatches("run-1")
	if err != nil {
		t.Fatalf("get matches: %v", err)
	}
	if len(records) != n {
		t.Fatalf("expected %d records, got %d", n, len(records))
	}
	for i, rec := range records {
		if rec.Index != i {
			t.Errorf("record %d has index %d", i, rec.Index)
		}
	}
}

func TestGetMatchesIsolatedPerRun(t *testing.T) {
	s := newTestStore(t)
	for _, id := range []string{"run-1", "run-2"} {
		if err := s.CreateRun(testRun(id, time.Now().UTC())); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AppendMatch("run-1", models.MatchRecord{Index: 0, Opponent: "coac"}); err != nil {
		t.Fatal(err)
	}
	if err := s.AppendMatch("run-2", models.MatchRecord{Index: 0, Opponent: "random"}); err != nil {
		t.Fatal(err)
	}

	records, err := s.GetMatches("run-2")
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 1 || records[0].Opponent != "random" {
		t.Errorf("unexpected records %v", records)
	}

	empty, err := s.GetMatches("run-3")
	if err != nil {
		t.Fatal(err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no records, got %v", empty)
	}
}

func TestFinishRun(t *testing.T) {
	s := newTestStore(t)
	run := testRun("run-1", time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC))
	if err := s.CreateRun(run); err != nil {
		t.Fatal(err)
	}

	summary := []models.OpponentSummary{
		{Opponent: "random", Games: 6, Wins: 6, WinRate: 1, Score: 1, AvgCycles: 800},
	}
	finishedAt := time.Date(2025, 6, 1, 1, 0, 0, 0, time.UTC)
	if err := s.FinishRun("run-1", summary, finishedAt); err != nil {
		t.Fatalf("finish run: %v", err)
	}

	got, err := s.GetRun("run-1")
	if err != nil {
		t.Fatal(err)
	}
	if got.State != models.RunStateFinished {
		t.Errorf("expected state finished, got %s", got.State)
	}
	if got.FinishedAt == nil || !got.FinishedAt.Equal(finishedAt) {
		t.Errorf("unexpected finished at %v", got.FinishedAt)
	}
	if !reflect.DeepEqual(got.Summary, summary) {
		t.Errorf("expected summary %v, got %v", summary, got.Summary)
	}
}

func TestFinishRunNotFound(t *testing.T) {
	s := newTestStore(t)
	err := s.FinishRun("missing", nil, time.Now().UTC())
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
