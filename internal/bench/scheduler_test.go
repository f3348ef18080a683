package bench

import (
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/models"
)

type matchCall struct {
	mapPath string
	ai1     string
	ai2     string
}

type fakeMatcher struct {
	calls   []matchCall
	results []models.MatchResult
	failAt  int // call index that fails, -1 for never
	err     error
}

func (f *fakeMatcher) Run(_ context.Context, mapPath, ai1, ai2 string) (models.MatchResult, error) {
	call := len(f.calls)
	f.calls = append(f.calls, matchCall{mapPath: mapPath, ai1: ai1, ai2: ai2})
	if f.failAt >= 0 && call == f.failAt {
		return models.MatchResult{}, f.err
	}
	if call < len(f.results) {
		return f.results[call], nil
	}
	return models.MatchResult{Winner: -1, Cycles: 5000, GameOver: false}, nil
}

type fakeMatchLogger struct {
	records []models.MatchRecord
	err     error
}

func (f *fakeMatchLogger) LogMatch(_ context.Context, rec models.MatchRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, rec)
	return nil
}

type fakeSink struct {
	records []models.MatchRecord
}

func (f *fakeSink) Record(rec models.MatchRecord) {
	f.records = append(f.records, rec)
}

func newTestScheduler(matcher *fakeMatcher, tracker *fakeMatchLogger, sinks ...MatchSink) *Scheduler {
	return NewScheduler(SchedulerConfig{
		Matches: matcher,
		Tracker: tracker,
		Sinks:   sinks,
		Logger:  zap.NewNop(),
	})
}

func TestSchedulerRunMirroredPair(t *testing.T) {
	matcher := &fakeMatcher{
		failAt: -1,
		results: []models.MatchResult{
			{Winner: 0, Cycles: 1200, GameOver: true},
			{Winner: 0, Cycles: 3400, GameOver: true},
		},
	}
	tracker := &fakeMatchLogger{}
	sink := &fakeSink{}
	sched := newTestScheduler(matcher, tracker, sink)

	plan := Plan{
		BotClass:  "alliBot.alli",
		Opponents: []string{"worker_rush"},
		Maps:      []string{"/engine/maps/16x16/basesWorkers16x16.xml"},
		Rounds:    1,
	}
	records, err := sched.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	wantCalls := []matchCall{
		{mapPath: plan.Maps[0], ai1: "alliBot.alli", ai2: "ai.abstraction.WorkerRush"},
		{mapPath: plan.Maps[0], ai1: "ai.abstraction.WorkerRush", ai2: "alliBot.alli"},
	}
	if !reflect.DeepEqual(matcher.calls, wantCalls) {
		t.Errorf("expected calls %v, got %v", wantCalls, matcher.calls)
	}

	first := models.MatchRecord{
		Index:         0,
		Opponent:      "worker_rush",
		OpponentClass: "ai.abstraction.WorkerRush",
		Map:           "basesWorkers16x16.xml",
		Round:         0,
		BotSide:       0,
		Winner:        0,
		Cycles:        1200,
		GameOver:      true,
		Result:        models.OutcomeWin,
	}
	if !reflect.DeepEqual(records[0], first) {
		t.Errorf("expected first record %+v, got %+v", first, records[0])
	}

	// Same winner on the mirrored side means the candidate lost.
	if records[1].Index != 1 || records[1].BotSide != 1 || records[1].Result != models.OutcomeLoss {
		t.Errorf("unexpected second record %+v", records[1])
	}

	if !reflect.DeepEqual(tracker.records, records) {
		t.Errorf("tracker saw %v, want %v", tracker.records, records)
	}
	if !reflect.DeepEqual(sink.records, records) {
		t.Errorf("sink saw %v, want %v", sink.records, records)
	}
}

func TestSchedulerRunOrdering(t *testing.T) {
	matcher := &fakeMatcher{failAt: -1}
	tracker := &fakeMatchLogger{}
	sched := newTestScheduler(matcher, tracker)

	plan := Plan{
		BotClass:  "alliBot.alli",
		Opponents: []string{"coac", "random"},
		Maps:      []string{"/maps/a.xml", "/maps/b.xml"},
		Rounds:    2,
	}
	records, err := sched.Run(context.Background(), plan)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if want := plan.Matches(); len(records) != want {
		t.Fatalf("expected %d records, got %d", want, len(records))
	}

	type step struct {
		opponent string
		mapName  string
		round    int
		botSide  int
	}
	var got []step
	for i, rec := range records {
		if rec.Index != i {
			t.Errorf("record %d has index %d", i, rec.Index)
		}
		got = append(got, step{rec.Opponent, rec.Map, rec.Round, rec.BotSide})
	}

	var want []step
	for _, opponent := range plan.Opponents {
		for _, mapName := range []string{"a.xml", "b.xml"} {
			for round := 0; round < plan.Rounds; round++ {
				want = append(want, step{opponent, mapName, round, 0})
				want = append(want, step{opponent, mapName, round, 1})
			}
		}
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("expected order %v, got %v", want, got)
	}
}

func TestSchedulerRunMatchFailure(t *testing.T) {
	matcher := &fakeMatcher{
		failAt: 1,
		err:    errors.New("exit status 1"),
		results: []models.MatchResult{
			{Winner: 0, Cycles: 100, GameOver: true},
		},
	}
	tracker := &fakeMatchLogger{}
	sched := newTestScheduler(matcher, tracker)

	plan := Plan{
		BotClass:  "alliBot.alli",
		Opponents: []string{"random"},
		Maps:      []string{"/maps/a.xml"},
		Rounds:    1,
	}
	records, err := sched.Run(context.Background(), plan)
	if err == nil {
		t.Fatal("expected error")
	}
	if !strings.Contains(err.Error(), "match 1 (random on a.xml)") {
		t.Errorf("unexpected error: %v", err)
	}
	if records != nil {
		t.Errorf("expected no records on failure, got %v", records)
	}
	if len(matcher.calls) != 2 {
		t.Errorf("expected 2 calls before abort, got %d", len(matcher.calls))
	}
}

func TestSchedulerRunTrackerFailure(t *testing.T) {
	matcher := &fakeMatcher{failAt: -1}
	tracker := &fakeMatchLogger{err: errors.New("tracker down")}
	sched := newTestScheduler(matcher, tracker)

	plan := Plan{
		BotClass:  "alliBot.alli",
		Opponents: []string{"random"},
		Maps:      []string{"/maps/a.xml"},
		Rounds:    1,
	}
	_, err := sched.Run(context.Background(), plan)
	if err == nil || !strings.Contains(err.Error(), "log match 0") {
		t.Errorf("expected log match error, got %v", err)
	}
	if len(matcher.calls) != 1 {
		t.Errorf("expected abort after first match, got %d calls", len(matcher.calls))
	}
}

func TestPlanMatches(t *testing.T) {
	plan := Plan{
		Opponents: []string{"a", "b", "c"},
		Maps:      []string{"m1", "m2"},
		Rounds:    3,
	}
	if got := plan.Matches(); got != 36 {
		t.Errorf("expected 36 matches, got %d", got)
	}
}
