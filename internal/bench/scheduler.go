package bench

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/metrics"
	"github.com/allibot/rtsbench/internal/models"
)

// MatchRunner plays one match between two AI classes on a map.
type MatchRunner interface {
	Run(ctx context.Context, mapPath, ai1, ai2 string) (models.MatchResult, error)
}

// MatchLogger receives each record as its match finishes.
type MatchLogger interface {
	LogMatch(ctx context.Context, rec models.MatchRecord) error
}

// MatchSink receives finished records for side channels such as the
// history mirror. Sink failures stay internal; Record reports nothing.
type MatchSink interface {
	Record(rec models.MatchRecord)
}

// Plan is the fully resolved benchmark schedule.
type Plan struct {
	BotClass  string
	Opponents []string // roster keys, selection order
	Maps      []string // resolved paths
	Rounds    int
}

// Matches returns the total number of matches the plan will play.
func (p Plan) Matches() int {
	return len(p.Opponents) * len(p.Maps) * p.Rounds * 2
}

// SchedulerConfig holds the scheduler dependencies.
type SchedulerConfig struct {
	Matches MatchRunner
	Tracker MatchLogger
	Sinks   []MatchSink
	Logger  *zap.Logger
}

// Scheduler plays a plan's cross product sequentially and records every
// match. One engine process runs at a time.
type Scheduler struct {
	matches MatchRunner
	tracker MatchLogger
	sinks   []MatchSink
	logger  *zap.SugaredLogger
}

// NewScheduler creates a scheduler.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	return &Scheduler{
		matches: cfg.Matches,
		tracker: cfg.Tracker,
		sinks:   cfg.Sinks,
		logger:  cfg.Logger.Sugar(),
	}
}

// Run plays every opponent on every map for the planned rounds. Each round
// plays the candidate on side 0 and then on side 1 against the same
// opponent and map, so side advantage cancels out across a round. The
// match index is monotonic across the whole run. The first failure aborts
// the run.
func (s *Scheduler) Run(ctx context.Context, plan Plan) ([]models.MatchRecord, error) {
	records := make([]models.MatchRecord, 0, plan.Matches())
	index := 0

	for _, key := range plan.Opponents {
		class := Opponents[key]
		for _, mapPath := range plan.Maps {
			for round := 0; round < plan.Rounds; round++ {
				for _, botSide := range []int{0, 1} {
					ai1, ai2 := plan.BotClass, class
					if botSide == 1 {
						ai1, ai2 = class, plan.BotClass
					}

					result, err := s.matches.Run(ctx, mapPath, ai1, ai2)
					if err != nil {
						return nil, fmt.Errorf("match %d (%s on %s): %w",
							index, key, filepath.Base(mapPath), err)
					}

					rec := models.MatchRecord{
						Index:         index,
						Opponent:      key,
						OpponentClass: class,
						Map:           filepath.Base(mapPath),
						Round:         round,
						BotSide:       botSide,
						Winner:        result.Winner,
						Cycles:        result.Cycles,
						GameOver:      result.GameOver,
						Result:        models.Classify(botSide, result.Winner),
					}
					records = append(records, rec)

					metrics.MatchesTotal.WithLabelValues(string(rec.Result)).Inc()
					s.logger.Infow("Match finished",
						"index", rec.Index,
						"opponent", rec.Opponent,
						"map", rec.Map,
						"round", rec.Round,
						"bot_side", rec.BotSide,
						"result", rec.Result,
						"cycles", rec.Cycles,
					)

					if err := s.tracker.LogMatch(ctx, rec); err != nil {
						return nil, fmt.Errorf("log match %d: %w", index, err)
					}
					for _, sink := range s.sinks {
						sink.Record(rec)
					}

					index++
				}
			}
		}
	}

	return records, nil
}
