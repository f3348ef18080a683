// Package history mirrors finished matches into ClickHouse so results
// can be compared across runs. The mirror is optional and best-effort:
// it is only wired when CLICKHOUSE_URL is set, and write failures
// degrade to warnings instead of failing the benchmark.
package history

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/models"
)

const batchSize = 50

const createDatabaseDDL = `CREATE DATABASE IF NOT EXISTS rtsbench`

const createTableDDL = `
	CREATE TABLE IF NOT EXISTS rtsbench.match_history (
		run_id         String,
		recorded_at    DateTime,
		bot_class      String,
		opponent       String,
		opponent_class String,
		map            String,
		round          Int32,
		bot_side       Int8,
		winner         Int8,
		cycles         Int32,
		game_over      Bool,
		result         String
	) ENGINE = MergeTree()
	ORDER BY (run_id, recorded_at)
`

// Open connects to ClickHouse from a DSN and verifies the connection.
func Open(ctx context.Context, dsn string) (driver.Conn, error) {
	opts, err := clickhouse.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse clickhouse dsn: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open clickhouse: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ping clickhouse: %w", err)
	}
	return conn, nil
}

type pendingRecord struct {
	rec models.MatchRecord
	at  time.Time
}

// Sink buffers match records and writes them to the history table in
// batches. It does not own the connection.
type Sink struct {
	conn     driver.Conn
	logger   *zap.SugaredLogger
	runID    string
	botClass string

	mu      sync.Mutex
	pending []pendingRecord
}

// SinkConfig holds the sink dependencies.
type SinkConfig struct {
	Conn     driver.Conn
	RunID    string
	BotClass string
	Logger   *zap.Logger
}

// NewSink creates a history sink for one run.
func NewSink(cfg SinkConfig) *Sink {
	return &Sink{
		conn:     cfg.Conn,
		logger:   cfg.Logger.Sugar(),
		runID:    cfg.RunID,
		botClass: cfg.BotClass,
	}
}

// EnsureSchema creates the history database and table if missing.
func (s *Sink) EnsureSchema(ctx context.Context) error {
	if err := s.conn.Exec(ctx, createDatabaseDDL); err != nil {
		return fmt.Errorf("create database: %w", err)
	}
	if err := s.conn.Exec(ctx, createTableDDL); err != nil {
		return fmt.Errorf("create table: %w", err)
	}
	return nil
}

// Record buffers one match. Full buffers flush inline; a failed flush
// is logged and dropped so the benchmark keeps running.
func (s *Sink) Record(rec models.MatchRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.pending = append(s.pending, pendingRecord{rec: rec, at: time.Now().UTC()})
	if len(s.pending) < batchSize {
		return
	}
	if err := s.flushLocked(context.Background()); err != nil {
		s.logger.Warnw("Failed to flush match history", "error", err, "run_id", s.runID)
	}
}

// Flush writes any buffered records.
func (s *Sink) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.flushLocked(ctx)
}

func (s *Sink) flushLocked(ctx context.Context) error {
	if len(s.pending) == 0 {
		return nil
	}
	pending := s.pending
	s.pending = nil

	batch, err := s.conn.PrepareBatch(ctx, `
		INSERT INTO rtsbench.match_history (
			run_id, recorded_at, bot_class, opponent, opponent_class,
			map, round, bot_side, winner, cycles, game_over, result
		)
	`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}

	for _, p := range pending {
		err := batch.Append(
			s.runID,
			p.at,
			s.botClass,
			p.rec.Opponent,
			p.rec.OpponentClass,
			p.rec.Map,
			int32(p.rec.Round),
			int8(p.rec.BotSide),
			int8(p.rec.Winner),
			int32(p.rec.Cycles),
			p.rec.GameOver,
			string(p.rec.Result),
		)
		if err != nil {
			s.logger.Warnw("Failed to append match to history batch",
				"error", err, "match_index", p.rec.Index)
			continue
		}
	}

	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}
