// Package match runs single matches through the compiled eval.MatchRunner
// helper and parses its one-line JSON result.
package match

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/metrics"
	"github.com/allibot/rtsbench/internal/models"
)

// CommandRunner runs one subprocess and returns its combined output.
type CommandRunner interface {
	CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// InvokeError reports a helper subprocess that failed to run or exited
// non-zero.
type InvokeError struct {
	Output string
	Err    error
}

func (e *InvokeError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("match subprocess failed: %v", e.Err)
	}
	return fmt.Sprintf("match subprocess failed: %v\n%s", e.Err, strings.TrimSpace(e.Output))
}

func (e *InvokeError) Unwrap() error { return e.Err }

type Config struct {
	EngineDir      string
	RunnerBin      string // directory with the compiled helper classes
	ExtraJars      []string
	MaxCycles      int
	UTTVersion     int
	ConflictPolicy int
	Runner         CommandRunner
	Logger         *zap.Logger
}

// Invoker plays matches one at a time. Matches are never run concurrently;
// execution order defines the run's match indices.
type Invoker struct {
	engineDir      string
	runnerBin      string
	extraJars      []string
	maxCycles      int
	uttVersion     int
	conflictPolicy int
	runner         CommandRunner
	logger         *zap.SugaredLogger
}

func New(cfg Config) *Invoker {
	return &Invoker{
		engineDir:      cfg.EngineDir,
		runnerBin:      cfg.RunnerBin,
		extraJars:      cfg.ExtraJars,
		maxCycles:      cfg.MaxCycles,
		uttVersion:     cfg.UTTVersion,
		conflictPolicy: cfg.ConflictPolicy,
		runner:         cfg.Runner,
		logger:         cfg.Logger.Sugar(),
	}
}

// Classpath assembles the helper classpath: engine libs, packaged bots,
// engine classes, the compiled helper, then every extra jar that exists.
func (inv *Invoker) Classpath() string {
	parts := []string{
		filepath.Join(inv.engineDir, "lib", "*"),
		filepath.Join(inv.engineDir, "lib", "bots", "*"),
		filepath.Join(inv.engineDir, "bin"),
		inv.runnerBin,
	}
	for _, jar := range inv.extraJars {
		if _, err := os.Stat(jar); err == nil {
			parts = append(parts, jar)
		}
	}
	return strings.Join(parts, string(os.PathListSeparator))
}

// Run plays ai1 against ai2 on mapPath and returns the parsed result.
func (inv *Invoker) Run(ctx context.Context, mapPath, ai1, ai2 string) (models.MatchResult, error) {
	inv.logger.Debugw("Running match", "map", filepath.Base(mapPath), "ai1", ai1, "ai2", ai2)
	start := time.Now()

	out, err := inv.runner.CombinedOutput(ctx, "", "java",
		"-cp", inv.Classpath(),
		"eval.MatchRunner",
		mapPath,
		strconv.Itoa(inv.maxCycles),
		strconv.Itoa(inv.uttVersion),
		strconv.Itoa(inv.conflictPolicy),
		ai1,
		ai2,
	)
	if err != nil {
		return models.MatchResult{}, &InvokeError{Output: string(out), Err: err}
	}

	metrics.MatchDuration.Observe(time.Since(start).Seconds())
	return ParseResultLine(out)
}
