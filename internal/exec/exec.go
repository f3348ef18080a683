// Package exec runs the Java toolchain as subprocesses with combined
// stdout/stderr capture.
package exec

import (
	"context"
	"os/exec"
	"time"

	"go.uber.org/zap"
)

// Runner executes commands through exec.CommandContext.
type Runner struct {
	logger *zap.SugaredLogger
}

func NewRunner(logger *zap.Logger) *Runner {
	return &Runner{logger: logger.Sugar()}
}

// CombinedOutput runs name with args, using dir as the working directory
// when dir is not empty. The combined output is returned even on failure so
// callers can surface compiler and JVM diagnostics.
func (r *Runner) CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error) {
	start := time.Now()
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Dir = dir

	out, err := cmd.CombinedOutput()
	if err != nil {
		r.logger.Warnw("Command failed",
			"command", name,
			"args", args,
			"dir", dir,
			"duration", time.Since(start),
			"error", err,
		)
		return out, err
	}

	r.logger.Debugw("Command finished", "command", name, "duration", time.Since(start))
	return out, nil
}
