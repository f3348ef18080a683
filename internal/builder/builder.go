// Package builder drives the Java toolchain: it compiles the MicroRTS
// engine on demand, builds the candidate bot jar from source, and compiles
// the eval.MatchRunner helper the match layer invokes.
package builder

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/metrics"
)

// engineMarkerClass is the compiled class whose presence means the engine
// bin tree is usable.
var engineMarkerClass = filepath.Join("bin", "rts", "MicroRTS.class")

//go:embed MatchRunner.java
var matchRunnerSource string

// CommandRunner runs one subprocess and returns its combined output.
type CommandRunner interface {
	CombinedOutput(ctx context.Context, dir, name string, args ...string) ([]byte, error)
}

// BuildError reports a failed toolchain step. Output carries the combined
// subprocess output so javac diagnostics reach the operator.
type BuildError struct {
	Step   string
	Output string
	Err    error
}

func (e *BuildError) Error() string {
	if e.Output == "" {
		return fmt.Sprintf("%s: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("%s: %v\n%s", e.Step, e.Err, strings.TrimSpace(e.Output))
}

func (e *BuildError) Unwrap() error { return e.Err }

type Config struct {
	EngineDir string // MicroRTS checkout
	WorkDir   string // harness root: bot source, jars, eval helper
	Runner    CommandRunner
	Logger    *zap.Logger
}

// Builder orchestrates javac and jar packaging for one benchmark run.
type Builder struct {
	engineDir string
	workDir   string
	runner    CommandRunner
	logger    *zap.SugaredLogger
}

func New(cfg Config) *Builder {
	return &Builder{
		engineDir: cfg.EngineDir,
		workDir:   cfg.WorkDir,
		runner:    cfg.Runner,
		logger:    cfg.Logger.Sugar(),
	}
}

// CheckEngine verifies the engine checkout exists at all.
func (b *Builder) CheckEngine() error {
	info, err := os.Stat(b.engineDir)
	if err != nil || !info.IsDir() {
		return fmt.Errorf("microrts dir not found: %s", b.engineDir)
	}
	return nil
}

// EnsureEngineCompiled compiles the engine unless the marker class already
// exists under bin/. A stale bin tree is left alone.
func (b *Builder) EnsureEngineCompiled(ctx context.Context) error {
	marker := filepath.Join(b.engineDir, engineMarkerClass)
	if _, err := os.Stat(marker); err == nil {
		return nil
	}

	b.logger.Infow("Compiling MicroRTS engine (bin classes not found)", "dir", b.engineDir)
	start := time.Now()

	cp := "lib/*" + string(os.PathListSeparator) + "src"
	out, err := b.runner.CombinedOutput(ctx, b.engineDir,
		"javac", "-cp", cp, "-d", "bin", filepath.Join("src", "rts", "MicroRTS.java"))
	if err != nil {
		return &BuildError{Step: "compile engine", Output: string(out), Err: err}
	}

	metrics.BuildsTotal.WithLabelValues("engine").Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	b.logger.Infow("Engine compiled", "duration", time.Since(start))
	return nil
}

// EnsureHelperSource materializes the embedded MatchRunner source under
// eval/ in the work dir. A checked-in copy wins over the embedded one.
func (b *Builder) EnsureHelperSource() (string, error) {
	path := filepath.Join(b.workDir, "eval", "MatchRunner.java")
	if _, err := os.Stat(path); err == nil {
		return path, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("create eval dir: %w", err)
	}
	if err := os.WriteFile(path, []byte(matchRunnerSource), 0o644); err != nil {
		return "", fmt.Errorf("write helper source: %w", err)
	}
	return path, nil
}

// CompileHelper compiles eval.MatchRunner against the engine classes plus
// any extra jars and returns the directory holding the compiled helper.
// Extra jars that do not exist are skipped, matching the match classpath.
func (b *Builder) CompileHelper(ctx context.Context, extraJars []string) (string, error) {
	src, err := b.EnsureHelperSource()
	if err != nil {
		return "", err
	}

	outDir := filepath.Join(b.workDir, "eval", "bin")
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("create helper bin dir: %w", err)
	}

	cp := []string{
		filepath.Join(b.engineDir, "lib", "*"),
		filepath.Join(b.engineDir, "lib", "bots", "*"),
		filepath.Join(b.engineDir, "bin"),
	}
	for _, jar := range extraJars {
		if _, err := os.Stat(jar); err == nil {
			cp = append(cp, jar)
		}
	}

	b.logger.Infow("Compiling match helper", "out", outDir)
	start := time.Now()

	out, err := b.runner.CombinedOutput(ctx, "",
		"javac", "-cp", strings.Join(cp, string(os.PathListSeparator)), "-d", outDir, src)
	if err != nil {
		return "", &BuildError{Step: "compile helper", Output: string(out), Err: err}
	}

	metrics.BuildsTotal.WithLabelValues("helper").Inc()
	metrics.BuildDuration.Observe(time.Since(start).Seconds())
	return outDir, nil
}

// CopyJarToBots installs the jar into the engine's lib/bots directory,
// where the helper classpath picks it up alongside the packaged opponents.
func (b *Builder) CopyJarToBots(jarPath string) error {
	botsDir := filepath.Join(b.engineDir, "lib", "bots")
	if err := os.MkdirAll(botsDir, 0o755); err != nil {
		return fmt.Errorf("create bots dir: %w", err)
	}
	dst := filepath.Join(botsDir, filepath.Base(jarPath))

	src, err := os.Open(jarPath)
	if err != nil {
		return fmt.Errorf("open jar: %w", err)
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		return fmt.Errorf("copy jar to %s: %w", dst, err)
	}

	b.logger.Infow("Bot jar installed", "dst", dst)
	return nil
}
