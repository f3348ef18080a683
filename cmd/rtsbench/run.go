package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/allibot/rtsbench/internal/bench"
	"github.com/allibot/rtsbench/internal/builder"
	"github.com/allibot/rtsbench/internal/charts"
	"github.com/allibot/rtsbench/internal/config"
	"github.com/allibot/rtsbench/internal/exec"
	"github.com/allibot/rtsbench/internal/history"
	"github.com/allibot/rtsbench/internal/match"
	"github.com/allibot/rtsbench/internal/metrics"
	"github.com/allibot/rtsbench/internal/models"
	"github.com/allibot/rtsbench/internal/report"
	"github.com/allibot/rtsbench/internal/store"
	"github.com/allibot/rtsbench/internal/tracking"
)

type runOptions struct {
	microRTSDir    string
	botClass       string
	botSource      string
	botJar         string
	noRebuildJar   bool
	skipCopyJar    bool
	project        string
	entity         string
	runName        string
	offline        bool
	maps           string
	opponents      string
	rounds         int
	maxCycles      int
	uttVersion     int
	conflictPolicy int
	reportsDir     string
	workDir        string
	noCharts       bool
}

var runOpts runOptions

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Build the bot and play the benchmark",
	RunE: func(cmd *cobra.Command, _ []string) error {
		return runBenchmark(cmd.Context(), &runOpts)
	},
}

func init() {
	rootCmd.AddCommand(runCmd)

	flags := runCmd.Flags()
	flags.StringVar(&runOpts.microRTSDir, "microrts-dir", "../microrts", "path to the microrts engine checkout")
	flags.StringVar(&runOpts.botClass, "bot-class", "alliBot.alli", "fully qualified class of the candidate bot")
	flags.StringVar(&runOpts.botSource, "bot-source", "alli.java", "bot source file, relative to the work dir")
	flags.StringVar(&runOpts.botJar, "bot-jar", "alliBot.jar", "bot jar file, relative to the work dir")
	flags.BoolVar(&runOpts.noRebuildJar, "no-rebuild-bot-jar", false, "use the existing bot jar instead of rebuilding it")
	flags.BoolVar(&runOpts.skipCopyJar, "skip-copy-bot-jar", false, "do not copy the bot jar into the engine's lib/bots")
	flags.StringVar(&runOpts.project, "project", "microrts-bot-eval", "tracking project name")
	flags.StringVar(&runOpts.entity, "entity", "", "tracking entity")
	flags.StringVar(&runOpts.runName, "run-name", "", "tracking run name")
	flags.BoolVar(&runOpts.offline, "offline", false, "archive locally without a remote tracker")
	flags.StringVar(&runOpts.maps, "maps", "maps/16x16/basesWorkers16x16.xml", "comma-separated map list, relative paths join the engine dir")
	flags.StringVar(&runOpts.opponents, "opponents", "random,worker_rush,light_rush,naive_mcts,mayari,coac", "comma-separated opponent keys")
	flags.IntVar(&runOpts.rounds, "rounds", 3, "rounds per opponent and map, two matches each")
	flags.IntVar(&runOpts.maxCycles, "max-cycles", 5000, "cycle limit per match")
	flags.IntVar(&runOpts.uttVersion, "utt-version", 2, "unit type table version")
	flags.IntVar(&runOpts.conflictPolicy, "conflict-policy", 1, "move conflict resolution policy")
	flags.StringVar(&runOpts.reportsDir, "reports-dir", "reports", "directory for CSVs and charts")
	flags.StringVar(&runOpts.workDir, "work-dir", ".", "directory holding the bot source and jar")
	flags.BoolVar(&runOpts.noCharts, "no-charts", false, "skip PNG chart rendering")
}

func runBenchmark(ctx context.Context, opts *runOptions) error {
	cfg := loadConfig()
	logger, err := newLogger(cfg.Env)
	if err != nil {
		return err
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	runner := exec.NewRunner(logger)
	b := builder.New(builder.Config{
		EngineDir: opts.microRTSDir,
		WorkDir:   opts.workDir,
		Runner:    runner,
		Logger:    logger,
	})

	// Build stages. Tracking starts only after every one of these has
	// succeeded; an aborted build leaves no run behind.
	if err := b.CheckEngine(); err != nil {
		return err
	}
	if err := b.EnsureEngineCompiled(ctx); err != nil {
		return err
	}

	var jarPath string
	if opts.noRebuildJar {
		jarPath = filepath.Join(opts.workDir, opts.botJar)
		if err := b.VerifyJar(jarPath, opts.botClass); err != nil {
			return err
		}
		sugar.Infow("Using existing bot jar", "jar", jarPath)
	} else {
		jarPath, err = b.BuildBotJar(ctx, opts.botSource, opts.botJar, opts.botClass)
		if err != nil {
			return err
		}
	}

	if !opts.skipCopyJar {
		if err := b.CopyJarToBots(jarPath); err != nil {
			return err
		}
	}

	if _, err := b.EnsureHelperSource(); err != nil {
		return err
	}
	extraJars := []string{jarPath}
	runnerBin, err := b.CompileHelper(ctx, extraJars)
	if err != nil {
		return err
	}

	mapPaths, err := bench.ResolveMaps(opts.microRTSDir, opts.maps)
	if err != nil {
		return err
	}
	opponents, err := bench.ResolveOpponents(opts.opponents)
	if err != nil {
		return err
	}

	run := &models.Run{
		ID:        uuid.NewString(),
		Name:      opts.runName,
		Project:   opts.project,
		Entity:    opts.entity,
		State:     models.RunStateRunning,
		StartedAt: time.Now().UTC(),
		Config: models.RunConfig{
			BotClass:       opts.botClass,
			Maps:           mapPaths,
			Opponents:      opponents,
			Rounds:         opts.rounds,
			MaxCycles:      opts.maxCycles,
			UTTVersion:     opts.uttVersion,
			ConflictPolicy: opts.conflictPolicy,
		},
	}

	st, err := store.Open(filepath.Join(cfg.DataDir, "rtsbench.db"))
	if err != nil {
		return err
	}
	defer st.Close()

	trackers := []tracking.Tracker{tracking.NewArchive(st)}
	if !opts.offline && cfg.TrackerURL != "" {
		trackers = append(trackers, tracking.NewClient(tracking.ClientConfig{
			BaseURL: cfg.TrackerURL,
			APIKey:  cfg.TrackerAPIKey,
			Timeout: cfg.TrackerTimeout,
			Logger:  logger,
		}))
	}
	tracker := tracking.NewMulti(trackers...)

	if err := tracker.Start(ctx, run); err != nil {
		return err
	}

	sinks, histSink := openHistory(ctx, cfg, run, logger)
	invoker := match.New(match.Config{
		EngineDir:      opts.microRTSDir,
		RunnerBin:      runnerBin,
		ExtraJars:      extraJars,
		MaxCycles:      opts.maxCycles,
		UTTVersion:     opts.uttVersion,
		ConflictPolicy: opts.conflictPolicy,
		Runner:         runner,
		Logger:         logger,
	})
	sched := bench.NewScheduler(bench.SchedulerConfig{
		Matches: invoker,
		Tracker: tracker,
		Sinks:   sinks,
		Logger:  logger,
	})

	plan := bench.Plan{
		BotClass:  opts.botClass,
		Opponents: opponents,
		Maps:      mapPaths,
		Rounds:    opts.rounds,
	}
	sugar.Infow("Benchmark starting",
		"run_id", run.ID,
		"bot_class", opts.botClass,
		"matches", plan.Matches(),
		"opponents", opponents,
		"maps", mapPaths,
	)

	records, err := sched.Run(ctx, plan)
	if err != nil {
		return err
	}
	if histSink != nil {
		if err := histSink.Flush(ctx); err != nil {
			sugar.Warnw("Failed to flush match history", "error", err)
		}
	}

	summary := bench.Summarize(records)
	for _, s := range summary {
		sugar.Infow("Opponent summary",
			"opponent", s.Opponent,
			"games", s.Games,
			"wins", s.Wins,
			"losses", s.Losses,
			"ties", s.Ties,
			"win_rate", s.WinRate,
			"score", s.Score,
		)
	}

	reportsDir := opts.reportsDir
	if !filepath.IsAbs(reportsDir) {
		reportsDir = filepath.Join(opts.workDir, reportsDir)
	}
	paths := report.Paths{Dir: reportsDir}
	if err := report.WriteMatchCSV(paths.MatchCSV(), records); err != nil {
		return err
	}
	if err := report.WriteSummaryCSV(paths.SummaryCSV(), summary); err != nil {
		return err
	}

	if err := tracker.LogTable(ctx, "matches", tracking.MatchTable(records)); err != nil {
		return err
	}
	if err := tracker.LogTable(ctx, "summary", tracking.SummaryTable(summary)); err != nil {
		return err
	}
	if err := tracker.LogChart(ctx, "win_rate", tracking.BarChart{
		Table: "summary", Label: "opponent", Value: "win_rate",
		Title: "Win rate by opponent",
	}); err != nil {
		return err
	}
	if err := tracker.LogChart(ctx, "score", tracking.BarChart{
		Table: "summary", Label: "opponent", Value: "score",
		Title: "Score by opponent",
	}); err != nil {
		return err
	}

	if !opts.noCharts {
		if err := renderCharts(ctx, tracker, records, summary, paths, sugar); err != nil {
			return err
		}
	}

	if err := tracker.Finish(ctx, summary); err != nil {
		return err
	}

	if cfg.PushgatewayURL != "" {
		if err := metrics.Push(cfg.PushgatewayURL, run.ID); err != nil {
			sugar.Warnw("Failed to push metrics", "error", err)
		}
	}

	fmt.Println("Done.")
	fmt.Printf("Match CSV:   %s\n", paths.MatchCSV())
	fmt.Printf("Summary CSV: %s\n", paths.SummaryCSV())
	if !opts.noCharts {
		fmt.Printf("Plot PNG:    %s\n", paths.WinRatePNG())
		fmt.Printf("Head2Head:   %s\n", paths.HeadToHeadDir())
	}
	return nil
}

// openHistory wires the optional ClickHouse mirror. Any failure just
// disables the mirror.
func openHistory(ctx context.Context, cfg *config.Config, run *models.Run, logger *zap.Logger) ([]bench.MatchSink, *history.Sink) {
	if cfg.ClickHouseURL == "" {
		return nil, nil
	}
	sugar := logger.Sugar()

	conn, err := history.Open(ctx, cfg.ClickHouseURL)
	if err != nil {
		sugar.Warnw("Match history disabled", "error", err)
		return nil, nil
	}
	sink := history.NewSink(history.SinkConfig{
		Conn:     conn,
		RunID:    run.ID,
		BotClass: run.Config.BotClass,
		Logger:   logger,
	})
	if err := sink.EnsureSchema(ctx); err != nil {
		sugar.Warnw("Match history disabled", "error", err)
		conn.Close()
		return nil, nil
	}
	return []bench.MatchSink{sink}, sink
}

// renderCharts draws the PNG figures and uploads them. Rendering is
// best-effort; a failed upload of a rendered chart still fails the run.
func renderCharts(ctx context.Context, tracker tracking.Tracker, records []models.MatchRecord, summary []models.OpponentSummary, paths report.Paths, sugar *zap.SugaredLogger) error {
	if err := charts.WinRateBar(summary, paths.WinRatePNG()); err != nil {
		sugar.Warnw("Failed to render win rate chart", "error", err)
	} else if err := tracker.LogImage(ctx, "win_rate_png", paths.WinRatePNG()); err != nil {
		return err
	}

	for _, s := range summary {
		pngPath := paths.HeadToHeadPNG(s.Opponent)
		if err := charts.HeadToHead(s.Opponent, records, pngPath); err != nil {
			sugar.Warnw("Failed to render head-to-head chart", "opponent", s.Opponent, "error", err)
			continue
		}
		if err := tracker.LogImage(ctx, "head_to_head_"+s.Opponent, pngPath); err != nil {
			return err
		}
	}
	return nil
}
