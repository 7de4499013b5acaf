package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"compwatch/monitor/internal/collect"
	"compwatch/monitor/internal/config"
	"compwatch/monitor/internal/database"
	"compwatch/monitor/internal/detect"
	"compwatch/monitor/internal/fetch"
	"compwatch/monitor/internal/ingest"
	"compwatch/monitor/internal/models"
	"compwatch/monitor/internal/report"
	"compwatch/monitor/internal/sentiment"
	"compwatch/monitor/internal/server"
	"compwatch/monitor/internal/sources"
	"compwatch/monitor/internal/storage"
)

func init() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "2006-01-02 15:04:05"})
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
}

const usage = `Usage: monitor [command] [options]
Commands: init, collect, report, add-event, sources, watch, server

For command-specific options, use: monitor [command] -h`

func main() {
	// Optional .env file for local development; env vars win over defaults.
	_ = godotenv.Load()

	cfg := config.DefaultConfig()

	var logLevelStr string
	addCommonFlags := func(fs *flag.FlagSet) {
		fs.StringVar(&cfg.DBPath, "db", config.GetEnvString("MONITOR_DB_PATH", config.DefaultDBPath),
			"Path to the SQLite database file (env: MONITOR_DB_PATH)")
		fs.StringVar(&logLevelStr, "log-level", config.GetEnvString("MONITOR_LOG_LEVEL", config.DefaultLogLevel),
			"Log level: debug, info, warn, error (env: MONITOR_LOG_LEVEL)")
	}
	addConfigFlags := func(fs *flag.FlagSet) {
		fs.StringVar(&cfg.SourcesPath, "sources", config.GetEnvString("MONITOR_SOURCES_PATH", config.DefaultSourcesPath),
			"Path to the sources YAML config (env: MONITOR_SOURCES_PATH)")
		fs.StringVar(&cfg.KeywordsPath, "keywords", config.GetEnvString("MONITOR_KEYWORDS_PATH", config.DefaultKeywordsPath),
			"Path to the keywords YAML config (env: MONITOR_KEYWORDS_PATH)")
		fs.StringVar(&cfg.DataDir, "data", config.GetEnvString("MONITOR_DATA_DIR", config.DefaultDataDir),
			"Directory for snapshot, diff, and report files (env: MONITOR_DATA_DIR)")
	}

	initCmd := flag.NewFlagSet("init", flag.ExitOnError)
	addCommonFlags(initCmd)
	addConfigFlags(initCmd)

	collectCmd := flag.NewFlagSet("collect", flag.ExitOnError)
	addCommonFlags(collectCmd)
	addConfigFlags(collectCmd)

	var collectSource string
	collectCmd.StringVar(&collectSource, "source", "all",
		"Restrict collection: all, pricing, docs, forum, or tracker")
	collectCmd.IntVar(&cfg.WorkerCount, "workers", config.GetEnvInt("MONITOR_WORKER_COUNT", config.DefaultWorkerCount),
		"Number of worker goroutines for snapshot collection (env: MONITOR_WORKER_COUNT)")

	// Commands without these flags still honor the env values.
	fetchTimeoutSec := config.GetEnvInt("MONITOR_FETCH_TIMEOUT", config.DefaultFetchTimeoutSec)
	lookbackHours := config.GetEnvInt("MONITOR_LOOKBACK_HOURS", config.DefaultLookbackHours)
	collectCmd.IntVar(&fetchTimeoutSec, "timeout", fetchTimeoutSec,
		"Per-request fetch timeout in seconds (env: MONITOR_FETCH_TIMEOUT)")
	collectCmd.IntVar(&cfg.FetchAttempts, "attempts", config.GetEnvInt("MONITOR_FETCH_ATTEMPTS", config.DefaultFetchAttempts),
		"Fetch attempts per URL including retries (env: MONITOR_FETCH_ATTEMPTS)")
	collectCmd.IntVar(&lookbackHours, "lookback", lookbackHours,
		"Signal collection lookback window in hours (env: MONITOR_LOOKBACK_HOURS)")

	reportCmd := flag.NewFlagSet("report", flag.ExitOnError)
	addCommonFlags(reportCmd)
	addConfigFlags(reportCmd)

	var reportWeek string
	reportCmd.StringVar(&reportWeek, "week", "",
		"Any date inside the target week, YYYY-MM-DD (default: current week)")

	addEventCmd := flag.NewFlagSet("add-event", flag.ExitOnError)
	addCommonFlags(addEventCmd)

	var evCompany, evType, evDate, evSourceURL, evNotes string
	var evAmount, evValuation float64
	addEventCmd.StringVar(&evCompany, "company", "", "Company id the event belongs to (required)")
	addEventCmd.StringVar(&evType, "type", "", "Event type, e.g. funding_round, acquisition (required)")
	addEventCmd.StringVar(&evDate, "date", "", "Event date, YYYY-MM-DD (required)")
	addEventCmd.Float64Var(&evAmount, "amount", 0, "Amount in USD, 0 to omit")
	addEventCmd.Float64Var(&evValuation, "valuation", 0, "Valuation in USD, 0 to omit")
	addEventCmd.StringVar(&evSourceURL, "url", "", "Source URL for the event")
	addEventCmd.StringVar(&evNotes, "notes", "", "Free-form notes")

	sourcesCmd := flag.NewFlagSet("sources", flag.ExitOnError)
	addCommonFlags(sourcesCmd)
	addConfigFlags(sourcesCmd)

	watchCmd := flag.NewFlagSet("watch", flag.ExitOnError)
	addCommonFlags(watchCmd)
	addConfigFlags(watchCmd)
	watchCmd.StringVar(&cfg.Schedule, "schedule", config.GetEnvString("MONITOR_SCHEDULE", config.DefaultSchedule),
		"Cron schedule for collection runs (env: MONITOR_SCHEDULE)")
	watchCmd.IntVar(&cfg.WorkerCount, "workers", config.GetEnvInt("MONITOR_WORKER_COUNT", config.DefaultWorkerCount),
		"Number of worker goroutines for snapshot collection (env: MONITOR_WORKER_COUNT)")

	serverCmd := flag.NewFlagSet("server", flag.ExitOnError)
	addCommonFlags(serverCmd)
	serverCmd.StringVar(&cfg.ServerHost, "host", config.GetEnvString("MONITOR_HOST", config.DefaultServerHost),
		"Host to bind the server to (env: MONITOR_HOST)")
	serverCmd.IntVar(&cfg.ServerPort, "port", config.GetEnvInt("MONITOR_PORT", config.DefaultServerPort),
		"Port to listen on (env: MONITOR_PORT)")

	if len(os.Args) < 2 {
		fmt.Println(usage)
		os.Exit(1)
	}

	run := func(fs *flag.FlagSet, fn func() error) {
		fs.Parse(os.Args[2:])

		if level, err := zerolog.ParseLevel(logLevelStr); err == nil {
			cfg.LogLevel = level
		}
		zerolog.SetGlobalLevel(cfg.LogLevel)

		cfg.FetchTimeout = time.Duration(fetchTimeoutSec) * time.Second
		cfg.Lookback = time.Duration(lookbackHours) * time.Hour

		if err := fn(); err != nil {
			log.Error().Err(err).Str("command", os.Args[1]).Msg("Command failed")
			os.Exit(1)
		}
	}

	switch os.Args[1] {
	case "init":
		run(initCmd, func() error { return runInit(cfg) })

	case "collect":
		run(collectCmd, func() error { return runCollect(cfg, collectSource) })

	case "report":
		run(reportCmd, func() error { return runReport(cfg, reportWeek) })

	case "add-event":
		run(addEventCmd, func() error {
			return runAddEvent(cfg, evCompany, evType, evDate, evAmount, evValuation, evSourceURL, evNotes)
		})

	case "sources":
		run(sourcesCmd, func() error { return runSources(cfg) })

	case "watch":
		run(watchCmd, func() error { return runWatch(cfg) })

	case "server":
		run(serverCmd, func() error { return runServer(cfg) })

	case "-h", "--help", "help":
		fmt.Println(usage)
		os.Exit(0)

	default:
		log.Error().Str("command", os.Args[1]).Msg("Unknown command")
		fmt.Println(usage)
		os.Exit(1)
	}
}

func openDB(cfg *config.Config) (*database.DB, error) {
	db, err := database.NewDB(database.NewConfig(cfg.DBPath))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	return db, nil
}

// runInit creates the database schema, the data directory tree, and seeds the
// companies table from the sources config. Safe to run repeatedly.
func runInit(cfg *config.Config) error {
	if err := cfg.EnsureDataDirs(); err != nil {
		return err
	}

	src, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	companies := make([]models.Company, 0, len(src.Companies))
	for id, info := range src.Companies {
		companies = append(companies, *models.NewCompany(id, info.Name))
	}

	inserted, err := storage.NewCompanyRepository(db).Seed(context.Background(), companies)
	if err != nil {
		return err
	}

	log.Info().
		Str("db", cfg.DBPath).
		Int("companies_added", inserted).
		Int("companies_total", len(companies)).
		Msg("Initialization complete")
	return nil
}

// runCollect executes one collection pass, optionally restricted to a single
// snapshot kind or signal source.
func runCollect(cfg *config.Config, source string) error {
	switch source {
	case "", "all", models.KindPricing, models.KindDocs, models.SourceForum, models.SourceTracker:
	default:
		return fmt.Errorf("invalid -source value %q: use all, pricing, docs, forum, or tracker", source)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-shutdown
		log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")
		cancel()
	}()

	collector, err := buildCollector(cfg, db)
	if err != nil {
		return err
	}

	return runCollectionCycle(ctx, cfg, collector, source)
}

// buildCollector wires the full fetch -> detect -> store pipeline.
func buildCollector(cfg *config.Config, db *database.DB) (*collect.Collector, error) {
	if err := cfg.EnsureDataDirs(); err != nil {
		return nil, err
	}

	src, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return nil, err
	}
	keywords, err := config.LoadKeywords(cfg.KeywordsPath)
	if err != nil {
		return nil, err
	}

	// Companies present in config but not yet in the database get seeded so
	// snapshot and signal rows always reference a known company.
	companies := make([]models.Company, 0, len(src.Companies))
	for id, info := range src.Companies {
		companies = append(companies, *models.NewCompany(id, info.Name))
	}
	if _, err := storage.NewCompanyRepository(db).Seed(context.Background(), companies); err != nil {
		return nil, err
	}

	snapshotRepo := storage.NewSnapshotRepository(db)
	signalRepo := storage.NewSignalRepository(db)

	fetcher := fetch.New(cfg.FetchTimeout, cfg.FetchAttempts)
	detector := detect.NewDetector(snapshotRepo, cfg.DiffsDir())
	ingestor := ingest.New(signalRepo, sentiment.NewScorer(), keywords, config.MaxSignalContentLen)

	trackerToken := config.GetEnvString("MONITOR_GITHUB_TOKEN", "")
	signalSrcs := []sources.Source{
		sources.NewForumSource(cfg.FetchTimeout),
		sources.NewTrackerSource(trackerToken, cfg.FetchTimeout),
	}

	return collect.New(fetcher, detector, ingestor, signalSrcs, src.Companies,
		cfg.SnapshotsDir(), cfg.WorkerCount), nil
}

func runCollectionCycle(ctx context.Context, cfg *config.Config, collector *collect.Collector, source string) error {
	startTime := time.Now()

	var snapshotKinds []string
	var signalSources []string
	switch source {
	case "", "all":
	case models.KindPricing, models.KindDocs:
		snapshotKinds = []string{source}
		signalSources = nil
	case models.SourceForum, models.SourceTracker:
		signalSources = []string{source}
	}

	runSnapshots := source == "" || source == "all" || len(snapshotKinds) > 0
	runSignals := source == "" || source == "all" || len(signalSources) > 0

	if runSnapshots {
		pairs := collector.Pairs(snapshotKinds...)
		log.Info().Int("pairs", len(pairs)).Msg("Starting snapshot collection")
		if _, err := collector.CollectSnapshots(ctx, pairs); err != nil {
			return err
		}
	}

	if runSignals {
		since := time.Now().UTC().Add(-cfg.Lookback)
		log.Info().Time("since", since).Msg("Starting signal collection")
		if err := collector.CollectSignals(ctx, since, signalSources...); err != nil {
			return err
		}
	}

	log.Info().Dur("duration", time.Since(startTime)).Msg("Collection cycle finished")
	return nil
}

// runReport generates the weekly report for the week containing the given
// date, or the current week when no date is provided.
func runReport(cfg *config.Config, weekStr string) error {
	anchor := time.Now().UTC()
	if weekStr != "" {
		parsed, err := time.Parse("2006-01-02", weekStr)
		if err != nil {
			return fmt.Errorf("invalid -week value %q: use YYYY-MM-DD", weekStr)
		}
		anchor = parsed
	}

	if err := cfg.EnsureDataDirs(); err != nil {
		return err
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	gen := report.NewGenerator(
		storage.NewSnapshotRepository(db),
		storage.NewSignalRepository(db),
		storage.NewEventRepository(db),
		storage.NewReportRepository(db),
		cfg.ReportsDir(),
	)

	rpt, path, err := gen.Generate(context.Background(), anchor)
	if err != nil {
		return err
	}

	log.Info().
		Time("week_start", rpt.WeekStart).
		Int("pricing_changes", rpt.PricingChanges).
		Int("docs_changes", rpt.DocsChanges).
		Str("avg_sentiment", rpt.SentimentLabel()).
		Str("path", path).
		Msg("Weekly report generated")
	return nil
}

// runAddEvent records a manually curated financial event.
func runAddEvent(cfg *config.Config, company, eventType, dateStr string,
	amount, valuation float64, sourceURL, notes string) error {
	if company == "" || eventType == "" || dateStr == "" {
		return errors.New("-company, -type, and -date are required")
	}
	eventDate, err := time.Parse("2006-01-02", dateStr)
	if err != nil {
		return fmt.Errorf("invalid -date value %q: use YYYY-MM-DD", dateStr)
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	event := models.NewFinancialEvent(company, eventType, eventDate)
	if amount > 0 {
		event.Amount = sql.NullFloat64{Float64: amount, Valid: true}
	}
	if valuation > 0 {
		event.Valuation = sql.NullFloat64{Float64: valuation, Valid: true}
	}
	if sourceURL != "" {
		event.SourceURL = sql.NullString{String: sourceURL, Valid: true}
	}
	if notes != "" {
		event.Notes = sql.NullString{String: notes, Valid: true}
	}

	if err := storage.NewEventRepository(db).Insert(context.Background(), event); err != nil {
		return err
	}

	log.Info().
		Str("company_id", company).
		Str("event_type", eventType).
		Time("event_date", eventDate).
		Msg("Event recorded")
	return nil
}

// runSources prints the configured companies and their monitored resources.
func runSources(cfg *config.Config) error {
	src, err := config.LoadSources(cfg.SourcesPath)
	if err != nil {
		return err
	}

	for id, info := range src.Companies {
		fmt.Printf("%s (%s)\n", id, info.Name)
		for _, url := range info.PricingURLs {
			fmt.Printf("  pricing: %s\n", url)
		}
		for _, url := range info.DocsURLs {
			fmt.Printf("  docs:    %s\n", url)
		}
		for _, forum := range info.Forums {
			fmt.Printf("  forum:   %s\n", forum)
		}
		for _, repo := range info.Repos {
			fmt.Printf("  repo:    %s\n", repo)
		}
	}
	return nil
}

// runWatch runs collection cycles on a cron schedule until interrupted.
func runWatch(cfg *config.Config) error {
	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	collector, err := buildCollector(cfg, db)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	_, err = scheduler.AddFunc(cfg.Schedule, func() {
		log.Info().Msg("Starting scheduled collection cycle")

		cycleCtx, cycleCancel := context.WithTimeout(ctx, 30*time.Minute)
		defer cycleCancel()

		if err := runCollectionCycle(cycleCtx, cfg, collector, ""); err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			// Keep the scheduler alive, the next cycle may succeed.
			log.Error().Err(err).Msg("Collection cycle failed")
		}
	})
	if err != nil {
		return fmt.Errorf("invalid cron schedule %q: %w", cfg.Schedule, err)
	}

	scheduler.Start()
	log.Info().Str("schedule", cfg.Schedule).Msg("Watch mode started")

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	sig := <-shutdown
	log.Info().Str("signal", sig.String()).Msg("Shutdown signal received")

	cancel()
	stopCtx := scheduler.Stop()
	<-stopCtx.Done()
	log.Info().Msg("Watch mode stopped")
	return nil
}

// runServer starts the read-only HTTP API server.
func runServer(cfg *config.Config) error {
	dbCfg := database.NewConfig(cfg.DBPath)
	dbCfg.ReadOnly = true

	db, err := database.NewDB(dbCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer db.Close()

	return server.RunServer(db, cfg.ListenAddr(), log.Logger, cfg.APIKey)
}
