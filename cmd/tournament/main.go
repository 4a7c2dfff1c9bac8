package main

import (
	"context"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sort"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"strategy-lab/internal/config"
	"strategy-lab/internal/domain"
	"strategy-lab/internal/evaluation"
	"strategy-lab/internal/idhash"
	"strategy-lab/internal/lifecycle"
	"strategy-lab/internal/marketdata"
	"strategy-lab/internal/observability"
	"strategy-lab/internal/reporting"
	"strategy-lab/internal/storage"
	chstore "strategy-lab/internal/storage/clickhouse"
	"strategy-lab/internal/storage/memory"
	"strategy-lab/internal/storage/migrations"
	pgstore "strategy-lab/internal/storage/postgres"
)

func main() {
	configPath := flag.String("config", "", "Path to cycle YAML config (required)")
	specsDir := flag.String("specs", "", "Directory of strategy specification JSON files (required)")
	cycle := flag.Int("cycle", 1, "Cycle number for persisted scores")
	reportPath := flag.String("report", "", "Write markdown report to this path")

	csvPath := flag.String("csv", "", "Path to OHLCV CSV fixture")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string")
	useMemory := flag.Bool("use-memory", false, "Use in-memory storage for scores and promotions")
	metricsAddr := flag.String("metrics-addr", "", "Serve Prometheus metrics on this address during the run")

	flag.Parse()

	zerolog.TimeFieldFormat = time.RFC3339
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen})

	if *configPath == "" {
		stdlog.Fatal("--config is required")
	}
	if *specsDir == "" {
		stdlog.Fatal("--specs is required")
	}
	if *csvPath == "" && *clickhouseDSN == "" {
		stdlog.Fatal("one of --csv or --clickhouse-dsn is required")
	}
	if !*useMemory && *postgresDSN == "" {
		stdlog.Fatal("--postgres-dsn is required when not using --use-memory")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	metrics := observability.NewMetrics("")
	if *metricsAddr != "" {
		go func() {
			if err := http.ListenAndServe(*metricsAddr, observability.Handler()); err != nil {
				log.Error().Err(err).Msg("metrics server stopped")
			}
		}()
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		stdlog.Fatalf("load config: %v", err)
	}

	specs, err := loadSpecs(*specsDir)
	if err != nil {
		stdlog.Fatalf("load specs: %v", err)
	}
	if cfg.BatchSize > 0 && len(specs) > cfg.BatchSize {
		log.Warn().Int("loaded", len(specs)).Int("batch_size", cfg.BatchSize).
			Msg("truncating spec batch")
		specs = specs[:cfg.BatchSize]
	}
	if len(specs) == 0 {
		stdlog.Fatalf("no specification files in %s", *specsDir)
	}

	// Market data
	var provider marketdata.Provider
	if *csvPath != "" {
		provider, err = marketdata.LoadCSV(*csvPath)
		if err != nil {
			stdlog.Fatalf("load csv: %v", err)
		}
	} else {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			stdlog.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		if err := migrations.RunClickhouseMigrations(ctx, conn); err != nil {
			stdlog.Fatalf("clickhouse migrations: %v", err)
		}
		provider = marketdata.NewStoreProvider(chstore.NewBarStore(conn))
	}

	// Score and promotion stores
	var scoreStore storage.StrategyScoreStore = memory.NewScoreStore()
	var promotionStore storage.PromotionStore = memory.NewPromotionStore()
	if !*useMemory {
		pool, err := pgstore.NewPool(ctx, *postgresDSN)
		if err != nil {
			stdlog.Fatalf("connect to postgres: %v", err)
		}
		defer pool.Close()
		if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
			stdlog.Fatalf("postgres migrations: %v", err)
		}
		scoreStore = pgstore.NewScoreStore(pool)
		promotionStore = pgstore.NewPromotionStore(pool)
	}

	evaluator := evaluation.NewEvaluator(evaluation.EvaluatorOptions{
		Provider:       provider,
		BacktestConfig: cfg.Backtest,
		MinSharpeFloor: cfg.MinSharpeFloor,
	})
	tournament := evaluation.NewTournament(evaluator, cfg.SurvivorCount)

	log.Info().Int("cycle", *cycle).Int("strategies", len(specs)).
		Str("ticker", cfg.Ticker).Int("periods", len(cfg.Periods)).
		Msg("starting tournament")

	started := time.Now()
	result := tournament.Run(ctx, specs, cfg.Ticker, cfg.Periods, *cycle)
	metrics.CycleDuration.Observe(time.Since(started).Seconds())
	recordOutcomes(metrics, result)

	// Persist one score row per evaluated strategy.
	specsByName := make(map[string]*domain.StrategySpecification, len(specs))
	for _, s := range specs {
		specsByName[s.Name] = s
	}
	for _, r := range result.AllResults {
		spec := specsByName[r.StrategyName]
		if spec == nil {
			continue
		}
		score := &domain.StrategyScore{
			Fingerprint:    idhash.SpecFingerprint(spec),
			StrategyName:   r.StrategyName,
			CycleNumber:    *cycle,
			Spec:           spec,
			CompositeScore: r.CompositeScore,
			Disqualified:   r.Disqualified,
			Reason:         r.DisqualificationReason,
			CreatedAt:      time.Now().UnixMilli(),
		}
		if err := scoreStore.Insert(ctx, score); err != nil {
			log.Error().Err(err).Str("strategy", r.StrategyName).Msg("persist score")
			metrics.DBQueryErrors.WithLabelValues("strategy_scores").Inc()
		}
	}

	// Feed survivors into the promotion pipeline.
	manager := lifecycle.NewManager(promotionStore, nil)
	for _, r := range result.Survivors {
		spec := specsByName[r.StrategyName]
		if spec == nil {
			continue
		}
		if err := manager.SubmitCandidate(ctx, spec, r.CompositeScore); err != nil {
			log.Error().Err(err).Str("strategy", r.StrategyName).Msg("submit candidate")
			metrics.DBQueryErrors.WithLabelValues("promotion_records").Inc()
			continue
		}
		metrics.LifecycleTransitions.WithLabelValues(string(domain.StatusCandidate)).Inc()
		log.Info().Str("strategy", r.StrategyName).Float64("composite", r.CompositeScore).
			Msg("submitted candidate")
	}

	if testing, err := manager.GetPaperTesting(ctx); err == nil {
		metrics.PaperTestingActive.Set(float64(len(testing)))
	}
	if promoted, err := manager.GetPromoted(ctx); err == nil {
		metrics.PromotedActive.Set(float64(len(promoted)))
	}

	md := reporting.RenderMarkdown(result, time.Now())
	if *reportPath != "" {
		if err := os.WriteFile(*reportPath, []byte(md), 0o644); err != nil {
			stdlog.Fatalf("write report: %v", err)
		}
		log.Info().Str("path", *reportPath).Msg("wrote report")
	} else {
		fmt.Print(md)
	}
}

// loadSpecs parses every .json file in dir, sorted by filename.
func loadSpecs(dir string) ([]*domain.StrategySpecification, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read specs dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if !e.IsDir() && filepath.Ext(e.Name()) == ".json" {
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	specs := make([]*domain.StrategySpecification, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", name, err)
		}
		spec, err := domain.ParseSpecification(data)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// recordOutcomes updates tournament counters from one cycle result.
func recordOutcomes(metrics *observability.Metrics, result *domain.TournamentResult) {
	metrics.StrategiesEvaluated.Add(float64(len(result.AllResults)))
	metrics.SurvivorsSelected.Add(float64(len(result.Survivors)))
	for _, r := range result.AllResults {
		if !r.Disqualified {
			continue
		}
		metrics.StrategiesDisqualified.WithLabelValues(disqualificationCause(r.DisqualificationReason)).Inc()
	}
}

func disqualificationCause(reason string) string {
	switch {
	case strings.Contains(reason, "failed to compile"):
		return "compile"
	case strings.Contains(reason, "data unavailable"):
		return "data"
	case strings.Contains(reason, "exception"):
		return "panic"
	default:
		return "floor"
	}
}
