package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"strategy-lab/internal/domain"
	"strategy-lab/internal/lifecycle"
	"strategy-lab/internal/storage/migrations"
	pgstore "strategy-lab/internal/storage/postgres"
)

func main() {
	action := flag.String("action", "list", "Action: list, submit, start-testing, record-signals, check-ready, promote, retire")
	name := flag.String("name", "", "Strategy name (required for transitions)")
	specPath := flag.String("spec", "", "Specification JSON file (submit only)")
	score := flag.Float64("score", 0, "Composite score (submit only)")
	signals := flag.Int("signals", 0, "Signal count to add (record-signals only)")
	reason := flag.String("reason", "", "Retirement reason (retire only)")
	testingDays := flag.Int("testing-days", 5, "Minimum paper-testing days (check-ready only)")
	minSignals := flag.Int("min-signals", 10, "Minimum signals generated (check-ready only)")
	postgresDSN := flag.String("postgres-dsn", "", "PostgreSQL connection string (required)")

	flag.Parse()

	logger := log.New(os.Stderr, "[lifecycle] ", log.LstdFlags)

	if *postgresDSN == "" {
		logger.Fatal("--postgres-dsn is required")
	}

	ctx := context.Background()

	pool, err := pgstore.NewPool(ctx, *postgresDSN)
	if err != nil {
		logger.Fatalf("connect to postgres: %v", err)
	}
	defer pool.Close()
	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		logger.Fatalf("postgres migrations: %v", err)
	}

	manager := lifecycle.NewManager(pgstore.NewPromotionStore(pool), nil)

	switch *action {
	case "list":
		listAll(ctx, logger, manager)
	case "submit":
		if *specPath == "" {
			logger.Fatal("--spec is required for submit")
		}
		data, err := os.ReadFile(*specPath)
		if err != nil {
			logger.Fatalf("read spec: %v", err)
		}
		spec, err := domain.ParseSpecification(data)
		if err != nil {
			logger.Fatalf("parse spec: %v", err)
		}
		if err := manager.SubmitCandidate(ctx, spec, *score); err != nil {
			logger.Fatalf("submit candidate: %v", err)
		}
		fmt.Printf("submitted %s\n", spec.Name)
	case "start-testing":
		runTransition(ctx, logger, *name, "start-testing", func() (bool, error) {
			return manager.StartTesting(ctx, *name)
		})
	case "record-signals":
		requireName(logger, *name)
		if err := manager.RecordSignals(ctx, *name, *signals); err != nil {
			logger.Fatalf("record signals: %v", err)
		}
		fmt.Printf("recorded %d signals for %s\n", *signals, *name)
	case "check-ready":
		ready, err := manager.CheckReadyForPromotion(ctx, *testingDays, *minSignals)
		if err != nil {
			logger.Fatalf("check ready: %v", err)
		}
		if len(ready) == 0 {
			fmt.Println("no strategies ready for promotion")
			return
		}
		for _, n := range ready {
			fmt.Println(n)
		}
	case "promote":
		runTransition(ctx, logger, *name, "promote", func() (bool, error) {
			return manager.Promote(ctx, *name)
		})
	case "retire":
		runTransition(ctx, logger, *name, "retire", func() (bool, error) {
			return manager.Retire(ctx, *name, *reason)
		})
	default:
		logger.Fatalf("unknown action: %s", *action)
	}
}

func requireName(logger *log.Logger, name string) {
	if name == "" {
		logger.Fatal("--name is required")
	}
}

func runTransition(ctx context.Context, logger *log.Logger, name, verb string, fn func() (bool, error)) {
	requireName(logger, name)
	ok, err := fn()
	if err != nil {
		logger.Fatalf("%s %s: %v", verb, name, err)
	}
	if !ok {
		fmt.Printf("%s: %s not applied (wrong state or unknown name)\n", name, verb)
		os.Exit(1)
	}
	fmt.Printf("%s: %s applied\n", name, verb)
}

func listAll(ctx context.Context, logger *log.Logger, manager *lifecycle.Manager) {
	sections := []struct {
		title string
		query func(context.Context) ([]*domain.PromotionRecord, error)
	}{
		{"CANDIDATES", manager.GetCandidates},
		{"PAPER TESTING", manager.GetPaperTesting},
		{"PROMOTED", manager.GetPromoted},
	}

	for _, s := range sections {
		records, err := s.query(ctx)
		if err != nil {
			logger.Fatalf("list %s: %v", s.title, err)
		}
		fmt.Printf("%s (%d)\n", s.title, len(records))
		for _, r := range records {
			line := fmt.Sprintf("  %-30s score=%.4f created=%s",
				r.Name, r.CompositeScore, r.CreatedAt.Format("2006-01-02"))
			if r.Status == domain.StatusPaperTesting && r.TestingStartedAt != nil {
				line += fmt.Sprintf(" testing_since=%s signals=%d",
					r.TestingStartedAt.Format("2006-01-02"), r.SignalsGenerated)
			}
			if r.Status == domain.StatusPromoted && r.PromotedAt != nil {
				line += fmt.Sprintf(" promoted=%s", r.PromotedAt.Format("2006-01-02"))
			}
			fmt.Println(line)
		}
	}
}
