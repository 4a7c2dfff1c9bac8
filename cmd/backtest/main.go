package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"strategy-lab/internal/backtest"
	"strategy-lab/internal/compiler"
	"strategy-lab/internal/domain"
	"strategy-lab/internal/marketdata"
	"strategy-lab/internal/reporting"
	chstore "strategy-lab/internal/storage/clickhouse"
)

func main() {
	// Parse flags
	specPath := flag.String("spec", "", "Path to strategy specification JSON (required)")
	csvPath := flag.String("csv", "", "Path to OHLCV CSV fixture")
	clickhouseDSN := flag.String("clickhouse-dsn", "", "ClickHouse connection string")
	ticker := flag.String("ticker", "", "Ticker to backtest (required)")
	startStr := flag.String("start", "", "Range start, YYYY-MM-DD (required)")
	endStr := flag.String("end", "", "Range end, YYYY-MM-DD (required)")

	// Walk-forward parameters
	trainDays := flag.Int("train-days", 180, "Training window length in daily bars")
	testDays := flag.Int("test-days", 60, "Test window length in daily bars")
	stepDays := flag.Int("step-days", 60, "Step between windows in daily bars")
	slippagePct := flag.Float64("slippage-pct", 0.001, "Slippage per fill as a fraction of price")
	commission := flag.Float64("commission", 1.0, "Commission per trade side")
	capital := flag.Float64("capital", 100_000, "Initial capital per window")
	riskFree := flag.Float64("risk-free-rate", 0.02, "Annual risk-free rate for Sharpe")

	// Output
	outputJSON := flag.Bool("json", false, "Output as JSON")
	tradesCSV := flag.String("trades-csv", "", "Write trade ledger CSV to this path")

	flag.Parse()

	logger := log.New(os.Stderr, "[backtest] ", log.LstdFlags)

	if *specPath == "" {
		logger.Fatal("--spec is required")
	}
	if *ticker == "" {
		logger.Fatal("--ticker is required")
	}
	if *csvPath == "" && *clickhouseDSN == "" {
		logger.Fatal("one of --csv or --clickhouse-dsn is required")
	}

	start, err := time.Parse("2006-01-02", *startStr)
	if err != nil {
		logger.Fatalf("invalid --start: %v", err)
	}
	end, err := time.Parse("2006-01-02", *endStr)
	if err != nil {
		logger.Fatalf("invalid --end: %v", err)
	}

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Printf("Received signal %v, shutting down...", sig)
		cancel()
	}()

	// Load and compile the specification
	specData, err := os.ReadFile(*specPath)
	if err != nil {
		logger.Fatalf("read spec: %v", err)
	}
	spec, err := domain.ParseSpecification(specData)
	if err != nil {
		logger.Fatalf("parse spec: %v", err)
	}
	strategy, err := compiler.Compile(spec)
	if err != nil {
		logger.Fatalf("compile spec: %v", err)
	}

	// Pick the data provider
	var provider marketdata.Provider
	if *csvPath != "" {
		provider, err = marketdata.LoadCSV(*csvPath)
		if err != nil {
			logger.Fatalf("load csv: %v", err)
		}
	} else {
		conn, err := chstore.NewConn(ctx, *clickhouseDSN)
		if err != nil {
			logger.Fatalf("connect to clickhouse: %v", err)
		}
		defer conn.Close()
		provider = marketdata.NewStoreProvider(chstore.NewBarStore(conn))
	}

	series, err := provider.GetBars(ctx, *ticker, start, end)
	if err != nil {
		logger.Fatalf("get bars: %v", err)
	}

	cfg := backtest.Config{
		TrainWindowDays:    *trainDays,
		TestWindowDays:     *testDays,
		StepDays:           *stepDays,
		SlippagePct:        *slippagePct,
		CommissionPerTrade: *commission,
		InitialCapital:     *capital,
		RiskFreeRate:       *riskFree,
	}

	logger.Printf("Running backtest: strategy=%s ticker=%s bars=%d", strategy.Name(), *ticker, len(series))

	result := backtest.NewEngine(cfg).Run(strategy, series)

	if *tradesCSV != "" {
		if err := os.WriteFile(*tradesCSV, []byte(reporting.RenderTradeCSV(result.Trades)), 0o644); err != nil {
			logger.Fatalf("write trades csv: %v", err)
		}
		logger.Printf("Wrote %d trades to %s", len(result.Trades), *tradesCSV)
	}

	if *outputJSON {
		output, _ := json.MarshalIndent(result, "", "  ")
		fmt.Println(string(output))
	} else {
		fmt.Print(reporting.RenderBacktestMarkdown(strategy.Name(), result, time.Now()))
	}
}
