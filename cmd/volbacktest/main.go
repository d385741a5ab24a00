package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"

	"github.com/quantdesk/volcarry/backtest"
	"github.com/quantdesk/volcarry/pricing"
	"github.com/quantdesk/volcarry/store"
)

func main() {
	configPath := flag.String("config", "backtest.yaml", "path to the run configuration")
	envPath := flag.String("env", "", "optional .env file with vendor credentials")
	flag.Parse()

	if *envPath != "" {
		if err := godotenv.Load(*envPath); err != nil {
			log.Fatalf("loading %s: %v", *envPath, err)
		}
	}

	cfg, err := backtest.LoadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	vendorURL := mustEnv("VENDOR_URL")
	vendorToken := mustEnv("VENDOR_TOKEN")
	transport := pricing.NewHTTPTransport(vendorURL, vendorToken)

	opts := []pricing.Option{pricing.WithParallelism(cfg.MaxParallel)}
	if cachePath := os.Getenv("CACHE_PATH"); cachePath != "" {
		cache, err := pricing.OpenSQLiteCache(cachePath)
		if err != nil {
			log.Fatal(err)
		}
		defer cache.Close()
		opts = append(opts, pricing.WithCache(cache))
	}
	client := pricing.NewClient(transport, opts...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	started := time.Now()
	res, err := backtest.NewRunner(cfg, transport, client).Run(ctx)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("backtest done: %d instruments, %d failed, %s elapsed",
		len(res.Keys), len(res.Failed), time.Since(started).Round(time.Millisecond))

	for key, ferr := range res.Failed {
		log.Printf("instrument %s failed: %v", key, ferr)
	}

	printPerformance("hedged", res.Hedged)
	printPerformance("unhedged", res.Unhedged)

	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		db, err := store.Open(dsn)
		if err != nil {
			log.Fatal(err)
		}
		defer db.Close()
		if err := db.InitSchema(); err != nil {
			log.Fatal(err)
		}
		runID := uuid.NewString()
		if err := db.SaveResult(runID, res); err != nil {
			log.Fatal(err)
		}
		log.Printf("results saved as run %s", runID)
	}
}

func printPerformance(variant string, perf backtest.Performance) {
	fmt.Printf("\n%s strategy\n", variant)
	fmt.Printf("%-12s %16s %16s %16s\n", "date", "premium", "payoff", "mtm")
	payoff := perf.Payoff
	mtm := perf.MTM
	for _, p := range perf.Premium.Points() {
		po, _ := payoff.At(p.Date)
		mk, _ := mtm.At(p.Date)
		fmt.Printf("%-12s %16.2f %16.2f %16.2f\n", p.Date.Format("2006-01-02"), p.Value, po, mk)
	}
}

func mustEnv(k string) string {
	v := os.Getenv(k)
	if v == "" {
		log.Fatalf("missing env %s", k)
	}
	return v
}
