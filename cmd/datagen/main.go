package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/vanshika/muletrace/internal/generator"
	"github.com/vanshika/muletrace/internal/ingest"
)

func main() {
	cfg := generator.DefaultConfig()
	var (
		accounts     = flag.Int("accounts", cfg.NumAccounts, "number of background accounts")
		transactions = flag.Int("transactions", cfg.NumTransactions, "number of background transactions")
		cycles       = flag.Int("cycles", cfg.Cycles, "number of planted cycles")
		fanIn        = flag.Int("fan-in", cfg.FanInRings, "number of planted fan-in bursts")
		fanOut       = flag.Int("fan-out", cfg.FanOutRings, "number of planted fan-out bursts")
		shells       = flag.Int("shells", cfg.ShellChains, "number of planted shell chains")
		days         = flag.Int("days", int(cfg.Span/(24*time.Hour)), "time span of the dataset in days")
		seed         = flag.Int64("seed", cfg.Seed, "random seed for deterministic generation")
		outputDir    = flag.String("output-dir", "data", "directory to write transactions.csv and planted_rings.json")
		writeStdout  = flag.Bool("stdout", false, "write the CSV to stdout instead of files")
	)
	flag.Parse()

	genCfg := generator.Config{
		NumAccounts:     *accounts,
		NumTransactions: *transactions,
		Cycles:          nonNegative(*cycles),
		FanInRings:      nonNegative(*fanIn),
		FanOutRings:     nonNegative(*fanOut),
		ShellChains:     nonNegative(*shells),
		Span:            time.Duration(*days) * 24 * time.Hour,
		Seed:            *seed,
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	dataset, err := generator.New(genCfg).Generate(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "generation failed: %v\n", err)
		os.Exit(1)
	}

	if *writeStdout {
		if err := ingest.WriteCSV(os.Stdout, dataset.Transactions); err != nil {
			fmt.Fprintf(os.Stderr, "failed to write dataset to stdout: %v\n", err)
			os.Exit(1)
		}
		return
	}

	if err := generator.WriteDataset(dataset, *outputDir); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write dataset: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintf(os.Stdout, "Generated %d transactions with %d planted rings into %s\n", len(dataset.Transactions), len(dataset.Planted), *outputDir)
}

func nonNegative(v int) int {
	if v < 0 {
		return 0
	}
	return v
}
