package main

import (
	"context"
	"flag"
	"log"
	"os"
	"sort"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/joho/godotenv"

	"github.com/oppradar/opportunity-radar/internal/db"
	"github.com/oppradar/opportunity-radar/internal/scan"
)

func main() {
	_ = godotenv.Load()

	quick := flag.Bool("quick", false, "run only the first two scanners")
	timeout := flag.Duration("timeout", 10*time.Minute, "overall run timeout")
	flag.Parse()

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	pool, err := db.Connect(ctx)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	if err := db.ApplyMigrations(ctx, pool); err != nil {
		log.Fatalf("Migration failed: %v", err)
	}

	reg, err := scan.LoadRegistry("internal/scan/config/sources.yaml")
	if err != nil {
		log.Fatalf("Failed to load scanner registry: %v", err)
	}

	orch := scan.NewOrchestrator(db.NewStore(pool), reg)

	var result *scan.ScanBatchResult
	if *quick {
		result, err = orch.QuickScan(ctx)
	} else {
		result, err = orch.ScanAll(ctx)
	}
	if err != nil {
		log.Fatalf("Scan failed: %v", err)
	}

	renderSummary(result)

	if len(result.Errors) > 0 {
		os.Exit(1)
	}
}

func renderSummary(result *scan.ScanBatchResult) {
	names := make([]string, 0, len(result.Sources))
	for name := range result.Sources {
		names = append(names, name)
	}
	sort.Strings(names)

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.AppendHeader(table.Row{"Source", "Found", "New", "Errors"})
	for _, name := range names {
		stats := result.Sources[name]
		t.AppendRow(table.Row{name, stats.Found, stats.New, stats.Errors})
	}
	t.AppendFooter(table.Row{"Total", result.TotalFound, result.TotalNew, len(result.Errors)})
	t.Render()

	log.Printf("Scan finished in %s", result.CompletedAt.Sub(result.StartedAt).Round(time.Second))
	for _, e := range result.Errors {
		log.Printf("[%s] %s", e.Scanner, e.Error)
	}
}
