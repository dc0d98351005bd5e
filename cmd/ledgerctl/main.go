// Package main provides the ledger operator CLI.
// Usage: ledgerctl migrate up
//
//	ledgerctl invoice create --actor <user-uuid> --file invoice.json
//	ledgerctl payment record --actor <user-uuid> --invoice <uuid> --file payment.json
//	ledgerctl stock list --search para
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"

	"pharmaledger/internal/core/apperror"
	"pharmaledger/pkg/config"
	"pharmaledger/pkg/logger"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       cfg.Log.Level,
		Development: cfg.Log.Development,
		OutputPaths: []string{cfg.Log.Output},
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	ctx := logger.WithLogger(context.Background(), log)
	args := os.Args[2:]

	switch os.Args[1] {
	case "migrate":
		err = runMigrate(ctx, cfg, args)
	case "invoice":
		err = withApp(ctx, cfg, func(a *app) error { return a.runInvoice(ctx, args) })
	case "payment":
		err = withApp(ctx, cfg, func(a *app) error { return a.runPayment(ctx, args) })
	case "stock":
		err = withApp(ctx, cfg, func(a *app) error { return a.runStock(ctx, args) })
	case "sequence":
		err = withApp(ctx, cfg, func(a *app) error { return a.runSequence(ctx, args) })
	case "params":
		err = withApp(ctx, cfg, func(a *app) error { return a.runParams(ctx, args) })
	case "audit":
		err = withApp(ctx, cfg, func(a *app) error { return a.runAudit(ctx, args) })
	case "help", "--help", "-h":
		printUsage()
		return
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}

	if err != nil {
		report(err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`Pharmacy Stock Ledger CLI

Usage:
  ledgerctl <command> <action> [options]

Commands:
  migrate   up | down | version
  invoice   create | edit | delete | show | history
  payment   record | reverse | list
  stock     list | show
  sequence  set
  params    show | set
  audit     show
  help      Show this help

Common options:
  --actor <uuid>   User on whose behalf writes are made

Environment Variables:
  LEDGER_DATABASE_URL   PostgreSQL connection string
  LEDGER_LOG_LEVEL      debug, info, warn, error

Examples:
  ledgerctl migrate up
  ledgerctl invoice create --actor <uuid> --file invoice.json
  ledgerctl invoice edit --actor <uuid> --id <invoice-uuid> --file edit.json
  ledgerctl invoice delete --actor <uuid> --id <invoice-uuid>
  ledgerctl invoice history --line <invoice-line-uuid>
  ledgerctl payment record --actor <uuid> --invoice <invoice-uuid> --file payment.json
  ledgerctl stock list --search amox --order -total_qty --limit 50
  ledgerctl sequence set --code barcode --date 2026-10-15 --value 120
  ledgerctl params set --tax 11 --margin 20`)
}

// report prints ledger errors with their code and details, anything else as text.
func report(err error) {
	if appErr, ok := apperror.AsAppError(err); ok {
		out, _ := json.MarshalIndent(appErr, "", "  ")
		fmt.Fprintf(os.Stderr, "Error: %s\n", out)
		return
	}
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
