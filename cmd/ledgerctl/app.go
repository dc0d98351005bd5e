package main

import (
	"context"
	"fmt"

	"pharmaledger/internal/core/numerator"
	"pharmaledger/internal/domain"
	"pharmaledger/internal/domain/invoice"
	"pharmaledger/internal/domain/lot"
	"pharmaledger/internal/domain/movement"
	"pharmaledger/internal/domain/params"
	"pharmaledger/internal/domain/payment"
	"pharmaledger/internal/domain/reference"
	"pharmaledger/internal/domain/stock"
	pgnumerator "pharmaledger/internal/infrastructure/numerator"
	"pharmaledger/internal/infrastructure/storage/postgres"
	"pharmaledger/internal/infrastructure/storage/postgres/catalog_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/document_repo"
	"pharmaledger/internal/infrastructure/storage/postgres/register_repo"
	"pharmaledger/pkg/config"
	"pharmaledger/pkg/logger"
)

// app holds the wired ledger services for one CLI invocation.
type app struct {
	cfg       *config.Config
	pool      *postgres.Pool
	txm       *postgres.TxManager
	codes     lot.Codes
	sequences *pgnumerator.Service
	params    *catalog_repo.ParamsRepo
	audit     *postgres.AuditService
	invoices  *invoice.Processor
	history   *movement.History
	payments  *payment.Tracker
	stock     *stock.Service
}

func withApp(ctx context.Context, cfg *config.Config, fn func(a *app) error) error {
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.pool.Close()
	return fn(a)
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	pool, err := postgres.NewPool(ctx, postgres.PoolConfigFrom(cfg.Database))
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	txm := postgres.NewTxManager(pool, postgres.TxOptionsFrom(cfg.Tx))

	sequences := pgnumerator.NewWithQuerierFunc(func(ctx context.Context) pgnumerator.Querier {
		return txm.GetQuerier(ctx)
	})

	codes := lotCodes(cfg.Sequence)

	auditSvc, err := postgres.NewAuditService(txm)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("create audit service: %w", err)
	}

	stockRepo := register_repo.NewStockRepo(txm)
	invoiceRepo := document_repo.NewInvoiceRepo(txm)
	refRepo := catalog_repo.NewReferenceRepo(txm)
	paramsRepo := catalog_repo.NewParamsRepo(txm)
	actors := reference.NewContextActorResolver(refRepo)
	history := movement.NewHistory(register_repo.NewMovementRepo(txm))

	processor := invoice.NewProcessor(invoice.Config{
		Repo:       invoiceRepo,
		TxManager:  txm,
		Stock:      stock.NewAggregator(stockRepo),
		Lots:       lot.NewLedger(register_repo.NewLotRepo(txm), sequences, codes),
		History:    history,
		References: reference.NewChecker(refRepo),
		Actors:     actors,
		Params:     params.NewProvider(paramsRepo),
	})
	processor.RegisterAudit(auditSvc)

	tracker := payment.NewTracker(document_repo.NewPaymentRepo(txm), invoiceRepo, txm, actors, auditSvc)

	limits := domain.PageLimits{Default: cfg.Pagination.DefaultPageSize, Max: cfg.Pagination.MaxPageSize}

	logger.Debug(ctx, "ledger wired", "max_retries", cfg.Tx.MaxRetries, "lot_prefix", codes.Barcode.Prefix)

	return &app{
		cfg:       cfg,
		pool:      pool,
		txm:       txm,
		codes:     codes,
		sequences: sequences,
		params:    paramsRepo,
		audit:     auditSvc,
		invoices:  processor,
		history:   history,
		payments:  tracker,
		stock:     stock.NewService(stockRepo, limits),
	}, nil
}

// lotCodes builds the barcode and batch sequences from configuration.
func lotCodes(cfg config.SequenceConfig) lot.Codes {
	codes := lot.DefaultCodes()
	codes.Barcode = numerator.Config{Prefix: cfg.LotPrefix, ScopeLayout: codes.Barcode.ScopeLayout, PadWidth: cfg.PadWidth}
	codes.Batch = numerator.Config{Prefix: cfg.BatchPrefix, ScopeLayout: codes.Batch.ScopeLayout, PadWidth: cfg.PadWidth}
	return codes
}
