// Package main is the entry point for the stockflow API server.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"stockflow/internal/core/id"
	"stockflow/internal/domain/account"
	"stockflow/internal/domain/catalogs/company"
	"stockflow/internal/domain/catalogs/outlet"
	"stockflow/internal/domain/catalogs/product"
	"stockflow/internal/domain/catalogs/warehouse"
	"stockflow/internal/domain/layaway"
	"stockflow/internal/domain/movement"
	"stockflow/internal/domain/purge"
	"stockflow/internal/domain/reports"
	"stockflow/internal/domain/sales"
	"stockflow/internal/domain/shipment"
	"stockflow/internal/infrastructure/config"
	v1 "stockflow/internal/infrastructure/http/v1"
	"stockflow/internal/infrastructure/storage/postgres"
	"stockflow/internal/infrastructure/storage/postgres/account_repo"
	"stockflow/internal/infrastructure/storage/postgres/catalog_repo"
	"stockflow/internal/infrastructure/storage/postgres/layaway_repo"
	"stockflow/internal/infrastructure/storage/postgres/ledger_repo"
	"stockflow/internal/infrastructure/storage/postgres/report_repo"
	"stockflow/internal/infrastructure/storage/postgres/sales_repo"
	"stockflow/internal/infrastructure/storage/postgres/shipment_repo"
	"stockflow/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(logger.Config{
		Level:       os.Getenv("LOG_LEVEL"),
		Development: cfg.App.Env == "development",
	})
	if err != nil {
		fmt.Printf("failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	ctx := logger.WithLogger(context.Background(), log)
	log.Info("starting stockflow server")

	// --- Database ---
	poolCfg := postgres.DefaultPoolConfig(cfg.DB.ConnectionString())
	if cfg.DB.MaxConns > 0 {
		poolCfg.MaxConns = cfg.DB.MaxConns
	}
	if cfg.DB.MinConns > 0 {
		poolCfg.MinConns = cfg.DB.MinConns
	}
	if cfg.DB.MaxConnLifetime > 0 {
		poolCfg.MaxConnLifetime = cfg.DB.MaxConnLifetime
	}

	pool, err := postgres.NewPool(ctx, poolCfg)
	if err != nil {
		log.Fatalw("failed to connect to database", "error", err)
	}
	defer pool.Close()
	log.Info("database connection established")

	if err := postgres.Migrate(ctx, pool); err != nil {
		log.Fatalw("failed to apply schema", "error", err)
	}

	txManager := postgres.NewTxManager(pool)

	// --- Repositories ---
	ledgerRepo := ledger_repo.NewLedgerRepo(txManager)
	companyRepo := catalog_repo.NewCompanyRepo(txManager)
	productRepo := catalog_repo.NewProductRepo(txManager)
	warehouseRepo := catalog_repo.NewWarehouseRepo(txManager)
	outletRepo := catalog_repo.NewOutletRepo(txManager)
	shipmentRepo := shipment_repo.NewShipmentRepo(txManager)
	salesRepo := sales_repo.NewSalesRepo(txManager)
	layawayRepo := layaway_repo.NewLayawayRepo(txManager)
	accountRepo := account_repo.NewAccountRepo(txManager)
	reportRepo := report_repo.NewReportRepo(txManager)

	// --- Services ---
	engine := movement.NewEngine(ledgerRepo)

	companyService := company.NewService(companyRepo, txManager)
	productService := product.NewService(productRepo, ledgerRepo, txManager)
	warehouseService := warehouse.NewService(warehouseRepo, ledgerRepo, txManager)
	outletService := outlet.NewService(outletRepo, ledgerRepo, warehouseService, txManager)
	shipmentService := shipment.NewService(shipmentRepo, ledgerRepo, engine, endpointDirectory{
		warehouses: warehouseService,
		outlets:    outletService,
	}, txManager)
	salesService := sales.NewService(salesRepo, ledgerRepo, engine, txManager)
	layawayService := layaway.NewService(layawayRepo, ledgerRepo, salesService, txManager)
	purgeService := purge.NewService(
		ledgerRepo, engine,
		productRepo, warehouseRepo, outletRepo,
		shipmentRepo, salesRepo, layawayRepo,
		txManager,
	)
	reportService := reports.NewService(reportRepo)

	auditTrail, err := postgres.NewAuditTrail(txManager)
	if err != nil {
		log.Fatalw("failed to initialize audit trail", "error", err)
	}
	purgeService.SetTrail(purgeTrail{auditTrail})

	jwtService := account.NewJWTService(account.JWTConfig{
		Secret:         cfg.JWT.Secret,
		Issuer:         cfg.JWT.Issuer,
		AccessTokenTTL: cfg.JWT.AccessTokenTTL,
	})
	accountService := account.NewService(accountRepo, ledgerRepo, txManager, jwtService, account.DefaultServiceConfig())

	// --- Company bootstrap ---
	if cfg.Company.Name != "" {
		if _, err := companyService.EnsureCompany(ctx, company.BootstrapInput{
			Name:     cfg.Company.Name,
			Location: cfg.Company.Location,
			Address:  cfg.Company.Address,
		}); err != nil {
			log.Fatalw("failed to bootstrap company", "error", err)
		}
	}

	// --- Router ---
	router := v1.NewRouter(v1.RouterConfig{
		Pool:         pool.Unwrap(),
		Logger:       log,
		JWTValidator: jwtService,
		Accounts:     accountService,
		Company:      companyService,
		Products:     productService,
		Warehouses:   warehouseService,
		Outlets:      outletService,
		Shipments:    shipmentService,
		Sales:        salesService,
		Layaways:     layawayService,
		Purge:        purgeService,
		Reports:      reportService,
		Audit:        auditTrail,
	})

	// --- HTTP server ---
	server := &http.Server{
		Addr:         cfg.HTTP.Addr(),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", cfg.HTTP.Addr())
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("server failed", "error", err)
		}
	}()

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatalw("server forced to shutdown", "error", err)
	}

	log.Info("server stopped")
}

// purgeTrail adapts the postgres audit trail to the purge Trail interface.
type purgeTrail struct {
	trail *postgres.AuditTrail
}

func (t purgeTrail) RecordChange(ctx context.Context, entityType string, entityID id.ID, action string, details map[string]any) error {
	return t.trail.RecordChange(ctx, entityType, entityID, postgres.AuditAction(action), details)
}

// endpointDirectory adapts the catalog services to the shipment Directory
// interface.
type endpointDirectory struct {
	warehouses *warehouse.Service
	outlets    *outlet.Service
}

func (d endpointDirectory) WarehouseName(ctx context.Context, warehouseID id.ID) (string, error) {
	return d.warehouses.WarehouseName(ctx, warehouseID)
}

func (d endpointDirectory) OutletName(ctx context.Context, outletID id.ID) (string, error) {
	return d.outlets.OutletName(ctx, outletID)
}
