// Package main provides the rfpgate server entry point: the access
// decision engine, NDA lifecycle, access request workflow, and
// notification worker behind one HTTP process.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/golang/glog"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/rfpgate/rfpgate/pkg/access"
	"github.com/rfpgate/rfpgate/pkg/accessreq"
	"github.com/rfpgate/rfpgate/pkg/api"
	"github.com/rfpgate/rfpgate/pkg/config"
	"github.com/rfpgate/rfpgate/pkg/docstore"
	"github.com/rfpgate/rfpgate/pkg/nda"
	"github.com/rfpgate/rfpgate/pkg/notify"
	"github.com/rfpgate/rfpgate/pkg/rfp"
)

func main() {
	var (
		listenAddr   string
		configPath   string
		databaseType string
		databaseDSN  string
	)

	flag.StringVar(&listenAddr, "listen", "", "Address to listen on (overrides config)")
	flag.StringVar(&configPath, "config", "", "Path to YAML config file")
	flag.StringVar(&databaseType, "db-type", "", "Database type (postgres or mysql, overrides config)")
	flag.StringVar(&databaseDSN, "db-dsn", "", "Database connection string (overrides config)")
	flag.Parse()

	// glog writes to files unless told otherwise
	_ = flag.Set("logtostderr", "true")

	// Set up structured logger
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load(configPath)
	if err != nil {
		glog.Fatalf("Failed to load config: %v", err)
	}
	if listenAddr != "" {
		cfg.Listen = listenAddr
	}
	if databaseType != "" {
		cfg.Database.Type = databaseType
	}
	if databaseDSN != "" {
		cfg.Database.DSN = databaseDSN
	}

	logger.Info("starting rfpgate server",
		"listen", cfg.Listen,
		"dbType", cfg.Database.Type,
		"cacheTTL", cfg.CacheTTL.String(),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	db, err := setupDatabase(cfg.Database.Type, cfg.Database.DSN)
	if err != nil {
		glog.Fatalf("Failed to connect to database: %v", err)
	}

	// Stores
	rfpStore := rfp.NewStore(db)
	ndaStore := nda.NewStore(db)
	companyStore := nda.NewCompanyStore(db)
	auditStore := nda.NewAuditStore(db)
	requestStore := accessreq.NewStore(db)
	notifyStore := notify.NewStore(db)

	for _, m := range []interface{ AutoMigrate() error }{
		rfpStore, ndaStore, companyStore, auditStore, requestStore, notifyStore,
	} {
		if err := m.AutoMigrate(); err != nil {
			glog.Fatalf("Failed to migrate database: %v", err)
		}
	}

	// Notification pipeline
	dispatcher := notify.NewQueueDispatcher(notifyStore, logger)
	worker := notify.NewWorker(notifyStore, notify.LogSender{Logger: logger}, cfg.Notify, logger)
	go worker.Run(ctx)

	// Decision engine with a short decision cache
	engine := access.NewEngine(rfpStore, ndaStore, companyStore, requestStore)
	cached := access.NewCachedEngine(engine, cfg.CacheTTL)

	// Lifecycle managers
	ndaManager := nda.NewManager(ndaStore, companyStore, auditStore, rfpStore, dispatcher, logger)
	accessWf := accessreq.NewWorkflow(requestStore, rfpStore, dispatcher, logger)

	// Document storage
	var issuer docstore.SignedURLIssuer
	if cfg.Storage.Bucket != "" {
		issuer = docstore.NewS3Issuer(cfg.Storage)
		logger.Info("document storage configured",
			"bucket", cfg.Storage.Bucket, "endpoint", cfg.Storage.Endpoint)
	} else {
		logger.Info("document storage not configured, downloads disabled")
	}

	server := api.NewServer(db, rfpStore, ndaManager, accessWf, cached, notifyStore, issuer, logger)
	router := server.MountRoutes()

	logger.Info("rfpgate server ready", "listen", cfg.Listen)

	httpServer := &http.Server{
		Addr:    cfg.Listen,
		Handler: router,
	}

	go func() {
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			glog.Fatalf("HTTP server error: %v", err)
		}
	}()

	<-ctx.Done()

	logger.Info("shutting down...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("HTTP server shutdown error", "error", err)
	}

	logger.Info("rfpgate server stopped")
}

func setupDatabase(dbType, dsn string) (*gorm.DB, error) {
	if dsn == "" {
		return nil, fmt.Errorf("database DSN is required (use -db-dsn, the config file, or RFPGATE_DB_DSN)")
	}

	var dialector gorm.Dialector
	switch dbType {
	case "postgres", "":
		dialector = postgres.Open(dsn)
	case "mysql":
		dialector = mysql.Open(dsn)
	default:
		return nil, fmt.Errorf("unsupported database type %q (expected postgres or mysql)", dbType)
	}

	db, err := gorm.Open(dialector, &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}
