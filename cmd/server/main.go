package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang-jwt/jwt/v5"
	echojwt "github.com/labstack/echo-jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	"github.com/banking/aml-compliance/internal/api"
	"github.com/banking/aml-compliance/internal/config"
	"github.com/banking/aml-compliance/internal/crypto"
	"github.com/banking/aml-compliance/internal/engine"
	"github.com/banking/aml-compliance/internal/events"
	"github.com/banking/aml-compliance/internal/repository/elasticsearch"
	"github.com/banking/aml-compliance/internal/repository/postgres"
	"github.com/banking/aml-compliance/internal/repository/s3"
	"github.com/banking/aml-compliance/internal/screening"
	"github.com/banking/aml-compliance/internal/store"
)

func main() {
	// 1. Config
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Logger
	logger, _ := zap.NewProduction()
	defer logger.Sync()
	sugar := logger.Sugar()

	sugar.Info("Starting AML/BSA Compliance Service...")

	// 3. Crypto
	protector, err := crypto.NewRecordProtector(
		cfg.Encryption.EncryptionKeysBase64,
		cfg.Encryption.CurrentKeyVersion,
		cfg.Encryption.RecordHMACSecret,
	)
	if err != nil {
		sugar.Fatalf("Failed to initialize record protector: %v", err)
	}

	// 4. Record store
	var records store.RecordStore
	if cfg.Database.Enabled {
		pgStore, err := postgres.NewRecordStore(cfg.Database)
		if err != nil {
			sugar.Fatalf("Failed to connect to Postgres: %v", err)
		}
		defer pgStore.Close()
		records = pgStore
	} else {
		sugar.Warn("Database disabled, using in-memory record store (records are lost on restart)")
		records = store.NewMemoryStore()
	}

	// 5. Search indexing (optional)
	var indexer engine.CaseIndexer
	var searcher engine.CaseSearcher
	caseIndex, err := elasticsearch.NewCaseIndex(cfg.Elasticsearch)
	if err != nil {
		sugar.Warnf("Failed to connect to Elasticsearch: %v (case search will be unavailable)", err)
	} else {
		indexer = caseIndex
		searcher = caseIndex
	}

	// 6. Report archival (optional)
	var archiver engine.ReportArchiver
	if cfg.S3.ReportsBucket != "" {
		reportArchive, err := s3.NewReportArchive(context.Background(), cfg.S3)
		if err != nil {
			sugar.Warnf("Failed to initialize report archive: %v (reports will not be archived)", err)
		} else {
			archiver = reportArchive
		}
	}

	// 7. External adapters. Stubs stand in until real providers are wired
	// through the configured endpoints.
	screener := screening.NewFallbackScreener(
		screening.StubSanctionsScreener{},
		cfg.Detection.AdapterTimeout,
		logger,
	)
	scorer := engine.NewRiskScorer(cfg.Compliance.HighRiskCountries)

	// 8. Engine
	cipService := engine.NewCIPService(
		records,
		screening.StubDocumentVerifier{},
		screener,
		screening.StubPEPChecker{},
		scorer,
		protector,
		cfg.Compliance.BeneficialOwnershipThreshold,
		logger,
	)
	monitor := engine.NewTransactionMonitor(
		records,
		screening.NoopPatternDetector{},
		protector,
		indexer,
		cfg.Compliance.SARThreshold,
		cfg.Compliance.EnhancedDueDiligenceThreshold,
		cfg.Compliance.SARFilingDeadlineDays,
		logger,
	)
	ctrEvaluator := engine.NewCTREvaluator(
		records,
		records,
		protector,
		cfg.Compliance.CTRThreshold,
		cfg.Compliance.AggregationWindow(),
		cfg.Compliance.CTRFilingDeadlineDays,
		logger,
	)
	screeningService := engine.NewScreeningService(records, screener, indexer, logger)
	reporting := engine.NewReportAggregator(records, archiver, logger)

	eng := engine.NewEngine(cipService, monitor, ctrEvaluator, screeningService, reporting, searcher, logger)

	// 9. Kafka consumer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	consumer, err := events.NewComplianceConsumer(cfg.Kafka, eng, logger)
	if err != nil {
		sugar.Warnf("Failed to create Kafka consumer: %v (stream processing disabled)", err)
	} else {
		go func() {
			sugar.Info("Starting Kafka consumer loop...")
			if err := consumer.Start(ctx); err != nil {
				sugar.Errorf("Kafka consumer failed: %v", err)
			}
		}()
		defer consumer.Close()
	}

	// 10. API server
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())
	e.Use(middleware.CORS())

	complianceHandler := api.NewComplianceHandler(eng)
	apiGroup := e.Group("/compliance")

	keyData, err := os.ReadFile(cfg.Auth.JWTPublicKeyPath)
	var signingKey interface{}
	if err == nil {
		signingKey, err = jwt.ParseRSAPublicKeyFromPEM(keyData)
		if err != nil {
			sugar.Warnf("Failed to parse JWT public key: %v", err)
		}
	} else {
		sugar.Warnf("JWT public key not found at %s: %v", cfg.Auth.JWTPublicKeyPath, err)
	}

	if signingKey != nil {
		jwtConfig := echojwt.Config{
			SigningKey:    signingKey,
			SigningMethod: "RS256",
			NewClaimsFunc: func(c echo.Context) jwt.Claims {
				return new(jwt.MapClaims)
			},
		}
		apiGroup.Use(echojwt.WithConfig(jwtConfig))
		sugar.Info("JWT Authentication enabled for /compliance/*")
	} else {
		sugar.Warn("JWT Authentication DISABLED - Missing Public Key (Security Risk)")
	}

	complianceHandler.RegisterRoutes(apiGroup)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	})

	go func() {
		addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
		if err := e.Start(addr); err != nil && err != http.ErrServerClosed {
			sugar.Fatalf("Shutting down the server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	sugar.Info("Shutting down service...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		sugar.Fatal(err)
	}
}
