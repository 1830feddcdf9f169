package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/MMN3003/megaswap/src/Infrastructure/aggregator"
	"github.com/MMN3003/megaswap/src/Infrastructure/ethereum"
	"github.com/MMN3003/megaswap/src/config"
	cronRepo "github.com/MMN3003/megaswap/src/cron/repository"
	cronUsecase "github.com/MMN3003/megaswap/src/cron/usecase"
	"github.com/MMN3003/megaswap/src/logger"
	"github.com/MMN3003/megaswap/src/metrics"
	cronAdapter "github.com/MMN3003/megaswap/src/swap/adapter/cron"
	swapHD "github.com/MMN3003/megaswap/src/swap/delivery/http"
	swapRepo "github.com/MMN3003/megaswap/src/swap/repository"
	swap "github.com/MMN3003/megaswap/src/swap/usecase"

	_ "github.com/MMN3003/megaswap/docs" // Swagger docs
	_ "github.com/lib/pq"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/robfig/cron/v3"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func main() {
	cfg := config.LoadFromEnv()
	logg := logger.New(cfg.Env, cfg.LogLevel)
	metrics.Register(logg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// --- Database connection ---
	logg.Infof("Connecting to database")

	dsn := cfg.DatabaseURL
	gormDB, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger:         gormLogger.Default.LogMode(gormLogger.Warn),
		TranslateError: true,
	})
	if err != nil {
		logg.Fatalf("Failed to connect to database: %v", err)
	}
	gormSQL, err := gormDB.DB()
	if err != nil {
		logg.Fatalf("Failed to get generic DB handle: %v", err)
	}
	defer gormSQL.Close()
	gormSQL.SetMaxOpenConns(5)
	gormSQL.SetMaxIdleConns(1)

	journalDB, err := sql.Open("postgres", dsn)
	if err != nil {
		logg.Fatalf("Failed to open journal database: %v", err)
	}
	defer journalDB.Close()

	// Connection pool tuning
	journalDB.SetMaxOpenConns(20)
	journalDB.SetMaxIdleConns(5)
	journalDB.SetConnMaxLifetime(10 * time.Minute)

	// --- Chain ---
	ethClient, err := ethereum.NewEthereumClient(ctx, ethereum.Config{
		RPCURL:         cfg.Ethereum.RPCURL,
		PrivateKey:     cfg.Ethereum.SignerKey,
		ChainID:        cfg.Ethereum.ChainID,
		NativeSymbol:   cfg.Ethereum.NativeSymbol,
		NativeDecimals: cfg.Ethereum.NativeDecimals,
	}, logg)
	if err != nil {
		logg.Fatalf("Failed to init ethereum client: %v", err)
	}
	defer ethClient.Close()
	if cfg.Ethereum.SignerKey == "" {
		logg.Warnf("SIGNER_PRIVATE_KEY not set, approvals are disabled")
	} else {
		logg.Infof("Signer wallet: %s", ethClient.WalletAddress().Hex())
	}

	// --- Dependencies ---
	swapRepository := swapRepo.NewPostgresSwapRepo(journalDB, logg)
	if err := swapRepository.Migrate(ctx); err != nil {
		logg.Fatalf("Failed to migrate swap journal: %v", err)
	}
	cronRepository := cronRepo.NewCronRepo(gormDB, logg)
	cronSvc := cronUsecase.NewService(cronRepository, logg, 10*time.Minute)

	aggClient, err := aggregator.NewClient(cfg.Aggregator.BaseURL,
		aggregator.WithSource(cfg.Aggregator.Source),
		aggregator.WithTimeout(cfg.Aggregator.Timeout),
		aggregator.WithLogger(logg.Zerolog()),
	)
	if err != nil {
		logg.Fatalf("Failed to init aggregator client: %v", err)
	}
	quoteClient := swap.NewQuoteClient(aggClient, cfg.Aggregator.DefaultGasEstimate, logg)
	allowances := swap.NewAllowanceManager(ethClient, logg,
		swap.WithMaxAttempts(cfg.Approval.MaxAttempts),
		swap.WithPollInterval(cfg.Approval.PollInterval),
	)
	swapSvc := swap.NewService(quoteClient, allowances, ethClient, ethClient, swapRepository, logg, cfg.Ethereum.NativeDecimals)
	handler := swapHD.NewHandler(swapSvc, logg)

	// --- Cron ---
	scheduler := cron.New(cron.WithSeconds())
	if _, err := swap.NewCronService(scheduler, swapSvc, cronAdapter.NewCronPort(cronSvc), cfg.Approval.StaleAfter, logg); err != nil {
		logg.Fatalf("Failed to schedule approval re-check: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// --- Router ---
	if cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	// Core middleware
	r.Use(gin.Recovery())
	r.Use(metrics.HTTPMiddleware())
	r.Use(func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logg.Infof("%s %s status:%d duration:%s",
			c.Request.Method,
			c.Request.URL.Path,
			c.Writer.Status(),
			time.Since(start),
		)
	})

	// --- Healthcheck ---
	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// --- Metrics ---
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// --- Swagger ---
	r.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// --- API routes ---
	handler.RegisterRoutes(r)

	// --- Start server ---
	logg.Infof("Starting service on %s (env=%s)", cfg.ListenAddr, cfg.Env)
	logg.Infof("Swagger UI available at http://localhost%s/swagger/index.html", cfg.ListenAddr)

	// PrepareSwap can block for the whole approval poll.
	writeTimeout := cfg.Aggregator.Timeout + time.Duration(cfg.Approval.MaxAttempts)*cfg.Approval.PollInterval + 30*time.Second

	srv := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           r,
		ReadTimeout:       5 * time.Second,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logg.Errorf("Graceful shutdown failed: %v", err)
		}
	}()

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logg.Fatalf("Server terminated unexpectedly: %v", err)
	}
	logg.Infof("Server stopped")
}
