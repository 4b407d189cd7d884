package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/biblioteca/loans-service/src/clients"
	"github.com/biblioteca/loans-service/src/config"
	"github.com/biblioteca/loans-service/src/controllers"
	"github.com/biblioteca/loans-service/src/db"
	"github.com/biblioteca/loans-service/src/logger"
	"github.com/biblioteca/loans-service/src/middleware"
	"github.com/biblioteca/loans-service/src/repositories"
	"github.com/biblioteca/loans-service/src/routes"
	"github.com/biblioteca/loans-service/src/services"
	"github.com/biblioteca/loans-service/src/workers"
	"github.com/gin-gonic/gin"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Error loading configuration: %v\n", err)
	}
	appLog := logger.New(cfg.LogLevel, cfg.LogFormat, os.Stdout)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Database connection
	gdb, err := db.Connect(cfg)
	if err != nil {
		log.Fatalf("Error connecting to database: %v\n", err)
	}
	if err := db.Migrate(gdb); err != nil {
		log.Fatalf("Error during auto-migration: %v\n", err)
	}
	store := repositories.NewGormLoanStore(gdb)

	// Upstream clients
	bookClient := clients.NewBookClient(cfg.BooksServiceURL, cfg.UpstreamTimeout)
	userClient := clients.NewUserClient(cfg.UsersServiceURL, cfg.UpstreamTimeout)
	var books clients.BookGateway = bookClient
	if cfg.BookSummaryCacheTTL > 0 {
		cached := clients.NewCachedBookGateway(bookClient, cfg.BookSummaryCacheTTL)
		cached.StartCleanup(ctx, cfg.BookSummaryCacheTTL)
		books = cached
	}

	// Services setup
	loanService, err := services.NewLoanService(store, books, appLog,
		services.WithMaxActiveLoans(cfg.MaxActiveLoans),
		services.WithSingleLoanPerBook(cfg.SingleLoanPerBook),
	)
	if err != nil {
		log.Fatalf("Error creating loan service: %v\n", err)
	}
	exportService := services.NewLoanExportService(loanService)
	connectivity := services.NewConnectivityService().
		Register("books", bookClient).
		Register("users", userClient)
	if cfg.UsersProbeUserID > 0 {
		connectivity.Register("users-lookup", userClient.Lookup(cfg.UsersProbeUserID))
	}

	sweeper := workers.NewOverdueSweeper(store, appLog, cfg.SweepAt)
	if cfg.SweepOnStart {
		sweeper.RunOnce(ctx)
	}
	sweeperDone := sweeper.Start(ctx)

	// Gin router setup
	gin.SetMode(cfg.GinMode)
	router := gin.New()
	router.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.RequestLogger(appLog),
		middleware.SetupCORS(cfg.CORSAllowedOrigins),
		middleware.RateLimit(cfg.RateLimitRPS, cfg.RateLimitBurst),
	)

	var guards []gin.HandlerFunc
	if cfg.JWTSecret != "" {
		guards = append(guards, middleware.AuthMiddleware(cfg.JWTSecret))
	} else {
		appLog.Warnw("JWT_SECRET is empty, /loans is not authenticated")
	}

	// Routes setup
	routes.SetupHealthRoutes(router, controllers.NewHealthController(connectivity, cfg.UpstreamTimeout))
	routes.SetupLoanRoutes(router, controllers.NewLoanController(loanService, exportService, sweeper, appLog), guards...)

	srv := &http.Server{
		Addr:              cfg.ServerHost,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLog.Infow("server listening", "addr", cfg.ServerHost, "dbDriver", cfg.DBDriver,
			"booksService", cfg.BooksServiceURL, "usersService", cfg.UsersServiceURL)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Error starting server on %s: %v\n", cfg.ServerHost, err)
		}
	}()

	<-ctx.Done()
	appLog.Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		appLog.Errorw("graceful shutdown failed", "error", err)
	}
	<-sweeperDone

	if sqlDB, err := gdb.DB(); err == nil {
		_ = sqlDB.Close()
	}
}
