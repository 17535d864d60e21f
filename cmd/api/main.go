package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
	"github.com/thorplatform/payout-service/internal/config"
	"github.com/thorplatform/payout-service/internal/handler"
	"github.com/thorplatform/payout-service/internal/integrations/processor"
	"github.com/thorplatform/payout-service/internal/middleware"
	"github.com/thorplatform/payout-service/internal/repository"
	"github.com/thorplatform/payout-service/internal/service"
	"github.com/thorplatform/payout-service/internal/utils/email"
)

func main() {
	// Initialize logger
	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})
	logLevel, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL"))
	if err != nil {
		logLevel = logrus.InfoLevel
	}
	logger.SetLevel(logLevel)

	// Load configuration
	cfg, err := config.NewConfig()
	if err != nil {
		logger.Fatalf("Failed to load config: %v", err)
	}

	// Initialize database
	db, err := sql.Open("postgres", cfg.DBConn)
	if err != nil {
		logger.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	if err := db.Ping(); err != nil {
		logger.Fatalf("Failed to ping database: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	gateway := processor.NewClient(cfg, logger)
	notifier := email.NewSender(cfg, logger)
	svc := service.NewService(repo, gateway, notifier, logger, cfg)
	h := handler.NewHandler(svc, logger)

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/login", h.Login).Methods("POST")
	r.HandleFunc("/processor/events", h.ProcessorEvent).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/contractors/funding-sources", h.CreateFundingSource).Methods("POST")
	authRouter.HandleFunc("/contractors/funding-sources", h.ListFundingSources).Methods("GET")
	authRouter.HandleFunc("/contractors/funding-sources/{id}", h.GetFundingSource).Methods("GET")
	authRouter.HandleFunc("/contractors/funding-sources/{id}/default", h.SetDefaultFundingSource).Methods("POST")
	authRouter.HandleFunc("/transactions", h.CreateTransaction).Methods("POST")
	authRouter.HandleFunc("/transactions/{id}/transfers", h.PrepareTransfer).Methods("POST")
	authRouter.HandleFunc("/transactions/{id}/transfers/submit", h.SubmitTransfer).Methods("POST")
	authRouter.HandleFunc("/transactions/statistics", h.GetStatistics).Methods("GET")
	authRouter.HandleFunc("/transactions/period-stats", h.GetPeriodStats).Methods("GET")
	authRouter.HandleFunc("/users/{id}/transactions", h.GetUserTransactions).Methods("GET")

	// Schedule transfer status polling
	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.PollSchedule, func() {
		if err := svc.PollInFlightTransfers(context.Background()); err != nil {
			logger.Errorf("Transfer poll failed: %v", err)
		}
	}); err != nil {
		logger.Fatalf("Failed to schedule transfer poll: %v", err)
	}
	scheduler.Start()
	defer scheduler.Stop()

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}
