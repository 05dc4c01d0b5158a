package main

import (
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"database/sql"

	"github.com/gorilla/mux"
	"github.com/lendcore/lending-os/internal/cache"
	"github.com/lendcore/lending-os/internal/config"
	"github.com/lendcore/lending-os/internal/handler"
	"github.com/lendcore/lending-os/internal/integrations/rates"
	"github.com/lendcore/lending-os/internal/jobs"
	"github.com/lendcore/lending-os/internal/middleware"
	"github.com/lendcore/lending-os/internal/notify"
	"github.com/lendcore/lending-os/internal/repository"
	"github.com/lendcore/lending-os/internal/service"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
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
	summaryCache := cache.NewSummaryCache(cfg.RedisAddr, logger)
	mailer := notify.NewSender(cfg, logger)
	ratesClient := rates.NewClient(cfg, logger)
	svc := service.NewService(repo, logger, cfg, summaryCache, mailer, ratesClient)
	h := handler.NewHandler(svc, logger)

	// Background reminder job
	scheduler := jobs.NewScheduler(repo, mailer, logger)
	if err := scheduler.Start(); err != nil {
		logger.Fatalf("Failed to start scheduler: %v", err)
	}
	defer scheduler.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Reference key rate endpoint
	r.HandleFunc("/key-rate", func(w http.ResponseWriter, r *http.Request) {
		rate, err := ratesClient.GetKeyRate()
		if err != nil {
			http.Error(w, fmt.Sprintf("Failed to get key rate: %v", err), http.StatusInternalServerError)
			return
		}
		json.NewEncoder(w).Encode(map[string]float64{"key_rate": rate})
	}).Methods("GET")

	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/lenders", h.CreateLender).Methods("POST")
	authRouter.HandleFunc("/lenders", h.ListLenders).Methods("GET")
	authRouter.HandleFunc("/loans", h.CreateLoan).Methods("POST")
	authRouter.HandleFunc("/loans", h.ListLoans).Methods("GET")
	authRouter.HandleFunc("/loans/{id}", h.GetLoan).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/activate", h.ActivateLoan).Methods("POST")
	authRouter.HandleFunc("/loans/{id}/schedule", h.RegenerateSchedule).Methods("POST")
	authRouter.HandleFunc("/loans/{id}/schedule", h.GetSchedule).Methods("GET")
	authRouter.HandleFunc("/loans/{id}/return", h.ReturnFromLoan).Methods("POST")
	authRouter.HandleFunc("/funds", h.CreateFund).Methods("POST")
	authRouter.HandleFunc("/funds/{id}/close", h.CloseFund).Methods("POST")
	authRouter.HandleFunc("/funds/{id}/summary", h.GetFundSummary).Methods("GET")
	authRouter.HandleFunc("/funds/{id}/commitments", h.RecordCommitment).Methods("POST")
	authRouter.HandleFunc("/funds/{id}/capital-calls", h.CreateCapitalCall).Methods("POST")
	authRouter.HandleFunc("/funds/{id}/allocations", h.AllocateToLoan).Methods("POST")
	authRouter.HandleFunc("/commitments/{id}/cancel", h.CancelCommitment).Methods("POST")

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
