package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/gorilla/mux"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"

	"github.com/skolos/debt-service/internal/config"
	"github.com/skolos/debt-service/internal/consumer"
	"github.com/skolos/debt-service/internal/handler"
	"github.com/skolos/debt-service/internal/hub"
	"github.com/skolos/debt-service/internal/integrations/cbr"
	"github.com/skolos/debt-service/internal/middleware"
	"github.com/skolos/debt-service/internal/queue"
	"github.com/skolos/debt-service/internal/repository"
	"github.com/skolos/debt-service/internal/scheduler"
	"github.com/skolos/debt-service/internal/service"
	"github.com/skolos/debt-service/internal/utils/email"
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
	if err := runMigrations(cfg); err != nil {
		logger.Fatalf("Failed to run migrations: %v", err)
	}

	// Initialize layers
	repo := repository.NewRepository(db)
	topic := queue.NewTopic("debt-processing", cfg.QueueBuffer, logger)
	events := hub.NewHub(logger)
	rates := cbr.NewClient(cfg, logger)
	svc := service.NewService(repo, topic, rates, cfg, logger)
	h := handler.NewHandler(svc, events, logger)

	// Start the enrichment consumer
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go consumer.NewConsumer(topic, repo, events, logger).Start(ctx, cfg.ConsumerWorkers)

	// Start the recurring jobs
	sched := scheduler.New(logger)
	mailer := email.NewSender(cfg, logger)
	if err := sched.Add(cfg.AccrualCronSpec, scheduler.NewAccrualJob(repo, logger)); err != nil {
		logger.Fatalf("Failed to schedule accrual job: %v", err)
	}
	notifyJob := scheduler.NewNotificationJob(repo, mailer, cfg.ReminderWindowDays, cfg.MonthlyReminderDay, logger)
	if err := sched.Add(cfg.NotifyCronSpec, notifyJob); err != nil {
		logger.Fatalf("Failed to schedule notification job: %v", err)
	}
	sched.Start()
	defer sched.Stop()

	// Setup router
	r := mux.NewRouter()
	// Public routes
	r.HandleFunc("/register", h.Register).Methods("POST")
	r.HandleFunc("/login", h.Login).Methods("POST")
	// Protected routes
	authRouter := r.PathPrefix("/").Subrouter()
	authRouter.Use(middleware.AuthMiddleware(cfg))
	authRouter.HandleFunc("/debts/upload", h.UploadDebts).Methods("POST")
	authRouter.HandleFunc("/debts/events", h.StreamEvents).Methods("GET")

	// Start server
	addr := fmt.Sprintf(":%s", cfg.Port)
	server := &http.Server{
		Addr:        addr,
		Handler:     r,
		ReadTimeout: 30 * time.Second,
		// no WriteTimeout: the events route streams indefinitely
	}
	logger.Infof("Starting server on %s", addr)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Fatalf("Server failed: %v", err)
	}
}

// runMigrations applies pending schema migrations
func runMigrations(cfg *config.Config) error {
	m, err := migrate.New(cfg.MigrationsPath, cfg.DBURL)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}
