package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/rahulvarma/upi-wallet-service/internal/api"
	"github.com/rahulvarma/upi-wallet-service/internal/config"
	"github.com/rahulvarma/upi-wallet-service/internal/events/kafka"
	interfaces "github.com/rahulvarma/upi-wallet-service/internal/interfaces"
	"github.com/rahulvarma/upi-wallet-service/internal/ledger"
	"github.com/rahulvarma/upi-wallet-service/internal/storage/memory"
	"github.com/rahulvarma/upi-wallet-service/internal/storage/postgres"
)

func main() {
	// Structured JSON logging.
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Select the storage backend.
	var store interfaces.WalletStore
	switch cfg.StoreBackend {
	case config.StorePostgres:
		db, err := sql.Open("postgres", cfg.DatabaseURL)
		if err != nil {
			slog.Error("failed to open database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		store = postgres.NewPostgresWalletStore(db)
	default:
		store = memory.NewMemoryWalletStore()
	}
	slog.Info("store initialized", "backend", cfg.StoreBackend)

	// Event publishing is optional; no brokers means no publisher.
	var publisher interfaces.EventPublisher
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPublisher := kafka.NewPublisher(cfg.KafkaBrokers, ledger.TransferCompletedTopic)
		defer func() {
			if err := kafkaPublisher.Close(); err != nil {
				slog.Error("failed to close kafka publisher", "error", err)
			}
		}()
		publisher = kafkaPublisher
		slog.Info("kafka publisher initialized", "brokers", cfg.KafkaBrokers)
	}

	walletLedger := ledger.NewLedger(store, publisher)

	if cfg.SeedSample {
		if err := seedSampleData(walletLedger); err != nil {
			slog.Error("failed to seed sample data", "error", err)
			os.Exit(1)
		}
		slog.Info("seeded sample account", "account_id", "sample@upi")
	}

	walletHandler := api.NewWalletHandler(walletLedger, cfg.HistoryLimit)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	walletHandler.Routes(r)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	slog.Info("starting wallet service", "addr", addr)

	server := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown.
	go func() {
		sigint := make(chan os.Signal, 1)
		signal.Notify(sigint, os.Interrupt, syscall.SIGTERM)
		<-sigint

		slog.Info("shutting down server")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}

	slog.Info("server stopped")
}

// seedSampleData creates a funded demo account so a fresh instance can be
// exercised by hand: sample@upi, PIN 1234, balance 1000.
func seedSampleData(l *ledger.Ledger) error {
	ctx := context.Background()
	if _, err := l.CreateAccount(ctx, "sample@upi", "SampleUser", "1234"); err != nil {
		return err
	}
	if _, err := l.Deposit(ctx, "sample@upi", decimal.NewFromInt(1000)); err != nil {
		return err
	}
	return nil
}
