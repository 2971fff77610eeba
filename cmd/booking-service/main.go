package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"

	"ms-booking/internal/booking"
	"ms-booking/internal/booking/booking_api"
	"ms-booking/internal/booking/db"
	"ms-booking/internal/config"
	"ms-booking/internal/database/migrations"
	"ms-booking/internal/kafka"
	"ms-booking/internal/logger"
)

func connectDatabase(cfg config.DatabaseConfig, log *logger.Logger) *bun.DB {
	var sqldb *sql.DB
	var err error
	maxRetries := 5

	for i := 0; i < maxRetries; i++ {
		log.Info("DATABASE", fmt.Sprintf("Connecting to PostgreSQL (attempt %d/%d)", i+1, maxRetries))
		sqldb, err = sql.Open("postgres", cfg.DSN)
		if err == nil {
			err = sqldb.Ping()
			if err == nil {
				break
			}
		}
		log.Error("DATABASE", fmt.Sprintf("PostgreSQL not reachable: %v", err))
		if i < maxRetries-1 {
			time.Sleep(2 * time.Second)
		}
	}
	if err != nil {
		log.Fatal("DATABASE", fmt.Sprintf("Failed to connect to PostgreSQL after %d attempts: %v", maxRetries, err))
	}

	sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	sqldb.SetMaxIdleConns(cfg.MaxIdleConns)
	sqldb.SetConnMaxLifetime(cfg.MaxLifetime)
	log.Info("DATABASE", "PostgreSQL connection successful")

	return bun.NewDB(sqldb, pgdialect.New())
}

func buildPublisher(cfg config.KafkaConfig, log *logger.Logger) booking.KafkaPublisher {
	if !cfg.Enabled {
		log.Info("KAFKA", "Kafka disabled, domain events will not be published")
		return nil
	}
	if cfg.MockMode {
		log.Info("KAFKA", "Kafka mock mode enabled")
		return &kafka.MockProducer{Logger: log}
	}

	topics := []string{cfg.Topics.EventCreated, cfg.Topics.BookingCreated, cfg.Topics.BookingCancelled}
	if err := kafka.EnsureTopicsExist(cfg.Brokers, topics); err != nil {
		log.Warn("KAFKA", fmt.Sprintf("Topic creation might have failed: %v", err))
	} else {
		log.Info("KAFKA", "Required topics ensured successfully")
	}

	return kafka.NewProducer(cfg.Brokers, kafka.Topics{
		EventCreated:     cfg.Topics.EventCreated,
		BookingCreated:   cfg.Topics.BookingCreated,
		BookingCancelled: cfg.Topics.BookingCancelled,
	})
}

func main() {
	log := logger.NewLogger()
	defer log.Close()

	log.Info("APP", "Starting Booking Service initialization")

	if err := godotenv.Load(); err != nil {
		log.Warn("CONFIG", ".env file not found, using environment variables")
	}
	cfg := config.Load()

	bunDB := connectDatabase(cfg.Database, log)
	defer bunDB.Close()

	if cfg.Database.AutoMigrate {
		runner := migrations.NewRunner(bunDB, cfg.Database.MigrationsDir)
		if err := runner.Up(); err != nil {
			log.Fatal("DATABASE", fmt.Sprintf("Migrations failed: %v", err))
		}
		if version, err := runner.Version(); err == nil {
			log.Info("DATABASE", fmt.Sprintf("Schema at version %d", version))
		}
	}

	publisher := buildPublisher(cfg.Kafka, log)
	if producer, ok := publisher.(*kafka.Producer); ok {
		defer producer.Close()
	}

	service := booking.NewService(&db.DB{Bun: bunDB}, publisher, log)
	handler := booking_api.NewHandler(service, log)

	r := chi.NewRouter()
	handler.Routes(r)

	server := &http.Server{
		Addr:         cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("APP", fmt.Sprintf("Booking Service listening on %s", cfg.Server.Port))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("APP", fmt.Sprintf("HTTP error: %v", err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctxShutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = server.Shutdown(ctxShutdown)
	log.Info("APP", "Booking service shutdown complete")
}
