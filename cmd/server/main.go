package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/quantpilot/advisor/internal/advisor"
	"github.com/quantpilot/advisor/internal/api"
	"github.com/quantpilot/advisor/internal/config"
	"github.com/quantpilot/advisor/internal/cycle"
	"github.com/quantpilot/advisor/internal/database"
	"github.com/quantpilot/advisor/internal/kafka"
	"github.com/quantpilot/advisor/internal/marketdata"
	"github.com/quantpilot/advisor/internal/scheduler"
	"github.com/quantpilot/advisor/internal/snapshot"
	"github.com/quantpilot/advisor/pkg/logger"
)

func main() {
	// .env is optional; real deployments set the environment directly.
	_ = godotenv.Load()

	cfg := config.Load()

	log := logger.New(logger.Config{
		Level:  cfg.Log.Level,
		Pretty: cfg.Log.Pretty,
	})
	logger.SetGlobalLogger(log)

	log.Info().Msg("Starting portfolio advisor service")

	db, err := database.New(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer db.Close()

	if err := db.RunMigrations("db/migrations"); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}
	log.Info().Msg("Database migrations applied")

	// Market data: Yahoo daily bars, optionally fronted by a Redis cache.
	var feed marketdata.Feed = marketdata.NewYahooFeed()
	if cfg.Redis.Enabled {
		redisClient := redis.NewClient(&redis.Options{
			Addr: cfg.Redis.Addr,
			DB:   cfg.Redis.DB,
		})
		defer redisClient.Close()
		feed = marketdata.NewCachedFeed(feed, redisClient, cfg.Redis.TTL, log)
		log.Info().Str("addr", cfg.Redis.Addr).Msg("Candle cache enabled")
	}
	syncer := marketdata.NewSyncer(db, feed, log)

	reader := snapshot.NewReader(db, log)

	advisorClient := advisor.NewOpenAIClient(advisor.OpenAIConfig{
		BaseURL:       cfg.Advisor.BaseURL,
		APIKey:        cfg.Advisor.APIKey,
		DailyModel:    cfg.Advisor.DailyModel,
		ResearchModel: cfg.Advisor.ResearchModel,
	}, log)

	var publisher cycle.EventPublisher
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		defer producer.Close()
		publisher = producer
		log.Info().Strs("brokers", cfg.Kafka.Brokers).Str("topic", cfg.Kafka.Topic).Msg("Event publishing enabled")
	}

	controller := cycle.NewController(reader, syncer, advisorClient, db, publisher, cycle.Config{
		TacticalTimeout:  cfg.Advisor.TacticalTimeout,
		StrategicTimeout: cfg.Advisor.StrategicTimeout,
		FallbackTickers:  cfg.Market.FallbackTickers,
	}, log)

	sched := scheduler.New(log)
	if cfg.Schedule.Enabled {
		if err := sched.AddJob(cfg.Schedule.Tactical, scheduler.NewTacticalCycleJob(controller, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register tactical cycle job")
		}
		if err := sched.AddJob(cfg.Schedule.Strategic, scheduler.NewStrategicCycleJob(controller, log)); err != nil {
			log.Fatal().Err(err).Msg("Failed to register strategic cycle job")
		}
		sched.Start()
		defer sched.Stop()
	}

	handler := api.NewHandler(db, reader, controller, log)
	router := api.SetupRoutes(handler)

	addr := cfg.Server.Host + ":" + cfg.Server.Port
	srv := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 35 * time.Minute, // manual strategic triggers wait on deep research
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("HTTP shutdown failed")
	}

	log.Info().Msg("Stopped")
}
