package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"safespace-chat/internal/adapters/kafka"
	"safespace-chat/internal/api/handlers"
	"safespace-chat/internal/api/middleware"
	"safespace-chat/internal/api/routes"
	"safespace-chat/internal/chat"
	"safespace-chat/internal/config"
	"safespace-chat/internal/crisis"
	"safespace-chat/internal/database"
	"safespace-chat/internal/repositories/postgres"
	"safespace-chat/internal/services"
	"safespace-chat/internal/websocket"

	"github.com/gin-gonic/gin"
)

func newLogger(cfg config.LogConfig) *slog.Logger {
	opts := &slog.HandlerOptions{Level: config.ParseLevel(cfg.Level)}
	if cfg.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stdout, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stdout, opts))
}

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		slog.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	log := newLogger(cfg.Log)
	slog.SetDefault(log)
	gin.SetMode(gin.ReleaseMode)

	log.Info("Starting anonymous chat server")

	sinks := crisis.MultiSink{crisis.LogSink{Log: log}}
	healthChecks := map[string]handlers.Pinger{
		"redis":    nil,
		"database": nil,
		"kafka":    nil,
	}
	var limiter middleware.RateLimiter
	var incidents handlers.IncidentStore

	if cfg.Redis.Enabled() {
		redisClient, err := database.NewRedisConnection(cfg.Redis, log)
		if err != nil {
			log.Error("Failed to connect to Redis", "error", err)
			os.Exit(1)
		}
		defer redisClient.Close()

		redisService := services.NewRedisService(redisClient, cfg.Redis.AlertChannel)
		limiter = redisService
		sinks = append(sinks, redisService.AlertSink())
		healthChecks["redis"] = redisService
	}

	if cfg.Database.Enabled() {
		db, err := database.NewSQLConnection(cfg.Database, log)
		if err != nil {
			log.Error("Failed to connect to database", "driver", cfg.Database.Driver, "error", err)
			os.Exit(1)
		}
		sqlDB, err := db.DB()
		if err != nil {
			log.Error("Failed to get database instance", "error", err)
			os.Exit(1)
		}
		defer sqlDB.Close()

		crisisRepo := postgres.NewCrisisRepository(db)
		incidents = crisisRepo
		sinks = append(sinks, crisisRepo.AlertSink())
		healthChecks["database"] = handlers.PingerFunc(sqlDB.PingContext)
	}

	if cfg.Kafka.Enabled() {
		kafkaClient, producer, err := kafka.InitKafkaProducer(cfg.Kafka)
		if err != nil {
			log.Error("Failed to create Kafka producer", "brokers", cfg.Kafka.Brokers, "error", err)
			os.Exit(1)
		}
		defer kafkaClient.Close()
		alertProducer := kafka.NewCrisisAlertProducer(producer, cfg.Kafka.CrisisTopic, log)
		defer alertProducer.Close()

		sinks = append(sinks, alertProducer)
		healthChecks["kafka"] = kafka.ClientPinger{Client: kafkaClient}
	}

	detector, err := crisis.NewDetector(cfg.Chat.CrisisExtraKeywords...)
	if err != nil {
		log.Error("Failed to build crisis detector", "error", err)
		os.Exit(1)
	}
	log.Info("Crisis detector ready", "keywords", len(detector.Keywords()))

	rooms := chat.NewRoomRegistry(cfg.Chat.HistoryLimit)
	directory := chat.NewParticipantDirectory(rooms)
	pipeline := chat.NewMessagePipeline(rooms, directory, detector, cfg.Chat.MaxContentLength, log)

	hub := websocket.NewHub(rooms, directory, pipeline, sinks, log)
	hub.SetSendBuffer(cfg.Chat.SendBuffer)
	hub.SetHeartbeatInterval(cfg.Chat.HeartbeatInterval)
	hub.SetHistoryPage(cfg.Chat.HistoryPage)
	hub.Metrics().SetMonitorCallback(websocket.SlowOperationMonitor(log, cfg.Chat.SlowOperationThreshold))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go hub.Run(ctx)

	sweeper := chat.NewRetentionSweeper(rooms, cfg.Chat.RetentionMaxAge, cfg.Chat.SweepInterval, log)
	sweeper.Start(ctx)
	healthChecks["retentionSweeper"] = handlers.PingerFunc(func(context.Context) error {
		if !sweeper.IsRunning() {
			return errors.New("retention sweeper stopped")
		}
		return nil
	})

	router := routes.NewRouter(routes.Options{
		Hub:               hub,
		Rooms:             rooms,
		Incidents:         incidents,
		Limiter:           limiter,
		HealthChecks:      healthChecks,
		AllowedOrigins:    cfg.Server.AllowedOrigins,
		ConnectRateLimit:  cfg.Chat.ConnectRateLimit,
		ConnectRateWindow: cfg.Chat.ConnectRateWindow,
		Logger:            log,
	})
	router.SetupRoutes()

	server := &http.Server{
		Addr:         cfg.Server.Addr(),
		Handler:      router.GetEngine(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		log.Info("Server starting", "address", server.Addr, "rooms", rooms.RoomCount())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	log.Info("Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	sweeper.Stop()
	if err := hub.Stop(shutdownCtx); err != nil {
		log.Warn("Crisis alerts still pending at shutdown", "error", err)
	}

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Server stopped")
}
