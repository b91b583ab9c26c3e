// Scenarist Server — бэкенд выполнения сценариев.
//
// Сервер:
//   - Держит движок выполнения с зарегистрированными плагинами
//   - Управляет каналами (очереди RabbitMQ и cron-расписания)
//   - Пишет записи выполнений в Postgres
//   - Отдаёт HTTP API для сценариев, выполнений и каналов
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mkovrov/scenarist/internal/api"
	"github.com/mkovrov/scenarist/internal/channel"
	"github.com/mkovrov/scenarist/internal/engine"
	"github.com/mkovrov/scenarist/internal/execlog"
	"github.com/mkovrov/scenarist/internal/mq"
	"github.com/mkovrov/scenarist/internal/plugins"
	"github.com/mkovrov/scenarist/internal/store"
	"github.com/mkovrov/scenarist/internal/telemetry"
)

func main() {
	// Инициализируем structured logging
	logger := telemetry.SetupLogger()
	logger.Info("starting scenarist-server")

	// graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// DB pool
	pool, err := store.NewPool(ctx)
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()
	logger.Info("database connected")

	st := store.NewPostgres(pool)

	// RabbitMQ (опционально: без него работают только cron-каналы)
	var publisher *mq.Publisher
	var mqConn *mq.Connection
	mqURL := os.Getenv("RABBITMQ_URL")
	if mqURL == "" {
		mqURL = mq.DefaultURL()
	}

	mqConn, err = mq.NewConnection(mqURL, logger)
	if err != nil {
		logger.Warn("RabbitMQ not available, queue channels disabled", "error", err)
		mqConn = nil
	} else {
		defer mqConn.Close()
		logger.Info("RabbitMQ connected")

		// Создаём топологию
		if err := mq.SetupTopology(ctx, mqConn); err != nil {
			logger.Warn("failed to setup topology", "error", err)
		}

		publisher = mq.NewPublisher(mqConn, logger)
	}

	// Журнал выполнений
	recorder := execlog.New(execlog.Config{
		Verbosity: execlog.ParseVerbosity(os.Getenv("LOG_VERBOSITY")),
		Sink:      execlog.NewStoreSink(st),
		Logger:    logger,
	})

	// Движок с плагинами
	eng := engine.New(engine.Config{
		Recorder:             recorder,
		MaxStepsPerExecution: envInt("MAX_STEPS_PER_EXECUTION", 0),
		Logger:               logger,
	})

	for _, p := range []engine.Plugin{
		plugins.NewHTTPCall(),
		plugins.NewStorage(st),
		plugins.NewRouter(),
		plugins.NewClock(),
	} {
		if err := eng.RegisterPlugin(p); err != nil {
			logger.Error("failed to register plugin", "plugin", p.Name(), "error", err)
			os.Exit(1)
		}
	}

	if err := eng.InitPlugins(ctx); err != nil {
		logger.Error("failed to initialize plugins", "error", err)
		os.Exit(1)
	}

	// Менеджер каналов
	manager := channel.NewManager(channel.Config{
		Store:         st,
		Engine:        eng,
		SourceFactory: channel.NewSourceFactory(mqConn, logger),
		Publisher:     resultPublisher(publisher),
		Logger:        logger,
		MaxConcurrent: envInt("MAX_CONCURRENT_EXECUTIONS", 0),
	})

	if err := manager.Initialize(ctx); err != nil {
		logger.Error("failed to initialize channels", "error", err)
		os.Exit(1)
	}

	// HTTP API
	handler := api.NewHandler(api.Config{
		Store:   st,
		Engine:  eng,
		Manager: manager,
		Logger:  logger,
	})

	mux := http.NewServeMux()
	handler.RegisterRoutes(mux)

	addr := ":8080"
	if v := os.Getenv("API_PORT"); v != "" {
		addr = ":" + v
	}

	server := &http.Server{
		Addr:    addr,
		Handler: mux,
	}

	go func() {
		logger.Info("listening", "addr", addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	// Останавливаем слушателей каналов, затем HTTP сервер
	stopCtx, stopCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer stopCancel()

	manager.StopAllPolling(stopCtx)

	if err := server.Shutdown(stopCtx); err != nil {
		logger.Error("shutdown error", "error", err)
	}

	logger.Info("stopped")
}

// resultPublisher оборачивает nil *mq.Publisher в nil интерфейс.
func resultPublisher(p *mq.Publisher) channel.ResultPublisher {
	if p == nil {
		return nil
	}
	return p
}

// envInt читает целочисленную переменную окружения.
func envInt(name string, defaultVal int) int {
	if v := os.Getenv(name); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultVal
}
