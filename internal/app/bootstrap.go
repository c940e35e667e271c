package app

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/Gunvolt24/eventpipe/config"
	cachemem "github.com/Gunvolt24/eventpipe/internal/cache/memory"
	"github.com/Gunvolt24/eventpipe/internal/consumer"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/internal/producer"
	rest "github.com/Gunvolt24/eventpipe/internal/transport/http"
	"github.com/Gunvolt24/eventpipe/internal/usecase"
	"github.com/Gunvolt24/eventpipe/pkg/logger"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
	"github.com/Gunvolt24/eventpipe/pkg/telemetry"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

// App — собранное приложение и его внешние интерфейсы (HTTP, консьюмеры, продюсер).
type App struct {
	Logger          ports.Logger          // логгер
	HTTPServer      *http.Server          // HTTP-сервер
	Consumer        ports.MessageConsumer // консьюмеры всех подписок
	Producer        Drainer               // продюсер; nil — нечего дожидаться
	gracefulTimeout time.Duration         // время ожидания завершения HTTP-сервера и продюсера
}

// Drainer — компонент, который при остановке дожидается незавершённой работы.
type Drainer interface {
	Close(ctx context.Context) error
}

// Cleanup — функция освобождения ресурсов.
type Cleanup func()

// applyGinMode — устанавливает режим Gin по строке;
// неизвестное значение → debug и предупреждение в лог.
func applyGinMode(ctx context.Context, mode string, log ports.Logger) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "release":
		gin.SetMode(gin.ReleaseMode)
	case "test":
		gin.SetMode(gin.TestMode)
	case "", "debug":
		gin.SetMode(gin.DebugMode)
	default:
		gin.SetMode(gin.DebugMode)
		log.Warnf(ctx, "unknown GIN_MODE=%q, fallback to debug", mode)
	}
}

// Bootstrap — собирает зависимости и возвращает приложение, функцию очистки и ошибку.
func Bootstrap(ctx context.Context, cfg *config.Config) (*App, Cleanup, error) {
	// Логгер (dev/prod режим задаётся конфигурацией).
	logg, cleanupLogger, err := logger.NewZapLogger(cfg.Logger.IsProd)
	if err != nil {
		return nil, func() {}, err
	}

	// Ресурсы закрываются в обратном порядке.
	var closers []func()
	fail := func(err error) (*App, Cleanup, error) {
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if cErr := cleanupLogger(); cErr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cErr)
		}
		return nil, func() {}, err
	}

	// Регистрация метрик (Prometheus).
	metrics.MustRegister()

	// Трейсинг OTEL (при включённой конфигурации); по умолчанию — no-op.
	if cfg.Tracing.Enabled {
		shutdownTrace, tErr := telemetry.SetupTracing(ctx, telemetry.Config{
			ServiceName: cfg.Tracing.ServiceName,
			Endpoint:    cfg.Tracing.Endpoint,
			SampleRatio: cfg.Tracing.SampleRatio,
		})
		if tErr != nil {
			logg.Warnf(ctx, "failed to setup tracing: %v", tErr)
		} else {
			logg.Infof(ctx, "otel tracing enabled service=%s endpoint=%s sample=%.2f",
				cfg.Tracing.ServiceName, cfg.Tracing.Endpoint, cfg.Tracing.SampleRatio)
			closers = append(closers, func() {
				if err := shutdownTrace(context.Background()); err != nil {
					logg.Warnf(ctx, "shutdown tracing: %v", err)
				}
			})
		}
	}

	// Транспорт: брокер в процессе или внешний Kafka.
	tr, err := openTransport(ctx, cfg, logg)
	if err != nil {
		return fail(err)
	}

	// Хранилище оффсетов.
	offsets, closeOffsets, err := openOffsetStore(ctx, cfg, logg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeOffsets)

	// Продюсер.
	prod := producer.New(producer.Config{
		MaxRetries:     cfg.Producer.MaxRetries,
		RetryBase:      cfg.Producer.RetryBase,
		RetryMax:       cfg.Producer.RetryMax,
		AttemptTimeout: cfg.Producer.AttemptTimeout,
		Jitter:         cfg.Producer.Jitter,
	}, tr, logg)

	// Dead-letter (только для политики dead-letter).
	policy, err := consumer.ParseFailurePolicy(cfg.Consumer.FailurePolicy)
	if err != nil && cfg.Consumer.Enabled {
		return fail(err)
	}
	dlq, closeDLQ, err := openDeadLetter(cfg, policy, tr, logg)
	if err != nil {
		return fail(err)
	}
	closers = append(closers, closeDLQ)

	// Сборка доменного слоя.
	registry := consumer.NewRegistry(tr, offsets, dlq, logg)
	service := usecase.NewEventService(
		usecase.Config{PublishTimeout: cfg.HTTP.PublishTimeout, DefaultTopic: cfg.HTTP.DefaultTopic},
		usecase.Deps{
			Sender:     prod,
			Fetcher:    tr,
			Catalog:    tr,
			Supervisor: registry,
			Validator:  validate.NewEventValidator(validate.DefaultMaxValueBytes),
			Seen:       cachemem.NewSeenCache(cfg.Cache.Capacity, cfg.Cache.TTL),
			Log:        logg,
		},
	)

	// Подписки: по консьюмеру на каждую партицию каждого топика.
	if cfg.Consumer.Enabled {
		for _, topic := range cfg.Consumer.Topics {
			topic = strings.TrimSpace(topic)
			if topic == "" {
				continue
			}
			if err := registry.SubscribeAll(ctx, consumerTemplate(cfg, topic, policy), service); err != nil {
				return fail(err)
			}
			logg.Infof(ctx, "subscribed group=%s topic=%s policy=%s", cfg.Consumer.Group, topic, policy)
		}
	}

	// Режим Gin.
	applyGinMode(ctx, cfg.HTTP.GinMode, logg)

	// Имя сервиса для otelgin (только при включённом трейсинге).
	otelServiceName := ""
	if cfg.Tracing.Enabled {
		otelServiceName = cfg.Tracing.ServiceName
	}

	// Роутер и HTTP-сервер.
	httpHandler := rest.NewHandler(service, logg, cfg.HTTP.HandlerTimeout)
	router := rest.NewRouter(httpHandler, otelServiceName)

	httpSrv := &http.Server{
		Addr:              cfg.HTTP.Addr,
		Handler:           router,
		ReadTimeout:       cfg.HTTP.ReadTimeout,
		WriteTimeout:      cfg.HTTP.WriteTimeout,
		ReadHeaderTimeout: cfg.HTTP.ReadHeaderTimeout,
		IdleTimeout:       cfg.HTTP.IdleTimeout,
	}

	app := &App{
		Logger:          logg,
		HTTPServer:      httpSrv,
		Consumer:        registry,
		Producer:        prod,
		gracefulTimeout: cfg.HTTP.GracefulTimeout,
	}

	// Очистка ресурсов (в обратном порядке).
	cleanup := func() {
		if err := registry.Close(); err != nil {
			logg.Warnf(ctx, "consumer registry close error: %v", err)
		}
		for i := len(closers) - 1; i >= 0; i-- {
			closers[i]()
		}
		if cerr := cleanupLogger(); cerr != nil {
			logg.Warnf(ctx, "cleanup logger: %v", cerr)
		}
	}

	return app, cleanup, nil
}

// Run — запускает HTTP-сервер и консьюмеров; ждёт отмены контекста или ошибки и останавливает их.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 2)

	// Запуск консьюмеров.
	runCtx, stopConsumers := context.WithCancel(ctx)
	defer stopConsumers()
	go func() {
		a.Logger.Infof(ctx, "consumers starting")
		if err := a.Consumer.Run(runCtx); err != nil {
			errCh <- err
		}
	}()

	// Запуск HTTP-сервера.
	go func() {
		a.Logger.Infof(ctx, "http server starting (addr=%s)", a.HTTPServer.Addr)
		if err := a.HTTPServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	// Ожидание сигнала остановки или фоновой ошибки.
	select {
	case <-ctx.Done():
		a.Logger.Infof(ctx, "shutdown requested, starting graceful shutdown")
	case err := <-errCh:
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			a.Logger.Infof(ctx, "background component stopped: %v", err)
		} else {
			a.Logger.Warnf(ctx, "background error: %v", err)
		}
	}

	gt := a.gracefulTimeout
	if gt <= 0 {
		gt = 5 * time.Second
	}

	// Корректная остановка HTTP-сервера: новые публикации больше не принимаются.
	shutdownCtx, cancel := context.WithTimeout(context.Background(), gt)
	defer cancel()

	if err := a.HTTPServer.Shutdown(shutdownCtx); err != nil {
		a.Logger.Warnf(ctx, "http server shutdown failed: %v", err)
	} else {
		a.Logger.Infof(ctx, "http server stopped gracefully")
	}

	// Консьюмеры дорабатывают текущий батч и коммитят обработанное.
	if err := a.Consumer.Close(); err != nil {
		a.Logger.Warnf(ctx, "consumer close error: %v", err)
	}
	stopConsumers()

	// Продюсер дожидается незавершённых отправок.
	if a.Producer != nil {
		if err := a.Producer.Close(shutdownCtx); err != nil {
			a.Logger.Warnf(ctx, "producer close: %v", err)
		} else {
			a.Logger.Infof(ctx, "producer drained")
		}
	}

	a.Logger.Infof(ctx, "service stopped")
	return nil
}
