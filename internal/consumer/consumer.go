// Package consumer — консьюмер партиции с гарантией at-least-once.
//
// Порядок внутри партиции: запись N+1 передаётся обработчику только после
// завершения обработки записи N. Оффсет коммитится только после обработки
// (сначала обработка, потом коммит), поэтому падение между ними приводит к
// повторной доставке, но не к потере.
package consumer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/backoff"
	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

// Проверка, что Consumer удовлетворяет интерфейсу верхнего уровня (порт приложения).
var _ ports.MessageConsumer = (*Consumer)(nil)

var (
	ErrAlreadyRunning   = errors.New("consumer already running")
	ErrRunning          = errors.New("consumer is running")
	ErrHalted           = errors.New("consumer halted on handler failure")
	ErrNoFailurePolicy  = errors.New("failure policy is required (halt|dead-letter)")
	ErrNoDeadLetterSink = errors.New("dead-letter policy requires a sink")
)

// Handler — обработчик записей. Ошибка означает, что запись не обработана.
type Handler interface {
	HandleMessage(ctx context.Context, msg domain.Message) error
}

// HandlerFunc — адаптер функции к Handler.
type HandlerFunc func(ctx context.Context, msg domain.Message) error

func (f HandlerFunc) HandleMessage(ctx context.Context, msg domain.Message) error { return f(ctx, msg) }

// Consumer — ConsumerClient одной партиции одной группы.
type Consumer struct {
	cfg     ConsumerConfig
	fetcher ports.Fetcher
	offsets ports.OffsetStore
	handler Handler
	dlq     ports.DeadLetterSink
	log     ports.Logger
	tracer  trace.Tracer

	jitterRand *rand.Rand
	sleep      func(ctx context.Context, d time.Duration) bool

	running atomic.Bool
	state   atomic.Int32

	mu           sync.Mutex
	cancel       context.CancelFunc
	done         chan struct{}
	next         int64
	committed    int64 // -1 — ещё не коммитили
	pendingReset *int64
	handled      int64
	deadLettered int64
	lastErr      string
}

// NewConsumer — конструктор. Политика отказа обязательна; dead-letter требует sink.
func NewConsumer(
	cfg *ConsumerConfig,
	fetcher ports.Fetcher,
	offsets ports.OffsetStore,
	handler Handler,
	dlq ports.DeadLetterSink,
	log ports.Logger,
) (*Consumer, error) {
	if cfg == nil {
		return nil, errors.New("consumer config is nil")
	}
	c := cfg.withDefaults()
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("consumer %s/%s/%d: %w", c.Group, c.Topic, c.Partition, err)
	}
	c.FailurePolicy, _ = ParseFailurePolicy(string(c.FailurePolicy))
	if c.FailurePolicy == PolicyDeadLetter && dlq == nil {
		return nil, ErrNoDeadLetterSink
	}
	if fetcher == nil || offsets == nil || handler == nil {
		return nil, errors.New("fetcher, offsets and handler are required")
	}

	cons := &Consumer{
		cfg:       c,
		fetcher:   fetcher,
		offsets:   offsets,
		handler:   handler,
		dlq:       dlq,
		log:       log,
		tracer:    otel.Tracer("github.com/Gunvolt24/eventpipe/internal/consumer"),
		committed: -1,
		// jitterRand — источник случайности, чтобы рассинхронизировать экспоненциальный backoff.
		jitterRand: rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      backoff.Sleep,
	}
	cons.state.Store(int32(StateIdle))
	return cons, nil
}

// Config — копия действующей конфигурации (с применёнными значениями по умолчанию).
func (c *Consumer) Config() ConsumerConfig { return c.cfg }

// Run — основной цикл:
// 1) начальная позиция: сброс через Reset → закоммиченный оффсет → самый ранний;
// 2) Fetching: временные ошибки повторяются с backoff, постоянные останавливают консьюмер;
// 3) Delivering: записи по одной, с повторами и изоляцией отказов по политике;
// 4) Committing: следующий оффсет после обработанного префикса.
// Отмена ctx — мягкая остановка: текущая запись дообрабатывается, прогресс коммитится.
func (c *Consumer) Run(ctx context.Context) (retErr error) {
	if !c.running.CompareAndSwap(false, true) {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	c.mu.Lock()
	c.cancel = cancel
	c.done = done
	c.lastErr = ""
	c.mu.Unlock()

	defer func() {
		cancel()
		if retErr != nil && !errors.Is(retErr, context.Canceled) {
			c.setLastErr(retErr)
		}
		c.setState(StateStopped)
		c.running.Store(false)
		close(done)
		c.log.Infof(ctx, "consumer stopped group=%s topic=%s partition=%d next=%d: %v",
			c.cfg.Group, c.cfg.Topic, c.cfg.Partition, c.nextOffset(), retErr)
	}()

	c.setState(StateIdle)
	c.log.Infof(ctx, "consumer started group=%s topic=%s partition=%d policy=%s",
		c.cfg.Group, c.cfg.Topic, c.cfg.Partition, c.cfg.FailurePolicy)

	next, err := c.startOffset(runCtx)
	if err != nil {
		if runCtx.Err() != nil {
			return runCtx.Err()
		}
		return err
	}
	c.setNext(next)

	// Экспоненциальный backoff на ошибках Fetch с equal-jitter
	retry := c.cfg.RetryInitial

	for {
		c.setState(StateIdle)
		if runCtx.Err() != nil {
			return runCtx.Err()
		}

		c.setState(StateFetching)
		entries, fetchErr := c.fetch(runCtx, next)
		if fetchErr != nil {
			// Если контекст отменен -> выходим
			if runCtx.Err() != nil {
				return runCtx.Err()
			}
			if !domain.IsTransient(fetchErr) {
				c.log.Errorf(ctx, "fetch failed permanently topic=%s partition=%d offset=%d: %v",
					c.cfg.Topic, c.cfg.Partition, next, fetchErr)
				return fmt.Errorf("fetch %s/%d from %d: %w", c.cfg.Topic, c.cfg.Partition, next, fetchErr)
			}
			// Временная ошибка брокера/сети. Ожидаем и повторяем
			sleep := c.withJitterEqual(retry)
			c.log.Warnf(ctx, "fetch failed: %v (will retry in %s)", fetchErr, sleep)
			if !c.sleep(runCtx, sleep) {
				return runCtx.Err()
			}
			retry = backoff.Next(retry, c.cfg.RetryMax)
			continue
		}

		// Успешный Fetch -> сбрасываем интервал ожидания
		retry = c.cfg.RetryInitial
		if len(entries) == 0 {
			if !c.sleep(runCtx, c.cfg.PollInterval) {
				return runCtx.Err()
			}
			continue
		}
		metrics.MessagesConsumed.WithLabelValues(c.cfg.Topic).Add(float64(len(entries)))

		c.setState(StateDelivering)
		delivered, haltErr := c.deliver(runCtx, next, entries)

		c.setState(StateCommitting)
		c.commit(context.WithoutCancel(runCtx), delivered)
		next = delivered
		c.setNext(next)

		if haltErr != nil {
			return haltErr
		}
	}
}

// startOffset — позиция, с которой начинается чтение.
func (c *Consumer) startOffset(ctx context.Context) (int64, error) {
	c.mu.Lock()
	if c.pendingReset != nil {
		off := *c.pendingReset
		c.pendingReset = nil
		c.mu.Unlock()
		c.log.Infof(ctx, "consumer group=%s topic=%s partition=%d starts from reset offset=%d",
			c.cfg.Group, c.cfg.Topic, c.cfg.Partition, off)
		return off, nil
	}
	c.mu.Unlock()

	var (
		committed int64
		ok        bool
	)
	err := c.retry(ctx, 0, domain.IsTransient, func() error {
		cctx, cancel := context.WithTimeout(ctx, c.cfg.CommitTimeout)
		defer cancel()
		var getErr error
		committed, ok, getErr = c.offsets.Get(cctx, c.cfg.Group, c.cfg.Topic, c.cfg.Partition)
		return domain.FromContext(getErr)
	})
	if err != nil {
		return 0, fmt.Errorf("get committed offset: %w", err)
	}
	if ok {
		c.setCommitted(committed)
		return committed, nil
	}

	var earliest int64
	err = c.retry(ctx, 0, domain.IsTransient, func() error {
		fctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
		defer cancel()
		var eErr error
		earliest, eErr = c.fetcher.EarliestOffset(fctx, c.cfg.Topic, c.cfg.Partition)
		return domain.FromContext(eErr)
	})
	if err != nil {
		return 0, fmt.Errorf("earliest offset: %w", err)
	}
	return earliest, nil
}

func (c *Consumer) fetch(ctx context.Context, from int64) ([]domain.Entry, error) {
	fctx, cancel := context.WithTimeout(ctx, c.cfg.FetchTimeout)
	defer cancel()

	entries, err := c.fetcher.Fetch(fctx, domain.FetchRequest{
		Topic:      c.cfg.Topic,
		Partition:  c.cfg.Partition,
		FromOffset: from,
		MaxRecords: c.cfg.BatchSize,
	})
	if err != nil {
		return nil, domain.FromContext(err)
	}
	return entries, nil
}

// Close — мягкая остановка: ждёт, пока Run завершит текущую обработку и коммит.
func (c *Consumer) Close() error {
	c.mu.Lock()
	cancel, done := c.cancel, c.done
	c.mu.Unlock()

	if cancel == nil || done == nil {
		return nil
	}
	cancel()
	<-done
	return nil
}

// Reset задаёт позицию следующего запуска. Допустим только для неработающего консьюмера.
// Сохранённый в OffsetStore оффсет не переписывается: коммиты монотонны,
// поэтому после сброса назад коммит снова продвинется, только обогнав сохранённое значение.
func (c *Consumer) Reset(offset int64) error {
	if offset < 0 {
		return fmt.Errorf("reset to %d: %w", offset, domain.ErrInvalidOffset)
	}
	if c.running.Load() {
		return ErrRunning
	}
	c.mu.Lock()
	c.pendingReset = &offset
	c.next = offset
	c.mu.Unlock()
	return nil
}

// Running — запущен ли цикл Run.
func (c *Consumer) Running() bool { return c.running.Load() }

func (c *Consumer) State() State { return State(c.state.Load()) }

// Status — снимок состояния для health-check и HTTP.
func (c *Consumer) Status() domain.ConsumerStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.ConsumerStatus{
		Group:           c.cfg.Group,
		Topic:           c.cfg.Topic,
		Partition:       c.cfg.Partition,
		State:           c.State().String(),
		Running:         c.running.Load(),
		NextOffset:      c.next,
		CommittedOffset: c.committed,
		Handled:         c.handled,
		DeadLettered:    c.deadLettered,
		LastError:       c.lastErr,
	}
}

func (c *Consumer) setState(s State) { c.state.Store(int32(s)) }

func (c *Consumer) setNext(off int64) {
	c.mu.Lock()
	c.next = off
	c.mu.Unlock()
}

func (c *Consumer) nextOffset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.next
}

func (c *Consumer) setCommitted(off int64) {
	c.mu.Lock()
	if off > c.committed {
		c.committed = off
	}
	c.mu.Unlock()
}

func (c *Consumer) committedOffset() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.committed
}

func (c *Consumer) setLastErr(err error) {
	c.mu.Lock()
	c.lastErr = err.Error()
	c.mu.Unlock()
}

// recordCtx — контекст обработчика с координатами записи (для логов).
func (c *Consumer) recordCtx(ctx context.Context, off int64) context.Context {
	return ctxmeta.WithRecord(ctx, ctxmeta.Record{
		Group:     c.cfg.Group,
		Topic:     c.cfg.Topic,
		Partition: c.cfg.Partition,
		Offset:    off,
	})
}

func (c *Consumer) spanAttrs(n int) trace.SpanStartOption {
	return trace.WithAttributes(
		attribute.String("messaging.consumer.group", c.cfg.Group),
		attribute.String("messaging.destination", c.cfg.Topic),
		attribute.Int("messaging.partition", c.cfg.Partition),
		attribute.Int("messaging.batch.size", n),
	)
}

func spanFail(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
