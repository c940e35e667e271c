// Package producer — клиент публикации с гарантией at-least-once.
//
// Send не блокирует вызывающего: каждая отправка выполняется на своей горутине,
// временные ошибки (таймаут, транспорт) повторяются с экспоненциальной задержкой,
// постоянные возвращаются сразу. Повтор после таймаута может записать дубликат:
// дедупликацией занимается потребитель.
package producer

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/backoff"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

// ErrProducerClosed — продюсер закрыт: новые отправки не принимаются.
var ErrProducerClosed = errors.New("producer closed")

// Config — политика повторов.
type Config struct {
	MaxRetries     int           // сколько повторов после первой попытки
	RetryBase      time.Duration // задержка перед первым повтором
	RetryMax       time.Duration // потолок задержки
	AttemptTimeout time.Duration // таймаут одной попытки
	Jitter         bool          // equal-jitter поверх экспоненты
}

func (c Config) withDefaults() Config {
	if c.MaxRetries < 0 {
		c.MaxRetries = 0
	}
	if c.RetryBase <= 0 {
		c.RetryBase = 100 * time.Millisecond
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 5 * time.Second
	}
	if c.AttemptTimeout <= 0 {
		c.AttemptTimeout = 5 * time.Second
	}
	return c
}

// InFlightSend — отправка, которая ещё не завершилась.
type InFlightSend struct {
	ID        uuid.UUID
	Topic     string
	Attempts  int
	StartedAt time.Time
}

// Producer — реализация ProducerClient поверх ports.Appender.
type Producer struct {
	cfg      Config
	appender ports.Appender
	log      ports.Logger
	tracer   trace.Tracer

	// ctx живёт до конца Close: его отмена прерывает ожидание повторов.
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	closed   bool
	inflight map[uuid.UUID]*InFlightSend

	jitterMu   sync.Mutex
	jitterRand *rand.Rand

	sleep func(ctx context.Context, d time.Duration) bool
}

func New(cfg Config, appender ports.Appender, log ports.Logger) *Producer {
	ctx, cancel := context.WithCancel(context.Background())
	return &Producer{
		cfg:        cfg.withDefaults(),
		appender:   appender,
		log:        log,
		tracer:     otel.Tracer("github.com/Gunvolt24/eventpipe/internal/producer"),
		ctx:        ctx,
		cancel:     cancel,
		inflight:   make(map[uuid.UUID]*InFlightSend),
		jitterRand: rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:      backoff.Sleep,
	}
}

// Send публикует запись; партиция выбирается брокером по ключу.
func (p *Producer) Send(topic string, key, value []byte) *Future {
	return p.SendRequest(domain.AppendRequest{Topic: topic, Key: key, Value: value})
}

// SendRequest — Send с полным запросом (явная партиция, время записи).
func (p *Producer) SendRequest(req domain.AppendRequest) *Future {
	fut := newFuture()

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		metrics.ProducerSends.WithLabelValues(req.Topic, "closed").Inc()
		fut.complete(SendResult{Err: ErrProducerClosed})
		return fut
	}
	id := uuid.New()
	p.inflight[id] = &InFlightSend{ID: id, Topic: req.Topic, StartedAt: time.Now()}
	p.wg.Add(1)
	p.mu.Unlock()

	metrics.ProducerInFlight.Inc()
	go p.run(id, req, fut)
	return fut
}

func (p *Producer) run(id uuid.UUID, req domain.AppendRequest, fut *Future) {
	defer p.wg.Done()

	for attempt := 0; ; attempt++ {
		p.markAttempt(id, attempt+1)

		loc, err := p.attempt(req, attempt)
		if err == nil {
			p.finish(id, fut, SendResult{Location: loc, Retries: attempt}, "ok")
			return
		}

		// Close прервал попытку: это не ответ брокера.
		if p.ctx.Err() != nil {
			p.log.Warnf(p.ctx, "send to topic=%s aborted by close on attempt=%d: %v", req.Topic, attempt+1, err)
			p.finish(id, fut, SendResult{Retries: attempt, Err: fmt.Errorf("%w: %w", ErrProducerClosed, err)}, "closed")
			return
		}
		if !domain.IsTransient(err) {
			p.log.Errorf(p.ctx, "send to topic=%s failed permanently after %d attempt(s): %v", req.Topic, attempt+1, err)
			p.finish(id, fut, SendResult{Retries: attempt, Err: err}, "permanent")
			return
		}
		if attempt >= p.cfg.MaxRetries {
			p.log.Errorf(p.ctx, "send to topic=%s gave up after %d attempt(s): %v", req.Topic, attempt+1, err)
			p.finish(id, fut, SendResult{Retries: attempt, Err: err}, "transient")
			return
		}

		delay := p.delay(attempt)
		metrics.ProducerRetries.WithLabelValues(req.Topic).Inc()
		p.log.Warnf(p.ctx, "send to topic=%s attempt=%d failed: %v (will retry in %s)", req.Topic, attempt+1, err, delay)

		if !p.sleep(p.ctx, delay) {
			p.finish(id, fut, SendResult{Retries: attempt, Err: fmt.Errorf("%w: %w", ErrProducerClosed, err)}, "closed")
			return
		}
	}
}

// attempt — одна попытка записи со своим таймаутом и спаном.
func (p *Producer) attempt(req domain.AppendRequest, attempt int) (domain.Location, error) {
	ctx, cancel := context.WithTimeout(p.ctx, p.cfg.AttemptTimeout)
	defer cancel()

	ctx, span := p.tracer.Start(ctx, "producer.send", trace.WithAttributes(
		attribute.String("messaging.destination", req.Topic),
		attribute.Int("producer.attempt", attempt+1),
	))
	defer span.End()

	loc, err := p.appender.Append(ctx, req)
	if err != nil {
		err = domain.FromContext(err)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.Location{}, err
	}
	span.SetAttributes(
		attribute.Int("messaging.partition", loc.Partition),
		attribute.Int64("messaging.offset", loc.Offset),
	)
	return loc, nil
}

func (p *Producer) delay(attempt int) time.Duration {
	d := backoff.Exponential(p.cfg.RetryBase, p.cfg.RetryMax, attempt)
	if !p.cfg.Jitter {
		return d
	}
	p.jitterMu.Lock()
	defer p.jitterMu.Unlock()
	return backoff.WithJitterEqual(p.jitterRand, d)
}

func (p *Producer) markAttempt(id uuid.UUID, n int) {
	p.mu.Lock()
	if s, ok := p.inflight[id]; ok {
		s.Attempts = n
	}
	p.mu.Unlock()
}

func (p *Producer) finish(id uuid.UUID, fut *Future, res SendResult, result string) {
	p.mu.Lock()
	topic := ""
	if s, ok := p.inflight[id]; ok {
		topic = s.Topic
		delete(p.inflight, id)
	}
	p.mu.Unlock()

	metrics.ProducerInFlight.Dec()
	metrics.ProducerSends.WithLabelValues(topic, result).Inc()
	fut.complete(res)
}

// InFlight — снимок незавершённых отправок, старые первыми.
func (p *Producer) InFlight() []InFlightSend {
	p.mu.Lock()
	out := make([]InFlightSend, 0, len(p.inflight))
	for _, s := range p.inflight {
		out = append(out, *s)
	}
	p.mu.Unlock()

	sort.Slice(out, func(i, j int) bool { return out[i].StartedAt.Before(out[j].StartedAt) })
	return out
}

// Close перестаёт принимать отправки и ждёт завершения текущих.
// Если ctx истёк раньше — ожидающие повторы прерываются с ErrProducerClosed.
func (p *Producer) Close(ctx context.Context) error {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	drained := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(drained)
	}()

	select {
	case <-drained:
		p.cancel()
		return nil
	case <-ctx.Done():
		p.cancel()
		<-drained
		return ctx.Err()
	}
}
