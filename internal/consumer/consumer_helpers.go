package consumer

import (
	"context"
	"fmt"
	"time"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/pkg/backoff"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

// deliver передаёт записи обработчику строго по порядку и возвращает
// следующий оффсет после обработанного (или отправленного в dead-letter) префикса.
// Ошибка возвращается только при остановке по политике halt.
func (c *Consumer) deliver(ctx context.Context, from int64, entries []domain.Entry) (int64, error) {
	// Обработка начатой записи не прерывается отменой ctx: мягкая остановка.
	drain := context.WithoutCancel(ctx)
	spanCtx, span := c.tracer.Start(drain, "consumer.deliver", c.spanAttrs(len(entries)))
	defer span.End()

	next := from
	for _, e := range entries {
		if e.Offset < next {
			continue
		}
		if ctx.Err() != nil {
			return next, nil
		}

		msg := domain.NewMessage(c.cfg.Topic, c.cfg.Partition, e)
		err := c.handleWithRetry(ctx, spanCtx, msg)
		if err == nil {
			next = e.Offset + 1
			c.incHandled()
			metrics.MessagesProcessed.WithLabelValues(c.cfg.Topic).Inc()
			continue
		}

		// Остановка во время ожидания повтора: запись не обработана и будет доставлена снова.
		if ctx.Err() != nil {
			c.log.Warnf(c.recordCtx(ctx, e.Offset), "stop requested, offset=%d left unprocessed: %v", e.Offset, err)
			return next, nil
		}

		herr := &domain.HandlerError{Topic: c.cfg.Topic, Partition: c.cfg.Partition, Offset: e.Offset, Err: err}
		spanFail(span, herr)

		if c.cfg.FailurePolicy != PolicyDeadLetter {
			c.log.Errorf(c.recordCtx(ctx, e.Offset), "halting consumer group=%s on offset=%d after %d attempt(s): %v",
				c.cfg.Group, e.Offset, c.cfg.HandlerRetries+1, err)
			return next, fmt.Errorf("%w: %w", ErrHalted, herr)
		}

		if ferr := c.forward(ctx, spanCtx, msg, herr); ferr != nil {
			if ctx.Err() != nil {
				return next, nil
			}
			c.log.Errorf(c.recordCtx(ctx, e.Offset), "dead-letter forward failed offset=%d: %v (halting)", e.Offset, ferr)
			return next, fmt.Errorf("%w: dead-letter forward: %w (handler: %w)", ErrHalted, ferr, herr)
		}
		next = e.Offset + 1
		c.incDeadLettered()
		metrics.MessagesDeadLettered.WithLabelValues(c.cfg.Topic).Inc()
		c.log.Warnf(c.recordCtx(ctx, e.Offset), "offset=%d dead-lettered after %d attempt(s): %v",
			e.Offset, c.cfg.HandlerRetries+1, err)
	}
	return next, nil
}

// handleWithRetry — до HandlerRetries+1 попыток обработать одну запись.
func (c *Consumer) handleWithRetry(ctx, base context.Context, msg domain.Message) error {
	return c.retry(ctx, c.cfg.HandlerRetries+1, nil, func() error {
		err := c.handleOnce(base, msg)
		if err != nil {
			metrics.MessagesFailed.WithLabelValues(c.cfg.Topic).Inc()
			c.log.Warnf(c.recordCtx(ctx, msg.Offset), "process failed offset=%d: %v", msg.Offset, err)
		}
		return err
	})
}

// handleOnce — один вызов обработчика с таймаутом; паника превращается в ошибку.
func (c *Consumer) handleOnce(base context.Context, msg domain.Message) (err error) {
	hctx, cancel := context.WithTimeout(c.recordCtx(base, msg.Offset), c.cfg.HandlerTimeout)
	defer cancel()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
		}
	}()
	return c.handler.HandleMessage(hctx, msg)
}

func (c *Consumer) forward(ctx, base context.Context, msg domain.Message, cause error) error {
	return c.retry(ctx, c.cfg.HandlerRetries+1, domain.IsTransient, func() error {
		fctx, cancel := context.WithTimeout(base, c.cfg.CommitTimeout)
		defer cancel()
		return domain.FromContext(c.dlq.Forward(fctx, msg, cause))
	})
}

// commit фиксирует следующий оффсет. Не больше уже закоммиченного — пропускаем.
// Исчерпав повторы, только логирует: следующий коммит перекроет этот.
func (c *Consumer) commit(ctx context.Context, next int64) {
	if next <= c.committedOffset() {
		return
	}
	rec := domain.CommitRecord{Group: c.cfg.Group, Topic: c.cfg.Topic, Partition: c.cfg.Partition, Offset: next}

	err := c.retry(ctx, c.cfg.CommitRetries, domain.IsTransient, func() error {
		cctx, cancel := context.WithTimeout(ctx, c.cfg.CommitTimeout)
		defer cancel()
		return domain.FromContext(c.offsets.Commit(cctx, rec))
	})
	if err != nil {
		metrics.OffsetCommits.WithLabelValues(c.cfg.Group, "error").Inc()
		c.log.Warnf(ctx, "commit failed group=%s topic=%s partition=%d offset=%d: %v",
			c.cfg.Group, c.cfg.Topic, c.cfg.Partition, next, err)
		return
	}
	metrics.OffsetCommits.WithLabelValues(c.cfg.Group, "ok").Inc()
	c.setCommitted(next)
}

// retry выполняет fn до attempts раз (attempts <= 0 — пока не отменён ctx).
// retryable решает, повторять ли ошибку; nil — повторять любую.
func (c *Consumer) retry(ctx context.Context, attempts int, retryable func(error) bool, fn func() error) error {
	delay := c.cfg.RetryInitial
	for i := 1; ; i++ {
		err := fn()
		if err == nil {
			return nil
		}
		if retryable != nil && !retryable(err) {
			return err
		}
		if attempts > 0 && i >= attempts {
			return err
		}
		if !c.sleep(ctx, c.withJitterEqual(delay)) {
			return fmt.Errorf("%w (last error: %w)", ctx.Err(), err)
		}
		delay = backoff.Next(delay, c.cfg.RetryMax)
	}
}

// withJitterEqual — половина задержки фиксирована, вторая половина — случайная.
func (c *Consumer) withJitterEqual(d time.Duration) time.Duration {
	return backoff.WithJitterEqual(c.jitterRand, d)
}

func (c *Consumer) incHandled() {
	c.mu.Lock()
	c.handled++
	c.mu.Unlock()
}

func (c *Consumer) incDeadLettered() {
	c.mu.Lock()
	c.deadLettered++
	c.mu.Unlock()
}
