// Package backoff — задержки между повторами: экспонента с потолком, equal-jitter и сон с учётом контекста.
package backoff

import (
	"context"
	"math/rand"
	"time"
)

// Exponential возвращает base × 2^attempt, но не больше max.
// attempt считается с нуля; base <= 0 даёт нулевую задержку.
func Exponential(base, max time.Duration, attempt int) time.Duration {
	if base <= 0 {
		return 0
	}
	if attempt < 0 {
		attempt = 0
	}
	d := base
	for i := 0; i < attempt; i++ {
		d *= 2
		if max > 0 && d >= max {
			return max
		}
		if d <= 0 { // переполнение
			return max
		}
	}
	if max > 0 && d > max {
		return max
	}
	return d
}

// Next — следующее время ожидания: удвоение текущего с учётом max.
func Next(current, max time.Duration) time.Duration {
	current *= 2
	if current > max {
		return max
	}
	return current
}

// WithJitterEqual — умеренная случайность: половина задержки фиксирована,
// вторая половина — случайная.
func WithJitterEqual(r *rand.Rand, d time.Duration) time.Duration {
	if d <= 0 {
		return 0
	}
	half := d / 2
	var n int64
	if r != nil {
		n = r.Int63n(int64(d-half) + 1)
	} else {
		n = rand.Int63n(int64(d-half) + 1) //nolint:gosec // для джиттера криптостойкость не нужна
	}
	return half + time.Duration(n)
}

// Sleep ждёт d или останавливается по контексту. false — контекст отменён.
func Sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
