package producer

import (
	"context"
	"sync"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// SendResult — итог отправки. Успех ⇔ Err == nil.
// Retries — сколько повторов понадобилось (0 — с первой попытки).
type SendResult struct {
	Location domain.Location
	Retries  int
	Err      error
}

// Future — отложенный результат Send. Завершается ровно один раз.
type Future struct {
	done chan struct{}

	mu        sync.Mutex
	completed bool
	res       SendResult
	callbacks []func(SendResult)
}

func newFuture() *Future {
	return &Future{done: make(chan struct{})}
}

// Done закрывается, когда результат готов.
func (f *Future) Done() <-chan struct{} { return f.done }

// Wait блокируется до результата или отмены ctx.
// Ошибка ctx означает лишь, что ждать перестали: отправка продолжается.
func (f *Future) Wait(ctx context.Context) (SendResult, error) {
	select {
	case <-f.done:
		return f.res, f.res.Err
	case <-ctx.Done():
		return SendResult{}, ctx.Err()
	}
}

// Result — неблокирующая проверка; ok=false, пока отправка не завершена.
func (f *Future) Result() (SendResult, bool) {
	select {
	case <-f.done:
		return f.res, true
	default:
		return SendResult{}, false
	}
}

// OnComplete регистрирует колбэк. Колбэки выполняются на горутине отправки,
// а для уже завершённого Future — на новой горутине; никогда на горутине вызывающего.
func (f *Future) OnComplete(fn func(SendResult)) {
	f.mu.Lock()
	if f.completed {
		res := f.res
		f.mu.Unlock()
		go fn(res)
		return
	}
	f.callbacks = append(f.callbacks, fn)
	f.mu.Unlock()
}

func (f *Future) complete(res SendResult) {
	f.mu.Lock()
	if f.completed {
		f.mu.Unlock()
		return
	}
	f.completed = true
	f.res = res
	cbs := f.callbacks
	f.callbacks = nil
	close(f.done)
	f.mu.Unlock()

	for _, cb := range cbs {
		cb(res)
	}
}
