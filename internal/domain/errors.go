package domain

import (
	"context"
	"errors"
	"fmt"
)

var (
	ErrUnknownTopic     = errors.New("unknown topic")
	ErrUnknownPartition = errors.New("unknown partition")
	ErrInvalidOffset    = errors.New("invalid offset")
	ErrStorageFull      = errors.New("storage full")
	ErrTimeout          = errors.New("timeout")
	ErrTransport        = errors.New("transport failure")
)

// ErrorKind — класс ошибки, от которого зависит реакция (повтор, отказ, изоляция записи).
type ErrorKind int

const (
	KindPermanent ErrorKind = iota // не повторяем, отдаём наверх сразу
	KindTransient                  // таймаут/сеть — повторяем с backoff
	KindHandler                    // ошибка обработчика консьюмера
)

func (k ErrorKind) String() string {
	switch k {
	case KindTransient:
		return "transient"
	case KindHandler:
		return "handler"
	default:
		return "permanent"
	}
}

// HandlerError — отказ обработчика на конкретной записи.
type HandlerError struct {
	Topic     string
	Partition int
	Offset    int64
	Err       error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler failed topic=%s partition=%d offset=%d: %v", e.Topic, e.Partition, e.Offset, e.Err)
}

func (e *HandlerError) Unwrap() error { return e.Err }

// Classify — относит ошибку к одному из классов таксономии.
// context.DeadlineExceeded считается таймаутом, context.Canceled — окончательным отказом.
func Classify(err error) ErrorKind {
	var he *HandlerError
	switch {
	case err == nil:
		return KindPermanent
	case errors.As(err, &he):
		return KindHandler
	case errors.Is(err, context.Canceled):
		return KindPermanent
	case errors.Is(err, ErrTimeout), errors.Is(err, context.DeadlineExceeded), errors.Is(err, ErrTransport):
		return KindTransient
	default:
		return KindPermanent
	}
}

// IsTransient — короткая форма Classify(err) == KindTransient.
func IsTransient(err error) bool { return err != nil && Classify(err) == KindTransient }

// Transient помечает ошибку как временную ошибку транспорта.
func Transient(err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%w: %w", ErrTransport, err)
}

// FromContext переводит ошибку контекста в таксономию: дедлайн → ErrTimeout.
func FromContext(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %w", ErrTimeout, err)
	}
	return err
}
