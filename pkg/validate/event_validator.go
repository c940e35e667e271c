package validate

import (
	"context"
	"errors"
	"fmt"
	"regexp"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

// Проверка, что EventValidator удовлетворяет интерфейсу EventValidator.
var _ ports.EventValidator = (*EventValidator)(nil)

// ErrInvalidEvent — базовая (sentinel error) ошибка валидации.
var ErrInvalidEvent = errors.New("event validation failed")

// Допустимое имя топика — те же правила, что у Kafka.
var topicName = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,249}$`)

// DefaultMaxValueBytes — ограничение размера значения по умолчанию.
const DefaultMaxValueBytes = 1 << 20

// EventValidator — проверка события перед публикацией.
type EventValidator struct {
	maxKeyBytes   int
	maxValueBytes int
}

// NewEventValidator — конструктор; maxValueBytes <= 0 — DefaultMaxValueBytes.
// Возвращает ErrInvalidEvent (с обёрнутой причиной) при любой проблеме.
func NewEventValidator(maxValueBytes int) *EventValidator {
	if maxValueBytes <= 0 {
		maxValueBytes = DefaultMaxValueBytes
	}
	return &EventValidator{maxKeyBytes: 1024, maxValueBytes: maxValueBytes}
}

// Validate — проверяет топик, ключ, значение и явную партицию.
func (v *EventValidator) Validate(_ context.Context, ev *domain.Event) error {
	if ev == nil {
		return fmt.Errorf("%w: событие не может быть nil", ErrInvalidEvent)
	}
	if ev.Topic == "" {
		return fmt.Errorf("%w: topic обязателен", ErrInvalidEvent)
	}
	if ev.Topic == "." || ev.Topic == ".." || !topicName.MatchString(ev.Topic) {
		return fmt.Errorf("%w: topic %q некорректен", ErrInvalidEvent, ev.Topic)
	}
	if len(ev.Key) > v.maxKeyBytes {
		return fmt.Errorf("%w: key длиннее %d байт", ErrInvalidEvent, v.maxKeyBytes)
	}
	if ev.Value == nil {
		return fmt.Errorf("%w: value обязателен", ErrInvalidEvent)
	}
	if len(ev.Value) > v.maxValueBytes {
		return fmt.Errorf("%w: value длиннее %d байт", ErrInvalidEvent, v.maxValueBytes)
	}
	if ev.Partition != nil && *ev.Partition < 0 {
		return fmt.Errorf("%w: partition должен быть неотрицательным", ErrInvalidEvent)
	}
	return nil
}
