package consumer

import (
	"fmt"
	"strings"
)

// State — фаза цикла консьюмера.
// Idle → Fetching → Delivering → Committing → Idle; Stopped — терминальное.
type State int32

const (
	StateIdle State = iota
	StateFetching
	StateDelivering
	StateCommitting
	StateStopped
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateFetching:
		return "fetching"
	case StateDelivering:
		return "delivering"
	case StateCommitting:
		return "committing"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// FailurePolicy — что делать с записью, на которой обработчик исчерпал повторы.
type FailurePolicy string

const (
	PolicyHalt       FailurePolicy = "halt"        // остановиться, не продвигаясь дальше записи
	PolicyDeadLetter FailurePolicy = "dead-letter" // отправить в dead-letter и продолжить
)

// ParseFailurePolicy разбирает политику; пустое значение — ошибка, политика задаётся явно.
func ParseFailurePolicy(s string) (FailurePolicy, error) {
	switch FailurePolicy(strings.ToLower(strings.TrimSpace(s))) {
	case PolicyHalt:
		return PolicyHalt, nil
	case PolicyDeadLetter:
		return PolicyDeadLetter, nil
	case "":
		return "", ErrNoFailurePolicy
	default:
		return "", fmt.Errorf("unknown failure policy %q (want halt|dead-letter)", s)
	}
}
