package consumer

import (
	"errors"
	"fmt"
	"time"
)

// ConsumerConfig — настройки одного консьюмера (группа, топик, партиция).
type ConsumerConfig struct {
	Group     string
	Topic     string
	Partition int

	BatchSize      int           // максимум записей за один fetch
	PollInterval   time.Duration // пауза, когда новых записей нет
	HandlerTimeout time.Duration // таймаут одного вызова обработчика
	HandlerRetries int           // повторы той же записи после первой неудачи
	RetryInitial   time.Duration // начальная задержка backoff
	RetryMax       time.Duration // потолок задержки backoff
	FetchTimeout   time.Duration
	CommitTimeout  time.Duration
	CommitRetries  int
	FailurePolicy  FailurePolicy
}

// withDefaults — значения по умолчанию для незаданных параметров.
func (c ConsumerConfig) withDefaults() ConsumerConfig {
	if c.BatchSize <= 0 {
		c.BatchSize = 100
	}
	if c.PollInterval <= 0 {
		c.PollInterval = 200 * time.Millisecond
	}
	if c.HandlerTimeout <= 0 {
		c.HandlerTimeout = 5 * time.Second
	}
	if c.HandlerRetries < 0 {
		c.HandlerRetries = 0
	}
	if c.RetryInitial <= 0 {
		c.RetryInitial = 1 * time.Second
	}
	if c.RetryMax <= 0 {
		c.RetryMax = 30 * time.Second
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 5 * time.Second
	}
	if c.CommitTimeout <= 0 {
		c.CommitTimeout = 5 * time.Second
	}
	if c.CommitRetries <= 0 {
		c.CommitRetries = 3
	}
	return c
}

func (c ConsumerConfig) validate() error {
	var errs []error
	if c.Group == "" {
		errs = append(errs, errors.New("group is required"))
	}
	if c.Topic == "" {
		errs = append(errs, errors.New("topic is required"))
	}
	if c.Partition < 0 {
		errs = append(errs, fmt.Errorf("partition must be >= 0, got %d", c.Partition))
	}
	if _, err := ParseFailurePolicy(string(c.FailurePolicy)); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}
