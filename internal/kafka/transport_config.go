package kafka

import (
	"errors"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// Config — параметры подключения к внешнему Kafka.
type Config struct {
	Brokers       []string
	RequiredAcks  string        // none | one | all (или -1/0/1); пусто — all
	Timeout       time.Duration // таймаут одного запроса клиента
	FetchMaxBytes int64
	FetchMaxWait  time.Duration
}

func (c Config) withDefaults() Config {
	if c.Timeout <= 0 {
		c.Timeout = 10 * time.Second
	}
	if c.FetchMaxBytes <= 0 {
		c.FetchMaxBytes = 1 << 20
	}
	if c.FetchMaxWait <= 0 {
		c.FetchMaxWait = 500 * time.Millisecond
	}
	return c
}

func (c Config) validate() error {
	for _, b := range c.Brokers {
		if strings.TrimSpace(b) != "" {
			return nil
		}
	}
	return errors.New("kafka: no brokers configured")
}

// requiredAcks нормализует строку подтверждений; пустое значение — RequireAll.
func (c Config) requiredAcks() (kafka.RequiredAcks, error) {
	s := strings.ToLower(strings.TrimSpace(c.RequiredAcks))
	if s == "" {
		return kafka.RequireAll, nil
	}
	var acks kafka.RequiredAcks
	if err := acks.UnmarshalText([]byte(s)); err != nil {
		return 0, err
	}
	return acks, nil
}

func (c Config) client() *kafka.Client {
	brokers := make([]string, 0, len(c.Brokers))
	for _, b := range c.Brokers {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return &kafka.Client{
		Addr:    kafka.TCP(brokers...),
		Timeout: c.Timeout,
	}
}
