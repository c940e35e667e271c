// Package deadletter — приёмники записей, которые консьюмер не смог обработать.
package deadletter

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

var _ ports.DeadLetterSink = (*TopicSink)(nil)

// Envelope — то, что кладётся в dead-letter топик: исходная запись, её координаты и причина отказа.
type Envelope struct {
	Topic     string    `json:"topic"`
	Partition int       `json:"partition"`
	Offset    int64     `json:"offset"`
	Key       []byte    `json:"key,omitempty"`
	Value     []byte    `json:"value"`
	Timestamp int64     `json:"timestamp"`
	Cause     string    `json:"cause"`
	FailedAt  time.Time `json:"failed_at"`
}

// NewEnvelope собирает конверт для сообщения и причины отказа.
func NewEnvelope(msg domain.Message, cause error, now time.Time) Envelope {
	env := Envelope{
		Topic:     msg.Topic,
		Partition: msg.Partition,
		Offset:    msg.Offset,
		Key:       msg.Key,
		Value:     msg.Value,
		Timestamp: msg.Timestamp,
		FailedAt:  now.UTC(),
	}
	if cause != nil {
		env.Cause = cause.Error()
	}
	return env
}

// DecodeEnvelope — обратная операция для чтения dead-letter топика.
func DecodeEnvelope(raw []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode dead-letter envelope: %w", err)
	}
	return env, nil
}

// TopicSink пишет конверт в топик пайплайна через тот же Appender, что и продюсер.
// Ключ исходной записи сохраняется, поэтому записи одного ключа попадают в одну партицию.
type TopicSink struct {
	appender ports.Appender
	topic    string
	log      ports.Logger
	now      func() time.Time
}

func NewTopicSink(appender ports.Appender, topic string, log ports.Logger) (*TopicSink, error) {
	if topic == "" {
		return nil, errors.New("dead-letter topic is empty")
	}
	return &TopicSink{appender: appender, topic: topic, log: log, now: time.Now}, nil
}

// Forward сохраняет запись в dead-letter топик. Ошибки Appender возвращаются без изменения класса.
func (s *TopicSink) Forward(ctx context.Context, msg domain.Message, cause error) error {
	if msg.Topic == s.topic {
		return fmt.Errorf("dead-letter loop: record %s/%d@%d already in %s", msg.Topic, msg.Partition, msg.Offset, s.topic)
	}

	raw, err := json.Marshal(NewEnvelope(msg, cause, s.now()))
	if err != nil {
		return fmt.Errorf("encode dead-letter envelope: %w", err)
	}

	loc, err := s.appender.Append(ctx, domain.AppendRequest{Topic: s.topic, Key: msg.Key, Value: raw})
	if err != nil {
		return fmt.Errorf("forward %s/%d@%d to %s: %w", msg.Topic, msg.Partition, msg.Offset, s.topic, err)
	}

	s.log.Warnf(ctx, "dead-lettered topic=%s partition=%d offset=%d -> %s/%d@%d cause=%v",
		msg.Topic, msg.Partition, msg.Offset, loc.Topic, loc.Partition, loc.Offset, cause)
	return nil
}
