package deadletter

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

//go:generate mockgen -source=kafka_sink.go -destination=mocks/mock_producer.go -package=mocks

var _ ports.DeadLetterSink = (*KafkaSink)(nil)

// Заголовки, которыми помечается запись во внешнем dead-letter топике.
const (
	HeaderOriginTopic     = "x-origin-topic"
	HeaderOriginPartition = "x-origin-partition"
	HeaderOriginOffset    = "x-origin-offset"
	HeaderCause           = "x-dead-letter-cause"
)

// producer — часть kgo.Client, которая нужна приёмнику.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
	Close()
}

// KafkaSink отправляет исходные ключ и значение во внешний Kafka (franz-go),
// координаты и причина отказа уходят в заголовки.
type KafkaSink struct {
	client producer
	topic  string
	log    ports.Logger
}

// NewKafkaSink создаёт клиента franz-go для dead-letter топика.
func NewKafkaSink(brokers []string, topic string, log ports.Logger) (*KafkaSink, error) {
	if len(brokers) == 0 {
		return nil, errors.New("at least one broker address is required")
	}
	if topic == "" {
		return nil, errors.New("dead-letter topic is empty")
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.DefaultProduceTopic(topic),
		kgo.RequiredAcks(kgo.AllISRAcks()),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create Kafka client: %w", err)
	}
	return newKafkaSink(client, topic, log), nil
}

func newKafkaSink(client producer, topic string, log ports.Logger) *KafkaSink {
	return &KafkaSink{client: client, topic: topic, log: log}
}

// Forward синхронно пишет запись; таймауты и retriable-ошибки Kafka считаются временными.
func (s *KafkaSink) Forward(ctx context.Context, msg domain.Message, cause error) error {
	rec := &kgo.Record{
		Topic: s.topic,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: []kgo.RecordHeader{
			{Key: HeaderOriginTopic, Value: []byte(msg.Topic)},
			{Key: HeaderOriginPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			{Key: HeaderOriginOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
		},
	}
	if cause != nil {
		rec.Headers = append(rec.Headers, kgo.RecordHeader{Key: HeaderCause, Value: []byte(cause.Error())})
	}

	if err := s.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("forward %s/%d@%d to kafka %s: %w", msg.Topic, msg.Partition, msg.Offset, s.topic, classify(err))
	}

	s.log.Warnf(ctx, "dead-lettered topic=%s partition=%d offset=%d -> kafka %s cause=%v",
		msg.Topic, msg.Partition, msg.Offset, s.topic, cause)
	return nil
}

// Close закрывает клиента franz-go.
func (s *KafkaSink) Close() error {
	s.client.Close()
	return nil
}

func classify(err error) error {
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, kgo.ErrRecordTimeout):
		return fmt.Errorf("%w: %w", domain.ErrTimeout, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, kerr.UnknownTopicOrPartition):
		return fmt.Errorf("%w: %w", domain.ErrUnknownTopic, err)
	case kerr.IsRetriable(err):
		return domain.Transient(err)
	default:
		return err
	}
}
