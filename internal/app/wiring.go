package app

import (
	"context"
	"fmt"
	"strings"

	"github.com/Gunvolt24/eventpipe/config"
	"github.com/Gunvolt24/eventpipe/internal/broker"
	"github.com/Gunvolt24/eventpipe/internal/consumer"
	"github.com/Gunvolt24/eventpipe/internal/deadletter"
	"github.com/Gunvolt24/eventpipe/internal/kafka"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/internal/repo/memory"
	"github.com/Gunvolt24/eventpipe/internal/repo/postgres"
	"github.com/Gunvolt24/eventpipe/internal/repo/redis"
)

// transport — общий контракт брокера в процессе и Kafka-транспорта.
type transport interface {
	ports.Appender
	ports.Fetcher
	ports.TopicCatalog
}

func openTransport(ctx context.Context, cfg *config.Config, log ports.Logger) (transport, error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Broker.Transport)) {
	case "", "inproc":
		topics := cfg.Broker.Topics
		if cfg.Broker.TopicsFile != "" {
			catalog, err := broker.LoadCatalog(cfg.Broker.TopicsFile)
			if err != nil {
				return nil, err
			}
			topics = broker.MergeTopics(topics, catalog)
		}
		b, err := broker.New(broker.Config{Topics: topics, MaxRecordsPerPartition: cfg.Broker.MaxRecords}, log)
		if err != nil {
			return nil, err
		}
		log.Infof(ctx, "in-process broker started topics=%d", len(topics))
		return b, nil
	case "kafka":
		t, err := kafka.New(kafka.Config{
			Brokers:       cfg.Kafka.Brokers,
			RequiredAcks:  cfg.Kafka.RequiredAcks,
			Timeout:       cfg.Kafka.Timeout,
			FetchMaxBytes: cfg.Kafka.FetchMaxBytes,
			FetchMaxWait:  cfg.Kafka.FetchMaxWait,
		}, log)
		if err != nil {
			return nil, err
		}
		return t, nil
	default:
		return nil, fmt.Errorf("unknown broker transport %q (want inproc|kafka)", cfg.Broker.Transport)
	}
}

// openOffsetStore — хранилище оффсетов по OFFSETS_BACKEND и функция его закрытия.
func openOffsetStore(ctx context.Context, cfg *config.Config, log ports.Logger) (ports.OffsetStore, func(), error) {
	switch strings.ToLower(strings.TrimSpace(cfg.Offsets.Backend)) {
	case "", "memory":
		log.Warnf(ctx, "offsets are kept in memory and will be lost on restart")
		return memory.NewOffsetStore(), func() {}, nil
	case "postgres":
		store, pool, err := postgres.OpenOffsetStore(ctx, cfg.Postgres.DSN, cfg.Postgres.MaxConns, cfg.Postgres.AutoMigrate)
		if err != nil {
			return nil, nil, err
		}
		log.Infof(ctx, "offsets backend=postgres max_conns=%d", cfg.Postgres.MaxConns)
		return store, pool.Close, nil
	case "redis":
		store, err := redis.Open(ctx, redis.Options{
			Addr:      cfg.Redis.Addr,
			Password:  cfg.Redis.Password,
			DB:        cfg.Redis.DB,
			KeyPrefix: cfg.Redis.KeyPrefix,
		})
		if err != nil {
			return nil, nil, err
		}
		log.Infof(ctx, "offsets backend=redis addr=%s db=%d", cfg.Redis.Addr, cfg.Redis.DB)
		return store, func() {
			if err := store.Close(); err != nil {
				log.Warnf(ctx, "redis close: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown offsets backend %q (want memory|postgres|redis)", cfg.Offsets.Backend)
	}
}

// openDeadLetter — синк для политики dead-letter; при halt синк не нужен.
func openDeadLetter(cfg *config.Config, policy consumer.FailurePolicy, tr ports.Appender, log ports.Logger) (ports.DeadLetterSink, func(), error) {
	if policy != consumer.PolicyDeadLetter {
		return nil, func() {}, nil
	}
	switch strings.ToLower(strings.TrimSpace(cfg.Consumer.DeadLetterSink)) {
	case "", "topic":
		sink, err := deadletter.NewTopicSink(tr, cfg.Consumer.DeadLetter, log)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {}, nil
	case "kafka":
		sink, err := deadletter.NewKafkaSink(cfg.Kafka.Brokers, cfg.Consumer.DeadLetter, log)
		if err != nil {
			return nil, nil, err
		}
		return sink, func() {
			if err := sink.Close(); err != nil {
				log.Warnf(context.Background(), "dead-letter kafka client close: %v", err)
			}
		}, nil
	default:
		return nil, nil, fmt.Errorf("unknown dead-letter sink %q (want topic|kafka)", cfg.Consumer.DeadLetterSink)
	}
}

func consumerTemplate(cfg *config.Config, topic string, policy consumer.FailurePolicy) consumer.ConsumerConfig {
	return consumer.ConsumerConfig{
		Group:          cfg.Consumer.Group,
		Topic:          topic,
		BatchSize:      cfg.Consumer.BatchSize,
		PollInterval:   cfg.Consumer.PollInterval,
		HandlerTimeout: cfg.Consumer.HandlerTimeout,
		HandlerRetries: cfg.Consumer.HandlerRetries,
		RetryInitial:   cfg.Consumer.RetryInitial,
		RetryMax:       cfg.Consumer.RetryMax,
		FetchTimeout:   cfg.Consumer.FetchTimeout,
		CommitTimeout:  cfg.Consumer.CommitTimeout,
		CommitRetries:  cfg.Consumer.CommitRetries,
		FailurePolicy:  policy,
	}
}
