package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Брокер.
var (
	BrokerAppends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "broker_appends_total",
			Help: "Number of records appended to partitions",
		},
		[]string{"topic", "result"}, // ok|error
	)
	BrokerHighWatermark = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "broker_high_watermark",
			Help: "Next offset to be assigned per partition",
		},
		[]string{"topic", "partition"},
	)
)

// Продюсер.
var (
	ProducerSends = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "producer_sends_total",
			Help: "Completed sends by result",
		},
		[]string{"topic", "result"}, // ok|transient|permanent|closed
	)
	ProducerRetries = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "producer_retries_total",
			Help: "Number of send retries after transient failures",
		},
		[]string{"topic"},
	)
	ProducerInFlight = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "producer_in_flight",
			Help: "Sends that are not completed yet",
		},
	)
)

// Консьюмер.
var (
	MessagesConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_consumed_total",
			Help: "Number of records fetched by consumers",
		},
		[]string{"topic"},
	)
	MessagesProcessed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_processed_total",
			Help: "Number of records handled successfully",
		},
		[]string{"topic"},
	)
	MessagesFailed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_failed_total",
			Help: "Number of failed handler attempts",
		},
		[]string{"topic"},
	)
	MessagesDeadLettered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_dead_lettered_total",
			Help: "Number of records forwarded to dead-letter sink",
		},
		[]string{"topic"},
	)
	MessagesRedelivered = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_messages_redelivered_total",
			Help: "Number of records seen again by the same group",
		},
		[]string{"topic"},
	)
	OffsetCommits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "consumer_offset_commits_total",
			Help: "Offset commits by result",
		},
		[]string{"group", "result"}, // ok|error
	)
	ConsumersStopped = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "consumers_stopped",
			Help: "Number of consumer workers in stopped state",
		},
	)
)

var (
	CacheOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "cache_operations_total",
			Help: "Cache operations",
		},
		[]string{"op"}, // hit|miss|evicted|expired
	)
	CacheSize = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "cache_size",
			Help: "Number of items currently in cache",
		},
	)
)

var registerOnce sync.Once

// MustRegister регистрирует все метрики в глобальном реестре. Повторный вызов — no-op.
func MustRegister() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			BrokerAppends, BrokerHighWatermark,
			ProducerSends, ProducerRetries, ProducerInFlight,
			MessagesConsumed, MessagesProcessed, MessagesFailed, MessagesDeadLettered, MessagesRedelivered,
			OffsetCommits, ConsumersStopped,
			CacheOps, CacheSize,
		)
	})
}
