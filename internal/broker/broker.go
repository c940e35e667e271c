// Package broker — брокер в процессе: таблица (топик, партиция) → лог партиции.
package broker

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/partition"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

// ErrPartitionMismatch — топик уже создан с другим числом партиций.
var ErrPartitionMismatch = errors.New("topic exists with different partition count")

var (
	_ ports.Appender     = (*Broker)(nil)
	_ ports.Fetcher      = (*Broker)(nil)
	_ ports.TopicCatalog = (*Broker)(nil)
)

// Config — параметры брокера.
type Config struct {
	Topics                 map[string]int // имя топика → число партиций
	MaxRecordsPerPartition int            // <= 0 — без ограничения
}

type topic struct {
	name       string
	partitions []*partition.Partition
	rr         atomic.Uint64 // счётчик round-robin для записей без ключа
}

// Broker — владелец всех партиций. Топики создаются только при старте (CreateTopic),
// запись в неизвестный топик отклоняется сразу.
type Broker struct {
	maxRecords int
	log        ports.Logger
	now        func() time.Time

	mu     sync.RWMutex
	topics map[string]*topic
}

// New создаёт брокер и топики из конфигурации.
func New(cfg Config, log ports.Logger) (*Broker, error) {
	b := &Broker{
		maxRecords: cfg.MaxRecordsPerPartition,
		log:        log,
		now:        time.Now,
		topics:     make(map[string]*topic, len(cfg.Topics)),
	}
	for _, name := range sortedNames(cfg.Topics) {
		if err := b.CreateTopic(name, cfg.Topics[name]); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// CreateTopic создаёт топик. Повторный вызов с тем же числом партиций — no-op.
func (b *Broker) CreateTopic(name string, partitions int) error {
	if name == "" || partitions <= 0 {
		return fmt.Errorf("create topic %q: partitions=%d: invalid arguments", name, partitions)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if t, ok := b.topics[name]; ok {
		if len(t.partitions) != partitions {
			return fmt.Errorf("create topic %q: have %d, want %d: %w", name, len(t.partitions), partitions, ErrPartitionMismatch)
		}
		return nil
	}

	t := &topic{name: name, partitions: make([]*partition.Partition, partitions)}
	for i := range t.partitions {
		t.partitions[i] = partition.New(name, i, b.maxRecords)
	}
	b.topics[name] = t
	if b.log != nil {
		b.log.Infof(context.Background(), "topic created: name=%s partitions=%d", name, partitions)
	}
	return nil
}

// Append кладёт запись в партицию, выбранную партиционером (или явно указанную).
func (b *Broker) Append(ctx context.Context, req domain.AppendRequest) (domain.Location, error) {
	if err := ctx.Err(); err != nil {
		return domain.Location{}, domain.FromContext(err)
	}

	t, err := b.topic(req.Topic)
	if err != nil {
		return domain.Location{}, err
	}

	var pid int
	if req.Partition != nil {
		pid = *req.Partition
		if pid < 0 || pid >= len(t.partitions) {
			return domain.Location{}, fmt.Errorf("topic %q partition %d: %w", req.Topic, pid, domain.ErrUnknownPartition)
		}
	} else {
		pid = t.choose(req.Key)
	}

	p := t.partitions[pid]
	off, err := p.Append(req.Record(b.now()))
	if err != nil {
		metrics.BrokerAppends.WithLabelValues(req.Topic, "error").Inc()
		return domain.Location{}, err
	}
	metrics.BrokerAppends.WithLabelValues(req.Topic, "ok").Inc()
	metrics.BrokerHighWatermark.WithLabelValues(req.Topic, strconv.Itoa(pid)).Set(float64(off + 1))

	return domain.Location{Topic: req.Topic, Partition: pid, Offset: off}, nil
}

// Read — ленивое чтение партиции (см. partition.Partition.Read).
func (b *Broker) Read(ctx context.Context, req domain.FetchRequest) (iter.Seq2[int64, domain.Record], error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.FromContext(err)
	}
	p, err := b.partition(req.Topic, req.Partition)
	if err != nil {
		return nil, err
	}
	return p.Read(req.FromOffset, req.MaxRecords)
}

// Fetch материализует Read в срез; обход прерывается по контексту.
func (b *Broker) Fetch(ctx context.Context, req domain.FetchRequest) ([]domain.Entry, error) {
	seq, err := b.Read(ctx, req)
	if err != nil {
		return nil, err
	}

	var out []domain.Entry
	if req.MaxRecords > 0 {
		out = make([]domain.Entry, 0, req.MaxRecords)
	}
	for off, rec := range seq {
		if err := ctx.Err(); err != nil {
			return nil, domain.FromContext(err)
		}
		out = append(out, domain.Entry{Offset: off, Record: rec})
	}
	return out, nil
}

func (b *Broker) EarliestOffset(_ context.Context, topic string, partition int) (int64, error) {
	p, err := b.partition(topic, partition)
	if err != nil {
		return 0, err
	}
	return p.EarliestOffset(), nil
}

func (b *Broker) HighWatermark(topic string, partition int) (int64, error) {
	p, err := b.partition(topic, partition)
	if err != nil {
		return 0, err
	}
	return p.HighWatermark(), nil
}

func (b *Broker) Partitions(_ context.Context, topic string) (int, error) {
	t, err := b.topic(topic)
	if err != nil {
		return 0, err
	}
	return len(t.partitions), nil
}

// Topics — описание всех топиков, отсортированное по имени.
func (b *Broker) Topics(ctx context.Context) ([]domain.TopicInfo, error) {
	if err := ctx.Err(); err != nil {
		return nil, domain.FromContext(err)
	}

	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]domain.TopicInfo, 0, len(b.topics))
	for _, t := range b.topics {
		info := domain.TopicInfo{Name: t.name, Partitions: len(t.partitions)}
		for _, p := range t.partitions {
			info.HighWatermarks = append(info.HighWatermarks, p.HighWatermark())
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (b *Broker) topic(name string) (*topic, error) {
	b.mu.RLock()
	t, ok := b.topics[name]
	b.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("topic %q: %w", name, domain.ErrUnknownTopic)
	}
	return t, nil
}

func (b *Broker) partition(name string, id int) (*partition.Partition, error) {
	t, err := b.topic(name)
	if err != nil {
		return nil, err
	}
	if id < 0 || id >= len(t.partitions) {
		return nil, fmt.Errorf("topic %q partition %d: %w", name, id, domain.ErrUnknownPartition)
	}
	return t.partitions[id], nil
}

func (t *topic) choose(key []byte) int {
	n := len(t.partitions)
	if key == nil {
		return int((t.rr.Add(1) - 1) % uint64(n))
	}
	return PartitionForKey(key, n)
}

func sortedNames(m map[string]int) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
