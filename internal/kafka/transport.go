// Package kafka — транспорт поверх внешнего Kafka: запись для продюсера и чтение для консьюмеров.
package kafka

//go:generate mockgen -source=transport.go -destination=mocks/mock_client.go -package=mocks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/Gunvolt24/eventpipe/internal/broker"
	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

// Транспорт подменяет брокер в процессе для продюсера и консьюмеров.
var (
	_ ports.Appender     = (*Transport)(nil)
	_ ports.Fetcher      = (*Transport)(nil)
	_ ports.TopicCatalog = (*Transport)(nil)
)

// client — минимальный контракт над kafka.Client, чтобы подменять его моками в тестах.
type client interface {
	Produce(ctx context.Context, req *kafka.ProduceRequest) (*kafka.ProduceResponse, error)
	Fetch(ctx context.Context, req *kafka.FetchRequest) (*kafka.FetchResponse, error)
	Metadata(ctx context.Context, req *kafka.MetadataRequest) (*kafka.MetadataResponse, error)
	ListOffsets(ctx context.Context, req *kafka.ListOffsetsRequest) (*kafka.ListOffsetsResponse, error)
}

// Transport — ports.Appender и ports.Fetcher поверх kafka.Client.
// Партиция выбирается тем же партиционером, что и у брокера в процессе,
// поэтому ключ попадает в одну и ту же партицию при смене транспорта.
type Transport struct {
	client client
	cfg    Config
	acks   kafka.RequiredAcks
	log    ports.Logger
	now    func() time.Time

	mu         sync.RWMutex
	partitions map[string]int // кэш числа партиций по топикам

	rr atomic.Uint64
}

// New — конструктор с настоящим kafka.Client.
func New(cfg Config, log ports.Logger) (*Transport, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	acks, err := cfg.requiredAcks()
	if err != nil {
		return nil, err
	}
	cfg = cfg.withDefaults()
	t := newTransport(cfg.client(), cfg, log)
	t.acks = acks
	log.Infof(context.Background(), "kafka transport configured brokers=%v acks=%s", cfg.Brokers, acks)
	return t, nil
}

func newTransport(c client, cfg Config, log ports.Logger) *Transport {
	return &Transport{
		client:     c,
		cfg:        cfg.withDefaults(),
		acks:       kafka.RequireAll,
		log:        log,
		now:        time.Now,
		partitions: make(map[string]int),
	}
}

// Append пишет одну запись в выбранную партицию и возвращает её оффсет.
func (t *Transport) Append(ctx context.Context, req domain.AppendRequest) (domain.Location, error) {
	n, err := t.Partitions(ctx, req.Topic)
	if err != nil {
		return domain.Location{}, err
	}

	var pid int
	switch {
	case req.Partition != nil:
		pid = *req.Partition
		if pid < 0 || pid >= n {
			return domain.Location{}, fmt.Errorf("topic %q partition %d: %w", req.Topic, pid, domain.ErrUnknownPartition)
		}
	case req.Key == nil:
		pid = int((t.rr.Add(1) - 1) % uint64(n))
	default:
		pid = broker.PartitionForKey(req.Key, n)
	}

	rec := req.Record(t.now())
	res, err := t.client.Produce(ctx, &kafka.ProduceRequest{
		Topic:        req.Topic,
		Partition:    pid,
		RequiredAcks: t.acks,
		Records: kafka.NewRecordReader(kafka.Record{
			Time:  time.UnixMilli(rec.Timestamp),
			Key:   kafka.NewBytes(rec.Key),
			Value: kafka.NewBytes(rec.Value),
		}),
	})
	if err != nil {
		return domain.Location{}, t.mapErr(ctx, req.Topic, pid, err)
	}
	if res.Error != nil {
		return domain.Location{}, t.mapErr(ctx, req.Topic, pid, res.Error)
	}
	for _, recErr := range res.RecordErrors {
		return domain.Location{}, t.mapErr(ctx, req.Topic, pid, recErr)
	}

	return domain.Location{Topic: req.Topic, Partition: pid, Offset: res.BaseOffset}, nil
}

// Fetch читает записи партиции начиная с FromOffset.
// Kafka отдаёт батчи целиком, поэтому записи с оффсетом меньше запрошенного пропускаются.
func (t *Transport) Fetch(ctx context.Context, req domain.FetchRequest) ([]domain.Entry, error) {
	if req.FromOffset < 0 {
		return nil, fmt.Errorf("fetch %s/%d from %d: %w", req.Topic, req.Partition, req.FromOffset, domain.ErrInvalidOffset)
	}

	res, err := t.client.Fetch(ctx, &kafka.FetchRequest{
		Topic:     req.Topic,
		Partition: req.Partition,
		Offset:    req.FromOffset,
		MinBytes:  1,
		MaxBytes:  t.cfg.FetchMaxBytes,
		MaxWait:   t.cfg.FetchMaxWait,
	})
	if err != nil {
		return nil, t.mapErr(ctx, req.Topic, req.Partition, err)
	}
	if res.Error != nil {
		// Оффсет за концом лога — просто нет новых записей.
		if errors.Is(res.Error, kafka.OffsetOutOfRange) && req.FromOffset >= res.HighWatermark {
			return nil, nil
		}
		return nil, t.mapErr(ctx, req.Topic, req.Partition, res.Error)
	}
	if res.Records == nil {
		return nil, nil
	}

	var out []domain.Entry
	for req.MaxRecords <= 0 || len(out) < req.MaxRecords {
		r, rerr := res.Records.ReadRecord()
		if rerr != nil {
			if errors.Is(rerr, io.EOF) {
				break
			}
			return nil, t.mapErr(ctx, req.Topic, req.Partition, rerr)
		}
		if r.Offset < req.FromOffset {
			continue
		}
		entry, cerr := toEntry(r)
		if cerr != nil {
			return nil, t.mapErr(ctx, req.Topic, req.Partition, cerr)
		}
		out = append(out, entry)
	}
	return out, nil
}

// EarliestOffset — первый доступный оффсет партиции (ListOffsets, FirstOffset).
func (t *Transport) EarliestOffset(ctx context.Context, topic string, partition int) (int64, error) {
	res, err := t.client.ListOffsets(ctx, &kafka.ListOffsetsRequest{
		Topics: map[string][]kafka.OffsetRequest{
			topic: {kafka.FirstOffsetOf(partition)},
		},
	})
	if err != nil {
		return 0, t.mapErr(ctx, topic, partition, err)
	}
	for _, po := range res.Topics[topic] {
		if po.Partition != partition {
			continue
		}
		if po.Error != nil {
			return 0, t.mapErr(ctx, topic, partition, po.Error)
		}
		return po.FirstOffset, nil
	}
	return 0, fmt.Errorf("topic %q partition %d: %w", topic, partition, domain.ErrUnknownPartition)
}

// Partitions — число партиций топика; значение кэшируется после первого запроса метаданных.
func (t *Transport) Partitions(ctx context.Context, topic string) (int, error) {
	t.mu.RLock()
	n, ok := t.partitions[topic]
	t.mu.RUnlock()
	if ok {
		return n, nil
	}

	res, err := t.client.Metadata(ctx, &kafka.MetadataRequest{Topics: []string{topic}})
	if err != nil {
		return 0, t.mapErr(ctx, topic, -1, err)
	}
	for _, mt := range res.Topics {
		if mt.Name != topic {
			continue
		}
		if mt.Error != nil {
			return 0, t.mapErr(ctx, topic, -1, mt.Error)
		}
		if len(mt.Partitions) == 0 {
			break
		}
		n = len(mt.Partitions)
		t.mu.Lock()
		t.partitions[topic] = n
		t.mu.Unlock()
		return n, nil
	}
	return 0, fmt.Errorf("topic %q: %w", topic, domain.ErrUnknownTopic)
}

// Topics — топики кластера (кроме служебных) с числом партиций и high watermark, по имени.
func (t *Transport) Topics(ctx context.Context) ([]domain.TopicInfo, error) {
	res, err := t.client.Metadata(ctx, &kafka.MetadataRequest{})
	if err != nil {
		return nil, t.mapErr(ctx, "*", -1, err)
	}

	req := &kafka.ListOffsetsRequest{Topics: make(map[string][]kafka.OffsetRequest)}
	out := make([]domain.TopicInfo, 0, len(res.Topics))
	for _, mt := range res.Topics {
		if mt.Internal || mt.Error != nil {
			continue
		}
		info := domain.TopicInfo{Name: mt.Name, Partitions: len(mt.Partitions)}
		info.HighWatermarks = make([]int64, len(mt.Partitions))
		for _, p := range mt.Partitions {
			req.Topics[mt.Name] = append(req.Topics[mt.Name], kafka.LastOffsetOf(p.ID))
		}
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	if len(out) == 0 {
		return out, nil
	}

	offs, err := t.client.ListOffsets(ctx, req)
	if err != nil {
		return nil, t.mapErr(ctx, "*", -1, err)
	}
	for i := range out {
		for _, po := range offs.Topics[out[i].Name] {
			if po.Error == nil && po.Partition >= 0 && po.Partition < len(out[i].HighWatermarks) {
				out[i].HighWatermarks[po.Partition] = po.LastOffset
			}
		}
	}
	return out, nil
}

func toEntry(r *kafka.Record) (domain.Entry, error) {
	key, err := kafka.ReadAll(r.Key)
	if err != nil {
		return domain.Entry{}, err
	}
	value, err := kafka.ReadAll(r.Value)
	if err != nil {
		return domain.Entry{}, err
	}
	if value == nil {
		value = []byte{}
	}
	return domain.Entry{
		Offset: r.Offset,
		Record: domain.Record{Key: key, Value: value, Timestamp: r.Time.UnixMilli()},
	}, nil
}

// mapErr переводит ошибки Kafka и сети в таксономию домена.
func (t *Transport) mapErr(ctx context.Context, topic string, partition int, err error) error {
	where := fmt.Sprintf("kafka topic=%s partition=%d", topic, partition)

	var kerr kafka.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%s: %w", where, domain.FromContext(err))
	case errors.Is(err, context.Canceled):
		return fmt.Errorf("%s: %w", where, err)
	case errors.Is(err, kafka.UnknownTopicOrPartition):
		t.forget(topic)
		if partition >= 0 {
			return fmt.Errorf("%s: %w: %w", where, domain.ErrUnknownPartition, err)
		}
		return fmt.Errorf("%s: %w: %w", where, domain.ErrUnknownTopic, err)
	case errors.Is(err, kafka.OffsetOutOfRange):
		return fmt.Errorf("%s: %w: %w", where, domain.ErrInvalidOffset, err)
	case errors.Is(err, kafka.RequestTimedOut):
		return fmt.Errorf("%s: %w: %w", where, domain.ErrTimeout, err)
	case errors.As(err, &kerr):
		if kerr.Temporary() || kerr.Timeout() {
			t.log.Warnf(ctx, "kafka transient error topic=%s partition=%d: %v", topic, partition, err)
			return fmt.Errorf("%s: %w", where, domain.Transient(err))
		}
		return fmt.Errorf("%s: %w", where, err)
	}

	var nerr net.Error
	if errors.As(err, &nerr) || errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return fmt.Errorf("%s: %w", where, domain.Transient(err))
	}
	return fmt.Errorf("%s: %w", where, err)
}

func (t *Transport) forget(topic string) {
	t.mu.Lock()
	delete(t.partitions, topic)
	t.mu.Unlock()
}
