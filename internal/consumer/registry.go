package consumer

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

var (
	_ ports.MessageConsumer    = (*Registry)(nil)
	_ ports.ConsumerSupervisor = (*Registry)(nil)
)

var (
	ErrDuplicateAssignment = errors.New("partition already assigned to this group")
	ErrUnknownConsumer     = errors.New("unknown consumer")
)

type assignment struct {
	Group     string
	Topic     string
	Partition int
}

// Registry — регистрация обработчиков и надзор за воркерами:
// один Consumer на (группа, топик, партиция).
// Остановка одного воркера (halt) не останавливает остальные.
type Registry struct {
	fetcher ports.Fetcher
	offsets ports.OffsetStore
	dlq     ports.DeadLetterSink
	log     ports.Logger

	mu      sync.Mutex
	workers map[assignment]*Consumer
	runCtx  context.Context // не nil, пока идёт Run
	wg      sync.WaitGroup
}

func NewRegistry(fetcher ports.Fetcher, offsets ports.OffsetStore, dlq ports.DeadLetterSink, log ports.Logger) *Registry {
	return &Registry{
		fetcher: fetcher,
		offsets: offsets,
		dlq:     dlq,
		log:     log,
		workers: make(map[assignment]*Consumer),
	}
}

// Subscribe создаёт по консьюмеру на каждую партицию из списка.
// Шаблон задаёт группу, топик и политику; поле Partition шаблона игнорируется.
// Если Registry уже запущен, новые воркеры стартуют сразу.
func (r *Registry) Subscribe(template ConsumerConfig, partitions []int, handler Handler) error {
	if len(partitions) == 0 {
		return fmt.Errorf("subscribe %s/%s: no partitions", template.Group, template.Topic)
	}

	created := make([]*Consumer, 0, len(partitions))
	for _, p := range partitions {
		cfg := template
		cfg.Partition = p
		c, err := NewConsumer(&cfg, r.fetcher, r.offsets, handler, r.dlq, r.log)
		if err != nil {
			return err
		}
		created = append(created, c)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[assignment]struct{}, len(created))
	for _, c := range created {
		key := keyOf(c.cfg)
		if _, dup := r.workers[key]; dup {
			return fmt.Errorf("%s/%s/%d: %w", key.Group, key.Topic, key.Partition, ErrDuplicateAssignment)
		}
		if _, dup := seen[key]; dup {
			return fmt.Errorf("%s/%s/%d: %w", key.Group, key.Topic, key.Partition, ErrDuplicateAssignment)
		}
		seen[key] = struct{}{}
	}
	for _, c := range created {
		r.workers[keyOf(c.cfg)] = c
		if r.runCtx != nil && r.runCtx.Err() == nil {
			r.start(r.runCtx, c)
		}
	}
	return nil
}

// SubscribeAll — Subscribe на все партиции топика.
func (r *Registry) SubscribeAll(ctx context.Context, template ConsumerConfig, handler Handler) error {
	n, err := r.fetcher.Partitions(ctx, template.Topic)
	if err != nil {
		return fmt.Errorf("subscribe %s/%s: %w", template.Group, template.Topic, err)
	}
	partitions := make([]int, n)
	for i := range partitions {
		partitions[i] = i
	}
	return r.Subscribe(template, partitions, handler)
}

// Run запускает всех воркеров и ждёт отмены ctx; затем дожидается их мягкой остановки.
func (r *Registry) Run(ctx context.Context) error {
	r.mu.Lock()
	if r.runCtx != nil {
		r.mu.Unlock()
		return ErrAlreadyRunning
	}
	r.runCtx = ctx
	for _, c := range r.sortedLocked() {
		r.start(ctx, c)
	}
	n := len(r.workers)
	r.mu.Unlock()

	r.log.Infof(ctx, "consumer registry started workers=%d", n)
	<-ctx.Done()

	r.wg.Wait()
	r.mu.Lock()
	r.runCtx = nil
	r.mu.Unlock()
	return ctx.Err()
}

// start запускает воркер под надзором; вызывается под r.mu.
func (r *Registry) start(ctx context.Context, c *Consumer) {
	r.wg.Add(1)
	go func() {
		defer r.wg.Done()
		err := c.Run(ctx)
		switch {
		case err == nil, errors.Is(err, context.Canceled), errors.Is(err, ErrAlreadyRunning):
		default:
			st := c.Status()
			r.log.Errorf(ctx, "consumer group=%s topic=%s partition=%d stopped at offset=%d: %v",
				st.Group, st.Topic, st.Partition, st.NextOffset, err)
		}
		r.updateStoppedGauge()
	}()
}

// Close мягко останавливает всех воркеров.
func (r *Registry) Close() error {
	r.mu.Lock()
	workers := r.sortedLocked()
	r.mu.Unlock()

	var errs []error
	for _, c := range workers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Status — состояние всех воркеров в стабильном порядке.
func (r *Registry) Status() []domain.ConsumerStatus {
	r.mu.Lock()
	workers := r.sortedLocked()
	r.mu.Unlock()

	out := make([]domain.ConsumerStatus, 0, len(workers))
	for _, c := range workers {
		out = append(out, c.Status())
	}
	return out
}

// Healthy — false, если Registry запущен, а какой-то воркер в состоянии Stopped.
func (r *Registry) Healthy() bool {
	r.mu.Lock()
	running := r.runCtx != nil
	workers := r.sortedLocked()
	r.mu.Unlock()

	if !running {
		return true
	}
	for _, c := range workers {
		if c.State() == StateStopped {
			return false
		}
	}
	return true
}

// Resume перезапускает остановленный воркер, при необходимости с явного оффсета.
func (r *Registry) Resume(_ context.Context, req domain.ResumeRequest) error {
	key := assignment{Group: req.Group, Topic: req.Topic, Partition: req.Partition}

	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.workers[key]
	if !ok {
		return fmt.Errorf("%s/%s/%d: %w", req.Group, req.Topic, req.Partition, ErrUnknownConsumer)
	}
	if c.Running() {
		return ErrRunning
	}
	if r.runCtx == nil || r.runCtx.Err() != nil {
		return errors.New("registry is not running")
	}
	if req.Offset != nil {
		if err := c.Reset(*req.Offset); err != nil {
			return err
		}
	}
	r.log.Infof(r.runCtx, "resuming consumer group=%s topic=%s partition=%d", req.Group, req.Topic, req.Partition)
	r.start(r.runCtx, c)
	return nil
}

func (r *Registry) updateStoppedGauge() {
	r.mu.Lock()
	defer r.mu.Unlock()
	stopped := 0
	for _, c := range r.workers {
		if c.State() == StateStopped {
			stopped++
		}
	}
	metrics.ConsumersStopped.Set(float64(stopped))
}

func (r *Registry) sortedLocked() []*Consumer {
	out := make([]*Consumer, 0, len(r.workers))
	for _, c := range r.workers {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i].cfg, out[j].cfg
		if a.Group != b.Group {
			return a.Group < b.Group
		}
		if a.Topic != b.Topic {
			return a.Topic < b.Topic
		}
		return a.Partition < b.Partition
	})
	return out
}

func keyOf(cfg ConsumerConfig) assignment {
	return assignment{Group: cfg.Group, Topic: cfg.Topic, Partition: cfg.Partition}
}
