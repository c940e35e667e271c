package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
	"github.com/Gunvolt24/eventpipe/internal/producer"
	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
)

var _ ports.EventService = (*EventService)(nil)

// ErrEmptyTopic — топик не указан и топика по умолчанию нет.
var ErrEmptyTopic = errors.New("topic is required")

// Sender — то, через что сервис публикует записи (producer.Producer).
type Sender interface {
	SendRequest(req domain.AppendRequest) *producer.Future
}

// Config — параметры сервиса.
type Config struct {
	PublishTimeout time.Duration // сколько ждать Future на публикации; 0 — ждать до отмены ctx
	DefaultTopic   string        // топик для событий без явного топика
}

// Deps — зависимости EventService.
type Deps struct {
	Sender     Sender
	Fetcher    ports.Fetcher
	Catalog    ports.TopicCatalog
	Supervisor ports.ConsumerSupervisor // nil — консьюмеры не запущены
	Validator  ports.EventValidator
	Seen       ports.SeenCache // nil — повторные доставки не отслеживаются
	Log        ports.Logger
}

// EventService — прикладная логика публикации и чтения (без знаний о транспорте).
type EventService struct {
	cfg Config
	Deps
}

// NewEventService — DI-конструктор.
func NewEventService(cfg Config, deps Deps) *EventService {
	return &EventService{cfg: cfg, Deps: deps}
}

// Publish — валидация, отправка через продюсера и ожидание подтверждения.
// Ошибка ожидания (таймаут публикации) не отменяет саму отправку.
func (s *EventService) Publish(ctx context.Context, ev domain.Event) (domain.PublishResult, error) {
	if ev.Topic == "" {
		ev.Topic = s.cfg.DefaultTopic
	}
	if s.Validator != nil {
		if err := s.Validator.Validate(ctx, &ev); err != nil {
			s.Log.Warnf(ctx, "publish rejected topic=%s err=%v", ev.Topic, err)
			return domain.PublishResult{}, err
		}
	}
	if ev.Topic == "" {
		return domain.PublishResult{}, ErrEmptyTopic
	}

	fut := s.Sender.SendRequest(domain.AppendRequest{
		Topic:     ev.Topic,
		Key:       ev.Key,
		Value:     ev.Value,
		Partition: ev.Partition,
	})

	waitCtx := ctx
	if s.cfg.PublishTimeout > 0 {
		var cancel context.CancelFunc
		waitCtx, cancel = context.WithTimeout(ctx, s.cfg.PublishTimeout)
		defer cancel()
	}

	res, err := fut.Wait(waitCtx)
	if err != nil {
		err = domain.FromContext(err)
		s.Log.Errorf(ctx, "Unable to send message=[%s] to topic=[%s] with error=[%v]", ev.Value, ev.Topic, err)
		return domain.PublishResult{}, err
	}

	s.Log.Infof(ctx, "Sent message=[%s] to topic=[%s] partition=[%d] with offset=[%d]",
		ev.Value, res.Location.Topic, res.Location.Partition, res.Location.Offset)
	return domain.PublishResult{Location: res.Location, Retries: res.Retries}, nil
}

// Fetch — чтение партиции в обход консьюмеров (для отладки и CLI).
func (s *EventService) Fetch(ctx context.Context, req domain.FetchRequest) ([]domain.Entry, error) {
	if req.Topic == "" {
		return nil, ErrEmptyTopic
	}
	entries, err := s.Fetcher.Fetch(ctx, req)
	if err != nil {
		s.Log.Warnf(ctx, "fetch failed topic=%s partition=%d from=%d err=%v", req.Topic, req.Partition, req.FromOffset, err)
		return nil, err
	}
	return entries, nil
}

func (s *EventService) Topics(ctx context.Context) ([]domain.TopicInfo, error) {
	return s.Catalog.Topics(ctx)
}

// ConsumerStatus — снимок состояния всех консьюмеров.
func (s *EventService) ConsumerStatus(_ context.Context) []domain.ConsumerStatus {
	if s.Supervisor == nil {
		return []domain.ConsumerStatus{}
	}
	return s.Supervisor.Status()
}

// ResumeConsumer — перезапуск остановленного консьюмера.
func (s *EventService) ResumeConsumer(ctx context.Context, req domain.ResumeRequest) error {
	if s.Supervisor == nil {
		return fmt.Errorf("%s/%s/%d: no consumers configured", req.Group, req.Topic, req.Partition)
	}
	if err := s.Supervisor.Resume(ctx, req); err != nil {
		s.Log.Warnf(ctx, "resume failed group=%s topic=%s partition=%d err=%v", req.Group, req.Topic, req.Partition, err)
		return err
	}
	return nil
}

// Healthy — false, если какой-то консьюмер остановлен.
func (s *EventService) Healthy() bool {
	return s.Supervisor == nil || s.Supervisor.Healthy()
}

// HandleMessage — обработчик по умолчанию: логирует каждую запись
// и отмечает повторные доставки той же группе.
func (s *EventService) HandleMessage(ctx context.Context, msg domain.Message) error {
	s.Log.Infof(ctx, "consumer consume message %s", msg.Value)

	if s.Seen == nil {
		return nil
	}
	group := ""
	if rec, ok := ctxmeta.RecordFromContext(ctx); ok {
		group = rec.Group
	}
	key := fmt.Sprintf("%s/%s/%d/%d", group, msg.Topic, msg.Partition, msg.Offset)
	if s.Seen.Seen(ctx, key) {
		metrics.MessagesRedelivered.WithLabelValues(msg.Topic).Inc()
		s.Log.Warnf(ctx, "redelivered message topic=%s partition=%d offset=%d", msg.Topic, msg.Partition, msg.Offset)
	}
	return nil
}
