package usecase_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/Gunvolt24/eventpipe/internal/broker"
	cachemem "github.com/Gunvolt24/eventpipe/internal/cache/memory"
	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports/mocks"
	"github.com/Gunvolt24/eventpipe/internal/producer"
	"github.com/Gunvolt24/eventpipe/internal/usecase"
	"github.com/Gunvolt24/eventpipe/pkg/ctxmeta"
	"github.com/Gunvolt24/eventpipe/pkg/metrics"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

// newInprocService — сервис поверх брокера в процессе и настоящего продюсера.
func newInprocService(t *testing.T, cfg usecase.Config) (*usecase.EventService, *broker.Broker) {
	t.Helper()
	b, err := broker.New(broker.Config{Topics: map[string]int{"events": 2}}, noopLogger{})
	require.NoError(t, err)

	p := producer.New(producer.Config{MaxRetries: 2, RetryBase: time.Millisecond}, b, noopLogger{})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	return usecase.NewEventService(cfg, usecase.Deps{
		Sender:    p,
		Fetcher:   b,
		Catalog:   b,
		Validator: validate.NewEventValidator(validate.DefaultMaxValueBytes),
		Log:       noopLogger{},
	}), b
}

func TestPublish_DefaultTopicAndFetchBack(t *testing.T) {
	svc, _ := newInprocService(t, usecase.Config{PublishTimeout: time.Second, DefaultTopic: "events"})
	ctx := context.Background()

	p := 1
	res, err := svc.Publish(ctx, domain.Event{Value: []byte("hello"), Partition: &p})
	if err != nil {
		t.Fatalf("publish: %v", err)
	}
	if res.Topic != "events" || res.Partition != 1 || res.Offset != 0 || res.Retries != 0 {
		t.Fatalf("unexpected result %+v", res)
	}

	got, err := svc.Fetch(ctx, domain.FetchRequest{Topic: "events", Partition: 1})
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, []byte("hello"), got[0].Value)

	topics, err := svc.Topics(ctx)
	require.NoError(t, err)
	require.Len(t, topics, 1)
	require.Equal(t, []int64{0, 1}, topics[0].HighWatermarks)
}

func TestPublish_InvalidEvent_NotSent(t *testing.T) {
	ctrl := gomock.NewController(t)
	app := mocks.NewMockAppender(ctrl) // ни одного вызова Append

	p := producer.New(producer.Config{}, app, noopLogger{})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{
		Sender:    p,
		Validator: validate.NewEventValidator(validate.DefaultMaxValueBytes),
		Log:       noopLogger{},
	})

	_, err := svc.Publish(context.Background(), domain.Event{Topic: "bad topic!", Value: []byte("x")})
	if !errors.Is(err, validate.ErrInvalidEvent) {
		t.Fatalf("expected ErrInvalidEvent, got %v", err)
	}
}

func TestPublish_UnknownTopicIsPermanent(t *testing.T) {
	svc, _ := newInprocService(t, usecase.Config{PublishTimeout: time.Second})

	_, err := svc.Publish(context.Background(), domain.Event{Topic: "missing", Value: []byte("x")})
	require.ErrorIs(t, err, domain.ErrUnknownTopic)
	require.Equal(t, domain.KindPermanent, domain.Classify(err))
}

func TestPublish_TransientFailureIsRetried(t *testing.T) {
	ctrl := gomock.NewController(t)
	app := mocks.NewMockAppender(ctrl)

	loc := domain.Location{Topic: "events", Partition: 0, Offset: 41}
	gomock.InOrder(
		app.EXPECT().Append(gomock.Any(), gomock.Any()).Return(domain.Location{}, domain.Transient(errors.New("conn reset"))),
		app.EXPECT().Append(gomock.Any(), gomock.Any()).Return(loc, nil),
	)

	p := producer.New(producer.Config{MaxRetries: 3, RetryBase: time.Millisecond}, app, noopLogger{})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	svc := usecase.NewEventService(usecase.Config{PublishTimeout: time.Second}, usecase.Deps{Sender: p, Log: noopLogger{}})

	res, err := svc.Publish(context.Background(), domain.Event{Topic: "events", Value: []byte("x")})
	require.NoError(t, err)
	require.Equal(t, loc, res.Location)
	require.Equal(t, 1, res.Retries)
}

func TestPublish_WaitTimeoutIsTransient(t *testing.T) {
	ctrl := gomock.NewController(t)
	app := mocks.NewMockAppender(ctrl)

	// запись висит до таймаута попытки
	app.EXPECT().Append(gomock.Any(), gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ domain.AppendRequest) (domain.Location, error) {
			<-ctx.Done()
			return domain.Location{}, ctx.Err()
		})

	p := producer.New(producer.Config{MaxRetries: 0, AttemptTimeout: 200 * time.Millisecond}, app, noopLogger{})
	t.Cleanup(func() { _ = p.Close(context.Background()) })

	svc := usecase.NewEventService(usecase.Config{PublishTimeout: 20 * time.Millisecond}, usecase.Deps{Sender: p, Log: noopLogger{}})

	_, err := svc.Publish(context.Background(), domain.Event{Topic: "events", Value: []byte("x")})
	require.ErrorIs(t, err, domain.ErrTimeout)
	require.True(t, domain.IsTransient(err))
}

func TestPublish_EmptyTopicWithoutValidator(t *testing.T) {
	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{Log: noopLogger{}})

	_, err := svc.Publish(context.Background(), domain.Event{Value: []byte("x")})
	require.ErrorIs(t, err, usecase.ErrEmptyTopic)
}

func TestFetch_EmptyTopic(t *testing.T) {
	svc, _ := newInprocService(t, usecase.Config{})

	_, err := svc.Fetch(context.Background(), domain.FetchRequest{})
	require.ErrorIs(t, err, usecase.ErrEmptyTopic)
}

func TestConsumers_DelegateToSupervisor(t *testing.T) {
	ctrl := gomock.NewController(t)
	sup := mocks.NewMockConsumerSupervisor(ctrl)

	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{Supervisor: sup, Log: noopLogger{}})
	ctx := context.Background()

	st := []domain.ConsumerStatus{{Group: "g", Topic: "events", State: "stopped"}}
	req := domain.ResumeRequest{Group: "g", Topic: "events"}
	resumeErr := errors.New("consumer is running")

	sup.EXPECT().Status().Return(st)
	sup.EXPECT().Healthy().Return(false)
	sup.EXPECT().Resume(gomock.Any(), req).Return(resumeErr)

	require.Equal(t, st, svc.ConsumerStatus(ctx))
	require.False(t, svc.Healthy())
	require.ErrorIs(t, svc.ResumeConsumer(ctx, req), resumeErr)
}

func TestConsumers_NoSupervisor(t *testing.T) {
	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{Log: noopLogger{}})

	require.Empty(t, svc.ConsumerStatus(context.Background()))
	require.True(t, svc.Healthy())
	require.Error(t, svc.ResumeConsumer(context.Background(), domain.ResumeRequest{Group: "g"}))
}

func TestHandleMessage_FlagsRedelivery(t *testing.T) {
	seen := cachemem.NewSeenCache(16, time.Minute)
	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{Seen: seen, Log: noopLogger{}})

	const topic = "redelivery-test"
	msg := domain.Message{Topic: topic, Partition: 0, Offset: 5, Value: []byte("v")}
	ctxA := ctxmeta.WithRecord(context.Background(), ctxmeta.Record{Group: "a", Topic: topic, Offset: 5})
	ctxB := ctxmeta.WithRecord(context.Background(), ctxmeta.Record{Group: "b", Topic: topic, Offset: 5})

	before := testutil.ToFloat64(metrics.MessagesRedelivered.WithLabelValues(topic))

	require.NoError(t, svc.HandleMessage(ctxA, msg))
	// другая группа — не повтор
	require.NoError(t, svc.HandleMessage(ctxB, msg))
	require.Equal(t, before, testutil.ToFloat64(metrics.MessagesRedelivered.WithLabelValues(topic)))

	require.NoError(t, svc.HandleMessage(ctxA, msg))
	require.Equal(t, before+1, testutil.ToFloat64(metrics.MessagesRedelivered.WithLabelValues(topic)))
}

func TestHandleMessage_UsesSeenCacheKey(t *testing.T) {
	ctrl := gomock.NewController(t)
	seen := mocks.NewMockSeenCache(ctrl)
	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{Seen: seen, Log: noopLogger{}})

	seen.EXPECT().Seen(gomock.Any(), "g1/events/2/9").Return(false)

	ctx := ctxmeta.WithRecord(context.Background(), ctxmeta.Record{Group: "g1", Topic: "events", Partition: 2, Offset: 9})
	require.NoError(t, svc.HandleMessage(ctx, domain.Message{Topic: "events", Partition: 2, Offset: 9}))
}

func TestPublish_ValidatorSeesDefaultTopic(t *testing.T) {
	ctrl := gomock.NewController(t)
	v := mocks.NewMockEventValidator(ctrl)

	rejected := fmt.Errorf("%w: value too large", validate.ErrInvalidEvent)
	v.EXPECT().Validate(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ev *domain.Event) error {
			require.Equal(t, "events", ev.Topic)
			return rejected
		})

	// Sender не задан: отклонённое событие до него не доходит
	svc := usecase.NewEventService(usecase.Config{DefaultTopic: "events"}, usecase.Deps{Validator: v, Log: noopLogger{}})

	_, err := svc.Publish(context.Background(), domain.Event{Value: []byte("x")})
	require.ErrorIs(t, err, validate.ErrInvalidEvent)
}

func TestTopics_DelegateToCatalog(t *testing.T) {
	ctrl := gomock.NewController(t)
	catalog := mocks.NewMockTopicCatalog(ctrl)

	want := []domain.TopicInfo{{Name: "events", Partitions: 3}}
	catalog.EXPECT().Topics(gomock.Any()).Return(want, nil)
	catalog.EXPECT().Topics(gomock.Any()).Return(nil, domain.ErrTransport)

	svc := usecase.NewEventService(usecase.Config{}, usecase.Deps{Catalog: catalog, Log: noopLogger{}})

	got, err := svc.Topics(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)

	_, err = svc.Topics(context.Background())
	require.ErrorIs(t, err, domain.ErrTransport)
}
