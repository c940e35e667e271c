package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// EventService — фасад для HTTP-слоя.
type EventService interface {
	Publish(ctx context.Context, ev domain.Event) (domain.PublishResult, error)
	Fetch(ctx context.Context, req domain.FetchRequest) ([]domain.Entry, error)
	Topics(ctx context.Context) ([]domain.TopicInfo, error)
	ConsumerStatus(ctx context.Context) []domain.ConsumerStatus
	ResumeConsumer(ctx context.Context, req domain.ResumeRequest) error
	Healthy() bool
}
