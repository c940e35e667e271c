package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

type EventValidator interface {
	Validate(ctx context.Context, ev *domain.Event) error
}
