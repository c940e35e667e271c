package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// DeadLetterSink — куда консьюмер отправляет запись, которую не смог обработать.
type DeadLetterSink interface {
	Forward(ctx context.Context, msg domain.Message, cause error) error
}
