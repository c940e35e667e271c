package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// Appender — то, во что продюсер пишет записи (брокер в процессе или внешний Kafka).
type Appender interface {
	Append(ctx context.Context, req domain.AppendRequest) (domain.Location, error)
}
