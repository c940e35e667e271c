package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// TopicCatalog — описание доступных топиков (брокер в процессе или внешний Kafka).
type TopicCatalog interface {
	Topics(ctx context.Context) ([]domain.TopicInfo, error)
}
