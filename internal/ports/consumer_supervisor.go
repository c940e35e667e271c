package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// ConsumerSupervisor — управление набором консьюмеров со стороны внешних слоёв.
type ConsumerSupervisor interface {
	Status() []domain.ConsumerStatus
	Resume(ctx context.Context, req domain.ResumeRequest) error
	// Healthy — false, если хотя бы один консьюмер остановлен.
	Healthy() bool
}
