package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// Fetcher — источник записей для консьюмера.
type Fetcher interface {
	// Fetch — записи партиции начиная с FromOffset, не больше MaxRecords; пустой срез — новых записей нет.
	Fetch(ctx context.Context, req domain.FetchRequest) ([]domain.Entry, error)
	// EarliestOffset — самый ранний доступный оффсет партиции.
	EarliestOffset(ctx context.Context, topic string, partition int) (int64, error)
	// Partitions — число партиций топика.
	Partitions(ctx context.Context, topic string) (int, error)
}
