package ports

import (
	"context"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// OffsetStore — хранилище закоммиченных оффсетов групп.
// Требования к реализации: коммит долговечен к моменту возврата; идемпотентен;
// монотонен (оффсет не больше сохранённого — no-op без ошибки).
type OffsetStore interface {
	// Get — следующий оффсет для чтения; ok=false, если группа ещё ничего не коммитила.
	Get(ctx context.Context, group, topic string, partition int) (offset int64, ok bool, err error)
	Commit(ctx context.Context, rec domain.CommitRecord) error
}
