package ports

import "context"

// MessageConsumer — долгоживущий потребитель: Run блокируется до отмены ctx или фатальной ошибки,
// Close просит дообработать текущий батч и закоммитить обработанное.
type MessageConsumer interface {
	Run(ctx context.Context) error
	Close() error
}
