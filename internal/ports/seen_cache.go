package ports

import "context"

// SeenCache — кэш уже обработанных записей группы; нужен для учёта повторных доставок.
// Требования к реализации: потокобезопасность; Seen не блокирует надолго.
type SeenCache interface {
	// Seen отмечает ключ и сообщает, был ли он уже отмечен (и не истёк).
	Seen(ctx context.Context, key string) bool
}
