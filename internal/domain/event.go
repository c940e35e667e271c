package domain

// Event — входные данные публикации (HTTP, CLI).
type Event struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition *int
}

// PublishResult — подтверждённая публикация: где лежит запись и сколько было повторов.
type PublishResult struct {
	Location
	Retries int `json:"retries"`
}

// TopicInfo — описание топика для внешних слоёв.
type TopicInfo struct {
	Name           string  `json:"name"`
	Partitions     int     `json:"partitions"`
	HighWatermarks []int64 `json:"high_watermarks,omitempty"`
}

// ConsumerStatus — снимок состояния консьюмера одной партиции.
type ConsumerStatus struct {
	Group           string `json:"group"`
	Topic           string `json:"topic"`
	Partition       int    `json:"partition"`
	State           string `json:"state"`
	Running         bool   `json:"running"`
	NextOffset      int64  `json:"next_offset"`
	CommittedOffset int64  `json:"committed_offset"` // -1 — коммитов ещё не было
	Handled         int64  `json:"handled"`
	DeadLettered    int64  `json:"dead_lettered"`
	LastError       string `json:"last_error,omitempty"`
}

// Stopped — консьюмер в терминальном состоянии.
func (s ConsumerStatus) Stopped() bool { return s.State == "stopped" }

// ResumeRequest — внешний перезапуск остановленного консьюмера.
// Offset != nil — явный сброс позиции чтения.
type ResumeRequest struct {
	Group     string
	Topic     string
	Partition int
	Offset    *int64
}
