package domain

import "time"

// Record — запись лога партиции. После добавления в партицию не изменяется.
type Record struct {
	Key       []byte // nil — ключ отсутствует
	Value     []byte
	Timestamp int64 // unix-время в миллисекундах
}

// Clone — глубокая копия записи (ключ и значение копируются).
func (r Record) Clone() Record {
	out := Record{Timestamp: r.Timestamp}
	if r.Key != nil {
		out.Key = append([]byte{}, r.Key...)
	}
	if r.Value != nil {
		out.Value = append([]byte{}, r.Value...)
	}
	return out
}

// Entry — запись вместе с назначенным ей оффсетом.
type Entry struct {
	Offset int64
	Record
}

// Message — то, что получает обработчик консьюмера.
type Message struct {
	Topic     string
	Partition int
	Offset    int64
	Key       []byte
	Value     []byte
	Timestamp int64
}

// NewMessage собирает сообщение из записи и её координат.
func NewMessage(topic string, partition int, e Entry) Message {
	return Message{
		Topic:     topic,
		Partition: partition,
		Offset:    e.Offset,
		Key:       e.Key,
		Value:     e.Value,
		Timestamp: e.Timestamp,
	}
}

// Location — место, куда брокер положил запись.
type Location struct {
	Topic     string `json:"topic"`
	Partition int    `json:"partition"`
	Offset    int64  `json:"offset"`
}

// AppendRequest — запрос на добавление записи.
// Partition != nil — явный выбор партиции вместо партиционера.
type AppendRequest struct {
	Topic     string
	Key       []byte
	Value     []byte
	Partition *int
	Timestamp int64
}

// Record — запись, которую нужно положить в лог; пустой Timestamp заполняется текущим временем.
func (r AppendRequest) Record(now time.Time) Record {
	ts := r.Timestamp
	if ts == 0 {
		ts = now.UnixMilli()
	}
	return Record{Key: r.Key, Value: r.Value, Timestamp: ts}
}

// FetchRequest — запрос на чтение партиции начиная с FromOffset.
type FetchRequest struct {
	Topic      string
	Partition  int
	FromOffset int64
	MaxRecords int
}

// CommitRecord — «следующий оффсет для чтения» группы в партиции.
type CommitRecord struct {
	Group     string
	Topic     string
	Partition int
	Offset    int64
}

// TopicPartition — пара (топик, партиция).
type TopicPartition struct {
	Topic     string
	Partition int
}
