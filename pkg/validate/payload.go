package validate

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"unicode/utf8"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

// Кодировки key/value в JSON-представлении события.
const (
	EncodingText   = "text"   // по умолчанию: содержимое JSON-строки байт в байт, иной JSON — как прислан
	EncodingBase64 = "base64" // key и value — base64 (StdEncoding) в JSON-строках
	EncodingJSON   = "json"   // value — любой JSON, хранится компактным
)

// EventPayload — JSON-представление события (тело HTTP-запроса, строка файла).
type EventPayload struct {
	Topic     string          `json:"topic,omitempty"`
	Key       *string         `json:"key,omitempty"`
	Value     json.RawMessage `json:"value"`
	Partition *int            `json:"partition,omitempty"`
	Encoding  string          `json:"encoding,omitempty"`
}

// Event переводит представление в доменное событие; отсутствующий или null value — nil.
func (p EventPayload) Event() (domain.Event, error) {
	enc := p.Encoding
	if enc == "" {
		enc = EncodingText
	}
	ev := domain.Event{Topic: p.Topic, Partition: p.Partition}

	if p.Key != nil {
		if enc == EncodingBase64 {
			k, err := base64.StdEncoding.DecodeString(*p.Key)
			if err != nil {
				return domain.Event{}, fmt.Errorf("%w: key is not base64: %w", ErrInvalidEvent, err)
			}
			ev.Key = k
		} else {
			ev.Key = []byte(*p.Key)
		}
	}

	raw := bytes.TrimSpace(p.Value)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ev, nil
	}

	switch enc {
	case EncodingText:
		if raw[0] != '"' {
			ev.Value = append([]byte{}, raw...)
			return ev, nil
		}
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.Event{}, fmt.Errorf("%w: value: %w", ErrInvalidEvent, err)
		}
		ev.Value = []byte(s)
	case EncodingBase64:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return domain.Event{}, fmt.Errorf("%w: base64 value must be a JSON string", ErrInvalidEvent)
		}
		v, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return domain.Event{}, fmt.Errorf("%w: value is not base64: %w", ErrInvalidEvent, err)
		}
		ev.Value = v
	case EncodingJSON:
		var buf bytes.Buffer
		if err := json.Compact(&buf, raw); err != nil {
			return domain.Event{}, fmt.Errorf("%w: value: %w", ErrInvalidEvent, err)
		}
		ev.Value = buf.Bytes()
	default:
		return domain.Event{}, fmt.Errorf("%w: unknown encoding %q (want text|base64|json)", ErrInvalidEvent, p.Encoding)
	}
	return ev, nil
}

// NewEventPayload — обратное преобразование без потерь: value всегда JSON-строка,
// а если key или value не UTF-8 — обе части в base64.
func NewEventPayload(ev domain.Event) EventPayload {
	p := EventPayload{Topic: ev.Topic, Partition: ev.Partition}
	enc := EncodingFor(ev.Key, ev.Value)
	if enc != EncodingText {
		p.Encoding = enc
	}
	if ev.Key != nil {
		k := EncodeString(ev.Key, enc)
		p.Key = &k
	}
	if ev.Value != nil {
		p.Value, _ = json.Marshal(EncodeString(ev.Value, enc))
	}
	return p
}

// EncodingFor — text, если все части валидный UTF-8, иначе base64.
func EncodingFor(parts ...[]byte) string {
	for _, b := range parts {
		if !utf8.Valid(b) {
			return EncodingBase64
		}
	}
	return EncodingText
}

// EncodeString — байты строкой в кодировке enc (text или base64).
func EncodeString(b []byte, enc string) string {
	if enc == EncodingBase64 {
		return base64.StdEncoding.EncodeToString(b)
	}
	return string(b)
}
