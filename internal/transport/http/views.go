package rest

import (
	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

// RecordView — запись партиции в ответе fetch.
// Если key или value не UTF-8, обе части в base64 и encoding = "base64".
type RecordView struct {
	Offset    int64   `json:"offset"`
	Key       *string `json:"key,omitempty"`
	Value     string  `json:"value"`
	Encoding  string  `json:"encoding,omitempty"`
	Timestamp int64   `json:"timestamp"`
}

// FetchResponse — ответ GET /topics/:topic/partitions/:partition/records.
type FetchResponse struct {
	Topic     string       `json:"topic"`
	Partition int          `json:"partition"`
	From      int64        `json:"from"`
	Records   []RecordView `json:"records"`
}

func newRecordView(e domain.Entry) RecordView {
	enc := validate.EncodingFor(e.Key, e.Value)
	v := RecordView{Offset: e.Offset, Value: validate.EncodeString(e.Value, enc), Timestamp: e.Timestamp}
	if enc != validate.EncodingText {
		v.Encoding = enc
	}
	if e.Key != nil {
		k := validate.EncodeString(e.Key, enc)
		v.Key = &k
	}
	return v
}
