package rest_test

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"

	"github.com/Gunvolt24/eventpipe/internal/consumer"
	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports/mocks"
	rest "github.com/Gunvolt24/eventpipe/internal/transport/http"
	"github.com/Gunvolt24/eventpipe/pkg/validate"
)

type noopLogger struct{}

func (noopLogger) Infof(context.Context, string, ...any)  {}
func (noopLogger) Warnf(context.Context, string, ...any)  {}
func (noopLogger) Errorf(context.Context, string, ...any) {}

func newRouter(t *testing.T) (*gin.Engine, *mocks.MockEventService) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctrl := gomock.NewController(t)
	svc := mocks.NewMockEventService(ctrl)
	h := rest.NewHandler(svc, noopLogger{}, 0)
	return rest.NewRouter(h, ""), svc
}

func serve(r *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, http.NoBody)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestPublishMessage_OK(t *testing.T) {
	r, svc := newRouter(t)

	svc.EXPECT().Publish(gomock.Any(), domain.Event{Value: []byte("hello")}).
		Return(domain.PublishResult{Location: domain.Location{Topic: "events", Partition: 1, Offset: 4}, Retries: 2}, nil)

	w := serve(r, http.MethodPost, "/events/publish/hello", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var got map[string]any
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got["topic"] != "events" || got["partition"] != float64(1) || got["offset"] != float64(4) || got["retries"] != float64(2) {
		t.Fatalf("unexpected body: %v", got)
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatalf("request id header is missing")
	}
}

func TestPublishRecord_BodyToEvent(t *testing.T) {
	r, svc := newRouter(t)

	p := 2
	want := domain.Event{Topic: "orders", Key: []byte("user-1"), Value: []byte(`{ "a": 1 }`), Partition: &p}
	svc.EXPECT().Publish(gomock.Any(), want).Return(domain.PublishResult{Location: domain.Location{Topic: "orders", Partition: 2}}, nil)

	w := serve(r, http.MethodPost, "/topics/orders/records", `{"key":"user-1","value":{ "a": 1 },"partition":2}`)
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
}

func TestPublishRecord_ValueEncodings(t *testing.T) {
	tests := []struct {
		name string
		body string
		want domain.Event
	}{
		{"quoted string", `{"value":"\"hi\""}`, domain.Event{Topic: "orders", Value: []byte(`"hi"`)}},
		{"json compacted", `{"value":{ "a": 1 },"encoding":"json"}`, domain.Event{Topic: "orders", Value: []byte(`{"a":1}`)}},
		{"base64", `{"key":"AP8=","value":"/wD+","encoding":"base64"}`, domain.Event{Topic: "orders", Key: []byte{0x00, 0xff}, Value: []byte{0xff, 0x00, 0xfe}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := newRouter(t)
			svc.EXPECT().Publish(gomock.Any(), tt.want).Return(domain.PublishResult{Location: domain.Location{Topic: "orders"}}, nil)

			if w := serve(r, http.MethodPost, "/topics/orders/records", tt.body); w.Code != http.StatusOK {
				t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
			}
		})
	}
}

func TestPublishRecord_BadEncodingIs400(t *testing.T) {
	r, _ := newRouter(t)

	for _, body := range []string{
		`{"value":"v","encoding":"hex"}`,
		`{"value":"***","encoding":"base64"}`,
	} {
		if w := serve(r, http.MethodPost, "/topics/orders/records", body); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", body, w.Code)
		}
	}
}

func TestPublishRecord_InvalidJSON(t *testing.T) {
	r, _ := newRouter(t)

	w := serve(r, http.MethodPost, "/topics/orders/records", `{"value":`)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestPublish_ErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"invalid event", fmt.Errorf("%w: value обязателен", validate.ErrInvalidEvent), http.StatusBadRequest},
		{"unknown topic", fmt.Errorf("topic %q: %w", "x", domain.ErrUnknownTopic), http.StatusInternalServerError},
		{"partition out of range", fmt.Errorf("partition 9: %w", domain.ErrUnknownPartition), http.StatusBadRequest},
		{"timeout", fmt.Errorf("wait: %w", domain.ErrTimeout), http.StatusServiceUnavailable},
		{"transport", domain.Transient(errors.New("broken pipe")), http.StatusServiceUnavailable},
		{"storage full", domain.ErrStorageFull, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := newRouter(t)
			svc.EXPECT().Publish(gomock.Any(), gomock.Any()).Return(domain.PublishResult{}, tt.err)

			w := serve(r, http.MethodPost, "/events/publish/x", "")
			if w.Code != tt.want {
				t.Fatalf("want %d, got %d, body=%s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestFetchRecords_OK(t *testing.T) {
	r, svc := newRouter(t)

	svc.EXPECT().Fetch(gomock.Any(), domain.FetchRequest{Topic: "events", Partition: 1, FromOffset: 3, MaxRecords: 2}).
		Return([]domain.Entry{
			{Offset: 3, Record: domain.Record{Key: []byte("k"), Value: []byte("a"), Timestamp: 10}},
			{Offset: 4, Record: domain.Record{Value: []byte("b"), Timestamp: 11}},
		}, nil)

	w := serve(r, http.MethodGet, "/topics/events/partitions/1/records?from=3&max=2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var got rest.FetchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if len(got.Records) != 2 || got.Records[0].Offset != 3 || got.Records[1].Value != "b" {
		t.Fatalf("unexpected records: %+v", got.Records)
	}
	if got.Records[0].Key == nil || *got.Records[0].Key != "k" || got.Records[1].Key != nil {
		t.Fatalf("unexpected keys: %+v", got.Records)
	}
}

func TestFetchRecords_NonUTF8IsBase64(t *testing.T) {
	r, svc := newRouter(t)

	raw := []byte{0xff, 0x00, 0xfe}
	svc.EXPECT().Fetch(gomock.Any(), gomock.Any()).
		Return([]domain.Entry{
			{Offset: 0, Record: domain.Record{Key: []byte("k"), Value: raw, Timestamp: 1}},
			{Offset: 1, Record: domain.Record{Value: []byte("plain"), Timestamp: 2}},
		}, nil)

	w := serve(r, http.MethodGet, "/topics/events/partitions/0/records", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}

	var got rest.FetchResponse
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	first := got.Records[0]
	if first.Encoding != "base64" || first.Key == nil {
		t.Fatalf("want base64 record with key, got %+v", first)
	}
	value, err := base64.StdEncoding.DecodeString(first.Value)
	if err != nil || !bytes.Equal(value, raw) {
		t.Fatalf("value: want %x, got %x (%v)", raw, value, err)
	}
	key, err := base64.StdEncoding.DecodeString(*first.Key)
	if err != nil || string(key) != "k" {
		t.Fatalf("key: want k, got %q (%v)", key, err)
	}
	if got.Records[1].Encoding != "" || got.Records[1].Value != "plain" {
		t.Fatalf("utf-8 record must stay text: %+v", got.Records[1])
	}
}

func TestFetchRecords_DefaultWindow(t *testing.T) {
	r, svc := newRouter(t)

	svc.EXPECT().Fetch(gomock.Any(), domain.FetchRequest{Topic: "events", Partition: 0, FromOffset: 0, MaxRecords: 100}).
		Return(nil, nil)

	w := serve(r, http.MethodGet, "/topics/events/partitions/0/records", "")
	if w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d, body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), `"records":[]`) {
		t.Fatalf("want empty records array, got %s", w.Body.String())
	}
}

func TestFetchRecords_BadParams(t *testing.T) {
	r, _ := newRouter(t)

	for _, path := range []string{
		"/topics/events/partitions/x/records",
		"/topics/events/partitions/-1/records",
		"/topics/events/partitions/0/records?from=-5",
		"/topics/events/partitions/0/records?from=abc",
	} {
		if w := serve(r, http.MethodGet, path, ""); w.Code != http.StatusBadRequest {
			t.Fatalf("%s: want 400, got %d", path, w.Code)
		}
	}
}

func TestFetchRecords_UnknownPartitionIs404(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().Fetch(gomock.Any(), gomock.Any()).Return(nil, fmt.Errorf("p: %w", domain.ErrUnknownPartition))

	if w := serve(r, http.MethodGet, "/topics/events/partitions/9/records", ""); w.Code != http.StatusNotFound {
		t.Fatalf("want 404, got %d", w.Code)
	}
}

func TestListTopics(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().Topics(gomock.Any()).Return([]domain.TopicInfo{{Name: "events", Partitions: 3}}, nil)

	w := serve(r, http.MethodGet, "/topics", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"name":"events"`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}

func TestResumeConsumer(t *testing.T) {
	off := int64(12)
	tests := []struct {
		name string
		body string
		req  domain.ResumeRequest
		err  error
		want int
	}{
		{"no body", "", domain.ResumeRequest{Group: "g", Topic: "events", Partition: 1}, nil, http.StatusAccepted},
		{"with offset", `{"offset":12}`, domain.ResumeRequest{Group: "g", Topic: "events", Partition: 1, Offset: &off}, nil, http.StatusAccepted},
		{"running", "", domain.ResumeRequest{Group: "g", Topic: "events", Partition: 1}, consumer.ErrRunning, http.StatusConflict},
		{"unknown", "", domain.ResumeRequest{Group: "g", Topic: "events", Partition: 1}, fmt.Errorf("g/events/1: %w", consumer.ErrUnknownConsumer), http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, svc := newRouter(t)
			svc.EXPECT().ResumeConsumer(gomock.Any(), tt.req).Return(tt.err)

			if w := serve(r, http.MethodPost, "/consumers/g/events/1/resume", tt.body); w.Code != tt.want {
				t.Fatalf("want %d, got %d, body=%s", tt.want, w.Code, w.Body.String())
			}
		})
	}
}

func TestResumeConsumer_NegativeOffset(t *testing.T) {
	r, _ := newRouter(t)

	if w := serve(r, http.MethodPost, "/consumers/g/events/1/resume", `{"offset":-1}`); w.Code != http.StatusBadRequest {
		t.Fatalf("want 400, got %d", w.Code)
	}
}

func TestHealthz(t *testing.T) {
	r, svc := newRouter(t)

	gomock.InOrder(
		svc.EXPECT().Healthy().Return(true),
		svc.EXPECT().Healthy().Return(false),
		svc.EXPECT().ConsumerStatus(gomock.Any()).Return([]domain.ConsumerStatus{
			{Group: "g", Topic: "events", Partition: 0, State: "fetching"},
			{Group: "g", Topic: "events", Partition: 1, State: "stopped", LastError: "boom"},
		}),
	)

	if w := serve(r, http.MethodGet, "/healthz", ""); w.Code != http.StatusOK {
		t.Fatalf("want 200, got %d", w.Code)
	}

	w := serve(r, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("want 503, got %d", w.Code)
	}
	var got struct {
		Status  string                  `json:"status"`
		Stopped []domain.ConsumerStatus `json:"stopped"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if got.Status != "degraded" || len(got.Stopped) != 1 || got.Stopped[0].Partition != 1 {
		t.Fatalf("unexpected body: %+v", got)
	}
}

func TestListConsumers(t *testing.T) {
	r, svc := newRouter(t)
	svc.EXPECT().ConsumerStatus(gomock.Any()).Return([]domain.ConsumerStatus{{Group: "g", Topic: "events", CommittedOffset: -1}})

	w := serve(r, http.MethodGet, "/consumers", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"committed_offset":-1`) {
		t.Fatalf("unexpected response %d %s", w.Code, w.Body.String())
	}
}
