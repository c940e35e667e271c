package validate

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

func intPtr(v int) *int { return &v }

func TestEventValidator_Validate(t *testing.T) {
	t.Parallel()

	v := NewEventValidator(16)

	tests := []struct {
		name    string
		ev      *domain.Event
		wantErr bool
	}{
		{"ok", &domain.Event{Topic: "events", Value: []byte("v")}, false},
		{"ok with key and partition", &domain.Event{Topic: "a.b_c-1", Key: []byte("k"), Value: []byte("v"), Partition: intPtr(0)}, false},
		{"empty value allowed", &domain.Event{Topic: "events", Value: []byte{}}, false},
		{"nil event", nil, true},
		{"empty topic", &domain.Event{Value: []byte("v")}, true},
		{"bad topic chars", &domain.Event{Topic: "ev ents", Value: []byte("v")}, true},
		{"dot topic", &domain.Event{Topic: "..", Value: []byte("v")}, true},
		{"too long topic", &domain.Event{Topic: strings.Repeat("t", 250), Value: []byte("v")}, true},
		{"nil value", &domain.Event{Topic: "events"}, true},
		{"value too large", &domain.Event{Topic: "events", Value: make([]byte, 17)}, true},
		{"key too large", &domain.Event{Topic: "events", Key: make([]byte, 1025), Value: []byte("v")}, true},
		{"negative partition", &domain.Event{Topic: "events", Value: []byte("v"), Partition: intPtr(-1)}, true},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := v.Validate(context.Background(), tt.ev)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidEvent) {
					t.Fatalf("want ErrInvalidEvent, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func TestNewEventValidator_DefaultLimit(t *testing.T) {
	t.Parallel()

	v := NewEventValidator(0)
	ev := &domain.Event{Topic: "events", Value: make([]byte, DefaultMaxValueBytes)}
	if err := v.Validate(context.Background(), ev); err != nil {
		t.Fatalf("value of exactly the default limit must pass: %v", err)
	}
	ev.Value = append(ev.Value, 'x')
	if err := v.Validate(context.Background(), ev); err == nil {
		t.Fatalf("value over the default limit must fail")
	}
}
