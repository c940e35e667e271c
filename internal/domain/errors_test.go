package domain_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

func TestClassify(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want domain.ErrorKind
	}{
		{"timeout", domain.ErrTimeout, domain.KindTransient},
		{"wrapped timeout", fmt.Errorf("append: %w", domain.ErrTimeout), domain.KindTransient},
		{"deadline", context.DeadlineExceeded, domain.KindTransient},
		{"transport", domain.Transient(errors.New("conn reset")), domain.KindTransient},
		{"canceled", context.Canceled, domain.KindPermanent},
		{"unknown topic", domain.ErrUnknownTopic, domain.KindPermanent},
		{"invalid offset", domain.ErrInvalidOffset, domain.KindPermanent},
		{"storage full", domain.ErrStorageFull, domain.KindPermanent},
		{"handler", &domain.HandlerError{Offset: 2, Err: errors.New("boom")}, domain.KindHandler},
		{"plain", errors.New("boom"), domain.KindPermanent},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := domain.Classify(tt.err); got != tt.want {
				t.Fatalf("Classify(%v) = %s, want %s", tt.err, got, tt.want)
			}
		})
	}
}

func TestFromContext_DeadlineBecomesTimeout(t *testing.T) {
	t.Parallel()

	err := domain.FromContext(context.DeadlineExceeded)
	if !errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("want ErrTimeout, got %v", err)
	}
	if err := domain.FromContext(context.Canceled); !errors.Is(err, context.Canceled) || errors.Is(err, domain.ErrTimeout) {
		t.Fatalf("canceled must stay canceled, got %v", err)
	}
}

func TestHandlerError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("db down")
	err := fmt.Errorf("deliver: %w", &domain.HandlerError{Topic: "orders", Offset: 3, Err: cause})
	if !errors.Is(err, cause) {
		t.Fatalf("HandlerError must unwrap to cause")
	}
}

func TestRecordClone_Independent(t *testing.T) {
	t.Parallel()

	r := domain.Record{Key: []byte("k"), Value: []byte("v"), Timestamp: 1}
	c := r.Clone()
	c.Value[0] = 'x'
	if string(r.Value) != "v" {
		t.Fatalf("clone shares memory with original")
	}
	if (domain.Record{}).Clone().Key != nil {
		t.Fatalf("absent key must stay nil")
	}
}
