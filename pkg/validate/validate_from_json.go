package validate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

// ValidateEventFromJSON — разбор и валидация одного события из JSON.
// defaultTopic подставляется, если topic в JSON не задан.
func ValidateEventFromJSON(ctx context.Context, validator ports.EventValidator, raw []byte, defaultTopic string) (*domain.Event, error) {
	var p EventPayload
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("%w: invalid json: %w", ErrInvalidEvent, err)
	}
	// гарантируем отсутствие данных после объекта
	if err := dec.Decode(new(struct{})); err != io.EOF {
		return nil, fmt.Errorf("%w: invalid json: trailing data", ErrInvalidEvent)
	}
	if p.Topic == "" {
		p.Topic = defaultTopic
	}

	ev, err := p.Event()
	if err != nil {
		return nil, err
	}
	if err := validator.Validate(ctx, &ev); err != nil {
		return nil, err
	}
	return &ev, nil
}
