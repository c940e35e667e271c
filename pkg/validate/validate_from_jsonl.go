package validate

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/Gunvolt24/eventpipe/internal/domain"
	"github.com/Gunvolt24/eventpipe/internal/ports"
)

// JSONLResult — статистика валидации потока JSONL.
type JSONLResult struct {
	ValidLinesCount   int
	InvalidLinesCount int
}

func (r JSONLResult) String() string {
	return fmt.Sprintf("%d valid / %d invalid", r.ValidLinesCount, r.InvalidLinesCount)
}

// EmitFunc получает каждое валидное событие; ошибка прерывает обработку.
type EmitFunc func(ctx context.Context, ev *domain.Event) error

// WriteCanonical — EmitFunc, который печатает КАНОНИЧЕСКИЙ JSON события одной строкой.
func WriteCanonical(ow io.Writer) EmitFunc {
	return func(_ context.Context, ev *domain.Event) error {
		line, err := json.Marshal(NewEventPayload(*ev))
		if err != nil {
			return fmt.Errorf("marshal event: %w", err)
		}
		if _, err := ow.Write(append(line, '\n')); err != nil {
			return fmt.Errorf("write valid line: %w", err)
		}
		return nil
	}
}

// ValidateJSONLStream — читает JSONL из reader’а, валидирует каждую строку и отдаёт валидные в emit.
// Пустые строки пропускаются, невалидные только учитываются.
func ValidateJSONLStream(ctx context.Context, validator ports.EventValidator, ir io.Reader, defaultTopic string, emit EmitFunc) (JSONLResult, error) {
	var res JSONLResult

	scanner := bufio.NewScanner(ir)
	// запас на большие строки
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 10*1024*1024)

	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		lineBytes := scanner.Bytes()
		if len(strings.TrimSpace(string(lineBytes))) == 0 {
			continue
		}

		ev, err := ValidateEventFromJSON(ctx, validator, lineBytes, defaultTopic)
		if err != nil {
			res.InvalidLinesCount++
			// не возвращаем ошибку — просто пропускаем невалидную строку
			continue
		}
		if err := emit(ctx, ev); err != nil {
			return res, err
		}
		res.ValidLinesCount++
	}
	if err := scanner.Err(); err != nil {
		return res, fmt.Errorf("scan: %w", err)
	}
	return res, nil
}
