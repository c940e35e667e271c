package validate

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/Gunvolt24/eventpipe/internal/ports"
)

// InputFormat допустимые значения.
type InputFormat string

const (
	FormatAuto  InputFormat = "auto"
	FormatJSON  InputFormat = "json"
	FormatJSONL InputFormat = "jsonl"
)

// ParseInputFormat — разбор флага формата; пусто — auto.
func ParseInputFormat(s string) (InputFormat, error) {
	switch f := InputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FormatAuto, nil
	case FormatAuto, FormatJSON, FormatJSONL:
		return f, nil
	default:
		return "", fmt.Errorf("unsupported format: %s", s)
	}
}

// ValidateFile — валидирует файл как JSON (одно событие) или JSONL и отдаёт валидные события в emit.
func ValidateFile(ctx context.Context, validator ports.EventValidator, filePath string, format InputFormat, defaultTopic string, emit EmitFunc) (JSONLResult, error) {
	// auto по расширению
	if format == FormatAuto {
		switch strings.ToLower(filepath.Ext(filePath)) {
		case ".jsonl", ".ndjson":
			format = FormatJSONL
		default:
			// по умолчанию считаем JSON
			format = FormatJSON
		}
	}

	file, err := os.Open(filePath)
	if err != nil {
		return JSONLResult{}, fmt.Errorf("open file: %w", err)
	}
	defer file.Close()

	switch format {
	case FormatJSON:
		raw, err := io.ReadAll(file)
		if err != nil {
			return JSONLResult{}, fmt.Errorf("read file: %w", err)
		}
		ev, err := ValidateEventFromJSON(ctx, validator, raw, defaultTopic)
		if err != nil {
			return JSONLResult{InvalidLinesCount: 1}, err
		}
		if err := emit(ctx, ev); err != nil {
			return JSONLResult{}, err
		}
		return JSONLResult{ValidLinesCount: 1}, nil

	case FormatJSONL:
		return ValidateJSONLStream(ctx, validator, file, defaultTopic, emit)

	default:
		return JSONLResult{}, fmt.Errorf("unsupported format: %s", format)
	}
}
