package validate

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/Gunvolt24/eventpipe/internal/domain"
)

func collect(out *[]domain.Event) EmitFunc {
	return func(_ context.Context, ev *domain.Event) error {
		*out = append(*out, *ev)
		return nil
	}
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write file: %v", err)
	}
	return path
}

func TestValidateFile_JSON_Auto_OK(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "one.json", `{"topic":"events","key":"k","value":"hello"}`)

	var got []domain.Event
	res, err := ValidateFile(ctx, NewEventValidator(0), path, FormatAuto, "", collect(&got))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.String() != "1 valid / 0 invalid" {
		t.Fatalf("unexpected summary: %s", res)
	}
	if len(got) != 1 || got[0].Topic != "events" || string(got[0].Value) != "hello" || string(got[0].Key) != "k" {
		t.Fatalf("unexpected events: %+v", got)
	}
}

func TestValidateFile_JSON_Invalid(t *testing.T) {
	ctx := context.Background()
	path := writeFile(t, "bad.json", `{"topic":"events","value":"x","extra":1}`)

	var got []domain.Event
	res, err := ValidateFile(ctx, NewEventValidator(0), path, FormatJSON, "", collect(&got))
	if !errors.Is(err, ErrInvalidEvent) {
		t.Fatalf("want ErrInvalidEvent, got %v", err)
	}
	if res.InvalidLinesCount != 1 || len(got) != 0 {
		t.Fatalf("unexpected result: %+v, events=%d", res, len(got))
	}
}

func TestValidateFile_JSONL_Auto_Mixed_DefaultTopic(t *testing.T) {
	ctx := context.Background()
	content := strings.Join([]string{
		`{"value":"a"}`,
		`{"topic":"bad topic","value":"b"}`,
		``,
		`{"topic":"other","value":{"n":1}}`,
		`not json`,
	}, "\n")
	path := writeFile(t, "list.jsonl", content)

	var got []domain.Event
	res, err := ValidateFile(ctx, NewEventValidator(0), path, FormatAuto, "events", collect(&got))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ValidLinesCount != 2 || res.InvalidLinesCount != 2 {
		t.Fatalf("unexpected counters: %+v", res)
	}
	if got[0].Topic != "events" || string(got[0].Value) != "a" {
		t.Fatalf("default topic not applied: %+v", got[0])
	}
	if got[1].Topic != "other" || string(got[1].Value) != `{"n":1}` {
		t.Fatalf("unexpected second event: %+v", got[1])
	}
}

func TestValidateFile_MissingFile(t *testing.T) {
	_, err := ValidateFile(context.Background(), NewEventValidator(0), filepath.Join(t.TempDir(), "nope.json"), FormatAuto, "", collect(new([]domain.Event)))
	if err == nil {
		t.Fatalf("expected error for missing file")
	}
}

func TestValidateJSONLStream_EmitErrorStops(t *testing.T) {
	stop := errors.New("stop")
	calls := 0
	emit := func(context.Context, *domain.Event) error {
		calls++
		return stop
	}

	input := "{\"topic\":\"t\",\"value\":1}\n{\"topic\":\"t\",\"value\":2}\n"
	_, err := ValidateJSONLStream(context.Background(), NewEventValidator(0), strings.NewReader(input), "", emit)
	if !errors.Is(err, stop) || calls != 1 {
		t.Fatalf("want stop after first emit, got err=%v calls=%d", err, calls)
	}
}

func TestWriteCanonical(t *testing.T) {
	var out bytes.Buffer
	emit := WriteCanonical(&out)

	if err := emit(context.Background(), &domain.Event{Topic: "t", Value: []byte("hi")}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := out.String(); got != "{\"topic\":\"t\",\"value\":\"hi\"}\n" {
		t.Fatalf("unexpected canonical line: %q", got)
	}
}

func TestParseInputFormat(t *testing.T) {
	for in, want := range map[string]InputFormat{"": FormatAuto, "JSON": FormatJSON, " jsonl ": FormatJSONL, "auto": FormatAuto} {
		got, err := ParseInputFormat(in)
		if err != nil || got != want {
			t.Fatalf("ParseInputFormat(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseInputFormat("xml"); err == nil {
		t.Fatalf("expected error for xml")
	}
}
