package streaming

import (
	"fmt"
	"io"
	"strings"
	"testing"
)

func TestSSEParser_ParsesBasicEvent(t *testing.T) {
	input := "event: message\ndata: hello\nid: 1\n\n"
	parser := NewSSEParser(strings.NewReader(input))

	event, err := parser.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Event != "message" || event.Data != "hello" || event.ID != "1" {
		t.Errorf("unexpected event: %+v", event)
	}

	if _, err := parser.Next(); err != io.EOF {
		t.Errorf("expected io.EOF, got %v", err)
	}
}

func TestSSEParser_HandlesLinesLargerThanDefaultScannerBuffer(t *testing.T) {
	// bufio.Scanner's own default max token size is 64KB; a single data
	// line well past that (as a base64 image chunk or a long tool-call
	// argument delta could produce) must still parse cleanly.
	bigPayload := strings.Repeat("x", 200*1024)
	input := fmt.Sprintf("data: %s\n\n", bigPayload)

	parser := NewSSEParser(strings.NewReader(input))
	event, err := parser.Next()
	if err != nil {
		t.Fatalf("unexpected error parsing oversized line: %v", err)
	}
	if event.Data != bigPayload {
		t.Errorf("expected data to round-trip intact, got length %d want %d", len(event.Data), len(bigPayload))
	}
}

func TestSSEParser_MultilineData(t *testing.T) {
	input := "data: line1\ndata: line2\n\n"
	parser := NewSSEParser(strings.NewReader(input))

	event, err := parser.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Data != "line1\nline2" {
		t.Errorf("expected joined multiline data, got %q", event.Data)
	}
}

func TestSSEWriter_RoundTripsWithParser(t *testing.T) {
	var buf strings.Builder
	writer := NewSSEWriter(&buf)

	if err := writer.WriteNamedEvent("message", "hello"); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if err := writer.WriteDone(); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	parser := NewSSEParser(strings.NewReader(buf.String()))

	first, err := parser.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first.Event != "message" || first.Data != "hello" {
		t.Errorf("unexpected first event: %+v", first)
	}

	second, err := parser.Next()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !IsStreamDone(second) {
		t.Errorf("expected done event, got %+v", second)
	}
}
