package sse

import (
	"errors"
	"io"
	"strings"
	"testing"

	"notebook-widget-be/pkg/apperror"
)

// chunkReader returns the input split into fixed-size chunks so tests can
// force reads that end mid-line and mid-JSON-object.
type chunkReader struct {
	data []byte
	size int
	pos  int
}

func (c *chunkReader) Read(p []byte) (int, error) {
	if c.pos >= len(c.data) {
		return 0, io.EOF
	}
	end := c.pos + c.size
	if end > len(c.data) {
		end = len(c.data)
	}
	n := copy(p, c.data[c.pos:end])
	c.pos += n
	return n, nil
}

func collect(t *testing.T, r *Reemitter, src io.Reader) ([]string, error) {
	t.Helper()
	var chunks []string
	err := r.Reemit(src, func(s string) error {
		chunks = append(chunks, s)
		return nil
	})
	return chunks, err
}

const cumulativeStream = `data: {"type": "strategy", "content": "planning"}
data: {"type": "answer", "content": "Hel"}
data: {"type": "answer", "content": "Hello, wor"}
data: {"type": "answer", "content": "Hello, world."}
data: {"type": "complete"}
`

func TestReemitCumulative(t *testing.T) {
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(cumulativeStream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}

	got := strings.Join(chunks, "")
	if got != "Hello, world." {
		t.Errorf("output = %q, want %q", got, "Hello, world.")
	}
	if r.Accumulated() != "Hello, world." {
		t.Errorf("Accumulated = %q", r.Accumulated())
	}
}

func TestReemitChunkBoundaryInvariance(t *testing.T) {
	// The emitted output must be identical whether frames arrive whole or
	// split at arbitrary byte boundaries.
	whole := NewReemitter(AnswerCumulative)
	wantChunks, err := collect(t, whole, strings.NewReader(cumulativeStream))
	if err != nil {
		t.Fatalf("whole-stream Reemit error: %v", err)
	}
	want := strings.Join(wantChunks, "")

	for _, size := range []int{1, 2, 3, 7, 16, 64} {
		r := NewReemitter(AnswerCumulative)
		chunks, err := collect(t, r, &chunkReader{data: []byte(cumulativeStream), size: size})
		if err != nil {
			t.Fatalf("chunk size %d: Reemit error: %v", size, err)
		}
		if got := strings.Join(chunks, ""); got != want {
			t.Errorf("chunk size %d: output = %q, want %q", size, got, want)
		}
	}
}

func TestReemitIncremental(t *testing.T) {
	stream := `data: {"type": "answer", "content": "Hel"}
data: {"type": "answer", "content": "lo"}
data: {"type": "complete"}
`
	r := NewReemitter(AnswerIncremental)
	chunks, err := collect(t, r, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}

	if got := strings.Join(chunks, ""); got != "Hello" {
		t.Errorf("output = %q, want %q", got, "Hello")
	}
}

func TestReemitMalformedLineRecovered(t *testing.T) {
	stream := `data: {"type": "answer", "content": "one"}
data: {this is not json
data: {"type": "answer", "content": "one two"}
data: {"type": "complete"}
`
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}

	if got := strings.Join(chunks, ""); got != "one two" {
		t.Errorf("output = %q, want %q", got, "one two")
	}
	if r.SkippedFrames() != 1 {
		t.Errorf("SkippedFrames = %d, want 1", r.SkippedFrames())
	}
}

func TestReemitCompleteStopsImmediately(t *testing.T) {
	stream := `data: {"type": "answer", "content": "before"}
data: {"type": "complete"}
data: {"type": "answer", "content": "before after"}
`
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}

	if got := strings.Join(chunks, ""); got != "before" {
		t.Errorf("output = %q, want %q", got, "before")
	}
}

func TestReemitErrorFrame(t *testing.T) {
	stream := `data: {"type": "answer", "content": "partial"}
data: {"type": "error", "message": "model unavailable"}
`
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(stream))

	if !apperror.IsUpstream(err) {
		t.Fatalf("err = %v, want upstream error", err)
	}
	if !strings.Contains(err.Error(), "model unavailable") {
		t.Errorf("err = %v, want backend message included", err)
	}
	// Already-emitted chunks are not retracted.
	if got := strings.Join(chunks, ""); got != "partial" {
		t.Errorf("output = %q, want %q", got, "partial")
	}
}

func TestReemitSilentEOF(t *testing.T) {
	stream := `data: {"type": "answer", "content": "all of it"}`

	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "all of it" {
		t.Errorf("output = %q, want %q", got, "all of it")
	}
}

func TestReemitBareJSONFraming(t *testing.T) {
	// Lines without the data: prefix are tried as bare JSON events.
	stream := `{"type": "answer", "content": "token"}
{"type": "complete"}
`
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "token" {
		t.Errorf("output = %q, want %q", got, "token")
	}
}

func TestReemitIgnoresUnknownAndBlank(t *testing.T) {
	stream := `
data: {"type": "heartbeat"}

data: {"type": "answer", "content": "text"}
data: {"type": "complete"}
`
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, strings.NewReader(stream))
	if err != nil {
		t.Fatalf("Reemit error: %v", err)
	}
	if got := strings.Join(chunks, ""); got != "text" {
		t.Errorf("output = %q, want %q", got, "text")
	}
}

func TestReemitEmitFailureStopsReading(t *testing.T) {
	stream := `data: {"type": "answer", "content": "a"}
data: {"type": "answer", "content": "ab"}
data: {"type": "complete"}
`
	wantErr := errors.New("client gone")
	r := NewReemitter(AnswerCumulative)
	calls := 0
	err := r.Reemit(strings.NewReader(stream), func(string) error {
		calls++
		return wantErr
	})

	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v, want %v", err, wantErr)
	}
	if calls != 1 {
		t.Errorf("emit calls = %d, want 1", calls)
	}
}

type failingReader struct {
	data string
	read bool
}

func (f *failingReader) Read(p []byte) (int, error) {
	if !f.read {
		f.read = true
		return copy(p, f.data), nil
	}
	return 0, errors.New("connection reset")
}

func TestReemitReadFailure(t *testing.T) {
	r := NewReemitter(AnswerCumulative)
	chunks, err := collect(t, r, &failingReader{data: "data: {\"type\": \"answer\", \"content\": \"kept\"}\n"})

	if err == nil {
		t.Fatal("want read error")
	}
	if got := strings.Join(chunks, ""); got != "kept" {
		t.Errorf("output = %q, want %q", got, "kept")
	}
}
