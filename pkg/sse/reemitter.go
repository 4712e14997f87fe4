package sse

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"notebook-widget-be/pkg/apperror"
)

// AnswerMode declares how the backend chunks answer frames. The backend
// contract is not pinned down, so the convention is an explicit mode rather
// than a per-frame guess; both modes produce identical at-most-once output.
type AnswerMode string

const (
	// AnswerCumulative means each answer frame carries the full answer
	// produced so far; only the new suffix is emitted.
	AnswerCumulative AnswerMode = "cumulative"
	// AnswerIncremental means each answer frame carries a discrete token
	// that is emitted as-is.
	AnswerIncremental AnswerMode = "incremental"
)

// Frame type discriminators used by the backend stream.
const (
	FrameStrategy = "strategy"
	FrameAnswer   = "answer"
	FrameComplete = "complete"
	FrameError    = "error"
)

// frame is one logical event decoded from the upstream stream.
type frame struct {
	Type    string `json:"type"`
	Content string `json:"content"`
	Answer  string `json:"answer"`
	Message string `json:"message"`
}

// text returns the answer payload, whichever field the backend used.
func (f *frame) text() string {
	if f.Content != "" {
		return f.Content
	}
	return f.Answer
}

const dataPrefix = "data:"

// Reemitter consumes a byte stream of newline-delimited SSE frames and emits
// only newly produced answer text. It buffers incomplete lines across network
// chunks, so upstream chunk boundaries never have to align with frame
// boundaries. A Reemitter drives exactly one stream and is not restartable.
type Reemitter struct {
	mode AnswerMode

	accumulated string
	skipped     int
}

func NewReemitter(mode AnswerMode) *Reemitter {
	if mode != AnswerIncremental {
		mode = AnswerCumulative
	}
	return &Reemitter{mode: mode}
}

// Accumulated returns the answer text seen so far. Valid during and after
// Reemit; used for transcript logging.
func (r *Reemitter) Accumulated() string {
	return r.accumulated
}

// SkippedFrames reports how many malformed lines were dropped.
func (r *Reemitter) SkippedFrames() int {
	return r.skipped
}

// Reemit reads src until a terminal frame or EOF, calling emit with each new
// chunk of answer text in order. A malformed line is skipped and the loop
// continues. A complete frame stops processing immediately and discards any
// unread bytes; an error frame stops with an upstream error carrying the
// backend message. Physical EOF without a terminal frame counts as success.
// If emit returns an error (the consumer went away), reading stops and that
// error is returned; chunks already emitted stand.
func (r *Reemitter) Reemit(src io.Reader, emit func(string) error) error {
	var pending []byte
	buf := make([]byte, 4096)

	for {
		n, readErr := src.Read(buf)
		if n > 0 {
			pending = append(pending, buf[:n]...)

			for {
				nl := bytes.IndexByte(pending, '\n')
				if nl < 0 {
					break
				}
				line := string(pending[:nl])
				pending = pending[nl+1:]

				done, err := r.processLine(line, emit)
				if err != nil {
					return err
				}
				if done {
					return nil
				}
			}
		}

		if readErr == io.EOF {
			// A trailing line without a newline is complete at EOF.
			if len(pending) > 0 {
				if _, err := r.processLine(string(pending), emit); err != nil {
					return err
				}
			}
			return nil
		}
		if readErr != nil {
			return fmt.Errorf("read upstream stream: %w", readErr)
		}
	}
}

// processLine handles one complete line. done is true once a terminal frame
// was seen. A non-nil error aborts the stream; parse failures do not.
func (r *Reemitter) processLine(line string, emit func(string) error) (done bool, err error) {
	line = strings.TrimRight(line, "\r")

	payload := strings.TrimSpace(line)
	if payload == "" {
		return false, nil
	}
	// Lines prefixed "data:" carry an SSE payload; anything else is tried
	// as a bare JSON event (secondary framing used for token notifications).
	if strings.HasPrefix(payload, dataPrefix) {
		payload = strings.TrimSpace(payload[len(dataPrefix):])
		if payload == "" {
			return false, nil
		}
	}

	var f frame
	if jsonErr := json.Unmarshal([]byte(payload), &f); jsonErr != nil {
		r.skipped++
		return false, nil
	}

	switch f.Type {
	case FrameAnswer:
		return false, r.emitAnswer(&f, emit)
	case FrameComplete:
		return true, nil
	case FrameError:
		return true, apperror.NewUpstream(http.StatusBadGateway, f.Message)
	case FrameStrategy:
		// Preparatory event, no output.
		return false, nil
	default:
		return false, nil
	}
}

func (r *Reemitter) emitAnswer(f *frame, emit func(string) error) error {
	text := f.text()
	if text == "" {
		return nil
	}

	switch r.mode {
	case AnswerIncremental:
		r.accumulated += text
		return emit(text)
	default:
		// Cumulative: emit only the suffix beyond what was already sent.
		// Stale or shrinking frames produce no output.
		if len(text) <= len(r.accumulated) {
			return nil
		}
		delta := text[len(r.accumulated):]
		r.accumulated = text
		return emit(delta)
	}
}
