package tap

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/bazelment/ptystream/agentstream"
)

const (
	dirChunk   = "chunk"
	dirMessage = "message"
)

// TraceEntry is one line of a JSONL trace file: either a raw input chunk or
// an emitted message, with the time of observation. Raw bytes are stored
// base64-encoded (the `data` field uses []byte JSON encoding) because PTY
// output is not valid UTF-8 in general.
type TraceEntry struct {
	Timestamp time.Time                     `json:"timestamp"`
	Direction string                        `json:"direction"`
	Data      []byte                        `json:"data,omitempty"`
	Message   *agentstream.StreamingMessage `json:"message,omitempty"`
}

// ParseTraceEntry parses one line of a trace file.
func ParseTraceEntry(line []byte) (*TraceEntry, error) {
	var entry TraceEntry
	if err := json.Unmarshal(line, &entry); err != nil {
		return nil, fmt.Errorf("parse trace entry: %w", err)
	}
	return &entry, nil
}

// traceRecorder appends trace entries to a writer as JSONL.
type traceRecorder struct {
	enc *json.Encoder
}

func newTraceRecorder(w io.Writer) *traceRecorder {
	return &traceRecorder{enc: json.NewEncoder(w)}
}

func (r *traceRecorder) record(dir string, data []byte, msg *agentstream.StreamingMessage) error {
	entry := TraceEntry{
		Timestamp: time.Now(),
		Direction: dir,
		Data:      data,
		Message:   msg,
	}
	if err := r.enc.Encode(entry); err != nil {
		return fmt.Errorf("encode trace entry: %w", err)
	}
	return nil
}
