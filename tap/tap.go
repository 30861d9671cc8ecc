// Package tap composes the control-sequence filter and the stream-json
// extractor into the per-session processing pipeline: each PTY chunk is
// filtered, the filtered bytes are returned for rendering, and any structured
// messages reconstructed from them are delivered to a handler in stream
// order.
package tap

import (
	"io"
	"log/slog"

	"github.com/bazelment/ptystream/agentstream"
	"github.com/bazelment/ptystream/termfilter"
)

// MessageHandler receives one reconstructed message per call, in stream order.
type MessageHandler func(agentstream.StreamingMessage)

// Tap processes one PTY session's output. Create one Tap per session; calls
// must be serialized by the owner. Distinct sessions need no coordination.
type Tap struct {
	filter    *termfilter.Filter
	extractor *agentstream.Extractor
	handler   MessageHandler
	logger    *slog.Logger
	trace     *traceRecorder
}

// Option configures a Tap.
type Option func(*Tap)

// WithMessageHandler sets the handler invoked for each reconstructed message.
func WithMessageHandler(h MessageHandler) Option {
	return func(t *Tap) { t.handler = h }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(t *Tap) { t.logger = l }
}

// WithTrace records every raw chunk and emitted message to w as JSONL trace
// entries. Write failures are logged and disable further tracing; processing
// is never interrupted.
func WithTrace(w io.Writer) Option {
	return func(t *Tap) { t.trace = newTraceRecorder(w) }
}

// New creates a Tap for one session.
func New(opts ...Option) *Tap {
	t := &Tap{
		filter:    termfilter.New(),
		extractor: agentstream.NewExtractor(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// ProcessChunk filters one chunk of PTY output and returns the bytes safe to
// forward to a renderer. Messages reconstructed from the filtered stream are
// delivered to the handler before ProcessChunk returns.
func (t *Tap) ProcessChunk(chunk []byte) []byte {
	t.record(dirChunk, chunk, nil)

	out := t.filter.Process(chunk)
	t.deliver(t.extractor.Ingest(out))
	return out
}

// Flush releases any bytes still buffered by the filter and must be called
// once at session teardown. Flushed bytes are part of the logical output
// stream, so they also feed the extractor.
func (t *Tap) Flush() []byte {
	out := t.filter.Flush()
	if len(out) > 0 {
		t.deliver(t.extractor.Ingest(out))
	}
	return out
}

func (t *Tap) deliver(msgs []agentstream.StreamingMessage) {
	for _, msg := range msgs {
		t.record(dirMessage, nil, &msg)
		if t.handler != nil {
			t.handler(msg)
		}
	}
}

func (t *Tap) record(dir string, data []byte, msg *agentstream.StreamingMessage) {
	if t.trace == nil {
		return
	}
	if err := t.trace.record(dir, data, msg); err != nil {
		t.logger.Warn("trace write failed, disabling trace", "error", err)
		t.trace = nil
	}
}
