package agentstream

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/buger/jsonparser"
)

// Extractor accumulates the stream-json channel across arbitrarily fragmented
// chunks and emits classified messages per complete line.
//
// One Extractor per PTY session. Not safe for concurrent use; the owner must
// serialize calls. The line buffer never contains a newline: it is always the
// suffix of the bytes received so far that follows the last newline.
type Extractor struct {
	buf []byte
}

// NewExtractor returns an Extractor with an empty line buffer.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Ingest consumes one chunk, processes every complete line it finishes, and
// returns the messages produced, in stream order. The final fragment after
// the last newline is retained for the next call. Malformed lines are skipped
// silently; Ingest never fails.
func (e *Extractor) Ingest(chunk []byte) []StreamingMessage {
	if len(chunk) == 0 {
		return nil
	}
	e.buf = append(e.buf, chunk...)

	var msgs []StreamingMessage
	for {
		nl := bytes.IndexByte(e.buf, '\n')
		if nl < 0 {
			return msgs
		}
		line := e.buf[:nl]
		e.buf = append([]byte(nil), e.buf[nl+1:]...)
		msgs = append(msgs, e.parseLine(line)...)
	}
}

// parseLine classifies one complete line. Non-JSON log noise shares this
// channel, so anything that does not look like an event is skipped without
// error.
func (e *Extractor) parseLine(line []byte) []StreamingMessage {
	line = bytes.TrimSpace(line)
	if len(line) == 0 || line[0] != '{' {
		return nil
	}

	// Cheap discriminator peek before committing to a full decode.
	kind, err := jsonparser.GetString(line, "type")
	if err != nil {
		return nil
	}

	switch MessageKind(kind) {
	case KindUser:
		return e.parseUser(line)
	case KindAssistant:
		return e.parseAssistant(line)
	case KindResult:
		return e.parseResult(line)
	case KindSystem:
		return e.parseSystem(line)
	default:
		slog.Debug("skipping unknown stream-json message type", "type", kind)
		return nil
	}
}

// envelope is the subset of a stream-json line this package reads.
type envelope struct {
	Type    string `json:"type"`
	Subtype string `json:"subtype"`
	Message struct {
		Content flexibleContent `json:"content"`
	} `json:"message"`
}

func (e *Extractor) parseUser(line []byte) []StreamingMessage {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil
	}

	text := ""
	if s, ok := env.Message.Content.asString(); ok {
		text = s
	} else if blocks, ok := env.Message.Content.asBlocks(); ok {
		for _, block := range blocks {
			if block.Type == "text" {
				text = block.Text
				break
			}
		}
	}
	if text == "" {
		return nil
	}
	return []StreamingMessage{{
		Kind:      KindUser,
		Timestamp: time.Now(),
		Text:      text,
	}}
}

func (e *Extractor) parseAssistant(line []byte) []StreamingMessage {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil
	}
	blocks, ok := env.Message.Content.asBlocks()
	if !ok {
		return nil
	}

	var msgs []StreamingMessage
	for _, block := range blocks {
		switch block.Type {
		case "text":
			if block.Text == "" {
				continue
			}
			msgs = append(msgs, StreamingMessage{
				Kind:      KindAssistant,
				Timestamp: time.Now(),
				Text:      block.Text,
			})
		case "tool_use":
			msgs = append(msgs, StreamingMessage{
				Kind:      KindAssistant,
				Timestamp: time.Now(),
				ToolUse: &ToolUseInfo{
					ID:           block.ID,
					Name:         block.Name,
					InputPreview: toolInputPreview(block.Input),
				},
			})
		case "thinking":
			// Pure marker: the agent is reasoning, no content to surface.
			msgs = append(msgs, StreamingMessage{
				Kind:      KindAssistant,
				Timestamp: time.Now(),
			})
		default:
			slog.Debug("skipping unknown content block type", "type", block.Type)
		}
	}
	return msgs
}

func (e *Extractor) parseResult(line []byte) []StreamingMessage {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil
	}
	blocks, ok := env.Message.Content.asBlocks()
	if !ok {
		return nil
	}

	for _, block := range blocks {
		if block.Type != "tool_result" || block.ToolUseID == "" {
			continue
		}
		return []StreamingMessage{{
			Kind:      KindResult,
			Timestamp: time.Now(),
			ToolResult: &ToolResultInfo{
				ToolUseID: block.ToolUseID,
				Success:   resultSuccess(block),
			},
		}}
	}
	return nil
}

// parseSystem emits a marker for session initialization; other system
// subtypes carry no renderable payload and are dropped.
func (e *Extractor) parseSystem(line []byte) []StreamingMessage {
	var env envelope
	if err := json.Unmarshal(line, &env); err != nil {
		return nil
	}
	if env.Subtype != "init" {
		return nil
	}
	return []StreamingMessage{{
		Kind:      KindSystem,
		Timestamp: time.Now(),
	}}
}
