// Package agentstream reconstructs structured agent activity from the
// newline-delimited JSON event channel interleaved in a coding-agent CLI's
// PTY output. Lines may be fragmented across arbitrary chunk boundaries; the
// extractor reassembles them and classifies each complete line into zero or
// more StreamingMessage values.
package agentstream

import "time"

// MessageKind mirrors the "type" discriminator of a stream-json line.
type MessageKind string

const (
	KindUser      MessageKind = "user"
	KindAssistant MessageKind = "assistant"
	KindResult    MessageKind = "result"
	KindSystem    MessageKind = "system"
)

// ToolUseInfo describes a tool invocation found in an assistant message.
type ToolUseInfo struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	// InputPreview is a short human-readable summary of the tool input,
	// derived from its most meaningful field. Empty when no recognizable
	// field is present.
	InputPreview string `json:"input_preview,omitempty"`
}

// ToolResultInfo resolves a prior tool invocation.
type ToolResultInfo struct {
	ToolUseID string `json:"tool_use_id"`
	Success   bool   `json:"success"`
}

// StreamingMessage is one unit of agent activity. Timestamp is the wall-clock
// time of observation, not parsed from the payload.
//
// At most one of Text, ToolUse, ToolResult is populated per message; a
// "thinking" content block yields a message with all three absent (a pure
// marker), as does a system init line. Messages are immutable once emitted
// and the extractor retains no reference to them.
type StreamingMessage struct {
	Timestamp  time.Time       `json:"timestamp"`
	Kind       MessageKind     `json:"kind"`
	Text       string          `json:"text,omitempty"`
	ToolUse    *ToolUseInfo    `json:"tool_use,omitempty"`
	ToolResult *ToolResultInfo `json:"tool_result,omitempty"`
}
