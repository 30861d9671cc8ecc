package agentstream

import (
	"encoding/json"
	"path"
	"strings"

	"github.com/rivo/uniseg"
)

// flexibleContent holds a message.content field that may be either a plain
// string or an array of content blocks, deferring the decode until the shape
// is known.
type flexibleContent struct {
	raw json.RawMessage
}

// UnmarshalJSON implements json.Unmarshaler.
func (fc *flexibleContent) UnmarshalJSON(data []byte) error {
	fc.raw = append(fc.raw[:0], data...)
	return nil
}

// asString returns the content as a string, if it is one.
func (fc flexibleContent) asString() (string, bool) {
	if len(fc.raw) == 0 || fc.raw[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(fc.raw, &s); err != nil {
		return "", false
	}
	return s, true
}

// asBlocks returns the content as content blocks, if it is an array.
func (fc flexibleContent) asBlocks() ([]contentBlock, bool) {
	if len(fc.raw) == 0 || fc.raw[0] != '[' {
		return nil, false
	}
	var blocks []contentBlock
	if err := json.Unmarshal(fc.raw, &blocks); err != nil {
		return nil, false
	}
	return blocks, true
}

// contentBlock is the union of the block fields this package reads. Only the
// fields relevant to the block's type are set; everything else in the payload
// is ignored.
type contentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     map[string]any `json:"input"`
	ToolUseID string         `json:"tool_use_id"`
	IsError   *bool          `json:"is_error"`
	Content   any            `json:"content"`
}

const previewMaxGraphemes = 50

// toolInputPreview derives a one-line summary from a tool_use input object,
// preferring the most meaningful field: file_path (basename only), then
// command, pattern, and query.
func toolInputPreview(input map[string]any) string {
	if fp, ok := input["file_path"].(string); ok && fp != "" {
		return path.Base(fp)
	}
	if cmd, ok := input["command"].(string); ok && cmd != "" {
		return truncateGraphemes(cmd, previewMaxGraphemes)
	}
	if p, ok := input["pattern"].(string); ok && p != "" {
		return p
	}
	if q, ok := input["query"].(string); ok && q != "" {
		return truncateGraphemes(q, previewMaxGraphemes)
	}
	return ""
}

// truncateGraphemes truncates s to max grapheme clusters, never splitting a
// cluster mid-way.
func truncateGraphemes(s string, max int) string {
	gr := uniseg.NewGraphemes(s)
	n := 0
	for gr.Next() {
		n++
		if n == max {
			_, end := gr.Positions()
			return s[:end]
		}
	}
	return s
}

// resultSuccess decides whether a tool_result block represents success. An
// explicit is_error field wins; otherwise string content is scanned for the
// substring "error" (case-insensitive) as a heuristic.
func resultSuccess(block contentBlock) bool {
	if block.IsError != nil {
		return !*block.IsError
	}
	if s, ok := block.Content.(string); ok {
		return !strings.Contains(strings.ToLower(s), "error")
	}
	return true
}
