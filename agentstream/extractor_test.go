package agentstream

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const userLine = `{"type":"user","message":{"content":[{"type":"text","text":"hi"}]}}` + "\n"

func TestIngest_UserLine(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(userLine))

	require.Len(t, msgs, 1)
	assert.Equal(t, KindUser, msgs[0].Kind)
	assert.Equal(t, "hi", msgs[0].Text)
	assert.Nil(t, msgs[0].ToolUse)
	assert.Nil(t, msgs[0].ToolResult)
	assert.False(t, msgs[0].Timestamp.IsZero())
}

func TestIngest_UserLineSplitAtEveryOffset(t *testing.T) {
	line := []byte(userLine)
	for i := 1; i < len(line); i++ {
		e := NewExtractor()
		msgs := e.Ingest(line[:i])
		msgs = append(msgs, e.Ingest(line[i:])...)

		require.Len(t, msgs, 1, "split at %d", i)
		assert.Equal(t, KindUser, msgs[0].Kind, "split at %d", i)
		assert.Equal(t, "hi", msgs[0].Text, "split at %d", i)
	}
}

func TestIngest_NoNewlineBuffers(t *testing.T) {
	e := NewExtractor()
	assert.Empty(t, e.Ingest([]byte(`{"type":"user","message":`)))
	assert.Empty(t, e.Ingest([]byte(`{"content":"hello"}}`)))

	msgs := e.Ingest([]byte("\n"))
	require.Len(t, msgs, 1)
	assert.Equal(t, "hello", msgs[0].Text)
}

func TestIngest_UserStringContent(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"user","message":{"content":"plain text"}}` + "\n"))

	require.Len(t, msgs, 1)
	assert.Equal(t, "plain text", msgs[0].Text)
}

func TestIngest_UserWithoutTextEmitsNothing(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"user","message":{"content":[{"type":"image","source":{}}]}}` + "\n"))
	assert.Empty(t, msgs)
}

func TestIngest_MalformedLineResilience(t *testing.T) {
	e := NewExtractor()
	input := "not json at all\n" +
		`{"type":"user","message":{"content":` + "\n" + // valid prefix, truncated
		userLine
	msgs := e.Ingest([]byte(input))

	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
}

func TestIngest_SkipsNoiseAndBlankLines(t *testing.T) {
	e := NewExtractor()
	input := "\n   \n[1,2,3]\nWARN something happened\n"
	assert.Empty(t, e.Ingest([]byte(input)))
}

func TestIngest_AssistantBlocksInOrder(t *testing.T) {
	e := NewExtractor()
	line := `{"type":"assistant","message":{"content":[` +
		`{"type":"thinking","thinking":"..."},` +
		`{"type":"text","text":"working on it"},` +
		`{"type":"tool_use","id":"t9","name":"Read","input":{"file_path":"/tmp/dir/main.go"}},` +
		`{"type":"server_tool_use","id":"srv"}` +
		`]}}` + "\n"
	msgs := e.Ingest([]byte(line))

	require.Len(t, msgs, 3)

	// thinking marker first
	assert.Equal(t, KindAssistant, msgs[0].Kind)
	assert.Empty(t, msgs[0].Text)
	assert.Nil(t, msgs[0].ToolUse)
	assert.Nil(t, msgs[0].ToolResult)

	assert.Equal(t, "working on it", msgs[1].Text)

	require.NotNil(t, msgs[2].ToolUse)
	assert.Equal(t, "t9", msgs[2].ToolUse.ID)
	assert.Equal(t, "Read", msgs[2].ToolUse.Name)
	assert.Equal(t, "main.go", msgs[2].ToolUse.InputPreview)
}

func TestIngest_AssistantEmptyTextSkipped(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"assistant","message":{"content":[{"type":"text","text":""}]}}` + "\n"))
	assert.Empty(t, msgs)
}

func TestIngest_ToolLifecycle(t *testing.T) {
	e := NewExtractor()
	input := `{"type":"assistant","message":{"content":[{"type":"tool_use","id":"t1","name":"Bash","input":{"command":"ls"}}]}}` + "\n" +
		`{"type":"result","message":{"content":[{"type":"tool_result","tool_use_id":"t1","is_error":false}]}}` + "\n"
	msgs := e.Ingest([]byte(input))

	require.Len(t, msgs, 2)

	require.NotNil(t, msgs[0].ToolUse)
	assert.Equal(t, KindAssistant, msgs[0].Kind)
	assert.Equal(t, "t1", msgs[0].ToolUse.ID)
	assert.Equal(t, "Bash", msgs[0].ToolUse.Name)
	assert.Equal(t, "ls", msgs[0].ToolUse.InputPreview)

	require.NotNil(t, msgs[1].ToolResult)
	assert.Equal(t, KindResult, msgs[1].Kind)
	assert.Equal(t, "t1", msgs[1].ToolResult.ToolUseID)
	assert.True(t, msgs[1].ToolResult.Success)
}

func TestIngest_ResultIsErrorTrue(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"result","message":{"content":[{"type":"tool_result","tool_use_id":"t2","is_error":true}]}}` + "\n"))

	require.Len(t, msgs, 1)
	require.NotNil(t, msgs[0].ToolResult)
	assert.False(t, msgs[0].ToolResult.Success)
}

func TestIngest_ResultErrorHeuristic(t *testing.T) {
	cases := []struct {
		content string
		success bool
	}{
		{"all good", true},
		{"Error: file not found", false},
		{"3 ERRORS detected", false},
	}
	for _, c := range cases {
		e := NewExtractor()
		line := `{"type":"result","message":{"content":[{"type":"tool_result","tool_use_id":"t3","content":"` + c.content + `"}]}}` + "\n"
		msgs := e.Ingest([]byte(line))

		require.Len(t, msgs, 1, "content %q", c.content)
		assert.Equal(t, c.success, msgs[0].ToolResult.Success, "content %q", c.content)
	}
}

func TestIngest_ResultWithoutToolUseIDEmitsNothing(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"result","message":{"content":[{"type":"tool_result","content":"done"}]}}` + "\n"))
	assert.Empty(t, msgs)
}

func TestIngest_SystemInitMarker(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"system","subtype":"init","session_id":"abc","model":"opus"}` + "\n"))

	require.Len(t, msgs, 1)
	assert.Equal(t, KindSystem, msgs[0].Kind)
	assert.Empty(t, msgs[0].Text)
	assert.Nil(t, msgs[0].ToolUse)
	assert.Nil(t, msgs[0].ToolResult)
}

func TestIngest_SystemOtherSubtypeIgnored(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"system","subtype":"hook_event"}` + "\n"))
	assert.Empty(t, msgs)
}

func TestIngest_UnknownTypeIgnored(t *testing.T) {
	e := NewExtractor()
	msgs := e.Ingest([]byte(`{"type":"control_request","request_id":"r1"}` + "\n"))
	assert.Empty(t, msgs)
}

func TestIngest_MultipleLinesOneChunk(t *testing.T) {
	e := NewExtractor()
	input := userLine + userLine + userLine
	msgs := e.Ingest([]byte(input))
	assert.Len(t, msgs, 3)
}

func TestIngest_InvalidUTF8Tolerated(t *testing.T) {
	e := NewExtractor()
	// A stray invalid byte on its own line must not poison later lines.
	input := append([]byte{0xff, 0xfe, '\n'}, []byte(userLine)...)
	msgs := e.Ingest(input)

	require.Len(t, msgs, 1)
	assert.Equal(t, "hi", msgs[0].Text)
}
