package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"

	"github.com/bazelment/ptystream/agentstream"
)

// writeEvents renders events to w in the requested format.
func writeEvents(w io.Writer, events []agentstream.StreamingMessage, format string, styled bool) error {
	switch strings.ToLower(format) {
	case "", "table":
		writeEventsTable(w, events, styled)
		return nil
	case "plain":
		return writeEventsPlain(w, events)
	case "jsonl":
		return writeEventsJSONL(w, events)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

func writeEventsTable(w io.Writer, events []agentstream.StreamingMessage, styled bool) {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"time", "kind", "detail"})
	if styled {
		t.SetStyle(table.StyleRounded)
	} else {
		t.SetStyle(table.StyleDefault)
		t.Style().Format.Header = text.FormatDefault
	}
	for _, ev := range events {
		t.AppendRow(table.Row{
			ev.Timestamp.Format(time.TimeOnly),
			string(ev.Kind),
			eventDetail(ev),
		})
	}
	t.Render()
}

func writeEventsPlain(w io.Writer, events []agentstream.StreamingMessage) error {
	for _, ev := range events {
		line := fmt.Sprintf("%s\t%s\t%s",
			ev.Timestamp.Format(time.RFC3339),
			ev.Kind,
			eventDetail(ev),
		)
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeEventsJSONL(w io.Writer, events []agentstream.StreamingMessage) error {
	enc := json.NewEncoder(w)
	for _, ev := range events {
		if err := enc.Encode(ev); err != nil {
			return err
		}
	}
	return nil
}

// eventDetail summarizes the populated side of a message in one cell.
func eventDetail(ev agentstream.StreamingMessage) string {
	switch {
	case ev.ToolUse != nil:
		if ev.ToolUse.InputPreview != "" {
			return fmt.Sprintf("%s(%s) [%s]", ev.ToolUse.Name, ev.ToolUse.InputPreview, ev.ToolUse.ID)
		}
		return fmt.Sprintf("%s [%s]", ev.ToolUse.Name, ev.ToolUse.ID)
	case ev.ToolResult != nil:
		status := "ok"
		if !ev.ToolResult.Success {
			status = "error"
		}
		return fmt.Sprintf("%s -> %s", ev.ToolResult.ToolUseID, status)
	case ev.Text != "":
		return firstLine(ev.Text)
	default:
		return ""
	}
}

// firstLine returns the first non-empty line of s.
func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	return s
}
