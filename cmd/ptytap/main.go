// Package main provides the ptytap CLI for inspecting captured coding-agent
// PTY output: it filters control sequences and reconstructs stream-json
// events from stdin.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/bazelment/ptystream/agentstream"
	"github.com/bazelment/ptystream/tap"
)

var version = "dev"

const chunkSize = 32 * 1024

var rootCmd = &cobra.Command{
	Use:     "ptytap",
	Short:   "Filter coding-agent PTY output and reconstruct stream-json events",
	Version: version,
}

func init() {
	rootCmd.AddCommand(newFilterCmd())
	rootCmd.AddCommand(newEventsCmd())
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "ptytap: %v\n", err)
		os.Exit(1)
	}
}

func newFilterCmd() *cobra.Command {
	var tracePath string

	cmd := &cobra.Command{
		Use:   "filter",
		Short: "Read raw PTY bytes from stdin and write renderer-safe bytes to stdout",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := []tap.Option{}
			if tracePath != "" {
				tf, err := os.Create(tracePath)
				if err != nil {
					return fmt.Errorf("create trace file: %w", err)
				}
				defer tf.Close()
				opts = append(opts, tap.WithTrace(tf))
			}
			return run(os.Stdin, os.Stdout, opts...)
		},
	}

	cmd.Flags().StringVar(&tracePath, "trace", "", "Write a JSONL trace of chunks and events to this file")
	return cmd
}

func newEventsCmd() *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "events",
		Short: "Read raw PTY bytes from stdin and print the reconstructed events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var events []agentstream.StreamingMessage
			err := run(os.Stdin, io.Discard, tap.WithMessageHandler(
				func(m agentstream.StreamingMessage) {
					events = append(events, m)
				}))
			if err != nil {
				return err
			}
			styled := isatty.IsTerminal(os.Stdout.Fd())
			return writeEvents(os.Stdout, events, formatFlag, styled)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "table", "Output format: table, plain, or jsonl")
	return cmd
}

// run pumps stdin through a Tap until EOF, forwarding filtered bytes to out.
func run(in io.Reader, out io.Writer, opts ...tap.Option) error {
	opts = append(opts, tap.WithLogger(slog.Default()))
	t := tap.New(opts...)

	buf := make([]byte, chunkSize)
	for {
		n, err := in.Read(buf)
		if n > 0 {
			if _, werr := out.Write(t.ProcessChunk(buf[:n])); werr != nil {
				return fmt.Errorf("write filtered output: %w", werr)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	}

	if flushed := t.Flush(); len(flushed) > 0 {
		if _, err := out.Write(flushed); err != nil {
			return fmt.Errorf("write flushed output: %w", err)
		}
	}
	return nil
}
