// Package cli implements runCli: an interactive terminal loop that appends
// one MESSAGE event per turn to a single stable thread.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/flowmesh-ai/flowmesh/event"
	"github.com/flowmesh-ai/flowmesh/session"
)

// Options configures Run.
type Options struct {
	Runtime        *session.Runtime
	ThreadExternal string // stable external id shared across turns
	SenderID       string
	In             io.Reader
	Out            io.Writer
	Prompt         string
}

// Run loops reading lines from opts.In, treating each non-empty line as a
// user message appended to opts.ThreadExternal, until opts.In reaches EOF or
// ctx is canceled. It never returns an error for a normal EOF exit.
func Run(ctx context.Context, opts Options) error {
	if opts.Prompt == "" {
		opts.Prompt = "> "
	}
	senderType := event.SenderUser

	scanner := bufio.NewScanner(opts.In)
	for {
		select {
		case <-ctx.Done():
			return nil
		default:
		}

		fmt.Fprint(opts.Out, opts.Prompt)
		if !scanner.Scan() {
			return nil
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "/exit" || line == "/quit" {
			return nil
		}

		result, err := opts.Runtime.Start(ctx, session.Request{
			ThreadExternal: opts.ThreadExternal,
			SenderID:       opts.SenderID,
			SenderType:     senderType,
			Content:        line,
		})
		if err != nil {
			fmt.Fprintf(opts.Out, "error: %v\n", err)
			continue
		}
		printReplies(ctx, opts, result.ThreadID)
	}
}

// printReplies prints the messages appended after the user's most recent
// turn: it walks history backward from the newest message until it reaches
// the user's own line, printing everything from a different sender along
// the way, then prints that run in chronological order.
func printReplies(ctx context.Context, opts Options, threadID string) {
	history, err := opts.Runtime.Catalog().GetHistory(ctx, threadID, opts.SenderID, 50)
	if err != nil {
		fmt.Fprintf(opts.Out, "error fetching history: %v\n", err)
		return
	}
	var replies []string
	for i := len(history) - 1; i >= 0; i-- {
		m := history[i]
		if m.SenderID == opts.SenderID {
			break
		}
		if m.Content == "" {
			continue
		}
		replies = append(replies, fmt.Sprintf("%s: %s", m.SenderID, m.Content))
	}
	for i := len(replies) - 1; i >= 0; i-- {
		fmt.Fprintln(opts.Out, replies[i])
	}
}
