package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/scrypster/rolodex/internal/conversation"
)

// handler is the part of the engine the chat loop needs.
type handler interface {
	Handle(ctx context.Context, userID, text string) (*conversation.Reply, error)
	Reset(userID string)
}

const prompt = "> "

// run reads messages from in until EOF, "exit" or "quit". "/reset" clears the
// session. Blank lines are skipped.
func run(ctx context.Context, h handler, userID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(out, prompt)
	for scanner.Scan() {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			fmt.Fprint(out, prompt)
			continue
		case "exit", "quit":
			return nil
		case "/reset":
			h.Reset(userID)
			fmt.Fprintln(out, "Session cleared.")
			fmt.Fprint(out, prompt)
			continue
		}

		reply, err := h.Handle(ctx, userID, line)
		if err != nil {
			if errors.Is(err, conversation.ErrEmptyMessage) {
				fmt.Fprint(out, prompt)
				continue
			}
			return err
		}
		fmt.Fprintln(out, reply.Text)
		fmt.Fprint(out, prompt)
	}
	return scanner.Err()
}
