// Package repl is the terminal front-end: it reads commands from a line
// reader, runs them against a session and prints the replies.
package repl

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/peterkuimelis/ddzrogue/internal/session"
	"github.com/peterkuimelis/ddzrogue/internal/view"
)

// REPL drives one session from a terminal.
type REPL struct {
	sess *session.Session
	in   *bufio.Reader
	out  io.Writer
}

// New creates a REPL reading from in and writing to out.
func New(sess *session.Session, in io.Reader, out io.Writer) *REPL {
	return &REPL{sess: sess, in: bufio.NewReader(in), out: out}
}

// Run resumes the slot's saved run, or starts a new one, and then handles
// commands until quit or end of input.
func (r *REPL) Run(ctx context.Context) error {
	resumed, err := r.sess.Resume(ctx)
	if err != nil {
		fmt.Fprintf(r.out, "Could not resume slot %s: %v\n", r.sess.Slot(), err)
	}
	first := view.ClientMessage{Type: view.CmdNewRun}
	if resumed {
		fmt.Fprintf(r.out, "Resumed the saved run on slot %s.\n", r.sess.Slot())
		first.Type = view.CmdState
	}
	fmt.Fprint(r.out, Render(r.sess.Handle(ctx, first)))
	fmt.Fprintln(r.out, "Type help for commands.")

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		fmt.Fprint(r.out, "> ")
		line, err := r.in.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return fmt.Errorf("read input: %w", err)
		}
		eof := errors.Is(err, io.EOF)
		if strings.TrimSpace(line) == "" {
			if eof {
				return nil
			}
			continue
		}
		if done := r.exec(ctx, line); done || eof {
			return nil
		}
	}
}

// exec runs one line and reports whether the REPL should stop.
func (r *REPL) exec(ctx context.Context, line string) bool {
	if f := strings.Fields(line); f[0] == "help" || f[0] == "h" {
		fmt.Fprint(r.out, Help())
		return false
	}
	msg, err := Parse(line)
	if errors.Is(err, ErrQuit) {
		fmt.Fprintln(r.out, "Progress saved. Bye!")
		return true
	}
	if err != nil {
		fmt.Fprintln(r.out, errorStyle.Render(err.Error()))
		return false
	}
	fmt.Fprint(r.out, Render(r.sess.Handle(ctx, msg)))
	return false
}
