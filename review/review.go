// Package review renders a pending commit range and asks a human to sign
// off on it. The gate fails closed: no answer, a bad answer, a prompt error
// or a timeout all count as a rejection.
package review

import (
	"context"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"

	"git_release_tool/git"
)

// DefaultMaxLines bounds how many commits are rendered.
const DefaultMaxLines = 200

// Decision is the outcome of the gate. The zero value is a rejection.
type Decision struct {
	Approved bool
	Reason   string
}

// Prompter asks a single yes/no question. Confirm runs on its own goroutine
// and receives the review context, which is cancelled once Review returns.
// An implementation that ignores ctx keeps blocking after a timeout or an
// interrupt until its read completes; Review has already rejected by then.
type Prompter interface {
	Confirm(ctx context.Context, question string) (bool, error)
}

// PromptFunc adapts a function to Prompter.
type PromptFunc func(ctx context.Context, question string) (bool, error)

func (f PromptFunc) Confirm(ctx context.Context, question string) (bool, error) {
	return f(ctx, question)
}

// Reviewer prints a commit range and blocks on the prompter.
type Reviewer struct {
	Out      io.Writer
	Prompter Prompter
	// MaxLines caps the rendered commits; zero means DefaultMaxLines.
	MaxLines int
	// Timeout rejects when no answer arrives in time; zero waits forever.
	Timeout time.Duration
	Log     logrus.FieldLogger
}

// Review renders commits for rangeName and returns the human decision.
func (r *Reviewer) Review(ctx context.Context, rangeName string, commits []git.CommitLogEntry) Decision {
	if r.Out != nil {
		if err := Render(r.Out, rangeName, commits, r.MaxLines); err != nil {
			r.logger().WithError(err).Warn("failed to render commit range")
		}
	}
	if r.Prompter == nil {
		return Decision{Reason: "no prompter configured"}
	}

	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	type answer struct {
		ok  bool
		err error
	}
	done := make(chan answer, 1)
	question := fmt.Sprintf("Publish %d commit(s) in %s?", len(commits), rangeName)
	go func() {
		ok, err := r.Prompter.Confirm(ctx, question)
		done <- answer{ok, err}
	}()

	select {
	case <-ctx.Done():
		r.logger().WithError(ctx.Err()).Warn("review not answered, rejecting")
		return Decision{Reason: "no answer: " + ctx.Err().Error()}
	case a := <-done:
		// an answer racing the deadline does not count
		if err := ctx.Err(); err != nil {
			r.logger().WithError(err).Warn("review not answered, rejecting")
			return Decision{Reason: "no answer: " + err.Error()}
		}
		if a.err != nil {
			r.logger().WithError(a.err).Warn("review prompt failed, rejecting")
			return Decision{Reason: "prompt failed: " + a.err.Error()}
		}
		if !a.ok {
			return Decision{Reason: "rejected by reviewer"}
		}
		return Decision{Approved: true, Reason: "approved by reviewer"}
	}
}

func (r *Reviewer) logger() logrus.FieldLogger {
	if r.Log == nil {
		return logrus.StandardLogger()
	}
	return r.Log
}

// Render writes the start marker, one line per commit (timestamp, author,
// summary) and the end marker. Past maxLines the remainder is summarized.
func Render(w io.Writer, rangeName string, commits []git.CommitLogEntry, maxLines int) error {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}
	if _, err := fmt.Fprintf(w, "---- BEGIN %s (%d commits) ----\n", rangeName, len(commits)); err != nil {
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	shown := commits
	if len(shown) > maxLines {
		shown = shown[:maxLines]
	}
	for _, c := range shown {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", c.Timestamp.UTC().Format(time.RFC3339), c.ShortID(), c.Author, c.Summary())
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if rest := len(commits) - len(shown); rest > 0 {
		if _, err := fmt.Fprintf(w, "... %d more commits\n", rest); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintf(w, "---- END %s ----\n", rangeName)
	return err
}
