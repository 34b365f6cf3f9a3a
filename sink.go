package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aymanbagabas/go-osc52/v2"
	"github.com/mattn/go-isatty"
	"golang.design/x/clipboard"
)

// ErrClipboard is returned when the committed color cannot be published.
var ErrClipboard = errors.New("writing clipboard")

// Sink receives the committed color once a session ends.
type Sink interface {
	Name() string
	Commit(ctx context.Context, c RGB) error
}

// clipboardSink publishes the literal #rrggbb string.
type clipboardSink struct {
	backend string
	out     io.Writer // terminal for OSC 52
	hold    time.Duration

	// Overridable for tests.
	system func(text string, hold time.Duration) error
}

func newClipboardSink(cfg ClipboardConfig, out io.Writer) *clipboardSink {
	return &clipboardSink{
		backend: cfg.Backend,
		out:     out,
		hold:    cfg.Hold,
		system:  writeSystemClipboard,
	}
}

func (s *clipboardSink) Name() string { return "clipboard" }

func (s *clipboardSink) Commit(ctx context.Context, c RGB) error {
	text := c.String()
	switch s.backend {
	case "system":
		return s.system(text, s.hold)
	case "osc52":
		return writeOSC52(s.out, text)
	}

	err := s.system(text, s.hold)
	if err == nil {
		return nil
	}
	if !isTerminal(s.out) {
		return err
	}
	if oerr := writeOSC52(s.out, text); oerr != nil {
		return fmt.Errorf("%v; osc52 fallback: %w", err, oerr)
	}
	return nil
}

func writeSystemClipboard(text string, hold time.Duration) error {
	if err := clipboard.Init(); err != nil {
		return fmt.Errorf("%w: %v", ErrClipboard, err)
	}
	changed := clipboard.Write(clipboard.FmtText, []byte(text))
	if changed == nil {
		return fmt.Errorf("%w: write rejected", ErrClipboard)
	}
	// On X11 the selection is served by this process, so it is lost on
	// exit unless a clipboard manager takes it over.
	if hold > 0 {
		select {
		case <-changed:
		case <-time.After(hold):
		}
	}
	return nil
}

func writeOSC52(w io.Writer, text string) error {
	seq := osc52.New(text)
	if os.Getenv("TMUX") != "" {
		seq = seq.Tmux()
	}
	if _, err := seq.WriteTo(w); err != nil {
		return fmt.Errorf("%w: osc52: %v", ErrClipboard, err)
	}
	return nil
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(interface{ Fd() uintptr })
	return ok && isatty.IsTerminal(f.Fd())
}
