package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/pion/logging"
)

// version is set with -ldflags "-X main.version=...".
var version = "dev"

type options struct {
	config  string
	tui     bool
	pairHue bool
	verbose bool
	version bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("pickme", flag.ContinueOnError)
	fs.StringVar(&o.config, "config", "", "path to pickme.toml")
	fs.BoolVar(&o.tui, "tui", false, "show an interactive terminal view while sampling")
	fs.BoolVar(&o.pairHue, "pair-hue", false, "pair with a Hue bridge and exit")
	fs.BoolVar(&o.verbose, "v", false, "log debug output to stderr")
	fs.BoolVar(&o.version, "version", false, "print the version and exit")
	err := fs.Parse(args)
	return o, err
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		os.Exit(2)
	}
	if opts.version {
		fmt.Printf("pickme %s\n", version)
		return
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	lf := newLoggerFactory(os.Stderr, opts.verbose)
	log := lf.NewLogger("pickme")

	cfg, unknown, err := LoadConfig(opts.config)
	if err != nil {
		return err
	}
	if cfg.Path() != "" {
		log.Debugf("config: %s", cfg.Path())
	}
	for _, k := range unknown {
		log.Warnf("config: unknown key %s", k)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if opts.pairHue {
		store, err := defaultHueStore()
		if err != nil {
			return err
		}
		return pairHue(ctx, os.Stdin, os.Stdout, cfg.Hue.Bridge, store, DiscoverBridges)
	}

	stopSet, err := cfg.StopSet()
	if err != nil {
		return err
	}

	pointer, err := newX11Pointer()
	if err != nil {
		return err
	}
	defer pointer.Close()
	if !ShouldStop(x11Observable, stopSet) {
		log.Warnf("none of the stop buttons %v can be detected; only buttons 1-5 are reported", cfg.StopButtons)
	}

	capturer, method, err := NewCapturer(cfg.Capture.Backend, lf.NewLogger("capture"))
	if err != nil {
		return err
	}
	defer capturer.Close()
	log.Debugf("capturing with %s", method)

	presenter := NewPresenter(os.Stdout, cfg.Normal.Rule(), cfg.Selected.Rule(), cfg.SelectedFormatting)
	sc := SessionConfig{
		Pointer:   pointer,
		Capturer:  capturer,
		Presenter: presenter,
		Stop:      stopSet,
		Retry:     cfg.RetryPolicy(),
		Interval:  cfg.Interval,
		Out:       os.Stdout,
		Log:       log,
	}

	if opts.tui {
		sc.Out = nil
	}
	session := NewSession(sc)

	var selected RGB
	if opts.tui {
		selected, err = runTUI(session, presenter)
	} else {
		selected, err = session.Run(ctx)
	}
	if err != nil {
		return err
	}

	if err := session.Finalize(os.Stdout, selected); err != nil {
		return err
	}

	sinks, err := optionalSinks(cfg, lf)
	if err != nil {
		log.Warnf("%v", err)
	}
	return Commit(ctx, selected, newClipboardSink(cfg.Clipboard, os.Stdout), sinks, log)
}

func runTUI(session *Session, presenter *Presenter) (RGB, error) {
	result, err := tea.NewProgram(newModel(session, presenter)).Run()
	if err != nil {
		return RGB{}, err
	}
	m := result.(model)
	if m.err != nil {
		return RGB{}, m.err
	}
	if m.selected == nil {
		return RGB{}, ErrNoSample
	}
	return *m.selected, nil
}

func optionalSinks(cfg Config, lf logging.LoggerFactory) ([]Sink, error) {
	var sinks []Sink
	if cfg.Notify.Enabled {
		sinks = append(sinks, notifySink{})
	}
	if cfg.Hue.Enabled {
		store, err := defaultHueStore()
		if err != nil {
			return sinks, fmt.Errorf("hue: %w", err)
		}
		sinks = append(sinks, newHueSink(cfg.Hue, store, lf))
	}
	return sinks, nil
}
