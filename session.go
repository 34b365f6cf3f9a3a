package main

import (
	"context"
	"errors"
	"fmt"
	"image"
	"io"
	"time"

	"github.com/pion/logging"
)

var (
	// ErrNoSample is returned when the stop trigger fires before any pixel
	// was sampled, so there is no color to commit.
	ErrNoSample = errors.New("stop button pressed before any color was sampled")

	// ErrAborted is returned when the session is cancelled between ticks.
	ErrAborted = errors.New("sampling aborted")
)

// Tick is the outcome of one loop iteration.
type Tick struct {
	Point   image.Point
	Color   RGB
	Changed bool // Color differs from the previous sample
	Stop    bool // a stop button is held
}

// Session drives the sampling loop. It is not safe for concurrent use.
type Session struct {
	pointer   Pointer
	capturer  Capturer
	presenter *Presenter
	stop      StopSet
	retry     RetryPolicy
	interval  time.Duration
	out       io.Writer
	log       logging.LeveledLogger

	tracker Tracker
}

// SessionConfig holds the collaborators of a Session.
type SessionConfig struct {
	Pointer   Pointer
	Capturer  Capturer
	Presenter *Presenter
	Stop      StopSet
	Retry     RetryPolicy
	Interval  time.Duration // pause between ticks
	Out       io.Writer     // live stream; nil suppresses live lines
	Log       logging.LeveledLogger
}

// NewSession returns a Session with no color sampled yet.
func NewSession(cfg SessionConfig) *Session {
	log := cfg.Log
	if log == nil {
		log = discardLogger()
	}
	return &Session{
		pointer:   cfg.Pointer,
		capturer:  cfg.Capturer,
		presenter: cfg.Presenter,
		stop:      cfg.Stop,
		retry:     cfg.Retry,
		interval:  cfg.Interval,
		out:       cfg.Out,
		log:       log,
	}
}

// poll re-polls the pointer, without delay or bound, until it reports a
// coordinate on the display. A stop button held while the pointer is off
// the display ends the poll early with ok set to false.
func (s *Session) poll() (pt image.Point, buttons Buttons, ok bool, err error) {
	for {
		pt, buttons, err = s.pointer.Poll()
		if err != nil {
			return pt, buttons, false, err
		}
		if pt.X >= 0 && pt.Y >= 0 {
			return pt, buttons, true, nil
		}
		if ShouldStop(buttons, s.stop) {
			return pt, buttons, false, nil
		}
		s.log.Tracef("pointer at %v is outside the display", pt)
	}
}

// sample captures the pixel at pt. Failed captures are retried at the same
// coordinate; a region that fails to decode is fatal.
func (s *Session) sample(pt image.Point) (RGB, error) {
	var region Region
	err := s.retry.Do(func() error {
		r, err := s.capturer.CaptureArea(pt)
		if err != nil {
			s.log.Tracef("capture at %v failed: %v", pt, err)
			return err
		}
		if r == nil {
			return fmt.Errorf("capture at %v returned no image", pt)
		}
		region = r
		return nil
	})
	if err != nil {
		return RGB{}, err
	}
	return PixelAt(region)
}

// Step runs one tick: poll, sample, track, present, check the stop buttons.
func (s *Session) Step() (Tick, error) {
	pt, buttons, ok, err := s.poll()
	if err != nil {
		return Tick{}, err
	}
	if !ok {
		return Tick{Point: pt, Stop: true}, nil
	}

	c, err := s.sample(pt)
	if err != nil {
		return Tick{}, err
	}

	tick := Tick{Point: pt, Color: c}
	if _, changed := s.tracker.Observe(c); changed {
		tick.Changed = true
		s.log.Debugf("%v at %v", c, pt)
		if s.out != nil {
			if err := s.presenter.WriteLive(s.out, c); err != nil {
				return tick, fmt.Errorf("writing live output: %w", err)
			}
		}
	}

	tick.Stop = ShouldStop(buttons, s.stop)
	return tick, nil
}

// Run steps until a stop button is pressed and returns the color to commit.
// ctx is only checked between ticks; a capture in progress is not
// interrupted.
func (s *Session) Run(ctx context.Context) (RGB, error) {
	for {
		if err := ctx.Err(); err != nil {
			return RGB{}, fmt.Errorf("%w: %v", ErrAborted, err)
		}

		tick, err := s.Step()
		if err != nil {
			return RGB{}, err
		}
		if tick.Stop {
			return s.Selected()
		}

		if s.interval > 0 {
			select {
			case <-ctx.Done():
			case <-time.After(s.interval):
			}
		}
	}
}

// Selected returns the last sampled color, or ErrNoSample.
func (s *Session) Selected() (RGB, error) {
	c, ok := s.tracker.Last()
	if !ok {
		return RGB{}, ErrNoSample
	}
	return c, nil
}

// Finalize writes the committed color using the final style.
func (s *Session) Finalize(w io.Writer, c RGB) error {
	return s.presenter.WriteFinal(w, c)
}

// Commit publishes c to the required sink, then to every optional sink.
// Optional sinks only log their failures.
func Commit(ctx context.Context, c RGB, required Sink, optional []Sink, log logging.LeveledLogger) error {
	if err := required.Commit(ctx, c); err != nil {
		return fmt.Errorf("%s: %w", required.Name(), err)
	}
	for _, sink := range optional {
		if err := sink.Commit(ctx, c); err != nil {
			log.Warnf("%s: %v", sink.Name(), err)
		}
	}
	return nil
}
