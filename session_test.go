package main

import (
	"bytes"
	"context"
	"errors"
	"image"
	"testing"
)

type pollResult struct {
	pt      image.Point
	buttons Buttons
	err     error
}

// fakePointer replays polls, repeating the last one when exhausted.
type fakePointer struct {
	polls []pollResult
	calls int
}

func (p *fakePointer) Poll() (image.Point, Buttons, error) {
	r := p.polls[min(p.calls, len(p.polls)-1)]
	p.calls++
	return r.pt, r.buttons, r.err
}

func (p *fakePointer) Close() error { return nil }

// fakeCapturer returns solid colors by coordinate after failing the first
// `failures` captures.
type fakeCapturer struct {
	colors   map[image.Point]RGB
	failures int
	region   Region // overrides colors when set
	calls    []image.Point
}

func (c *fakeCapturer) CaptureArea(pt image.Point) (Region, error) {
	c.calls = append(c.calls, pt)
	if c.failures > 0 {
		c.failures--
		return nil, errors.New("no image")
	}
	if c.region != nil {
		return c.region, nil
	}
	col := c.colors[pt]
	img := image.NewRGBA(image.Rect(0, 0, 1, 1))
	img.Pix[0], img.Pix[1], img.Pix[2], img.Pix[3] = col.R, col.G, col.B, 255
	return rawRegion{img: img}, nil
}

func (c *fakeCapturer) Close() error { return nil }

type recordingSink struct {
	name    string
	err     error
	commits []RGB
}

func (s *recordingSink) Name() string { return s.name }

func (s *recordingSink) Commit(_ context.Context, c RGB) error {
	s.commits = append(s.commits, c)
	return s.err
}

const stopButton = Buttons(1 << 3)

func newTestSession(p Pointer, c Capturer, out *bytes.Buffer, retry RetryPolicy) *Session {
	stop, _ := NewStopSet([]int{3, 4, 5})
	cfg := SessionConfig{
		Pointer:   p,
		Capturer:  c,
		Presenter: plainPresenter(StyleRule{Foreground: EmphasisBright}, StyleRule{Bold: true}, "> {hex} <"),
		Stop:      stop,
		Retry:     retry,
	}
	if out != nil {
		cfg.Out = out
	}
	return NewSession(cfg)
}

func TestSession_EndToEnd(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{
		{pt: image.Pt(1, 1)},
		{pt: image.Pt(2, 2)},
		{pt: image.Pt(3, 3), buttons: stopButton},
	}}
	capturer := &fakeCapturer{colors: map[image.Point]RGB{
		image.Pt(1, 1): {0, 0, 0},
		image.Pt(2, 2): {0, 0, 0},
		image.Pt(3, 3): {10, 10, 10},
	}}
	var live bytes.Buffer
	s := newTestSession(pointer, capturer, &live, RetryPolicy{})

	got, err := s.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != (RGB{10, 10, 10}) {
		t.Errorf("expected RGB{10, 10, 10}, got %v", got)
	}
	if live.String() != "#000000\n#0a0a0a\n" {
		t.Errorf("unexpected live output %q", live.String())
	}

	var final bytes.Buffer
	if err := s.Finalize(&final, got); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if final.String() != "> #0a0a0a <\n" {
		t.Errorf("unexpected final line %q", final.String())
	}

	clip := &recordingSink{name: "clipboard"}
	if err := Commit(context.Background(), got, clip, nil, discardLogger()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(clip.commits) != 1 || clip.commits[0].String() != "#0a0a0a" {
		t.Errorf("expected one commit of #0a0a0a, got %v", clip.commits)
	}
}

func TestSession_StopOnFirstTick(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{{pt: image.Pt(4, 4), buttons: 1<<1 | stopButton}}}
	capturer := &fakeCapturer{colors: map[image.Point]RGB{image.Pt(4, 4): {1, 2, 3}}}
	var live bytes.Buffer

	got, err := newTestSession(pointer, capturer, &live, RetryPolicy{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != (RGB{1, 2, 3}) {
		t.Errorf("expected RGB{1, 2, 3}, got %v", got)
	}
	if live.String() != "#010203\n" {
		t.Errorf("unexpected live output %q", live.String())
	}
	if pointer.calls != 1 {
		t.Errorf("expected 1 poll, got %d", pointer.calls)
	}
}

func TestSession_NegativeCoordinatesNeverSampled(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{
		{pt: image.Pt(-1, 5)},
		{pt: image.Pt(3, -2)},
		{pt: image.Pt(-4, -4)},
		{pt: image.Pt(7, 7), buttons: stopButton},
	}}
	capturer := &fakeCapturer{colors: map[image.Point]RGB{image.Pt(7, 7): {9, 9, 9}}}

	got, err := newTestSession(pointer, capturer, nil, RetryPolicy{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != (RGB{9, 9, 9}) {
		t.Errorf("expected RGB{9, 9, 9}, got %v", got)
	}
	if pointer.calls != 4 {
		t.Errorf("expected 4 polls, got %d", pointer.calls)
	}
	if len(capturer.calls) != 1 || capturer.calls[0] != image.Pt(7, 7) {
		t.Errorf("expected a single capture at (7,7), got %v", capturer.calls)
	}
}

func TestSession_CaptureBoundDoesNotLimitRepoll(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{
		{pt: image.Pt(-1, 0)},
		{pt: image.Pt(-1, 0)},
		{pt: image.Pt(-1, 0)},
		{pt: image.Pt(2, 2), buttons: stopButton},
	}}
	capturer := &fakeCapturer{colors: map[image.Point]RGB{image.Pt(2, 2): {4, 5, 6}}}
	got, err := newTestSession(pointer, capturer, nil, RetryPolicy{MaxAttempts: 2}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != (RGB{4, 5, 6}) {
		t.Errorf("expected RGB{4, 5, 6}, got %v", got)
	}
	if pointer.calls != 4 {
		t.Errorf("expected 4 polls, got %d", pointer.calls)
	}
	if len(capturer.calls) != 1 {
		t.Errorf("expected a single capture, got %v", capturer.calls)
	}
}

func TestSession_CaptureRetriedAtSameCoordinate(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{{pt: image.Pt(5, 6), buttons: stopButton}}}
	capturer := &fakeCapturer{
		colors:   map[image.Point]RGB{image.Pt(5, 6): {200, 100, 50}},
		failures: 3,
	}

	got, err := newTestSession(pointer, capturer, nil, RetryPolicy{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != (RGB{200, 100, 50}) {
		t.Errorf("expected RGB{200, 100, 50}, got %v", got)
	}
	if len(capturer.calls) != 4 {
		t.Fatalf("expected 4 captures, got %d", len(capturer.calls))
	}
	for _, pt := range capturer.calls {
		if pt != image.Pt(5, 6) {
			t.Errorf("capture retried at %v, want (5,6)", pt)
		}
	}
	if pointer.calls != 1 {
		t.Errorf("expected the pointer to be polled once, got %d", pointer.calls)
	}
}

func TestSession_CaptureRetriesExhausted(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{{pt: image.Pt(0, 0), buttons: stopButton}}}
	capturer := &fakeCapturer{failures: 10}

	_, err := newTestSession(pointer, capturer, nil, RetryPolicy{MaxAttempts: 2}).Run(context.Background())
	if !errors.Is(err, ErrRetriesExhausted) {
		t.Fatalf("expected ErrRetriesExhausted, got %v", err)
	}
	if len(capturer.calls) != 2 {
		t.Errorf("expected 2 captures, got %d", len(capturer.calls))
	}
}

func TestSession_DecodeFailureIsFatal(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{{pt: image.Pt(0, 0)}}}
	capturer := &fakeCapturer{region: encodedRegion("junk")}
	var live bytes.Buffer

	_, err := newTestSession(pointer, capturer, &live, RetryPolicy{}).Run(context.Background())
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("expected ErrDecode, got %v", err)
	}
	if len(capturer.calls) != 1 {
		t.Errorf("expected decode failure not to be retried, got %d captures", len(capturer.calls))
	}
	if live.Len() != 0 {
		t.Errorf("expected no live output, got %q", live.String())
	}
}

func TestSession_StopBeforeAnySample(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{
		{pt: image.Pt(-3, 0)},
		{pt: image.Pt(-3, 0), buttons: stopButton},
	}}
	capturer := &fakeCapturer{}

	_, err := newTestSession(pointer, capturer, nil, RetryPolicy{}).Run(context.Background())
	if !errors.Is(err, ErrNoSample) {
		t.Fatalf("expected ErrNoSample, got %v", err)
	}
	if len(capturer.calls) != 0 {
		t.Errorf("expected no captures, got %v", capturer.calls)
	}
}

func TestSession_StopOffDisplayKeepsLastColor(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{
		{pt: image.Pt(1, 1)},
		{pt: image.Pt(-5, 0), buttons: stopButton},
	}}
	capturer := &fakeCapturer{colors: map[image.Point]RGB{image.Pt(1, 1): {7, 8, 9}}}

	got, err := newTestSession(pointer, capturer, nil, RetryPolicy{}).Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got != (RGB{7, 8, 9}) {
		t.Errorf("expected RGB{7, 8, 9}, got %v", got)
	}
	if len(capturer.calls) != 1 {
		t.Errorf("expected 1 capture, got %d", len(capturer.calls))
	}
}

func TestSession_PollErrorIsFatal(t *testing.T) {
	lost := errors.New("connection lost")
	pointer := &fakePointer{polls: []pollResult{{err: lost}}}

	_, err := newTestSession(pointer, &fakeCapturer{}, nil, RetryPolicy{}).Run(context.Background())
	if !errors.Is(err, lost) {
		t.Fatalf("expected %v, got %v", lost, err)
	}
	if pointer.calls != 1 {
		t.Errorf("expected 1 poll, got %d", pointer.calls)
	}
}

func TestSession_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	pointer := &fakePointer{polls: []pollResult{{pt: image.Pt(0, 0)}}}

	_, err := newTestSession(pointer, &fakeCapturer{}, nil, RetryPolicy{}).Run(ctx)
	if !errors.Is(err, ErrAborted) {
		t.Fatalf("expected ErrAborted, got %v", err)
	}
	if pointer.calls != 0 {
		t.Errorf("expected no polls, got %d", pointer.calls)
	}
}

func TestSession_StepReportsChanges(t *testing.T) {
	pointer := &fakePointer{polls: []pollResult{
		{pt: image.Pt(0, 0)},
		{pt: image.Pt(0, 0)},
		{pt: image.Pt(1, 0)},
	}}
	capturer := &fakeCapturer{colors: map[image.Point]RGB{image.Pt(1, 0): {1, 1, 1}}}
	s := newTestSession(pointer, capturer, nil, RetryPolicy{})

	want := []bool{true, false, true}
	for i, w := range want {
		tick, err := s.Step()
		if err != nil {
			t.Fatalf("Step %d: %v", i, err)
		}
		if tick.Changed != w {
			t.Errorf("step %d: expected changed=%v, got %v", i, w, tick.Changed)
		}
		if tick.Stop {
			t.Errorf("step %d: unexpected stop", i)
		}
	}
}

func TestCommit_RequiredFailureSkipsOptional(t *testing.T) {
	clip := &recordingSink{name: "clipboard", err: ErrClipboard}
	extra := &recordingSink{name: "notify"}

	err := Commit(context.Background(), RGB{1, 2, 3}, clip, []Sink{extra}, discardLogger())
	if !errors.Is(err, ErrClipboard) {
		t.Fatalf("expected ErrClipboard, got %v", err)
	}
	if len(extra.commits) != 0 {
		t.Errorf("expected optional sink to be skipped, got %v", extra.commits)
	}
}

func TestCommit_OptionalFailureIgnored(t *testing.T) {
	clip := &recordingSink{name: "clipboard"}
	broken := &recordingSink{name: "hue", err: errors.New("no bridge")}
	after := &recordingSink{name: "notify"}

	if err := Commit(context.Background(), RGB{1, 2, 3}, clip, []Sink{broken, after}, discardLogger()); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if len(clip.commits) != 1 || len(broken.commits) != 1 || len(after.commits) != 1 {
		t.Errorf("expected every sink to be committed once: %v %v %v", clip.commits, broken.commits, after.commits)
	}
}
