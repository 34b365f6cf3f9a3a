package main

import (
	"fmt"
	"image"
	"os"

	"github.com/kbinani/screenshot"
	"github.com/pion/logging"
)

// Capturer grabs single-pixel regions of the primary display.
type Capturer interface {
	// CaptureArea captures the 1x1 region at pt, relative to the display
	// origin. An error means no image was produced and the caller may retry.
	CaptureArea(pt image.Point) (Region, error)
	Close() error
}

// x11Capturer captures through kbinani/screenshot.
type x11Capturer struct {
	display image.Rectangle
}

func newX11Capturer() (Capturer, string, error) {
	display, err := primaryDisplay()
	if err != nil {
		return nil, "", err
	}
	return x11Capturer{display: display}, "X11", nil
}

func (c x11Capturer) CaptureArea(pt image.Point) (Region, error) {
	origin := c.display.Min.Add(pt)
	img, err := screenshot.CaptureRect(image.Rectangle{Min: origin, Max: origin.Add(image.Pt(1, 1))})
	if err != nil {
		return nil, fmt.Errorf("capturing %v: %w", origin, err)
	}
	return rawRegion{img: img}, nil
}

func (x11Capturer) Close() error { return nil }

// NewCapturer returns the capturer for the configured backend. "auto" uses
// grim on Wayland sessions and falls back to X11.
func NewCapturer(backend string, log logging.LeveledLogger) (Capturer, string, error) {
	switch backend {
	case "x11":
		return newX11Capturer()
	case "grim":
		return newGrimCapturer()
	}

	if os.Getenv("WAYLAND_DISPLAY") != "" {
		c, method, err := newGrimCapturer()
		if err == nil {
			return c, method, nil
		}
		log.Debugf("grim unavailable, using X11: %v", err)
	}
	return newX11Capturer()
}
