package main

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"os/exec"
	"time"
)

const grimTimeout = 5 * time.Second

// grimCapturer shells out to grim, which writes a PNG of the requested
// geometry to stdout. Coordinates are in the compositor's layout space.
type grimCapturer struct {
	display image.Rectangle
	path    string
}

func newGrimCapturer() (Capturer, string, error) {
	path, err := exec.LookPath("grim")
	if err != nil {
		return nil, "", fmt.Errorf("grim not found")
	}
	display, err := primaryDisplay()
	if err != nil {
		// grim does not need the X11 view of the layout.
		display = image.Rectangle{}
	}
	return &grimCapturer{display: display, path: path}, "grim", nil
}

func (c *grimCapturer) CaptureArea(pt image.Point) (Region, error) {
	origin := c.display.Min.Add(pt)

	ctx, cancel := context.WithTimeout(context.Background(), grimTimeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, c.path, "-t", "png", "-g", grimGeometry(origin), "-")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("grim: %w: %s", err, bytes.TrimSpace(stderr.Bytes()))
	}
	if stdout.Len() == 0 {
		return nil, fmt.Errorf("grim: no image data")
	}
	return encodedRegion(stdout.Bytes()), nil
}

func (*grimCapturer) Close() error { return nil }

func grimGeometry(p image.Point) string {
	return fmt.Sprintf("%d,%d 1x1", p.X, p.Y)
}
