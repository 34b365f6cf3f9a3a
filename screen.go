package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/png"

	"github.com/kbinani/screenshot"
)

// ErrDecode is returned when a captured region cannot be turned into pixels.
var ErrDecode = errors.New("decoding captured region")

// ErrNoDisplay is returned when no active display is found.
var ErrNoDisplay = errors.New("no active displays found")

// RGB holds an 8-bit color value.
type RGB struct {
	R, G, B uint8
}

func (c RGB) String() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// Darken divides every channel by three.
func (c RGB) Darken() RGB {
	return RGB{R: c.R / 3, G: c.G / 3, B: c.B / 3}
}

// Region is a captured screen area that has not been decoded yet.
type Region interface {
	Decode() (image.Image, error)
}

// rawRegion is a region that was captured straight into memory.
type rawRegion struct {
	img *image.RGBA
}

func (r rawRegion) Decode() (image.Image, error) {
	if r.img == nil {
		return nil, fmt.Errorf("%w: empty capture", ErrDecode)
	}
	return r.img, nil
}

// encodedRegion holds an encoded image (PNG from grim).
type encodedRegion []byte

func (r encodedRegion) Decode() (image.Image, error) {
	img, _, err := image.Decode(bytes.NewReader(r))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	return img, nil
}

// primaryDisplay returns the bounds of display 0.
func primaryDisplay() (image.Rectangle, error) {
	if screenshot.NumActiveDisplays() == 0 {
		return image.Rectangle{}, ErrNoDisplay
	}
	return screenshot.GetDisplayBounds(0), nil
}

// PixelAt decodes the region and returns its top-left pixel.
func PixelAt(r Region) (RGB, error) {
	img, err := r.Decode()
	if err != nil {
		return RGB{}, err
	}
	b := img.Bounds()
	if b.Empty() {
		return RGB{}, fmt.Errorf("%w: zero-sized image", ErrDecode)
	}
	cr, cg, cb, _ := img.At(b.Min.X, b.Min.Y).RGBA()
	return RGB{R: uint8(cr >> 8), G: uint8(cg >> 8), B: uint8(cb >> 8)}, nil
}
