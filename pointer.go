package main

import (
	"fmt"
	"image"

	"github.com/jezek/xgb"
	"github.com/jezek/xgb/xproto"
)

// Pointer reports where the pointer is and which buttons are held.
type Pointer interface {
	// Poll returns the instantaneous position, relative to the primary
	// display origin, and button state. The position may be negative.
	Poll() (image.Point, Buttons, error)
	Close() error
}

// x11ButtonMasks maps X core buttons to indices 1-5. Index 0 is never set.
var x11ButtonMasks = [...]uint16{
	1: xproto.KeyButMaskButton1,
	2: xproto.KeyButMaskButton2,
	3: xproto.KeyButMaskButton3,
	4: xproto.KeyButMaskButton4,
	5: xproto.KeyButMaskButton5,
}

// x11Observable is the set of buttons an x11Pointer can report.
const x11Observable = Buttons(1<<1 | 1<<2 | 1<<3 | 1<<4 | 1<<5)

type x11Pointer struct {
	conn   *xgb.Conn
	root   xproto.Window
	origin image.Point
}

func newX11Pointer() (*x11Pointer, error) {
	conn, err := xgb.NewConn()
	if err != nil {
		return nil, fmt.Errorf("connecting to X server: %w", err)
	}
	screen := xproto.Setup(conn).DefaultScreen(conn)

	p := &x11Pointer{conn: conn, root: screen.Root}
	if display, err := primaryDisplay(); err == nil {
		p.origin = display.Min
	}
	return p, nil
}

func (p *x11Pointer) Poll() (image.Point, Buttons, error) {
	reply, err := xproto.QueryPointer(p.conn, p.root).Reply()
	if err != nil {
		return image.Point{}, 0, fmt.Errorf("querying pointer: %w", err)
	}
	pt := image.Pt(int(reply.RootX), int(reply.RootY)).Sub(p.origin)
	return pt, x11Buttons(reply.Mask), nil
}

func (p *x11Pointer) Close() error {
	p.conn.Close()
	return nil
}

func x11Buttons(mask uint16) Buttons {
	var b Buttons
	for i, m := range x11ButtonMasks {
		if m != 0 && mask&m != 0 {
			b |= 1 << uint(i)
		}
	}
	return b
}
