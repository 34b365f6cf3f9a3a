package main

import (
	"errors"
	"fmt"
)

// maxButton is the highest button index a Buttons mask can hold.
const maxButton = 31

// Buttons is a bitmask of pressed buttons; bit i is button index i.
type Buttons uint32

// Pressed reports whether button i is down.
func (b Buttons) Pressed(i int) bool {
	if i < 0 || i > maxButton {
		return false
	}
	return b&(1<<uint(i)) != 0
}

// StopSet holds the buttons that end a sampling session.
type StopSet Buttons

// NewStopSet builds a StopSet from button indices.
func NewStopSet(indices []int) (StopSet, error) {
	if len(indices) == 0 {
		return 0, errors.New("stop buttons: at least one button is required")
	}
	var s StopSet
	for _, i := range indices {
		if i < 0 || i > maxButton {
			return 0, fmt.Errorf("stop buttons: index %d out of range 0-%d", i, maxButton)
		}
		s |= 1 << uint(i)
	}
	return s, nil
}

// ShouldStop reports whether any button in s is currently pressed.
func ShouldStop(b Buttons, s StopSet) bool {
	return b&Buttons(s) != 0
}
