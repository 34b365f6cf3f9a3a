package main

// Tracker remembers the last sampled color and reports only changes.
type Tracker struct {
	last RGB
	set  bool
}

// Observe records c. It returns c and true when c is the first sample or
// differs from the previous one.
func (t *Tracker) Observe(c RGB) (RGB, bool) {
	if t.set && t.last == c {
		return RGB{}, false
	}
	t.last = c
	t.set = true
	return c, true
}

// Last returns the held color, if any sample was observed.
func (t *Tracker) Last() (RGB, bool) {
	return t.last, t.set
}
