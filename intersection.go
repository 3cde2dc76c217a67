package reveal

import (
	"slices"
	"time"
)

// IntersectionConfig configures an IntersectionObserver.
type IntersectionConfig struct {
	// Threshold is the visible fraction an element must reach to count as
	// intersecting. Zero means any visible area.
	Threshold float64
	// Margins shrink the viewport before testing (negative values grow it).
	Margins Margins
}

// IntersectionEntry reports a change in an element's visibility.
type IntersectionEntry struct {
	Target         *Element
	Ratio          float64
	IsIntersecting bool
	Time           time.Duration
}

// IntersectionObserver delivers batched visibility changes for observed
// elements at the end of every frame. A newly observed element always
// produces one initial entry.
type IntersectionObserver struct {
	doc     *Document
	cfg     IntersectionConfig
	fn      func([]IntersectionEntry)
	targets []*Element
	state   map[*Element]bool
	buf     []IntersectionEntry
	closed  bool
}

// NewIntersectionObserver creates an observer that reports to fn.
func (d *Document) NewIntersectionObserver(cfg IntersectionConfig, fn func([]IntersectionEntry)) *IntersectionObserver {
	o := &IntersectionObserver{
		doc:   d,
		cfg:   cfg,
		fn:    fn,
		state: make(map[*Element]bool),
	}
	d.observers = append(d.observers, o)
	return o
}

// Observe starts watching el. No-op if already observed.
func (o *IntersectionObserver) Observe(el *Element) {
	if o.closed || slices.Contains(o.targets, el) {
		return
	}
	o.targets = append(o.targets, el)
}

// Unobserve stops watching el.
func (o *IntersectionObserver) Unobserve(el *Element) {
	i := slices.Index(o.targets, el)
	if i < 0 {
		return
	}
	o.targets = slices.Delete(o.targets, i, i+1)
	delete(o.state, el)
}

// Disconnect stops watching every element. The observer cannot be reused.
func (o *IntersectionObserver) Disconnect() {
	o.closed = true
	o.targets = nil
	clear(o.state)
}

// Len returns the number of observed elements.
func (o *IntersectionObserver) Len() int {
	return len(o.targets)
}

func (o *IntersectionObserver) collect(root Rect, now time.Duration) []IntersectionEntry {
	o.buf = o.buf[:0]
	for _, el := range o.targets {
		ratio := 0.0
		if el.Connected() {
			ratio = intersectionRatio(el.Bounds(), root)
		}
		in := isIntersecting(ratio, o.cfg.Threshold)
		prev, seen := o.state[el]
		if seen && prev == in {
			continue
		}
		o.state[el] = in
		o.buf = append(o.buf, IntersectionEntry{Target: el, Ratio: ratio, IsIntersecting: in, Time: now})
	}
	return o.buf
}

func (d *Document) deliverIntersections() {
	if len(d.observers) == 0 {
		return
	}
	vp := d.viewport.Rect()
	observers := slices.Clone(d.observers)
	for _, o := range observers {
		if o.closed {
			continue
		}
		entries := o.collect(vp.Inset(o.cfg.Margins), d.now)
		if len(entries) > 0 {
			// Callbacks may observe/unobserve; hand them a stable copy.
			o.fn(slices.Clone(entries))
		}
	}
	d.observers = slices.DeleteFunc(d.observers, func(o *IntersectionObserver) bool { return o.closed })
}
