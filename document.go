package reveal

import (
	"cmp"
	"slices"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
)

// Capabilities lists the optional services a host offers. Missing services
// make the engine fall back to simpler strategies.
type Capabilities struct {
	IntersectionObserver bool // push-based visibility notifications
	Workers              bool // background goroutines for transform offload
	AnimationTimeline    bool // Element.Animate
	ReducedMotion        bool // the user asked for minimal motion
}

// FullCapabilities has every optional service available.
var FullCapabilities = Capabilities{
	IntersectionObserver: true,
	Workers:              true,
	AnimationTimeline:    true,
}

// EventKind identifies a document-level signal.
type EventKind uint8

const (
	EventScroll EventKind = iota // the viewport scroll position changed
	EventResize                  // the viewport size changed
	EventLoad                    // the document finished loading
)

// FrameID identifies a pending frame callback.
type FrameID uint64

// TimerID identifies a pending timer.
type TimerID uint64

// Host is the set of environment services the reveal engine depends on.
// Document is the in-process implementation.
type Host interface {
	// Query returns the attached elements matching selector in document order.
	Query(selector string) []*Element
	// Viewport returns the visible area in document coordinates.
	Viewport() Rect
	// Now returns the host clock.
	Now() time.Duration
	// RequestFrame schedules fn on the next frame.
	RequestFrame(fn func(now time.Duration)) FrameID
	// CancelFrame cancels a pending frame callback.
	CancelFrame(id FrameID)
	// AfterFunc schedules fn after d on the host clock.
	AfterFunc(d time.Duration, fn func()) TimerID
	// CancelTimer cancels a pending timer.
	CancelTimer(id TimerID)
	// On registers a listener for a document signal and returns its cancel func.
	On(kind EventKind, fn func()) func()
	// ObserveRemovals registers fn to receive elements detached from the
	// document, batched per frame, and returns its cancel func.
	ObserveRemovals(fn func(removed []*Element)) func()
	// NewIntersectionObserver creates a push-based visibility observer.
	NewIntersectionObserver(cfg IntersectionConfig, fn func([]IntersectionEntry)) *IntersectionObserver
	// Capabilities returns the optional services available.
	Capabilities() Capabilities
	// Device returns hardware hints used for capability classification.
	Device() DeviceInfo
}

type timer struct {
	id       TimerID
	due      time.Duration
	fn       func()
	canceled bool
}

type frameRequest struct {
	id FrameID
	fn func(now time.Duration)
}

type listener struct {
	kind    EventKind
	fn      func()
	removed bool
}

type removalObserver struct {
	fn      func([]*Element)
	removed bool
}

// Document owns an element tree, a viewport, and the frame clock that
// drives timers, transitions, animations, and observers.
type Document struct {
	// Background fills the screen before Draw renders elements. Transparent
	// leaves the screen as is.
	Background Color

	root     *Element
	viewport *Viewport
	caps     Capabilities
	device   DeviceInfo
	now      time.Duration

	nextID  uint64
	frames  []frameRequest
	timers  []*timer
	dueBuf  []*timer

	listeners        []*listener
	removalObservers []*removalObserver
	pendingRemovals  []*Element // detached subtrees, flattened when recorded
	loadPending      bool
	loaded           bool

	active     []*Element
	animations []*Animation
	observers  []*IntersectionObserver

	script *ScrollScript
}

// NewDocument creates an empty document with a viewport of the given size
// and every optional capability available.
func NewDocument(width, height float64) *Document {
	d := &Document{
		viewport: newViewport(width, height),
		caps:     FullCapabilities,
	}
	d.root = NewElement("root")
	d.root.doc = d
	return d
}

// Root returns the document's root element.
func (d *Document) Root() *Element {
	return d.root
}

// Window returns the document's viewport for scrolling and resizing.
func (d *Document) Window() *Viewport {
	return d.viewport
}

// Viewport returns the visible area in document coordinates.
func (d *Document) Viewport() Rect {
	return d.viewport.Rect()
}

// Capabilities returns the optional services available.
func (d *Document) Capabilities() Capabilities {
	return d.caps
}

// SetCapabilities replaces the capability set. Engines read it at
// construction.
func (d *Document) SetCapabilities(c Capabilities) {
	d.caps = c
}

// Device returns the hardware hints.
func (d *Document) Device() DeviceInfo {
	return d.device
}

// SetDevice sets the hardware hints.
func (d *Document) SetDevice(info DeviceInfo) {
	d.device = info
}

// Now returns the document clock: the sum of all Step durations.
func (d *Document) Now() time.Duration {
	return d.now
}

// Query returns the attached elements matching selector in document order.
// The root never matches. An invalid selector matches nothing.
func (d *Document) Query(selector string) []*Element {
	sel, ok := parseSelector(selector)
	if !ok {
		return nil
	}
	var out []*Element
	for _, c := range d.root.children {
		c.walk(func(e *Element) {
			if sel.matches(e) {
				out = append(out, e)
			}
		})
	}
	return out
}

// MarkLoaded fires load listeners on the next frame. Only the first call
// has an effect.
func (d *Document) MarkLoaded() {
	if !d.loaded {
		d.loaded = true
		d.loadPending = true
	}
}

// --- Scheduling ---

func (d *Document) newID() uint64 {
	d.nextID++
	return d.nextID
}

// RequestFrame schedules fn to run during the next Step.
func (d *Document) RequestFrame(fn func(now time.Duration)) FrameID {
	id := FrameID(d.newID())
	d.frames = append(d.frames, frameRequest{id: id, fn: fn})
	return id
}

// CancelFrame cancels a pending frame callback. Unknown ids are ignored.
func (d *Document) CancelFrame(id FrameID) {
	for i := range d.frames {
		if d.frames[i].id == id {
			d.frames[i].fn = nil
			return
		}
	}
}

// AfterFunc schedules fn to run once the clock has advanced by at least d.
func (d *Document) AfterFunc(delay time.Duration, fn func()) TimerID {
	t := &timer{id: TimerID(d.newID()), due: d.now + delay, fn: fn}
	d.timers = append(d.timers, t)
	return t.id
}

// CancelTimer cancels a pending timer. Unknown ids are ignored.
func (d *Document) CancelTimer(id TimerID) {
	for _, t := range d.timers {
		if t.id == id {
			t.canceled = true
			return
		}
	}
}

// On registers a listener for a document signal.
func (d *Document) On(kind EventKind, fn func()) func() {
	l := &listener{kind: kind, fn: fn}
	d.listeners = append(d.listeners, l)
	return func() { l.removed = true }
}

// ObserveRemovals registers fn to receive detached elements, including
// their descendants, once per frame.
func (d *Document) ObserveRemovals(fn func(removed []*Element)) func() {
	o := &removalObserver{fn: fn}
	d.removalObservers = append(d.removalObservers, o)
	return func() { o.removed = true }
}

// PendingTimers returns the number of timers waiting to fire.
func (d *Document) PendingTimers() int {
	n := 0
	for _, t := range d.timers {
		if !t.canceled {
			n++
		}
	}
	return n
}

// --- Frame loop ---

// Update advances the document by one tick at the Ebitengine tick rate.
func (d *Document) Update() {
	d.Step(time.Second / time.Duration(ebiten.TPS()))
}

// Step advances the document clock by dt and runs one frame: scripted
// steps, scrolling, signals, removal records, due timers, transitions and
// animations, frame callbacks, and intersection observers, in that order.
func (d *Document) Step(dt time.Duration) {
	d.now += dt

	if d.script != nil {
		d.script.step(d)
	}

	d.viewport.update(float32(dt.Seconds()))
	scrolled, resized := d.viewport.takeEvents()
	if d.loadPending {
		d.loadPending = false
		d.emit(EventLoad)
	}
	if resized {
		d.emit(EventResize)
	}
	if scrolled {
		d.emit(EventScroll)
	}

	d.flushRemovals()
	d.fireTimers()
	d.advanceAnimations(dt)
	d.runFrames()
	d.deliverIntersections()
}

// StepN runs n frames of dt each.
func (d *Document) StepN(n int, dt time.Duration) {
	for i := 0; i < n; i++ {
		d.Step(dt)
	}
}

func (d *Document) emit(kind EventKind) {
	ls := d.listeners
	for _, l := range ls {
		if l.kind == kind && !l.removed {
			l.fn()
		}
	}
	d.listeners = slices.DeleteFunc(d.listeners, func(l *listener) bool { return l.removed })
}

func (d *Document) fireTimers() {
	for {
		d.dueBuf = d.dueBuf[:0]
		for _, t := range d.timers {
			if !t.canceled && t.due <= d.now {
				d.dueBuf = append(d.dueBuf, t)
			}
		}
		if len(d.dueBuf) == 0 {
			break
		}
		slices.SortStableFunc(d.dueBuf, func(a, b *timer) int {
			if c := cmp.Compare(a.due, b.due); c != 0 {
				return c
			}
			return cmp.Compare(a.id, b.id)
		})
		for _, t := range d.dueBuf {
			t.canceled = true
		}
		for _, t := range d.dueBuf {
			t.fn()
		}
		d.timers = slices.DeleteFunc(d.timers, func(t *timer) bool { return t.canceled })
	}
	d.timers = slices.DeleteFunc(d.timers, func(t *timer) bool { return t.canceled })
}

func (d *Document) runFrames() {
	frames := d.frames
	d.frames = nil
	for _, f := range frames {
		if f.fn != nil {
			f.fn(d.now)
		}
	}
}

// trackActive records an element with a running transition.
func (d *Document) trackActive(e *Element) {
	if !slices.Contains(d.active, e) {
		d.active = append(d.active, e)
	}
}

func (d *Document) advanceAnimations(dt time.Duration) {
	if len(d.active) > 0 {
		active := slices.Clone(d.active)
		d.active = d.active[:0]
		for _, e := range active {
			if e.advanceTransition(dt) {
				d.trackActive(e)
			}
		}
	}
	if len(d.animations) > 0 {
		anims := slices.Clone(d.animations)
		d.animations = d.animations[:0]
		for _, a := range anims {
			if a.advance(dt) {
				d.animations = append(d.animations, a)
			}
		}
	}
}

// --- Structural changes ---

// noteRemoved cancels transitions in the detached subtree and queues it for
// removal observers. The subtree is flattened now: Dispose clears child
// lists before the records are delivered.
func (d *Document) noteRemoved(e *Element) {
	e.walk(func(x *Element) {
		x.running = nil
		d.pendingRemovals = append(d.pendingRemovals, x)
	})
}

func (d *Document) flushRemovals() {
	if len(d.pendingRemovals) == 0 {
		return
	}
	var removed []*Element
	seen := make(map[*Element]bool, len(d.pendingRemovals))
	for _, e := range d.pendingRemovals {
		if seen[e] || e.Connected() {
			continue // re-attached before the records were delivered
		}
		seen[e] = true
		removed = append(removed, e)
	}
	d.pendingRemovals = d.pendingRemovals[:0]
	if len(removed) == 0 {
		return
	}
	for _, o := range d.removalObservers {
		if !o.removed {
			o.fn(removed)
		}
	}
	d.removalObservers = slices.DeleteFunc(d.removalObservers, func(o *removalObserver) bool { return o.removed })
}
