package reveal

import (
	"slices"
	"time"
)

// detector reports viewport enter and exit for tracked targets. A newly
// tracked target always gets one evaluation (enter or exit) at the end of
// the current frame or the next one; afterwards only changes are reported.
type detector interface {
	kind() DetectorKind
	track(t *target)
	untrack(t *target)
	tracking(t *target) bool
	// recheck forgets every tracked target's last reported visibility so the
	// next evaluation reports all of them again.
	recheck()
	close()
}

// visibilityHandler receives detector reports.
type visibilityHandler struct {
	enter func(t *target)
	exit  func(t *target)
}

func (h visibilityHandler) report(t *target, visible bool) {
	t.visible = visible
	if visible {
		h.enter(t)
	} else {
		h.exit(t)
	}
}

// --- push ---

type observerKey struct {
	threshold float64
	margins   Margins
}

// pushDetector delegates to host intersection observers, one per distinct
// threshold and margins.
type pushDetector struct {
	host      Host
	handler   visibilityHandler
	observers map[observerKey]*IntersectionObserver
	targets   map[*Element]*target
	observer  map[*target]*IntersectionObserver
}

func newPushDetector(host Host, h visibilityHandler) *pushDetector {
	return &pushDetector{
		host:      host,
		handler:   h,
		observers: make(map[observerKey]*IntersectionObserver),
		targets:   make(map[*Element]*target),
		observer:  make(map[*target]*IntersectionObserver),
	}
}

func (d *pushDetector) kind() DetectorKind { return DetectorPush }

func (d *pushDetector) track(t *target) {
	if _, ok := d.observer[t]; ok {
		return
	}
	key := observerKey{threshold: t.opts.ViewFactor, margins: t.opts.ViewOffset}
	o, ok := d.observers[key]
	if !ok {
		o = d.host.NewIntersectionObserver(IntersectionConfig{Threshold: key.threshold, Margins: key.margins}, d.deliver)
		d.observers[key] = o
	}
	d.targets[t.el] = t
	d.observer[t] = o
	o.Observe(t.el)
}

func (d *pushDetector) untrack(t *target) {
	o, ok := d.observer[t]
	if !ok {
		return
	}
	o.Unobserve(t.el)
	delete(d.observer, t)
	if d.targets[t.el] == t {
		delete(d.targets, t.el)
	}
}

func (d *pushDetector) tracking(t *target) bool {
	_, ok := d.observer[t]
	return ok
}

func (d *pushDetector) recheck() {
	for t, o := range d.observer {
		o.Unobserve(t.el)
		o.Observe(t.el)
	}
}

func (d *pushDetector) deliver(entries []IntersectionEntry) {
	for _, e := range entries {
		t, ok := d.targets[e.Target]
		if !ok || !d.tracking(t) {
			continue
		}
		d.handler.report(t, e.IsIntersecting)
	}
}

func (d *pushDetector) close() {
	for _, o := range d.observers {
		o.Disconnect()
	}
	clear(d.observers)
	clear(d.targets)
	clear(d.observer)
}

// --- poll ---

// pollDetector evaluates geometry on scroll, resize, and load signals,
// throttled to interval(). onTick runs after every full evaluation.
type pollDetector struct {
	host     Host
	handler  visibilityHandler
	onTick   func()
	targets  []*target
	seen     map[*target]bool
	throttle *throttle
	cancels  []func()
	frame    FrameID
	ticks    int
}

func newPollDetector(host Host, h visibilityHandler, interval func() time.Duration, onTick func()) *pollDetector {
	d := &pollDetector{
		host:    host,
		handler: h,
		onTick:  onTick,
		seen:    make(map[*target]bool),
	}
	d.throttle = newThrottle(host, interval, d.tick)
	for _, k := range []EventKind{EventScroll, EventResize, EventLoad} {
		d.cancels = append(d.cancels, host.On(k, d.throttle.schedule))
	}
	return d
}

func (d *pollDetector) kind() DetectorKind { return DetectorPoll }

func (d *pollDetector) track(t *target) {
	if slices.Contains(d.targets, t) {
		return
	}
	d.targets = append(d.targets, t)
	delete(d.seen, t)
	d.requestEvaluation()
}

func (d *pollDetector) untrack(t *target) {
	i := slices.Index(d.targets, t)
	if i < 0 {
		return
	}
	d.targets = slices.Delete(d.targets, i, i+1)
	delete(d.seen, t)
}

func (d *pollDetector) tracking(t *target) bool {
	return slices.Contains(d.targets, t)
}

func (d *pollDetector) recheck() {
	clear(d.seen)
	d.requestEvaluation()
}

// requestEvaluation reports unseen targets on the next frame, outside the
// throttle, mirroring the initial entry an intersection observer delivers.
func (d *pollDetector) requestEvaluation() {
	if d.frame != 0 {
		return
	}
	d.frame = d.host.RequestFrame(func(time.Duration) {
		d.frame = 0
		d.evaluate(true)
	})
}

func (d *pollDetector) tick() {
	d.ticks++
	d.evaluate(false)
	if d.onTick != nil {
		d.onTick()
	}
}

// evaluate checks tracked targets against the viewport. With unseenOnly it
// skips targets that already had a report.
func (d *pollDetector) evaluate(unseenOnly bool) {
	if len(d.targets) == 0 {
		return
	}
	vp := d.host.Viewport()
	for _, t := range slices.Clone(d.targets) {
		if !d.tracking(t) {
			continue // untracked by an earlier report in this pass
		}
		prev, seen := d.seen[t]
		if unseenOnly && seen {
			continue
		}
		in := targetVisible(t, vp)
		if seen && prev == in {
			continue
		}
		d.seen[t] = in
		d.handler.report(t, in)
	}
}

func (d *pollDetector) close() {
	for _, cancel := range d.cancels {
		cancel()
	}
	d.cancels = nil
	d.throttle.stop()
	if d.frame != 0 {
		d.host.CancelFrame(d.frame)
		d.frame = 0
	}
	d.targets = nil
	clear(d.seen)
}

// targetVisible applies the same test IntersectionObserver does.
func targetVisible(t *target, vp Rect) bool {
	if !t.el.Connected() {
		return false
	}
	ratio := intersectionRatio(t.el.Bounds(), vp.Inset(t.opts.ViewOffset))
	return isIntersecting(ratio, t.opts.ViewFactor)
}

// --- throttle ---

// throttle runs fn at most once per interval. The first signal in a quiet
// period runs fn immediately; signals inside the interval collapse into one
// trailing run.
type throttle struct {
	host     Host
	interval func() time.Duration
	fn       func()
	last     time.Duration
	ran      bool
	timer    TimerID
}

func newThrottle(host Host, interval func() time.Duration, fn func()) *throttle {
	return &throttle{host: host, interval: interval, fn: fn}
}

func (t *throttle) schedule() {
	if t.timer != 0 {
		return
	}
	now := t.host.Now()
	wait := t.interval() - (now - t.last)
	if !t.ran || wait <= 0 {
		t.run()
		return
	}
	t.timer = t.host.AfterFunc(wait, func() {
		t.timer = 0
		t.run()
	})
}

func (t *throttle) run() {
	t.ran = true
	t.last = t.host.Now()
	t.fn()
}

func (t *throttle) stop() {
	if t.timer != 0 {
		t.host.CancelTimer(t.timer)
		t.timer = 0
	}
}
