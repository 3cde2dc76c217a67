package reveal

import "time"

// target is one registered element.
type target struct {
	el    *Element
	id    string
	seq   uint64        // registration sequence, engine-wide
	index int           // position within its registration call
	delay time.Duration // opts.Delay + index*opts.Interval

	// requested is the resolution without performance adjustments and
	// decides whether a re-registration changes anything. opts is the
	// target's own effective copy; degradation never touches another
	// target's.
	requested RevealOptions
	opts      RevealOptions

	status Status
	state  State

	gen      uint64 // bumped whenever in-flight completions become stale
	reveals  int    // completed reveals
	visible  bool   // last reported visibility
	degraded bool
	anim     *Animation
}

func newTarget(el *Element, requested, opts RevealOptions, index int) *target {
	return &target{
		el:        el,
		index:     index,
		requested: requested,
		opts:      opts,
		delay:     staggerDelay(opts, index),
		status:    StatusQueued,
	}
}

func staggerDelay(opts RevealOptions, index int) time.Duration {
	return opts.Delay + time.Duration(index)*opts.Interval
}

// terminal reports whether the target finished its only reveal.
func (t *target) terminal() bool {
	return !t.opts.Reset && t.reveals > 0
}

// hiddenStyle is the pre-reveal appearance.
func (e *Engine) hiddenStyle(t *target) Style {
	var geo *Geometry
	if t.opts.RespectPositioning {
		g := t.el.Geometry()
		geo = &g
	}
	return Style{Opacity: t.opts.Opacity, Transform: e.transforms.Transform(t.opts.transformSpec(), geo)}
}

// alive reports whether a completion scheduled at generation gen may still
// apply its effects.
func (e *Engine) alive(t *target, gen uint64) bool {
	return !e.destroyed && t.gen == gen && e.registry[t.el] == t && t.el.Connected()
}

// motion returns the duration and delay a transition should use.
func (e *Engine) motion(t *target, withDelay bool) (time.Duration, time.Duration) {
	if e.caps.ReducedMotion && !t.opts.Force {
		return 0, 0
	}
	d := t.opts.Duration
	if d <= 0 || !withDelay {
		return d, 0
	}
	if t.opts.UseDelay == UseDelayOnce && t.reveals > 0 {
		return d, 0
	}
	return d, t.delay
}

// enter handles a viewport enter report.
func (e *Engine) enter(t *target) {
	if e.destroyed || t.terminal() {
		return
	}
	switch t.state {
	case StateHidden:
		e.reveal(t)
	case StateResetting:
		e.reveal(t) // reverse
	}
}

// exit handles a viewport exit report. Only repeatable targets react.
func (e *Engine) exit(t *target) {
	if e.destroyed || !t.opts.Reset {
		return
	}
	switch t.state {
	case StateRevealed, StateRevealing:
		e.reset(t)
	}
}

func (e *Engine) reveal(t *target) {
	t.gen++
	gen := t.gen
	e.stopAnimation(t)
	t.state = StateRevealing
	if t.status == StatusResetting {
		t.status = StatusTracked
	}
	t.el.SetAttr(AttrAnimating, "")
	e.safeCall("beforeReveal", t.opts.BeforeReveal, t.el)
	if !e.alive(t, gen) {
		return
	}
	duration, delay := e.motion(t, true)
	e.animateTo(t, NeutralStyle(), duration, delay, func() { e.completeReveal(t, gen) })
}

func (e *Engine) completeReveal(t *target, gen uint64) {
	if !e.alive(t, gen) {
		return
	}
	t.anim = nil
	t.state = StateRevealed
	t.status = StatusRevealed
	t.reveals++
	t.el.RemoveAttr(AttrAnimating)
	t.el.SetAttr(AttrComplete, "")
	if t.opts.Cleanup {
		t.el.SetTransition(nil)
		t.el.ClearStyle()
	}
	if !t.opts.Reset {
		e.det.untrack(t)
		t.el.RemoveAttr(AttrObserved)
	}
	e.safeCall("afterReveal", t.opts.AfterReveal, t.el)
}

func (e *Engine) reset(t *target) {
	t.gen++
	gen := t.gen
	e.stopAnimation(t)
	t.state = StateResetting
	t.status = StatusResetting
	t.el.SetAttr(AttrAnimating, "")
	e.safeCall("beforeReset", t.opts.BeforeReset, t.el)
	if !e.alive(t, gen) {
		return
	}
	duration, _ := e.motion(t, false)
	e.animateTo(t, e.hiddenStyle(t), duration, 0, func() { e.completeReset(t, gen) })
}

func (e *Engine) completeReset(t *target, gen uint64) {
	if !e.alive(t, gen) {
		return
	}
	t.anim = nil
	t.state = StateHidden
	t.status = StatusTracked
	t.el.RemoveAttr(AttrAnimating)
	t.el.RemoveAttr(AttrComplete)
	e.safeCall("afterReset", t.opts.AfterReset, t.el)
}

// animateTo moves the element to style and calls done once it shows it.
// A zero duration applies the style and calls done before returning.
func (e *Engine) animateTo(t *target, style Style, duration, delay time.Duration, done func()) {
	el := t.el
	if duration <= 0 {
		el.SetTransition(nil)
		el.SetStyle(style)
		done()
		return
	}
	fn, _ := EasingFunc(t.opts.Easing)
	if t.opts.Strategy == StrategyAnimation && e.caps.AnimationTimeline {
		el.SetTransition(nil)
		a := el.Animate(Keyframes{From: el.Computed(), To: style}, Timing{Duration: duration, Delay: delay, Easing: fn})
		a.OnFinish = func() {
			if e.alive(t, t.gen) && t.anim == a {
				// Commit the end state so it outlives the animation.
				el.SetStyle(style)
			}
			done()
		}
		t.anim = a
		return
	}
	el.SetTransition(&Transition{Duration: duration, Delay: delay, Easing: fn, OnEnd: done})
	el.SetStyle(style)
}

func (e *Engine) stopAnimation(t *target) {
	if t.anim != nil {
		t.anim.Cancel()
		t.anim = nil
	}
}

// safeCall runs a user callback. A panic is logged and swallowed.
func (e *Engine) safeCall(name string, cb Callback, el *Element) {
	if cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			e.log.WithField("callback", name).WithField("element", el.Name).
				Warnf("reveal: callback panicked: %v", r)
		}
	}()
	cb(el)
}
