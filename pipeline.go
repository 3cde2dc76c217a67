package reveal

import (
	"math"
	"slices"
	"time"

	"github.com/google/uuid"
)

// revealCall is one registration request, replayed by Sync.
type revealCall struct {
	selector string
	elements []*Element
	opts     Options
}

// sliceStats records lazy-init slice sizes.
type sliceStats struct {
	slices   int
	maxItems int
	maxTime  time.Duration
	itemCost time.Duration // slowest single activation seen
}

// Reveal registers every element matching selector with the given option
// overrides and returns how many elements were registered or reconfigured.
// A selector that matches nothing is logged and ignored.
func (e *Engine) Reveal(selector string, opts Options) int {
	if e.destroyed {
		return 0
	}
	e.remember(revealCall{selector: selector, opts: opts})
	els := e.query(selector)
	if len(els) == 0 {
		e.log.WithField("selector", selector).Warn("reveal: selector matched no elements")
		return 0
	}
	return e.register(els, opts)
}

// RevealElements registers explicit elements. Detached elements are skipped.
func (e *Engine) RevealElements(opts Options, els ...*Element) int {
	if e.destroyed {
		return 0
	}
	e.remember(revealCall{elements: slices.Clone(els), opts: opts})
	e.debugCheckElements(els)
	if len(els) == 0 {
		e.log.Warn("reveal: no elements to reveal")
		return 0
	}
	return e.register(els, opts)
}

// remember records a call for Sync. A later call with the same selector
// replaces the earlier one.
func (e *Engine) remember(c revealCall) {
	if c.selector != "" {
		e.history = slices.DeleteFunc(e.history, func(h revealCall) bool { return h.selector == c.selector })
	}
	e.history = append(e.history, c)
}

// query resolves a selector through the selector cache, dropping elements
// that have since left the document.
func (e *Engine) query(selector string) []*Element {
	if els, ok := e.selectors.get(selector); ok {
		live := slices.DeleteFunc(slices.Clone(els), func(el *Element) bool { return !el.Connected() })
		if len(live) == len(els) {
			return live
		}
	}
	els := e.host.Query(selector)
	e.selectors.put(selector, els)
	return slices.Clone(els)
}

func (e *Engine) register(els []*Element, overrides Options) int {
	base := e.mergeBase(e.base, overrides)
	requested := resolveOptions(base, Options{}, PerformanceOptions{})
	if !e.deviceEnabled(requested) {
		e.log.WithField("mobile", e.host.Device().Mobile).Debug("reveal: disabled for this device class")
		return 0
	}
	opts := resolveOptions(base, Options{}, e.perf)

	els = uniqueConnected(els)
	e.debugCheckBatch(len(els))
	lazy := len(els) > e.perf.LazyInitThreshold
	if lazy {
		els = e.prioritize(els)
	}

	n := 0
	for i, el := range els {
		if handled, changed := e.reconfigure(el, requested, opts, i); handled {
			if changed {
				n++
			}
			continue
		}
		t := newTarget(el, requested, opts, i)
		if e.gov.degraded {
			t.degraded = true
		}
		if lazy {
			e.enqueue(t)
		} else {
			e.activate(t)
		}
		n++
	}
	if lazy && len(e.queue) > 0 {
		e.scheduleDrain()
	}
	return n
}

func (e *Engine) deviceEnabled(opts RevealOptions) bool {
	if e.host.Device().Mobile {
		return opts.Mobile
	}
	return opts.Desktop
}

func uniqueConnected(els []*Element) []*Element {
	out := make([]*Element, 0, len(els))
	seen := make(map[*Element]bool, len(els))
	for _, el := range els {
		if el == nil || seen[el] || !el.Connected() {
			continue
		}
		seen[el] = true
		out = append(out, el)
	}
	return out
}

// prioritize orders elements by distance from the viewport's vertical
// midpoint, nearest first. Ties keep document order.
func (e *Engine) prioritize(els []*Element) []*Element {
	mid := e.host.Viewport().Center().Y
	type scored struct {
		el   *Element
		dist float64
	}
	s := make([]scored, len(els))
	for i, el := range els {
		s[i] = scored{el, math.Abs(el.Bounds().Center().Y - mid)}
	}
	slices.SortStableFunc(s, func(a, b scored) int {
		switch {
		case a.dist < b.dist:
			return -1
		case a.dist > b.dist:
			return 1
		}
		return 0
	})
	out := make([]*Element, len(s))
	for i := range s {
		out[i] = s[i].el
	}
	return out
}

// reconfigure applies a registration to an element the engine already
// knows. Identical options are a no-op; new options replace the old ones.
func (e *Engine) reconfigure(el *Element, requested, opts RevealOptions, index int) (handled, changed bool) {
	if q, ok := e.queued[el]; ok {
		if q.requested.equal(requested) {
			return true, false
		}
		q.requested, q.opts, q.index, q.delay = requested, opts, index, staggerDelay(opts, index)
		e.preHide(q)
		return true, true
	}
	t, ok := e.registry[el]
	if !ok {
		return false, false
	}
	if t.requested.equal(requested) {
		return true, false
	}
	t.gen++
	e.stopAnimation(t)
	t.requested, t.opts, t.index, t.delay = requested, opts, index, staggerDelay(opts, index)
	t.degraded = e.gov.degraded
	if t.reveals > 0 && !t.opts.Reset && t.state == StateRevealed {
		// Already revealed for good; the new options only matter to Status.
		e.det.untrack(t)
		el.RemoveAttr(AttrObserved)
		return true, true
	}
	e.hide(t)
	e.retrack(t)
	return true, true
}

// enqueue defers activation to the lazy-init slices and starts computing
// the target's hidden transform.
func (e *Engine) enqueue(t *target) {
	e.queue = append(e.queue, t)
	e.queued[t.el] = t
	if !t.opts.RespectPositioning {
		e.compute.request(t.opts.transformSpec(), nil)
		e.ensureLoop()
	}
	e.preHide(t)
}

// preHide holds a queued element at its hidden opacity until its slice
// activates it. The transform is applied only when the cache already has
// it; activation computes the rest.
func (e *Engine) preHide(t *target) {
	s := Style{Opacity: t.opts.Opacity, Transform: NeutralTransform}
	if !t.opts.RespectPositioning {
		if tr, ok := e.transforms.lookup(t.opts.transformSpec().Key()); ok {
			s.Transform = tr
		}
	}
	t.el.SetTransition(nil)
	t.el.SetStyle(s)
}

func (e *Engine) scheduleDrain() {
	if e.drainFrame != 0 || e.destroyed {
		return
	}
	e.drainFrame = e.host.RequestFrame(func(time.Duration) {
		e.drainFrame = 0
		e.drain()
	})
}

// drain activates queued targets until the slice's item count or time
// budget is reached, then yields to the next frame.
func (e *Engine) drain() {
	if e.destroyed {
		return
	}
	e.compute.drain()
	start := e.clock()
	budget := e.perf.BatchBudget
	items := 0
	var elapsed time.Duration
	for len(e.queue) > 0 && items < e.perf.BatchSize {
		if items > 0 && elapsed+e.slices.itemCost > budget {
			break
		}
		t := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		delete(e.queued, t.el)
		if !t.el.Connected() {
			continue
		}
		before := elapsed
		e.activate(t)
		items++
		elapsed = e.clock().Sub(start)
		e.slices.itemCost = max(e.slices.itemCost, elapsed-before)
	}
	e.slices.slices++
	e.slices.maxItems = max(e.slices.maxItems, items)
	e.slices.maxTime = max(e.slices.maxTime, elapsed)
	e.log.WithField("items", items).WithField("elapsed", elapsed).WithField("remaining", len(e.queue)).
		Debug("reveal: lazy-init slice")
	if len(e.queue) > 0 {
		e.scheduleDrain()
	} else {
		e.queue = nil
	}
}

// activate puts a target into the registry, hides it, and starts tracking.
func (e *Engine) activate(t *target) {
	e.seq++
	t.seq = e.seq
	if id, ok := t.el.Attr(AttrID); ok && id != "" {
		t.id = id
	} else {
		t.id = newElementID()
		t.el.SetAttr(AttrID, t.id)
	}
	t.el.SetAttr(AttrInitialized, "")
	e.registry[t.el] = t
	e.hide(t)
	e.retrack(t)
}

// hide applies the pre-reveal style at once.
func (e *Engine) hide(t *target) {
	t.state = StateHidden
	t.status = StatusTracked
	t.el.RemoveAttr(AttrAnimating)
	t.el.RemoveAttr(AttrComplete)
	t.el.SetTransition(nil)
	t.el.SetStyle(e.hiddenStyle(t))
}

// retrack (re)starts detection so the target gets a fresh evaluation.
func (e *Engine) retrack(t *target) {
	e.det.untrack(t)
	t.el.RemoveAttr(AttrVirtualized)
	t.el.SetAttr(AttrObserved, "")
	if t.status == StatusVirtualized {
		t.status = StatusTracked
	}
	e.det.track(t)
}

func newElementID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
