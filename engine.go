package reveal

import (
	"cmp"
	"runtime"
	"slices"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Engine reveals registered elements as they scroll into view. It is driven
// entirely by its Host: every method must be called from the goroutine that
// steps the host, and no method blocks.
//
// An Engine is usable until Destroy. After that every method is a no-op.
type Engine struct {
	host Host
	caps Capabilities
	base Options
	perf PerformanceOptions

	score int // device score, -1 when the tier was configured explicitly

	registry map[*Element]*target
	queued   map[*Element]*target
	queue    []*target
	seq      uint64
	history  []revealCall

	selectors  *selectorCache
	transforms *TransformCache
	compute    transformComputer
	det        detector

	gov          governor
	strict       bool
	throttleMul  float64
	strictTimer  TimerID
	virtThrottle *throttle
	inactivity   TimerID

	drainFrame FrameID
	loopFrame  FrameID
	slices     sliceStats
	clock      func() time.Time // wall clock for the lazy-init budget

	cancels   []func()
	destroyed bool

	logger *logrus.Logger // nil when the caller supplied a logger
	log    logrus.FieldLogger
	debug  bool
}

// New creates an engine bound to host. Device classification runs once,
// here, and only ever tightens the performance options.
func New(host Host, opts Options) *Engine {
	logger := logrus.New()
	logger.SetLevel(logrus.WarnLevel)
	e := &Engine{
		host:        host,
		caps:        host.Capabilities(),
		base:        opts,
		perf:        resolvePerformance(PerformanceConfig{}, opts.Performance),
		registry:    make(map[*Element]*target),
		queued:      make(map[*Element]*target),
		selectors:   newSelectorCache(),
		transforms:  NewTransformCache(),
		throttleMul: 1,
		clock:       time.Now,
		logger:      logger,
		log:         logger.WithField("component", "reveal"),
	}
	e.score = applyDeviceProfile(&e.perf, host.Device())
	e.compute = e.newComputer()
	e.det = e.newDetector(e.perf.UseIntersectionObserver)
	e.virtThrottle = newThrottle(host, e.throttleInterval, func() { e.virtualize() })
	e.cancels = append(e.cancels,
		host.On(EventScroll, e.onScroll),
		host.ObserveRemovals(e.prune),
	)
	e.armInactivity()
	e.ensureLoop()
	e.log.WithFields(logrus.Fields{
		"tier":     e.perf.Device,
		"score":    e.score,
		"detector": e.det.kind(),
	}).Debug("reveal: engine created")
	return e
}

var (
	instancesMu sync.Mutex
	instances   = make(map[Host]*Engine)
)

// GetInstance returns the engine for host, creating it on first use. Options
// passed to an existing engine are merged into its defaults and affect later
// registrations; performance options are fixed at creation.
func GetInstance(host Host, opts ...Options) *Engine {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	if e, ok := instances[host]; ok && !e.destroyed {
		for _, o := range opts {
			e.base = e.mergeBase(e.base, o)
		}
		return e
	}
	var merged Options
	var errs []error
	for _, o := range opts {
		m, err := mergeOptions(merged, o)
		if err != nil {
			errs = append(errs, err)
		}
		merged = m
	}
	e := New(host, merged)
	for _, err := range errs {
		e.warnMerge(err)
	}
	instances[host] = e
	return e
}

// mergeBase merges caller options, keeping base when the merge fails.
func (e *Engine) mergeBase(base, overrides Options) Options {
	m, err := mergeOptions(base, overrides)
	if err != nil {
		e.warnMerge(err)
	}
	return m
}

func (e *Engine) warnMerge(err error) {
	e.log.WithError(err).Warn("reveal: option merge failed, using base options")
}

func (e *Engine) release() {
	instancesMu.Lock()
	defer instancesMu.Unlock()
	if instances[e.host] == e {
		delete(instances, e.host)
	}
}

func (e *Engine) newDetector(useObserver bool) detector {
	h := visibilityHandler{enter: e.enter, exit: e.exit}
	if useObserver && e.caps.IntersectionObserver {
		return newPushDetector(e.host, h)
	}
	if useObserver {
		e.log.Debug("reveal: intersection observer unavailable, polling instead")
	}
	return newPollDetector(e.host, h, e.throttleInterval, func() { e.virtualize() })
}

func (e *Engine) newComputer() transformComputer {
	if e.perf.UseWorker && e.caps.Workers && e.perf.Device != TierLow {
		return newWorkerComputer(e.transforms, min(4, max(1, runtime.NumCPU()/2)))
	}
	return inlineComputer{cache: e.transforms}
}

// throttleInterval is the effective polling interval, widened while strict
// virtualization is in effect.
func (e *Engine) throttleInterval() time.Duration {
	return time.Duration(float64(e.perf.ThrottleInterval) * e.throttleMul)
}

// Sync drops cached selector results, replays every registration call to
// pick up new elements, and re-evaluates virtualization and visibility.
// Elements the engine already knows keep their options and style.
func (e *Engine) Sync() {
	if e.destroyed {
		return
	}
	e.selectors.purge()
	for _, c := range slices.Clone(e.history) {
		els := c.elements
		if c.selector != "" {
			els = e.query(c.selector)
		}
		els = slices.DeleteFunc(slices.Clone(els), e.known)
		if len(els) > 0 {
			e.register(els, c.opts)
		}
	}
	e.virtualize()
	e.det.recheck()
}

func (e *Engine) known(el *Element) bool {
	if _, ok := e.registry[el]; ok {
		return true
	}
	_, ok := e.queued[el]
	return ok
}

// Refresh re-checks the registered elements matching selector: virtualized
// ones resume tracking and every match gets a fresh visibility evaluation.
// Elements that finished their only reveal are skipped. It returns the
// number of elements re-checked.
func (e *Engine) Refresh(selector string) int {
	if e.destroyed {
		return 0
	}
	els := e.host.Query(selector)
	e.selectors.put(selector, els)
	n := 0
	for _, el := range els {
		t, ok := e.registry[el]
		if !ok || t.terminal() {
			continue
		}
		e.retrack(t)
		n++
	}
	return n
}

// Reinitialize replaces the visibility detector, keeping every registered
// element and re-tracking the ones that were tracked.
func (e *Engine) Reinitialize(useObserver bool) {
	if e.destroyed {
		return
	}
	var tracked []*target
	for _, t := range e.ordered() {
		if e.det.tracking(t) {
			tracked = append(tracked, t)
		}
	}
	e.det.close()
	e.perf.UseIntersectionObserver = useObserver
	e.det = e.newDetector(useObserver)
	for _, t := range tracked {
		e.det.track(t)
	}
	e.log.WithField("detector", e.det.kind()).Debug("reveal: detector reinitialized")
}

// Destroy tears the engine down: frame callbacks, timers, observers,
// listeners, and workers stop, engine attributes and inline styles are
// removed from registered elements, and the host's instance slot is freed.
// Calling it again does nothing.
func (e *Engine) Destroy() {
	if e.destroyed {
		return
	}
	e.destroyed = true
	for _, id := range []FrameID{e.loopFrame, e.drainFrame} {
		if id != 0 {
			e.host.CancelFrame(id)
		}
	}
	for _, id := range []TimerID{e.inactivity, e.strictTimer} {
		if id != 0 {
			e.host.CancelTimer(id)
		}
	}
	e.loopFrame, e.drainFrame, e.inactivity, e.strictTimer = 0, 0, 0, 0
	e.virtThrottle.stop()
	e.det.close()
	for _, cancel := range e.cancels {
		cancel()
	}
	e.cancels = nil
	e.compute.close()

	for _, t := range e.ordered() {
		t.gen++
		e.stopAnimation(t)
		if t.el.Connected() {
			strip(t.el)
		}
	}
	for _, t := range e.queue {
		if t.el.Connected() {
			strip(t.el)
		}
	}
	clear(e.registry)
	clear(e.queued)
	e.queue = nil
	e.history = nil
	e.selectors.purge()
	e.transforms.Purge()
	e.release()
	e.log.Debug("reveal: engine destroyed")
}

// Destroyed reports whether Destroy has run.
func (e *Engine) Destroyed() bool {
	return e.destroyed
}

func strip(el *Element) {
	for _, a := range engineAttrs {
		el.RemoveAttr(a)
	}
	el.SetTransition(nil)
	el.ClearStyle()
}

// prune forgets elements that left the document. It never writes to them.
func (e *Engine) prune(removed []*Element) {
	if e.destroyed {
		return
	}
	dequeued := false
	for _, el := range removed {
		if t, ok := e.registry[el]; ok {
			t.gen++
			e.stopAnimation(t)
			e.det.untrack(t)
			delete(e.registry, el)
		}
		if _, ok := e.queued[el]; ok {
			delete(e.queued, el)
			dequeued = true
		}
	}
	if dequeued {
		e.queue = slices.DeleteFunc(e.queue, func(t *target) bool { return e.queued[t.el] != t })
	}
}

// ordered returns the registered targets in registration order.
func (e *Engine) ordered() []*target {
	out := make([]*target, 0, len(e.registry))
	for _, t := range e.registry {
		out = append(out, t)
	}
	slices.SortFunc(out, func(a, b *target) int { return cmp.Compare(a.seq, b.seq) })
	return out
}

// Status returns the tracking status of el.
func (e *Engine) Status(el *Element) Status {
	if t, ok := e.registry[el]; ok {
		return t.status
	}
	if _, ok := e.queued[el]; ok {
		return StatusQueued
	}
	return StatusUnregistered
}

// State returns the animation state of a registered element.
func (e *Engine) State(el *Element) (State, bool) {
	if t, ok := e.registry[el]; ok {
		return t.state, true
	}
	return StateHidden, false
}

// TargetOptions returns the options in effect for el, including any
// performance degradation applied since registration.
func (e *Engine) TargetOptions(el *Element) (RevealOptions, bool) {
	if t, ok := e.registry[el]; ok {
		return t.opts, true
	}
	if t, ok := e.queued[el]; ok {
		return t.opts, true
	}
	return RevealOptions{}, false
}

// Performance returns the current performance options.
func (e *Engine) Performance() PerformanceOptions {
	return e.perf
}

// Stats is a snapshot of engine bookkeeping.
type Stats struct {
	Registered  int
	Queued      int
	Tracked     int // watched by the detector, including repeatable revealed targets
	Virtualized int
	Revealed    int

	Detector DetectorKind
	Tier     DeviceTier
	Score    int // -1 when the tier was configured explicitly
	Degraded bool
	Strict   bool    // strict virtualization in effect
	LastFPS  float64 // most recent sampling window

	LazySlices    int
	MaxSliceItems int
	MaxSliceTime  time.Duration

	Transforms CacheStats
	Selectors  int
	Offloaded  uint64 // transforms computed by workers
}

// Stats returns a snapshot of engine bookkeeping.
func (e *Engine) Stats() Stats {
	s := Stats{
		Registered:    len(e.registry),
		Queued:        len(e.queue),
		Tier:          e.perf.Device,
		Score:         e.score,
		Degraded:      e.gov.degraded,
		Strict:        e.strict,
		LastFPS:       e.gov.lastFPS,
		LazySlices:    e.slices.slices,
		MaxSliceItems: e.slices.maxItems,
		MaxSliceTime:  e.slices.maxTime,
		Transforms:    e.transforms.Stats(),
		Selectors:     e.selectors.len(),
	}
	if e.det != nil {
		s.Detector = e.det.kind()
	}
	if w, ok := e.compute.(*workerComputer); ok {
		s.Offloaded = w.computed
	}
	for _, t := range e.registry {
		if !e.destroyed && e.det.tracking(t) {
			s.Tracked++
		}
		switch t.status {
		case StatusVirtualized:
			s.Virtualized++
		case StatusRevealed:
			s.Revealed++
		}
	}
	return s
}
