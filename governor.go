package reveal

import (
	"time"

	"github.com/sirupsen/logrus"
)

const (
	fpsWindow        = time.Second
	lowFPS           = 30.0
	lowWindowsNeeded = 3
	degradeFactor    = 0.7
)

// degradeAdjustment is applied to the performance options when the frame
// rate stays low.
var degradeAdjustment = Adjustment{
	ThrottleFactor: 2,
	StaggerFactor:  1.5,
	DurationFactor: degradeFactor,
	MotionFactor:   degradeFactor,
	Virtualize:     true,
}

// governor counts frames in fixed windows of host time.
type governor struct {
	started     bool
	windowStart time.Duration
	frames      int
	windows     int
	lowWindows  int
	lastFPS     float64
	degraded    bool
}

// sample records a frame at now and returns the frame rate when a window
// closes.
func (g *governor) sample(now time.Duration) (float64, bool) {
	if !g.started {
		g.started = true
		g.windowStart = now
		return 0, false
	}
	g.frames++
	elapsed := now - g.windowStart
	if elapsed < fpsWindow {
		return 0, false
	}
	fps := float64(g.frames) / elapsed.Seconds()
	g.frames = 0
	g.windowStart = now
	g.windows++
	g.lastFPS = fps
	return fps, true
}

// observe feeds a window's frame rate and reports whether degradation is due.
func (g *governor) observe(fps float64) bool {
	if fps < lowFPS {
		g.lowWindows++
	} else {
		g.lowWindows = 0
	}
	return !g.degraded && g.lowWindows >= lowWindowsNeeded
}

// sampling reports whether the frame loop has work.
func (e *Engine) sampling() bool {
	return e.perf.AdaptiveTiming && !e.gov.degraded
}

func (e *Engine) ensureLoop() {
	if e.loopFrame != 0 || e.destroyed {
		return
	}
	if !e.sampling() && e.compute.pending() == 0 {
		return
	}
	e.loopFrame = e.host.RequestFrame(e.frame)
}

// frame runs once per host frame while sampling or offloaded work is
// outstanding.
func (e *Engine) frame(now time.Duration) {
	e.loopFrame = 0
	if e.destroyed {
		return
	}
	e.compute.drain()
	if e.sampling() {
		if fps, ok := e.gov.sample(now); ok {
			e.log.WithField("fps", fps).Debug("reveal: frame rate window")
			if e.gov.observe(fps) {
				e.degrade()
			}
		}
	}
	e.ensureLoop()
}

// degrade shrinks animation cost once per engine. Every target that has
// not revealed yet gets duration, distance, and rotation scaled on its own
// copy of the options; later registrations pick the reduction up from the
// performance options.
func (e *Engine) degrade() {
	if e.gov.degraded {
		return
	}
	e.gov.degraded = true
	e.perf.adjust(degradeAdjustment)
	n := 0
	for _, t := range e.ordered() {
		if e.degradeTarget(t) {
			n++
			if t.state == StateHidden && t.el.Connected() {
				t.el.SetTransition(nil)
				t.el.SetStyle(e.hiddenStyle(t))
			}
		}
	}
	for _, t := range e.queue {
		if e.degradeTarget(t) {
			n++
		}
	}
	e.log.WithFields(logrus.Fields{
		"targets":  n,
		"throttle": e.perf.ThrottleInterval,
	}).Info("reveal: sustained low frame rate, reducing animation cost")
	e.virtualize()
}

func (e *Engine) degradeTarget(t *target) bool {
	if t.degraded || t.state == StateRevealed {
		return false
	}
	t.degraded = true
	t.opts.Duration = time.Duration(float64(t.opts.Duration) * degradeFactor)
	t.opts.Distance *= degradeFactor
	t.opts.Rotate = t.opts.Rotate.Scale(degradeFactor)
	return true
}

// --- inactivity ---

func (e *Engine) onScroll() {
	if e.destroyed {
		return
	}
	e.armInactivity()
	if e.det.kind() == DetectorPush {
		e.virtThrottle.schedule()
	}
}

// armInactivity restarts the idle timer that triggers housekeeping.
func (e *Engine) armInactivity() {
	if e.inactivity != 0 {
		e.host.CancelTimer(e.inactivity)
		e.inactivity = 0
	}
	if e.perf.InactivityTimeout <= 0 {
		return
	}
	e.inactivity = e.host.AfterFunc(e.perf.InactivityTimeout, func() {
		e.inactivity = 0
		e.housekeep()
	})
}

// housekeep trims caches to the configured ceiling and virtualizes.
func (e *Engine) housekeep() {
	if e.destroyed {
		return
	}
	ceiling := e.perf.CacheCeiling
	tn := e.transforms.Trim(ceiling)
	sn := e.selectors.trim(ceiling)
	e.log.WithFields(logrus.Fields{
		"transforms": tn,
		"selectors":  sn,
	}).Debug("reveal: idle housekeeping")
	e.virtualize()
}
