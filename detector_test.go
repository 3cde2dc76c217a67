package reveal

import (
	"fmt"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackedTarget(el *Element, o Options) *target {
	r := resolveOptions(Options{}, o, PerformanceOptions{})
	return newTarget(el, r, r, 0)
}

// reports collects detector output as "enter:name" and "exit:name".
type reports struct {
	got []string
}

func (r *reports) handler() visibilityHandler {
	return visibilityHandler{
		enter: func(t *target) { r.got = append(r.got, "enter:"+t.el.Name) },
		exit:  func(t *target) { r.got = append(r.got, "exit:"+t.el.Name) },
	}
}

func (r *reports) take() []string {
	out := r.got
	r.got = nil
	return out
}

func TestThrottle(t *testing.T) {
	doc := NewDocument(800, 600)
	runs := 0
	th := newThrottle(doc, func() time.Duration { return 100 * time.Millisecond }, func() { runs++ })

	th.schedule()
	assert.Equal(t, 1, runs, "first signal runs at once")

	th.schedule()
	th.schedule()
	doc.StepN(6, frameDT) // 96ms
	assert.Equal(t, 1, runs)
	doc.Step(frameDT) // 112ms
	assert.Equal(t, 2, runs, "signals inside the interval collapse into one trailing run")

	doc.StepN(20, frameDT)
	th.schedule()
	assert.Equal(t, 3, runs, "a quiet period resets the throttle")

	th.schedule()
	th.stop()
	doc.StepN(20, frameDT)
	assert.Equal(t, 3, runs)
	assert.Zero(t, doc.PendingTimers())
}

func TestThrottleReadsIntervalEachTime(t *testing.T) {
	doc := NewDocument(800, 600)
	interval := 100 * time.Millisecond
	runs := 0
	th := newThrottle(doc, func() time.Duration { return interval }, func() { runs++ })

	th.schedule()
	interval = 20 * time.Millisecond
	doc.StepN(2, frameDT) // 32ms
	th.schedule()
	assert.Equal(t, 2, runs)
}

func TestPushDetector(t *testing.T) {
	doc, els := newPage(6)
	var r reports
	d := newPushDetector(doc, r.handler())
	top := trackedTarget(els[0], Options{})
	low := trackedTarget(els[5], Options{})
	d.track(top)
	d.track(low)
	d.track(top)
	assert.True(t, d.tracking(top))
	assert.Len(t, d.observers, 1, "targets with equal threshold and margins share an observer")

	doc.Step(frameDT)
	assert.ElementsMatch(t, []string{"enter:card0", "exit:card5"}, r.take())
	assert.True(t, top.visible)

	doc.Step(frameDT)
	assert.Empty(t, r.take(), "only changes are reported after the first evaluation")

	doc.Window().ScrollTo(0, 800)
	doc.Step(frameDT)
	assert.ElementsMatch(t, []string{"exit:card0", "enter:card5"}, r.take())

	d.untrack(top)
	assert.False(t, d.tracking(top))
	doc.Window().ScrollTo(0, 0)
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card5"}, r.take())

	d.recheck()
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card5"}, r.take())

	d.close()
	assert.False(t, d.tracking(low))
	doc.Window().ScrollTo(0, 800)
	doc.Step(frameDT)
	assert.Empty(t, r.take())
}

func TestPushDetectorGroupsObservers(t *testing.T) {
	doc, els := newPage(3)
	d := newPushDetector(doc, visibilityHandler{enter: func(*target) {}, exit: func(*target) {}})
	d.track(trackedTarget(els[0], Options{}))
	d.track(trackedTarget(els[1], Options{ViewFactor: Float(0.5)}))
	d.track(trackedTarget(els[2], Options{ViewOffset: ViewOffset{Top: Float(10)}}))
	assert.Len(t, d.observers, 3)
	d.close()
	assert.Empty(t, d.observers)
}

func TestPushDetectorViewFactor(t *testing.T) {
	doc, els := newPage(4)
	var r reports
	d := newPushDetector(doc, r.handler())
	defer d.close()
	// card3 spans 600..700; scrolled to 40 the viewport ends at 640.
	d.track(trackedTarget(els[3], Options{ViewFactor: Float(0.5)}))
	doc.Window().ScrollTo(0, 40)
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card3"}, r.take())

	doc.Window().ScrollTo(0, 60)
	doc.Step(frameDT)
	assert.Equal(t, []string{"enter:card3"}, r.take())
}

func TestPollDetector(t *testing.T) {
	doc, els := newPage(6)
	var r reports
	ticks := 0
	d := newPollDetector(doc, r.handler(), func() time.Duration { return frameDT }, func() { ticks++ })
	top := trackedTarget(els[0], Options{})
	low := trackedTarget(els[5], Options{})
	d.track(top)
	d.track(low)
	d.track(top)
	assert.Len(t, d.targets, 2)

	doc.Step(frameDT)
	assert.Equal(t, []string{"enter:card0", "exit:card5"}, r.take())
	assert.Zero(t, ticks, "the first evaluation runs outside the throttle")

	doc.Step(frameDT)
	assert.Empty(t, r.take())

	doc.Window().ScrollTo(0, 800)
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card0", "enter:card5"}, r.take())
	assert.Equal(t, 1, ticks)
	assert.Equal(t, 1, d.ticks)

	d.recheck()
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card0", "enter:card5"}, r.take())

	d.untrack(top)
	doc.Window().ScrollTo(0, 0)
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card5"}, r.take())

	d.close()
	doc.Window().ScrollTo(0, 800)
	doc.StepN(3, frameDT)
	assert.Empty(t, r.take())
	assert.Zero(t, doc.PendingTimers())
}

func TestPollDetectorResizeAndLoad(t *testing.T) {
	doc, els := newPage(4)
	var r reports
	d := newPollDetector(doc, r.handler(), func() time.Duration { return frameDT }, nil)
	defer d.close()
	d.track(trackedTarget(els[3], Options{}))
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card3"}, r.take())

	doc.Window().Resize(800, 700)
	doc.Step(frameDT)
	assert.Equal(t, []string{"enter:card3"}, r.take())

	els[3].Offset.Y = 400
	doc.MarkLoaded()
	doc.Step(frameDT)
	assert.Equal(t, []string{"exit:card3"}, r.take())
}

func TestPollDetectorSkipsTargetsUntrackedMidPass(t *testing.T) {
	doc, els := newPage(2)
	var d *pollDetector
	var second *target
	var got []string
	d = newPollDetector(doc, visibilityHandler{
		enter: func(t *target) {
			got = append(got, t.el.Name)
			d.untrack(second)
		},
		exit: func(*target) {},
	}, func() time.Duration { return frameDT }, nil)
	defer d.close()

	d.track(trackedTarget(els[0], Options{}))
	second = trackedTarget(els[1], Options{})
	d.track(second)
	doc.Step(frameDT)
	assert.Equal(t, []string{"card0"}, got)
}

func TestTargetVisibleDetached(t *testing.T) {
	el := NewBox("loose", 0, 0, 10, 10)
	assert.False(t, targetVisible(trackedTarget(el, Options{}), Rect{Width: 800, Height: 600}))
}

// revealTrace scrolls a page of repeatable cards through fixed positions
// and records every reveal and reset, frame by frame.
func revealTrace(t *testing.T, caps Capabilities) []string {
	t.Helper()
	doc, _ := newPage(10)
	doc.SetCapabilities(caps)
	e := newTestEngine(t, doc, testOptions())

	frame := 0
	var trace []string
	rec := func(kind string) Callback {
		return func(el *Element) { trace = append(trace, fmt.Sprintf("%03d %s %s", frame, kind, el.Name)) }
	}
	require.Equal(t, 10, e.Reveal(".card", Options{
		Duration:     Dur(0),
		Reset:        Bool(true),
		ViewFactor:   Float(0.5),
		BeforeReveal: rec("reveal"),
		BeforeReset:  rec("reset"),
	}))

	for _, y := range []float64{0, 300, 900, 1500, 900, 200, 0} {
		doc.Window().ScrollTo(0, y)
		doc.Step(frameDT)
		frame++
	}
	slices.Sort(trace)
	return trace
}

func TestPushAndPollAgree(t *testing.T) {
	push := revealTrace(t, FullCapabilities)
	poll := revealTrace(t, Capabilities{Workers: true, AnimationTimeline: true})

	require.NotEmpty(t, push)
	assert.Equal(t, push, poll)
	assert.Contains(t, push, "000 reveal card0")
	assert.Contains(t, push, "001 reset card0")
}
