package reveal

import (
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// styleFields is the number of animatable float64 fields in a Style.
const styleFields = 7

// TweenGroup animates every field of a Style simultaneously. Create one via
// TweenStyle and call Update(dt) each frame. If the owning element is
// disposed, the group stops immediately without writing.
type TweenGroup struct {
	tweens [styleFields]*gween.Tween
	fields [styleFields]*float64
	target *Element
	Done   bool
}

// TweenStyle creates a TweenGroup that moves *dst from `from` to `to` over
// duration seconds. owner may be nil for styles not attached to an element.
func TweenStyle(owner *Element, dst *Style, from, to Style, duration float32, fn ease.TweenFunc) *TweenGroup {
	*dst = from
	g := &TweenGroup{target: owner}
	begin := styleValues(from)
	end := styleValues(to)
	ptrs := styleFieldPtrs(dst)
	for i := range g.tweens {
		g.tweens[i] = gween.New(begin[i], end[i], duration, fn)
		g.fields[i] = ptrs[i]
	}
	return g
}

// Update advances all tweens by dt seconds and writes values to the target
// fields. If the owner has been disposed, Done is set and no writes occur.
func (g *TweenGroup) Update(dt float32) {
	if g.Done {
		return
	}
	if g.target != nil && g.target.IsDisposed() {
		g.Done = true
		return
	}

	allDone := true
	for i := range g.tweens {
		val, finished := g.tweens[i].Update(dt)
		*g.fields[i] = float64(val)
		if !finished {
			allDone = false
		}
	}
	g.Done = allDone
}

func styleValues(s Style) [styleFields]float32 {
	t := s.Transform
	return [styleFields]float32{
		float32(s.Opacity),
		float32(t.TranslateX), float32(t.TranslateY),
		float32(t.RotateX), float32(t.RotateY), float32(t.RotateZ),
		float32(t.Scale),
	}
}

func styleFieldPtrs(s *Style) [styleFields]*float64 {
	t := &s.Transform
	return [styleFields]*float64{
		&s.Opacity,
		&t.TranslateX, &t.TranslateY,
		&t.RotateX, &t.RotateY, &t.RotateZ,
		&t.Scale,
	}
}

// --- Declarative transitions ---

// Transition describes how SetStyle moves an element to a new inline style.
// OnEnd fires once the element shows the new style. A transition replaced
// by a later SetStyle, or cancelled by removal from the document, never
// fires OnEnd.
type Transition struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   ease.TweenFunc
	OnEnd    func()
}

type runningTransition struct {
	delay time.Duration
	group *TweenGroup
	onEnd func()
}

// SetTransition sets the transition applied by subsequent SetStyle calls.
// Pass nil to make style changes immediate.
func (e *Element) SetTransition(t *Transition) {
	e.transition = t
}

// SetStyle writes the inline style. With a transition set and the element
// attached to a document, the shown style moves there over time; otherwise
// it changes immediately.
func (e *Element) SetStyle(s Style) {
	e.style = s
	e.styleSet = true
	e.styleWrites++
	e.running = nil

	tr := e.transition
	doc := e.Document()
	if tr == nil || doc == nil || e.disposed || (tr.Duration <= 0 && tr.Delay <= 0) {
		e.computed = s
		return
	}
	fn := tr.Easing
	if fn == nil {
		fn = ease.Linear
	}
	from := e.computed
	r := &runningTransition{delay: tr.Delay, onEnd: tr.OnEnd}
	r.group = TweenStyle(e, &e.computed, from, s, float32(tr.Duration.Seconds()), fn)
	e.running = r
	doc.trackActive(e)
}

// ClearStyle removes the inline style. The element is shown as laid out.
func (e *Element) ClearStyle() {
	e.style = Style{}
	e.styleSet = false
	e.styleWrites++
	e.running = nil
	e.computed = NeutralStyle()
}

// Style returns the inline style and whether one is set.
func (e *Element) Style() (Style, bool) {
	return e.style, e.styleSet
}

// StyleWrites returns how many times the inline style has been written or
// cleared.
func (e *Element) StyleWrites() int {
	return e.styleWrites
}

// Computed returns the style currently shown, including running
// transitions and animations.
func (e *Element) Computed() Style {
	for i := len(e.animations) - 1; i >= 0; i-- {
		if a := e.animations[i]; !a.finished && !a.canceled {
			return a.value
		}
	}
	return e.computed
}

// Transitioning reports whether a transition is in flight.
func (e *Element) Transitioning() bool {
	return e.running != nil
}

// advanceTransition steps the running transition by dt and reports whether
// it is still running.
func (e *Element) advanceTransition(dt time.Duration) bool {
	r := e.running
	if r == nil {
		return false
	}
	if r.delay > 0 {
		r.delay -= dt
		if r.delay >= 0 {
			return true
		}
		dt = -r.delay
		r.delay = 0
	}
	r.group.Update(float32(dt.Seconds()))
	if !r.group.Done {
		return true
	}
	e.running = nil
	if !e.disposed {
		e.computed = e.style
	}
	if r.onEnd != nil {
		r.onEnd()
	}
	return false
}

// --- Timeline animations ---

// Keyframes are the start and end of a timeline animation.
type Keyframes struct {
	From, To Style
}

// Timing configures a timeline animation.
type Timing struct {
	Duration time.Duration
	Delay    time.Duration
	Easing   ease.TweenFunc
}

// Animation is a timeline animation created by Element.Animate. While it
// runs (including its delay) it overrides the element's shown style; once
// finished the element shows its inline style again.
//
// Animations keep running when their element leaves the document, so
// OnFinish may fire for a detached element.
type Animation struct {
	el       *Element
	delay    time.Duration
	value    Style
	group    *TweenGroup
	finished bool
	canceled bool

	// OnFinish fires once when the animation completes. It does not fire
	// after Cancel.
	OnFinish func()
}

// Animate starts a timeline animation on the element. On a detached element
// the returned animation is already finished and never fires OnFinish.
func (e *Element) Animate(kf Keyframes, timing Timing) *Animation {
	a := &Animation{el: e, delay: timing.Delay}
	doc := e.Document()
	if doc == nil || e.disposed {
		a.finished = true
		return a
	}
	fn := timing.Easing
	if fn == nil {
		fn = ease.Linear
	}
	a.group = TweenStyle(e, &a.value, kf.From, kf.To, float32(timing.Duration.Seconds()), fn)
	e.animations = append(e.animations, a)
	doc.animations = append(doc.animations, a)
	return a
}

// Cancel stops the animation without firing OnFinish.
func (a *Animation) Cancel() {
	if a.finished || a.canceled {
		return
	}
	a.canceled = true
	a.el.dropAnimation(a)
}

// Finished reports whether the animation ran to completion.
func (a *Animation) Finished() bool {
	return a.finished
}

// advance steps the animation and reports whether it is still running.
func (a *Animation) advance(dt time.Duration) bool {
	if a.canceled || a.finished {
		return false
	}
	if a.delay > 0 {
		a.delay -= dt
		if a.delay >= 0 {
			return true
		}
		dt = -a.delay
		a.delay = 0
	}
	a.group.Update(float32(dt.Seconds()))
	if !a.group.Done {
		return true
	}
	a.finished = true
	a.el.dropAnimation(a)
	if a.OnFinish != nil {
		a.OnFinish()
	}
	return false
}

func (e *Element) dropAnimation(a *Animation) {
	for i, x := range e.animations {
		if x == a {
			copy(e.animations[i:], e.animations[i+1:])
			e.animations[len(e.animations)-1] = nil
			e.animations = e.animations[:len(e.animations)-1]
			return
		}
	}
}

// --- Easing identifiers ---

// DefaultEasing is the easing identifier used when none is configured.
const DefaultEasing = "outCubic"

var easings = map[string]ease.TweenFunc{
	"linear":       ease.Linear,
	"inQuad":       ease.InQuad,
	"outQuad":      ease.OutQuad,
	"inOutQuad":    ease.InOutQuad,
	"inCubic":      ease.InCubic,
	"outCubic":     ease.OutCubic,
	"inOutCubic":   ease.InOutCubic,
	"inQuart":      ease.InQuart,
	"outQuart":     ease.OutQuart,
	"inOutQuart":   ease.InOutQuart,
	"inQuint":      ease.InQuint,
	"outQuint":     ease.OutQuint,
	"inOutQuint":   ease.InOutQuint,
	"inSine":       ease.InSine,
	"outSine":      ease.OutSine,
	"inOutSine":    ease.InOutSine,
	"inExpo":       ease.InExpo,
	"outExpo":      ease.OutExpo,
	"inOutExpo":    ease.InOutExpo,
	"inCirc":       ease.InCirc,
	"outCirc":      ease.OutCirc,
	"inOutCirc":    ease.InOutCirc,
	"inBack":       ease.InBack,
	"outBack":      ease.OutBack,
	"inOutBack":    ease.InOutBack,
	"inElastic":    ease.InElastic,
	"outElastic":   ease.OutElastic,
	"inOutElastic": ease.InOutElastic,
	"inBounce":     ease.InBounce,
	"outBounce":    ease.OutBounce,
	"inOutBounce":  ease.InOutBounce,
}

// EasingFunc returns the easing curve registered under name.
func EasingFunc(name string) (ease.TweenFunc, bool) {
	fn, ok := easings[name]
	return fn, ok
}
