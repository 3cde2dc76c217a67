package reveal

import (
	"math"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// scrollAnim holds active scroll-to tweens for the viewport X and Y.
type scrollAnim struct {
	tweenX *gween.Tween
	tweenY *gween.Tween
	doneX  bool
	doneY  bool
}

// Viewport is the visible window onto a document: a scroll position and a
// size, both in document pixels.
type Viewport struct {
	// ScrollX and ScrollY are the document coordinates of the top-left corner.
	ScrollX, ScrollY float64
	// Width and Height are the window size.
	Width, Height float64

	// BoundsEnabled clamps scrolling to Bounds.
	BoundsEnabled bool
	// Bounds is the scrollable document area used when BoundsEnabled is true.
	Bounds Rect

	scrolled    bool
	resized     bool
	scrollTween *scrollAnim
}

func newViewport(w, h float64) *Viewport {
	return &Viewport{Width: w, Height: h}
}

// Rect returns the visible area in document coordinates.
func (v *Viewport) Rect() Rect {
	return Rect{X: v.ScrollX, Y: v.ScrollY, Width: v.Width, Height: v.Height}
}

// ScrollTo jumps to the given scroll position. Listeners are notified on the
// next frame.
func (v *Viewport) ScrollTo(x, y float64) {
	v.scrollTween = nil
	v.setScroll(x, y)
}

// ScrollBy moves the scroll position by the given delta.
func (v *Viewport) ScrollBy(dx, dy float64) {
	v.ScrollTo(v.ScrollX+dx, v.ScrollY+dy)
}

// AnimateScroll scrolls to the given position over duration seconds.
func (v *Viewport) AnimateScroll(x, y float64, duration float32, easeFn ease.TweenFunc) {
	if easeFn == nil {
		easeFn = ease.InOutQuad
	}
	v.scrollTween = &scrollAnim{
		tweenX: gween.New(float32(v.ScrollX), float32(x), duration, easeFn),
		tweenY: gween.New(float32(v.ScrollY), float32(y), duration, easeFn),
	}
}

// Scrolling reports whether an animated scroll is in progress.
func (v *Viewport) Scrolling() bool {
	return v.scrollTween != nil
}

// Resize changes the window size. Listeners are notified on the next frame.
func (v *Viewport) Resize(w, h float64) {
	if w == v.Width && h == v.Height {
		return
	}
	v.Width, v.Height = w, h
	v.resized = true
	if v.BoundsEnabled {
		v.clampToBounds()
	}
}

// SetBounds enables scroll clamping.
func (v *Viewport) SetBounds(bounds Rect) {
	v.BoundsEnabled = true
	v.Bounds = bounds
	v.clampToBounds()
}

// ClearBounds disables scroll clamping.
func (v *Viewport) ClearBounds() {
	v.BoundsEnabled = false
}

func (v *Viewport) setScroll(x, y float64) {
	if x == v.ScrollX && y == v.ScrollY {
		return
	}
	v.ScrollX, v.ScrollY = x, y
	if v.BoundsEnabled {
		v.clampToBounds()
	}
	v.scrolled = true
}

// update advances an animated scroll. Called from Document.Step.
func (v *Viewport) update(dt float32) {
	if v.scrollTween == nil {
		return
	}
	x, y := v.ScrollX, v.ScrollY
	if !v.scrollTween.doneX {
		val, done := v.scrollTween.tweenX.Update(dt)
		x = float64(val)
		v.scrollTween.doneX = done
	}
	if !v.scrollTween.doneY {
		val, done := v.scrollTween.tweenY.Update(dt)
		y = float64(val)
		v.scrollTween.doneY = done
	}
	if v.scrollTween.doneX && v.scrollTween.doneY {
		v.scrollTween = nil
	}
	v.setScroll(x, y)
}

// clampToBounds restricts the scroll position so the visible area stays
// within Bounds.
func (v *Viewport) clampToBounds() {
	maxX := v.Bounds.X + v.Bounds.Width - v.Width
	maxY := v.Bounds.Y + v.Bounds.Height - v.Height

	if maxX < v.Bounds.X {
		v.ScrollX = v.Bounds.X
	} else {
		v.ScrollX = math.Max(v.Bounds.X, math.Min(v.ScrollX, maxX))
	}
	if maxY < v.Bounds.Y {
		v.ScrollY = v.Bounds.Y
	} else {
		v.ScrollY = math.Max(v.Bounds.Y, math.Min(v.ScrollY, maxY))
	}
}

// takeEvents returns and clears the pending scroll and resize flags.
func (v *Viewport) takeEvents() (scrolled, resized bool) {
	scrolled, resized = v.scrolled, v.resized
	v.scrolled, v.resized = false, false
	return
}

// --- Geometry shared by both visibility detector variants ---

// intersectionRatio returns the fraction of bounds visible inside root.
// Zero-area bounds count as fully visible when they touch root.
func intersectionRatio(bounds, root Rect) float64 {
	area := bounds.Width * bounds.Height
	if area <= 0 {
		if bounds.Intersects(root) {
			return 1
		}
		return 0
	}
	in := bounds.Intersection(root)
	return (in.Width * in.Height) / area
}

// isIntersecting reports whether a ratio satisfies a threshold. A zero
// threshold needs any visible area; otherwise the ratio must reach it.
func isIntersecting(ratio, threshold float64) bool {
	if threshold <= 0 {
		return ratio > 0
	}
	return ratio >= threshold
}
