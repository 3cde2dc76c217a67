package reveal

// Color represents an RGBA color with components in [0, 1]. Not premultiplied.
type Color struct {
	R, G, B, A float64
}

// ColorWhite is the default element color.
var ColorWhite = Color{1, 1, 1, 1}

// Vec2 is a 2D vector used for positions, offsets, and sizes.
type Vec2 struct {
	X, Y float64
}

// Rect is an axis-aligned rectangle. The coordinate system has its origin at
// the top-left, with Y increasing downward.
type Rect struct {
	X, Y, Width, Height float64
}

// Right returns the X coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the Y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Center returns the midpoint of the rectangle.
func (r Rect) Center() Vec2 {
	return Vec2{r.X + r.Width/2, r.Y + r.Height/2}
}

// Contains reports whether the point (x, y) lies inside the rectangle.
// Points on the edge are considered inside.
func (r Rect) Contains(x, y float64) bool {
	return x >= r.X && x <= r.X+r.Width &&
		y >= r.Y && y <= r.Y+r.Height
}

// Intersects reports whether r and other overlap.
// Adjacent rectangles (sharing only an edge) are considered intersecting.
func (r Rect) Intersects(other Rect) bool {
	return r.X <= other.X+other.Width &&
		r.X+r.Width >= other.X &&
		r.Y <= other.Y+other.Height &&
		r.Y+r.Height >= other.Y
}

// Intersection returns the overlapping area of r and other. The result has
// zero width or height when they do not overlap.
func (r Rect) Intersection(other Rect) Rect {
	x0 := max(r.X, other.X)
	y0 := max(r.Y, other.Y)
	x1 := min(r.Right(), other.Right())
	y1 := min(r.Bottom(), other.Bottom())
	if x1 < x0 || y1 < y0 {
		return Rect{X: x0, Y: y0}
	}
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Inset shrinks the rectangle by the given margins. Negative margins grow it.
func (r Rect) Inset(m Margins) Rect {
	return Rect{
		X:      r.X + m.Left,
		Y:      r.Y + m.Top,
		Width:  r.Width - m.Left - m.Right,
		Height: r.Height - m.Top - m.Bottom,
	}
}

// Margins holds per-edge distances in pixels.
type Margins struct {
	Top, Right, Bottom, Left float64
}

// Vec3 holds a rotation in degrees around the X, Y, and Z axes.
type Vec3 struct {
	X, Y, Z float64
}

// Scale returns v with every component multiplied by f.
func (v Vec3) Scale(f float64) Vec3 {
	return Vec3{v.X * f, v.Y * f, v.Z * f}
}

// Origin is the edge an element travels in from while revealing.
type Origin string

const (
	OriginTop    Origin = "top"
	OriginBottom Origin = "bottom"
	OriginLeft   Origin = "left"
	OriginRight  Origin = "right"
)

// valid reports whether o is one of the four known origins.
func (o Origin) valid() bool {
	switch o {
	case OriginTop, OriginBottom, OriginLeft, OriginRight:
		return true
	}
	return false
}

// horizontal reports whether the origin moves the element along the X axis.
func (o Origin) horizontal() bool {
	return o == OriginLeft || o == OriginRight
}

// AnimationStrategy selects how an element is moved to its end state.
type AnimationStrategy uint8

const (
	StrategyDefault    AnimationStrategy = iota // resolves to StrategyTransition
	StrategyTransition                          // timed style transition
	StrategyAnimation                           // timeline animation via Element.Animate
)

// String returns the lower-case name of the strategy.
func (s AnimationStrategy) String() string {
	switch s {
	case StrategyTransition:
		return "transition"
	case StrategyAnimation:
		return "animation"
	default:
		return "default"
	}
}

// UseDelay controls when the configured delay applies.
type UseDelay uint8

const (
	UseDelayDefault UseDelay = iota // resolves to UseDelayAlways
	UseDelayAlways                  // every reveal waits for the delay
	UseDelayOnce                    // only the first reveal waits
)

// DeviceTier is the coarse capability class of the host device.
type DeviceTier uint8

const (
	TierAuto   DeviceTier = iota // classify from DeviceInfo
	TierLow                      // constrained memory/cores or mobile
	TierMedium                   // mid-range
	TierHigh                     // desktop-class
)

// String returns the lower-case name of the tier.
func (t DeviceTier) String() string {
	switch t {
	case TierLow:
		return "low"
	case TierMedium:
		return "medium"
	case TierHigh:
		return "high"
	default:
		return "auto"
	}
}

// Status is the tracking lifecycle of a registered element.
type Status uint8

const (
	StatusUnregistered Status = iota // not known to the engine
	StatusQueued                     // waiting in the lazy-init queue
	StatusTracked                    // watched by the visibility detector
	StatusVirtualized                // tracking suspended, resumable
	StatusRevealed                   // reveal completed
	StatusResetting                  // transitioning back to hidden
)

// String returns the lower-case name of the status.
func (s Status) String() string {
	switch s {
	case StatusQueued:
		return "queued"
	case StatusTracked:
		return "tracked"
	case StatusVirtualized:
		return "virtualized"
	case StatusRevealed:
		return "revealed"
	case StatusResetting:
		return "resetting"
	default:
		return "unregistered"
	}
}

// State is the animation state of a registered element.
type State uint8

const (
	StateHidden    State = iota // pre-reveal style applied
	StateRevealing              // moving to the end state
	StateRevealed               // end state reached
	StateResetting              // moving back to the pre-reveal style
)

// String returns the lower-case name of the state.
func (s State) String() string {
	switch s {
	case StateRevealing:
		return "revealing"
	case StateRevealed:
		return "revealed"
	case StateResetting:
		return "resetting"
	default:
		return "hidden"
	}
}

// DetectorKind identifies the visibility detection strategy.
type DetectorKind uint8

const (
	DetectorPush DetectorKind = iota // host intersection observer
	DetectorPoll                     // throttled scroll/resize polling
)

// String returns the lower-case name of the detector kind.
func (k DetectorKind) String() string {
	if k == DetectorPush {
		return "push"
	}
	return "poll"
}

// Attributes written on registered elements. They are owned by the engine;
// only their presence is meaningful to outside code.
const (
	AttrID          = "data-reveal-id"
	AttrInitialized = "data-reveal-initialized"
	AttrComplete    = "data-reveal-complete"
	AttrObserved    = "data-reveal-observed"
	AttrVirtualized = "data-reveal-virtualized"
	AttrAnimating   = "data-reveal-animating"
)

var engineAttrs = [...]string{
	AttrID, AttrInitialized, AttrComplete, AttrObserved, AttrVirtualized, AttrAnimating,
}
