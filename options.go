package reveal

import (
	"reflect"
	"time"

	"github.com/imdario/mergo"
	"github.com/pkg/errors"
)

// Callback is invoked with the element a lifecycle event concerns. A panic
// inside a callback is recovered and logged; it never interrupts the engine.
type Callback func(el *Element)

// Rotation is the partial form of a Vec3 rotation in degrees.
type Rotation struct {
	X *float64 `yaml:"x"`
	Y *float64 `yaml:"y"`
	Z *float64 `yaml:"z"`
}

// ViewOffset is the partial form of Margins. Positive values shrink the
// area an element must enter before it counts as visible.
type ViewOffset struct {
	Top    *float64 `yaml:"top"`
	Right  *float64 `yaml:"right"`
	Bottom *float64 `yaml:"bottom"`
	Left   *float64 `yaml:"left"`
}

// PerformanceConfig is the partial form of PerformanceOptions.
type PerformanceConfig struct {
	UseIntersectionObserver *bool          `yaml:"useIntersectionObserver"`
	UseWorker               *bool          `yaml:"useWorker"`
	LazyInitThreshold       *int           `yaml:"lazyInitThreshold"`
	Virtualize              *bool          `yaml:"virtualize"`
	ThrottleInterval        *time.Duration `yaml:"throttleInterval"`
	InactivityTimeout       *time.Duration `yaml:"inactivityTimeout"`
	MaxActive               *int           `yaml:"maxActive"`
	Device                  DeviceTier     `yaml:"device"`
	AdaptiveTiming          *bool          `yaml:"adaptiveTiming"`
	BatchSize               *int           `yaml:"batchSize"`
	BatchBudget             *time.Duration `yaml:"batchBudget"`
	VirtualMargin           *float64       `yaml:"virtualMargin"`
	CacheCeiling            *int           `yaml:"cacheCeiling"`
}

// Options is a partial option set. Nil pointers, empty strings, and zero
// enum values mean "not set" and fall through to the base configuration.
// Use the Float, Dur, Int, and Bool helpers to set explicit values,
// including zero.
type Options struct {
	Delay              *time.Duration    `yaml:"delay"`
	Distance           *float64          `yaml:"distance"`
	Duration           *time.Duration    `yaml:"duration"`
	Easing             string            `yaml:"easing"`
	Interval           *time.Duration    `yaml:"interval"`
	Opacity            *float64          `yaml:"opacity"`
	Origin             Origin            `yaml:"origin"`
	Rotate             Rotation          `yaml:"rotate"`
	Scale              *float64          `yaml:"scale"`
	Cleanup            *bool             `yaml:"cleanup"`
	Reset              *bool             `yaml:"reset"`
	ViewFactor         *float64          `yaml:"viewFactor"`
	ViewOffset         ViewOffset        `yaml:"viewOffset"`
	Strategy           AnimationStrategy `yaml:"strategy"`
	RespectPositioning *bool             `yaml:"respectPositioning"`
	Force              *bool             `yaml:"force"`
	Mobile             *bool             `yaml:"mobile"`
	Desktop            *bool             `yaml:"desktop"`
	UseDelay           UseDelay          `yaml:"useDelay"`

	BeforeReveal Callback `yaml:"-"`
	AfterReveal  Callback `yaml:"-"`
	BeforeReset  Callback `yaml:"-"`
	AfterReset   Callback `yaml:"-"`

	Performance PerformanceConfig `yaml:"performance"`
}

// Float returns a pointer to v.
func Float(v float64) *float64 { return &v }

// Dur returns a pointer to v.
func Dur(v time.Duration) *time.Duration { return &v }

// Int returns a pointer to v.
func Int(v int) *int { return &v }

// Bool returns a pointer to v.
func Bool(v bool) *bool { return &v }

// RevealOptions is a fully resolved, immutable option set.
type RevealOptions struct {
	Delay              time.Duration
	Distance           float64
	Duration           time.Duration
	Easing             string
	Interval           time.Duration
	Opacity            float64
	Origin             Origin
	Rotate             Vec3
	Scale              float64
	Cleanup            bool
	Reset              bool
	ViewFactor         float64
	ViewOffset         Margins
	Strategy           AnimationStrategy
	RespectPositioning bool
	Force              bool
	Mobile             bool
	Desktop            bool
	UseDelay           UseDelay

	BeforeReveal Callback
	AfterReveal  Callback
	BeforeReset  Callback
	AfterReset   Callback
}

// transformSpec returns the canonical transform input for these options.
func (o RevealOptions) transformSpec() TransformSpec {
	return TransformSpec{
		Distance:           o.Distance,
		Origin:             o.Origin,
		Rotate:             o.Rotate,
		Scale:              o.Scale,
		RespectPositioning: o.RespectPositioning,
	}
}

// equal reports whether two option sets are identical, comparing callbacks
// by function identity.
func (o RevealOptions) equal(other RevealOptions) bool {
	a, b := o, other
	cbA := [4]Callback{a.BeforeReveal, a.AfterReveal, a.BeforeReset, a.AfterReset}
	cbB := [4]Callback{b.BeforeReveal, b.AfterReveal, b.BeforeReset, b.AfterReset}
	for i := range cbA {
		if funcPtr(cbA[i]) != funcPtr(cbB[i]) {
			return false
		}
	}
	a.BeforeReveal, a.AfterReveal, a.BeforeReset, a.AfterReset = nil, nil, nil, nil
	b.BeforeReveal, b.AfterReveal, b.BeforeReset, b.AfterReset = nil, nil, nil, nil
	return reflect.DeepEqual(a, b)
}

func funcPtr(cb Callback) uintptr {
	if cb == nil {
		return 0
	}
	return reflect.ValueOf(cb).Pointer()
}

// PerformanceOptions holds the detection and adaptation knobs. It is the one
// piece of mutable configuration: the device profiler, the performance
// governor, and strict virtualization adjust it at runtime, and every
// adjustment only lowers animation cost.
type PerformanceOptions struct {
	UseIntersectionObserver bool
	UseWorker               bool
	LazyInitThreshold       int
	Virtualize              bool
	ThrottleInterval        time.Duration
	InactivityTimeout       time.Duration
	MaxActive               int
	Device                  DeviceTier
	AdaptiveTiming          bool

	BatchSize     int           // lazy-init items per slice
	BatchBudget   time.Duration // lazy-init wall-clock per slice
	VirtualMargin float64       // virtualization distance in viewport heights
	CacheCeiling  int           // cache entries kept by housekeeping

	MaxDistance    float64 // cap on travel distance; 0 means none
	DurationFactor float64 // multiplier applied to resolved durations
	StaggerFactor  float64 // multiplier applied to resolved intervals
	MotionFactor   float64 // multiplier applied to travel distance and rotation
}

// Adjustment is a cost-lowering change to PerformanceOptions. Factors below
// 1 on durations and above 1 on intervals are the only direction applied;
// anything else is clamped to a no-op.
type Adjustment struct {
	ThrottleFactor float64 // >= 1 widens the polling interval
	StaggerFactor  float64 // >= 1 widens the stagger interval
	DurationFactor float64 // <= 1 shortens durations
	MotionFactor   float64 // <= 1 shrinks distance and rotation
	MaxDistance    float64 // > 0 caps travel distance
	MaxActive      int     // > 0 lowers the active ceiling
	MinThrottle    time.Duration
	DisableWorker  bool
	Virtualize     bool
}

// adjust applies a one-directional adjustment.
func (p *PerformanceOptions) adjust(a Adjustment) {
	if a.ThrottleFactor > 1 {
		p.ThrottleInterval = time.Duration(float64(p.ThrottleInterval) * a.ThrottleFactor)
	}
	if a.MinThrottle > p.ThrottleInterval {
		p.ThrottleInterval = a.MinThrottle
	}
	if a.StaggerFactor > 1 {
		p.StaggerFactor *= a.StaggerFactor
	}
	if a.DurationFactor > 0 && a.DurationFactor < 1 {
		p.DurationFactor *= a.DurationFactor
	}
	if a.MotionFactor > 0 && a.MotionFactor < 1 {
		p.MotionFactor *= a.MotionFactor
	}
	if a.MaxDistance > 0 && (p.MaxDistance == 0 || a.MaxDistance < p.MaxDistance) {
		p.MaxDistance = a.MaxDistance
	}
	if a.MaxActive > 0 && a.MaxActive < p.MaxActive {
		p.MaxActive = a.MaxActive
	}
	if a.DisableWorker {
		p.UseWorker = false
	}
	if a.Virtualize {
		p.Virtualize = true
	}
}

// DefaultOptions returns the base configuration every resolution starts
// from.
func DefaultOptions() Options {
	return Options{
		Delay:              Dur(0),
		Distance:           Float(0),
		Duration:           Dur(600 * time.Millisecond),
		Easing:             DefaultEasing,
		Interval:           Dur(0),
		Opacity:            Float(0),
		Origin:             OriginBottom,
		Rotate:             Rotation{X: Float(0), Y: Float(0), Z: Float(0)},
		Scale:              Float(1),
		Cleanup:            Bool(false),
		Reset:              Bool(false),
		ViewFactor:         Float(0),
		ViewOffset:         ViewOffset{Top: Float(0), Right: Float(0), Bottom: Float(0), Left: Float(0)},
		Strategy:           StrategyTransition,
		RespectPositioning: Bool(false),
		Force:              Bool(false),
		Mobile:             Bool(true),
		Desktop:            Bool(true),
		UseDelay:           UseDelayAlways,
		Performance: PerformanceConfig{
			UseIntersectionObserver: Bool(true),
			UseWorker:               Bool(true),
			LazyInitThreshold:       Int(50),
			Virtualize:              Bool(false),
			ThrottleInterval:        Dur(16 * time.Millisecond),
			InactivityTimeout:       Dur(5 * time.Second),
			MaxActive:               Int(100),
			AdaptiveTiming:          Bool(true),
			BatchSize:               Int(25),
			BatchBudget:             Dur(8 * time.Millisecond),
			VirtualMargin:           Float(2),
			CacheCeiling:            Int(256),
		},
	}
}

// pointerOverride makes mergo replace pointer fields wholesale instead of
// writing through them, so merged results never alias the base's values
// and an explicit zero override wins.
type pointerOverride struct{}

func (pointerOverride) Transformer(t reflect.Type) func(dst, src reflect.Value) error {
	if t.Kind() != reflect.Ptr || t.Elem().Kind() == reflect.Struct {
		return nil
	}
	return func(dst, src reflect.Value) error {
		if !src.IsNil() && dst.CanSet() {
			dst.Set(src)
		}
		return nil
	}
}

// mergeOptions deep-merges overrides on top of base. Nested groups merge
// field by field. On a merge failure the base is returned with the error.
func mergeOptions(base, overrides Options) (Options, error) {
	merged := base
	clonePointers(reflect.ValueOf(&merged).Elem())
	if err := mergo.Merge(&merged, overrides, mergo.WithOverride, mergo.WithTransformers(pointerOverride{})); err != nil {
		return base, errors.Wrap(err, "merge options")
	}
	return merged, nil
}

// merge is mergeOptions for the pure resolvers. A failure keeps the base;
// the engine reports it where it merges caller options.
func merge(base, overrides Options) Options {
	m, _ := mergeOptions(base, overrides)
	return m
}

// resolveOptions merges overrides on base and fills every unset field from
// DefaultOptions. Device caps and factors from perf are applied last. It has
// no side effects.
func resolveOptions(base, overrides Options, perf PerformanceOptions) RevealOptions {
	m := merge(merge(DefaultOptions(), base), overrides)
	d := DefaultOptions()

	r := RevealOptions{
		Delay:              durOr(m.Delay, *d.Delay),
		Distance:           floatOr(m.Distance, *d.Distance),
		Duration:           durOr(m.Duration, *d.Duration),
		Easing:             m.Easing,
		Interval:           durOr(m.Interval, *d.Interval),
		Opacity:            clamp01(floatOr(m.Opacity, *d.Opacity)),
		Origin:             m.Origin,
		Rotate:             Vec3{X: floatOr(m.Rotate.X, 0), Y: floatOr(m.Rotate.Y, 0), Z: floatOr(m.Rotate.Z, 0)},
		Scale:              floatOr(m.Scale, *d.Scale),
		Cleanup:            boolOr(m.Cleanup, false),
		Reset:              boolOr(m.Reset, false),
		ViewFactor:         clamp01(floatOr(m.ViewFactor, *d.ViewFactor)),
		ViewOffset:         Margins{Top: floatOr(m.ViewOffset.Top, 0), Right: floatOr(m.ViewOffset.Right, 0), Bottom: floatOr(m.ViewOffset.Bottom, 0), Left: floatOr(m.ViewOffset.Left, 0)},
		Strategy:           m.Strategy,
		RespectPositioning: boolOr(m.RespectPositioning, false),
		Force:              boolOr(m.Force, false),
		Mobile:             boolOr(m.Mobile, true),
		Desktop:            boolOr(m.Desktop, true),
		UseDelay:           m.UseDelay,
		BeforeReveal:       m.BeforeReveal,
		AfterReveal:        m.AfterReveal,
		BeforeReset:        m.BeforeReset,
		AfterReset:         m.AfterReset,
	}
	if _, ok := EasingFunc(r.Easing); !ok {
		r.Easing = DefaultEasing
	}
	if !r.Origin.valid() {
		r.Origin = OriginBottom
	}
	if r.Strategy == StrategyDefault || r.Strategy > StrategyAnimation {
		r.Strategy = StrategyTransition
	}
	if r.UseDelay == UseDelayDefault || r.UseDelay > UseDelayOnce {
		r.UseDelay = UseDelayAlways
	}
	if r.Delay < 0 {
		r.Delay = 0
	}
	if r.Duration < 0 {
		r.Duration = 0
	}
	if r.Interval < 0 {
		r.Interval = 0
	}

	if perf.MotionFactor > 0 {
		r.Distance *= perf.MotionFactor
		r.Rotate = r.Rotate.Scale(perf.MotionFactor)
	}
	if perf.MaxDistance > 0 && r.Distance > perf.MaxDistance {
		r.Distance = perf.MaxDistance
	}
	if perf.DurationFactor > 0 {
		r.Duration = time.Duration(float64(r.Duration) * perf.DurationFactor)
	}
	if perf.StaggerFactor > 0 {
		r.Interval = time.Duration(float64(r.Interval) * perf.StaggerFactor)
	}
	return r
}

// resolvePerformance merges performance overrides on base and fills unset
// fields from DefaultOptions.
func resolvePerformance(base, overrides PerformanceConfig) PerformanceOptions {
	wrapped := merge(Options{Performance: base}, Options{Performance: overrides})
	m := merge(DefaultOptions(), wrapped).Performance
	d := DefaultOptions().Performance

	p := PerformanceOptions{
		UseIntersectionObserver: boolOr(m.UseIntersectionObserver, true),
		UseWorker:               boolOr(m.UseWorker, true),
		LazyInitThreshold:       intOr(m.LazyInitThreshold, *d.LazyInitThreshold),
		Virtualize:              boolOr(m.Virtualize, false),
		ThrottleInterval:        durOr(m.ThrottleInterval, *d.ThrottleInterval),
		InactivityTimeout:       durOr(m.InactivityTimeout, *d.InactivityTimeout),
		MaxActive:               intOr(m.MaxActive, *d.MaxActive),
		Device:                  m.Device,
		AdaptiveTiming:          boolOr(m.AdaptiveTiming, true),
		BatchSize:               intOr(m.BatchSize, *d.BatchSize),
		BatchBudget:             durOr(m.BatchBudget, *d.BatchBudget),
		VirtualMargin:           floatOr(m.VirtualMargin, *d.VirtualMargin),
		CacheCeiling:            intOr(m.CacheCeiling, *d.CacheCeiling),
		DurationFactor:          1,
		StaggerFactor:           1,
		MotionFactor:            1,
	}
	if p.BatchSize < 1 {
		p.BatchSize = 1
	}
	if p.LazyInitThreshold < 0 {
		p.LazyInitThreshold = 0
	}
	if p.MaxActive < 1 {
		p.MaxActive = 1
	}
	if p.CacheCeiling < 1 {
		p.CacheCeiling = 1
	}
	if p.VirtualMargin <= 0 {
		p.VirtualMargin = *d.VirtualMargin
	}
	if p.Device > TierHigh {
		p.Device = TierAuto
	}
	return p
}

// clonePointers replaces every scalar pointer reachable through struct
// fields of v with a fresh copy.
func clonePointers(v reflect.Value) {
	switch v.Kind() {
	case reflect.Struct:
		for i := 0; i < v.NumField(); i++ {
			if f := v.Field(i); f.CanSet() {
				clonePointers(f)
			}
		}
	case reflect.Ptr:
		if !v.IsNil() && v.Elem().Kind() != reflect.Struct {
			c := reflect.New(v.Elem().Type())
			c.Elem().Set(v.Elem())
			v.Set(c)
		}
	}
}

func floatOr(p *float64, def float64) float64 {
	if p == nil {
		return def
	}
	return *p
}

func durOr(p *time.Duration, def time.Duration) time.Duration {
	if p == nil {
		return def
	}
	return *p
}

func intOr(p *int, def int) int {
	if p == nil {
		return def
	}
	return *p
}

func boolOr(p *bool, def bool) bool {
	if p == nil {
		return def
	}
	return *p
}

func clamp01(v float64) float64 {
	return max(0, min(1, v))
}
