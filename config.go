package reveal

import (
	"fmt"
	"os"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// LoadOptions reads an option file. Durations are written as Go duration
// strings ("600ms"), enums by name:
//
//	duration: 800ms
//	distance: 40
//	origin: left
//	strategy: animation
//	rotate: {z: 10}
//	performance:
//	  device: low
//	  throttleInterval: 50ms
func LoadOptions(path string) (Options, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Options{}, errors.Wrapf(err, "read options file %s", path)
	}
	opts, err := ParseOptions(data)
	if err != nil {
		return Options{}, errors.Wrapf(err, "load options file %s", path)
	}
	return opts, nil
}

// ParseOptions decodes and validates YAML options. Every invalid field is
// reported, not just the first.
func ParseOptions(data []byte) (Options, error) {
	var opts Options
	if err := yaml.Unmarshal(data, &opts); err != nil {
		return Options{}, errors.Wrap(err, "decode options")
	}
	if err := opts.Validate(); err != nil {
		return Options{}, err
	}
	return opts, nil
}

// Validate reports fields whose values would be replaced by defaults during
// resolution. Resolution itself never fails; Validate exists for option
// files, where a typo should be surfaced.
func (o Options) Validate() error {
	var result *multierror.Error
	if o.Easing != "" {
		if _, ok := EasingFunc(o.Easing); !ok {
			result = multierror.Append(result, fmt.Errorf("easing: unknown curve %q", o.Easing))
		}
	}
	if o.Origin != "" && !o.Origin.valid() {
		result = multierror.Append(result, fmt.Errorf("origin: unknown edge %q", o.Origin))
	}
	if o.Opacity != nil && (*o.Opacity < 0 || *o.Opacity > 1) {
		result = multierror.Append(result, fmt.Errorf("opacity: %v outside [0, 1]", *o.Opacity))
	}
	if o.ViewFactor != nil && (*o.ViewFactor < 0 || *o.ViewFactor > 1) {
		result = multierror.Append(result, fmt.Errorf("viewFactor: %v outside [0, 1]", *o.ViewFactor))
	}
	for _, f := range []struct {
		name string
		d    *time.Duration
	}{{"delay", o.Delay}, {"duration", o.Duration}, {"interval", o.Interval}} {
		if f.d != nil && *f.d < 0 {
			result = multierror.Append(result, fmt.Errorf("%s: negative duration", f.name))
		}
	}
	p := o.Performance
	if p.BatchSize != nil && *p.BatchSize < 1 {
		result = multierror.Append(result, fmt.Errorf("performance.batchSize: %d < 1", *p.BatchSize))
	}
	if p.MaxActive != nil && *p.MaxActive < 1 {
		result = multierror.Append(result, fmt.Errorf("performance.maxActive: %d < 1", *p.MaxActive))
	}
	if p.VirtualMargin != nil && *p.VirtualMargin <= 0 {
		result = multierror.Append(result, fmt.Errorf("performance.virtualMargin: %v <= 0", *p.VirtualMargin))
	}
	return result.ErrorOrNil()
}

// UnmarshalYAML decodes a strategy by name.
func (s *AnimationStrategy) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "", "default":
		*s = StrategyDefault
	case "transition":
		*s = StrategyTransition
	case "animation":
		*s = StrategyAnimation
	default:
		return fmt.Errorf("strategy: unknown value %q", value.Value)
	}
	return nil
}

// UnmarshalYAML decodes a use-delay mode by name.
func (u *UseDelay) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "", "default":
		*u = UseDelayDefault
	case "always":
		*u = UseDelayAlways
	case "once":
		*u = UseDelayOnce
	default:
		return fmt.Errorf("useDelay: unknown value %q", value.Value)
	}
	return nil
}

// UnmarshalYAML decodes a device tier by name.
func (t *DeviceTier) UnmarshalYAML(value *yaml.Node) error {
	switch value.Value {
	case "", "auto":
		*t = TierAuto
	case "low":
		*t = TierLow
	case "medium":
		*t = TierMedium
	case "high":
		*t = TierHigh
	default:
		return fmt.Errorf("device: unknown tier %q", value.Value)
	}
	return nil
}
