package reveal

import "time"

// DeviceInfo carries the hardware hints a host can offer. Zero values mean
// unknown.
type DeviceInfo struct {
	MemoryGB float64 // approximate device memory
	Cores    int     // logical processors
	Mobile   bool    // handheld form factor
}

// Score bounds for ClassifyDevice.
const (
	MinDeviceScore = 0
	MaxDeviceScore = 10

	lowTierBelow    = 4
	mediumTierBelow = 7
)

// ClassifyDevice buckets the host into a capability tier. Memory and cores
// contribute 0-4 points each (unknown scores the midpoint, 2) and a desktop
// form factor adds 2, for a score in [MinDeviceScore, MaxDeviceScore].
func ClassifyDevice(info DeviceInfo) (DeviceTier, int) {
	score := memoryPoints(info.MemoryGB) + corePoints(info.Cores)
	if !info.Mobile {
		score += 2
	}
	switch {
	case score < lowTierBelow:
		return TierLow, score
	case score < mediumTierBelow:
		return TierMedium, score
	default:
		return TierHigh, score
	}
}

func memoryPoints(gb float64) int {
	switch {
	case gb <= 0:
		return 2
	case gb <= 1:
		return 0
	case gb <= 2:
		return 1
	case gb <= 4:
		return 2
	case gb <= 8:
		return 3
	default:
		return 4
	}
}

func corePoints(n int) int {
	switch {
	case n <= 0:
		return 2
	case n <= 2:
		return 0
	case n <= 4:
		return 1
	case n <= 6:
		return 2
	case n <= 8:
		return 3
	default:
		return 4
	}
}

// deviceAdjustment returns the adaptive defaults for a tier.
func deviceAdjustment(tier DeviceTier) Adjustment {
	switch tier {
	case TierLow:
		return Adjustment{
			MaxDistance:    20,
			DurationFactor: 0.6,
			StaggerFactor:  1.5,
			DisableWorker:  true,
			MaxActive:      20,
			MinThrottle:    100 * time.Millisecond,
		}
	case TierMedium:
		return Adjustment{
			DurationFactor: 0.85,
			MaxActive:      50,
		}
	default:
		return Adjustment{}
	}
}

// applyDeviceProfile classifies the device when the tier is TierAuto and
// writes the tier's adaptive defaults into perf. It runs once per engine.
func applyDeviceProfile(perf *PerformanceOptions, info DeviceInfo) (score int) {
	score = -1
	if perf.Device == TierAuto {
		perf.Device, score = ClassifyDevice(info)
	}
	perf.adjust(deviceAdjustment(perf.Device))
	return score
}
