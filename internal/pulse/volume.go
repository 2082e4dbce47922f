package pulse

import "math"

// VolumeNorm is the sound server's raw volume value for unity gain
// (PA_VOLUME_NORM). Configuration volumes are linear multipliers where 1.0
// is unity; the conversion to raw units happens exactly once, here, when
// module arguments are formatted.
const VolumeNorm = 65536

// RawVolume converts a linear volume multiplier to the raw integer unit the
// sound server expects in module arguments. Negative multipliers clamp to
// silence.
func RawVolume(multiplier float64) uint32 {
	if multiplier <= 0 {
		return 0
	}
	return uint32(math.Round(multiplier * VolumeNorm))
}
