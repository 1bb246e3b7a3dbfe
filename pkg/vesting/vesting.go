package vesting

// VestingFraction is the share of a stream unlocked at now, linear between start and
// start+duration. A zero start (not accepted) yields 0. An accepted stream with a
// non-positive duration is fully vested. Clock skew (now before start) clamps to 0.
func VestingFraction(now, start, duration int64) float64 {
	if start <= 0 {
		return 0
	}
	if duration <= 0 {
		return 1
	}
	elapsed := now - start
	if elapsed <= 0 {
		return 0
	}
	if elapsed >= duration {
		return 1
	}
	return float64(elapsed) / float64(duration)
}

// ClaimableAmount is total scaled by the vesting fraction. A fully vested stream returns
// total itself so equality checks against the total hold exactly.
func ClaimableAmount(total float64, now, start, duration int64) float64 {
	f := VestingFraction(now, start, duration)
	if f >= 1 {
		return total
	}
	if f <= 0 || total <= 0 {
		return 0
	}
	return total * f
}

// RatePerSecond is the linear vesting rate of a stream in display units per second.
func RatePerSecond(total float64, duration int64) float64 {
	if duration <= 0 {
		return 0
	}
	return total / float64(duration)
}
