package services

import "github.com/manthysbr/briefing/internal/core/domain"

// LengthPlanner computes the output token window of a generation call from
// the length of its input.
type LengthPlanner struct {
	// AbsoluteFloor is the smallest lower bound ever returned.
	AbsoluteFloor int
	// RetentionFloor is the fraction of the nominal target tolerated as the
	// lower bound in the standard case.
	RetentionFloor float64
	// RuntMargin is added above the nominal target for inputs too small to
	// support MinSafe.
	RuntMargin int
	// GuardMargin is the width forced on a collapsed interval.
	GuardMargin int
}

// DefaultLengthPlanner is tuned for t5-base class engines.
var DefaultLengthPlanner = LengthPlanner{
	AbsoluteFloor:  10,
	RetentionFloor: 0.60,
	RuntMargin:     20,
	GuardMargin:    10,
}

// Plan returns a bound with 0 < Min < Max for any input length.
// Outside the runt case Max never exceeds maxSafe as long as maxSafe is above
// AbsoluteFloor.
func (p LengthPlanner) Plan(inputLen int, ratio float64, minSafe, maxSafe int) domain.LengthBound {
	if inputLen < 0 {
		inputLen = 0
	}
	floor := p.AbsoluteFloor
	if floor < 1 {
		floor = 1
	}
	guard := p.GuardMargin
	if guard < 1 {
		guard = 1
	}

	target := int(float64(inputLen) * ratio)

	var lo, hi int
	if target < minSafe {
		lo = max(floor, target/2)
		hi = target + p.RuntMargin
	} else {
		lo = max(floor, minSafe, int(float64(target)*p.RetentionFloor))
		hi = min(maxSafe, target)
	}

	if lo >= hi {
		lo = max(floor, hi-guard)
	}
	// hi at or below the floor cannot host a window under it.
	if lo >= hi {
		hi = lo + guard
	}

	return domain.LengthBound{Min: lo, Max: hi}
}
