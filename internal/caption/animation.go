package caption

import "math"

const (
	// Fades never take more than this share of a clip.
	maxFadeShare = 0.3
	minScale     = 0.1
	// Lower bound on the half duration used to normalize the scale curve.
	minHalfDuration = 0.1
)

// Animation describes how a clip scales and fades over its lifetime.
type Animation struct {
	Enabled      bool
	FadeDuration float64
	Intensity    float64
}

// FactorAt returns the scale and opacity at t seconds into a clip lasting
// duration seconds. Scale peaks at the midpoint; opacity ramps linearly in
// and out over min(FadeDuration, 0.3*duration). A disabled animation is the
// identity.
func (a Animation) FactorAt(t, duration float64) (scale, opacity float64) {
	if !a.Enabled {
		return 1, 1
	}
	return a.scaleAt(t, duration), a.opacityAt(t, duration)
}

func (a Animation) scaleAt(t, duration float64) float64 {
	half := duration / 2
	distance := math.Abs(t-half) / math.Max(minHalfDuration, half)
	return math.Max(minScale, 1+a.Intensity*(1-distance))
}

func (a Animation) opacityAt(t, duration float64) float64 {
	fade := a.FadeWindow(duration)
	if fade <= 0 {
		return 1
	}
	opacity := 1.0
	switch {
	case t < fade:
		opacity = t / fade
	case t > duration-fade:
		opacity = (duration - t) / fade
	}
	return clamp01(opacity)
}

// FadeWindow is the length of each fade ramp for a clip of duration seconds.
func (a Animation) FadeWindow(duration float64) float64 {
	return math.Min(a.FadeDuration, duration*maxFadeShare)
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
