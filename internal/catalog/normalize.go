package catalog

import (
	"math"

	"github.com/danielpatrickdp/ngl-gym/internal/viewstate"
)

// minStd floors standard deviations so standardization never divides by zero.
const minStd = 1e-6

// #region stats
// Stats is a (mean, std) pair for one observation dimension.
type Stats struct {
	Mean float64
	Std  float64
}

// NewStats floors |std| to minStd.
func NewStats(mean, std float64) Stats {
	if math.Abs(std) < minStd {
		std = minStd
	}
	return Stats{Mean: mean, Std: std}
}

func (s Stats) standardize(v float64) float64   { return (v - s.Mean) / s.Std }
func (s Stats) destandardize(v float64) float64 { return v*s.Std + s.Mean }

// #endregion stats

// #region normalization
// Bounds are the physical limits used for agent-facing clamping.
type Bounds struct {
	MinPosition          [3]float64
	MaxPosition          [3]float64
	MinCrossSectionScale float64
	MaxCrossSectionScale float64
	MinProjectionScale   float64
	MaxProjectionScale   float64
}

// Factors divide physical values into roughly [-1, 1].
type Factors struct {
	Position          [3]float64
	CrossSectionScale float64
	Quaternion        [4]float64
	Euler             [3]float64
	ProjectionScale   float64
	MouseX            float64
	MouseY            float64
}

// DeltaFactors scale actor outputs into physical continuous-action deltas.
type DeltaFactors struct {
	Position          [3]float64
	CrossSectionScale float64
	Orientation       [4]float64
	ProjectionScale   float64
}

// RewardFactors weight the position-based reward helpers.
type RewardFactors struct {
	Position    float64
	DeltaZ      float64
	ActorCritic float64
}

// Normalization bundles every constant mapping physical units to agent units.
type Normalization struct {
	Position          [3]Stats
	CrossSectionScale Stats
	Euler             [3]Stats
	ProjectionScale   Stats
	Bounds            Bounds
	Factors           Factors
	Deltas            DeltaFactors
	Rewards           RewardFactors
}

// DefaultNormalization returns the constants fitted on the recorded imitation
// episodes, with position bounds taken from the FlyWire volume.
func DefaultNormalization(geom Geometry) Normalization {
	sqrtPi := math.Sqrt(math.Pi)
	bounds := Bounds{
		MinPosition:          [3]float64{20400, 5760, 16},
		MaxPosition:          [3]float64{236800, 118400, 7062},
		MinCrossSectionScale: 1,
		MaxCrossSectionScale: 300,
		MinProjectionScale:   1,
		MaxProjectionScale:   25000,
	}
	return Normalization{
		Position: [3]Stats{
			NewStats(157510, 278.76),
			NewStats(42018, 286),
			NewStats(4661, 160.76),
		},
		CrossSectionScale: NewStats(0.2605397078599756, 1),
		Euler:             [3]Stats{NewStats(0, sqrtPi), NewStats(0, sqrtPi), NewStats(0, sqrtPi)},
		ProjectionScale:   NewStats(1890, 113),
		Bounds:            bounds,
		Factors: Factors{
			Position:          bounds.MaxPosition,
			CrossSectionScale: bounds.MaxCrossSectionScale,
			Quaternion:        [4]float64{1, 1, 1, 1},
			Euler:             [3]float64{math.Pi, math.Pi, math.Pi},
			ProjectionScale:   bounds.MaxProjectionScale,
			MouseX:            float64(geom.ImageWidth),
			MouseY:            float64(geom.ImageHeight),
		},
		Deltas: DeltaFactors{
			Position:          [3]float64{5000, 5000, 10},
			CrossSectionScale: 5,
			Orientation:       [4]float64{1, 1, 1, 1},
			ProjectionScale:   1,
		},
		Rewards: RewardFactors{
			Position:    0.001,
			DeltaZ:      0.001,
			ActorCritic: 0.001,
		},
	}
}

// #endregion normalization

// #region standardize
// Standardize maps p to z-scores. Quaternion components are already unit-scale
// and pass through unchanged.
func (n Normalization) Standardize(p viewstate.PosState) viewstate.PosState {
	out := p
	for i := range out.Position {
		out.Position[i] = n.Position[i].standardize(p.Position[i])
	}
	out.CrossSectionScale = n.CrossSectionScale.standardize(p.CrossSectionScale)
	out.Orientation = append([]float64(nil), p.Orientation...)
	if p.Euler() {
		for i := range out.Orientation {
			out.Orientation[i] = n.Euler[i].standardize(p.Orientation[i])
		}
	}
	out.ProjectionScale = n.ProjectionScale.standardize(p.ProjectionScale)
	return out
}

// Destandardize is the inverse of Standardize.
func (n Normalization) Destandardize(p viewstate.PosState) viewstate.PosState {
	out := p
	for i := range out.Position {
		out.Position[i] = n.Position[i].destandardize(p.Position[i])
	}
	out.CrossSectionScale = n.CrossSectionScale.destandardize(p.CrossSectionScale)
	out.Orientation = append([]float64(nil), p.Orientation...)
	if p.Euler() {
		for i := range out.Orientation {
			out.Orientation[i] = n.Euler[i].destandardize(p.Orientation[i])
		}
	}
	out.ProjectionScale = n.ProjectionScale.destandardize(p.ProjectionScale)
	return out
}

// #endregion standardize

// #region scale
// ScaleByFactors divides each dimension by its max-based factor.
func (n Normalization) ScaleByFactors(p viewstate.PosState) viewstate.PosState {
	return n.applyFactors(p, func(v, f float64) float64 { return v / f })
}

// UnscaleByFactors is the inverse of ScaleByFactors.
func (n Normalization) UnscaleByFactors(p viewstate.PosState) viewstate.PosState {
	return n.applyFactors(p, func(v, f float64) float64 { return v * f })
}

func (n Normalization) applyFactors(p viewstate.PosState, op func(v, f float64) float64) viewstate.PosState {
	out := p
	for i := range out.Position {
		out.Position[i] = op(p.Position[i], n.Factors.Position[i])
	}
	out.CrossSectionScale = op(p.CrossSectionScale, n.Factors.CrossSectionScale)
	out.Orientation = make([]float64, len(p.Orientation))
	for i, v := range p.Orientation {
		f := 1.0
		if p.Euler() {
			f = n.Factors.Euler[i]
		} else if i < len(n.Factors.Quaternion) {
			f = n.Factors.Quaternion[i]
		}
		out.Orientation[i] = op(v, f)
	}
	out.ProjectionScale = op(p.ProjectionScale, n.Factors.ProjectionScale)
	return out
}

// #endregion scale

// #region clamp
// Clamp limits position, cross-section scale and projection scale to the bounds.
// Orientation is left alone.
func (b Bounds) Clamp(p viewstate.PosState) viewstate.PosState {
	out := p
	for i := range out.Position {
		out.Position[i] = clamp(p.Position[i], b.MinPosition[i], b.MaxPosition[i])
	}
	out.CrossSectionScale = clamp(p.CrossSectionScale, b.MinCrossSectionScale, b.MaxCrossSectionScale)
	out.Orientation = append([]float64(nil), p.Orientation...)
	out.ProjectionScale = b.ClampProjectionScale(p.ProjectionScale)
	return out
}

// ClampProjectionScale limits v to [MinProjectionScale, MaxProjectionScale].
func (b Bounds) ClampProjectionScale(v float64) float64 {
	return clamp(v, b.MinProjectionScale, b.MaxProjectionScale)
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}

// #endregion clamp

// #region rewards
// RewardFromPosState scores the raw depth coordinate.
func (n Normalization) RewardFromPosState(p viewstate.PosState) float64 {
	return p.Position[2] * n.Rewards.Position
}

// RewardFromNormalizedPosState scores a factor-scaled state on the same scale as
// RewardFromPosState.
func (n Normalization) RewardFromNormalizedPosState(p viewstate.PosState) float64 {
	return p.Position[2] * n.Factors.Position[2] * n.Rewards.Position
}

// RewardFromPosStateDelta scores the change in depth between two raw states.
func (n Normalization) RewardFromPosStateDelta(prev, next viewstate.PosState) float64 {
	return (next.Position[2] - prev.Position[2]) * n.Rewards.DeltaZ
}

// #endregion rewards
