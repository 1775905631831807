package smooth

import (
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// Gain is a single-gain exponential blend with a toy uncertainty recursion.
// It is not a full Kalman filter: one scalar gain is shared by
// latitude and longitude, and time between fixes is ignored.
type Gain struct {
	Config *params.GainConfig
}

func NewGain(config *params.GainConfig) *Gain {
	if config == nil {
		config = params.DefaultGainConfig()
	}
	return &Gain{Config: config}
}

// Step blends current toward the previous smoothed point.
// The result always lies between prev and current.
func (g *Gain) Step(prev fix.Smoothed, current fix.Fix) fix.Smoothed {
	r := g.Config.MeasurementNoise
	k := g.Config.InitialGain
	uncertainty := r
	if prev.HasUncertainty {
		k = prev.Uncertainty / (prev.Uncertainty + r)
		uncertainty = prev.Uncertainty
	}
	return fix.Smoothed{
		Fix: fix.Fix{
			Latitude:  prev.Latitude + k*(current.Latitude-prev.Latitude),
			Longitude: prev.Longitude + k*(current.Longitude-prev.Longitude),
			Timestamp: current.Timestamp,
		},
		Uncertainty:    (1-k)*uncertainty + g.Config.ProcessNoise,
		HasUncertainty: true,
	}
}

// Smooth threads uncertainty through the whole sequence.
// The first fix seeds the chain unchanged.
func (g *Gain) Smooth(fixes []fix.Fix) []fix.Fix {
	if len(fixes) == 0 {
		return []fix.Fix{}
	}
	out := make([]fix.Fix, 0, len(fixes))
	prev := fix.Smoothed{Fix: fixes[0]}
	out = append(out, prev.Fix)
	for _, current := range fixes[1:] {
		prev = g.Step(prev, current)
		out = append(out, prev.Fix)
	}
	return out
}
