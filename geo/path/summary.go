package path

import (
	"time"

	"github.com/montanaflynn/stats"
	"github.com/rotblauer/bustrack/common"
)

// Summary describes a processed path.
type Summary struct {
	Fixes    int           `json:"fixes"`
	Distance float64       `json:"distance"` // meters
	Duration time.Duration `json:"duration"`

	// Segment speeds, km/h.
	SpeedMean   float64 `json:"speed_mean"`
	SpeedMedian float64 `json:"speed_median"`
	SpeedMax    float64 `json:"speed_max"`
}

// Summary computes distance, duration and segment speed statistics.
// Insufficient paths get a zero summary with only Fixes set.
func (p *Path) Summary() Summary {
	s := Summary{Fixes: len(p.Fixes)}
	if !p.Sufficient() {
		return s
	}

	speeds := make(stats.Float64Data, 0, len(p.Fixes)-1)
	for i := 1; i < len(p.Fixes); i++ {
		prev, current := p.Fixes[i-1], p.Fixes[i]
		d := current.DistanceTo(prev)
		s.Distance += d
		if kmh, ok := common.SpeedKmh(d, current.Elapsed(prev).Seconds()); ok {
			speeds = append(speeds, kmh)
		}
	}
	start, _ := p.Start()
	end, _ := p.End()
	s.Duration = end.Elapsed(start)

	if len(speeds) == 0 {
		return s
	}
	s.SpeedMean, _ = speeds.Mean()
	s.SpeedMedian, _ = speeds.Median()
	s.SpeedMax, _ = speeds.Max()
	return s
}
