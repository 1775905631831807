package clean

import (
	"context"

	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// OutlierFilter drops GPS jitter, teleports, rapid-fire duplicates
// and implausible speed spikes from a chronological sequence of fixes.
// Every candidate is compared against the last kept fix, not the last raw one.
type OutlierFilter struct {
	Config *params.OutlierConfig

	// Filtered counts rejected fixes.
	// With FilterStream, read it only after the output is drained.
	Filtered int
}

func NewOutlierFilter(config *params.OutlierConfig) *OutlierFilter {
	if config == nil {
		config = params.DefaultOutlierConfig()
	}
	return &OutlierFilter{Config: config}
}

// Accept reports whether current is plausible following prev.
func (f *OutlierFilter) Accept(prev, current fix.Fix) bool {
	distance := current.DistanceTo(prev)
	if distance < f.Config.MinDistance || distance > f.Config.MaxDistance {
		return false
	}

	elapsed := current.Elapsed(prev)
	if elapsed < f.Config.MinInterval {
		return false
	}

	// No elapsed time is infinite speed.
	speed, ok := common.SpeedKmh(distance, elapsed.Seconds())
	if !ok {
		return false
	}
	return speed <= f.Config.MaxSpeedKmh
}

// Filter returns the plausible subsequence of sorted.
// The first fix is always kept; it seeds the reference.
// sorted must be ascending by timestamp.
func (f *OutlierFilter) Filter(sorted []fix.Fix) []fix.Fix {
	out := make([]fix.Fix, 0, len(sorted))
	for i, current := range sorted {
		if i == 0 {
			out = append(out, current)
			continue
		}
		if !f.Accept(out[len(out)-1], current) {
			f.Filtered++
			continue
		}
		out = append(out, current)
	}
	return out
}

// FilterStream is the channel form of Filter. in must be chronological.
// Filtered is updated by the stream goroutine; read it only after
// the returned channel is closed.
func (f *OutlierFilter) FilterStream(ctx context.Context, in <-chan fix.Fix) <-chan fix.Fix {
	out := make(chan fix.Fix)

	go func() {
		defer close(out)

		var last *fix.Fix

		for current := range in {
			current := current

			// The first fix is always sent.
			if last != nil && !f.Accept(*last, current) {
				f.Filtered++
				continue
			}

			select {
			case <-ctx.Done():
				return
			case out <- current:
				last = &current
			}
		}
	}()
	return out
}
