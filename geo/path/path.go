/*
Package path turns raw location history into a drawable path:
validate, sort, drop outliers and, optionally, smooth.
*/
package path

import (
	"errors"
	"log/slog"
	"slices"

	"github.com/paulmach/orb"
	"github.com/rotblauer/bustrack/geo/clean"
	"github.com/rotblauer/bustrack/geo/smooth"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// ErrInsufficientPoints is for callers that want an error value for a
// path too short to draw. Process itself never returns it.
var ErrInsufficientPoints = errors.New("not enough valid points to display path")

// MinPathFixes is the fewest fixes that make a drawable line.
const MinPathFixes = 2

type Options struct {
	Outlier *params.OutlierConfig

	// Smoother is applied after outlier filtering. Nil means no smoothing.
	Smoother smooth.Smoother
}

func DefaultOptions() *Options {
	return &Options{
		Outlier: params.DefaultOutlierConfig(),
	}
}

// Path is the result of processing one read of location history.
// It lives only as long as the render that consumes it.
type Path struct {
	Fixes fix.Fixes `json:"fixes"`

	// Raw is the number of fixes given to Process.
	Raw int `json:"raw"`
	// Invalid is the number of fixes dropped by validation.
	Invalid int `json:"invalid"`
	// Rejected is the number of fixes dropped by the outlier filter.
	Rejected int `json:"rejected"`
	// Smoothed is true if a smoother was applied.
	Smoothed bool `json:"smoothed"`
}

// Process validates, sorts (stable, by timestamp), and filters raw fixes.
// The input slice is not modified. The result is always non-nil,
// but may be too short to draw; see Sufficient.
func Process(raw []fix.Fix, opts *Options) *Path {
	if opts == nil {
		opts = DefaultOptions()
	}
	p := &Path{Raw: len(raw)}

	sorted := make([]fix.Fix, 0, len(raw))
	for _, f := range raw {
		if err := f.Validate(); err != nil {
			p.Invalid++
			slog.Debug("Dropping invalid fix", "fix", f, "error", err)
			continue
		}
		sorted = append(sorted, f)
	}
	slices.SortStableFunc(sorted, fix.SortFunc)

	filter := clean.NewOutlierFilter(opts.Outlier)
	p.Fixes = filter.Filter(sorted)
	p.Rejected = filter.Filtered

	if opts.Smoother != nil && len(p.Fixes) > 1 {
		p.Fixes = opts.Smoother.Smooth(p.Fixes)
		p.Smoothed = true
	}
	return p
}

// Sufficient is false when there are too few fixes to draw a line.
// Callers must not compute bounds or draw a polyline then.
func (p *Path) Sufficient() bool {
	return len(p.Fixes) >= MinPathFixes
}

// Err returns ErrInsufficientPoints if the path is not Sufficient.
func (p *Path) Err() error {
	if !p.Sufficient() {
		return ErrInsufficientPoints
	}
	return nil
}

func (p *Path) Start() (fix.Fix, bool) {
	if len(p.Fixes) == 0 {
		return fix.Fix{}, false
	}
	return p.Fixes[0], true
}

func (p *Path) End() (fix.Fix, bool) {
	if len(p.Fixes) == 0 {
		return fix.Fix{}, false
	}
	return p.Fixes[len(p.Fixes)-1], true
}

func (p *Path) LineString() orb.LineString {
	ls := make(orb.LineString, 0, len(p.Fixes))
	for _, f := range p.Fixes {
		ls = append(ls, f.Point())
	}
	return ls
}

// Bound returns the bounding box of the path, eg. to fit a map to it.
func (p *Path) Bound() orb.Bound {
	return p.LineString().Bound()
}
