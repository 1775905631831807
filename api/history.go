package api

import (
	"errors"

	"github.com/rotblauer/bustrack/cache"
	"github.com/rotblauer/bustrack/events"
	"github.com/rotblauer/bustrack/geo/path"
	"github.com/rotblauer/bustrack/geo/smooth"
	"github.com/rotblauer/bustrack/state"
	"github.com/rotblauer/bustrack/types/fix"
)

// Window is an inclusive time window in milliseconds.
// A zero End means no upper bound.
type Window struct {
	Start int64 `json:"start"`
	End   int64 `json:"end"`
}

// Contains reports whether the timestamp falls within the window.
func (w Window) Contains(ms int64) bool {
	return ms >= w.Start && (w.End <= 0 || ms <= w.End)
}

// HistoryOptions select post-processing of a history read.
type HistoryOptions struct {
	// Smoother names a smoother, see smooth.ByName. Empty means none.
	Smoother string
}

// Raw returns the stored fixes of the bus within the window, unprocessed.
// A bus without history has an empty history.
func (b *Bus) Raw(w Window) (fix.Fixes, error) {
	fixes, err := b.svc.Store.Range(b.BusID, w.Start, w.End)
	if errors.Is(err, state.ErrNoBus) {
		return fix.Fixes{}, nil
	}
	return fixes, err
}

// History reads the bus's fixes within the window and runs them through
// the path pipeline. The returned path may be insufficient to draw;
// callers check path.Sufficient (or Err) before rendering.
func (b *Bus) History(w Window, opts *HistoryOptions) (*path.Path, error) {
	if opts == nil {
		opts = &HistoryOptions{}
	}
	smoother, err := smooth.ByName(opts.Smoother)
	if err != nil {
		return nil, err
	}
	key := cache.PathKey{BusID: b.BusID, Start: w.Start, End: w.End, Smoother: opts.Smoother}
	if p, ok := b.svc.Caches.Paths.Get(key); ok {
		return p, nil
	}

	raw, err := b.Raw(w)
	if err != nil {
		return nil, err
	}
	popts := path.DefaultOptions()
	popts.Smoother = smoother
	p := path.Process(raw, popts)
	b.logger.Debug("Processed history", "raw", p.Raw, "invalid", p.Invalid,
		"rejected", p.Rejected, "kept", len(p.Fixes))
	b.svc.Caches.Paths.Add(key, p)
	return p, nil
}

// DeleteHistory deletes the bus's fixes within the window and
// returns how many were deleted.
func (b *Bus) DeleteHistory(w Window) (int, error) {
	n, err := b.svc.Store.DeleteRange(b.BusID, w.Start, w.End)
	if err != nil {
		return n, err
	}
	b.svc.Caches.Paths.InvalidateBus(b.BusID)

	// The last known fix may have been deleted.
	if last, ok := b.svc.Caches.GetLastKnown(b.BusID); ok && w.Contains(last.Timestamp) {
		b.svc.Caches.LastKnown.Delete(b.BusID)
	}
	events.DeletedFeed.Send(events.Deleted{BusID: b.BusID, Start: w.Start, End: w.End, N: n})
	b.logger.Info("Deleted history", "start", w.Start, "end", w.End, "n", n)
	return n, nil
}

// PathView is the JSON shape of a processed path.
type PathView struct {
	*path.Path
	Summary path.Summary `json:"summary"`
}

func NewPathView(p *path.Path) *PathView {
	return &PathView{Path: p, Summary: p.Summary()}
}
