package api

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/jellydator/ttlcache/v3"
	"github.com/rotblauer/bustrack/events"
	"github.com/rotblauer/bustrack/geo/clean"
	"github.com/rotblauer/bustrack/metrics/influxdb"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/stream"
	"github.com/rotblauer/bustrack/types"
	"github.com/rotblauer/bustrack/types/fix"
)

var ErrNoFixes = errors.New("no valid fixes")

// PopulateResult counts what happened to a pushed batch.
type PopulateResult struct {
	Received int `json:"received"`
	Invalid  int `json:"invalid"`
	Deduped  int `json:"deduped"`
	Stored   int `json:"stored"`

	// Rejected counts outliers dropped by a cleaned import.
	Rejected int `json:"rejected,omitempty"`
}

// ValidatePush checks a pushed fix. Pushed fixes must carry a timestamp.
func ValidatePush(f fix.Fix) error {
	if err := f.Validate(); err != nil {
		return err
	}
	if f.Timestamp <= 0 {
		return fix.ErrMissingTimestamp
	}
	return nil
}

// Populate validates, dedupes and persists pushed fixes for the bus,
// then updates caches, emits events, and publishes to sinks.
// Invalid and duplicate fixes are dropped and counted, not returned as errors.
// ErrNoFixes is returned if nothing was left to store.
func (b *Bus) Populate(ctx context.Context, fixes fix.Fixes) (*PopulateResult, error) {
	res := &PopulateResult{Received: len(fixes)}
	if b.BusID.IsEmpty() {
		return res, fmt.Errorf("populate: empty bus id")
	}

	valid := make(fix.Fixes, 0, len(fixes))
	for _, f := range fixes {
		if err := ValidatePush(f); err != nil {
			res.Invalid++
			b.logger.Warn("Invalid fix", "fix", f, "error", err)
			continue
		}
		valid = append(valid, f)
	}
	slices.SortStableFunc(valid, fix.SortFunc)

	store := make(fix.Fixes, 0, len(valid))
	keys := make([]uint64, 0, len(valid))
	batch := make(map[uint64]bool, len(valid))
	for _, f := range valid {
		key, err := b.svc.Caches.Dedupe.Key(b.BusID, f)
		if err != nil {
			b.logger.Warn("Failed to hash fix", "fix", f, "error", err)
			store = append(store, f)
			continue
		}
		if batch[key] || b.svc.Caches.Dedupe.Seen(key) {
			res.Deduped++
			b.logger.Debug("Deduped fix", "fix", f)
			continue
		}
		batch[key] = true
		keys = append(keys, key)
		store = append(store, f)
	}
	if len(store) == 0 {
		return res, ErrNoFixes
	}

	// Fixes that failed to store must pass dedupe on retry.
	if err := b.svc.Store.PutFixes(b.BusID, store); err != nil {
		return res, err
	}
	b.svc.Caches.Dedupe.Add(keys...)
	res.Stored = len(store)

	b.svc.Caches.SetLastKnown(b.BusID, store[len(store)-1])
	b.svc.Caches.LastPush.Set(b.BusID, store, ttlcache.DefaultTTL)
	b.svc.Caches.Paths.InvalidateBus(b.BusID)
	events.StoredFeed.Send(events.BusFixes{BusID: b.BusID, Fixes: store})

	if err := b.svc.Sinks.Publish(ctx, b.BusID, store); err != nil {
		b.logger.Warn("Failed to publish to sinks", "error", err)
	}
	if b.svc.Influx != nil {
		if err := influxdb.ExportFixes(b.svc.Influx, b.BusID, store); err != nil {
			b.logger.Warn("Failed to export to influxdb", "error", err)
		}
	}
	b.logger.Debug("Populated", "received", res.Received, "stored", res.Stored,
		"invalid", res.Invalid, "deduped", res.Deduped)
	return res, nil
}

// ImportOptions configure streamed population.
type ImportOptions struct {
	// BatchSize is the number of fixes stored per transaction.
	BatchSize int

	// Clean drops outliers, as the path pipeline would, before storing.
	// The input must be chronological.
	Clean bool
}

// PopulateReader populates from a stream of JSON messages (NDJSON or an array)
// in batches, and returns the totals.
func (b *Bus) PopulateReader(ctx context.Context, in io.Reader, opts *ImportOptions) (*PopulateResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	meter := stream.NewMeter("Import fixes", 10*time.Second)
	defer meter.Stop()

	fixes := make(chan fix.Fix)
	scanErr := make(chan error, 1)
	go func() {
		defer close(fixes)
		scanErr <- types.ScanFixes(in, func(f fix.Fix) error {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case fixes <- f:
			}
			meter.Mark(f.Time(), 0)
			return nil
		})
	}()

	total, err := b.PopulateStream(ctx, fixes, opts)
	if err != nil {
		return total, err
	}
	if err := <-scanErr; err != nil && !errors.Is(err, io.EOF) {
		return total, err
	}
	b.logger.Info("Populated from reader", "scanned", humanize.Comma(meter.Count()),
		"received", humanize.Comma(int64(total.Received)),
		"stored", humanize.Comma(int64(total.Stored)))
	return total, nil
}

// PopulateStream populates from a channel of fixes in batches,
// and returns the totals. It returns when in is closed or ctx is done.
func (b *Bus) PopulateStream(ctx context.Context, in <-chan fix.Fix, opts *ImportOptions) (*PopulateResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	if opts == nil {
		opts = &ImportOptions{}
	}
	batchSize := opts.BatchSize
	if batchSize < 1 {
		batchSize = params.DefaultImportBatchSize
	}

	// Counted by the Filter goroutine.
	invalid := 0
	var outliers *clean.OutlierFilter
	if opts.Clean {
		in = stream.Filter(ctx, func(f fix.Fix) bool {
			if err := ValidatePush(f); err != nil {
				invalid++
				return false
			}
			return true
		}, in)
		outliers = clean.NewOutlierFilter(nil)
		in = outliers.FilterStream(ctx, in)
	}

	total := &PopulateResult{}
	for batch := range stream.Batch(ctx, batchSize, in) {
		res, err := b.Populate(ctx, batch)
		total.add(res)
		if err != nil && !errors.Is(err, ErrNoFixes) {
			return total, err
		}
	}
	if err := ctx.Err(); err != nil {
		return total, err
	}

	// The stages upstream of Batch have all closed by now.
	if outliers != nil {
		total.Received += invalid + outliers.Filtered
		total.Invalid += invalid
		total.Rejected += outliers.Filtered
	}
	return total, nil
}

func (r *PopulateResult) add(o *PopulateResult) {
	if o == nil {
		return
	}
	r.Received += o.Received
	r.Invalid += o.Invalid
	r.Deduped += o.Deduped
	r.Stored += o.Stored
	r.Rejected += o.Rejected
}
