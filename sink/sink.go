/*
Package sink fans stored fixes out to external systems.
Sinks are optional; a failing sink is logged and does not fail a push.
*/
package sink

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// Sink publishes batches of stored fixes for a bus.
type Sink interface {
	Publish(ctx context.Context, busID conceptual.BusID, fixes fix.Fixes) error
	Close() error
}

// Sinks publishes to every sink it holds.
type Sinks []Sink

// FromConfig connects the sinks configured; unset sinks are skipped.
func FromConfig(ctx context.Context, config *params.SinksConfig) (Sinks, error) {
	var out Sinks
	if config == nil {
		return out, nil
	}
	if config.NATSURL != "" {
		n, err := NewNATS(config.NATSURL, config.NATSSubjectPrefix)
		if err != nil {
			return nil, err
		}
		out = append(out, n)
	}
	if config.RedisAddr != "" {
		r, err := NewRedis(ctx, config)
		if err != nil {
			out.Close()
			return nil, err
		}
		out = append(out, r)
	}
	return out, nil
}

// Publish publishes to all sinks and returns their errors joined.
func (s Sinks) Publish(ctx context.Context, busID conceptual.BusID, fixes fix.Fixes) error {
	var errs []error
	for _, sink := range s {
		if err := sink.Publish(ctx, busID, fixes); err != nil {
			slog.Warn("Sink publish failed", "bus", busID, "error", err)
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (s Sinks) Close() error {
	var errs []error
	for _, sink := range s {
		errs = append(errs, sink.Close())
	}
	return errors.Join(errs...)
}
