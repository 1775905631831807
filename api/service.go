package api

import (
	"context"
	"errors"
	"log/slog"
	"slices"

	"github.com/rotblauer/bustrack/cache"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/sink"
	"github.com/rotblauer/bustrack/state"
)

// Config configures a Service.
type Config struct {
	DataDir  string
	ReadOnly bool
	Sinks    *params.SinksConfig
	Influx   *params.InfluxConfig
}

// Service owns the store, caches and sinks shared by all buses.
type Service struct {
	Store  *state.Store
	Caches *cache.Caches
	Sinks  sink.Sinks
	Influx *params.InfluxConfig
	logger *slog.Logger
}

// NewService opens the store under the data dir and connects any configured sinks.
// A writable store is exclusive; other writers block until Close.
func NewService(ctx context.Context, config *Config) (*Service, error) {
	if config == nil {
		config = &Config{DataDir: params.DefaultDatadirRoot}
	}
	store, err := state.Open(config.DataDir, config.ReadOnly)
	if err != nil {
		return nil, err
	}
	caches, err := cache.New()
	if err != nil {
		store.Close()
		return nil, err
	}
	sinks, err := sink.FromConfig(ctx, config.Sinks)
	if err != nil {
		store.Close()
		return nil, err
	}
	caches.Start()
	return &Service{
		Store:  store,
		Caches: caches,
		Sinks:  sinks,
		Influx: config.Influx,
		logger: slog.With("d", "api"),
	}, nil
}

func (s *Service) Close() error {
	s.Caches.Stop()
	return errors.Join(s.Sinks.Close(), s.Store.Close())
}

// Bus returns the API for one bus.
// The ID is normalized as by conceptual.BusIDFromName, so "Bus 1",
// "BUS1" and "bus1" name the same bus on every surface.
func (s *Service) Bus(busID conceptual.BusID) *Bus {
	busID = conceptual.BusIDFromName(busID.String())
	return &Bus{
		BusID:  busID,
		svc:    s,
		logger: s.logger.With("bus", busID),
	}
}

// Buses lists known buses, by ID.
func (s *Service) Buses() ([]state.BusDetails, error) {
	return s.Store.Buses()
}

func (s *Service) PutDetails(details state.BusDetails) error {
	details.ID = conceptual.BusIDFromName(details.ID.String())
	return s.Store.PutDetails(details)
}

// Statuses returns the live status of every bus with a known location, by ID.
func (s *Service) Statuses() ([]*Status, error) {
	buses, err := s.Store.Buses()
	if err != nil {
		return nil, err
	}
	out := make([]*Status, 0, len(buses))
	for _, b := range buses {
		st, err := s.Bus(b.ID).Status()
		if errors.Is(err, ErrNoLocation) {
			continue
		}
		if err != nil {
			return nil, err
		}
		out = append(out, st)
	}
	slices.SortFunc(out, func(a, b *Status) int {
		if a.BusID < b.BusID {
			return -1
		}
		if a.BusID > b.BusID {
			return 1
		}
		return 0
	})
	return out, nil
}
