package api

import (
	"slices"
	"strings"

	"github.com/paulmach/orb"
	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

// NearbyBus is a bus whose last known fix is near a point.
type NearbyBus struct {
	BusID    string  `json:"bus"`
	Last     fix.Fix `json:"last"`
	Distance float64 `json:"distance"` // meters
}

// Nearby returns buses whose last known fix is within radius meters of pt,
// nearest first. A non-positive radius uses params.DefaultProximityRadius.
// Cached last known fixes are used first; the store is read for buses
// missing from the cache.
func (s *Service) Nearby(pt orb.Point, radius float64) ([]NearbyBus, error) {
	if radius <= 0 {
		radius = params.DefaultProximityRadius
	}
	known := s.Caches.LastKnownAll()
	buses, err := s.Store.Buses()
	if err != nil {
		return nil, err
	}
	for _, bus := range buses {
		if _, ok := known[bus.ID]; ok {
			continue
		}
		last, err := s.Bus(bus.ID).LastKnown()
		if err != nil {
			continue
		}
		known[bus.ID] = last
	}

	out := []NearbyBus{}
	for busID, last := range known {
		d := common.Haversine(pt, last.Point())
		if d > radius {
			continue
		}
		out = append(out, NearbyBus{BusID: busID.String(), Last: last, Distance: d})
	}
	slices.SortFunc(out, func(a, b NearbyBus) int {
		switch {
		case a.Distance < b.Distance:
			return -1
		case a.Distance > b.Distance:
			return 1
		}
		return strings.Compare(a.BusID, b.BusID)
	})
	return out, nil
}
