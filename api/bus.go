package api

import (
	"log/slog"

	"github.com/rotblauer/bustrack/conceptual"
)

// Bus is the API representation of one bus.
// It does not hold bus state; the Service does.
type Bus struct {
	BusID  conceptual.BusID
	svc    *Service
	logger *slog.Logger
}
