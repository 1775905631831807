package events

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/types/fix"
)

// BusFixes is a batch of fixes for one bus.
type BusFixes struct {
	BusID conceptual.BusID `json:"bus"`
	Fixes fix.Fixes        `json:"fixes"`
}

// StoredFeed is emitted for every batch of pushed fixes once persisted.
// Duplicates have been dropped.
var StoredFeed = event.FeedOf[BusFixes]{}

// DeletedFeed is emitted when history is deleted; the payload holds the bus
// and the number of fixes deleted.
var DeletedFeed = event.FeedOf[Deleted]{}

type Deleted struct {
	BusID conceptual.BusID `json:"bus"`
	Start int64            `json:"start"`
	End   int64            `json:"end"`
	N     int              `json:"n"`
}
