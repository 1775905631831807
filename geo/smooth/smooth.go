/*
Package smooth provides optional post-processing for cleaned paths.
Nothing here is applied unless a caller asks for it.
*/
package smooth

import (
	"fmt"

	"github.com/rotblauer/bustrack/types/fix"
)

// Smoother turns a chronological sequence of fixes into a smoothed one
// of the same length and order.
type Smoother interface {
	Smooth(fixes []fix.Fix) []fix.Fix
}

const (
	NameNone   = "none"
	NameGain   = "gain"
	NameKalman = "kalman"
)

// ByName returns the smoother registered under name.
// An empty name or "none" returns nil, meaning no smoothing.
func ByName(name string) (Smoother, error) {
	switch name {
	case "", NameNone:
		return nil, nil
	case NameGain:
		return NewGain(nil), nil
	case NameKalman:
		return NewKalman(nil), nil
	}
	return nil, fmt.Errorf("unknown smoother %q", name)
}
