package conceptual

import "strings"

// BusID identifies a bus, eg. "bus1".
// Dashboards derive it from the bus name by lower-casing
// and stripping whitespace: "Bus 1" -> "bus1".
type BusID string

func (b BusID) String() string {
	return string(b)
}

func (b BusID) IsEmpty() bool {
	return b == ""
}

// BusIDFromName normalizes a human bus name into a BusID.
func BusIDFromName(name string) BusID {
	return BusID(strings.Join(strings.Fields(strings.ToLower(name)), ""))
}
