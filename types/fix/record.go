package fix

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// record is the stored/transported shape of a location record.
// Legacy records omit the timestamp; their storage key carries it.
type record struct {
	Latitude  *float64    `json:"latitude"`
	Longitude *float64    `json:"longitude"`
	Timestamp json.Number `json:"timestamp"`
}

// FromRecord resolves a stored location record into a Fix.
// The record value may carry its own timestamp, or not,
// in which case the key (decimal milliseconds) is the timestamp.
// A nested timestamp wins over the key.
// The returned fix is not range validated.
func FromRecord(key string, value []byte) (Fix, error) {
	r := record{}
	if err := json.Unmarshal(value, &r); err != nil {
		return Fix{}, fmt.Errorf("decode record %q: %w", key, err)
	}
	if r.Latitude == nil || r.Longitude == nil {
		return Fix{}, fmt.Errorf("record %q: %w", key, ErrMissingCoordinates)
	}
	f := Fix{Latitude: *r.Latitude, Longitude: *r.Longitude}
	ts, err := parseTimestamp(r.Timestamp)
	if err != nil {
		return Fix{}, fmt.Errorf("record %q: %w", key, err)
	}
	if ts != 0 {
		f.Timestamp = ts
		return f, nil
	}
	ts, err = strconv.ParseInt(key, 10, 64)
	if err != nil {
		return Fix{}, fmt.Errorf("record %q: %w", key, ErrMissingTimestamp)
	}
	f.Timestamp = ts
	return f, nil
}

// parseTimestamp accepts integer or float milliseconds.
// An empty number is zero.
func parseTimestamp(n json.Number) (int64, error) {
	if n == "" {
		return 0, nil
	}
	ts, err := n.Int64()
	if err == nil {
		return ts, nil
	}
	fl, ferr := n.Float64()
	if ferr != nil {
		return 0, fmt.Errorf("invalid timestamp %q: %w", n, err)
	}
	return int64(fl), nil
}

// UnmarshalJSON accepts timestamps as numbers or numeric strings,
// which some clients send.
func (f *Fix) UnmarshalJSON(data []byte) error {
	type Alias Fix
	aux := &struct {
		Timestamp json.Number `json:"timestamp"`
		*Alias
	}{
		Alias: (*Alias)(f),
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	ts, err := parseTimestamp(aux.Timestamp)
	if err != nil {
		return err
	}
	f.Timestamp = ts
	return nil
}
