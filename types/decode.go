package types

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/types/fix"
	"github.com/tidwall/gjson"
)

var ErrDecodeFixes = errors.New("could not decode as fix or fixes or keyed records or geojson")

// LocationsNode is the name of the node holding per-bus location
// records in realtime database exports.
const LocationsNode = "BusLocation"

// DecodeFixes attempts to turn a pushed payload into fixes.
// Supported shapes:
//   - a single fix object {"latitude","longitude","timestamp"}
//   - an array of fix objects (or GeoJSON features)
//   - an object of records keyed by timestamp, where records may omit their timestamp
//   - a GeoJSON Feature or FeatureCollection of points with a "timestamp" or "time" property
//
// Records which cannot be resolved are skipped.
// Fixes are returned as decoded; they are neither validated nor sorted.
func DecodeFixes(data []byte) (fix.Fixes, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrDecodeFixes)
	}
	parsed := gjson.ParseBytes(data)
	out := fix.Fixes{}
	var err error
	switch {
	case parsed.IsArray():
		for _, el := range parsed.Array() {
			out, err = appendObject(out, el)
			if err != nil {
				slog.Debug("Skipping undecodable element", "error", err)
			}
		}
	case parsed.IsObject():
		out, err = appendObject(out, parsed)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrDecodeFixes, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown data type", ErrDecodeFixes)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%w: empty set", ErrDecodeFixes)
	}
	return out, nil
}

func appendObject(out fix.Fixes, obj gjson.Result) (fix.Fixes, error) {
	if !obj.IsObject() {
		return out, errors.New("non-object element")
	}

	switch obj.Get("type").String() {
	case "FeatureCollection":
		fc, err := geojson.UnmarshalFeatureCollection([]byte(obj.Raw))
		if err != nil {
			return out, err
		}
		for _, f := range fc.Features {
			if ft, err := featureToFix(f); err == nil {
				out = append(out, ft)
			} else {
				slog.Debug("Skipping feature", "error", err)
			}
		}
		return out, nil
	case "Feature":
		f, err := geojson.UnmarshalFeature([]byte(obj.Raw))
		if err != nil {
			return out, err
		}
		ft, err := featureToFix(f)
		if err != nil {
			return out, err
		}
		return append(out, ft), nil
	}

	// A flat fix.
	if obj.Get("latitude").Exists() || obj.Get("longitude").Exists() {
		f, err := fix.FromRecord("", []byte(obj.Raw))
		if err != nil {
			return out, err
		}
		return append(out, f), nil
	}

	// Keyed records.
	return appendKeyedRecords(out, obj), nil
}

// appendKeyedRecords resolves {"<ms>": {record}, ...}.
// Non-object values (eg. route metadata stored beside the records) are skipped.
func appendKeyedRecords(out fix.Fixes, obj gjson.Result) fix.Fixes {
	obj.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		f, err := fix.FromRecord(key.String(), []byte(value.Raw))
		if err != nil {
			slog.Debug("Skipping record", "key", key.String(), "error", err)
			return true
		}
		out = append(out, f)
		return true
	})
	return out
}

func featureToFix(f *geojson.Feature) (fix.Fix, error) {
	pt, ok := f.Geometry.(orb.Point)
	if !ok {
		return fix.Fix{}, errors.New("not a point")
	}
	ft := fix.Fix{Latitude: pt.Lat(), Longitude: pt.Lon()}
	if ts := f.Properties.MustFloat64("timestamp", 0); ts != 0 {
		ft.Timestamp = int64(ts)
		return ft, nil
	}
	if s := f.Properties.MustString("time", ""); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return fix.Fix{}, err
		}
		ft.Timestamp = t.UnixMilli()
		return ft, nil
	}
	return fix.Fix{}, fix.ErrMissingTimestamp
}

// DecodeExport reads a realtime database JSON export into fixes by bus.
// The input may be the whole export (with a BusLocation node)
// or the BusLocation node itself.
// A bus node may hold keyed records, or (live-location shape)
// a single current record. Bus keys are normalized with BusIDFromName.
func DecodeExport(data []byte) (map[conceptual.BusID]fix.Fixes, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("%w: invalid json", ErrDecodeFixes)
	}
	root := gjson.GetBytes(data, LocationsNode)
	if !root.Exists() {
		root = gjson.ParseBytes(data)
	}
	if !root.IsObject() {
		return nil, fmt.Errorf("%w: %s is not an object", ErrDecodeFixes, LocationsNode)
	}
	out := map[conceptual.BusID]fix.Fixes{}
	root.ForEach(func(key, value gjson.Result) bool {
		if !value.IsObject() {
			return true
		}
		busID := conceptual.BusIDFromName(key.String())
		var fixes fix.Fixes
		if value.Get("latitude").Exists() {
			f, err := fix.FromRecord("", []byte(value.Raw))
			if err != nil {
				slog.Debug("Skipping live record", "bus", busID, "error", err)
				return true
			}
			fixes = fix.Fixes{f}
		} else {
			fixes = appendKeyedRecords(nil, value)
		}
		if len(fixes) > 0 {
			out[busID] = append(out[busID], fixes...)
		}
		return true
	})
	return out, nil
}

// ScanJSONMessages reads a stream of JSON messages from an io.Reader,
// and calls onEach for each decoded message.
// If the stream is encoded as a JSON array, onEach is called
// for each element in the array. NDJSON works too.
func ScanJSONMessages(body io.Reader, onEach func(message json.RawMessage) error) error {
	buf := bufio.NewReader(body)
	peek, err := buf.Peek(1)
	if err != nil {
		return err
	}
	dec := json.NewDecoder(buf)
	if bytes.Equal(peek, []byte("[")) {
		if _, err := dec.Token(); err != nil {
			return err
		}
	}
	for dec.More() {
		var msg json.RawMessage
		if err := dec.Decode(&msg); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return fmt.Errorf("decode: %w", err)
		}
		if err := onEach(msg); err != nil {
			return err
		}
	}
	return nil
}

// ScanFixes calls onEach for every fix decoded from a stream of messages.
// Messages which do not decode to fixes are logged and skipped.
func ScanFixes(body io.Reader, onEach func(f fix.Fix) error) error {
	return ScanJSONMessages(body, func(message json.RawMessage) error {
		fixes, err := DecodeFixes(message)
		if err != nil {
			slog.Warn("Skipping message", "error", err)
			return nil
		}
		for _, f := range fixes {
			if err := onEach(f); err != nil {
				return err
			}
		}
		return nil
	})
}
