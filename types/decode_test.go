package types

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"testing"

	"github.com/rotblauer/bustrack/types/fix"
)

type decodeTestCase struct {
	name                 string
	input                []byte
	expectScanMessages   int
	expectDecodeMessages int
	expectError          error
}

var fx1 = `{"latitude":28.21,"longitude":83.98,"timestamp":1700000000000}`
var fx2 = `{"latitude":28.211,"longitude":83.981,"timestamp":"1700000020000"}`
var gf1 = `{"type":"Feature","properties":{"timestamp":1700000040000},"geometry":{"type":"Point","coordinates":[83.982,28.212]}}`
var gf2 = `{"type":"Feature","properties":{"time":"2023-11-14T22:14:20Z"},"geometry":{"type":"Point","coordinates":[83.983,28.213]}}`
var keyed = `{"1700000000000":{"latitude":28.21,"longitude":83.98},"1700000020000":{"latitude":28.211,"longitude":83.981,"timestamp":1700000021000},"currentRoute":"route-7"}`

var decodeTestCases = []decodeTestCase{
	{
		name:        "empty",
		input:       []byte{},
		expectError: io.EOF,
	},
	{
		name:                 "fixesNDJSON",
		input:                []byte(fmt.Sprintf("%s\n%s\n", fx1, fx2)),
		expectScanMessages:   2,
		expectDecodeMessages: 2,
	},
	{
		name:                 "fixesArrayCompact",
		input:                []byte(fmt.Sprintf("[%s,%s]", fx1, fx2)),
		expectScanMessages:   2,
		expectDecodeMessages: 2,
	},
	{
		name:                 "fixesArrayIndented",
		input:                []byte(fmt.Sprintf("[\n\t%s,\n\t%s\n]\n", fx1, fx2)),
		expectScanMessages:   2,
		expectDecodeMessages: 2,
	},
	{
		name:                 "featsNDJSON",
		input:                []byte(fmt.Sprintf("%s\n%s\n", gf1, gf2)),
		expectScanMessages:   2,
		expectDecodeMessages: 2,
	},
	{
		name:                 "featureCollection",
		input:                []byte(`{"type":"FeatureCollection","features":[` + gf1 + "," + gf2 + `]}`),
		expectScanMessages:   1, // One object.
		expectDecodeMessages: 2,
	},
	{
		name:                 "keyedRecords",
		input:                []byte(keyed),
		expectScanMessages:   1,
		expectDecodeMessages: 2, // currentRoute is skipped.
	},
}

func TestScanFixes(t *testing.T) {
	for _, c := range decodeTestCases {
		t.Run(c.name, func(t *testing.T) {
			scanned := 0
			err := ScanJSONMessages(bytes.NewReader(c.input), func(message json.RawMessage) error {
				scanned++
				return nil
			})
			if c.expectError != nil {
				if !errors.Is(err, c.expectError) {
					t.Fatalf("expected error %v, got %v", c.expectError, err)
				}
				return
			}
			if err != nil {
				t.Fatal(err)
			}
			if scanned != c.expectScanMessages {
				t.Errorf("expected %d messages, got %d", c.expectScanMessages, scanned)
			}

			decoded := 0
			err = ScanFixes(bytes.NewReader(c.input), func(f fix.Fix) error {
				if f.Timestamp == 0 {
					t.Errorf("zero timestamp: %+v", f)
				}
				decoded++
				return nil
			})
			if err != nil {
				t.Fatal(err)
			}
			if decoded != c.expectDecodeMessages {
				t.Errorf("expected %d fixes, got %d", c.expectDecodeMessages, decoded)
			}
		})
	}
}

func TestDecodeFixes_KeyedLegacyShapes(t *testing.T) {
	fixes, err := DecodeFixes([]byte(keyed))
	if err != nil {
		t.Fatal(err)
	}
	got := map[int64]bool{}
	for _, f := range fixes {
		got[f.Timestamp] = true
	}
	if !got[1700000000000] {
		t.Error("expected key-implied timestamp 1700000000000")
	}
	if !got[1700000021000] {
		t.Error("expected nested timestamp 1700000021000 to win over its key")
	}
}

func TestDecodeFixes_Errors(t *testing.T) {
	for _, in := range []string{"malformed", `"string"`, `[]`, `{"latitude":1}`} {
		if _, err := DecodeFixes([]byte(in)); !errors.Is(err, ErrDecodeFixes) {
			t.Errorf("%s: expected ErrDecodeFixes, got %v", in, err)
		}
	}
}

func TestDecodeExport(t *testing.T) {
	export := `{
	"busDetails": {"bus1": {"busName": "Bus 1"}},
	"BusLocation": {
		"bus1": ` + keyed + `,
		"bus2": {"latitude": 6.936, "longitude": 79.873, "timestamp": 1700000099000},
		"bus3": "garbage"
	}
}`
	byBus, err := DecodeExport([]byte(export))
	if err != nil {
		t.Fatal(err)
	}
	if len(byBus) != 2 {
		t.Fatalf("expected 2 buses, got %d: %v", len(byBus), byBus)
	}
	if n := len(byBus["bus1"]); n != 2 {
		t.Errorf("expected 2 bus1 fixes, got %d", n)
	}
	if n := len(byBus["bus2"]); n != 1 {
		t.Errorf("expected 1 bus2 fix, got %d", n)
	}

	// The BusLocation node alone works too, and bus keys are normalized.
	byBus, err = DecodeExport([]byte(`{"Bus 9":` + keyed + `}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(byBus["bus9"]) != 2 {
		t.Errorf("expected 2 bus9 fixes, got %v", byBus)
	}
}
