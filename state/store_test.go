package state

import (
	"errors"
	"log/slog"
	"slices"
	"testing"

	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/types/fix"
	"go.etcd.io/bbolt"
)

const bus1 = conceptual.BusID("bus1")

var fixes = fix.Fixes{
	{Timestamp: 1700000000000, Latitude: 28.21, Longitude: 83.98},
	{Timestamp: 1700000020000, Latitude: 28.211, Longitude: 83.981},
	{Timestamp: 1700000040000, Latitude: 28.212, Longitude: 83.982},
	{Timestamp: 1700000060000, Latitude: 28.213, Longitude: 83.983},
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir(), false)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		s.Close()
	})
	return s
}

func TestStore_PutRange(t *testing.T) {
	s := newTestStore(t)
	// Out of order on purpose; keys order them.
	if err := s.PutFixes(bus1, fixes[2:]); err != nil {
		t.Fatal(err)
	}
	if err := s.PutFixes(bus1, fixes[:2]); err != nil {
		t.Fatal(err)
	}

	got, err := s.Range(bus1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, fixes) {
		t.Errorf("expected %v, got %v", fixes, got)
	}

	got, err = s.Range(bus1, fixes[1].Timestamp, fixes[2].Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, fixes[1:3]) {
		t.Errorf("expected inclusive window %v, got %v", fixes[1:3], got)
	}

	got, err = s.Range(bus1, fixes[3].Timestamp+1, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 0 {
		t.Errorf("expected empty window, got %v", got)
	}
}

func TestStore_NoBus(t *testing.T) {
	s := newTestStore(t)
	if _, err := s.Range("nope", 0, 0); !errors.Is(err, ErrNoBus) {
		t.Errorf("expected ErrNoBus, got %v", err)
	}
	if _, err := s.DeleteRange("nope", 0, 0); !errors.Is(err, ErrNoBus) {
		t.Errorf("expected ErrNoBus, got %v", err)
	}
	if err := s.PutFixes("", fixes); !errors.Is(err, ErrNoBus) {
		t.Errorf("expected ErrNoBus, got %v", err)
	}
}

func TestStore_NegativeTimestamp(t *testing.T) {
	s := newTestStore(t)
	err := s.PutFixes(bus1, fix.Fixes{{Timestamp: -1, Latitude: 1, Longitude: 1}})
	if !errors.Is(err, ErrNegativeTimestamp) {
		t.Errorf("expected ErrNegativeTimestamp, got %v", err)
	}
}

func TestStore_LegacyRecords(t *testing.T) {
	defer common.SlogResetLevel(slog.LevelWarn + 1)()
	s := newTestStore(t)
	records := map[int64]string{
		1700000000000: `{"latitude":28.21,"longitude":83.98}`,
		1700000020000: `{"latitude":28.211,"longitude":83.981,"timestamp":1700000021000}`,
		1700000040000: `{"latitude":128.0,"longitude":83.98}`,
		1700000060000: `not json`,
		1700000080000: `{"latitude":28.213}`,
	}
	// Written raw, as older clients stored them.
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.Bucket(locationsBucket).CreateBucketIfNotExists([]byte(bus1))
		if err != nil {
			return err
		}
		for ts, rec := range records {
			if err := bucket.Put(timestampKey(ts), []byte(rec)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	got, err := s.Range(bus1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := fix.Fixes{
		{Timestamp: 1700000000000, Latitude: 28.21, Longitude: 83.98},
		{Timestamp: 1700000021000, Latitude: 28.211, Longitude: 83.981},
	}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
}

func TestStore_ZeroTimestamp(t *testing.T) {
	s := newTestStore(t)
	f := fix.Fix{Timestamp: 0, Latitude: 28.21, Longitude: 83.98}
	if err := s.PutFixes(bus1, fix.Fixes{f}); err != nil {
		t.Fatal(err)
	}
	got, err := s.Range(bus1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != f {
		t.Errorf("expected %v, got %v", f, got)
	}
}

func TestStore_Last(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutFixes(bus1, fixes); err != nil {
		t.Fatal(err)
	}
	got, err := s.Last(bus1, 2)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(got, fixes[2:]) {
		t.Errorf("expected %v, got %v", fixes[2:], got)
	}
	got, err = s.Last(bus1, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(fixes) {
		t.Errorf("expected %d, got %d", len(fixes), len(got))
	}
}

func TestStore_DeleteRange(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutFixes(bus1, fixes); err != nil {
		t.Fatal(err)
	}
	n, err := s.DeleteRange(bus1, fixes[1].Timestamp, fixes[2].Timestamp)
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Errorf("expected 2 deleted, got %d", n)
	}
	got, err := s.Range(bus1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	want := fix.Fixes{fixes[0], fixes[3]}
	if !slices.Equal(got, want) {
		t.Errorf("expected %v, got %v", want, got)
	}
	if c, err := s.Count(bus1); err != nil || c != 2 {
		t.Errorf("expected count 2, got %d (%v)", c, err)
	}
}

func TestStore_Buses(t *testing.T) {
	s := newTestStore(t)
	if err := s.PutFixes("bus2", fixes[:1]); err != nil {
		t.Fatal(err)
	}
	if err := s.PutDetails(BusDetails{ID: bus1, Name: "Bus 1", Number: "BA 2 KHA 1234", RouteID: "r7"}); err != nil {
		t.Fatal(err)
	}
	buses, err := s.Buses()
	if err != nil {
		t.Fatal(err)
	}
	if len(buses) != 2 {
		t.Fatalf("expected 2 buses, got %v", buses)
	}
	if buses[0].ID != bus1 || buses[0].Name != "Bus 1" {
		t.Errorf("unexpected first bus: %+v", buses[0])
	}
	if buses[1].ID != "bus2" || buses[1].Name != "" {
		t.Errorf("unexpected second bus: %+v", buses[1])
	}
	d, err := s.Details(bus1)
	if err != nil {
		t.Fatal(err)
	}
	if d.RouteID != "r7" {
		t.Errorf("unexpected details: %+v", d)
	}
	if _, err := s.Details("bus2"); !errors.Is(err, ErrNoBus) {
		t.Errorf("expected ErrNoBus, got %v", err)
	}
}

func TestStore_ReadOnly(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir, false)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.PutFixes(bus1, fixes); err != nil {
		t.Fatal(err)
	}
	s.Close()

	ro, err := Open(dir, true)
	if err != nil {
		t.Fatal(err)
	}
	defer ro.Close()
	got, err := ro.Range(bus1, 0, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != len(fixes) {
		t.Errorf("expected %d fixes, got %d", len(fixes), len(got))
	}
}
