/*
Package state persists bus location history in a bbolt database.

Fixes live in a nested bucket per bus, under the locations bucket,
keyed by their big-endian millisecond timestamp so that cursor order
is chronological order. A second fix at the same millisecond replaces the first.
*/
package state

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"os"
	"path/filepath"
	"slices"
	"strconv"

	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
	"go.etcd.io/bbolt"
)

var (
	ErrNoBus             = errors.New("no such bus")
	ErrNegativeTimestamp = errors.New("negative timestamp")
)

var (
	locationsBucket = []byte("locations")
	busesBucket     = []byte("buses")
)

// BusDetails describes a bus for listings.
type BusDetails struct {
	ID      conceptual.BusID `json:"id"`
	Name    string           `json:"name,omitempty"`
	Number  string           `json:"number,omitempty"`
	RouteID string           `json:"route_id,omitempty"`
}

type Store struct {
	DB    *bbolt.DB
	rOnly bool
}

// Open opens (creating if needed) the store under datadir.
// A writable store holds an exclusive file lock; other openers block.
func Open(datadir string, readOnly bool) (*Store, error) {
	if err := os.MkdirAll(datadir, 0770); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(filepath.Join(datadir, params.StateDBName), 0600, &bbolt.Options{
		ReadOnly: readOnly,
	})
	if err != nil {
		return nil, err
	}
	s := &Store{DB: db, rOnly: readOnly}
	if readOnly {
		return s, nil
	}
	err = db.Update(func(tx *bbolt.Tx) error {
		for _, name := range [][]byte{locationsBucket, busesBucket} {
			if _, err := tx.CreateBucketIfNotExists(name); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.DB.Close()
}

func timestampKey(ms int64) []byte {
	k := make([]byte, 8)
	binary.BigEndian.PutUint64(k, uint64(ms))
	return k
}

func keyTimestamp(k []byte) int64 {
	return int64(binary.BigEndian.Uint64(k))
}

// bounds returns the inclusive key range for [start, end].
// A non-positive end means no upper bound.
func bounds(start, end int64) ([]byte, []byte) {
	if start < 0 {
		start = 0
	}
	if end <= 0 {
		end = math.MaxInt64
	}
	return timestampKey(start), timestampKey(end)
}

func busBucket(tx *bbolt.Tx, busID conceptual.BusID) *bbolt.Bucket {
	locations := tx.Bucket(locationsBucket)
	if locations == nil {
		return nil
	}
	return locations.Bucket([]byte(busID))
}

// PutFixes stores fixes for a bus in one transaction.
func (s *Store) PutFixes(busID conceptual.BusID, fixes []fix.Fix) error {
	if busID.IsEmpty() {
		return ErrNoBus
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		locations, err := tx.CreateBucketIfNotExists(locationsBucket)
		if err != nil {
			return err
		}
		bucket, err := locations.CreateBucketIfNotExists([]byte(busID))
		if err != nil {
			return err
		}
		for _, f := range fixes {
			if f.Timestamp < 0 {
				return fmt.Errorf("%w: %d", ErrNegativeTimestamp, f.Timestamp)
			}
			b, err := json.Marshal(f)
			if err != nil {
				return err
			}
			if err := bucket.Put(timestampKey(f.Timestamp), b); err != nil {
				return err
			}
		}
		return nil
	})
}

func decodeRecord(busID conceptual.BusID, k, v []byte) (fix.Fix, bool) {
	f, err := fix.FromRecord(strconv.FormatInt(keyTimestamp(k), 10), v)
	if err != nil {
		slog.Warn("Skipping undecodable record", "bus", busID, "key", keyTimestamp(k), "error", err)
		return f, false
	}
	if err := f.Validate(); err != nil {
		slog.Warn("Skipping invalid record", "bus", busID, "key", keyTimestamp(k), "error", err)
		return f, false
	}
	return f, true
}

// Range returns the fixes of a bus with timestamps in [start, end], in key order.
// A non-positive end means no upper bound.
// Records that cannot be decoded or validated are skipped.
func (s *Store) Range(busID conceptual.BusID, start, end int64) (fix.Fixes, error) {
	out := fix.Fixes{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := busBucket(tx, busID)
		if bucket == nil {
			return ErrNoBus
		}
		lo, hi := bounds(start, end)
		c := bucket.Cursor()
		for k, v := c.Seek(lo); k != nil && bytes.Compare(k, hi) <= 0; k, v = c.Next() {
			if f, ok := decodeRecord(busID, k, v); ok {
				out = append(out, f)
			}
		}
		return nil
	})
	return out, err
}

// Last returns up to n of the latest decodable fixes of a bus, oldest first.
func (s *Store) Last(busID conceptual.BusID, n int) (fix.Fixes, error) {
	out := fix.Fixes{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := busBucket(tx, busID)
		if bucket == nil {
			return ErrNoBus
		}
		c := bucket.Cursor()
		for k, v := c.Last(); k != nil && len(out) < n; k, v = c.Prev() {
			if f, ok := decodeRecord(busID, k, v); ok {
				out = append(out, f)
			}
		}
		return nil
	})
	slices.Reverse(out)
	return out, err
}

// DeleteRange deletes the fixes of a bus with timestamps in [start, end]
// and returns how many were deleted.
// A non-positive end means no upper bound.
func (s *Store) DeleteRange(busID conceptual.BusID, start, end int64) (int, error) {
	n := 0
	err := s.DB.Update(func(tx *bbolt.Tx) error {
		bucket := busBucket(tx, busID)
		if bucket == nil {
			return ErrNoBus
		}
		lo, hi := bounds(start, end)
		var keys [][]byte
		c := bucket.Cursor()
		for k, _ := c.Seek(lo); k != nil && bytes.Compare(k, hi) <= 0; k, _ = c.Next() {
			keys = append(keys, slices.Clone(k))
		}
		for _, k := range keys {
			if err := bucket.Delete(k); err != nil {
				return err
			}
			n++
		}
		return nil
	})
	return n, err
}

// Count returns the number of stored records for a bus.
func (s *Store) Count(busID conceptual.BusID) (int, error) {
	n := 0
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := busBucket(tx, busID)
		if bucket == nil {
			return ErrNoBus
		}
		n = bucket.Stats().KeyN
		return nil
	})
	return n, err
}

func (s *Store) PutDetails(details BusDetails) error {
	if details.ID.IsEmpty() {
		return ErrNoBus
	}
	b, err := json.Marshal(details)
	if err != nil {
		return err
	}
	return s.DB.Update(func(tx *bbolt.Tx) error {
		bucket, err := tx.CreateBucketIfNotExists(busesBucket)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(details.ID), b)
	})
}

func (s *Store) Details(busID conceptual.BusID) (BusDetails, error) {
	details := BusDetails{ID: busID}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		bucket := tx.Bucket(busesBucket)
		if bucket == nil {
			return ErrNoBus
		}
		got := bucket.Get([]byte(busID))
		if got == nil {
			return ErrNoBus
		}
		return json.Unmarshal(got, &details)
	})
	return details, err
}

// Buses lists every bus with details or location history, ordered by ID.
// Buses without details are listed by ID only.
func (s *Store) Buses() ([]BusDetails, error) {
	seen := map[conceptual.BusID]BusDetails{}
	err := s.DB.View(func(tx *bbolt.Tx) error {
		if bucket := tx.Bucket(busesBucket); bucket != nil {
			err := bucket.ForEach(func(k, v []byte) error {
				d := BusDetails{}
				if err := json.Unmarshal(v, &d); err != nil {
					slog.Warn("Skipping undecodable bus details", "bus", string(k), "error", err)
					return nil
				}
				d.ID = conceptual.BusID(k)
				seen[d.ID] = d
				return nil
			})
			if err != nil {
				return err
			}
		}
		if bucket := tx.Bucket(locationsBucket); bucket != nil {
			return bucket.ForEachBucket(func(k []byte) error {
				id := conceptual.BusID(k)
				if _, ok := seen[id]; !ok {
					seen[id] = BusDetails{ID: id}
				}
				return nil
			})
		}
		return nil
	})
	out := make([]BusDetails, 0, len(seen))
	for _, d := range seen {
		out = append(out, d)
	}
	slices.SortFunc(out, func(a, b BusDetails) int {
		return bytes.Compare([]byte(a.ID), []byte(b.ID))
	})
	return out, err
}
