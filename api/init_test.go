package api

import (
	"context"
	"testing"

	"github.com/rotblauer/bustrack/types/fix"
)

// newTestService opens a service on a temporary data dir.
func newTestService(t *testing.T) *Service {
	t.Helper()
	s, err := NewService(context.Background(), &Config{DataDir: t.TempDir()})
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Error(err)
		}
	})
	return s
}

// north returns a fix meters north of f, ms later.
func north(f fix.Fix, meters float64, ms int64) fix.Fix {
	return fix.Fix{
		Latitude:  f.Latitude + meters/111194.92664455873,
		Longitude: f.Longitude,
		Timestamp: f.Timestamp + ms,
	}
}
