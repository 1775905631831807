package influxdb

import (
	"strings"
	"testing"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/bustrack/types/fix"
)

func TestFixPoint(t *testing.T) {
	prev := fix.Fix{Timestamp: 1700000000000, Latitude: 28.21, Longitude: 83.98}
	f := fix.Fix{Timestamp: 1700000020000, Latitude: 28.211, Longitude: 83.981}

	line := write.PointToLineProtocol(FixPoint("bus1", f, &prev), time.Millisecond)
	if !strings.HasPrefix(line, Measurement+",bus=bus1 ") {
		t.Errorf("unexpected line: %q", line)
	}
	if !strings.Contains(line, "speed_kmh=") {
		t.Errorf("expected speed field: %q", line)
	}
	if !strings.HasSuffix(strings.TrimSpace(line), "1700000020000") {
		t.Errorf("expected ms timestamp: %q", line)
	}

	line = write.PointToLineProtocol(FixPoint("bus1", f, nil), time.Millisecond)
	if strings.Contains(line, "speed_kmh=") {
		t.Errorf("expected no speed field: %q", line)
	}
}
