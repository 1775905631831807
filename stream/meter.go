package stream

import (
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/ethereum/go-ethereum/metrics"
	"github.com/rotblauer/bustrack/common"
)

// Meter logs throughput of a long-running read, eg. an import,
// every interval until stopped.
type Meter struct {
	name     string
	label    atomic.Int64 // unix ms of the last element marked
	interval time.Duration
	started  time.Time
	ticker   *time.Ticker
	done     chan struct{}

	countMeter metrics.Meter
	sizeMeter  metrics.Meter
}

func NewMeter(name string, interval time.Duration) *Meter {
	// Enable metrics package.
	// Won't work without this global setting.
	metrics.Enabled = true

	m := &Meter{
		name:       name,
		interval:   interval,
		started:    time.Now(),
		done:       make(chan struct{}),
		countMeter: metrics.NewMeter(),
		sizeMeter:  metrics.NewMeter(),
	}
	m.ticker = time.NewTicker(interval)
	go m.run()
	return m
}

// Mark records one element of size bytes, labeled with its time.
func (m *Meter) Mark(label time.Time, size int) {
	m.label.Store(label.UnixMilli())
	m.countMeter.Mark(1)
	m.sizeMeter.Mark(int64(size))
}

// Count returns the number of elements marked.
func (m *Meter) Count() int64 {
	return m.countMeter.Snapshot().Count()
}

func (m *Meter) run() {
	for {
		select {
		case <-m.done:
			return
		case <-m.ticker.C:
			m.Log()
		}
	}
}

func (m *Meter) Log() {
	countSnap := m.countMeter.Snapshot()
	sizeSnap := m.sizeMeter.Snapshot()
	slog.Info(m.name, "n", humanize.Comma(countSnap.Count()),
		"last", time.UnixMilli(m.label.Load()).Format(time.DateTime),
		"per.sec", common.DecimalToFixed(countSnap.Rate1(), 0),
		"bytes", humanize.Bytes(uint64(sizeSnap.Count())),
		"running", time.Since(m.started).Round(time.Second))
}

// Stop stops the meter and logs a final line.
func (m *Meter) Stop() {
	if m == nil || m.ticker == nil {
		return
	}
	m.ticker.Stop()
	close(m.done)
	m.countMeter.Stop()
	m.sizeMeter.Stop()
	m.Log()
}
