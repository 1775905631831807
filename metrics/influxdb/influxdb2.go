package influxdb

import (
	"sync"
	"time"

	influxdb2 "github.com/influxdata/influxdb-client-go/v2"
	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/conceptual"
	"github.com/rotblauer/bustrack/params"
	"github.com/rotblauer/bustrack/types/fix"
)

const Measurement = "busfix"

// FixPoint builds the line protocol point for one fix.
// Speed (km/h) is included when prev is given and time elapsed between them.
func FixPoint(busID conceptual.BusID, f fix.Fix, prev *fix.Fix) *write.Point {
	p := influxdb2.NewPointWithMeasurement(Measurement).
		SetTime(f.Time()).
		AddTag("bus", busID.String()).
		AddField("latitude", f.Latitude).
		AddField("longitude", f.Longitude)
	if prev != nil {
		if kmh, ok := common.SpeedKmh(f.DistanceTo(*prev), f.Elapsed(*prev).Seconds()); ok {
			p.AddField("speed_kmh", kmh)
		}
	}
	return p
}

// ExportFixes posts fixes to an InfluxDB Write API.
// Because it accepts a slice, use batches. The Write API will buffer and flush.
// The last error encountered is returned.
func ExportFixes(config *params.InfluxConfig, busID conceptual.BusID, fixes []fix.Fix) error {
	opts := influxdb2.DefaultOptions()
	opts.SetPrecision(time.Millisecond)
	client := influxdb2.NewClientWithOptions(config.URL, config.Token, opts)
	writeAPI := client.WriteAPI(config.Org, config.Bucket)

	// Errors returns a channel for reading errors which occurs during async writes.
	// Must be called before performing any writes for errors to be collected.
	// The chan is unbuffered and must be drained or the writer will block.
	// https://github.com/influxdata/influxdb-client-go?tab=readme-ov-file#reading-async-errors
	errorsCh := writeAPI.Errors()
	var err error
	wait := sync.WaitGroup{}
	wait.Add(1)
	go func() {
		defer wait.Done()
		for e := range errorsCh {
			if e != nil {
				err = e
			}
		}
	}()

	for i := range fixes {
		var prev *fix.Fix
		if i > 0 {
			prev = &fixes[i-1]
		}
		writeAPI.WritePoint(FixPoint(busID, fixes[i], prev))
	}
	writeAPI.Flush()
	client.Close()
	wait.Wait()
	return err
}
