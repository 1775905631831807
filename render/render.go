/*
Package render writes processed paths for people and maps.
*/
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/rotblauer/bustrack/common"
	"github.com/rotblauer/bustrack/geo/path"
	"github.com/rotblauer/bustrack/types/fix"
	"github.com/shopspring/decimal"
)

const (
	TagStart = "(Start)"
	TagEnd   = "(End)"

	TimelineTimeLayout = "2006-01-02 15:04:05"

	// InsufficientMessage is shown in place of a path that cannot be drawn.
	InsufficientMessage = "Not enough valid points to display path"
)

// Coordinate formats a latitude or longitude for display.
func Coordinate(deg float64) string {
	return decimal.NewFromFloat(deg).StringFixed(common.GPSPrecision6)
}

// TimelineLine formats one timeline entry. Tag may be empty.
func TimelineLine(f fix.Fix, loc *time.Location, tag string) string {
	if loc == nil {
		loc = time.Local
	}
	line := fmt.Sprintf("%s  %s, %s",
		f.Time().In(loc).Format(TimelineTimeLayout),
		Coordinate(f.Latitude), Coordinate(f.Longitude))
	if tag != "" {
		line += " " + tag
	}
	return line
}

// Timeline writes one line per fix in local time, tagging the first and last.
// A single fix is tagged as both.
func Timeline(w io.Writer, fixes []fix.Fix, loc *time.Location) error {
	last := len(fixes) - 1
	for i, f := range fixes {
		tag := ""
		switch {
		case i == 0 && i == last:
			tag = TagStart + " " + TagEnd
		case i == 0:
			tag = TagStart
		case i == last:
			tag = TagEnd
		}
		if _, err := fmt.Fprintln(w, TimelineLine(f, loc, tag)); err != nil {
			return err
		}
	}
	return nil
}

// GeoJSON writes the path as a feature collection.
// Nothing is written for an insufficient path; the error is path.ErrInsufficientPoints.
func GeoJSON(w io.Writer, p *path.Path) error {
	fc, err := p.FeatureCollection()
	if err != nil {
		return err
	}
	return json.NewEncoder(w).Encode(fc)
}
