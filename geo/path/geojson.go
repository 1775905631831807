package path

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/rotblauer/bustrack/types/fix"
)

const (
	RoleStart = "start"
	RoleEnd   = "end"
)

// FeatureCollection renders the path as a line feature plus
// start and end point features, with the bounding box set
// so clients can fit a map to it.
// It returns ErrInsufficientPoints for paths too short to draw.
func (p *Path) FeatureCollection() (*geojson.FeatureCollection, error) {
	if err := p.Err(); err != nil {
		return nil, err
	}
	fc := geojson.NewFeatureCollection()
	bound := p.Bound()
	fc.BBox = geojson.NewBBox(bound)

	line := geojson.NewFeature(p.LineString())
	line.Properties["summary"] = p.Summary()
	line.Properties["raw"] = p.Raw
	line.Properties["rejected"] = p.Rejected
	line.Properties["smoothed"] = p.Smoothed
	fc.Append(line)

	start, _ := p.Start()
	end, _ := p.End()
	fc.Append(endpointFeature(start, RoleStart))
	fc.Append(endpointFeature(end, RoleEnd))
	return fc, nil
}

func endpointFeature(f fix.Fix, role string) *geojson.Feature {
	feat := geojson.NewFeature(orb.Point{f.Longitude, f.Latitude})
	feat.Properties["role"] = role
	feat.Properties["timestamp"] = f.Timestamp
	return feat
}
