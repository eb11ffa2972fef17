package mapdata

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Feature kinds in the GeoJSON export.
const (
	FeatureCCTV        = "cctv"
	FeatureDanger      = "danger"
	FeatureSafe        = "safe"
	FeatureUrgentRoute = "urgent_route"
)

// FeatureCollection converts a document to GeoJSON. Every feature carries a
// "kind" property; danger zones carry their radius in meters.
func (d Document) FeatureCollection() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	for _, c := range d.CCTV {
		f := geojson.NewFeature(orb.Point{c.Lng, c.Lat})
		f.Properties["kind"] = FeatureCCTV
		f.Properties["id"] = c.ID
		fc.Append(f)
	}
	for _, c := range d.Criminal {
		f := geojson.NewFeature(orb.Point{c.Lng, c.Lat})
		f.Properties["kind"] = FeatureDanger
		f.Properties["label"] = c.Type
		f.Properties["radius_m"] = c.Radius
		fc.Append(f)
	}
	for _, l := range d.Safe {
		f := geojson.NewFeature(orb.Point{l.Lng, l.Lat})
		f.Properties["kind"] = FeatureSafe
		f.Properties["name"] = l.Name
		f.Properties["type"] = l.Type
		fc.Append(f)
	}
	if len(d.UrgentRoute) > 1 {
		ls := make(orb.LineString, 0, len(d.UrgentRoute))
		for _, p := range d.UrgentRoute {
			ls = append(ls, orb.Point{p[1], p[0]})
		}
		f := geojson.NewFeature(ls)
		f.Properties["kind"] = FeatureUrgentRoute
		fc.Append(f)
	}

	return fc
}

// GeoJSON returns the stored snapshot as a GeoJSON feature collection.
func (s *Service) GeoJSON(ctx context.Context) (*geojson.FeatureCollection, error) {
	doc, err := s.Document(ctx)
	if err != nil {
		return nil, err
	}
	return doc.FeatureCollection(), nil
}
