// Package geo maps coordinates to administrative districts by point-in-polygon
// lookup over a GeoJSON feature collection.
package geo

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/paulmach/orb/planar"
)

// Labels returned instead of a district name.
const (
	Unresolved   = "รอฐานข้อมูลเขต"
	Outside      = "นอกเขต กทม."
	Undetermined = "ไม่สามารถระบุเขตได้"
	UnknownName  = "ไม่ทราบชื่อเขต"
)

// nameKeys is the property lookup order for a feature's district name.
var nameKeys = []string{"dname", "dname_th", "name", "amphoe_th", "DISTRICT_T"}

type district struct {
	name  string
	bound orb.Bound
	geom  orb.Geometry
}

// Router holds the loaded district polygons.
type Router struct {
	mu        sync.RWMutex
	districts []district
	logger    *slog.Logger
}

// NewRouter creates an empty router. Resolve returns Unresolved until Load succeeds.
func NewRouter(logger *slog.Logger) *Router {
	return &Router{logger: logger}
}

// Load replaces the district set with the polygons in the GeoJSON file at
// path and returns how many were loaded. A missing or malformed file is
// logged and leaves the set empty.
func (r *Router) Load(path string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.districts = nil

	districts, err := r.parseFile(path)
	if errors.Is(err, os.ErrNotExist) {
		r.logger.Warn("district file not found, geo-routing disabled", "path", path)
		return 0
	}
	if err != nil {
		r.logger.Error("load district file", "path", path, "error", err)
		return 0
	}

	r.districts = districts
	r.logger.Info("districts loaded", "path", path, "count", len(districts))
	return len(districts)
}

func (r *Router) parseFile(path string) ([]district, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return r.parse(data)
}

// parse keeps polygonal features. Anything else, such as a label point, can
// never contain a location and is skipped.
func (r *Router) parse(data []byte) ([]district, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fmt.Errorf("decode feature collection: %w", err)
	}

	var out []district
	for i, f := range fc.Features {
		name := featureName(f.Properties)
		if f.Geometry == nil {
			r.logger.Warn("skipping feature without geometry", "feature", i, "name", name)
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			r.logger.Warn("skipping non-polygon feature",
				"feature", i,
				"name", name,
				"geometry", f.Geometry.GeoJSONType(),
			)
			continue
		}
		out = append(out, district{
			name:  name,
			bound: f.Geometry.Bound(),
			geom:  f.Geometry,
		})
	}
	return out, nil
}

func featureName(props geojson.Properties) string {
	for _, key := range nameKeys {
		if name := props.MustString(key, ""); name != "" {
			return name
		}
	}
	return UnknownName
}

// Resolve returns the name of the first district containing (lat, lon).
// Polygons are stored as (longitude, latitude).
func (r *Router) Resolve(lat, lon float64) string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if len(r.districts) == 0 {
		return Unresolved
	}

	pt := orb.Point{lon, lat}
	for _, d := range r.districts {
		if !d.bound.Contains(pt) {
			continue
		}
		if contains(d.geom, pt) {
			return d.name
		}
	}
	return Outside
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch geom := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(geom, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(geom, pt)
	}
	return false
}

// Count returns the number of loaded districts.
func (r *Router) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.districts)
}
