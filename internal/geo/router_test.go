package geo

import (
	"log/slog"
	"os"
	"path/filepath"
	"testing"
)

// Two adjacent squares around central Bangkok, in (lon, lat).
const testDistricts = `{
  "type": "FeatureCollection",
  "features": [
    {
      "type": "Feature",
      "properties": {"dname": "ปทุมวัน"},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[100.50, 13.72], [100.55, 13.72], [100.55, 13.76], [100.50, 13.76], [100.50, 13.72]]]
      }
    },
    {
      "type": "Feature",
      "properties": {"amphoe_th": "บางรัก"},
      "geometry": {
        "type": "MultiPolygon",
        "coordinates": [[[[100.55, 13.72], [100.60, 13.72], [100.60, 13.76], [100.55, 13.76], [100.55, 13.72]]]]
      }
    },
    {
      "type": "Feature",
      "properties": {},
      "geometry": {
        "type": "Polygon",
        "coordinates": [[[101.00, 14.00], [101.10, 14.00], [101.10, 14.10], [101.00, 14.10], [101.00, 14.00]]]
      }
    }
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func TestResolveBeforeLoad(t *testing.T) {
	r := NewRouter(slog.Default())
	if got := r.Resolve(13.74, 100.53); got != Unresolved {
		t.Errorf("Resolve = %q, want %q", got, Unresolved)
	}
}

func TestResolve(t *testing.T) {
	r := NewRouter(slog.Default())
	if n := r.Load(writeFile(t, "districts.geojson", testDistricts)); n != 3 {
		t.Fatalf("Load = %d, want 3", n)
	}

	tests := []struct {
		name     string
		lat, lon float64
		want     string
	}{
		{"inside polygon", 13.74, 100.53, "ปทุมวัน"},
		{"inside multipolygon", 13.74, 100.58, "บางรัก"},
		{"unnamed feature", 14.05, 101.05, UnknownName},
		{"far outside", 18.79, 98.98, Outside},
		{"swapped coordinates", 100.53, 13.74, Outside},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.lat, tt.lon); got != tt.want {
				t.Errorf("Resolve(%v, %v) = %q, want %q", tt.lat, tt.lon, got, tt.want)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	r := NewRouter(slog.Default())
	if n := r.Load(filepath.Join(t.TempDir(), "nope.geojson")); n != 0 {
		t.Errorf("Load = %d, want 0", n)
	}
	if got := r.Resolve(13.74, 100.53); got != Unresolved {
		t.Errorf("Resolve = %q, want %q", got, Unresolved)
	}
}

func TestLoadMalformedClearsPrevious(t *testing.T) {
	r := NewRouter(slog.Default())
	r.Load(writeFile(t, "good.geojson", testDistricts))
	if r.Count() != 3 {
		t.Fatalf("Count = %d, want 3", r.Count())
	}

	if n := r.Load(writeFile(t, "bad.geojson", `{"type": "FeatureCollection", "features": [`)); n != 0 {
		t.Errorf("Load = %d, want 0", n)
	}
	if r.Count() != 0 {
		t.Errorf("Count = %d after malformed load, want 0", r.Count())
	}
	if got := r.Resolve(13.74, 100.53); got != Unresolved {
		t.Errorf("Resolve = %q, want %q", got, Unresolved)
	}
}

func TestLoadSkipsNonPolygonFeatures(t *testing.T) {
	r := NewRouter(slog.Default())
	doc := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {"name": "ป้ายชื่อ"}, "geometry": {"type": "Point", "coordinates": [100.52, 13.74]}},
		{"type": "Feature", "properties": {"name": "ถนน"}, "geometry": {"type": "LineString", "coordinates": [[100.50, 13.70], [100.60, 13.80]]}},
		{"type": "Feature", "properties": {"dname": "ปทุมวัน"}, "geometry": {
			"type": "Polygon",
			"coordinates": [[[100.50, 13.72], [100.55, 13.72], [100.55, 13.76], [100.50, 13.76], [100.50, 13.72]]]
		}}
	]}`
	if n := r.Load(writeFile(t, "mixed.geojson", doc)); n != 1 {
		t.Fatalf("Load = %d, want 1", n)
	}
	if got := r.Resolve(13.74, 100.52); got != "ปทุมวัน" {
		t.Errorf("Resolve = %q, want ปทุมวัน", got)
	}
	if got := r.Resolve(13.79, 100.59); got != Outside {
		t.Errorf("Resolve on the line = %q, want %q", got, Outside)
	}
}

func TestLoadOnlyPointsLeavesRouterEmpty(t *testing.T) {
	r := NewRouter(slog.Default())
	doc := `{"type": "FeatureCollection", "features": [
		{"type": "Feature", "properties": {"name": "x"}, "geometry": {"type": "Point", "coordinates": [100.5, 13.7]}}
	]}`
	if n := r.Load(writeFile(t, "points.geojson", doc)); n != 0 {
		t.Errorf("Load = %d, want 0", n)
	}
	if got := r.Resolve(13.7, 100.5); got != Unresolved {
		t.Errorf("Resolve = %q, want %q", got, Unresolved)
	}
}

func TestReloadIsIdempotent(t *testing.T) {
	r := NewRouter(slog.Default())
	path := writeFile(t, "districts.geojson", testDistricts)
	r.Load(path)
	r.Load(path)
	if r.Count() != 3 {
		t.Errorf("Count = %d after reload, want 3", r.Count())
	}
}
