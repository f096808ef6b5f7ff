package translate

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/internal/stac"
)

var testCatalog = []string{"PSScene", "REOrthoTile", "SkySatScene"}

func TestCompileSearchRequestDefaults(t *testing.T) {
	compiled, err := CompileSearchRequest(&stac.SearchRequest{}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	// No collections named anywhere: search the whole default catalog.
	if len(compiled.Body.ItemTypes) != len(testCatalog) {
		t.Errorf("expected default catalog, got %v", compiled.Body.ItemTypes)
	}

	root, ok := compiled.Body.Filter.(*planet.AndFilter)
	if !ok {
		t.Fatalf("expected AndFilter root, got %T", compiled.Body.Filter)
	}
	if len(root.Config) != 0 {
		t.Errorf("expected empty root filter, got %d children", len(root.Config))
	}
	if compiled.Params.Get("_page_size") != "" {
		t.Errorf("unexpected _page_size: %q", compiled.Params.Get("_page_size"))
	}

	// Planet rejects "config": null; the empty root must render as [].
	data, err := json.Marshal(compiled.Body)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}
	if want := `"filter":{"type":"AndFilter","config":[]}`; !strings.Contains(string(data), want) {
		t.Errorf("body %s does not contain %s", data, want)
	}
}

func TestCompileSearchRequestDateTime(t *testing.T) {
	tests := []struct {
		name     string
		datetime string
		wantGTE  string
		wantLTE  string
	}{
		{"closed interval", "2024-01-01T00:00:00Z/2024-02-01T00:00:00Z", "2024-01-01T00:00:00Z", "2024-02-01T00:00:00Z"},
		{"open start", "../2024-02-01T00:00:00Z", "", "2024-02-01T00:00:00Z"},
		{"open end", "2024-01-01T00:00:00Z/..", "2024-01-01T00:00:00Z", ""},
		{"instant", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z", "2024-01-01T00:00:00Z"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			compiled, err := CompileSearchRequest(&stac.SearchRequest{DateTime: tt.datetime}, testCatalog, nil)
			if err != nil {
				t.Fatalf("compile failed: %v", err)
			}

			root := compiled.Body.Filter.(*planet.AndFilter)
			if len(root.Config) != 1 {
				t.Fatalf("expected 1 filter, got %d", len(root.Config))
			}
			df, ok := root.Config[0].(*planet.DateRangeFilter)
			if !ok {
				t.Fatalf("expected DateRangeFilter, got %T", root.Config[0])
			}
			if df.FieldName != "acquired" {
				t.Errorf("unexpected field: %q", df.FieldName)
			}
			if df.Config.GTE != tt.wantGTE {
				t.Errorf("gte = %q, want %q", df.Config.GTE, tt.wantGTE)
			}
			if df.Config.LTE != tt.wantLTE {
				t.Errorf("lte = %q, want %q", df.Config.LTE, tt.wantLTE)
			}
		})
	}

	if _, err := CompileSearchRequest(&stac.SearchRequest{DateTime: "../.."}, testCatalog, nil); !errors.Is(err, ErrInvalidDateTime) {
		t.Errorf("expected ErrInvalidDateTime for fully open interval, got %v", err)
	}
}

func TestCompileSearchRequestBBox(t *testing.T) {
	compiled, err := CompileSearchRequest(&stac.SearchRequest{
		BBox: []float64{-10, 40, -5, 45},
	}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	root := compiled.Body.Filter.(*planet.AndFilter)
	if len(root.Config) != 1 {
		t.Fatalf("expected 1 filter, got %d", len(root.Config))
	}
	gf, ok := root.Config[0].(*planet.GeometryFilter)
	if !ok {
		t.Fatalf("expected GeometryFilter, got %T", root.Config[0])
	}
	if gf.FieldName != "geometry" {
		t.Errorf("unexpected field: %q", gf.FieldName)
	}

	// The bbox renders as a closed rectangular polygon.
	raw, err := json.Marshal(gf.Config)
	if err != nil {
		t.Fatalf("geometry config must marshal: %v", err)
	}
	var geom struct {
		Type        string        `json:"type"`
		Coordinates [][][]float64 `json:"coordinates"`
	}
	if err := json.Unmarshal(raw, &geom); err != nil {
		t.Fatalf("failed to parse geometry config: %v", err)
	}
	if geom.Type != "Polygon" {
		t.Errorf("expected Polygon, got %q", geom.Type)
	}
	ring := geom.Coordinates[0]
	if len(ring) != 5 {
		t.Fatalf("expected closed 5-vertex ring, got %d", len(ring))
	}
	if ring[0][0] != ring[4][0] || ring[0][1] != ring[4][1] {
		t.Error("ring is not closed")
	}
}

func TestCompileSearchRequestIntersectsAndBBoxAreSiblings(t *testing.T) {
	compiled, err := CompileSearchRequest(&stac.SearchRequest{
		BBox:       []float64{0, 0, 1, 1},
		Intersects: json.RawMessage(`{"type":"Point","coordinates":[0.5,0.5]}`),
	}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	root := compiled.Body.Filter.(*planet.AndFilter)
	if len(root.Config) != 2 {
		t.Fatalf("expected bbox and intersects as separate siblings, got %d filters", len(root.Config))
	}
	for _, f := range root.Config {
		if _, ok := f.(*planet.GeometryFilter); !ok {
			t.Errorf("expected GeometryFilter sibling, got %T", f)
		}
	}
}

func TestCompileSearchRequestCollectionsUnion(t *testing.T) {
	compiled, err := CompileSearchRequest(&stac.SearchRequest{
		Collections: []string{"PSScene"},
		Filter: map[string]any{
			"op":   "=",
			"args": []any{map[string]any{"property": "collection"}, "SkySatScene"},
		},
	}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}

	got := compiled.Body.ItemTypes
	if len(got) != 2 || got[0] != "PSScene" || got[1] != "SkySatScene" {
		t.Errorf("expected union of explicit and extracted collections, got %v", got)
	}
}

func TestCompileSearchRequestSort(t *testing.T) {
	compiled, err := CompileSearchRequest(&stac.SearchRequest{
		Sortby: []stac.SortbyItem{{Field: "datetime", Direction: "asc"}},
	}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if got := compiled.Params.Get("_sort"); got != "acquired asc" {
		t.Errorf("_sort = %q, want %q", got, "acquired asc")
	}

	compiled, err = CompileSearchRequest(&stac.SearchRequest{
		Sortby: []stac.SortbyItem{{Field: "published", Direction: "desc"}},
	}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if got := compiled.Params.Get("_sort"); got != "published desc" {
		t.Errorf("_sort = %q, want %q", got, "published desc")
	}

	_, err = CompileSearchRequest(&stac.SearchRequest{
		Sortby: []stac.SortbyItem{{Field: "price", Direction: "asc"}},
	}, testCatalog, nil)
	if !errors.Is(err, ErrUnsupportedSortField) {
		t.Errorf("expected ErrUnsupportedSortField, got %v", err)
	}
}

func TestCompileSearchRequestLimit(t *testing.T) {
	compiled, err := CompileSearchRequest(&stac.SearchRequest{Limit: 25}, testCatalog, nil)
	if err != nil {
		t.Fatalf("compile failed: %v", err)
	}
	if got := compiled.Params.Get("_page_size"); got != "25" {
		t.Errorf("_page_size = %q, want %q", got, "25")
	}
}
