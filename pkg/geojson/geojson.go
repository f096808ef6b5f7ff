// Package geojson provides GeoJSON geometry types and bounding box utilities.
package geojson

import (
	"encoding/json"
	"fmt"
	"math"
	"strings"
)

// Geometry represents a GeoJSON geometry object. Coordinates are kept as raw
// JSON so geometries can be passed through untouched while still supporting
// typed access for the shapes we understand.
type Geometry struct {
	Type        string          `json:"type"`
	Coordinates json.RawMessage `json:"coordinates"`
}

// Point returns the coordinates as a Point [lon, lat].
// Returns error if geometry is not a Point.
func (g *Geometry) Point() ([]float64, error) {
	if g.Type != "Point" {
		return nil, fmt.Errorf("geometry is not a Point, got %s", g.Type)
	}
	var coords []float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Point coordinates: %w", err)
	}
	if len(coords) < 2 {
		return nil, fmt.Errorf("invalid Point coordinates: expected at least 2 values, got %d", len(coords))
	}
	return coords, nil
}

// LineString returns the coordinates as a LineString [][lon, lat].
// Returns error if geometry is not a LineString.
func (g *Geometry) LineString() ([][]float64, error) {
	if g.Type != "LineString" {
		return nil, fmt.Errorf("geometry is not a LineString, got %s", g.Type)
	}
	var coords [][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal LineString coordinates: %w", err)
	}
	return coords, nil
}

// Polygon returns the coordinates as a Polygon [][][lon, lat].
// Returns error if geometry is not a Polygon.
func (g *Geometry) Polygon() ([][][]float64, error) {
	if g.Type != "Polygon" {
		return nil, fmt.Errorf("geometry is not a Polygon, got %s", g.Type)
	}
	var coords [][][]float64
	if err := json.Unmarshal(g.Coordinates, &coords); err != nil {
		return nil, fmt.Errorf("failed to unmarshal Polygon coordinates: %w", err)
	}
	return coords, nil
}

// BBox computes the bounding box of the geometry.
// Returns [west, south, east, north].
func (g *Geometry) BBox() []float64 {
	return ComputeBBox(g)
}

// ComputeBBox computes the axis-aligned bounding box of a geometry as
// [west, south, east, north]. Unsupported or malformed geometries yield nil
// rather than an error: upstream items occasionally carry shapes we do not
// handle, and a missing bbox is preferable to failing the whole item.
//
// Polygon bounds consider the outer ring only; the ring's first vertex is
// skipped since it duplicates the closing vertex. Holes are ignored.
func ComputeBBox(g *Geometry) []float64 {
	if g == nil {
		return nil
	}

	switch g.Type {
	case "Point":
		coords, err := g.Point()
		if err != nil {
			return nil
		}
		return []float64{coords[0], coords[1], coords[0], coords[1]}

	case "LineString":
		coords, err := g.LineString()
		if err != nil {
			return nil
		}
		return foldPositions(coords)

	case "Polygon":
		coords, err := g.Polygon()
		if err != nil || len(coords) == 0 || len(coords[0]) < 2 {
			return nil
		}
		return foldPositions(coords[0][1:])

	case "MultiPoint", "MultiLineString", "MultiPolygon":
		return multiBBox(g)

	default:
		return nil
	}
}

// multiBBox computes the bbox of a Multi* geometry by computing the bbox of
// each member with the corresponding singular rule and taking the union.
func multiBBox(g *Geometry) []float64 {
	memberType := strings.TrimPrefix(g.Type, "Multi")

	var members []json.RawMessage
	if err := json.Unmarshal(g.Coordinates, &members); err != nil {
		return nil
	}

	var bbox []float64
	for _, member := range members {
		memberBBox := ComputeBBox(&Geometry{Type: memberType, Coordinates: member})
		if memberBBox == nil {
			return nil
		}
		if bbox == nil {
			bbox = memberBBox
			continue
		}
		bbox[0] = math.Min(bbox[0], memberBBox[0])
		bbox[1] = math.Min(bbox[1], memberBBox[1])
		bbox[2] = math.Max(bbox[2], memberBBox[2])
		bbox[3] = math.Max(bbox[3], memberBBox[3])
	}
	return bbox
}

// foldPositions computes the min/max fold over a list of [lon, lat] positions.
func foldPositions(positions [][]float64) []float64 {
	minLon, minLat := math.Inf(1), math.Inf(1)
	maxLon, maxLat := math.Inf(-1), math.Inf(-1)

	for _, p := range positions {
		if len(p) < 2 {
			continue
		}
		minLon = math.Min(minLon, p[0])
		maxLon = math.Max(maxLon, p[0])
		minLat = math.Min(minLat, p[1])
		maxLat = math.Max(maxLat, p[1])
	}

	if math.IsInf(minLon, 0) || math.IsInf(minLat, 0) {
		return nil
	}
	return []float64{minLon, minLat, maxLon, maxLat}
}
