package planet

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Filter is a node in Planet's quick-search filter tree. The tree is a
// tagged-variant structure: every node carries a "type" discriminator and a
// type-specific "config". Logical nodes (AndFilter, OrFilter) nest other
// filters; the remaining variants are leaf predicates.
type Filter interface {
	filterNode()
}

// AndFilter matches items satisfying every nested filter. Planet requires a
// single top-level filter object, so every compiled search request is rooted
// in one AndFilter.
type AndFilter struct {
	Type   string   `json:"type"`
	Config []Filter `json:"config"`
}

// NewAndFilter creates an AndFilter over the given filters. An empty filter
// list serializes as "config": [], never null.
func NewAndFilter(filters ...Filter) *AndFilter {
	if filters == nil {
		filters = []Filter{}
	}
	return &AndFilter{Type: "AndFilter", Config: filters}
}

// OrFilter matches items satisfying at least one nested filter.
type OrFilter struct {
	Type   string   `json:"type"`
	Config []Filter `json:"config"`
}

// NewOrFilter creates an OrFilter over the given filters. An empty filter
// list serializes as "config": [], never null.
func NewOrFilter(filters ...Filter) *OrFilter {
	if filters == nil {
		filters = []Filter{}
	}
	return &OrFilter{Type: "OrFilter", Config: filters}
}

// RangeBounds holds the bounds of a range predicate. Only set bounds are
// serialized; an open bound is omitted entirely rather than sent as null.
type RangeBounds struct {
	GT  *float64 `json:"gt,omitempty"`
	GTE *float64 `json:"gte,omitempty"`
	LT  *float64 `json:"lt,omitempty"`
	LTE *float64 `json:"lte,omitempty"`
}

// RangeFilter matches items whose numeric field falls within the bounds.
type RangeFilter struct {
	Type      string       `json:"type"`
	FieldName string       `json:"field_name"`
	Config    *RangeBounds `json:"config"`
}

// NewRangeFilter creates a RangeFilter on the given field.
func NewRangeFilter(field string, bounds *RangeBounds) *RangeFilter {
	return &RangeFilter{Type: "RangeFilter", FieldName: field, Config: bounds}
}

// DateRangeBounds holds the bounds of a date range predicate as RFC 3339
// strings. As with RangeBounds, open bounds are omitted.
type DateRangeBounds struct {
	GT  string `json:"gt,omitempty"`
	GTE string `json:"gte,omitempty"`
	LT  string `json:"lt,omitempty"`
	LTE string `json:"lte,omitempty"`
}

// DateRangeFilter matches items whose timestamp field falls within the bounds.
type DateRangeFilter struct {
	Type      string           `json:"type"`
	FieldName string           `json:"field_name"`
	Config    *DateRangeBounds `json:"config"`
}

// NewDateRangeFilter creates a DateRangeFilter on the given field.
func NewDateRangeFilter(field string, bounds *DateRangeBounds) *DateRangeFilter {
	return &DateRangeFilter{Type: "DateRangeFilter", FieldName: field, Config: bounds}
}

// GeometryFilter matches items whose footprint intersects the configured
// GeoJSON geometry. Config holds any JSON-marshalable geometry representation.
type GeometryFilter struct {
	Type      string `json:"type"`
	FieldName string `json:"field_name"`
	Config    any    `json:"config"`
}

// NewGeometryFilter creates a GeometryFilter on the given field.
func NewGeometryFilter(field string, geometry any) *GeometryFilter {
	return &GeometryFilter{Type: "GeometryFilter", FieldName: field, Config: geometry}
}

// NewGeometryFilterFromBound creates a GeometryFilter from a bounding box,
// rendered as the equivalent closed rectangular polygon.
func NewGeometryFilterFromBound(field string, bound orb.Bound) *GeometryFilter {
	return NewGeometryFilter(field, geojson.NewGeometry(bound.ToPolygon()))
}

// StringInFilter matches items whose string field equals one of the values.
type StringInFilter struct {
	Type      string   `json:"type"`
	FieldName string   `json:"field_name"`
	Config    []string `json:"config"`
}

// NewStringInFilter creates a StringInFilter on the given field.
func NewStringInFilter(field string, values []string) *StringInFilter {
	return &StringInFilter{Type: "StringInFilter", FieldName: field, Config: values}
}

// NumberInFilter matches items whose numeric field equals one of the values.
type NumberInFilter struct {
	Type      string    `json:"type"`
	FieldName string    `json:"field_name"`
	Config    []float64 `json:"config"`
}

// NewNumberInFilter creates a NumberInFilter on the given field.
func NewNumberInFilter(field string, values []float64) *NumberInFilter {
	return &NumberInFilter{Type: "NumberInFilter", FieldName: field, Config: values}
}

func (*AndFilter) filterNode()       {}
func (*OrFilter) filterNode()        {}
func (*RangeFilter) filterNode()     {}
func (*DateRangeFilter) filterNode() {}
func (*GeometryFilter) filterNode()  {}
func (*StringInFilter) filterNode()  {}
func (*NumberInFilter) filterNode()  {}
