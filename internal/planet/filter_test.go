package planet

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestRangeFilterOmitsOpenBounds(t *testing.T) {
	lo := 0.1
	data, err := json.Marshal(NewRangeFilter("cloud_cover", &RangeBounds{GTE: &lo}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := string(data)
	if !strings.Contains(got, `"type":"RangeFilter"`) {
		t.Errorf("missing type discriminator: %s", got)
	}
	if !strings.Contains(got, `"gte":0.1`) {
		t.Errorf("missing gte bound: %s", got)
	}
	for _, key := range []string{"gt", "lt", "lte"} {
		if strings.Contains(got, `"`+key+`"`) {
			t.Errorf("open bound %q must be omitted, not null: %s", key, got)
		}
	}
}

func TestDateRangeFilterOmitsOpenBounds(t *testing.T) {
	data, err := json.Marshal(NewDateRangeFilter("acquired", &DateRangeBounds{GTE: "2024-01-01T00:00:00Z"}))
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	got := string(data)
	if !strings.Contains(got, `"field_name":"acquired"`) {
		t.Errorf("missing field name: %s", got)
	}
	if strings.Contains(got, `"lte"`) || strings.Contains(got, "null") {
		t.Errorf("open bounds must be omitted entirely: %s", got)
	}
}

func TestEmptyLogicalFiltersMarshalAsEmptyArray(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   string
	}{
		{"and", NewAndFilter(), `{"type":"AndFilter","config":[]}`},
		{"or", NewOrFilter(), `{"type":"OrFilter","config":[]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.filter)
			if err != nil {
				t.Fatalf("marshal failed: %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("got %s, want %s", data, tt.want)
			}
		})
	}
}

func TestSearchRequestWireShape(t *testing.T) {
	req := &SearchRequest{
		ItemTypes: []string{"PSScene"},
		Filter: NewAndFilter(
			NewStringInFilter("quality_category", []string{"standard"}),
		),
	}

	data, err := json.Marshal(req)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var decoded map[string]any
	if err := json.Unmarshal(data, &decoded); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}

	root, ok := decoded["filter"].(map[string]any)
	if !ok || root["type"] != "AndFilter" {
		t.Fatalf("root must be an AndFilter: %s", data)
	}
	config, ok := root["config"].([]any)
	if !ok || len(config) != 1 {
		t.Fatalf("unexpected root config: %s", data)
	}
	leaf := config[0].(map[string]any)
	if leaf["type"] != "StringInFilter" || leaf["field_name"] != "quality_category" {
		t.Errorf("unexpected leaf: %v", leaf)
	}
}
