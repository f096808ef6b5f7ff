package stac

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestParseSearchRequestGET(t *testing.T) {
	r := httptest.NewRequest("GET",
		"/search?bbox=-10,40,-5,45&datetime=2024-01-01T00:00:00Z/2024-02-01T00:00:00Z&collections=PSScene,SkySatScene&limit=50&sortby=-datetime&token=abc", nil)

	req, err := ParseSearchRequest(r)
	if err != nil {
		t.Fatalf("ParseSearchRequest failed: %v", err)
	}

	if len(req.BBox) != 4 || req.BBox[0] != -10 || req.BBox[3] != 45 {
		t.Errorf("unexpected bbox: %v", req.BBox)
	}
	if req.DateTime != "2024-01-01T00:00:00Z/2024-02-01T00:00:00Z" {
		t.Errorf("unexpected datetime: %q", req.DateTime)
	}
	if len(req.Collections) != 2 || req.Collections[1] != "SkySatScene" {
		t.Errorf("unexpected collections: %v", req.Collections)
	}
	if req.Limit != 50 {
		t.Errorf("unexpected limit: %d", req.Limit)
	}
	if len(req.Sortby) != 1 || req.Sortby[0].Field != "datetime" || req.Sortby[0].Direction != "desc" {
		t.Errorf("unexpected sortby: %+v", req.Sortby)
	}
	if req.Token != "abc" {
		t.Errorf("unexpected token: %q", req.Token)
	}
}

func TestParseSearchRequestBadBBox(t *testing.T) {
	for _, query := range []string{"bbox=1,2,3", "bbox=1,2,3,x"} {
		r := httptest.NewRequest("GET", "/search?"+query, nil)
		if _, err := ParseSearchRequest(r); err == nil {
			t.Errorf("expected error for %q", query)
		}
	}
}

func TestParseSearchRequestFilter(t *testing.T) {
	r := httptest.NewRequest("GET",
		`/search?filter={"op":"and","args":[]}&filter-lang=cql2-json`, nil)

	req, err := ParseSearchRequest(r)
	if err != nil {
		t.Fatalf("ParseSearchRequest failed: %v", err)
	}
	if req.Filter == nil || req.Filter["op"] != "and" {
		t.Errorf("unexpected filter: %v", req.Filter)
	}
	if req.FilterLang != "cql2-json" {
		t.Errorf("unexpected filter-lang: %q", req.FilterLang)
	}
}

func TestParseSearchRequestInvalidFilter(t *testing.T) {
	r := httptest.NewRequest("GET", "/search?filter=not-json", nil)
	if _, err := ParseSearchRequest(r); err == nil {
		t.Error("expected error for non-JSON filter")
	}
}

func TestParseSortbyParam(t *testing.T) {
	tests := []struct {
		input string
		want  []SortbyItem
	}{
		{"datetime", []SortbyItem{{Field: "datetime", Direction: "asc"}}},
		{"+acquired", []SortbyItem{{Field: "acquired", Direction: "asc"}}},
		{"-published", []SortbyItem{{Field: "published", Direction: "desc"}}},
		{"-datetime,published", []SortbyItem{
			{Field: "datetime", Direction: "desc"},
			{Field: "published", Direction: "asc"},
		}},
	}

	for _, tt := range tests {
		got, err := parseSortbyParam(tt.input)
		if err != nil {
			t.Errorf("parseSortbyParam(%q) failed: %v", tt.input, err)
			continue
		}
		if len(got) != len(tt.want) {
			t.Errorf("parseSortbyParam(%q) = %+v, want %+v", tt.input, got, tt.want)
			continue
		}
		for i := range got {
			if got[i] != tt.want[i] {
				t.Errorf("parseSortbyParam(%q)[%d] = %+v, want %+v", tt.input, i, got[i], tt.want[i])
			}
		}
	}

	if _, err := parseSortbyParam("-"); err == nil {
		t.Error("expected error for bare direction prefix")
	}
}

func TestParseSearchRequestBody(t *testing.T) {
	body := strings.NewReader(`{
		"collections": ["PSScene"],
		"ids": ["a", "b"],
		"limit": 5,
		"token": "tok",
		"filter": {"op": "=", "args": [{"property": "properties.cloud_cover"}, 0.1]},
		"sortby": [{"field": "datetime", "direction": "desc"}]
	}`)

	req, err := ParseSearchRequestBody(body)
	if err != nil {
		t.Fatalf("ParseSearchRequestBody failed: %v", err)
	}
	if len(req.Collections) != 1 || req.Collections[0] != "PSScene" {
		t.Errorf("unexpected collections: %v", req.Collections)
	}
	if len(req.IDs) != 2 {
		t.Errorf("unexpected ids: %v", req.IDs)
	}
	if req.Limit != 5 || req.Token != "tok" {
		t.Errorf("unexpected limit/token: %d %q", req.Limit, req.Token)
	}
	if req.Filter["op"] != "=" {
		t.Errorf("unexpected filter: %v", req.Filter)
	}
	if len(req.Sortby) != 1 || req.Sortby[0].Direction != "desc" {
		t.Errorf("unexpected sortby: %+v", req.Sortby)
	}
}

func TestParseSearchRequestBodyInvalid(t *testing.T) {
	if _, err := ParseSearchRequestBody(strings.NewReader("{")); err == nil {
		t.Error("expected error for truncated body")
	}
	if _, err := ParseSearchRequestBody(strings.NewReader(`{"limit": -1}`)); err == nil {
		t.Error("expected error for negative limit")
	}
}
