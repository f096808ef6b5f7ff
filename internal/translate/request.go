package translate

import (
	"fmt"
	"log/slog"
	"net/url"
	"strconv"
	"strings"

	"github.com/paulmach/orb"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/internal/stac"
)

// sortFields maps the sortable STAC field names to Planet's. Anything outside
// this table is rejected: a silently dropped sort would return misordered
// pages with no indication to the client.
var sortFields = map[string]string{
	"acquired":  "acquired",
	"published": "published",
	"datetime":  "acquired",
}

// CompiledRequest is the Planet-side rendering of a STAC search request.
type CompiledRequest struct {
	Body   *planet.SearchRequest
	Params url.Values
}

// CompileSearchRequest compiles a STAC search request into a Planet
// quick-search request. defaultItemTypes is the catalog searched when neither
// the collections field nor a collection filter predicate names one.
func CompileSearchRequest(req *stac.SearchRequest, defaultItemTypes []string, logger *slog.Logger) (*CompiledRequest, error) {
	if logger == nil {
		logger = slog.Default()
	}

	var filters []planet.Filter
	itemTypes := append([]string(nil), req.Collections...)

	if req.DateTime != "" {
		f, err := compileDateTime(req.DateTime)
		if err != nil {
			return nil, err
		}
		if f != nil {
			filters = append(filters, f)
		}
	}

	if len(req.BBox) >= 4 {
		filters = append(filters, bboxFilter(req.BBox))
	}

	if len(req.Intersects) > 0 {
		filters = append(filters, planet.NewGeometryFilter("geometry", req.Intersects))
	}

	if req.Filter != nil {
		f, extracted, err := CompileCQL2Filter(req.Filter, logger)
		if err != nil {
			return nil, err
		}
		if f != nil {
			filters = append(filters, f)
		}
		itemTypes = append(itemTypes, extracted...)
	}

	itemTypes = dedupe(itemTypes)
	if len(itemTypes) == 0 {
		itemTypes = defaultItemTypes
	}

	params := url.Values{}
	if req.Limit > 0 {
		params.Set("_page_size", strconv.Itoa(req.Limit))
	}

	if len(req.Sortby) > 0 {
		sort, err := compileSort(req.Sortby[0])
		if err != nil {
			return nil, err
		}
		params.Set("_sort", sort)
	}

	return &CompiledRequest{
		Body: &planet.SearchRequest{
			ItemTypes: itemTypes,
			Filter:    planet.NewAndFilter(filters...),
		},
		Params: params,
	}, nil
}

// compileDateTime renders a STAC datetime (single instant or "start/end"
// interval) into a DateRangeFilter on "acquired". The ".." sentinel marks an
// open bound and omits it rather than sending null.
func compileDateTime(datetime string) (planet.Filter, error) {
	const open = ".."

	parts := strings.Split(datetime, "/")
	bounds := &planet.DateRangeBounds{}

	switch len(parts) {
	case 1:
		if parts[0] == open || parts[0] == "" {
			return nil, fmt.Errorf("%w: %q", ErrInvalidDateTime, datetime)
		}
		bounds.GTE = parts[0]
		bounds.LTE = parts[0]
	case 2:
		if parts[0] != open && parts[0] != "" {
			bounds.GTE = parts[0]
		}
		if parts[1] != open && parts[1] != "" {
			bounds.LTE = parts[1]
		}
		if bounds.GTE == "" && bounds.LTE == "" {
			return nil, fmt.Errorf("%w: both interval bounds open", ErrInvalidDateTime)
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidDateTime, datetime)
	}

	return planet.NewDateRangeFilter("acquired", bounds), nil
}

// bboxFilter converts a bounding box into the equivalent rectangular polygon
// GeometryFilter. 6-coordinate boxes drop the elevation dimension.
func bboxFilter(bbox []float64) planet.Filter {
	var minX, minY, maxX, maxY float64
	if len(bbox) >= 6 {
		minX, minY, maxX, maxY = bbox[0], bbox[1], bbox[3], bbox[4]
	} else {
		minX, minY, maxX, maxY = bbox[0], bbox[1], bbox[2], bbox[3]
	}

	bound := orb.Bound{Min: orb.Point{minX, minY}, Max: orb.Point{maxX, maxY}}
	return planet.NewGeometryFilterFromBound("geometry", bound)
}

func compileSort(sort stac.SortbyItem) (string, error) {
	field, ok := sortFields[sort.Field]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSortField, sort.Field)
	}

	direction := sort.Direction
	if direction != "desc" {
		direction = "asc"
	}
	return field + " " + direction, nil
}

func dedupe(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
