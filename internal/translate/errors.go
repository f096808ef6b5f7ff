// Package translate converts between the STAC search dialect the proxy
// exposes and Planet's quick-search dialect: requests are compiled into
// filter trees, responses are normalized into STAC items.
package translate

import "errors"

var (
	// ErrUnsupportedSortField is returned when a sort criterion names a field
	// Planet cannot sort by. Sorting is strict: a silently ignored sort would
	// hand back misordered pages.
	ErrUnsupportedSortField = errors.New("unsupported sort field")

	// ErrInvalidFilter is returned when a CQL2 filter is structurally broken,
	// as opposed to merely using an operator the proxy does not translate.
	ErrInvalidFilter = errors.New("invalid filter expression")

	// ErrInvalidDateTime is returned when datetime parsing fails.
	ErrInvalidDateTime = errors.New("invalid datetime format")
)
