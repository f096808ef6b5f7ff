package planet

import "encoding/json"

// SearchRequest is the body of a quick-search request: the item types to
// search and a single root filter.
type SearchRequest struct {
	ItemTypes []string `json:"item_types"`
	Filter    Filter   `json:"filter"`
}

// FeatureLinks holds the hypermedia links Planet attaches to each item.
type FeatureLinks struct {
	Self      string `json:"_self"`
	Assets    string `json:"assets"`
	Thumbnail string `json:"thumbnail"`
}

// Feature is one item in a Planet search response. Properties are kept as a
// raw map: each item type carries its own property set, and the proxy passes
// them through rather than modeling every variant.
type Feature struct {
	ID         string          `json:"id"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
	Links      FeatureLinks    `json:"_links"`
}

// ItemType returns the item's Planet item type (the STAC collection it maps
// to), or empty when the property is absent.
func (f *Feature) ItemType() string {
	itemType, _ := f.Properties["item_type"].(string)
	return itemType
}

// Acquired returns the item's acquisition timestamp string, or empty when
// the property is absent.
func (f *Feature) Acquired() string {
	acquired, _ := f.Properties["acquired"].(string)
	return acquired
}

// ResponseLinks holds the continuation links of a paged search response.
type ResponseLinks struct {
	Self string `json:"_self"`
	Next string `json:"_next"`
	Prev string `json:"_prev"`
}

// SearchResponse is a page of quick-search results.
type SearchResponse struct {
	Features []*Feature    `json:"features"`
	Links    ResponseLinks `json:"_links"`
}

// AssetLinks holds the hypermedia links of one asset.
type AssetLinks struct {
	Self     string `json:"_self"`
	Activate string `json:"activate,omitempty"`
}

// Asset is one entry in an item's asset listing.
type Asset struct {
	Type   string     `json:"type"`
	Status string     `json:"status,omitempty"`
	Links  AssetLinks `json:"_links"`
}

// AssetListing maps asset names to assets, as returned by an item's assets
// endpoint.
type AssetListing map[string]Asset

// ItemTypeInfo is one entry in Planet's item-types listing.
type ItemTypeInfo struct {
	ID string `json:"id"`
}

// ItemTypesResponse is the body of the item-types listing endpoint.
type ItemTypesResponse struct {
	ItemTypes []ItemTypeInfo `json:"item_types"`
}
