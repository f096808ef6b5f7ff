package translate

import (
	"encoding/json"
	"fmt"

	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/pkg/geojson"
)

// ItemPath returns an item's path relative to the service root.
func ItemPath(collection, id string) string {
	return fmt.Sprintf("/collections/%s/items/%s", collection, id)
}

// MapItem converts a Planet feature to a STAC Item. The mapping is pure:
// geometry passes through verbatim, bbox derives from it, and Planet's
// properties are copied with an added "datetime" key mirroring "acquired".
// Assets are not populated here; that requires an outbound fetch and is the
// asset resolver's job.
func MapItem(feature *planet.Feature, baseURL, stacVersion string) *gostac.Item {
	collection := feature.ItemType()

	item := &gostac.Item{
		Version:    stacVersion,
		Id:         feature.ID,
		Collection: collection,
		Properties: make(map[string]any, len(feature.Properties)+1),
		Assets:     make(map[string]*gostac.Asset),
		Links:      make([]*gostac.Link, 0, 4),
	}

	if len(feature.Geometry) > 0 {
		item.Geometry = feature.Geometry

		var geom geojson.Geometry
		if err := json.Unmarshal(feature.Geometry, &geom); err == nil {
			item.Bbox = geojson.ComputeBBox(&geom)
		}
	}

	for k, v := range feature.Properties {
		item.Properties[k] = v
	}
	if acquired := feature.Acquired(); acquired != "" {
		item.Properties["datetime"] = acquired
	}

	addItemLinks(item, collection, baseURL)
	return item
}

func addItemLinks(item *gostac.Item, collection, baseURL string) {
	if baseURL == "" {
		return
	}

	item.Links = append(item.Links,
		&gostac.Link{
			Rel:  "self",
			Href: baseURL + ItemPath(collection, item.Id),
			Type: "application/geo+json",
		},
		&gostac.Link{
			Rel:  "parent",
			Href: fmt.Sprintf("%s/collections/%s", baseURL, collection),
			Type: "application/json",
		},
		&gostac.Link{
			Rel:  "collection",
			Href: fmt.Sprintf("%s/collections/%s", baseURL, collection),
			Type: "application/json",
		},
		&gostac.Link{
			Rel:  "root",
			Href: baseURL,
			Type: "application/json",
		},
	)
}
