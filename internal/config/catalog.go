package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// ItemTypeConfig describes one Planet item type exposed as a STAC collection:
// display metadata, the mapping from Planet asset type codes to media types,
// and the extra queryable properties the item type supports.
type ItemTypeConfig struct {
	ID          string                    `json:"id"`
	Title       string                    `json:"title,omitempty"`
	Description string                    `json:"description,omitempty"`
	AssetTypes  map[string]string         `json:"asset_types,omitempty"`
	Queryables  map[string]map[string]any `json:"queryables,omitempty"`
}

// Catalog holds all item type configurations indexed by ID. It is built once
// at startup and treated as immutable afterwards, so it is safe for
// concurrent reads.
type Catalog struct {
	itemTypes map[string]*ItemTypeConfig
}

// NewCatalog creates a catalog pre-populated with the built-in item types.
func NewCatalog() *Catalog {
	c := &Catalog{itemTypes: make(map[string]*ItemTypeConfig)}
	for _, it := range builtinItemTypes() {
		c.itemTypes[it.ID] = it
	}
	return c
}

// LoadCatalog builds a catalog from the built-in defaults plus any JSON
// overrides found in the given directory. Only files with a .json extension
// are processed; each file holds one ItemTypeConfig.
func LoadCatalog(dir string) (*Catalog, error) {
	catalog := NewCatalog()

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to access catalog directory %q: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("catalog path %q is not a directory", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog directory %q: %w", dir, err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read item type config %q: %w", path, err)
		}

		var it ItemTypeConfig
		if err := json.Unmarshal(data, &it); err != nil {
			return nil, fmt.Errorf("failed to parse item type config %q: %w", path, err)
		}
		if it.ID == "" {
			return nil, fmt.Errorf("item type config %q has no id", path)
		}

		catalog.itemTypes[it.ID] = &it
	}

	return catalog, nil
}

// Has reports whether the catalog contains the given item type.
func (c *Catalog) Has(id string) bool {
	_, ok := c.itemTypes[id]
	return ok
}

// Get returns the configuration for an item type, or nil if unknown.
func (c *Catalog) Get(id string) *ItemTypeConfig {
	return c.itemTypes[id]
}

// IDs returns all item type IDs in stable sorted order. This is the default
// item_types list used when a search names no collections.
func (c *Catalog) IDs() []string {
	ids := make([]string, 0, len(c.itemTypes))
	for id := range c.itemTypes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// All returns all item type configurations in stable ID order.
func (c *Catalog) All() []*ItemTypeConfig {
	configs := make([]*ItemTypeConfig, 0, len(c.itemTypes))
	for _, id := range c.IDs() {
		configs = append(configs, c.itemTypes[id])
	}
	return configs
}

// Count returns the number of item types in the catalog.
func (c *Catalog) Count() int {
	return len(c.itemTypes)
}

// AssetMediaType resolves a Planet asset type code to a media type for the
// given item type. Unknown codes resolve to "UNKNOWN" rather than failing:
// Planet adds asset types faster than the table is updated.
func (c *Catalog) AssetMediaType(itemTypeID, assetType string) string {
	it := c.itemTypes[itemTypeID]
	if it == nil {
		return "UNKNOWN"
	}
	mediaType, ok := it.AssetTypes[assetType]
	if !ok {
		return "UNKNOWN"
	}
	return mediaType
}

const (
	mediaTypeGeoTIFF = "image/tiff; application=geotiff"
	mediaTypeCOG     = "image/tiff; application=geotiff; profile=cloud-optimized"
	mediaTypeXML     = "application/xml"
	mediaTypeJPEG2K  = "image/jp2"
)

// builtinItemTypes returns the default Planet item type catalog.
func builtinItemTypes() []*ItemTypeConfig {
	opticalAssets := map[string]string{
		"basic_analytic_4b":     mediaTypeGeoTIFF,
		"basic_analytic_4b_rpc": mediaTypeXML,
		"basic_analytic_4b_xml": mediaTypeXML,
		"basic_udm2":            mediaTypeGeoTIFF,
		"ortho_analytic_4b":     mediaTypeCOG,
		"ortho_analytic_4b_sr":  mediaTypeCOG,
		"ortho_analytic_4b_xml": mediaTypeXML,
		"ortho_analytic_8b":     mediaTypeCOG,
		"ortho_analytic_8b_sr":  mediaTypeCOG,
		"ortho_analytic_8b_xml": mediaTypeXML,
		"ortho_udm2":            mediaTypeGeoTIFF,
		"ortho_visual":          mediaTypeCOG,
	}

	viewAngleQueryable := map[string]any{
		"description": "Spacecraft off-nadir view angle in degrees",
		"type":        "number",
	}
	cloudCoverQueryable := map[string]any{
		"description": "Ratio of the scene covered by clouds",
		"type":        "number",
		"minimum":     0,
		"maximum":     1,
	}

	return []*ItemTypeConfig{
		{
			ID:          "PSScene",
			Title:       "PlanetScope Scene",
			Description: "PlanetScope basic and orthorectified scenes",
			AssetTypes:  opticalAssets,
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
				"clear_percent": {
					"description": "Percent of the scene that is clear of clouds and haze",
					"type":        "number",
				},
			},
		},
		{
			ID:          "REOrthoTile",
			Title:       "RapidEye OrthoTile",
			Description: "RapidEye orthorectified tiles",
			AssetTypes: map[string]string{
				"analytic":     mediaTypeGeoTIFF,
				"analytic_sr":  mediaTypeGeoTIFF,
				"analytic_xml": mediaTypeXML,
				"udm":          mediaTypeGeoTIFF,
				"visual":       mediaTypeGeoTIFF,
				"visual_xml":   mediaTypeXML,
			},
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
			},
		},
		{
			ID:          "REScene",
			Title:       "RapidEye Scene",
			Description: "RapidEye basic scenes",
			AssetTypes: map[string]string{
				"basic_analytic":     mediaTypeGeoTIFF,
				"basic_analytic_xml": mediaTypeXML,
				"basic_udm":          mediaTypeGeoTIFF,
			},
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
			},
		},
		{
			ID:          "SkySatScene",
			Title:       "SkySat Scene",
			Description: "SkySat basic and orthorectified scenes",
			AssetTypes: map[string]string{
				"basic_analytic":     mediaTypeGeoTIFF,
				"basic_panchromatic": mediaTypeGeoTIFF,
				"ortho_analytic":     mediaTypeGeoTIFF,
				"ortho_analytic_sr":  mediaTypeGeoTIFF,
				"ortho_panchromatic": mediaTypeGeoTIFF,
				"ortho_visual":       mediaTypeGeoTIFF,
			},
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
				"view_angle":  viewAngleQueryable,
				"satellite_azimuth": {
					"description": "Satellite azimuth angle in degrees",
					"type":        "number",
				},
			},
		},
		{
			ID:          "SkySatCollect",
			Title:       "SkySat Collect",
			Description: "SkySat collects composed from multiple scenes",
			AssetTypes: map[string]string{
				"ortho_analytic":     mediaTypeGeoTIFF,
				"ortho_analytic_sr":  mediaTypeGeoTIFF,
				"ortho_panchromatic": mediaTypeGeoTIFF,
				"ortho_visual":       mediaTypeGeoTIFF,
			},
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
				"view_angle":  viewAngleQueryable,
			},
		},
		{
			ID:          "SkySatVideo",
			Title:       "SkySat Video",
			Description: "SkySat full-motion video captures",
			AssetTypes: map[string]string{
				"video_file_mpeg4": "video/mp4",
				"video_frames":     "application/zip",
				"video_metadata":   "application/json",
			},
		},
		{
			ID:          "Landsat8L1G",
			Title:       "Landsat 8 Scene",
			Description: "Landsat 8 scenes processed to Level 1",
			AssetTypes: map[string]string{
				"analytic_b1":  mediaTypeGeoTIFF,
				"analytic_bqa": mediaTypeGeoTIFF,
				"metadata_txt": "text/plain",
				"visual":       mediaTypeGeoTIFF,
			},
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
				"wrs_path": {
					"description": "Worldwide Reference System path number",
					"type":        "integer",
				},
				"wrs_row": {
					"description": "Worldwide Reference System row number",
					"type":        "integer",
				},
			},
		},
		{
			ID:          "Sentinel2L1C",
			Title:       "Sentinel-2 Tile",
			Description: "Sentinel-2 tiles processed to Level 1C",
			AssetTypes: map[string]string{
				"analytic_b1":  mediaTypeJPEG2K,
				"analytic_b2":  mediaTypeJPEG2K,
				"analytic_b3":  mediaTypeJPEG2K,
				"analytic_b4":  mediaTypeJPEG2K,
				"analytic_b8":  mediaTypeJPEG2K,
				"metadata_aux": mediaTypeXML,
				"visual":       mediaTypeGeoTIFF,
			},
			Queryables: map[string]map[string]any{
				"cloud_cover": cloudCoverQueryable,
			},
		},
	}
}
