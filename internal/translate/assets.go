package translate

import (
	"context"
	"fmt"
	"log/slog"

	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
)

// AssetListingFetcher fetches an item's asset listing from Planet. Satisfied
// by *planet.Client.
type AssetListingFetcher interface {
	GetAssetListing(ctx context.Context, auth planet.Auth, assetsURL string) (planet.AssetListing, error)
}

// AssetTypeTable resolves a collection's asset type codes to media types.
// Satisfied by *config.Catalog.
type AssetTypeTable interface {
	AssetMediaType(collection, assetType string) string
}

// AssetResolver builds a STAC item's assets map. Each item costs one
// authenticated fetch of its Planet asset listing.
type AssetResolver struct {
	fetcher AssetListingFetcher
	types   AssetTypeTable
	logger  *slog.Logger
}

// NewAssetResolver creates an asset resolver.
func NewAssetResolver(fetcher AssetListingFetcher, types AssetTypeTable, logger *slog.Logger) *AssetResolver {
	if logger == nil {
		logger = slog.Default()
	}
	return &AssetResolver{fetcher: fetcher, types: types, logger: logger}
}

// Resolve produces the assets map for one item. thumbnailHref and assetsHref
// are the item's Planet links; selfHref, when non-empty, is the item's URL on
// this service and yields an additional proxied thumbnail asset. A fetch or
// decode failure is returned to the caller, which decides whether to drop the
// item.
func (r *AssetResolver) Resolve(ctx context.Context, auth planet.Auth, collection, thumbnailHref, assetsHref, selfHref string) (map[string]*gostac.Asset, error) {
	assets := map[string]*gostac.Asset{
		"external_thumbnail": {
			Href:  thumbnailHref,
			Title: "Thumbnail hosted by Planet",
			Type:  "image/png",
			Roles: []string{"thumbnail"},
		},
	}

	if selfHref != "" {
		assets["thumbnail"] = &gostac.Asset{
			Href:  selfHref + "/thumbnail",
			Title: "Thumbnail",
			Type:  "image/png",
			Roles: []string{"thumbnail"},
		}
	}

	listing, err := r.fetcher.GetAssetListing(ctx, auth, assetsHref)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assets from %s: %w", assetsHref, err)
	}

	for name, asset := range listing {
		code := asset.Type
		if code == "" {
			code = name
		}
		assets[name] = &gostac.Asset{
			Href:  asset.Links.Self,
			Type:  r.types.AssetMediaType(collection, code),
			Roles: []string{"data"},
		}
	}

	return assets, nil
}
