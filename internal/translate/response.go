package translate

import (
	"context"
	"log/slog"
	"sync"

	gostac "github.com/planetlabs/go-stac"
	"golang.org/x/sync/errgroup"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/internal/stac"
)

// defaultEnrichmentConcurrency bounds the per-item asset fetch fan-out.
const defaultEnrichmentConcurrency = 8

// Assembler turns a Planet search response into a STAC FeatureCollection.
// Items are enriched concurrently: each one needs its own asset-listing
// fetch, which dominates response latency when done sequentially.
type Assembler struct {
	resolver    *AssetResolver
	codec       *stac.TokenCodec
	baseURL     string
	stacVersion string
	concurrency int
	logger      *slog.Logger
}

// NewAssembler creates a response assembler. concurrency <= 0 selects the
// default fan-out bound.
func NewAssembler(resolver *AssetResolver, codec *stac.TokenCodec, baseURL, stacVersion string, concurrency int, logger *slog.Logger) *Assembler {
	if concurrency <= 0 {
		concurrency = defaultEnrichmentConcurrency
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Assembler{
		resolver:    resolver,
		codec:       codec,
		baseURL:     baseURL,
		stacVersion: stacVersion,
		concurrency: concurrency,
		logger:      logger,
	}
}

// Assemble maps and enriches every feature in the response, then attaches the
// search links. A feature whose enrichment fails is dropped; the batch always
// succeeds. Feature order follows enrichment completion, not Planet's
// response order.
func (a *Assembler) Assemble(ctx context.Context, auth planet.Auth, resp *planet.SearchResponse) (*stac.ItemCollection, error) {
	var mu sync.Mutex
	items := make([]*gostac.Item, 0, len(resp.Features))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)

	for _, feature := range resp.Features {
		g.Go(func() error {
			item, err := a.enrich(gctx, auth, feature)
			if err != nil {
				a.logger.WarnContext(gctx, "dropping item after enrichment failure",
					slog.String("item_id", feature.ID),
					slog.String("error", err.Error()),
				)
				return nil
			}
			mu.Lock()
			items = append(items, item)
			mu.Unlock()
			return nil
		})
	}

	// Workers never return errors; Wait only observes context cancellation.
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	collection := stac.NewItemCollection(items)
	if err := a.addSearchLinks(collection, resp.Links); err != nil {
		return nil, err
	}
	return collection, nil
}

// EnrichItem maps and enriches a single feature, for the single-item lookup
// path.
func (a *Assembler) EnrichItem(ctx context.Context, auth planet.Auth, feature *planet.Feature) (*gostac.Item, error) {
	return a.enrich(ctx, auth, feature)
}

func (a *Assembler) enrich(ctx context.Context, auth planet.Auth, feature *planet.Feature) (*gostac.Item, error) {
	item := MapItem(feature, a.baseURL, a.stacVersion)

	var selfHref string
	if item.Collection != "" {
		selfHref = a.baseURL + ItemPath(item.Collection, item.Id)
	}

	assets, err := a.resolver.Resolve(ctx, auth, item.Collection,
		feature.Links.Thumbnail, feature.Links.Assets, selfHref)
	if err != nil {
		return nil, err
	}
	item.Assets = assets
	return item, nil
}

// addSearchLinks attaches self and root plus, when Planet supplied
// continuation URLs, next and prev links in both the GET and POST shapes of
// the pagination extension.
func (a *Assembler) addSearchLinks(collection *stac.ItemCollection, links planet.ResponseLinks) error {
	collection.AddLink("self", a.baseURL+"/search", "application/geo+json")
	collection.AddLink("root", a.baseURL, "application/json")

	for _, page := range []struct {
		rel string
		url string
	}{
		{"next", links.Next},
		{"prev", links.Prev},
	} {
		if page.url == "" {
			continue
		}
		token, err := a.codec.Mint(page.url)
		if err != nil {
			return err
		}
		collection.Links = append(collection.Links,
			&stac.Link{
				Rel:    page.rel,
				Href:   a.baseURL + "/search?token=" + token,
				Type:   "application/geo+json",
				Method: "GET",
			},
			&stac.Link{
				Rel:    page.rel,
				Href:   a.baseURL + "/search",
				Type:   "application/geo+json",
				Method: "POST",
				Body:   map[string]any{"token": token},
			},
		)
	}

	return nil
}
