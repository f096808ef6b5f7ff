package api

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	gostac "github.com/planetlabs/go-stac"

	"github.com/robert-malhotra/planet-stac-proxy/internal/config"
	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/internal/stac"
	"github.com/robert-malhotra/planet-stac-proxy/internal/translate"
)

// Handler holds the dependencies for all HTTP handlers.
type Handler struct {
	client    *planet.Client
	catalog   *config.Catalog
	ring      *planet.KeyRing
	codec     *stac.TokenCodec
	assembler *translate.Assembler
	cfg       *config.Config
	logger    *slog.Logger
}

// NewHandler creates a handler with the given dependencies.
func NewHandler(client *planet.Client, catalog *config.Catalog, ring *planet.KeyRing, codec *stac.TokenCodec, assembler *translate.Assembler, cfg *config.Config, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		client:    client,
		catalog:   catalog,
		ring:      ring,
		codec:     codec,
		assembler: assembler,
		cfg:       cfg,
		logger:    logger,
	}
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// LandingPage handles GET /.
func (h *Handler) LandingPage(w http.ResponseWriter, r *http.Request) {
	base := h.cfg.STAC.BaseURL

	lp := stac.NewLandingPage("planet-stac-proxy", h.cfg.STAC.Title, h.cfg.STAC.Description,
		h.cfg.STAC.Version, stac.DefaultConformance())
	lp.AddLink("self", base, "application/json")
	lp.AddLink("root", base, "application/json")
	lp.AddLink("conformance", base+"/conformance", "application/json")
	lp.AddLink("data", base+"/collections", "application/json")
	lp.Links = append(lp.Links,
		&stac.Link{Rel: "search", Href: base + "/search", Type: "application/geo+json", Method: "GET"},
		&stac.Link{Rel: "search", Href: base + "/search", Type: "application/geo+json", Method: "POST"},
	)

	WriteJSON(w, http.StatusOK, lp)
}

// Conformance handles GET /conformance.
func (h *Handler) Conformance(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, stac.Conformance{ConformsTo: stac.DefaultConformance()})
}

// Collections handles GET /collections. The catalog is filtered to the item
// types Planet currently serves when credentials allow the check; without
// them the full configured catalog is returned.
func (h *Handler) Collections(w http.ResponseWriter, r *http.Request) {
	configs := h.catalog.All()

	if auth, ok := resolveAuth(r, h.ring); ok {
		if live, err := h.client.ListItemTypes(r.Context(), auth); err == nil {
			serving := make(map[string]bool, len(live))
			for _, id := range live {
				serving[id] = true
			}
			filtered := configs[:0:0]
			for _, it := range configs {
				if serving[it.ID] {
					filtered = append(filtered, it)
				}
			}
			configs = filtered
		} else {
			h.logger.WarnContext(r.Context(), "item type listing unavailable, serving configured catalog",
				slog.String("error", err.Error()),
			)
		}
	}

	collections := make([]*gostac.Collection, 0, len(configs))
	for _, it := range configs {
		collections = append(collections, h.buildCollection(it))
	}

	list := stac.NewCollectionsList(collections)
	base := h.cfg.STAC.BaseURL
	list.Links = append(list.Links,
		&stac.Link{Rel: "self", Href: base + "/collections", Type: "application/json"},
		&stac.Link{Rel: "root", Href: base, Type: "application/json"},
	)

	WriteJSON(w, http.StatusOK, list)
}

// Collection handles GET /collections/{collectionId}.
func (h *Handler) Collection(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionId")
	it := h.catalog.Get(id)
	if it == nil {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", id))
		return
	}
	WriteJSON(w, http.StatusOK, h.buildCollection(it))
}

// Queryables handles GET /queryables, the properties filterable across all
// collections.
func (h *Handler) Queryables(w http.ResponseWriter, r *http.Request) {
	base := h.cfg.STAC.BaseURL
	WriteJSON(w, http.StatusOK, stac.NewQueryables(base+"/queryables", "Queryables", coreQueryables()))
}

// CollectionQueryables handles GET /collections/{collectionId}/queryables.
func (h *Handler) CollectionQueryables(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionId")
	it := h.catalog.Get(id)
	if it == nil {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", id))
		return
	}

	props := coreQueryables()
	for name, schema := range it.Queryables {
		props[name] = schema
	}

	base := h.cfg.STAC.BaseURL
	uri := fmt.Sprintf("%s/collections/%s/queryables", base, id)
	WriteJSON(w, http.StatusOK, stac.NewQueryables(uri, "Queryables for "+id, props))
}

// Items handles GET /collections/{collectionId}/items as a search scoped to
// one collection.
func (h *Handler) Items(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "collectionId")
	if !h.catalog.Has(id) {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", id))
		return
	}

	req, err := stac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	req.Collections = []string{id}

	h.executeSearch(w, r, req)
}

// Item handles GET /collections/{collectionId}/items/{itemId}.
func (h *Handler) Item(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	itemID := chi.URLParam(r, "itemId")

	if !h.catalog.Has(collectionID) {
		WriteNotFound(w, fmt.Sprintf("collection %q not found", collectionID))
		return
	}

	auth, ok := resolveAuth(r, h.ring)
	if !ok {
		WriteUnauthorized(w, "no Planet credentials available")
		return
	}

	feature, err := h.client.GetItem(r.Context(), auth, collectionID, itemID)
	if err != nil {
		h.writePlanetError(w, r, err)
		return
	}

	item, err := h.assembler.EnrichItem(r.Context(), auth, feature)
	if err != nil {
		h.writePlanetError(w, r, err)
		return
	}

	WriteGeoJSON(w, http.StatusOK, item)
}

// ItemThumbnail handles GET /collections/{collectionId}/items/{itemId}/thumbnail,
// proxying the binary thumbnail so browsers need no Planet credentials.
func (h *Handler) ItemThumbnail(w http.ResponseWriter, r *http.Request) {
	collectionID := chi.URLParam(r, "collectionId")
	itemID := chi.URLParam(r, "itemId")

	auth, ok := resolveAuth(r, h.ring)
	if !ok {
		WriteUnauthorized(w, "no Planet credentials available")
		return
	}

	feature, err := h.client.GetItem(r.Context(), auth, collectionID, itemID)
	if err != nil {
		h.writePlanetError(w, r, err)
		return
	}
	if feature.Links.Thumbnail == "" {
		WriteNotFound(w, "item has no thumbnail")
		return
	}

	body, contentType, err := h.client.GetRaw(r.Context(), auth, feature.Links.Thumbnail)
	if err != nil {
		h.writePlanetError(w, r, err)
		return
	}

	if contentType == "" {
		contentType = "image/png"
	}
	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// SearchGET handles GET /search.
func (h *Handler) SearchGET(w http.ResponseWriter, r *http.Request) {
	req, err := stac.ParseSearchRequest(r)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	h.executeSearch(w, r, req)
}

// SearchPOST handles POST /search.
func (h *Handler) SearchPOST(w http.ResponseWriter, r *http.Request) {
	req, err := stac.ParseSearchRequestBody(r.Body)
	if err != nil {
		WriteInvalidParameter(w, err.Error())
		return
	}
	h.executeSearch(w, r, req)
}

// executeSearch runs the three mutually exclusive search paths: token
// continuation, direct id lookup, and compiled quick-search.
func (h *Handler) executeSearch(w http.ResponseWriter, r *http.Request, req *stac.SearchRequest) {
	auth, ok := resolveAuth(r, h.ring)
	if !ok {
		WriteUnauthorized(w, "no Planet credentials available")
		return
	}

	req.Limit = h.clampLimit(req.Limit)

	if req.Token != "" {
		h.searchByToken(w, r, auth, req.Token)
		return
	}
	if len(req.IDs) > 0 {
		h.searchByIDs(w, r, auth, req)
		return
	}

	compiled, err := translate.CompileSearchRequest(req, h.catalog.IDs(), h.logger)
	if err != nil {
		switch {
		case errors.Is(err, translate.ErrUnsupportedSortField),
			errors.Is(err, translate.ErrInvalidFilter),
			errors.Is(err, translate.ErrInvalidDateTime):
			WriteInvalidParameter(w, err.Error())
		default:
			WriteInternalError(w, err.Error())
		}
		return
	}

	resp, err := h.client.QuickSearch(r.Context(), auth, compiled.Params, compiled.Body)
	if err != nil {
		h.writePlanetError(w, r, err)
		return
	}

	h.writeAssembled(w, r, auth, resp)
}

// searchByToken resolves the pagination token and dereferences the
// continuation URL it protects.
func (h *Handler) searchByToken(w http.ResponseWriter, r *http.Request, auth planet.Auth, token string) {
	continuation, err := h.codec.Resolve(token)
	if err != nil {
		WriteInvalidParameter(w, "invalid pagination token")
		return
	}

	resp, err := h.client.GetPage(r.Context(), auth, continuation)
	if err != nil {
		h.writePlanetError(w, r, err)
		return
	}

	h.writeAssembled(w, r, auth, resp)
}

// searchByIDs bypasses filter compilation: each id is fetched directly from
// every candidate collection and misses are skipped.
func (h *Handler) searchByIDs(w http.ResponseWriter, r *http.Request, auth planet.Auth, req *stac.SearchRequest) {
	collections := req.Collections
	if len(collections) == 0 {
		collections = h.catalog.IDs()
	}

	items := make([]*gostac.Item, 0, len(req.IDs))
	for _, id := range req.IDs {
		for _, collection := range collections {
			feature, err := h.client.GetItem(r.Context(), auth, collection, id)
			if err != nil {
				var upstream *planet.UpstreamError
				if errors.As(err, &upstream) && upstream.StatusCode == http.StatusNotFound {
					continue
				}
				h.writePlanetError(w, r, err)
				return
			}

			item, err := h.assembler.EnrichItem(r.Context(), auth, feature)
			if err != nil {
				h.logger.WarnContext(r.Context(), "dropping item after enrichment failure",
					slog.String("item_id", id),
					slog.String("error", err.Error()),
				)
				continue
			}
			items = append(items, item)
			break
		}
	}

	collection := stac.NewItemCollection(items)
	base := h.cfg.STAC.BaseURL
	collection.AddLink("self", base+"/search", "application/geo+json")
	collection.AddLink("root", base, "application/json")

	WriteGeoJSON(w, http.StatusOK, collection)
}

func (h *Handler) writeAssembled(w http.ResponseWriter, r *http.Request, auth planet.Auth, resp *planet.SearchResponse) {
	collection, err := h.assembler.Assemble(r.Context(), auth, resp)
	if err != nil {
		WriteInternalError(w, err.Error())
		return
	}
	WriteGeoJSON(w, http.StatusOK, collection)
}

// writePlanetError maps an upstream failure onto the response, preserving
// Planet's status for client-class errors.
func (h *Handler) writePlanetError(w http.ResponseWriter, r *http.Request, err error) {
	var upstream *planet.UpstreamError
	if errors.As(err, &upstream) {
		if upstream.StatusCode == http.StatusNotFound {
			WriteNotFound(w, "not found")
			return
		}
		WriteUpstreamError(w, upstream.StatusCode, upstream.Error())
		return
	}

	h.logger.ErrorContext(r.Context(), "planet request failed",
		slog.String("error", err.Error()),
	)
	WriteUpstreamError(w, http.StatusBadGateway, "upstream request failed")
}

func (h *Handler) clampLimit(limit int) int {
	if limit <= 0 {
		return h.cfg.Features.DefaultLimit
	}
	if limit > h.cfg.Features.MaxLimit {
		return h.cfg.Features.MaxLimit
	}
	return limit
}

// buildCollection renders one catalog entry as a STAC Collection. Planet
// publishes no per-item-type extent, so the spatial extent is global and the
// temporal extent open.
func (h *Handler) buildCollection(it *config.ItemTypeConfig) *gostac.Collection {
	base := h.cfg.STAC.BaseURL

	c := stac.NewCollection(it.ID, it.Title, it.Description, h.cfg.STAC.Version)
	c.License = "proprietary"
	c.Extent = &gostac.Extent{
		Spatial: &gostac.SpatialExtent{
			Bbox: [][]float64{{-180, -90, 180, 90}},
		},
		Temporal: &gostac.TemporalExtent{
			Interval: [][]any{{nil, nil}},
		},
	}
	c.Providers = []*gostac.Provider{
		{
			Name:  "Planet Labs PBC",
			Roles: []string{"producer", "licensor", "host"},
			Url:   "https://www.planet.com",
		},
	}

	c.Links = append(c.Links,
		&gostac.Link{Rel: "self", Href: fmt.Sprintf("%s/collections/%s", base, it.ID), Type: "application/json"},
		&gostac.Link{Rel: "parent", Href: base, Type: "application/json"},
		&gostac.Link{Rel: "root", Href: base, Type: "application/json"},
		&gostac.Link{Rel: "items", Href: fmt.Sprintf("%s/collections/%s/items", base, it.ID), Type: "application/geo+json"},
	)
	if h.cfg.Features.EnableQueryables {
		c.Links = append(c.Links, &gostac.Link{
			Rel:  "http://www.opengis.net/def/rel/ogc/1.0/queryables",
			Href: fmt.Sprintf("%s/collections/%s/queryables", base, it.ID),
			Type: "application/schema+json",
		})
	}

	return c
}

// coreQueryables returns the properties every collection can filter on.
func coreQueryables() map[string]map[string]any {
	return map[string]map[string]any{
		"id": {
			"description": "Item identifier",
			"type":        "string",
		},
		"collection": {
			"description": "Collection identifier",
			"type":        "string",
		},
		"datetime": {
			"description": "Acquisition datetime",
			"type":        "string",
			"format":      "date-time",
		},
		"geometry": {
			"description": "Item footprint",
		},
	}
}
