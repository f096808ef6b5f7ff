// Package server provides a public API for embedding the Planet STAC proxy.
package server

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/robert-malhotra/planet-stac-proxy/internal/api"
	"github.com/robert-malhotra/planet-stac-proxy/internal/config"
	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
	"github.com/robert-malhotra/planet-stac-proxy/internal/stac"
	"github.com/robert-malhotra/planet-stac-proxy/internal/translate"
)

// Options configures the embedded Planet STAC server.
type Options struct {
	// BaseURL is the public-facing URL for self-referential links (required).
	// Example: "https://api.example.com/stac" or "http://localhost:8080"
	BaseURL string

	// PlanetBaseURL is the Planet Data API base URL.
	// Default: "https://api.planet.com/data/v1"
	PlanetBaseURL string

	// APIKeys holds the service's own Planet API keys, rotated round-robin.
	// Empty means every caller must supply its own basic auth credentials.
	APIKeys []string

	// TokenKey is the base64url-encoded 32-byte pagination token key.
	// Default: a fresh random key (tokens do not survive restarts).
	TokenKey string

	// Timeout is the upstream request timeout.
	// Default: 180s
	Timeout time.Duration

	// Title is the STAC API title.
	// Default: "Planet STAC API"
	Title string

	// Description is the STAC API description.
	// Default: "STAC API proxy for the Planet Data API"
	Description string

	// DefaultLimit is the default number of items per page.
	// Default: 10
	DefaultLimit int

	// MaxLimit is the maximum number of items per page.
	// Default: 250
	MaxLimit int

	// EnableQueryables enables the /queryables endpoints.
	// Default: true when zero-valued via NewOptions, false otherwise.
	EnableQueryables bool

	// CatalogDir is the path to item type definition JSON files.
	// Default: "" (uses built-in defaults)
	CatalogDir string

	// Logger is the slog logger to use.
	// Default: slog.Default()
	Logger *slog.Logger
}

// Server is a Planet STAC proxy that can be embedded in another application.
type Server struct {
	router chi.Router
}

// New creates a new Planet STAC server with the given options.
func New(opts Options) (*Server, error) {
	if opts.BaseURL == "" {
		return nil, fmt.Errorf("BaseURL is required")
	}
	if opts.PlanetBaseURL == "" {
		opts.PlanetBaseURL = "https://api.planet.com/data/v1"
	}
	if opts.Timeout == 0 {
		opts.Timeout = 180 * time.Second
	}
	if opts.Title == "" {
		opts.Title = "Planet STAC API"
	}
	if opts.Description == "" {
		opts.Description = "STAC API proxy for the Planet Data API"
	}
	if opts.DefaultLimit == 0 {
		opts.DefaultLimit = 10
	}
	if opts.MaxLimit == 0 {
		opts.MaxLimit = 250
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	cfg := &config.Config{
		Planet: config.PlanetConfig{
			BaseURL: opts.PlanetBaseURL,
			Timeout: opts.Timeout,
			APIKeys: opts.APIKeys,
		},
		STAC: config.STACConfig{
			Version:     "1.0.0",
			BaseURL:     opts.BaseURL,
			Title:       opts.Title,
			Description: opts.Description,
			TokenKey:    opts.TokenKey,
			CatalogDir:  opts.CatalogDir,
		},
		Features: config.FeatureConfig{
			EnableQueryables: opts.EnableQueryables,
			DefaultLimit:     opts.DefaultLimit,
			MaxLimit:         opts.MaxLimit,
		},
	}

	var catalog *config.Catalog
	var err error
	if cfg.STAC.CatalogDir != "" {
		catalog, err = config.LoadCatalog(cfg.STAC.CatalogDir)
		if err != nil {
			opts.Logger.Warn("failed to load item type catalog, using built-in defaults",
				"dir", cfg.STAC.CatalogDir,
				"error", err,
			)
			catalog = config.NewCatalog()
		}
	} else {
		catalog = config.NewCatalog()
	}

	codec, err := newTokenCodec(cfg.STAC.TokenKey)
	if err != nil {
		return nil, err
	}

	client := planet.NewClient(cfg.Planet.BaseURL, cfg.Planet.Timeout).WithLogger(opts.Logger)
	ring := planet.NewKeyRing(cfg.Planet.APIKeys)

	resolver := translate.NewAssetResolver(client, catalog, opts.Logger)
	assembler := translate.NewAssembler(resolver, codec, cfg.STAC.BaseURL, cfg.STAC.Version, 0, opts.Logger)

	handler := api.NewHandler(client, catalog, ring, codec, assembler, cfg, opts.Logger)
	router := api.NewRouter(handler, opts.Logger)

	return &Server{router: router}, nil
}

// Router returns the chi.Router for mounting in another application.
func (s *Server) Router() chi.Router {
	return s.router
}

func newTokenCodec(encoded string) (*stac.TokenCodec, error) {
	if encoded == "" {
		return stac.NewRandomTokenCodec()
	}
	key, err := stac.ParseTokenKey(encoded)
	if err != nil {
		return nil, err
	}
	return stac.NewTokenCodec(key), nil
}
