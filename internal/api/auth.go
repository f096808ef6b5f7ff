package api

import (
	"net/http"

	"github.com/robert-malhotra/planet-stac-proxy/internal/planet"
)

// resolveAuth picks the Planet credentials for one request. A caller that
// supplied basic auth is passed through as-is, so clients can use their own
// Planet keys. Otherwise the request draws the next key from the configured
// ring. Returns a zero Auth and false when neither source is available.
func resolveAuth(r *http.Request, ring *planet.KeyRing) (planet.Auth, bool) {
	if user, pass, ok := r.BasicAuth(); ok {
		return planet.Auth{Username: user, Password: pass}, true
	}
	if ring != nil {
		return planet.APIKey(ring.Next()), true
	}
	return planet.Auth{}, false
}
