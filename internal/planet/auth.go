package planet

import (
	"net/http"
	"sync/atomic"
)

// Auth carries the basic auth credentials for one Planet request. Planet API
// keys are sent as the basic auth username with an empty password.
type Auth struct {
	Username string
	Password string
}

// APIKey creates an Auth from a bare Planet API key.
func APIKey(key string) Auth {
	return Auth{Username: key}
}

// IsZero reports whether no credentials are set.
func (a Auth) IsZero() bool {
	return a.Username == "" && a.Password == ""
}

// apply sets the Authorization header on the request.
func (a Auth) apply(req *http.Request) {
	if !a.IsZero() {
		req.SetBasicAuth(a.Username, a.Password)
	}
}

// KeyRing rotates round-robin over a fixed set of Planet API keys so a busy
// proxy spreads its traffic across every key it was configured with. The
// zero-capacity ring is represented by a nil *KeyRing.
type KeyRing struct {
	keys []string
	next atomic.Uint64
}

// NewKeyRing creates a KeyRing over the given keys. Returns nil when keys is
// empty.
func NewKeyRing(keys []string) *KeyRing {
	if len(keys) == 0 {
		return nil
	}
	return &KeyRing{keys: keys}
}

// Next returns the next key in rotation. Safe for concurrent use.
func (k *KeyRing) Next() string {
	n := k.next.Add(1) - 1
	return k.keys[n%uint64(len(k.keys))]
}
