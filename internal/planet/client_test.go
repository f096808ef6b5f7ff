package planet

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"
)

func TestQuickSearch(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("expected POST, got %s", r.Method)
		}
		if r.URL.Path != "/quick-search" {
			t.Errorf("expected /quick-search, got %s", r.URL.Path)
		}
		if got := r.URL.Query().Get("_page_size"); got != "25" {
			t.Errorf("expected _page_size=25, got %q", got)
		}
		user, _, ok := r.BasicAuth()
		if !ok || user != "test-key" {
			t.Errorf("expected basic auth with test-key, got %q", user)
		}

		// SearchRequest.Filter is an interface, so the body cannot be decoded
		// back into SearchRequest itself; decode only the asserted fields.
		var body struct {
			ItemTypes []string `json:"item_types"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("failed to decode request body: %v", err)
		}
		if len(body.ItemTypes) != 1 || body.ItemTypes[0] != "PSScene" {
			t.Errorf("unexpected item_types: %v", body.ItemTypes)
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"features": []map[string]any{
				{"id": "item-1", "properties": map[string]any{"item_type": "PSScene"}},
			},
			"_links": map[string]string{"_next": "https://api.example.com/next-page"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	params := url.Values{"_page_size": []string{"25"}}
	body := &SearchRequest{ItemTypes: []string{"PSScene"}, Filter: NewAndFilter()}

	resp, err := client.QuickSearch(context.Background(), APIKey("test-key"), params, body)
	if err != nil {
		t.Fatalf("QuickSearch failed: %v", err)
	}
	if len(resp.Features) != 1 {
		t.Fatalf("expected 1 feature, got %d", len(resp.Features))
	}
	if resp.Features[0].ID != "item-1" {
		t.Errorf("expected item-1, got %q", resp.Features[0].ID)
	}
	if resp.Links.Next != "https://api.example.com/next-page" {
		t.Errorf("unexpected next link: %q", resp.Links.Next)
	}
}

func TestQuickSearchUpstreamError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message": "invalid API key"}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.QuickSearch(context.Background(), APIKey("bad-key"), nil, &SearchRequest{Filter: NewAndFilter()})
	if err == nil {
		t.Fatal("expected error for 401 response")
	}

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if upstream.StatusCode != http.StatusUnauthorized {
		t.Errorf("expected status 401, got %d", upstream.StatusCode)
	}
}

func TestGetItem(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/item-types/PSScene/items/item-9" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"id":         "item-9",
			"properties": map[string]any{"item_type": "PSScene", "acquired": "2024-03-01T10:00:00Z"},
		})
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	item, err := client.GetItem(context.Background(), APIKey("k"), "PSScene", "item-9")
	if err != nil {
		t.Fatalf("GetItem failed: %v", err)
	}
	if item.ID != "item-9" {
		t.Errorf("expected item-9, got %q", item.ID)
	}
	if item.Acquired() != "2024-03-01T10:00:00Z" {
		t.Errorf("unexpected acquired: %q", item.Acquired())
	}
}

func TestListItemTypes(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/item-types" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"item_types": [{"id": "PSScene"}, {"id": "SkySatScene"}]}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	ids, err := client.ListItemTypes(context.Background(), APIKey("k"))
	if err != nil {
		t.Fatalf("ListItemTypes failed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "PSScene" || ids[1] != "SkySatScene" {
		t.Errorf("unexpected item types: %v", ids)
	}
}

func TestGetAssetListingRetriesDecodeFailures(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		if n < 4 {
			w.Write([]byte(""))
			return
		}
		w.Write([]byte(`{"ortho_visual": {"type": "ortho_visual", "_links": {"_self": "https://api.example.com/assets/ortho_visual"}}}`))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	listing, err := client.GetAssetListing(context.Background(), APIKey("k"), server.URL+"/assets")
	if err != nil {
		t.Fatalf("GetAssetListing failed: %v", err)
	}
	if got := calls.Load(); got != 4 {
		t.Errorf("expected 4 attempts, got %d", got)
	}
	asset, ok := listing["ortho_visual"]
	if !ok {
		t.Fatal("expected ortho_visual asset in listing")
	}
	if asset.Links.Self != "https://api.example.com/assets/ortho_visual" {
		t.Errorf("unexpected self link: %q", asset.Links.Self)
	}
}

func TestGetAssetListingExhaustsRetryBudget(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.GetAssetListing(context.Background(), APIKey("k"), server.URL+"/assets")
	if err == nil {
		t.Fatal("expected error after exhausting retries")
	}
	if got := calls.Load(); got != assetRetryAttempts {
		t.Errorf("expected %d attempts, got %d", assetRetryAttempts, got)
	}
}

func TestGetAssetListingDoesNotRetryStatusErrors(t *testing.T) {
	var calls atomic.Int64
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusForbidden)
	}))
	defer server.Close()

	client := NewClient(server.URL, 5*time.Second)
	_, err := client.GetAssetListing(context.Background(), APIKey("k"), server.URL+"/assets")

	var upstream *UpstreamError
	if !errors.As(err, &upstream) {
		t.Fatalf("expected UpstreamError, got %T: %v", err, err)
	}
	if got := calls.Load(); got != 1 {
		t.Errorf("expected exactly 1 attempt for a status error, got %d", got)
	}
}

func TestKeyRingRotation(t *testing.T) {
	ring := NewKeyRing([]string{"a", "b", "c"})
	got := []string{ring.Next(), ring.Next(), ring.Next(), ring.Next()}
	want := []string{"a", "b", "c", "a"}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("rotation[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestKeyRingEmpty(t *testing.T) {
	if ring := NewKeyRing(nil); ring != nil {
		t.Error("expected nil ring for empty key list")
	}
}
