// Script to compare search results between a running proxy and the Planet
// Data API directly. Usage:
//
//	PLANET_API_KEY=... go run ./scripts/compare_upstream.go http://localhost:8080
package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"
)

const planetBaseURL = "https://api.planet.com/data/v1"

// Western Europe bounding box
var testBBox = []float64{-10.0, 36.0, 25.0, 60.0}

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: compare_upstream <proxy-base-url>")
		os.Exit(1)
	}
	proxyURL := os.Args[1]

	apiKey := os.Getenv("PLANET_API_KEY")
	if apiKey == "" {
		fmt.Fprintln(os.Stderr, "PLANET_API_KEY is required")
		os.Exit(1)
	}

	end := time.Now().UTC()
	start := end.AddDate(0, -1, 0)

	fmt.Println("=== Upstream Comparison: PSScene over Western Europe (Last Month) ===")
	fmt.Printf("Date range: %s to %s\n", start.Format("2006-01-02"), end.Format("2006-01-02"))
	fmt.Printf("Bounding box: %v\n\n", testBBox)

	fmt.Println("Querying proxy /search...")
	proxyCount, err := queryProxy(proxyURL, apiKey, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "proxy query failed: %v\n", err)
	} else {
		fmt.Printf("proxy page size: %d\n\n", proxyCount)
	}

	fmt.Println("Querying Planet quick-search...")
	planetCount, err := queryPlanet(apiKey, start, end)
	if err != nil {
		fmt.Fprintf(os.Stderr, "planet query failed: %v\n", err)
	} else {
		fmt.Printf("planet page size: %d\n\n", planetCount)
	}

	fmt.Println("=== Comparison ===")
	fmt.Printf("proxy:  %d items\n", proxyCount)
	fmt.Printf("planet: %d items\n", planetCount)
	if proxyCount == planetCount {
		fmt.Println("counts match")
	} else {
		fmt.Printf("difference: %d\n", proxyCount-planetCount)
		fmt.Println("\nNote: a small difference can occur when items are dropped")
		fmt.Println("after exhausting the asset listing retry budget.")
	}
}

func queryProxy(baseURL, apiKey string, start, end time.Time) (int, error) {
	body, err := json.Marshal(map[string]any{
		"collections": []string{"PSScene"},
		"bbox":        testBBox,
		"datetime":    start.Format(time.RFC3339) + "/" + end.Format(time.RFC3339),
		"limit":       100,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(apiKey, "")

	var result struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := do(req, &result); err != nil {
		return 0, err
	}
	return len(result.Features), nil
}

func queryPlanet(apiKey string, start, end time.Time) (int, error) {
	filter := map[string]any{
		"type": "AndFilter",
		"config": []any{
			map[string]any{
				"type":       "DateRangeFilter",
				"field_name": "acquired",
				"config": map[string]string{
					"gte": start.Format(time.RFC3339),
					"lte": end.Format(time.RFC3339),
				},
			},
			map[string]any{
				"type":       "GeometryFilter",
				"field_name": "geometry",
				"config": map[string]any{
					"type": "Polygon",
					"coordinates": [][][]float64{{
						{testBBox[0], testBBox[1]},
						{testBBox[2], testBBox[1]},
						{testBBox[2], testBBox[3]},
						{testBBox[0], testBBox[3]},
						{testBBox[0], testBBox[1]},
					}},
				},
			},
		},
	}

	body, err := json.Marshal(map[string]any{
		"item_types": []string{"PSScene"},
		"filter":     filter,
	})
	if err != nil {
		return 0, err
	}

	req, err := http.NewRequest(http.MethodPost, planetBaseURL+"/quick-search?_page_size=100", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.SetBasicAuth(apiKey, "")

	var result struct {
		Features []json.RawMessage `json:"features"`
	}
	if err := do(req, &result); err != nil {
		return 0, err
	}
	return len(result.Features), nil
}

func do(req *http.Request, out any) error {
	client := &http.Client{Timeout: 120 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return err
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("status %d: %s", resp.StatusCode, data)
	}
	return json.Unmarshal(data, out)
}
