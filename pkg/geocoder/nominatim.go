// Package geocoder resolves coordinates into human-readable addresses.
package geocoder

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const (
	// nominatimTimeout bounds a single lookup. Enrichment is best-effort.
	nominatimTimeout = 8 * time.Second

	// reverseZoom 18 asks for building-level detail.
	reverseZoom = "18"
)

// Reverser turns a coordinate into an address. An empty string with a nil
// error means the service knows nothing about that place.
type Reverser interface {
	Reverse(ctx context.Context, lat, lon float64) (string, error)
}

// Nominatim is a Reverser backed by an OpenStreetMap Nominatim instance.
type Nominatim struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

func NewNominatim(baseURL, userAgent string) *Nominatim {
	return &Nominatim{
		baseURL:    strings.TrimRight(baseURL, "/"),
		userAgent:  userAgent,
		httpClient: &http.Client{Timeout: nominatimTimeout},
	}
}

type reverseResponse struct {
	DisplayName string `json:"display_name"`
	Error       string `json:"error"`
}

func (n *Nominatim) Reverse(ctx context.Context, lat, lon float64) (string, error) {
	q := url.Values{}
	q.Set("format", "json")
	q.Set("lat", strconv.FormatFloat(lat, 'f', -1, 64))
	q.Set("lon", strconv.FormatFloat(lon, 'f', -1, 64))
	q.Set("zoom", reverseZoom)
	q.Set("addressdetails", "1")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, n.baseURL+"/reverse?"+q.Encode(), nil)
	if err != nil {
		return "", fmt.Errorf("geocoder: create request: %w", err)
	}
	// Nominatim rejects anonymous clients.
	req.Header.Set("User-Agent", n.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := n.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("geocoder: http: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", fmt.Errorf("geocoder: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("geocoder: status %d", resp.StatusCode)
	}

	var out reverseResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return "", fmt.Errorf("geocoder: decode response: %w", err)
	}
	// "Unable to geocode" comes back as 200 with an error field.
	if out.Error != "" {
		return "", nil
	}
	return out.DisplayName, nil
}
