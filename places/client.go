package places

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"golang.org/x/time/rate"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/observability"
)

const (
	defaultPlacesBase  = "https://places.googleapis.com/v1"
	defaultGeocodeURL  = "https://maps.googleapis.com/maps/api/geocode/json"
	defaultDistanceURL = "https://maps.googleapis.com/maps/api/distancematrix/json"

	geocodeTimeout  = 10 * time.Second
	searchTimeout   = 15 * time.Second
	distanceTimeout = 10 * time.Second
)

var fieldMask = "places.displayName,places.formattedAddress,places.rating," +
	"places.userRatingCount,places.priceLevel,places.currentOpeningHours,places.location"

// Client talks to the Google Geocoding, Places (v1), and Distance Matrix
// APIs with client-side rate limiting and bounded per-request timeouts.
type Client struct {
	hc  *http.Client
	key string
	rl  *rate.Limiter

	placesBase  string
	geocodeURL  string
	distanceURL string
}

// Option customizes a Client.
type Option func(*Client)

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.hc = hc
		}
	}
}

// WithBaseURLs points the client at alternate endpoints (tests).
func WithBaseURLs(placesBase, geocodeURL, distanceURL string) Option {
	return func(c *Client) {
		if placesBase != "" {
			c.placesBase = placesBase
		}
		if geocodeURL != "" {
			c.geocodeURL = geocodeURL
		}
		if distanceURL != "" {
			c.distanceURL = distanceURL
		}
	}
}

// NewClient creates a Google Maps client. rps bounds outbound request rate
// across all three APIs.
func NewClient(key string, rps int, opts ...Option) (*Client, error) {
	if key == "" {
		return nil, fmt.Errorf("API key is required")
	}
	if rps <= 0 {
		rps = 10
	}
	c := &Client{
		hc:          &http.Client{Timeout: 20 * time.Second},
		key:         key,
		rl:          rate.NewLimiter(rate.Limit(rps), rps),
		placesBase:  defaultPlacesBase,
		geocodeURL:  defaultGeocodeURL,
		distanceURL: defaultDistanceURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// Geocode resolves free-text location to coordinates. A miss (no results)
// returns nil with no error; callers treat it as non-fatal.
func (c *Client) Geocode(ctx context.Context, location string) (*LatLng, error) {
	ctx, cancel := context.WithTimeout(ctx, geocodeTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("address", location)
	params.Set("key", c.key)

	var out geocodeResponse
	if err := c.getJSON(ctx, "geocode", c.geocodeURL+"?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	if len(out.Results) == 0 {
		return nil, nil
	}
	loc := out.Results[0].Geometry.Location
	return &LatLng{Latitude: loc.Lat, Longitude: loc.Lng}, nil
}

// SearchText runs a Places v1 text search and returns the raw places.
func (c *Client) SearchText(ctx context.Context, req searchTextRequest) ([]googlePlace, error) {
	ctx, cancel := context.WithTimeout(ctx, searchTimeout)
	defer cancel()

	if err := c.rl.Wait(ctx); err != nil {
		return nil, err
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal search request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.placesBase+"/places:searchText", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-Goog-Api-Key", c.key)
	httpReq.Header.Set("X-Goog-FieldMask", fieldMask)

	start := time.Now()
	resp, err := c.hc.Do(httpReq)
	if err != nil {
		observability.ObserveGoogle("searchText", 0, time.Since(start))
		return nil, err
	}
	defer resp.Body.Close()
	observability.ObserveGoogle("searchText", resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("places search status %d: %s", resp.StatusCode, string(b))
	}

	var out searchTextResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}
	return out.Places, nil
}

// TravelDuration estimates travel time between two points for a mode.
// Any failure or malformed response returns nil; one candidate's estimate
// never aborts the others.
func (c *Client) TravelDuration(ctx context.Context, origin, dest LatLng, mode string) *Travel {
	ctx, cancel := context.WithTimeout(ctx, distanceTimeout)
	defer cancel()

	params := url.Values{}
	params.Set("origins", fmt.Sprintf("%f,%f", origin.Latitude, origin.Longitude))
	params.Set("destinations", fmt.Sprintf("%f,%f", dest.Latitude, dest.Longitude))
	params.Set("mode", mode)
	params.Set("key", c.key)
	params.Set("departure_time", strconv.FormatInt(time.Now().Unix(), 10))

	var out distanceMatrixResponse
	if err := c.getJSON(ctx, "distanceMatrix", c.distanceURL+"?"+params.Encode(), &out); err != nil {
		return nil
	}
	if len(out.Rows) == 0 || len(out.Rows[0].Elements) == 0 {
		return nil
	}
	element := out.Rows[0].Elements[0]
	if element.Status != "OK" {
		return nil
	}
	return &Travel{
		DurationText: element.Duration.Text,
		DistanceText: element.Distance.Text,
	}
}

func (c *Client) getJSON(ctx context.Context, endpoint, fullURL string, out any) error {
	if err := c.rl.Wait(ctx); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return err
	}

	start := time.Now()
	resp, err := c.hc.Do(req)
	if err != nil {
		observability.ObserveGoogle(endpoint, 0, time.Since(start))
		return err
	}
	defer resp.Body.Close()
	observability.ObserveGoogle(endpoint, resp.StatusCode, time.Since(start))

	if resp.StatusCode != http.StatusOK {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("%s status %d: %s", endpoint, resp.StatusCode, string(b))
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
