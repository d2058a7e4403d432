package places_test

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/rs/zerolog"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/places"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

func testSlots() session.Slots {
	return session.Slots{
		"cuisine":        "thai",
		"location":       "downtown",
		"budget":         "$$",
		"travel_mode":    "walking",
		"travel_minutes": "15",
	}
}

// fakeGoogle stands in for the Geocoding, Places, and Distance Matrix
// endpoints and records the last search request body.
type fakeGoogle struct {
	geocodeHits   bool
	placesStatus  int
	placesPayload any

	mu         sync.Mutex
	lastSearch map[string]any
}

func (f *fakeGoogle) servers(t *testing.T) (placesURL, geocodeURL, distanceURL string, cleanup func()) {
	t.Helper()

	placesSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var req map[string]any
		_ = json.Unmarshal(body, &req)
		f.mu.Lock()
		f.lastSearch = req
		f.mu.Unlock()

		if f.placesStatus != 0 && f.placesStatus != http.StatusOK {
			w.WriteHeader(f.placesStatus)
			return
		}
		_ = json.NewEncoder(w).Encode(f.placesPayload)
	}))
	geocodeSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !f.geocodeHits {
			fmt.Fprint(w, `{"results":[]}`)
			return
		}
		fmt.Fprint(w, `{"results":[{"geometry":{"location":{"lat":40.72,"lng":-74.0}}}]}`)
	}))
	distanceSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"rows":[{"elements":[{"status":"OK","duration":{"text":"12 mins"},"distance":{"text":"0.9 km"}}]}]}`)
	}))

	return placesSrv.URL, geocodeSrv.URL, distanceSrv.URL, func() {
		placesSrv.Close()
		geocodeSrv.Close()
		distanceSrv.Close()
	}
}

func (f *fakeGoogle) searchRequest() map[string]any {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastSearch
}

func newTestService(t *testing.T, f *fakeGoogle) (*places.Service, func()) {
	t.Helper()
	placesURL, geocodeURL, distanceURL, cleanup := f.servers(t)
	client, err := places.NewClient("test-key", 100,
		places.WithBaseURLs(placesURL, geocodeURL, distanceURL))
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	return places.NewService(client, zerolog.Nop()), cleanup
}

func placesPayload(entries ...map[string]any) map[string]any {
	return map[string]any{"places": entries}
}

func place(name string, rating float64, reviews int) map[string]any {
	return map[string]any{
		"displayName":      map[string]any{"text": name},
		"formattedAddress": name + " St 1",
		"rating":           rating,
		"userRatingCount":  reviews,
		"priceLevel":       "PRICE_LEVEL_MODERATE",
		"location":         map[string]any{"latitude": 40.73, "longitude": -74.01},
	}
}

func TestSearchRestaurants_Success(t *testing.T) {
	fake := &fakeGoogle{
		geocodeHits: true,
		placesPayload: placesPayload(
			place("Mediocre Thai", 3.5, 40),
			place("Siam Square", 4.8, 300),
			place("Thai Basil", 4.2, 80),
		),
	}
	svc, cleanup := newTestService(t, fake)
	defer cleanup()

	result := svc.SearchRestaurants(context.Background(), testSlots())

	if !result.Success {
		t.Fatalf("expected success, got message %q", result.Message)
	}
	if result.SearchID == "" {
		t.Fatal("expected a search id")
	}
	if len(result.Results) != 3 {
		t.Fatalf("results = %d, want 3", len(result.Results))
	}
	if result.Results[0].Name != "Siam Square" {
		t.Fatalf("top result = %q, want Siam Square (ranked by score)", result.Results[0].Name)
	}
	if result.Results[0].Travel == nil || result.Results[0].Travel.DurationText != "12 mins" {
		t.Fatalf("expected travel enrichment, got %+v", result.Results[0].Travel)
	}
	if !strings.HasPrefix(result.VoiceResponse, "Here are the top three I found. ") {
		t.Fatalf("unexpected voice response: %q", result.VoiceResponse)
	}

	req := fake.searchRequest()
	if req["textQuery"] != "thai restaurants in downtown" {
		t.Fatalf("textQuery = %v", req["textQuery"])
	}
	if _, ok := req["locationBias"]; !ok {
		t.Fatal("geocoded origin should add a location bias")
	}
	levels, _ := req["priceLevels"].([]any)
	if len(levels) != 1 || levels[0] != "PRICE_LEVEL_MODERATE" {
		t.Fatalf("priceLevels = %v", req["priceLevels"])
	}
}

func TestSearchRestaurants_GeocodeMissSkipsBiasAndTravel(t *testing.T) {
	fake := &fakeGoogle{
		geocodeHits:   false,
		placesPayload: placesPayload(place("Siam Square", 4.8, 300)),
	}
	svc, cleanup := newTestService(t, fake)
	defer cleanup()

	result := svc.SearchRestaurants(context.Background(), testSlots())

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	if result.Results[0].Travel != nil {
		t.Fatal("no origin means no travel enrichment")
	}
	if _, ok := fake.searchRequest()["locationBias"]; ok {
		t.Fatal("geocode miss must not add a location bias")
	}
}

func TestSearchRestaurants_EmptyResults(t *testing.T) {
	fake := &fakeGoogle{geocodeHits: true, placesPayload: placesPayload()}
	svc, cleanup := newTestService(t, fake)
	defer cleanup()

	result := svc.SearchRestaurants(context.Background(), testSlots())

	if result.Success {
		t.Fatal("empty results must not be a success")
	}
	want := "No thai spots found near downtown. Try adjusting your request."
	if result.Message != want {
		t.Fatalf("message = %q, want %q", result.Message, want)
	}
}

func TestSearchRestaurants_TransportError(t *testing.T) {
	fake := &fakeGoogle{geocodeHits: true, placesStatus: http.StatusInternalServerError}
	svc, cleanup := newTestService(t, fake)
	defer cleanup()

	result := svc.SearchRestaurants(context.Background(), testSlots())

	if result.Success {
		t.Fatal("provider failure must not be a success")
	}
	want := "I couldn't retrieve restaurant data right now. Want to try again?"
	if result.Message != want {
		t.Fatalf("message = %q, want %q", result.Message, want)
	}
}

func TestSearchRestaurants_DefaultsWhenSlotsSparse(t *testing.T) {
	fake := &fakeGoogle{geocodeHits: true, placesPayload: placesPayload(place("Diner", 4.0, 50))}
	svc, cleanup := newTestService(t, fake)
	defer cleanup()

	// degraded input: only location is present
	result := svc.SearchRestaurants(context.Background(), session.Slots{"location": "midtown"})

	if !result.Success {
		t.Fatalf("expected success, got %q", result.Message)
	}
	req := fake.searchRequest()
	if req["textQuery"] != "restaurant restaurants in midtown" {
		t.Fatalf("textQuery = %v, want generic restaurant query", req["textQuery"])
	}
	if _, ok := req["priceLevels"]; ok {
		t.Fatal("unknown budget must omit the price filter")
	}
}

func TestSearchRestaurants_OpenNowFilter(t *testing.T) {
	fake := &fakeGoogle{geocodeHits: true, placesPayload: placesPayload(place("Siam Square", 4.8, 300))}
	svc, cleanup := newTestService(t, fake)
	defer cleanup()

	slots := testSlots()
	slots["open_now"] = "true"
	svc.SearchRestaurants(context.Background(), slots)

	if fake.searchRequest()["openNow"] != true {
		t.Fatal("open_now slot should set the openNow filter")
	}
}
