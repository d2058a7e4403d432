package places

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/observability"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

const (
	maxResultCount  = 15
	topForVoice     = 3
	enrichmentLimit = 4 // concurrent distance lookups per search
)

// Searcher runs a restaurant search for a filled slot set.
type Searcher interface {
	SearchRestaurants(ctx context.Context, slots session.Slots) Result
}

// Service orchestrates geocode, text search, ranking, and travel
// enrichment into one Result.
type Service struct {
	client *Client
	log    zerolog.Logger
}

// NewService wires a search service over a Google Maps client.
func NewService(client *Client, log zerolog.Logger) *Service {
	return &Service{client: client, log: log}
}

// biasRadius approximates the reachable radius in meters for a travel
// budget. Deliberately a heuristic, not a routing computation.
func biasRadius(travelMode string, minutes int) int {
	if travelMode == "walking" {
		radius := minutes * 80 // approx 80 meters per minute
		if radius > 5000 {
			radius = 5000
		}
		return radius
	}
	radius := minutes * 400 // transit covers more distance
	if radius > 10000 {
		radius = 10000
	}
	return radius
}

// priceLevels maps a budget label to the Places price-tier vocabulary.
// Unknown or absent budgets return nil and the filter is omitted.
func priceLevels(budget string) []string {
	switch budget {
	case "$":
		return []string{"PRICE_LEVEL_INEXPENSIVE"}
	case "$$":
		return []string{"PRICE_LEVEL_MODERATE"}
	case "$$$":
		return []string{"PRICE_LEVEL_EXPENSIVE"}
	case "$$$$":
		return []string{"PRICE_LEVEL_VERY_EXPENSIVE"}
	}
	return nil
}

// SearchRestaurants runs the full search pipeline. Callers must have
// verified slot readiness; missing values still degrade to defaults rather
// than fail. Every failure resolves to a caller-facing Result.
func (s *Service) SearchRestaurants(ctx context.Context, slots session.Slots) Result {
	cuisine := slots.Get("cuisine")
	if cuisine == "" {
		cuisine = "restaurant"
	}
	locationText := slots.Get("location")
	travelMode := slots.Get("travel_mode")
	if travelMode == "" {
		travelMode = "walking"
	}
	travelMinutes, err := strconv.Atoi(slots.Get("travel_minutes"))
	if err != nil || travelMinutes <= 0 {
		travelMinutes = 15
	}

	origin, err := s.client.Geocode(ctx, locationText)
	if err != nil {
		// Geocoding failure is non-fatal: search proceeds without bias.
		s.log.Warn().Err(err).Str("location", locationText).Msg("geocode failed")
		origin = nil
	}

	req := searchTextRequest{
		TextQuery:           strings.TrimSpace(fmt.Sprintf("%s restaurants in %s", cuisine, locationText)),
		IncludedType:        "restaurant",
		MaxResultCount:      maxResultCount,
		StrictTypeFiltering: true,
		RankPreference:      "DISTANCE",
		PriceLevels:         priceLevels(slots.Get("budget")),
	}
	if origin != nil {
		req.LocationBias = &locationBias{
			Circle: circle{Center: *origin, Radius: biasRadius(travelMode, travelMinutes)},
		}
	}
	if slots.Get("open_now") == "true" {
		req.OpenNow = true
	}

	raw, err := s.client.SearchText(ctx, req)
	if err != nil {
		s.log.Error().Err(err).Str("query", req.TextQuery).Msg("places search failed")
		observability.ObserveSearch("transport_error")
		return Result{
			Success: false,
			Results: []Candidate{},
			Message: "I couldn't retrieve restaurant data right now. Want to try again?",
		}
	}
	if len(raw) == 0 {
		observability.ObserveSearch("empty")
		return Result{
			Success: false,
			Results: []Candidate{},
			Message: fmt.Sprintf("No %s spots found near %s. Try adjusting your request.", cuisine, locationText),
		}
	}

	ranked := s.rank(ctx, raw, travelMode, origin)

	top := ranked
	if len(top) > topForVoice {
		top = top[:topForVoice]
	}

	observability.ObserveSearch("ok")
	return Result{
		Success:       true,
		SearchID:      uuid.New().String(),
		Results:       ranked,
		VoiceResponse: VoiceSummary(top),
	}
}

// rank scores and sorts raw places, then enriches each with a travel
// estimate when the caller's coordinates are known. Enrichment runs
// concurrently with a bounded group; a failed estimate only omits that
// candidate's travel field.
func (s *Service) rank(ctx context.Context, raw []googlePlace, travelMode string, origin *LatLng) []Candidate {
	type scored struct {
		candidate Candidate
		dest      *LatLng
	}

	items := make([]scored, 0, len(raw))
	for _, place := range raw {
		name := place.DisplayName.Text
		if name == "" {
			name = "Unknown"
		}
		address := place.FormattedAddress
		if address == "" {
			address = "Address unavailable"
		}
		items = append(items, scored{
			candidate: Candidate{
				Name:            name,
				Address:         address,
				Rating:          place.Rating,
				UserRatingCount: place.UserRatingCount,
				PriceLevel:      place.PriceLevel,
				Score:           scoreFor(place.Rating, place.UserRatingCount),
			},
			dest: place.Location,
		})
	}

	if origin != nil {
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(enrichmentLimit)
		for i := range items {
			if items[i].dest == nil {
				continue
			}
			g.Go(func() error {
				items[i].candidate.Travel = s.client.TravelDuration(gctx, *origin, *items[i].dest, travelMode)
				return nil
			})
		}
		_ = g.Wait()
	}

	ranked := make([]Candidate, len(items))
	for i, item := range items {
		ranked[i] = item.candidate
	}
	sortByScore(ranked)
	return ranked
}
