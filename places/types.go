package places

// LatLng is a geographic coordinate pair.
type LatLng struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Travel is a per-candidate travel estimate from the caller's location.
type Travel struct {
	DurationText string `json:"duration_text"`
	DistanceText string `json:"distance_text"`
}

// Candidate is one normalized, scored search result. Immutable once ranked.
type Candidate struct {
	Name            string  `json:"name"`
	Address         string  `json:"address"`
	Rating          float64 `json:"rating"`
	UserRatingCount int     `json:"user_rating_count"`
	PriceLevel      string  `json:"price_level,omitempty"`
	Score           float64 `json:"score"`
	Travel          *Travel `json:"travel,omitempty"`
}

// Result is the outcome of one restaurant search. On success SearchID,
// Results, and VoiceResponse are produced together so the registry entry
// and the spoken summary always agree. On failure Message carries the
// caller-facing explanation; nothing is raised past this boundary.
type Result struct {
	Success       bool        `json:"success"`
	SearchID      string      `json:"search_id,omitempty"`
	Results       []Candidate `json:"results"`
	Message       string      `json:"message,omitempty"`
	VoiceResponse string      `json:"voice_response,omitempty"`
}

// ---- Google API wire types ----

type googlePlace struct {
	DisplayName struct {
		Text string `json:"text"`
	} `json:"displayName"`
	FormattedAddress string  `json:"formattedAddress"`
	Rating           float64 `json:"rating"`
	UserRatingCount  int     `json:"userRatingCount"`
	PriceLevel       string  `json:"priceLevel"`
	Location         *LatLng `json:"location"`
}

type searchTextResponse struct {
	Places []googlePlace `json:"places"`
}

type circle struct {
	Center LatLng `json:"center"`
	Radius int    `json:"radius"`
}

type locationBias struct {
	Circle circle `json:"circle"`
}

type searchTextRequest struct {
	TextQuery           string        `json:"textQuery"`
	IncludedType        string        `json:"includedType"`
	MaxResultCount      int           `json:"maxResultCount"`
	StrictTypeFiltering bool          `json:"strictTypeFiltering"`
	RankPreference      string        `json:"rankPreference"`
	PriceLevels         []string      `json:"priceLevels,omitempty"`
	LocationBias        *locationBias `json:"locationBias,omitempty"`
	OpenNow             bool          `json:"openNow,omitempty"`
}

type geocodeResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
		} `json:"geometry"`
	} `json:"results"`
}

type distanceMatrixResponse struct {
	Rows []struct {
		Elements []struct {
			Status   string `json:"status"`
			Distance struct {
				Text string `json:"text"`
			} `json:"distance"`
			Duration struct {
				Text string `json:"text"`
			} `json:"duration"`
		} `json:"elements"`
	} `json:"rows"`
}
