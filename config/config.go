package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all server configuration
type Config struct {
	Port       int
	PublicHost string // public hostname (e.g. ngrok domain) used in TwiML and dashboard links

	WelcomeGreeting string

	// Slot extraction strategy: "openai", "gemini", or "pattern"
	Extractor    string
	OpenAIAPIKey string
	GeminiAPIKey string

	GooglePlacesAPIKey string
	GoogleRPS          int // client-side rate limit for outbound Google calls

	TwilioAccountSID   string
	TwilioAuthToken    string
	TwilioMessagingSID string

	RedisURL      string
	RedisPassword string

	MaxSessions      int
	SessionTimeout   time.Duration
	MaxHistory       int // per-session conversation history cap
	RegistryCapacity int // in-memory search registry cap (FIFO eviction)
	RegistryTTL      time.Duration
}

const defaultWelcomeGreeting = "Hey there! I can help you find a great restaurant. " +
	"Tell me the cuisine, your location, budget, and if you prefer walking or transit."

// Load loads configuration from environment variables with defaults
func Load() (*Config, error) {
	// Load .env file if it exists (doesn't error if missing)
	_ = godotenv.Load()

	config := &Config{
		Port:             8080,
		WelcomeGreeting:  defaultWelcomeGreeting,
		Extractor:        "openai",
		GoogleRPS:        10,
		MaxSessions:      100,
		SessionTimeout:   30 * time.Minute,
		MaxHistory:       200,
		RegistryCapacity: 256,
		RegistryTTL:      24 * time.Hour,
	}

	// Required: GOOGLE_PLACES_API_KEY
	config.GooglePlacesAPIKey = os.Getenv("GOOGLE_PLACES_API_KEY")
	if config.GooglePlacesAPIKey == "" {
		return nil, fmt.Errorf("GOOGLE_PLACES_API_KEY environment variable is required")
	}

	config.OpenAIAPIKey = os.Getenv("OPENAI_API_KEY")
	config.GeminiAPIKey = os.Getenv("GEMINI_API_KEY")

	// Optional: EXTRACTOR ("openai", "gemini", or "pattern")
	if extractor := os.Getenv("EXTRACTOR"); extractor != "" {
		switch extractor {
		case "openai", "gemini", "pattern":
			config.Extractor = extractor
		default:
			return nil, fmt.Errorf("invalid EXTRACTOR: must be 'openai', 'gemini', or 'pattern'")
		}
	}
	if config.Extractor == "openai" && config.OpenAIAPIKey == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required when EXTRACTOR is 'openai'")
	}
	if config.Extractor == "gemini" && config.GeminiAPIKey == "" {
		return nil, fmt.Errorf("GEMINI_API_KEY is required when EXTRACTOR is 'gemini'")
	}

	config.TwilioAccountSID = os.Getenv("TWILIO_ACCOUNT_SID")
	config.TwilioAuthToken = os.Getenv("TWILIO_AUTH_TOKEN")
	config.TwilioMessagingSID = os.Getenv("TWILIO_MESSAGING_SID")

	// Optional: PORT
	if port := os.Getenv("PORT"); port != "" {
		p, err := strconv.Atoi(port)
		if err != nil {
			return nil, fmt.Errorf("invalid PORT: %w", err)
		}
		config.Port = p
	}

	// Optional: PUBLIC_HOST (bare hostname, no scheme)
	if host := os.Getenv("PUBLIC_HOST"); host != "" {
		config.PublicHost = host
	}

	// Optional: WELCOME_GREETING
	if greeting := os.Getenv("WELCOME_GREETING"); greeting != "" {
		config.WelcomeGreeting = greeting
	}

	// Optional: REDIS_URL / REDIS_PASSWORD (registry falls back to memory when unset)
	if redisURL := os.Getenv("REDIS_URL"); redisURL != "" {
		config.RedisURL = redisURL
	}
	if redisPassword := os.Getenv("REDIS_PASSWORD"); redisPassword != "" {
		config.RedisPassword = redisPassword
	}

	// Optional: MAX_SESSIONS
	if maxSessions := os.Getenv("MAX_SESSIONS"); maxSessions != "" {
		m, err := strconv.Atoi(maxSessions)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_SESSIONS: %w", err)
		}
		config.MaxSessions = m
	}

	// Optional: SESSION_TIMEOUT (in minutes)
	if timeout := os.Getenv("SESSION_TIMEOUT"); timeout != "" {
		t, err := strconv.Atoi(timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid SESSION_TIMEOUT: %w", err)
		}
		config.SessionTimeout = time.Duration(t) * time.Minute
	}

	// Optional: MAX_HISTORY (entries per session)
	if maxHistory := os.Getenv("MAX_HISTORY"); maxHistory != "" {
		h, err := strconv.Atoi(maxHistory)
		if err != nil {
			return nil, fmt.Errorf("invalid MAX_HISTORY: %w", err)
		}
		config.MaxHistory = h
	}

	// Optional: REGISTRY_CAPACITY
	if capacity := os.Getenv("REGISTRY_CAPACITY"); capacity != "" {
		c, err := strconv.Atoi(capacity)
		if err != nil {
			return nil, fmt.Errorf("invalid REGISTRY_CAPACITY: %w", err)
		}
		config.RegistryCapacity = c
	}

	// Optional: REGISTRY_TTL (in hours, applies to the Redis-backed registry)
	if ttl := os.Getenv("REGISTRY_TTL"); ttl != "" {
		t, err := strconv.Atoi(ttl)
		if err != nil {
			return nil, fmt.Errorf("invalid REGISTRY_TTL: %w", err)
		}
		config.RegistryTTL = time.Duration(t) * time.Hour
	}

	// Optional: GOOGLE_RPS
	if rps := os.Getenv("GOOGLE_RPS"); rps != "" {
		r, err := strconv.Atoi(rps)
		if err != nil {
			return nil, fmt.Errorf("invalid GOOGLE_RPS: %w", err)
		}
		config.GoogleRPS = r
	}

	return config, nil
}

// DashboardURL builds the externally reachable dashboard link for a search.
func (c *Config) DashboardURL(searchID string) string {
	if c.PublicHost != "" {
		return fmt.Sprintf("https://%s/dashboard/%s", c.PublicHost, searchID)
	}
	return fmt.Sprintf("http://localhost:%d/dashboard/%s", c.Port, searchID)
}

// RelayURL builds the websocket URL Twilio connects ConversationRelay to.
func (c *Config) RelayURL() string {
	if c.PublicHost != "" {
		return fmt.Sprintf("wss://%s/ws", c.PublicHost)
	}
	return fmt.Sprintf("ws://localhost:%d/ws", c.Port)
}
