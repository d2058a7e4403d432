package server

import (
	"context"
	"fmt"
	"html"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/config"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/extractor"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/notify"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/observability"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/places"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/registry"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

// Server hosts the ConversationRelay websocket endpoint alongside the
// TwiML webhook, dashboard, and operational routes.
type Server struct {
	httpServer *http.Server
	upgrader   websocket.Upgrader

	store     *session.Store
	extract   extractor.Extractor
	searcher  places.Searcher
	results   registry.Store
	notifier  *notify.Notifier
	config    *config.Config
	log       zerolog.Logger
}

// New wires the HTTP server and its routes.
func New(cfg *config.Config, store *session.Store, ext extractor.Extractor,
	searcher places.Searcher, results registry.Store, notifier *notify.Notifier,
	metrics *prometheus.Registry, log zerolog.Logger) *Server {

	s := &Server{
		store:    store,
		extract:  ext,
		searcher: searcher,
		results:  results,
		notifier: notifier,
		config:   cfg,
		log:      log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  8 * 1024,
			WriteBufferSize: 8 * 1024,
			// Twilio doesn't support WebSocket compression
			EnableCompression: false,
			CheckOrigin: func(r *http.Request) bool {
				// Twilio connections don't send browser Origin headers.
				return true
			},
		},
	}

	mux := chi.NewRouter()
	mux.Use(chimw.RealIP)
	mux.Use(chimw.RequestID)
	mux.Use(chimw.Recoverer)
	mux.Use(Logger(log))

	mux.Post("/twiml", s.handleTwiML)
	mux.Get("/ws", s.handleRelay)
	mux.Get("/dashboard/{searchID}", s.handleDashboard)
	mux.Get("/api/searches/{searchID}", s.handleSearchAPI)
	mux.Get("/health", s.handleHealth)
	if metrics != nil {
		mux.Handle("/metrics", observability.MetricsHandler(metrics))
	}

	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: mux,
		// No ReadTimeout/WriteTimeout — these interfere with long-lived
		// WebSocket connections; the relay loop sets its own deadlines.
	}

	return s
}

// Handler exposes the route tree, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start begins listening for connections
func (s *Server) Start() error {
	s.log.Info().Str("addr", s.httpServer.Addr).Msg("relay server starting")
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("shutting down relay server")
	return s.httpServer.Shutdown(ctx)
}

// handleTwiML answers Twilio's inbound-call webhook with a
// ConversationRelay connect verb pointing back at /ws.
func (s *Server) handleTwiML(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err == nil {
		callSID := r.PostFormValue("CallSid")
		from := r.PostFormValue("From")
		if callSID != "" && from != "" {
			s.store.Get(callSID).SetCallerNumber(from)
		}
	}

	xmlResponse := fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<Response>
	<Connect>
		<ConversationRelay url="%s" welcomeGreeting="%s" />
	</Connect>
</Response>`, s.config.RelayURL(), html.EscapeString(s.config.WelcomeGreeting))

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xmlResponse))
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprintf(w, `{"status":"ok","sessions":%d}`, s.store.Count())
}
