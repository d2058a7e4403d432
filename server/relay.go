package server

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/extractor"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/messages"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/observability"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/registry"
	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

const (
	writeTimeout = 10 * time.Second
	// A single dialogue turn may geocode, search, and enrich travel times.
	turnTimeout = 45 * time.Second
)

const duplicateSearchReply = "I've already shared those recommendations. Would you like me to run a new search?"

// relayConn wraps the websocket so a turn that finishes after the caller
// hangs up can still "send" safely. Writes after Close are dropped.
type relayConn struct {
	conn   *websocket.Conn
	mu     sync.Mutex
	closed bool
}

func (c *relayConn) sendText(token string, last bool) {
	data, err := messages.Encode(messages.NewTextToken(token, last))
	if err != nil {
		return
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	_ = c.conn.WriteMessage(websocket.TextMessage, data)
}

func (c *relayConn) close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	_ = c.conn.Close()
}

// handleRelay upgrades to a websocket and runs the ConversationRelay
// message loop for one call. Turns are processed sequentially in arrival
// order; interrupts are acknowledged and dropped.
func (s *Server) handleRelay(w http.ResponseWriter, r *http.Request) {
	if s.store.Count() >= s.config.MaxSessions {
		s.log.Warn().Int("max", s.config.MaxSessions).Msg("session limit reached, rejecting call")
		http.Error(w, "too many active calls", http.StatusServiceUnavailable)
		return
	}

	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	conn := &relayConn{conn: ws}
	defer conn.close()

	observability.ActiveCalls.Inc()
	defer observability.ActiveCalls.Dec()

	var sess *session.Session
	defer func() {
		if sess != nil {
			s.store.Remove(sess.CallSID)
		}
	}()

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn().Err(err).Msg("websocket closed unexpectedly")
			}
			return
		}

		msg, err := messages.ParseRelayMessage(data)
		if err != nil {
			s.log.Warn().Err(err).Msg("unparseable relay message")
			continue
		}

		switch msg.Type {
		case messages.TypeSetup:
			sess = s.store.Get(msg.CallSID)
			sess.SetCallerNumber(msg.From)
			s.log.Info().Str("call_sid", msg.CallSID).Str("from", msg.From).Msg("call connected")
			sess.Append("assistant", s.config.WelcomeGreeting)
			// not final: the first prompt follows in the same turn
			conn.sendText(s.config.WelcomeGreeting, false)

		case messages.TypePrompt:
			if sess == nil {
				s.log.Warn().Msg("prompt before setup, ignoring")
				continue
			}
			s.handleTurn(conn, sess, msg.VoicePrompt)

		case messages.TypeInterrupt:
			if sess != nil {
				s.log.Debug().Str("call_sid", sess.CallSID).
					Str("utterance", msg.UtteranceUntilInterrupt).Msg("caller interrupted")
				sess.Touch()
			}

		case messages.TypeError:
			s.log.Error().Str("description", msg.Description).Msg("relay error event")

		default:
			s.log.Debug().Str("type", msg.Type).Msg("ignoring relay message")
		}
	}
}

// handleTurn runs one dialogue turn: extract slots, ask the next follow-up
// or run the search, and speak exactly one final token.
func (s *Server) handleTurn(conn *relayConn, sess *session.Session, prompt string) {
	// Detached from the connection context so an in-flight search can
	// finish (and be registered) even if the caller hangs up mid-turn.
	ctx, cancel := context.WithTimeout(context.Background(), turnTimeout)
	defer cancel()

	normalized := strings.ToLower(strings.TrimSpace(prompt))
	sess.Append("user", prompt)

	updates, err := s.extract.Extract(ctx, prompt, sess.Slots())
	if err != nil {
		s.log.Error().Err(err).Str("call_sid", sess.CallSID).Msg("slot extraction failed")
		observability.ObserveTurn("extract_failed")
		s.speak(conn, sess, extractor.GenericFollowUp)
		return
	}
	sess.UpdateSlots(updates)

	if missing := sess.MissingSlots(); len(missing) > 0 {
		observability.ObserveTurn("followup")
		s.speak(conn, sess, extractor.FollowUpFor(missing))
		return
	}

	if sess.ShouldSkipSearch(normalized) {
		observability.ObserveTurn("duplicate")
		conn.sendText(duplicateSearchReply, true)
		return
	}

	result := s.searcher.SearchRestaurants(ctx, sess.Slots())
	if !result.Success {
		observability.ObserveTurn("search_failed")
		s.speak(conn, sess, result.Message)
		return
	}

	sess.MarkSearch(normalized)
	rec := registry.Record{Slots: sess.Slots(), Results: result.Results}
	if err := s.results.Save(ctx, result.SearchID, rec); err != nil {
		s.log.Error().Err(err).Str("search_id", result.SearchID).Msg("failed to save search record")
	}

	observability.ObserveTurn("search_ok")
	s.speak(conn, sess, result.VoiceResponse)

	go s.notifier.MaybeSendLink(sess, s.config.DashboardURL(result.SearchID))
}

// speak records the reply in history and sends it as the turn's final token.
func (s *Server) speak(conn *relayConn, sess *session.Session, text string) {
	sess.Append("assistant", text)
	conn.sendText(text, true)
}
