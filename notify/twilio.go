package notify

import (
	"fmt"

	"github.com/rs/zerolog"
	"github.com/twilio/twilio-go"
	twilioapi "github.com/twilio/twilio-go/rest/api/v2010"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

// Notifier delivers the dashboard link over Twilio messaging (SMS/RCS).
// Delivery is best-effort: failures are logged and never surfaced to the
// caller, and a session receives at most one link.
type Notifier struct {
	client       *twilio.RestClient
	messagingSID string
	log          zerolog.Logger
}

// New creates a Notifier. Empty credentials yield a disabled notifier whose
// sends are no-ops.
func New(accountSID, authToken, messagingSID string, log zerolog.Logger) *Notifier {
	n := &Notifier{messagingSID: messagingSID, log: log}
	if accountSID != "" && authToken != "" {
		n.client = twilio.NewRestClientWithParams(twilio.ClientParams{
			Username: accountSID,
			Password: authToken,
		})
	}
	return n
}

// Enabled reports whether Twilio credentials were configured.
func (n *Notifier) Enabled() bool {
	return n.client != nil && n.messagingSID != ""
}

// MaybeSendLink sends the dashboard URL to the caller's phone once per
// session. Unknown caller numbers are resolved via the call resource.
func (n *Notifier) MaybeSendLink(s *session.Session, dashboardURL string) {
	if !n.Enabled() || s.LinkAlreadySent() {
		return
	}

	to := s.Caller()
	if to == "" {
		to = n.fetchCallerNumber(s)
	}
	if to == "" {
		return
	}

	if !s.MarkLinkSent() {
		return
	}

	params := &twilioapi.CreateMessageParams{}
	params.SetTo(to)
	params.SetMessagingServiceSid(n.messagingSID)
	params.SetBody(fmt.Sprintf("Here are the restaurants I found for you: %s", dashboardURL))

	if _, err := n.client.Api.CreateMessage(params); err != nil {
		n.log.Error().Err(err).Str("call_sid", s.CallSID).Msg("failed to send dashboard link")
		return
	}
	n.log.Info().Str("call_sid", s.CallSID).Msg("dashboard link sent")
}

// fetchCallerNumber looks up the caller's number from the call resource
// when the TwiML webhook didn't carry it.
func (n *Notifier) fetchCallerNumber(s *session.Session) string {
	call, err := n.client.Api.FetchCall(s.CallSID, &twilioapi.FetchCallParams{})
	if err != nil {
		n.log.Error().Err(err).Str("call_sid", s.CallSID).Msg("could not fetch caller number")
		return ""
	}
	if call.From == nil || *call.From == "" {
		return ""
	}
	s.SetCallerNumber(*call.From)
	return *call.From
}
