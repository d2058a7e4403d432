package messages

import "github.com/bytedance/sonic"

// Inbound ConversationRelay event types
const (
	TypeSetup     = "setup"
	TypePrompt    = "prompt"
	TypeInterrupt = "interrupt"
	TypeDTMF      = "dtmf"
	TypeError     = "error"
)

// RelayMessage is one inbound event from Twilio ConversationRelay.
// Fields are populated depending on Type; unused ones stay zero.
type RelayMessage struct {
	Type string `json:"type"`

	// setup
	SessionID string `json:"sessionId,omitempty"`
	CallSID   string `json:"callSid,omitempty"`
	From      string `json:"from,omitempty"`
	To        string `json:"to,omitempty"`
	Direction string `json:"direction,omitempty"`

	// prompt
	VoicePrompt string `json:"voicePrompt,omitempty"`
	Lang        string `json:"lang,omitempty"`
	Last        bool   `json:"last,omitempty"`

	// interrupt
	UtteranceUntilInterrupt string `json:"utteranceUntilInterrupt,omitempty"`

	// dtmf
	Digit string `json:"digit,omitempty"`

	// error
	Description string `json:"description,omitempty"`
}

// ParseRelayMessage decodes a raw websocket frame into a RelayMessage.
func ParseRelayMessage(data []byte) (*RelayMessage, error) {
	var msg RelayMessage
	if err := sonic.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
