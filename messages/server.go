package messages

import "github.com/bytedance/sonic"

// TextToken is one chunk of spoken output sent back to ConversationRelay.
// Twilio buffers tokens until it receives one with Last set.
type TextToken struct {
	Type  string `json:"type"` // always "text"
	Token string `json:"token"`
	Last  bool   `json:"last"`
}

// NewTextToken creates a spoken-output chunk.
func NewTextToken(token string, last bool) *TextToken {
	return &TextToken{
		Type:  "text",
		Token: token,
		Last:  last,
	}
}

// Encode marshals an outbound message for the websocket.
func Encode(msg any) ([]byte, error) {
	return sonic.Marshal(msg)
}
