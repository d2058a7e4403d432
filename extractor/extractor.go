package extractor

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

// Extractor turns a caller utterance into a partial slot update. Prior slot
// values are provided for context only; implementations must not clear
// slots the utterance doesn't mention.
type Extractor interface {
	Extract(ctx context.Context, utterance string, prior session.Slots) (session.Slots, error)
}

const systemInstruction = `Extract structured fields from the caller's request.

Rules:
- Always return a JSON object with exactly these keys: cuisine, location, budget, travel_mode, travel_minutes, open_now, open_until.
- Use null for any value you cannot confirm from the request.
- travel_minutes must be a number (convert written numbers like "ten" to the integer 10).
- travel_mode must be "walking" or "transit".
- budget should be $, $$, $$$, or $$$$.
- Preserve the most recent caller preference even if they correct themselves.`

// buildUserPrompt renders the extraction prompt including prior slot state.
func buildUserPrompt(utterance string, prior session.Slots) string {
	priorJSON, err := json.MarshalIndent(prior, "", "  ")
	if err != nil {
		priorJSON = []byte("{}")
	}
	return fmt.Sprintf("Caller said: %s\nPrevious slot values (for reference only):\n%s\nReturn the updated JSON now.",
		utterance, priorJSON)
}

// parsePayload decodes the model's JSON reply and normalizes each value to
// the slot string convention (bools to "true"/"false", numbers to integer
// strings, null and empty to absent).
func parsePayload(raw string) (session.Slots, error) {
	// Some models wrap JSON in markdown fences despite JSON mode.
	raw = strings.TrimSpace(raw)
	raw = strings.TrimPrefix(raw, "```json")
	raw = strings.TrimPrefix(raw, "```")
	raw = strings.TrimSuffix(raw, "```")

	var payload map[string]any
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, fmt.Errorf("decode extraction payload: %w", err)
	}

	out := make(session.Slots, len(payload))
	for key, value := range payload {
		if !session.IsRecognized(key) {
			continue
		}
		if v := normalizeAny(value); v != "" {
			out[key] = v
		}
	}
	return out, nil
}

func normalizeAny(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case bool:
		if v {
			return "true"
		}
		return "false"
	case float64:
		return strconv.Itoa(int(v))
	case string:
		return session.NormalizeValue(v)
	default:
		b, err := json.Marshal(v)
		if err != nil {
			return ""
		}
		return string(b)
	}
}
