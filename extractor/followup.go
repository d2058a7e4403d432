package extractor

var followUpPrompts = map[string]string{
	"cuisine":        "What kind of food are you craving?",
	"location":       "Where should I search for restaurants?",
	"budget":         "Do you have a budget in mind?",
	"travel_mode":    "Would you prefer to walk or take transit?",
	"travel_minutes": "How many minutes are you comfortable traveling?",
}

// GenericFollowUp is spoken when extraction fails and the conversation
// should still continue.
const GenericFollowUp = "Could you tell me a bit more so I can narrow it down?"

// FollowUpFor returns the question for the first missing required slot.
func FollowUpFor(missing []string) string {
	if len(missing) == 0 {
		return "Thanks! I have everything I need. Let me find a few options for you now."
	}
	if prompt, ok := followUpPrompts[missing[0]]; ok {
		return prompt
	}
	return GenericFollowUp
}
