package extractor

import (
	"context"
	"fmt"

	"google.golang.org/genai"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

const geminiModel = "gemini-2.0-flash"

// Gemini extracts slots with a single GenerateContent call constrained to
// JSON output.
type Gemini struct {
	client *genai.Client
}

// NewGemini builds an extractor backed by the Gemini API.
func NewGemini(ctx context.Context, apiKey string) (*Gemini, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client}, nil
}

func (g *Gemini) Extract(ctx context.Context, utterance string, prior session.Slots) (session.Slots, error) {
	resp, err := g.client.Models.GenerateContent(ctx, geminiModel,
		genai.Text(buildUserPrompt(utterance, prior)),
		&genai.GenerateContentConfig{
			SystemInstruction: genai.NewContentFromText(systemInstruction, genai.RoleUser),
			ResponseMIMEType:  "application/json",
			Temperature:       genai.Ptr[float32](0),
		})
	if err != nil {
		return nil, fmt.Errorf("gemini extraction: %w", err)
	}
	return parsePayload(resp.Text())
}
