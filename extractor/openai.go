package extractor

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/dibyanshupatnaik/twilio-conversation-relay-gmaps/session"
)

// OpenAI extracts slots with a chat completion in JSON mode.
type OpenAI struct {
	client openai.Client
	model  openai.ChatModel
}

// NewOpenAI builds an extractor backed by the OpenAI API.
func NewOpenAI(apiKey string) *OpenAI {
	return &OpenAI{
		client: openai.NewClient(option.WithAPIKey(apiKey)),
		model:  openai.ChatModelGPT4oMini,
	}
}

func (o *OpenAI) Extract(ctx context.Context, utterance string, prior session.Slots) (session.Slots, error) {
	completion, err := o.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:       o.model,
		Temperature: openai.Float(0),
		ResponseFormat: openai.ChatCompletionNewParamsResponseFormatUnion{
			OfJSONObject: &shared.ResponseFormatJSONObjectParam{},
		},
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemInstruction),
			openai.UserMessage(buildUserPrompt(utterance, prior)),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("openai extraction: %w", err)
	}
	if len(completion.Choices) == 0 {
		return nil, fmt.Errorf("openai extraction: empty response")
	}
	return parsePayload(completion.Choices[0].Message.Content)
}
