package ai

import (
	"context"
	"errors"
	"fmt"

	"google.golang.org/genai"
)

// Model is the one call the assistant loop needs from an LLM: given the
// conversation so far, produce the next model turn. Tests drive the loop
// with a scripted implementation.
type Model interface {
	Generate(ctx context.Context, history []*genai.Content) (*genai.Content, error)
}

// GeminiModel calls the Gemini API with the mail tool declarations attached.
type GeminiModel struct {
	client *genai.Client
	model  string
}

// NewGeminiModel creates a Gemini-backed model.
func NewGeminiModel(ctx context.Context, apiKey, model string) (*GeminiModel, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create gemini client: %w", err)
	}

	return &GeminiModel{client: client, model: model}, nil
}

func (m *GeminiModel) Generate(ctx context.Context, history []*genai.Content) (*genai.Content, error) {
	config := &genai.GenerateContentConfig{
		SystemInstruction: &genai.Content{
			Parts: []*genai.Part{{Text: systemPrompt()}},
		},
		Tools: []*genai.Tool{
			{FunctionDeclarations: toolDeclarations},
		},
	}

	resp, err := m.client.Models.GenerateContent(ctx, m.model, history, config)
	if err != nil {
		return nil, fmt.Errorf("failed to generate content: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil, errors.New("no response from model")
	}

	return resp.Candidates[0].Content, nil
}

// Ensure GeminiModel implements Model
var _ Model = (*GeminiModel)(nil)
