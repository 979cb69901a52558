package ai

import (
	"context"
	"log"
	"strings"
	"sync"

	"google.golang.org/genai"
)

// maxToolRounds caps how many model turns one user message may trigger. A
// model stuck calling tools forever stops silently at the cap.
const maxToolRounds = 10

// ToolResult is the user-visible trace of one tool call.
type ToolResult struct {
	Tool    string `json:"tool"`
	Summary string `json:"summary"`
}

// ChatResult is the outcome of one user message: the assistant's final text
// plus the tool calls it made along the way.
type ChatResult struct {
	Reply       string       `json:"reply"`
	ToolResults []ToolResult `json:"toolResults"`
}

// Assistant runs the tool-calling conversation loop. Conversations are kept
// per user for the lifetime of the process.
type Assistant struct {
	model Model

	mu            sync.Mutex
	conversations map[string][]*genai.Content
}

// NewAssistant creates an assistant backed by the given model.
func NewAssistant(model Model) *Assistant {
	return &Assistant{
		model:         model,
		conversations: make(map[string][]*genai.Content),
	}
}

// Chat appends the user message to the conversation and runs the loop until
// the model answers without tool calls, or the round cap is hit. A transport
// failure does not error out; it surfaces as the assistant's reply so the
// conversation stays usable.
func (a *Assistant) Chat(ctx context.Context, exec *Executor, userID, message string) *ChatResult {
	history := a.appendTurn(userID, &genai.Content{
		Role:  genai.RoleUser,
		Parts: []*genai.Part{{Text: message}},
	})

	result := &ChatResult{ToolResults: []ToolResult{}}

	for round := 0; round < maxToolRounds; round++ {
		content, err := a.model.Generate(ctx, history)
		if err != nil {
			log.Printf("Assistant: model call failed for user %s: %v", userID, err)
			result.Reply = "Error: " + err.Error()
			return result
		}

		history = a.appendTurn(userID, content)

		var texts []string
		var calls []*genai.FunctionCall
		for _, part := range content.Parts {
			if part.Text != "" {
				texts = append(texts, part.Text)
			}
			if part.FunctionCall != nil {
				calls = append(calls, part.FunctionCall)
			}
		}

		if len(texts) > 0 {
			result.Reply = strings.Join(texts, "\n")
		}

		if len(calls) == 0 {
			return result
		}

		responseParts := make([]*genai.Part, 0, len(calls))
		for _, call := range calls {
			toolResult := exec.Execute(ctx, call.Name, call.Args)
			result.ToolResults = append(result.ToolResults, ToolResult{
				Tool:    call.Name,
				Summary: toolResult.Summary,
			})
			responseParts = append(responseParts, &genai.Part{
				FunctionResponse: &genai.FunctionResponse{
					Name:     call.Name,
					Response: toolResult.Data,
				},
			})
		}

		history = a.appendTurn(userID, &genai.Content{
			Role:  "function",
			Parts: responseParts,
		})
	}

	log.Printf("Assistant: tool round cap reached for user %s", userID)

	return result
}

// appendTurn adds a turn to the user's conversation and returns the full
// history.
func (a *Assistant) appendTurn(userID string, content *genai.Content) []*genai.Content {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.conversations[userID] = append(a.conversations[userID], content)

	return a.conversations[userID]
}
