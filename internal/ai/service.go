// Package ai provides assistant features backed by a chat-completion
// model: agent name suggestions, trigger validation, log summaries,
// contextual help, and strategy explanations.
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/bitgenius/backend/internal/logstore"
	"github.com/bitgenius/backend/internal/metrics"
)

const (
	defaultNameCount   = 5
	summarizeLogsCap   = 10
	defaultTemperature = 0.7
)

// Completer produces one completion for a prompt. The production
// implementation wraps the OpenAI chat API; tests inject canned
// responses.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// OpenAIClient is the production Completer.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a Completer over the OpenAI chat API. An
// empty model defaults to gpt-4o-mini.
func NewOpenAIClient(apiKey, model string) *OpenAIClient {
	if model == "" {
		model = openai.GPT4oMini
	}
	return &OpenAIClient{client: openai.NewClient(apiKey), model: model}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: defaultTemperature,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		return "", fmt.Errorf("ai: completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("ai: completion returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// TriggerValidation is the model's verdict on a trigger condition.
type TriggerValidation struct {
	Valid       bool     `json:"valid"`
	Errors      []string `json:"errors"`
	Suggestions []string `json:"suggestions"`
}

// LogSummary condenses recent agent activity.
type LogSummary struct {
	Summary  string   `json:"summary"`
	Insights []string `json:"insights"`
	Tags     []string `json:"tags"`
}

// Help is contextual guidance for the dashboard.
type Help struct {
	Title   string   `json:"title"`
	Tips    []string `json:"tips"`
	Example string   `json:"example"`
}

// Service implements the assistant features over a Completer.
type Service struct {
	completer Completer
}

func NewService(completer Completer) *Service {
	return &Service{completer: completer}
}

func (s *Service) complete(ctx context.Context, feature, prompt string) (string, error) {
	out, err := s.completer.Complete(ctx, prompt)
	metrics.ObserveAICompletion(feature, err)
	return out, err
}

// SuggestNames returns up to five agent name suggestions for a goal.
func (s *Service) SuggestNames(ctx context.Context, goal string) ([]string, error) {
	prompt := fmt.Sprintf("Suggest %d creative and descriptive names for a Bitcoin trading agent with this goal: %s. "+
		"Return only the names as a comma-separated list without numbering or explanations.", defaultNameCount, goal)

	text, err := s.complete(ctx, "suggest_names", prompt)
	if err != nil {
		return nil, err
	}

	var names []string
	for _, part := range strings.Split(strings.TrimSpace(text), ",") {
		if name := strings.TrimSpace(part); name != "" {
			names = append(names, name)
		}
	}
	if len(names) > defaultNameCount {
		names = names[:defaultNameCount]
	}
	return names, nil
}

// ValidateTrigger asks the model to analyze a trigger condition. An
// unparseable reply degrades to an invalid verdict rather than an
// error so the form stays usable.
func (s *Service) ValidateTrigger(ctx context.Context, trigger string) (TriggerValidation, error) {
	prompt := fmt.Sprintf(`Analyze this Bitcoin agent trigger condition: %q

Check for:
1. Syntax errors
2. Logical consistency
3. Clarity compatibility

Return a JSON object with these fields:
- valid: boolean indicating if the trigger is valid
- errors: array of error messages (empty if valid)
- suggestions: array of improvement suggestions`, trigger)

	text, err := s.complete(ctx, "validate_trigger", prompt)
	if err != nil {
		return TriggerValidation{}, err
	}

	var v TriggerValidation
	if err := json.Unmarshal(extractJSON(text), &v); err != nil {
		return TriggerValidation{
			Valid:       false,
			Errors:      []string{"Could not parse AI response"},
			Suggestions: []string{"Try simplifying your trigger condition"},
		}, nil
	}
	return v, nil
}

// SummarizeLogs condenses up to ten log entries into a summary with
// insights. Empty input short-circuits without a model call.
func (s *Service) SummarizeLogs(ctx context.Context, entries []logstore.Entry) (LogSummary, error) {
	if len(entries) == 0 {
		return LogSummary{Summary: "No logs to summarize", Insights: []string{}, Tags: []string{}}, nil
	}
	if len(entries) > summarizeLogsCap {
		entries = entries[:summarizeLogsCap]
	}

	var lines []string
	for i, e := range entries {
		lines = append(lines, fmt.Sprintf("Log %d: %s - %s - %s", i+1, e.Action, e.Status, e.Details))
	}

	prompt := fmt.Sprintf(`Analyze these Bitcoin agent logs and provide a summary and insights:

%s

Return a JSON object with these fields:
- summary: a concise summary of agent activity
- insights: array of insights or recommendations
- tags: array of relevant tags for these logs`, strings.Join(lines, "\n"))

	text, err := s.complete(ctx, "summarize_logs", prompt)
	if err != nil {
		return LogSummary{}, err
	}

	var summary LogSummary
	if err := json.Unmarshal(extractJSON(text), &summary); err != nil {
		return LogSummary{
			Summary:  "Log analysis completed",
			Insights: []string{"Could not generate detailed insights"},
			Tags:     []string{"agent-activity"},
		}, nil
	}
	return summary, nil
}

// GetHelp returns contextual tips for the current dashboard view.
func (s *Service) GetHelp(ctx context.Context, userContext string) (Help, error) {
	prompt := fmt.Sprintf(`Provide helpful tips and guidance for a user working with a Bitcoin agent platform.

Current context: %s

Return a JSON object with these fields:
- title: a short, helpful title
- tips: array of helpful tips (3-5 items)
- example: a relevant example if applicable`, userContext)

	text, err := s.complete(ctx, "help", prompt)
	if err != nil {
		return Help{}, err
	}

	var help Help
	if err := json.Unmarshal(extractJSON(text), &help); err != nil {
		return Help{
			Title:   "Tips for Bitcoin Agents",
			Tips:    []string{"Start with small allocations", "Test your strategy thoroughly", "Monitor performance regularly"},
			Example: "Example: A DCA strategy that buys $10 of BTC weekly",
		}, nil
	}
	return help, nil
}

// ExplainStrategy returns a plain-language explanation of a strategy.
func (s *Service) ExplainStrategy(ctx context.Context, strategy string) (string, error) {
	prompt := fmt.Sprintf("Explain this Bitcoin trading strategy in simple terms: %s", strategy)
	return s.complete(ctx, "explain_strategy", prompt)
}

// extractJSON strips markdown code fences the model sometimes wraps
// around JSON replies.
func extractJSON(text string) []byte {
	text = strings.TrimSpace(text)
	if strings.HasPrefix(text, "```") {
		text = strings.TrimPrefix(text, "```json")
		text = strings.TrimPrefix(text, "```")
		if idx := strings.LastIndex(text, "```"); idx >= 0 {
			text = text[:idx]
		}
		text = strings.TrimSpace(text)
	}
	return []byte(text)
}
