package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	openai "github.com/sashabaranov/go-openai"

	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
)

const (
	maxAttempts     = 3
	baseRetryDelay  = 2 * time.Second
	maxRetryDelay   = 10 * time.Second
	promptCatalogue = 20
)

// OpenAIAdapter extracts entities with one chat completion per ticket.
type OpenAIAdapter struct {
	client *openai.Client
	model  string
	ref    *refdata.Tables
	logger zerolog.Logger
}

func NewOpenAIAdapter(apiKey, model string, ref *refdata.Tables, logger zerolog.Logger) *OpenAIAdapter {
	return &OpenAIAdapter{
		client: openai.NewClient(apiKey),
		model:  model,
		ref:    ref,
		logger: logger.With().Str("component", "openai_adapter").Logger(),
	}
}

// ExtractEntities sends the ticket text to the model and parses the JSON
// reply. On exhaustion of retries or an unparseable reply it returns
// DefaultEntities together with the error; callers are expected to continue
// with the defaults.
func (a *OpenAIAdapter) ExtractEntities(ctx context.Context, text string) (models.ExtractedEntities, string, error) {
	req := openai.ChatCompletionRequest{
		Model: a.model,
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: "You extract structured entities from automotive dealership support tickets. Reply with a single JSON object and nothing else.",
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: a.buildPrompt(text),
			},
		},
		Temperature: 0,
		MaxTokens:   800,
	}

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			if delay > maxRetryDelay {
				delay = maxRetryDelay
			}
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return DefaultEntities(), "", ctx.Err()
			}
		}

		resp, err := a.client.CreateChatCompletion(ctx, req)
		if err != nil {
			lastErr = err
			a.logger.Warn().Err(err).Int("attempt", attempt+1).Msg("chat completion failed")
			continue
		}
		if len(resp.Choices) == 0 {
			lastErr = fmt.Errorf("empty completion")
			continue
		}

		raw := resp.Choices[0].Message.Content
		entities, err := ParseEntities(raw)
		if err != nil {
			a.logger.Warn().Err(err).Msg("model output did not parse, using defaults")
			return DefaultEntities(), raw, err
		}
		return entities, raw, nil
	}

	return DefaultEntities(), "", fmt.Errorf("extraction failed after %d attempts: %w", maxAttempts, lastErr)
}

func (a *OpenAIAdapter) buildPrompt(text string) string {
	syndicators := a.ref.Syndicators
	if len(syndicators) > promptCatalogue {
		syndicators = syndicators[:promptCatalogue]
	}

	var b strings.Builder
	b.WriteString("Extract entities from this support ticket.\n\n")
	b.WriteString("Approved syndicators (export destinations): ")
	b.WriteString(strings.Join(syndicators, ", "))
	b.WriteString("\nImport providers (DMS / inventory sources): ")
	b.WriteString(strings.Join(a.ref.Providers, ", "))
	b.WriteString("\n\nTicket:\n")
	b.WriteString(text)
	b.WriteString(`

Return exactly this JSON structure:
{
  "dealer_name": "dealership name or empty string",
  "syndicators_mentioned": ["syndicators from the approved list mentioned in the ticket"],
  "providers_mentioned": ["import providers mentioned in the ticket"],
  "inventory_type": "one of: New, Used, Demo, New + Used, In-Transit, AS-IS, CPO, Unspecified",
  "action_keywords": ["verbs describing what the requester wants, e.g. activate, cancel, fix"],
  "problem_indicators": ["phrases describing something broken or malfunctioning"],
  "urgency_indicators": ["phrases expressing urgency or escalation"],
  "multiple_dealers": false,
  "sentiment": "one of: Calm, Neutral, Concerned, Frustrated, Urgent, Critical",
  "key_action_items": ["concrete tasks the support team must perform"],
  "additional_questions": ["questions the requester asked beyond the main request"],
  "special_requests": ["unusual or non-standard asks"]
}

Rules:
- A request to stop, cancel or deactivate a feed is NOT a problem. Only fill problem_indicators when something is broken.
- Only list syndicators that appear on the approved list above.
- Set multiple_dealers true only when the ticket names more than one dealership.`)
	return b.String()
}
