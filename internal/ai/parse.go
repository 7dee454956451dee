package ai

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/d2cmedia/syndesk/internal/models"
)

// DefaultEntities returns the fallback extraction used when the model is
// unavailable or its output cannot be parsed. Every field is populated.
func DefaultEntities() models.ExtractedEntities {
	return models.ExtractedEntities{
		DealerName:           "",
		SyndicatorsMentioned: []string{},
		ProvidersMentioned:   []string{},
		InventoryType:        models.InventoryUnspecified,
		ActionKeywords:       []string{},
		ProblemIndicators:    []string{},
		UrgencyIndicators:    []string{},
		MultipleDealers:      false,
		Sentiment:            models.SentimentNeutral,
		KeyActionItems:       []string{},
		AdditionalQuestions:  []string{},
		SpecialRequests:      []string{},
	}
}

// ParseEntities decodes the model's reply into ExtractedEntities. The reply
// may wrap the JSON object in prose or markdown fences; everything outside
// the first '{' and last '}' is ignored. Missing fields are back-filled with
// defaults and out-of-range sentiments reset to Neutral.
func ParseEntities(raw string) (models.ExtractedEntities, error) {
	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start < 0 || end <= start {
		return DefaultEntities(), fmt.Errorf("no JSON object in model output")
	}

	e := DefaultEntities()
	if err := json.Unmarshal([]byte(raw[start:end+1]), &e); err != nil {
		return DefaultEntities(), fmt.Errorf("decode model output: %w", err)
	}
	normalizeEntities(&e)
	return e, nil
}

func normalizeEntities(e *models.ExtractedEntities) {
	if e.SyndicatorsMentioned == nil {
		e.SyndicatorsMentioned = []string{}
	}
	if e.ProvidersMentioned == nil {
		e.ProvidersMentioned = []string{}
	}
	if e.ActionKeywords == nil {
		e.ActionKeywords = []string{}
	}
	if e.ProblemIndicators == nil {
		e.ProblemIndicators = []string{}
	}
	if e.UrgencyIndicators == nil {
		e.UrgencyIndicators = []string{}
	}
	if e.KeyActionItems == nil {
		e.KeyActionItems = []string{}
	}
	if e.AdditionalQuestions == nil {
		e.AdditionalQuestions = []string{}
	}
	if e.SpecialRequests == nil {
		e.SpecialRequests = []string{}
	}
	if strings.TrimSpace(e.InventoryType) == "" {
		e.InventoryType = models.InventoryUnspecified
	}
	if !validSentiment(e.Sentiment) {
		e.Sentiment = models.SentimentNeutral
	}
}

func validSentiment(s models.Sentiment) bool {
	for _, v := range models.ValidSentiments {
		if strings.EqualFold(string(v), string(s)) {
			return true
		}
	}
	return false
}
