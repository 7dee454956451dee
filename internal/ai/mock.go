package ai

import (
	"context"
	"encoding/json"

	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/utils"
)

// MockAdapter produces deterministic extractions keyed off a hash of the
// ticket text. Useful for local runs and handler tests without an API key.
type MockAdapter struct{}

func (m MockAdapter) ExtractEntities(ctx context.Context, text string) (models.ExtractedEntities, string, error) {
	h := utils.HashStringToUint64(text)

	scenarios := []models.ExtractedEntities{
		func() models.ExtractedEntities {
			e := DefaultEntities()
			e.DealerName = "Prestige Auto Laval"
			e.ActionKeywords = []string{"activate", "setup"}
			e.SyndicatorsMentioned = []string{"Kijiji"}
			e.InventoryType = "Used"
			return e
		}(),
		func() models.ExtractedEntities {
			e := DefaultEntities()
			e.DealerName = "Centre-Ville Honda"
			e.ActionKeywords = []string{"cancel"}
			e.SyndicatorsMentioned = []string{"Kijiji"}
			e.Sentiment = models.SentimentCalm
			return e
		}(),
		func() models.ExtractedEntities {
			e := DefaultEntities()
			e.DealerName = "Rivière-du-Loup Toyota"
			e.ActionKeywords = []string{"fix"}
			e.ProblemIndicators = []string{"feed not updating"}
			e.UrgencyIndicators = []string{"asap"}
			e.Sentiment = models.SentimentFrustrated
			return e
		}(),
		func() models.ExtractedEntities {
			e := DefaultEntities()
			e.ActionKeywords = []string{"question"}
			e.AdditionalQuestions = []string{"how do I see my feed status?"}
			return e
		}(),
	}

	e := scenarios[h%uint64(len(scenarios))]
	raw, _ := json.Marshal(e)
	return e, string(raw), nil
}
