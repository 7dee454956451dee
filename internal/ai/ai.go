package ai

import (
	"context"

	"github.com/d2cmedia/syndesk/internal/models"
)

// Adapter extracts structured entities from raw ticket text. Implementations
// must return usable defaults alongside any error so that classification can
// proceed without model output.
type Adapter interface {
	ExtractEntities(ctx context.Context, text string) (models.ExtractedEntities, string, error)
}
