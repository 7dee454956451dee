package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/d2cmedia/syndesk/internal/ai"
	"github.com/d2cmedia/syndesk/internal/db"
	"github.com/d2cmedia/syndesk/internal/models"
)

// maxThreadsInText caps how much conversation history goes to the extractor.
const maxThreadsInText = 5

// ProcessingService ties extraction, classification, enrichment and
// persistence together. One ticket failing never stops a batch.
type ProcessingService struct {
	Store      *db.Store
	AI         ai.Adapter
	Engine     *Engine
	Resolver   *Resolver
	Automation *Automation
	Logger     zerolog.Logger
}

type RunSummary struct {
	Events  []map[string]any `json:"events"`
	Counts  map[string]any   `json:"counts"`
	Samples []map[string]any `json:"samples,omitempty"`
}

// BuildTicketText assembles the text sent to the extractor: subject,
// description, then the newest threads oldest-first, each prefixed with its
// author.
func BuildTicketText(t models.Ticket) string {
	var b strings.Builder
	if t.Subject != "" {
		b.WriteString("Subject: ")
		b.WriteString(t.Subject)
		b.WriteString("\n\n")
	}
	b.WriteString(t.Description)

	threads := append([]models.Thread{}, t.Threads...)
	sort.SliceStable(threads, func(i, j int) bool {
		return threads[i].Timestamp.Before(threads[j].Timestamp)
	})
	if len(threads) > maxThreadsInText {
		threads = threads[len(threads)-maxThreadsInText:]
	}
	for _, th := range threads {
		author := th.Author
		if author == "" {
			author = th.FromEmail
		}
		b.WriteString("\n\n")
		b.WriteString("From: ")
		b.WriteString(author)
		b.WriteString("\n")
		b.WriteString(th.Body)
	}
	return b.String()
}

// ClassifyTicket runs the full pipeline for one ticket. It never fails:
// extraction errors degrade to default entities and the result carries the
// error text.
func (s *ProcessingService) ClassifyTicket(ctx context.Context, t models.Ticket) models.TicketResult {
	result := models.TicketResult{TicketID: t.ID}

	text := BuildTicketText(t)
	entities, raw, err := s.AI.ExtractEntities(ctx, text)
	if err != nil {
		s.Logger.Warn().Err(err).Str("ticket_id", t.ID).Msg("entity extraction degraded to defaults")
		result.Err = err.Error()
	}
	result.Entities = entities
	result.RawModelOutput = raw

	c := s.Engine.Classify(entities)
	c = s.Resolver.Enrich(c)
	c = s.Engine.ValidateClassification(c)
	result.Classification = c

	result.SuggestedResponse = SuggestResponse(c, entities)
	result.Automatable, result.AutomationReason = s.Automation.CanAutomate(c, entities)

	return result
}

// ProcessBatch classifies every ticket and persists the results. Per-ticket
// persistence failures are counted and do not abort the run.
func (s *ProcessingService) ProcessBatch(ctx context.Context, tickets []models.Ticket, debug bool) (RunSummary, error) {
	summary := RunSummary{Counts: map[string]any{}}
	start := time.Now()

	summary.Events = append(summary.Events, map[string]any{
		"type":    "batch_start",
		"message": "Tickets ready for processing",
		"count":   len(tickets),
		"time":    time.Now().UTC(),
	})

	var (
		classified    int
		extractErrors int
		dbErrors      int
		automatable   int
		tierCounts    = map[string]int{}
		categoryCount = map[string]int{}
	)

	for _, t := range tickets {
		result := s.ClassifyTicket(ctx, t)
		classified++
		if result.Err != "" {
			extractErrors++
		}
		if result.Automatable {
			automatable++
		}
		tierCounts[result.Classification.Tier]++
		categoryCount[result.Classification.Category]++

		record := models.ClassificationRecord{
			TicketID:          t.ID,
			Classification:    result.Classification,
			RawModelOutput:    result.RawModelOutput,
			SuggestedResponse: result.SuggestedResponse,
			Automatable:       result.Automatable,
			AutomationReason:  result.AutomationReason,
			TicketSubject:     t.Subject,
		}
		if err := s.Store.UpsertClassification(ctx, record); err != nil {
			dbErrors++
			s.Logger.Error().Err(err).Str("ticket_id", t.ID).Msg("classification write failed")
			continue
		}

		if debug && len(summary.Samples) < 5 {
			summary.Samples = append(summary.Samples, map[string]any{
				"ticket_id":         t.ID,
				"category":          result.Classification.Category,
				"sub_category":      result.Classification.SubCategory,
				"tier":              result.Classification.Tier,
				"automatable":       result.Automatable,
				"automation_reason": result.AutomationReason,
			})
		}
	}

	summary.Events = append(summary.Events, map[string]any{
		"type":           "classification",
		"message":        "Classification complete",
		"count":          classified,
		"extract_errors": extractErrors,
		"time":           time.Now().UTC(),
	})

	summary.Events = append(summary.Events, map[string]any{
		"type":       "db_save",
		"message":    "Batch saved",
		"db_errors":  dbErrors,
		"elapsed_ms": time.Since(start).Milliseconds(),
		"time":       time.Now().UTC(),
	})

	summary.Counts["tickets_processed"] = len(tickets)
	summary.Counts["classified"] = classified
	summary.Counts["extract_errors"] = extractErrors
	summary.Counts["db_errors"] = dbErrors
	summary.Counts["automatable"] = automatable
	summary.Counts["by_tier"] = tierCounts
	summary.Counts["by_category"] = categoryCount
	return summary, nil
}

// Automate re-runs the gate and executes the workflow for a stored
// classification.
func (s *ProcessingService) Automate(ctx context.Context, t models.Ticket) (models.AutomationResult, error) {
	result := s.ClassifyTicket(ctx, t)
	ok, reason := s.Automation.CanAutomate(result.Classification, result.Entities)
	if !ok {
		return models.AutomationResult{}, fmt.Errorf("not automatable: %s", reason)
	}
	return s.Automation.Execute(ctx, t, result.Classification, result.Entities), nil
}
