package service

import (
	"strings"

	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
	"github.com/d2cmedia/syndesk/internal/utils"
)

// Engine turns extracted entities into a full classification using ordered
// keyword rules. All decisions are deterministic: the same entities always
// yield the same classification.
type Engine struct {
	Ref *refdata.Tables
}

func NewEngine(ref *refdata.Tables) *Engine {
	return &Engine{Ref: ref}
}

var (
	cancelWords    = []string{"cancel", "deactivate", "disable", "stop", "remove"}
	activateWords  = []string{"activate", "setup", "enable", "start", "configure"}
	newClientWords = []string{"new", "onboard", "first"}
	questionWords  = []string{"question", "how", "can", "what", "why", "clarify"}
	reviewWords    = []string{"review", "analyze", "check", "audit", "report"}
	importWords    = []string{"import", "importing", "feed in", "data in"}
	exportWords    = []string{"export", "exporting", "feed out", "syndicate"}
	urgentWords    = []string{"urgent", "asap", "critical", "emergency", "threatening", "angry"}
	facebookWords  = []string{"facebook", "fb"}
	googleWords    = []string{"google"}
)

// Classify walks the category, sub-category and tier rule chains in order.
// The first matching rule in each chain wins.
func (e *Engine) Classify(entities models.ExtractedEntities) models.Classification {
	c := models.Classification{InventoryType: models.InventoryUnspecified}

	actions := lowerAll(entities.ActionKeywords)

	c.DealerName = entities.DealerName
	if entities.MultipleDealers {
		names := append(append([]string{}, entities.SyndicatorsMentioned...), entities.ProvidersMentioned...)
		if len(names) > 1 {
			c.DealerName = "Multiple: " + strings.Join(names, ", ")
		}
	}

	if inv := strings.TrimSpace(entities.InventoryType); inv != "" && contains(models.ValidInventoryTypes, inv) {
		c.InventoryType = inv
	}

	c.Category = e.category(actions, entities)
	e.subCategory(&c, actions, entities)
	c.Tier = e.tier(c.Category, actions, entities)

	return c
}

// Problems outrank everything: any problem indicator means Problem / Bug
// regardless of what else the ticket asks for.
func (e *Engine) category(actions []string, entities models.ExtractedEntities) string {
	switch {
	case len(entities.ProblemIndicators) > 0:
		return models.CategoryProblemBug
	case containsAny(actions, cancelWords):
		return models.CategoryCancellation
	case containsAny(actions, activateWords):
		if containsAny(actions, newClientWords) {
			return models.CategoryActivationNew
		}
		return models.CategoryActivationExisting
	case containsAny(actions, questionWords):
		return models.CategoryGeneralQuestion
	case containsAny(actions, reviewWords):
		return models.CategoryAnalysisReview
	default:
		return models.CategoryOther
	}
}

func (e *Engine) subCategory(c *models.Classification, actions []string, entities models.ExtractedEntities) {
	syndicators := entities.SyndicatorsMentioned
	providers := entities.ProvidersMentioned

	switch {
	case len(providers) > 0 || containsAny(actions, importWords):
		c.SubCategory = models.SubCategoryImport
		if len(providers) > 0 {
			c.Provider = providers[0]
		} else {
			c.Provider = e.Ref.DefaultProvider()
		}
		c.Syndicator = ""

	case len(syndicators) > 0 || containsAny(actions, exportWords):
		c.SubCategory = models.SubCategoryExport
		if len(syndicators) > 0 {
			c.Syndicator = syndicators[0]
		} else {
			c.Syndicator = e.Ref.SyndicatorAt(0)
		}
		c.Provider = ""

	case containsAny(actions, facebookWords):
		c.SubCategory = models.SubCategoryFBSetup
		c.Syndicator = e.Ref.SyndicatorAt(2)
		c.Provider = ""

	case containsAny(actions, googleWords):
		c.SubCategory = models.SubCategoryGoogleSetup
		c.Syndicator = e.Ref.SyndicatorAt(3)
		c.Provider = ""

	case strings.Contains(strings.Join(actions, " "), "accutrade"):
		c.SubCategory = models.SubCategoryAccuTrade
		c.Syndicator = e.Ref.SyndicatorAt(4)
		c.Provider = ""

	default:
		c.SubCategory = models.SubCategoryOther
		switch {
		case len(syndicators) > 0:
			c.Syndicator = syndicators[0]
		case len(providers) > 0:
			c.Provider = providers[0]
		default:
			c.Syndicator = e.Ref.SyndicatorAt(0)
		}
	}

	// Post-condition: one of syndicator/provider must be set whenever the
	// catalogs are non-empty.
	if c.Syndicator == "" && c.Provider == "" {
		if c.SubCategory == models.SubCategoryImport {
			c.Provider = e.Ref.DefaultProvider()
		} else {
			c.Syndicator = e.Ref.SyndicatorAt(0)
		}
	}
}

func (e *Engine) tier(category string, actions []string, entities models.ExtractedEntities) string {
	hasComplexity := len(entities.AdditionalQuestions) > 0 || len(entities.SpecialRequests) > 0

	switch {
	case len(entities.UrgencyIndicators) > 0 || containsAny(actions, urgentWords):
		return models.Tier3
	case category == models.CategoryProblemBug:
		return models.Tier2
	case category == models.CategoryActivationExisting:
		if hasComplexity {
			return models.Tier2
		}
		return models.Tier1
	case category == models.CategoryActivationNew:
		return models.Tier2
	case category == models.CategoryCancellation:
		if hasComplexity {
			return models.Tier2
		}
		return models.Tier1
	default:
		return models.Tier1
	}
}

// ValidateClassification resets out-of-enum fields and enforces the
// syndicator/provider exclusivity and the multiple-dealer rule. It never
// rejects; invalid values degrade to their documented defaults.
func (e *Engine) ValidateClassification(c models.Classification) models.Classification {
	if c.Category != "" && !contains(models.ValidCategories, c.Category) {
		c.Category = ""
	}
	if c.SubCategory != "" && !contains(models.ValidSubCategories, c.SubCategory) {
		c.SubCategory = ""
	}
	if !contains(models.ValidInventoryTypes, c.InventoryType) {
		c.InventoryType = models.InventoryUnspecified
	}
	if c.Tier != "" && !contains(models.ValidTiers, c.Tier) {
		c.Tier = ""
	}

	if c.Syndicator != "" && !e.Ref.IsApprovedSyndicator(c.Syndicator) {
		matched := ""
		for _, s := range e.Ref.Syndicators {
			if utils.ContainsFold(s, c.Syndicator) || utils.ContainsFold(c.Syndicator, s) {
				matched = utils.TitleCase(s)
				break
			}
		}
		c.Syndicator = matched
	}

	if strings.HasPrefix(c.DealerName, "Multiple:") {
		c.DealerID = ""
	}

	// Mutual exclusivity: syndicator wins when both somehow got set.
	if c.Syndicator != "" && c.Provider != "" {
		c.Provider = ""
	}

	return c
}

func lowerAll(words []string) []string {
	out := make([]string, len(words))
	for i, w := range words {
		out[i] = strings.ToLower(strings.TrimSpace(w))
	}
	return out
}

func containsAny(haystack, needles []string) bool {
	for _, h := range haystack {
		for _, n := range needles {
			if h == n {
				return true
			}
		}
	}
	return false
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}
