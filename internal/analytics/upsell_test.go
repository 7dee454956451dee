package analytics

import (
	"testing"
	"time"

	"github.com/d2cmedia/syndesk/internal/models"
)

func fixedUpsell() *UpsellEngine {
	return &UpsellEngine{Now: func() time.Time { return testNow }}
}

func TestUpsellEnterpriseHasNoPath(t *testing.T) {
	opp := fixedUpsell().DetectOpportunity("we are expanding to multiple locations", "Enterprise", 36000, nil)
	if opp.HasOpportunity {
		t.Fatalf("Enterprise should not be upsellable: %+v", opp)
	}
	if len(opp.Reasoning) == 0 {
		t.Fatalf("reasoning missing")
	}
}

func TestUpsellExpansionRecommendsEnterprise(t *testing.T) {
	opp := fixedUpsell().DetectOpportunity("We are opening a second location and need feeds for multiple locations", "Standard", 12000, nil)
	if !opp.HasOpportunity {
		t.Fatalf("expected opportunity")
	}
	if opp.RecommendedPackage != "Enterprise" {
		t.Fatalf("recommended = %q", opp.RecommendedPackage)
	}
	// Standard 1000/mo to Enterprise 3000/mo.
	if opp.RevenueIncrease != 24000 {
		t.Fatalf("increase = %.0f", opp.RevenueIncrease)
	}
	if opp.PotentialARR != 36000 {
		t.Fatalf("potential arr = %.0f", opp.PotentialARR)
	}
	if opp.Priority != "High" || opp.Confidence != 85 {
		t.Fatalf("priority=%q confidence=%d", opp.Priority, opp.Confidence)
	}
}

func TestUpsellFeatureNeedsFromBasicRecommendPremium(t *testing.T) {
	opp := fixedUpsell().DetectOpportunity("we need more features, specifically advanced features for pricing", "Basic", 9000, nil)
	if opp.RecommendedPackage != "Premium" {
		t.Fatalf("recommended = %q", opp.RecommendedPackage)
	}
	if opp.RevenueIncrease != 9000 {
		t.Fatalf("increase = %.0f", opp.RevenueIncrease)
	}
}

func TestUpsellBehavioralVolumeOnBasic(t *testing.T) {
	var history []models.TicketRecord
	for i := 0; i < 6; i++ {
		history = append(history, record(1+i*2, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1))
	}

	opp := fixedUpsell().DetectOpportunity("status update please", "Basic", 9000, history)
	if !opp.HasOpportunity {
		t.Fatalf("expected behavioral opportunity")
	}
	if opp.RecommendedPackage != "Standard" {
		t.Fatalf("recommended = %q", opp.RecommendedPackage)
	}
	if opp.RevenueIncrease != 3000 {
		t.Fatalf("increase = %.0f", opp.RevenueIncrease)
	}
	if len(opp.Signals) == 0 || opp.Signals[0].Type != "behavioral" {
		t.Fatalf("signals = %+v", opp.Signals)
	}
}

func TestUpsellBehavioralProblemPattern(t *testing.T) {
	var history []models.TicketRecord
	for i := 0; i < 3; i++ {
		history = append(history, record(3+i*5, models.CategoryProblemBug, models.SentimentConcerned, models.Tier2))
	}

	opp := fixedUpsell().DetectOpportunity("another small thing", "Premium", 18000, history)
	if !opp.HasOpportunity {
		t.Fatalf("expected problem-pattern opportunity")
	}
	if opp.RecommendedPackage != "Enterprise" {
		t.Fatalf("recommended = %q", opp.RecommendedPackage)
	}
}

func TestUpsellPortfolioSummary(t *testing.T) {
	revenue := map[string]DealerRevenue{
		"D-1001": {DealerName: "Prestige Auto Laval", Package: "Basic", ARR: 9000},
		"D-1002": {DealerName: "Centre-Ville Honda", Package: "Enterprise", ARR: 36000},
	}
	histories := map[string][]models.TicketRecord{
		"D-1001": {
			record(1, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1),
			record(3, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1),
			record(5, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1),
			record(8, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1),
			record(12, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1),
			record(15, models.CategoryGeneralQuestion, models.SentimentNeutral, models.Tier1),
		},
		"D-1002": {
			record(4, models.CategoryGeneralQuestion, models.SentimentCalm, models.Tier1),
		},
	}

	summary := fixedUpsell().PortfolioSummary(revenue, histories)
	if summary.TotalOpportunities != 1 {
		t.Fatalf("total = %d", summary.TotalOpportunities)
	}
	if summary.TotalPotentialRevenue != 3000 {
		t.Fatalf("revenue = %.0f", summary.TotalPotentialRevenue)
	}
	if len(summary.MediumPriority) != 1 {
		t.Fatalf("priority buckets wrong: %+v", summary)
	}
}
