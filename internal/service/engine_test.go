package service

import (
	"reflect"
	"testing"

	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
)

func testTables() *refdata.Tables {
	return &refdata.Tables{
		Syndicators: []string{"Kijiji", "AutoTrader", "Facebook Marketplace", "Google Vehicle Ads", "AccuTrade"},
		Providers:   []string{"SERTI", "PBS"},
		RepDealers: []refdata.RepDealer{
			{RepName: "Marie Tremblay", DealerName: "Prestige Auto Laval", DealerID: "D-1001"},
			{RepName: "John Smith", DealerName: "Centre-Ville Honda", DealerID: "D-1002"},
		},
		BillingByID: map[string]refdata.Billing{
			"D-1001": {DealerID: "D-1001", OrderRequired: true, PackageType: "Premium", MonthlyFee: 1500},
			"D-1002": {DealerID: "D-1002", OrderRequired: false, PackageType: "Basic", MonthlyFee: 750},
		},
	}
}

func entitiesWith(mutate func(*models.ExtractedEntities)) models.ExtractedEntities {
	e := models.ExtractedEntities{
		SyndicatorsMentioned: []string{},
		ProvidersMentioned:   []string{},
		InventoryType:        models.InventoryUnspecified,
		ActionKeywords:       []string{},
		ProblemIndicators:    []string{},
		UrgencyIndicators:    []string{},
		Sentiment:            models.SentimentNeutral,
		KeyActionItems:       []string{},
		AdditionalQuestions:  []string{},
		SpecialRequests:      []string{},
	}
	if mutate != nil {
		mutate(&e)
	}
	return e
}

func TestClassifySimpleCancellation(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.DealerName = "Centre-Ville Honda"
		e.ActionKeywords = []string{"cancel"}
		e.SyndicatorsMentioned = []string{"Kijiji"}
	})

	c := engine.Classify(e)
	if c.Category != models.CategoryCancellation {
		t.Fatalf("category = %q", c.Category)
	}
	if c.SubCategory != models.SubCategoryExport {
		t.Fatalf("sub_category = %q", c.SubCategory)
	}
	if c.Syndicator != "Kijiji" || c.Provider != "" {
		t.Fatalf("syndicator=%q provider=%q", c.Syndicator, c.Provider)
	}
	if c.Tier != models.Tier1 {
		t.Fatalf("tier = %q, want Tier 1", c.Tier)
	}
}

func TestClassifyCancellationWithQuestionsIsTier2(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"cancel"}
		e.SyndicatorsMentioned = []string{"Kijiji"}
		e.AdditionalQuestions = []string{"Will we be refunded for this month?"}
	})

	if c := engine.Classify(e); c.Tier != models.Tier2 {
		t.Fatalf("tier = %q, want Tier 2", c.Tier)
	}
}

func TestClassifyProblemOutranksCancellation(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"cancel"}
		e.ProblemIndicators = []string{"feed has not updated in 3 days"}
	})

	c := engine.Classify(e)
	if c.Category != models.CategoryProblemBug {
		t.Fatalf("category = %q, want Problem / Bug", c.Category)
	}
	if c.Tier == models.Tier1 {
		t.Fatalf("problem ticket classified Tier 1")
	}
}

func TestClassifyNewClientActivation(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"setup", "new"}
	})

	c := engine.Classify(e)
	if c.Category != models.CategoryActivationNew {
		t.Fatalf("category = %q", c.Category)
	}
	if c.Tier != models.Tier2 {
		t.Fatalf("tier = %q, want Tier 2", c.Tier)
	}
}

func TestClassifySimpleActivationIsTier1(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"activate"}
		e.SyndicatorsMentioned = []string{"AutoTrader"}
	})

	c := engine.Classify(e)
	if c.Category != models.CategoryActivationExisting {
		t.Fatalf("category = %q", c.Category)
	}
	if c.Tier != models.Tier1 {
		t.Fatalf("tier = %q, want Tier 1", c.Tier)
	}
}

func TestClassifyUrgencyForcesTier3(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"question"}
		e.UrgencyIndicators = []string{"client threatening to cancel"}
	})

	if c := engine.Classify(e); c.Tier != models.Tier3 {
		t.Fatalf("tier = %q, want Tier 3", c.Tier)
	}
}

func TestClassifyImportFillsProvider(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"import", "check"}
	})

	c := engine.Classify(e)
	if c.SubCategory != models.SubCategoryImport {
		t.Fatalf("sub_category = %q", c.SubCategory)
	}
	if c.Provider != "SERTI" || c.Syndicator != "" {
		t.Fatalf("provider=%q syndicator=%q", c.Provider, c.Syndicator)
	}
}

func TestClassifyFacebookAndGoogleSetup(t *testing.T) {
	engine := NewEngine(testTables())

	c := engine.Classify(entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"fb"}
	}))
	if c.SubCategory != models.SubCategoryFBSetup || c.Syndicator != "Facebook Marketplace" {
		t.Fatalf("fb: sub=%q syndicator=%q", c.SubCategory, c.Syndicator)
	}

	c = engine.Classify(entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"google"}
	}))
	if c.SubCategory != models.SubCategoryGoogleSetup || c.Syndicator != "Google Vehicle Ads" {
		t.Fatalf("google: sub=%q syndicator=%q", c.SubCategory, c.Syndicator)
	}
}

func TestClassifyFallbackDefaultsToFirstSyndicator(t *testing.T) {
	engine := NewEngine(testTables())

	c := engine.Classify(entitiesWith(nil))
	if c.Category != models.CategoryOther || c.SubCategory != models.SubCategoryOther {
		t.Fatalf("category=%q sub=%q", c.Category, c.SubCategory)
	}
	if c.Syndicator != "Kijiji" || c.Provider != "" {
		t.Fatalf("syndicator=%q provider=%q", c.Syndicator, c.Provider)
	}
}

func TestClassifyEmptyCatalogsLeaveBothEmpty(t *testing.T) {
	engine := NewEngine(&refdata.Tables{BillingByID: map[string]refdata.Billing{}})

	c := engine.Classify(entitiesWith(nil))
	if c.Syndicator != "" || c.Provider != "" {
		t.Fatalf("expected both empty with empty catalogs, got syndicator=%q provider=%q", c.Syndicator, c.Provider)
	}
}

func TestClassifyMultipleDealers(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.DealerName = "Prestige Auto Laval"
		e.MultipleDealers = true
		e.SyndicatorsMentioned = []string{"Kijiji", "AutoTrader"}
	})

	c := engine.Classify(e)
	if c.DealerName != "Multiple: Kijiji, AutoTrader" {
		t.Fatalf("dealer_name = %q", c.DealerName)
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	engine := NewEngine(testTables())
	e := entitiesWith(func(e *models.ExtractedEntities) {
		e.ActionKeywords = []string{"activate"}
		e.SyndicatorsMentioned = []string{"Kijiji"}
	})

	first := engine.Classify(e)
	for i := 0; i < 10; i++ {
		if got := engine.Classify(e); !reflect.DeepEqual(got, first) {
			t.Fatalf("classification differed on run %d: %+v vs %+v", i, got, first)
		}
	}
}

func TestValidateClassificationEnums(t *testing.T) {
	engine := NewEngine(testTables())

	c := engine.ValidateClassification(models.Classification{
		Category:      "Weird Category",
		SubCategory:   "Nope",
		InventoryType: "Flying Cars",
		Tier:          "Tier 9",
	})
	if c.Category != "" || c.SubCategory != "" || c.Tier != "" {
		t.Fatalf("invalid enums not reset: %+v", c)
	}
	if c.InventoryType != models.InventoryUnspecified {
		t.Fatalf("inventory_type = %q", c.InventoryType)
	}
}

func TestValidateClassificationSyndicator(t *testing.T) {
	engine := NewEngine(testTables())

	c := engine.ValidateClassification(models.Classification{Syndicator: "kijiji"})
	if c.Syndicator != "kijiji" {
		t.Fatalf("approved syndicator modified: %q", c.Syndicator)
	}

	c = engine.ValidateClassification(models.Classification{Syndicator: "facebook"})
	if c.Syndicator != "Facebook Marketplace" {
		t.Fatalf("substring fallback = %q", c.Syndicator)
	}

	c = engine.ValidateClassification(models.Classification{Syndicator: "CarBids"})
	if c.Syndicator != "" {
		t.Fatalf("unknown syndicator kept: %q", c.Syndicator)
	}
}

func TestValidateClassificationExclusivityAndMultiple(t *testing.T) {
	engine := NewEngine(testTables())

	c := engine.ValidateClassification(models.Classification{Syndicator: "Kijiji", Provider: "SERTI"})
	if c.Syndicator != "Kijiji" || c.Provider != "" {
		t.Fatalf("exclusivity not enforced: %+v", c)
	}

	c = engine.ValidateClassification(models.Classification{
		DealerName: "Multiple: A, B",
		DealerID:   "D-1001",
	})
	if c.DealerID != "" {
		t.Fatalf("multiple-dealer record kept a dealer id: %q", c.DealerID)
	}
}

func TestClassifyEnumMembership(t *testing.T) {
	engine := NewEngine(testTables())

	cases := []models.ExtractedEntities{
		entitiesWith(nil),
		entitiesWith(func(e *models.ExtractedEntities) { e.ActionKeywords = []string{"cancel"} }),
		entitiesWith(func(e *models.ExtractedEntities) { e.ProblemIndicators = []string{"broken"} }),
		entitiesWith(func(e *models.ExtractedEntities) { e.ActionKeywords = []string{"review"} }),
		entitiesWith(func(e *models.ExtractedEntities) { e.ActionKeywords = []string{"import"} }),
	}

	for i, e := range cases {
		c := engine.Classify(e)
		if !contains(models.ValidCategories, c.Category) {
			t.Fatalf("case %d: category %q not in enum", i, c.Category)
		}
		if !contains(models.ValidSubCategories, c.SubCategory) {
			t.Fatalf("case %d: sub_category %q not in enum", i, c.SubCategory)
		}
		if !contains(models.ValidTiers, c.Tier) {
			t.Fatalf("case %d: tier %q not in enum", i, c.Tier)
		}
		if !contains(models.ValidInventoryTypes, c.InventoryType) {
			t.Fatalf("case %d: inventory %q not in enum", i, c.InventoryType)
		}
		if c.Syndicator != "" && c.Provider != "" {
			t.Fatalf("case %d: both syndicator and provider set", i)
		}
	}
}
