package analytics

import (
	"fmt"
	"sort"
	"strings"

	"github.com/d2cmedia/syndesk/internal/models"
)

// Keyword tables that mark revenue opportunities in ticket text.
var featureSignals = map[string][]string{
	"advanced_features": {
		"advanced reporting", "custom reports", "analytics dashboard",
		"api access", "webhook", "integration", "custom integration",
		"white label", "branded", "custom branding",
	},
	"multi_location": {
		"multi-location", "multiple locations", "second location", "third location",
		"additional location", "new location", "another location", "expansion",
		"open new", "chain", "franchise", "all locations",
	},
	"team_expansion": {
		"add user", "additional user", "more users", "team member",
		"new employee", "hire", "growing team", "expand team",
	},
	"inventory_expansion": {
		"more inventory", "additional inventory", "increase capacity",
		"more vehicles", "expand inventory", "larger inventory",
	},
	"premium_support": {
		"dedicated support", "priority support", "phone support",
		"faster response", "account manager", "dedicated rep",
	},
	"new_product": {
		"what about", "do you offer", "can we get", "is there a way to",
		"how do we", "interested in", "looking for", "need to",
	},
}

var expansionSignals = map[string][]string{
	"growth": {
		"growing", "expansion", "scale", "scaling up", "expanding",
		"increase", "more customers", "higher volume",
	},
	"new_market": {
		"new market", "new territory", "another state", "different region",
		"opening in", "launching in",
	},
	"acquisition": {
		"acquired", "acquisition", "bought", "purchased dealership",
		"merged", "merger",
	},
}

var productSignals = map[string][]string{
	"website":   {"website", "web presence", "online", "digital showroom"},
	"crm":       {"crm", "customer management", "lead management", "sales pipeline"},
	"marketing": {"marketing", "advertising", "promotion", "email campaigns"},
	"analytics": {"analytics", "reporting", "insights", "metrics", "kpi"},
	"mobile":    {"mobile app", "mobile", "app", "smartphone"},
}

// Monthly revenue potential per opportunity kind.
const (
	valueUpgradeBasicToStandard    = 250
	valueUpgradeStandardToPremium  = 500
	valueUpgradePremiumToEnterpise = 1500
	valueAddLocation               = 1000
	valueAddModule                 = 300
	valueCustomIntegration         = 2000
	valueTeamExpansionPerUser      = 150
)

const contextRadius = 50

// SalesEngine scans ticket text for cross-sell and upgrade signals.
type SalesEngine struct{}

func NewSalesEngine() *SalesEngine {
	return &SalesEngine{}
}

// DetectOpportunity inspects one ticket's subject and body for revenue
// signals and returns the highest-value match.
func (s *SalesEngine) DetectOpportunity(subject, body, dealerID, dealerName, currentPackage string) models.SalesOpportunity {
	text := strings.ToLower(subject + " " + body)

	opp := models.SalesOpportunity{
		DealerID:       dealerID,
		DealerName:     dealerName,
		CurrentPackage: currentPackage,
		Priority:       "Low",
	}

	signals := collectSignals(text, "feature_request", featureSignals)
	signals = append(signals, collectSignals(text, "expansion", expansionSignals)...)
	signals = append(signals, collectSignals(text, "product_interest", productSignals)...)
	if len(signals) == 0 {
		return opp
	}

	opp.HasOpportunity = true
	opp.Signals = signals

	categories := map[string]bool{}
	types := map[string]bool{}
	for _, sig := range signals {
		categories[sig.Category] = true
		types[sig.Type] = true
	}

	switch {
	case categories["multi_location"]:
		opp.OpportunityType = "Multi-Location Expansion"
		opp.PotentialRevenue = valueAddLocation * 12
		opp.Confidence = 85
		opp.Priority = "High"
		opp.RecommendedAction = "Schedule expansion consultation call"
		opp.TalkingPoints = []string{
			"Customer is expanding to multiple locations",
			"Multi-location support available in Enterprise package",
			fmt.Sprintf("Potential: $%d/year per additional location", int(opp.PotentialRevenue)),
			"Centralized management dashboard for all locations",
		}
		opp.NextSteps = []string{
			"Contact within 24 hours to discuss expansion plans",
			"Prepare multi-location demo and pricing",
			"Offer migration assistance and onboarding support",
		}

	case categories["advanced_features"]:
		if currentPackage == "Basic" || currentPackage == "Standard" {
			opp.OpportunityType = "Feature Upgrade"
			if currentPackage == "Basic" {
				opp.PotentialRevenue = valueUpgradeBasicToStandard * 12
			} else {
				opp.PotentialRevenue = valueUpgradeStandardToPremium * 12
			}
			opp.Confidence = 75
			opp.Priority = "High"
			opp.RecommendedAction = "Schedule feature demo and upgrade discussion"
			opp.TalkingPoints = []string{
				"Customer requesting features available in higher tiers",
				"Premium/Enterprise packages include: " + keywordSample(signals, 3),
				fmt.Sprintf("Upgrade value: $%d/year", int(opp.PotentialRevenue)),
				"Includes priority support and dedicated account manager",
			}
			opp.NextSteps = []string{
				"Send feature comparison chart",
				"Schedule 30-min demo of advanced features",
				"Provide upgrade pricing with limited-time discount",
			}
		} else {
			opp.OpportunityType = "Custom Integration"
			opp.PotentialRevenue = valueCustomIntegration * 12
			opp.Confidence = 60
			opp.Priority = "Medium"
			opp.RecommendedAction = "Discuss custom development options"
		}

	case categories["team_expansion"]:
		opp.OpportunityType = "Team Expansion"
		opp.PotentialRevenue = valueTeamExpansionPerUser * 12 * 3
		opp.Confidence = 70
		opp.Priority = "Medium"
		opp.RecommendedAction = "Discuss team licenses and volume pricing"
		opp.TalkingPoints = []string{
			"Customer is growing their team",
			"Volume discounts available for 5+ users",
			"Team collaboration features in Premium+",
			fmt.Sprintf("Estimated value: $%d/year", int(opp.PotentialRevenue)),
		}
		opp.NextSteps = []string{
			"Provide team pricing breakdown",
			"Offer demo of collaboration features",
			"Share team onboarding resources",
		}

	case categories["premium_support"] && (currentPackage == "Basic" || currentPackage == "Standard"):
		opp.OpportunityType = "Support Upgrade"
		opp.PotentialRevenue = valueUpgradeStandardToPremium * 12
		opp.Confidence = 80
		opp.Priority = "High"
		opp.RecommendedAction = "Highlight Premium/Enterprise support benefits"
		opp.TalkingPoints = []string{
			"Customer seeking better support experience",
			"Premium: Priority support with 4-hour response SLA",
			"Enterprise: Dedicated account manager + phone support",
			fmt.Sprintf("Investment: $%d/year for peace of mind", int(opp.PotentialRevenue)),
		}
		opp.NextSteps = []string{
			"Share support tier comparison",
			"Offer trial of premium support (1 month)",
			"Gather specific support pain points",
		}

	case types["product_interest"]:
		opp.OpportunityType = "Cross-Sell Opportunity"
		opp.PotentialRevenue = valueAddModule * 12
		opp.Confidence = 65
		opp.Priority = "Medium"
		opp.RecommendedAction = "Introduce relevant product modules"
		opp.TalkingPoints = []string{
			"Customer showing interest in: " + productCategories(signals),
			"Add-on modules available for current package",
			fmt.Sprintf("Estimated value: $%d/year", int(opp.PotentialRevenue)),
			"Bundle pricing available for multiple modules",
		}
		opp.NextSteps = []string{
			"Send product module catalog",
			"Schedule product demo",
			"Offer bundle discount",
		}

	case types["expansion"]:
		opp.OpportunityType = "Business Growth"
		opp.PotentialRevenue = valueAddLocation * 12
		opp.Confidence = 70
		opp.Priority = "High"
		opp.RecommendedAction = "Discuss scalability and growth plans"
		opp.TalkingPoints = []string{
			"Customer is in growth phase",
			"Our platform scales with your business",
			"Enterprise features support rapid expansion",
			fmt.Sprintf("Growth package value: $%d/year", int(opp.PotentialRevenue)),
		}
		opp.NextSteps = []string{
			"Schedule strategic planning call",
			"Provide case study of similar growth stories",
			"Offer growth consultant engagement",
		}

	default:
		opp.OpportunityType = "General Interest"
		opp.PotentialRevenue = valueAddModule * 12
		opp.Confidence = 50
		opp.Priority = "Low"
		opp.RecommendedAction = "Follow up to understand needs better"
	}

	return opp
}

// Portfolio aggregates detected opportunities across tickets.
type Portfolio struct {
	TotalOpportunities    int                                  `json:"total_opportunities"`
	TotalPotentialRevenue float64                              `json:"total_potential_revenue"`
	Opportunities         []models.SalesOpportunity            `json:"opportunities"`
	ByType                map[string][]models.SalesOpportunity `json:"by_type"`
	HighPriority          []models.SalesOpportunity            `json:"high_priority"`
	MediumPriority        []models.SalesOpportunity            `json:"medium_priority"`
	LowPriority           []models.SalesOpportunity            `json:"low_priority"`
}

// AggregatePortfolio rolls every detected opportunity into a portfolio
// summary, sorted by priority then revenue.
func (s *SalesEngine) AggregatePortfolio(opportunities []models.SalesOpportunity) Portfolio {
	p := Portfolio{ByType: map[string][]models.SalesOpportunity{}}

	for _, o := range opportunities {
		if !o.HasOpportunity {
			continue
		}
		p.Opportunities = append(p.Opportunities, o)
		p.TotalPotentialRevenue += o.PotentialRevenue
		p.ByType[o.OpportunityType] = append(p.ByType[o.OpportunityType], o)
	}
	p.TotalOpportunities = len(p.Opportunities)

	rank := map[string]int{"High": 3, "Medium": 2, "Low": 1}
	sort.SliceStable(p.Opportunities, func(i, j int) bool {
		a, b := p.Opportunities[i], p.Opportunities[j]
		if rank[a.Priority] != rank[b.Priority] {
			return rank[a.Priority] > rank[b.Priority]
		}
		return a.PotentialRevenue > b.PotentialRevenue
	})

	for _, o := range p.Opportunities {
		switch o.Priority {
		case "High":
			p.HighPriority = append(p.HighPriority, o)
		case "Medium":
			p.MediumPriority = append(p.MediumPriority, o)
		default:
			p.LowPriority = append(p.LowPriority, o)
		}
	}
	return p
}

func collectSignals(text, sigType string, table map[string][]string) []models.SalesSignal {
	var out []models.SalesSignal
	categories := make([]string, 0, len(table))
	for category := range table {
		categories = append(categories, category)
	}
	sort.Strings(categories)

	for _, category := range categories {
		for _, keyword := range table[category] {
			if strings.Contains(text, keyword) {
				out = append(out, models.SalesSignal{
					Type:     sigType,
					Category: category,
					Keyword:  keyword,
					Context:  extractContext(text, keyword),
				})
			}
		}
	}
	return out
}

func extractContext(text, keyword string) string {
	idx := strings.Index(text, keyword)
	if idx < 0 {
		return ""
	}
	start := idx - contextRadius
	if start < 0 {
		start = 0
	}
	end := idx + len(keyword) + contextRadius
	if end > len(text) {
		end = len(text)
	}
	context := strings.TrimSpace(text[start:end])
	if start > 0 {
		context = "..." + context
	}
	if end < len(text) {
		context += "..."
	}
	return context
}

func keywordSample(signals []models.SalesSignal, n int) string {
	var keywords []string
	for _, s := range signals {
		keywords = append(keywords, s.Keyword)
		if len(keywords) == n {
			break
		}
	}
	return strings.Join(keywords, ", ")
}

func productCategories(signals []models.SalesSignal) string {
	seen := map[string]bool{}
	var out []string
	for _, s := range signals {
		if s.Type == "product_interest" && !seen[s.Category] {
			seen[s.Category] = true
			out = append(out, s.Category)
		}
	}
	return strings.Join(out, ", ")
}
