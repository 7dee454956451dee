package analytics

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/d2cmedia/syndesk/internal/models"
)

// Monthly package pricing.
var packagePricing = map[string]float64{
	"Basic":      750,
	"Standard":   1000,
	"Premium":    1500,
	"Enterprise": 3000,
}

var upsellPaths = map[string][]string{
	"Basic":      {"Standard", "Premium", "Enterprise"},
	"Standard":   {"Premium", "Enterprise"},
	"Premium":    {"Enterprise"},
	"Enterprise": {},
}

var growthSignals = map[string][]string{
	"expansion":      {"expand", "expansion", "second location", "third location", "new location", "additional location", "multiple location"},
	"volume":         {"more api", "api limit", "increase limit", "rate limit", "higher volume", "more calls", "more requests"},
	"features":       {"need more features", "advanced features", "premium features", "enterprise features", "custom integration"},
	"growth":         {"growing", "growth", "scaling", "scale up", "increase capacity", "add more"},
	"multi_location": {"multi-location", "multiple locations", "all locations", "both locations", "chain"},
	"performance":    {"faster", "performance", "speed", "slow", "upgrade performance"},
	"team_size":      {"more users", "additional users", "team growth", "more staff", "hiring"},
}

// UpsellEngine recommends package upgrades from explicit ticket text and
// behavioral volume patterns.
type UpsellEngine struct {
	Now func() time.Time
}

func NewUpsellEngine() *UpsellEngine {
	return &UpsellEngine{Now: time.Now}
}

// DetectOpportunity scans one ticket plus the dealer's history for upgrade
// signals. Behavioral findings override explicit ones only when they carry
// higher confidence.
func (u *UpsellEngine) DetectOpportunity(ticketText, currentPackage string, currentARR float64, history []models.TicketRecord) models.UpsellOpportunity {
	opp := models.UpsellOpportunity{
		CurrentPackage: currentPackage,
		CurrentARR:     currentARR,
		PotentialARR:   currentARR,
		Priority:       "Low",
	}

	if currentPackage == "Enterprise" {
		opp.Reasoning = append(opp.Reasoning, "Already on Enterprise package (top tier)")
		return opp
	}

	text := strings.ToLower(ticketText)
	var signals []models.SalesSignal
	categorySet := map[string]bool{}

	catNames := make([]string, 0, len(growthSignals))
	for c := range growthSignals {
		catNames = append(catNames, c)
	}
	sort.Strings(catNames)
	for _, category := range catNames {
		for _, keyword := range growthSignals[category] {
			if strings.Contains(text, keyword) {
				signals = append(signals, models.SalesSignal{
					Type:     "explicit",
					Category: category,
					Keyword:  keyword,
				})
				categorySet[category] = true
			}
		}
	}

	if len(signals) > 0 {
		opp.HasOpportunity = true
		opp.Signals = signals

		var recommended string
		switch {
		case categorySet["expansion"] || categorySet["multi_location"] || categorySet["team_size"]:
			recommended = "Enterprise"
			opp.Confidence = 85
			opp.Priority = "High"
			opp.Reasoning = append(opp.Reasoning, "Multi-location/expansion signals detected - Enterprise recommended")
		case categorySet["volume"] || categorySet["features"] || categorySet["performance"]:
			recommended = "Premium"
			switch currentPackage {
			case "Basic":
				opp.Confidence = 75
				opp.Priority = "Medium"
				opp.Reasoning = append(opp.Reasoning, "Feature/volume needs exceed Basic package - Premium recommended")
			case "Standard":
				opp.Confidence = 70
				opp.Priority = "Medium"
				opp.Reasoning = append(opp.Reasoning, "Advanced feature requirements - Premium recommended")
			default:
				opp.Confidence = 60
				opp.Priority = "Low"
			}
		case categorySet["growth"]:
			recommended = oneTierUp(currentPackage)
			opp.Confidence = 65
			opp.Priority = "Medium"
			opp.Reasoning = append(opp.Reasoning, "Growth signals indicate need for higher tier")
		default:
			recommended = oneTierUp(currentPackage)
			opp.Confidence = 50
			opp.Priority = "Low"
		}

		if validUpgrade(currentPackage, recommended) {
			opp.RecommendedPackage = recommended
			increase := annualIncrease(currentPackage, recommended)
			opp.PotentialARR = currentARR + increase
			opp.RevenueIncrease = increase
			opp.TalkingPoints = upgradeTalkingPoints(currentPackage, recommended, categorySet, increase)
		} else {
			opp.HasOpportunity = false
			opp.Reasoning = append(opp.Reasoning, fmt.Sprintf("%s is not a valid upgrade from %s", recommended, currentPackage))
		}
	}

	if len(history) > 0 {
		behavioral := u.behavioralOpportunity(history, currentPackage, currentARR)
		if behavioral.HasOpportunity {
			if !opp.HasOpportunity || behavioral.Confidence > opp.Confidence {
				behavioral.CurrentPackage = currentPackage
				behavioral.CurrentARR = currentARR
				return behavioral
			}
			opp.Signals = append(opp.Signals, behavioral.Signals...)
			opp.Reasoning = append(opp.Reasoning, behavioral.Reasoning...)
		}
	}

	return opp
}

func (u *UpsellEngine) behavioralOpportunity(history []models.TicketRecord, currentPackage string, currentARR float64) models.UpsellOpportunity {
	opp := models.UpsellOpportunity{
		CurrentPackage: currentPackage,
		CurrentARR:     currentARR,
		PotentialARR:   currentARR,
		Priority:       "Low",
	}

	cutoff := u.Now().AddDate(0, 0, -30)
	var recent []models.TicketRecord
	for _, t := range history {
		if !t.Date.Before(cutoff) {
			recent = append(recent, t)
		}
	}

	switch {
	case len(recent) > 5 && currentPackage == "Basic":
		opp.HasOpportunity = true
		opp.RecommendedPackage = "Standard"
		opp.Confidence = 70
		opp.Priority = "Medium"
		opp.Signals = append(opp.Signals, models.SalesSignal{
			Type:     "behavioral",
			Category: "volume",
			Keyword:  fmt.Sprintf("%d tickets in 30 days", len(recent)),
		})
		opp.Reasoning = append(opp.Reasoning, fmt.Sprintf("High ticket volume (%d in 30 days) on Basic package suggests need for Standard", len(recent)))
		increase := annualIncrease("Basic", "Standard")
		opp.PotentialARR = currentARR + increase
		opp.RevenueIncrease = increase
		opp.TalkingPoints = []string{
			"High support volume indicates growing business - Standard package offers better support SLAs",
			"Upgrade to Standard provides priority support and faster response times",
			fmt.Sprintf("Investment: $%.0f/year | Value: Reduced downtime, happier customers", increase),
		}

	case len(recent) > 8 && currentPackage == "Standard":
		opp.HasOpportunity = true
		opp.RecommendedPackage = "Premium"
		opp.Confidence = 75
		opp.Priority = "High"
		opp.Signals = append(opp.Signals, models.SalesSignal{
			Type:     "behavioral",
			Category: "volume",
			Keyword:  fmt.Sprintf("%d tickets in 30 days", len(recent)),
		})
		opp.Reasoning = append(opp.Reasoning, fmt.Sprintf("Very high ticket volume (%d in 30 days) suggests need for Premium package with dedicated support", len(recent)))
		increase := annualIncrease("Standard", "Premium")
		opp.PotentialARR = currentARR + increase
		opp.RevenueIncrease = increase
		opp.TalkingPoints = []string{
			"Exceptional volume indicates enterprise-scale operations - Premium offers dedicated support manager",
			"Premium package includes proactive monitoring and custom integrations",
			fmt.Sprintf("Investment: $%.0f/year | ROI: 50%% faster issue resolution", increase),
		}
	}

	problems := 0
	for _, t := range recent {
		if t.Category == models.CategoryProblemBug {
			problems++
		}
	}
	if problems >= 3 && !opp.HasOpportunity && currentPackage != "Enterprise" {
		opp.HasOpportunity = true
		opp.Confidence = 65
		opp.Priority = "Medium"
		// Unlike the explicit default, Premium steps to Enterprise here.
		opp.RecommendedPackage = nextTier(currentPackage)
		opp.Signals = append(opp.Signals, models.SalesSignal{
			Type:     "behavioral",
			Category: "support_quality",
			Keyword:  fmt.Sprintf("%d problems in 30 days", problems),
		})
		opp.Reasoning = append(opp.Reasoning, fmt.Sprintf("Multiple issues (%d) suggest need for higher-touch support", problems))
		increase := annualIncrease(currentPackage, opp.RecommendedPackage)
		opp.PotentialARR = currentARR + increase
		opp.RevenueIncrease = increase
		opp.TalkingPoints = []string{
			fmt.Sprintf("High issue volume indicates need for %s with better support SLAs", opp.RecommendedPackage),
			fmt.Sprintf("%s package offers faster response times and dedicated support", opp.RecommendedPackage),
			fmt.Sprintf("Investment: $%.0f/year | Value: Reduced downtime and improved customer satisfaction", increase),
		}
	}

	return opp
}

// PortfolioUpsell summarizes behavioral upsell opportunities across dealers.
type PortfolioUpsell struct {
	TotalOpportunities    int                        `json:"total_opportunities"`
	TotalPotentialRevenue float64                    `json:"total_potential_revenue"`
	Opportunities         []models.UpsellOpportunity `json:"opportunities"`
	HighPriority          []models.UpsellOpportunity `json:"high_priority"`
	MediumPriority        []models.UpsellOpportunity `json:"medium_priority"`
	LowPriority           []models.UpsellOpportunity `json:"low_priority"`
}

// DealerRevenue is the revenue context for portfolio analysis.
type DealerRevenue struct {
	DealerName string  `json:"dealer_name"`
	Package    string  `json:"package"`
	ARR        float64 `json:"arr"`
}

func (u *UpsellEngine) PortfolioSummary(revenue map[string]DealerRevenue, histories map[string][]models.TicketRecord) PortfolioUpsell {
	var summary PortfolioUpsell

	dealerIDs := make([]string, 0, len(revenue))
	for id := range revenue {
		dealerIDs = append(dealerIDs, id)
	}
	sort.Strings(dealerIDs)

	for _, dealerID := range dealerIDs {
		info := revenue[dealerID]
		history := histories[dealerID]
		if len(history) == 0 {
			continue
		}
		opp := u.behavioralOpportunity(history, info.Package, info.ARR)
		if !opp.HasOpportunity {
			continue
		}
		summary.Opportunities = append(summary.Opportunities, opp)
		summary.TotalPotentialRevenue += opp.RevenueIncrease
	}
	summary.TotalOpportunities = len(summary.Opportunities)

	sort.SliceStable(summary.Opportunities, func(i, j int) bool {
		return summary.Opportunities[i].RevenueIncrease > summary.Opportunities[j].RevenueIncrease
	})
	for _, o := range summary.Opportunities {
		switch o.Priority {
		case "High":
			summary.HighPriority = append(summary.HighPriority, o)
		case "Medium":
			summary.MediumPriority = append(summary.MediumPriority, o)
		default:
			summary.LowPriority = append(summary.LowPriority, o)
		}
	}
	return summary
}

func oneTierUp(current string) string {
	switch current {
	case "Basic":
		return "Standard"
	default:
		return "Premium"
	}
}

func nextTier(current string) string {
	switch current {
	case "Basic":
		return "Standard"
	case "Standard":
		return "Premium"
	default:
		return "Enterprise"
	}
}

func validUpgrade(current, recommended string) bool {
	for _, p := range upsellPaths[current] {
		if p == recommended {
			return true
		}
	}
	return false
}

func annualIncrease(current, recommended string) float64 {
	return (packagePricing[recommended] - packagePricing[current]) * 12
}

func upgradeTalkingPoints(current, recommended string, categories map[string]bool, increase float64) []string {
	points := []string{
		fmt.Sprintf("Great news - your business is growing! We noticed signals indicating you might benefit from %s.", recommended),
	}

	if categories["expansion"] || categories["multi_location"] {
		points = append(points,
			fmt.Sprintf("%s is designed for multi-location operations with centralized management and reporting.", recommended),
			"Get unified dashboards across all locations + dedicated account manager.")
	}
	if categories["volume"] || categories["features"] {
		points = append(points,
			fmt.Sprintf("%s includes higher API limits, advanced features, and priority support.", recommended),
			"Unlock custom integrations, webhooks, and advanced analytics.")
	}
	if categories["performance"] {
		points = append(points,
			fmt.Sprintf("%s offers 99.9%% uptime SLA and dedicated infrastructure.", recommended),
			"3x faster response times with dedicated support channel.")
	}
	if categories["growth"] {
		points = append(points,
			fmt.Sprintf("Your growth trajectory suggests you'll outgrow %s soon - %s scales with you.", current, recommended))
	}

	points = append(points,
		fmt.Sprintf("Investment: $%.0f/year | Typical ROI: 5-8x through increased efficiency and reduced downtime", increase),
		fmt.Sprintf("Let's schedule a 15-min call to show you %s features and discuss a smooth transition plan.", recommended))
	return points
}
