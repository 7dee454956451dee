// Package analytics derives client health, churn risk and revenue
// opportunity signals from historical ticket patterns.
package analytics

import (
	"fmt"
	"sort"
	"time"

	"github.com/d2cmedia/syndesk/internal/models"
)

const defaultHealthScore = 75

var negativeSentiments = map[models.Sentiment]bool{
	models.SentimentFrustrated: true,
	models.SentimentUrgent:     true,
	models.SentimentCritical:   true,
}

// HealthEngine scores dealers on a 0-100 scale from their ticket history.
// Now is injectable so scoring windows are stable in tests.
type HealthEngine struct {
	Now func() time.Time
}

func NewHealthEngine() *HealthEngine {
	return &HealthEngine{Now: time.Now}
}

// Score computes the health score for one dealer's ticket history.
func (h *HealthEngine) Score(tickets []models.TicketRecord) models.HealthReport {
	if len(tickets) == 0 {
		return models.HealthReport{
			Score:           defaultHealthScore,
			Category:        "Unknown",
			Factors:         map[string]int{},
			Trend:           "stable",
			Recommendations: []string{"Insufficient data - continue monitoring"},
		}
	}

	score := 100.0
	factors := map[string]int{}

	recent := h.within(tickets, 30)

	// Volume: more than 6 tickets in 30 days erodes the score, a quiet
	// month earns a small bonus.
	if n := len(recent); n > 6 {
		penalty := minInt((n-6)*3, 20)
		score -= float64(penalty)
		factors["high_volume"] = -penalty
	} else if n <= 2 {
		score += 5
		factors["low_volume"] = 5
	}

	problemCount := countCategory(recent, models.CategoryProblemBug)
	if problemCount > 0 {
		penalty := minInt(problemCount*8, 30)
		score -= float64(penalty)
		factors["problems"] = -penalty
	}

	negativeCount := 0
	positiveCount := 0
	for _, t := range recent {
		if negativeSentiments[t.Sentiment] {
			negativeCount++
		}
		if t.Sentiment == models.SentimentCalm {
			positiveCount++
		}
	}
	if negativeCount > 0 {
		penalty := minInt(negativeCount*10, 25)
		score -= float64(penalty)
		factors["negative_sentiment"] = -penalty
	}
	if positiveCount > 2 {
		score += 5
		factors["positive_sentiment"] = 5
	}

	urgentCount := 0
	for _, t := range recent {
		if t.Tier == models.Tier3 {
			urgentCount++
		}
	}
	if urgentCount > 0 {
		penalty := minInt(urgentCount*12, 30)
		score -= float64(penalty)
		factors["urgent_issues"] = -penalty
	}

	if countCategory(recent, models.CategoryCancellation) > 0 {
		score -= 15
		factors["cancellation_request"] = -15
	}

	// Trend: compare the last 15 days to the 15 days before.
	recent15 := h.within(tickets, 15)
	previous15 := len(recent) - len(recent15)
	trend := "stable"
	if float64(len(recent15)) > float64(previous15)*1.5 {
		score -= 10
		factors["increasing_volume"] = -10
		trend = "declining"
	} else if previous15 > 0 && float64(len(recent15)) < float64(previous15)*0.5 {
		score += 5
		factors["decreasing_volume"] = 5
		trend = "improving"
	}

	if score < 0 {
		score = 0
	}
	if score > 100 {
		score = 100
	}

	return models.HealthReport{
		Score:           score,
		Category:        healthCategory(score),
		TicketsAnalyzed: len(tickets),
		RecentTickets:   len(recent),
		Factors:         factors,
		Trend:           trend,
		Recommendations: recommendations(score, factors),
		ProblemCount:    problemCount,
		UrgentCount:     urgentCount,
	}
}

// ScoreAll scores every dealer and returns reports worst-first.
func (h *HealthEngine) ScoreAll(byDealer map[string][]models.TicketRecord, names map[string]string) []models.HealthReport {
	reports := make([]models.HealthReport, 0, len(byDealer))
	for dealerID, tickets := range byDealer {
		report := h.Score(tickets)
		report.DealerID = dealerID
		report.DealerName = names[dealerID]
		reports = append(reports, report)
	}
	sort.Slice(reports, func(i, j int) bool {
		if reports[i].Score == reports[j].Score {
			return reports[i].DealerID < reports[j].DealerID
		}
		return reports[i].Score < reports[j].Score
	})
	return reports
}

// ChurnRisk estimates churn probability and revenue at risk for a dealer.
func (h *HealthEngine) ChurnRisk(dealerID, dealerName string, tickets []models.TicketRecord, arr float64) models.ChurnReport {
	health := h.Score(tickets)
	recent := h.within(tickets, 30)

	probability := 0.0
	var riskFactors []string

	switch {
	case health.Score < 30:
		probability += 60
		riskFactors = append(riskFactors, "Critical health score")
	case health.Score < 50:
		probability += 35
		riskFactors = append(riskFactors, "Low health score")
	case health.Score < 70:
		probability += 15
		riskFactors = append(riskFactors, "Below-average health score")
	}

	if n := countCategory(recent, models.CategoryProblemBug); n >= 3 {
		probability += 20
		riskFactors = append(riskFactors, fmt.Sprintf("%d unresolved problems", n))
	}

	negative := 0
	for _, t := range recent {
		if negativeSentiments[t.Sentiment] {
			negative++
		}
	}
	if negative >= 2 {
		probability += 15
		riskFactors = append(riskFactors, "Multiple frustrated interactions")
	}

	if countCategory(recent, models.CategoryCancellation) > 0 {
		probability += 25
		riskFactors = append(riskFactors, "Recent cancellation request")
	}

	if health.Trend == "declining" && len(tickets) > 3 {
		probability += 10
		riskFactors = append(riskFactors, "Declining engagement")
	}

	// Never fully certain.
	if probability > 95 {
		probability = 95
	}

	riskLevel, priority := riskLevelFor(probability)

	return models.ChurnReport{
		DealerID:         dealerID,
		DealerName:       dealerName,
		ChurnProbability: probability,
		RiskLevel:        riskLevel,
		Priority:         priority,
		RiskFactors:      riskFactors,
		Interventions:    interventions(probability),
		ARR:              arr,
		RevenueAtRisk:    arr * probability / 100,
		HealthScore:      health.Score,
	}
}

func (h *HealthEngine) within(tickets []models.TicketRecord, days int) []models.TicketRecord {
	cutoff := h.Now().AddDate(0, 0, -days)
	var out []models.TicketRecord
	for _, t := range tickets {
		if !t.Date.Before(cutoff) {
			out = append(out, t)
		}
	}
	return out
}

func healthCategory(score float64) string {
	switch {
	case score >= 90:
		return "Excellent"
	case score >= 70:
		return "Good"
	case score >= 50:
		return "Fair"
	case score >= 30:
		return "At Risk"
	default:
		return "Critical"
	}
}

func riskLevelFor(probability float64) (string, string) {
	switch {
	case probability >= 70:
		return "High Risk", "URGENT"
	case probability >= 40:
		return "Medium Risk", "High"
	case probability >= 10:
		return "Low Risk", "Monitor"
	default:
		return "Minimal Risk", "Stable"
	}
}

func recommendations(score float64, factors map[string]int) []string {
	var out []string

	if score < 50 {
		out = append(out, "URGENT: Schedule executive call with client")
		out = append(out, "Review all open issues and create resolution plan")
	} else if score < 70 {
		out = append(out, "Schedule check-in call with account manager")
		out = append(out, "Proactively address any open concerns")
	}

	if _, ok := factors["problems"]; ok {
		out = append(out, "Prioritize resolution of outstanding technical issues")
	}
	if _, ok := factors["negative_sentiment"]; ok {
		out = append(out, "Address client frustration - consider escalation")
	}
	if _, ok := factors["urgent_issues"]; ok {
		out = append(out, "Review urgent tickets for patterns - may indicate systemic issue")
	}
	if _, ok := factors["cancellation_request"]; ok {
		out = append(out, "Cancellation signal detected - immediate retention strategy needed")
	}
	if _, ok := factors["increasing_volume"]; ok {
		out = append(out, "Investigate cause of ticket volume increase")
	}

	if len(out) == 0 {
		out = append(out, "Continue monitoring - client is healthy")
	}
	return out
}

func interventions(probability float64) []string {
	switch {
	case probability >= 70:
		return []string{
			"IMMEDIATE: Executive outreach within 24 hours",
			"Offer dedicated support representative",
			"Consider service credit or discount",
			"Schedule in-person meeting if possible",
		}
	case probability >= 40:
		return []string{
			"Account manager outreach this week",
			"Create detailed resolution plan for all issues",
			"Increase check-in frequency to weekly",
		}
	case probability >= 10:
		return []string{
			"Proactive check-in from account manager",
			"Monitor ticket trends closely",
		}
	default:
		return []string{
			"Continue standard support protocols",
			"Maintain regular quarterly business reviews",
		}
	}
}

func countCategory(tickets []models.TicketRecord, category string) int {
	n := 0
	for _, t := range tickets {
		if t.Category == category {
			n++
		}
	}
	return n
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}
