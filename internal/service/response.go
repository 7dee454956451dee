package service

import (
	"fmt"
	"strings"

	"github.com/d2cmedia/syndesk/internal/models"
)

const fallbackResponse = "Thank you for contacting us. We'll review your request and get back to you shortly."

// SuggestResponse renders a templated reply for the classification. Tone
// shifts to apologetic for frustrated or urgent tickets.
func SuggestResponse(c models.Classification, entities models.ExtractedEntities) string {
	dealer := c.DealerName
	if dealer == "" {
		dealer = "Multiple dealers"
	}

	channel := fmt.Sprintf("Provider: %s", c.Provider)
	if c.Syndicator != "" {
		channel = fmt.Sprintf("Syndicator: %s", c.Syndicator)
	}

	var response string
	switch c.Category {
	case models.CategoryProblemBug:
		response = fmt.Sprintf(`Hi there,

Thank you for reporting this issue. I've escalated this ticket to our technical team for investigation.

**Issue Summary:**
- Dealer: %s
- %s
- Priority: %s

Our team will investigate and provide an update within 24 hours. We understand the urgency and appreciate your patience.

Best regards,
Support Team`, dealer, channel, c.Tier)

	case models.CategoryActivationExisting:
		response = fmt.Sprintf(`Hi there,

Thank you for your request. I'll process this activation for you right away.

**Activation Details:**
- Dealer: %s
- %s
- Type: %s

I'll send you a confirmation once the setup is complete, typically within 1-2 business days.

Best regards,
Support Team`, c.DealerName, channel, c.InventoryType)

	case models.CategoryActivationNew:
		response = fmt.Sprintf(`Hi there,

Welcome aboard! I'm excited to help you get started.

**Onboarding Details:**
- Dealer: %s
- %s

Our onboarding team will reach out within 24 hours to guide you through the setup process.

Best regards,
Support Team`, c.DealerName, channel)

	case models.CategoryCancellation:
		response = fmt.Sprintf(`Hi there,

I've received your cancellation request and will process it accordingly.

**Cancellation Details:**
- Dealer: %s
- %s

I'll send you a confirmation once the cancellation is complete.

Best regards,
Support Team`, dealer, channel)

	case models.CategoryGeneralQuestion:
		basis := "I will provide you with the information you need"
		if len(entities.KeyActionItems) > 0 {
			items := entities.KeyActionItems
			if len(items) > 2 {
				items = items[:2]
			}
			basis = strings.Join(items, " ")
		}
		response = fmt.Sprintf(`Hi there,

Thank you for reaching out! I'd be happy to help answer your question.

Based on your inquiry, %s.

Feel free to let me know if you need any clarification!

Best regards,
Support Team`, basis)

	case models.CategoryAnalysisReview:
		response = fmt.Sprintf(`Hi there,

Thank you for your request. I've forwarded this to the appropriate team for review.

**Review Details:**
- Dealer: %s
- Status: Under review

You'll receive an update once the analysis is complete.

Best regards,
Support Team`, c.DealerName)

	default:
		response = fallbackResponse
	}

	switch entities.Sentiment {
	case models.SentimentFrustrated, models.SentimentCritical, models.SentimentUrgent:
		if c.Category == models.CategoryProblemBug {
			response = strings.Replace(response,
				"Thank you for reporting this issue.",
				"Thank you for reporting this issue. I understand how frustrating this must be, and I sincerely apologize for the inconvenience.",
				1)
		}
	}

	return response
}
