package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
)

// CancellationStore persists cancelled feeds. Writes are atomic appends.
type CancellationStore interface {
	InsertCancellation(ctx context.Context, feed models.CancelledFeed) error
}

// Automation executes scripted resolutions for tickets that pass
// CanAutomate. StepDelay paces the simulated workflow steps; tests set it
// to zero.
type Automation struct {
	Ref           *refdata.Tables
	Cancellations CancellationStore
	EmailDomain   string
	FeedBaseURL   string
	StepDelay     time.Duration
	Logger        zerolog.Logger
	Now           func() time.Time
}

func NewAutomation(ref *refdata.Tables, cancellations CancellationStore, emailDomain, feedBaseURL string, stepDelay time.Duration, logger zerolog.Logger) *Automation {
	return &Automation{
		Ref:           ref,
		Cancellations: cancellations,
		EmailDomain:   emailDomain,
		FeedBaseURL:   feedBaseURL,
		StepDelay:     stepDelay,
		Logger:        logger.With().Str("component", "automation").Logger(),
		Now:           time.Now,
	}
}

var automatableCategories = []string{
	models.CategoryActivationExisting,
	models.CategoryCancellation,
}

// CanAutomate decides whether a ticket qualifies for scripted resolution.
// Checks run in order; the first failure's reason is returned.
func (a *Automation) CanAutomate(c models.Classification, entities models.ExtractedEntities) (bool, string) {
	if c.Tier != models.Tier1 {
		return false, fmt.Sprintf("Not Tier 1 (classified as %s)", c.Tier)
	}
	if !contains(automatableCategories, c.Category) {
		return false, fmt.Sprintf("Category not supported for automation: %s", c.Category)
	}
	if len(entities.ProblemIndicators) > 0 {
		return false, "Request contains problem indicators - needs human review"
	}
	if c.Syndicator == "" && c.Provider == "" {
		return false, "No syndicator or provider identified"
	}
	return true, fmt.Sprintf("Simple %s request - fully automatable", strings.ToLower(c.Category))
}

// Execute runs the workflow script for the classification's category.
func (a *Automation) Execute(ctx context.Context, ticket models.Ticket, c models.Classification, entities models.ExtractedEntities) models.AutomationResult {
	switch c.Category {
	case models.CategoryActivationExisting:
		return a.runActivation(ctx, ticket, c)
	case models.CategoryCancellation:
		return a.runCancellation(ctx, ticket, c)
	default:
		return models.AutomationResult{
			Success: false,
			Error:   fmt.Sprintf("Unsupported category for automation: %s", c.Category),
		}
	}
}

type script struct {
	result models.AutomationResult
	start  time.Time
	now    func() time.Time
	delay  time.Duration
}

func (s *script) log(message, level string) {
	s.result.Log = append(s.result.Log, models.LogEntry{
		Timestamp: s.now(),
		Message:   message,
		Level:     level,
	})
}

func (s *script) step(message string) {
	s.log(message, models.LogStep)
	if s.delay > 0 {
		time.Sleep(s.delay)
	}
}

func (s *script) email(to, subject, body, kind string) {
	s.result.Messages = append(s.result.Messages, models.OutboundMessage{
		Timestamp: s.now(),
		To:        to,
		Subject:   subject,
		Body:      body,
		Type:      kind,
	})
}

func (s *script) comment(text string, tagged []string, kind string) {
	s.result.InternalComments = append(s.result.InternalComments, models.InternalComment{
		Timestamp:   s.now(),
		Comment:     text,
		TaggedUsers: tagged,
		Type:        kind,
	})
}

func (a *Automation) newScript() *script {
	return &script{start: a.Now(), now: a.Now, delay: a.StepDelay}
}

func (a *Automation) runActivation(ctx context.Context, ticket models.Ticket, c models.Classification) models.AutomationResult {
	s := a.newScript()

	feedType, feedName := feedTypeAndName(c)
	contact := orDefault(c.Contact, "there")
	rep := orDefault(c.Rep, "Rep")

	s.log("AUTOMATED RESOLUTION INITIATED", models.LogHeader)
	s.log("Ticket Type: "+models.CategoryActivationExisting, models.LogInfo)
	s.log(fmt.Sprintf("Dealer: %s (ID: %s)", c.DealerName, c.DealerID), models.LogInfo)
	s.log(fmt.Sprintf("Feed: %s (%s)", feedName, feedType), models.LogInfo)
	s.log("", models.LogSpacer)

	s.step("STEP 1: Sending acknowledgment to requester")
	s.email(ticket.RequesterEmail,
		fmt.Sprintf("Re: %s %s setup - %s", feedName, feedType, c.DealerName),
		activationAckBody(contact, feedType),
		"acknowledgment")
	s.log("Acknowledgment sent to "+ticket.RequesterEmail, models.LogSuccess)
	s.log("", models.LogSpacer)

	s.step("STEP 2: Tagging billing team for order verification")
	s.comment(fmt.Sprintf("@billing - Please verify if an order is required for this setup:\n\nDealer: %s (ID: %s)\nFeed: %s (%s)\n\nThanks!",
		c.DealerName, c.DealerID, feedName, feedType), []string{"@billing"}, "billing_check")
	s.log("Billing team tagged in internal comment", models.LogSuccess)
	s.log("", models.LogSpacer)

	s.step("STEP 3: Waiting for billing team response...")
	billing, found := a.Ref.BillingFor(c.DealerID)
	orderRequired := found && billing.OrderRequired
	if orderRequired {
		s.log("Billing Response: ORDER REQUIRED", models.LogWarning)
		s.log("  Package: "+billing.PackageType, models.LogInfo)
		s.log(fmt.Sprintf("  Monthly Fee: $%.0f/month", billing.MonthlyFee), models.LogInfo)
		s.log("  Notes: "+billing.Notes, models.LogInfo)
	} else {
		s.log("Billing Response: NO ORDER REQUIRED", models.LogSuccess)
		if found {
			s.log("  Notes: "+orDefault(billing.Notes, "Included in existing package"), models.LogInfo)
		} else {
			s.log("  Notes: Dealer not found in billing database", models.LogInfo)
		}
	}
	s.log("", models.LogSpacer)

	if orderRequired {
		s.step("STEP 4A: Order Required - Requesting order from rep")
		s.email(a.repEmail(rep),
			fmt.Sprintf("Order Required: %s %s - %s", feedName, feedType, c.DealerName),
			orderRequestBody(rep, c.DealerName, feedName, feedType, billing),
			"order_request")
		s.log("Order request sent to "+rep, models.LogSuccess)
		s.log("", models.LogSpacer)

		s.step("STEP 4A.1: Waiting for order confirmation...")
		s.log("Order confirmed by rep", models.LogSuccess)
		s.log(fmt.Sprintf("  Order #: ORD-%d-%s", a.Now().Year(), c.DealerID), models.LogInfo)
		s.log("", models.LogSpacer)
	} else if !a.isInternalRequester(ticket.RequesterEmail) {
		s.step("STEP 4B: No order required - Requesting approval from rep")
		s.email(a.repEmail(rep),
			fmt.Sprintf("Approval Needed: %s %s - %s", feedName, feedType, c.DealerName),
			approvalRequestBody(rep, c.DealerName, feedName, feedType, ticket.RequesterEmail),
			"approval_request")
		s.log("Approval request sent to "+rep, models.LogSuccess)
		s.log("", models.LogSpacer)

		s.step("STEP 4B.1: Waiting for rep approval...")
		s.log("Approval received from rep", models.LogSuccess)
		s.log("", models.LogSpacer)
	} else {
		s.log("STEP 4B: Rep requested feed directly - no approval needed", models.LogInfo)
		s.log("", models.LogSpacer)
	}

	s.step("STEP 5: Configuring feed in system")
	feed := a.configureFeed(c, feedName, feedType)
	s.log("Feed configured successfully", models.LogSuccess)
	s.log("  Feed ID: "+feed.FeedID, models.LogInfo)
	s.log("  Feed URL: "+feed.FeedURL, models.LogInfo)
	s.log("  Inventory Type: "+c.InventoryType, models.LogInfo)
	s.log("  Status: Active", models.LogInfo)
	s.log("", models.LogSpacer)

	s.step("STEP 6: Sending confirmation to requester")
	s.email(ticket.RequesterEmail,
		fmt.Sprintf("Completed: %s %s setup - %s", feedName, feedType, c.DealerName),
		confirmationBody(contact, c.DealerName, feedName, feedType, feed),
		"confirmation")
	s.log("Confirmation sent to "+ticket.RequesterEmail, models.LogSuccess)
	s.log("", models.LogSpacer)

	s.step("STEP 7: Updating ticket status")
	s.log("Ticket marked as 'Closed - Automated'", models.LogSuccess)
	s.log("", models.LogSpacer)

	elapsed := a.Now().Sub(s.start)
	s.log(fmt.Sprintf("AUTOMATION COMPLETE in %.2fs", elapsed.Seconds()), models.LogHeader)

	s.result.Success = true
	s.result.Automated = true
	s.result.ExecutionMs = elapsed.Milliseconds()
	s.result.ResolutionStatus = "Closed - Automated"
	s.result.OrderRequired = orderRequired
	s.result.Feed = &feed
	return s.result
}

func (a *Automation) runCancellation(ctx context.Context, ticket models.Ticket, c models.Classification) models.AutomationResult {
	s := a.newScript()

	feedType, feedName := feedTypeAndName(c)
	contact := orDefault(c.Contact, "there")
	rep := orDefault(c.Rep, "Rep")
	internal := a.isInternalRequester(ticket.RequesterEmail)

	requesterType := "3rd Party"
	if internal {
		requesterType = "Internal Rep"
	}

	s.log("AUTOMATED CANCELLATION INITIATED", models.LogHeader)
	s.log("Ticket Type: "+models.CategoryCancellation, models.LogInfo)
	s.log(fmt.Sprintf("Dealer: %s (ID: %s)", c.DealerName, c.DealerID), models.LogInfo)
	s.log(fmt.Sprintf("Feed: %s (%s)", feedName, feedType), models.LogInfo)
	s.log("Requester Type: "+requesterType, models.LogInfo)
	s.log("", models.LogSpacer)

	stepNum := 2
	if !internal {
		s.step("STEP 1: Sending acknowledgment to 3rd party")
		s.email(ticket.RequesterEmail,
			fmt.Sprintf("Re: %s cancellation - %s", feedName, c.DealerName),
			cancellationAckBody(contact, feedName, c.DealerName),
			"cancellation_acknowledgment")
		s.log("Acknowledgment sent to "+ticket.RequesterEmail, models.LogSuccess)
		s.log("", models.LogSpacer)

		s.step("STEP 2: Requesting cancellation approval from rep")
		s.email(a.repEmail(rep),
			fmt.Sprintf("Approval Needed: Cancel %s - %s", feedName, c.DealerName),
			cancellationApprovalBody(rep, c.DealerName, feedName, ticket.RequesterEmail),
			"cancellation_approval_request")
		s.log("Approval request sent to "+rep, models.LogSuccess)
		s.log("", models.LogSpacer)

		s.step("STEP 3: Waiting for rep approval...")
		s.log("Approval received from rep", models.LogSuccess)
		s.log("", models.LogSpacer)
		stepNum = 4
	} else {
		s.log("STEP 1: Rep-initiated cancellation - no approval needed", models.LogInfo)
		s.log("", models.LogSpacer)
	}

	s.step(fmt.Sprintf("STEP %d: Cancelling feed in system", stepNum))
	feedID := feedIDFor(c.DealerID, feedName)
	s.log("Feed cancelled successfully", models.LogSuccess)
	s.log("  Feed ID: "+feedID, models.LogInfo)
	s.log("  Status: Cancelled", models.LogInfo)
	s.log("", models.LogSpacer)

	stepNum++
	s.step(fmt.Sprintf("STEP %d: Logging cancellation", stepNum))
	cancelledBy := ticket.RequesterEmail
	if internal {
		cancelledBy = rep
	}
	err := a.Cancellations.InsertCancellation(ctx, models.CancelledFeed{
		CancelledAt: a.Now(),
		DealerID:    c.DealerID,
		DealerName:  c.DealerName,
		FeedName:    feedName,
		FeedType:    feedType,
		CancelledBy: cancelledBy,
		Reason:      "Automated cancellation request",
		FeedID:      feedID,
	})
	if err != nil {
		s.log("Automation failed: "+err.Error(), models.LogError)
		s.result.Error = err.Error()
		return s.result
	}
	s.log("Cancellation logged successfully", models.LogSuccess)
	s.log("", models.LogSpacer)

	stepNum++
	s.step(fmt.Sprintf("STEP %d: Notifying syndicator of cancellation", stepNum))
	if internal {
		s.email("support@"+strings.ReplaceAll(strings.ToLower(feedName), " ", "")+".com",
			fmt.Sprintf("Feed Cancelled: %s", c.DealerName),
			syndicatorNotificationBody(feedName, c.DealerName, feedID),
			"syndicator_notification")
		s.log("Syndicator notified of cancellation", models.LogSuccess)
	} else {
		s.log("Syndicator notification skipped (requester already aware)", models.LogInfo)
	}
	s.log("", models.LogSpacer)

	stepNum++
	s.step(fmt.Sprintf("STEP %d: Updating ticket status", stepNum))
	s.log("Ticket marked as 'Closed - Automated'", models.LogSuccess)
	s.log("", models.LogSpacer)

	elapsed := a.Now().Sub(s.start)
	s.log(fmt.Sprintf("CANCELLATION COMPLETE in %.2fs", elapsed.Seconds()), models.LogHeader)

	s.result.Success = true
	s.result.Automated = true
	s.result.ExecutionMs = elapsed.Milliseconds()
	s.result.ResolutionStatus = "Closed - Automated"
	s.result.Feed = &models.FeedConfig{
		FeedID:     feedID,
		DealerID:   c.DealerID,
		DealerName: c.DealerName,
		FeedName:   feedName,
		FeedType:   feedType,
		Status:     "Cancelled",
	}
	return s.result
}

func (a *Automation) configureFeed(c models.Classification, feedName, feedType string) models.FeedConfig {
	slug := strings.ReplaceAll(strings.ToLower(feedName), " ", "-")
	return models.FeedConfig{
		FeedID:        feedIDFor(c.DealerID, feedName),
		FeedURL:       fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(a.FeedBaseURL, "/"), c.DealerID, slug),
		DealerID:      c.DealerID,
		DealerName:    c.DealerName,
		FeedName:      feedName,
		FeedType:      feedType,
		InventoryType: c.InventoryType,
		Status:        "Active",
	}
}

func (a *Automation) repEmail(repName string) string {
	return strings.ToLower(strings.ReplaceAll(repName, " ", ".")) + "@" + a.EmailDomain
}

func (a *Automation) isInternalRequester(email string) bool {
	return strings.Contains(strings.ToLower(email), "@"+strings.ToLower(a.EmailDomain))
}

func feedTypeAndName(c models.Classification) (string, string) {
	if c.Syndicator != "" {
		return "export", c.Syndicator
	}
	return "import", c.Provider
}

func feedIDFor(dealerID, feedName string) string {
	prefix := feedName
	if len(prefix) > 4 {
		prefix = prefix[:4]
	}
	return fmt.Sprintf("FEED-%s-%s", dealerID, strings.ToUpper(prefix))
}

func orDefault(v, fallback string) string {
	if strings.TrimSpace(v) == "" {
		return fallback
	}
	return v
}

func activationAckBody(contact, feedType string) string {
	return fmt.Sprintf(`Hi %s,

Thanks for reaching out. I will take a look at this %s feed request and get back to you soon.

Thanks,
Support Team`, contact, feedType)
}

func orderRequestBody(rep, dealer, feedName, feedType string, billing refdata.Billing) string {
	return fmt.Sprintf(`Hi %s,

We received a request to set up %s %s for %s.

According to billing, this requires a new order:
- Package: %s
- Monthly Fee: $%.0f/month

Could you please work with the client to place the order? Once confirmed, I'll proceed with the setup.

Thanks,
Support Team`, rep, feedName, feedType, dealer, billing.PackageType, billing.MonthlyFee)
}

func approvalRequestBody(rep, dealer, feedName, feedType, requester string) string {
	return fmt.Sprintf(`Hi %s,

We received a request from %s to set up %s %s for %s.

No order is required (included in existing package), but I wanted to confirm with you before proceeding with the setup.

Can you approve this request?

Thanks,
Support Team`, rep, requester, feedName, feedType, dealer)
}

func confirmationBody(contact, dealer, feedName, feedType string, feed models.FeedConfig) string {
	return fmt.Sprintf(`Hi %s,

Great news! The %s %s feed has been successfully configured for %s.

Feed Details:
- Feed ID: %s
- Feed URL: %s
- Status: Active
- Inventory Type: %s

The feed is now live and will sync automatically. Please allow 24-48 hours for initial data population.

If you have any questions, feel free to reach out!

Best regards,
Support Team`, contact, feedName, feedType, dealer, feed.FeedID, feed.FeedURL, feed.InventoryType)
}

func cancellationAckBody(contact, feedName, dealer string) string {
	return fmt.Sprintf(`Hi %s,

Thanks for letting us know about the %s cancellation for %s. We will proceed with disabling the feed and get back to you shortly.

Thanks,
Support Team`, contact, feedName, dealer)
}

func cancellationApprovalBody(rep, dealer, feedName, requester string) string {
	return fmt.Sprintf(`Hi %s,

We received a request from %s to cancel the %s feed for %s.

Can you approve this cancellation request?

Thanks,
Support Team`, rep, requester, feedName, dealer)
}

func syndicatorNotificationBody(feedName, dealer, feedID string) string {
	return fmt.Sprintf(`Hi %s Team,

This is to inform you that the feed for %s (Feed ID: %s) has been cancelled and is no longer active.

Please update your systems accordingly.

Best regards,
Support Team`, feedName, dealer, feedID)
}
