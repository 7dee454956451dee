package models

import "time"

// Category values assignable by the decision engine.
const (
	CategoryActivationNew      = "Product Activation — New Client"
	CategoryActivationExisting = "Product Activation — Existing Client"
	CategoryCancellation       = "Product Cancellation"
	CategoryProblemBug         = "Problem / Bug"
	CategoryGeneralQuestion    = "General Question"
	CategoryAnalysisReview     = "Analysis / Review"
	CategoryOther              = "Other"
)

const (
	SubCategoryImport          = "Import"
	SubCategoryExport          = "Export"
	SubCategorySalesDataImport = "Sales Data Import"
	SubCategoryFBSetup         = "FB Setup"
	SubCategoryGoogleSetup     = "Google Setup"
	SubCategoryOtherDepartment = "Other Department"
	SubCategoryOther           = "Other"
	SubCategoryAccuTrade       = "AccuTrade"
)

const (
	Tier1 = "Tier 1"
	Tier2 = "Tier 2"
	Tier3 = "Tier 3"
)

const InventoryUnspecified = "Unspecified"

var ValidCategories = []string{
	CategoryActivationNew,
	CategoryActivationExisting,
	CategoryCancellation,
	CategoryProblemBug,
	CategoryGeneralQuestion,
	CategoryAnalysisReview,
	CategoryOther,
}

var ValidSubCategories = []string{
	SubCategoryImport,
	SubCategoryExport,
	SubCategorySalesDataImport,
	SubCategoryFBSetup,
	SubCategoryGoogleSetup,
	SubCategoryOtherDepartment,
	SubCategoryOther,
	SubCategoryAccuTrade,
}

var ValidInventoryTypes = []string{
	"New", "Used", "Demo", "New + Used", "In-Transit", "AS-IS", "CPO", InventoryUnspecified,
}

var ValidTiers = []string{Tier1, Tier2, Tier3}

// Sentiment is the emotional tone the extractor assigns to a ticket.
type Sentiment string

const (
	SentimentCalm       Sentiment = "Calm"
	SentimentNeutral    Sentiment = "Neutral"
	SentimentConcerned  Sentiment = "Concerned"
	SentimentFrustrated Sentiment = "Frustrated"
	SentimentUrgent     Sentiment = "Urgent"
	SentimentCritical   Sentiment = "Critical"
)

var ValidSentiments = []Sentiment{
	SentimentCalm, SentimentNeutral, SentimentConcerned,
	SentimentFrustrated, SentimentUrgent, SentimentCritical,
}

// Thread is one message in a ticket's conversation history.
type Thread struct {
	Author    string    `json:"author"`
	FromEmail string    `json:"from_email"`
	Body      string    `json:"body"`
	Timestamp time.Time `json:"timestamp"`
}

// Ticket is the inbound unit of work from the ticket source system.
type Ticket struct {
	ID             string    `json:"id"`
	Subject        string    `json:"subject"`
	Description    string    `json:"description"`
	RequesterEmail string    `json:"requester_email"`
	Threads        []Thread  `json:"threads,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// ExtractedEntities is the structured record the LLM extraction phase
// produces. Every field is always present; unpopulated fields hold their
// zero/default value, never a missing key.
type ExtractedEntities struct {
	DealerName           string    `json:"dealer_name"`
	SyndicatorsMentioned []string  `json:"syndicators_mentioned"`
	ProvidersMentioned   []string  `json:"providers_mentioned"`
	InventoryType        string    `json:"inventory_type"`
	ActionKeywords       []string  `json:"action_keywords"`
	ProblemIndicators    []string  `json:"problem_indicators"`
	UrgencyIndicators    []string  `json:"urgency_indicators"`
	MultipleDealers      bool      `json:"multiple_dealers"`
	Sentiment            Sentiment `json:"sentiment"`
	KeyActionItems       []string  `json:"key_action_items"`
	AdditionalQuestions  []string  `json:"additional_questions"`
	SpecialRequests      []string  `json:"special_requests"`
}

// Classification is the decision engine's output, enriched by the dealer
// resolver. Syndicator and Provider are mutually exclusive: at most one is
// non-empty.
type Classification struct {
	Contact       string `json:"contact"`
	DealerName    string `json:"dealer_name"`
	DealerID      string `json:"dealer_id"`
	Rep           string `json:"rep"`
	Category      string `json:"category"`
	SubCategory   string `json:"sub_category"`
	Syndicator    string `json:"syndicator"`
	Provider      string `json:"provider"`
	InventoryType string `json:"inventory_type"`
	Tier          string `json:"tier"`
}

// DealerLookup is the result of a dealer mapping resolution.
type DealerLookup struct {
	DealerName string `json:"dealer_name"`
	DealerID   string `json:"dealer_id"`
	Rep        string `json:"rep"`
}

// TicketResult bundles everything one classification pass produced for a
// ticket. Err is set only when extraction degraded to defaults; the
// classification itself is always total.
type TicketResult struct {
	TicketID          string            `json:"ticket_id"`
	Classification    Classification    `json:"classification"`
	Entities          ExtractedEntities `json:"entities"`
	SuggestedResponse string            `json:"suggested_response"`
	Automatable       bool              `json:"automatable"`
	AutomationReason  string            `json:"automation_reason"`
	RawModelOutput    string            `json:"raw_model_output,omitempty"`
	Err               string            `json:"error,omitempty"`
}

// ClassificationRecord is the persisted form of a ticket's classification.
// Re-classifying the same ticket updates the record in place.
type ClassificationRecord struct {
	TicketID          string         `json:"ticket_id"`
	Classification    Classification `json:"classification"`
	RawModelOutput    string         `json:"raw_model_output,omitempty"`
	SuggestedResponse string         `json:"suggested_response,omitempty"`
	Automatable       bool           `json:"automatable"`
	AutomationReason  string         `json:"automation_reason,omitempty"`
	TicketSubject     string         `json:"ticket_subject,omitempty"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// Automation log severity levels.
const (
	LogHeader  = "header"
	LogStep    = "step"
	LogInfo    = "info"
	LogSuccess = "success"
	LogWarning = "warning"
	LogError   = "error"
	LogSpacer  = "spacer"
)

// LogEntry is one line of an automation execution log.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message"`
	Level     string    `json:"level"`
}

// OutboundMessage records a notification the automation script produced.
// Messages are recorded, not delivered; delivery belongs to a mail
// collaborator outside this service.
type OutboundMessage struct {
	Timestamp time.Time `json:"timestamp"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Type      string    `json:"type"`
}

// InternalComment records a ticket-system comment the automation script
// produced.
type InternalComment struct {
	Timestamp   time.Time `json:"timestamp"`
	Comment     string    `json:"comment"`
	TaggedUsers []string  `json:"tagged_users"`
	Type        string    `json:"type"`
}

// FeedConfig describes a feed the automation configured or cancelled.
type FeedConfig struct {
	FeedID        string `json:"feed_id"`
	FeedURL       string `json:"feed_url,omitempty"`
	DealerID      string `json:"dealer_id"`
	DealerName    string `json:"dealer_name"`
	FeedName      string `json:"feed_name"`
	FeedType      string `json:"feed_type"`
	InventoryType string `json:"inventory_type,omitempty"`
	Status        string `json:"status"`
}

// CancelledFeed is one row of the append-only cancellation log.
type CancelledFeed struct {
	CancelledAt time.Time `json:"cancelled_at"`
	DealerID    string    `json:"dealer_id"`
	DealerName  string    `json:"dealer_name"`
	FeedName    string    `json:"feed_name"`
	FeedType    string    `json:"feed_type"`
	CancelledBy string    `json:"cancelled_by"`
	Reason      string    `json:"reason"`
	FeedID      string    `json:"feed_id"`
}

// AutomationResult is the structured outcome of an automation run. On
// failure the log captured up to the failing step is preserved.
type AutomationResult struct {
	Success          bool              `json:"success"`
	Automated        bool              `json:"automated"`
	Log              []LogEntry        `json:"execution_log"`
	Messages         []OutboundMessage `json:"messages_sent"`
	InternalComments []InternalComment `json:"internal_comments"`
	ExecutionMs      int64             `json:"execution_ms"`
	ResolutionStatus string            `json:"resolution_status,omitempty"`
	OrderRequired    bool              `json:"order_required"`
	Feed             *FeedConfig       `json:"feed,omitempty"`
	Error            string            `json:"error,omitempty"`
}

// TicketRecord is a lightweight historical ticket used by the analytics
// engines.
type TicketRecord struct {
	DealerID  string    `json:"dealer_id"`
	Date      time.Time `json:"date"`
	Category  string    `json:"category"`
	Sentiment Sentiment `json:"sentiment"`
	Tier      string    `json:"tier"`
}

// HealthReport is the outcome of a client health scoring pass.
type HealthReport struct {
	DealerID        string         `json:"dealer_id,omitempty"`
	DealerName      string         `json:"dealer_name,omitempty"`
	Score           float64        `json:"score"`
	Category        string         `json:"category"`
	TicketsAnalyzed int            `json:"tickets_analyzed"`
	RecentTickets   int            `json:"recent_tickets"`
	Factors         map[string]int `json:"factors"`
	Trend           string         `json:"trend"`
	Recommendations []string       `json:"recommendations"`
	ProblemCount    int            `json:"problem_count"`
	UrgentCount     int            `json:"urgent_count"`
}

// ChurnReport is a churn probability estimate for one dealer.
type ChurnReport struct {
	DealerID         string   `json:"dealer_id"`
	DealerName       string   `json:"dealer_name"`
	ChurnProbability float64  `json:"churn_probability"`
	RiskLevel        string   `json:"risk_level"`
	Priority         string   `json:"priority"`
	RiskFactors      []string `json:"risk_factors"`
	Interventions    []string `json:"interventions"`
	ARR              float64  `json:"arr"`
	RevenueAtRisk    float64  `json:"revenue_at_risk"`
	HealthScore      float64  `json:"health_score"`
}

// SalesSignal is one keyword hit contributing to a sales opportunity.
type SalesSignal struct {
	Type     string `json:"type"`
	Category string `json:"category"`
	Keyword  string `json:"keyword"`
	Context  string `json:"context,omitempty"`
}

// SalesOpportunity is a detected revenue opportunity for one ticket.
type SalesOpportunity struct {
	HasOpportunity    bool          `json:"has_opportunity"`
	DealerID          string        `json:"dealer_id"`
	DealerName        string        `json:"dealer_name"`
	CurrentPackage    string        `json:"current_package"`
	OpportunityType   string        `json:"opportunity_type,omitempty"`
	Signals           []SalesSignal `json:"signals,omitempty"`
	PotentialRevenue  float64       `json:"potential_revenue"`
	Confidence        int           `json:"confidence"`
	Priority          string        `json:"priority"`
	RecommendedAction string        `json:"recommended_action,omitempty"`
	TalkingPoints     []string      `json:"talking_points,omitempty"`
	NextSteps         []string      `json:"next_steps,omitempty"`
}

// UpsellOpportunity is a package-upgrade recommendation for one dealer.
type UpsellOpportunity struct {
	HasOpportunity     bool          `json:"has_opportunity"`
	Confidence         int           `json:"confidence"`
	RecommendedPackage string        `json:"recommended_package,omitempty"`
	CurrentPackage     string        `json:"current_package"`
	CurrentARR         float64       `json:"current_arr"`
	PotentialARR       float64       `json:"potential_arr"`
	RevenueIncrease    float64       `json:"revenue_increase"`
	Signals            []SalesSignal `json:"signals_detected,omitempty"`
	Reasoning          []string      `json:"reasoning,omitempty"`
	Priority           string        `json:"priority"`
	TalkingPoints      []string      `json:"talking_points,omitempty"`
}

// Run tracks one batch processing invocation.
type Run struct {
	ID         string    `json:"id"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
	Status     string    `json:"status"`
	Summary    []byte    `json:"summary"`
}
