package handlers

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/d2cmedia/syndesk/internal/analytics"
	"github.com/d2cmedia/syndesk/internal/db"
	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
	"github.com/d2cmedia/syndesk/internal/service"
)

type Handler struct {
	Store     *db.Store
	Processor *service.ProcessingService
	Ref       *refdata.Tables
	Health    *analytics.HealthEngine
	Sales     *analytics.SalesEngine
	Upsell    *analytics.UpsellEngine
	Validator *validator.Validate
	Logger    zerolog.Logger
	AdminKey  string
}

type TicketRequest struct {
	ID             string          `json:"id" validate:"required"`
	Subject        string          `json:"subject"`
	Description    string          `json:"description" validate:"required"`
	RequesterEmail string          `json:"requester_email"`
	Threads        []models.Thread `json:"threads"`
	CreatedAt      time.Time       `json:"created_at"`
}

func (r TicketRequest) ticket() models.Ticket {
	return models.Ticket{
		ID:             r.ID,
		Subject:        r.Subject,
		Description:    r.Description,
		RequesterEmail: r.RequesterEmail,
		Threads:        r.Threads,
		CreatedAt:      r.CreatedAt,
	}
}

type ImportSummary struct {
	Parsed   int      `json:"parsed"`
	Inserted int      `json:"inserted"`
	Errors   []string `json:"errors"`
}

func (h *Handler) Healthz(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()
	if err := h.Store.Ping(ctx); err != nil {
		writeError(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "Database unavailable", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// @Summary Classify one ticket
// @Description Run extraction and classification without persisting anything
// @Tags classify
// @Accept json
// @Produce json
// @Success 200 {object} models.TicketResult
// @Failure 400 {object} map[string]any
// @Router /api/classify [post]
func (h *Handler) Classify(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	result := h.Processor.ClassifyTicket(c.Request.Context(), req.ticket())
	c.JSON(http.StatusOK, result)
}

// @Summary Process a batch of tickets
// @Description Classify every ticket in the payload and persist the results
// @Tags process
// @Accept json
// @Produce json
// @Success 200 {object} service.RunSummary
// @Router /api/process [post]
func (h *Handler) Process(c *gin.Context) {
	var reqs []TicketRequest
	if err := c.ShouldBindJSON(&reqs); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if len(reqs) == 0 {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "at least one ticket required", nil)
		return
	}
	tickets := make([]models.Ticket, 0, len(reqs))
	for i, r := range reqs {
		if err := h.Validator.Struct(r); err != nil {
			writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", fmt.Sprintf("ticket %d invalid", i), err.Error())
			return
		}
		tickets = append(tickets, r.ticket())
	}

	runID, err := h.Store.CreateRun(c.Request.Context(), "RUNNING")
	if err != nil {
		h.Logger.Error().Err(err).Msg("failed to create run")
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to create run", err.Error())
		return
	}

	debug := c.Query("debug")
	summary, err := h.Processor.ProcessBatch(c.Request.Context(), tickets, debug == "1" || strings.EqualFold(debug, "true"))
	status := "SUCCESS"
	if err != nil {
		status = "FAILED"
	}
	b, _ := json.Marshal(summary)
	if finishErr := h.Store.FinishRun(c.Request.Context(), runID, status, b); finishErr != nil {
		h.Logger.Error().Err(finishErr).Msg("failed to finish run")
	}

	if err != nil {
		h.Logger.Error().Err(err).Msg("processing failed")
		writeError(c, http.StatusInternalServerError, "PROCESSING_ERROR", "Processing failed", err.Error())
		return
	}
	c.JSON(http.StatusOK, summary)
}

// @Summary Latest run
// @Tags runs
// @Produce json
// @Success 200 {object} models.Run
// @Router /api/runs/latest [get]
func (h *Handler) RunsLatest(c *gin.Context) {
	result, err := h.Store.GetLatestRun(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusNotFound, "NOT_FOUND", "No runs found", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) ClassificationsList(c *gin.Context) {
	category := c.Query("category")
	tier := c.Query("tier")
	dealerID := c.Query("dealer_id")
	q := c.Query("q")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	items, err := h.Store.ListClassifications(c.Request.Context(), category, tier, dealerID, q, limit, offset)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list classifications", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items, "limit": limit, "offset": offset})
}

func (h *Handler) ClassificationDetails(c *gin.Context) {
	id := c.Param("ticket_id")
	rec, err := h.Store.GetClassification(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeError(c, http.StatusNotFound, "NOT_FOUND", "Classification not found", nil)
			return
		}
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to get classification", err.Error())
		return
	}
	c.JSON(http.StatusOK, rec)
}

// @Summary Automate one ticket
// @Description Classify the ticket and, if eligible, run the scripted workflow
// @Tags automate
// @Accept json
// @Produce json
// @Success 200 {object} models.AutomationResult
// @Failure 422 {object} map[string]any
// @Router /api/tickets/{id}/automate [post]
func (h *Handler) Automate(c *gin.Context) {
	var req TicketRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	req.ID = c.Param("id")
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}

	result, err := h.Processor.Automate(c.Request.Context(), req.ticket())
	if err != nil {
		writeError(c, http.StatusUnprocessableEntity, "NOT_AUTOMATABLE", "Ticket is not automatable", err.Error())
		return
	}
	c.JSON(http.StatusOK, result)
}

func (h *Handler) CancellationsList(c *gin.Context) {
	dealerID := c.Query("dealer_id")
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "100"))
	items, err := h.Store.ListCancellations(c.Request.Context(), dealerID, limit)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to list cancellations", err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": items})
}

// @Summary Dealer health score
// @Tags analytics
// @Produce json
// @Success 200 {object} models.HealthReport
// @Router /api/analytics/health/{dealer_id} [get]
func (h *Handler) DealerHealth(c *gin.Context) {
	dealerID := c.Param("dealer_id")
	history, err := h.Store.GetTicketHistory(c.Request.Context(), dealerID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load ticket history", err.Error())
		return
	}
	report := h.Health.Score(history)
	report.DealerID = dealerID
	report.DealerName = h.dealerName(dealerID)
	c.JSON(http.StatusOK, report)
}

// @Summary Portfolio health, worst first
// @Tags analytics
// @Produce json
// @Success 200 {object} map[string]any
// @Router /api/analytics/health [get]
func (h *Handler) PortfolioHealth(c *gin.Context) {
	byDealer, err := h.Store.AllTicketHistory(c.Request.Context())
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load ticket history", err.Error())
		return
	}
	names := map[string]string{}
	for id := range byDealer {
		names[id] = h.dealerName(id)
	}
	reports := h.Health.ScoreAll(byDealer, names)
	c.JSON(http.StatusOK, gin.H{"items": reports})
}

// @Summary Dealer churn risk
// @Tags analytics
// @Produce json
// @Param arr query number false "annual recurring revenue"
// @Success 200 {object} models.ChurnReport
// @Router /api/analytics/churn/{dealer_id} [get]
func (h *Handler) DealerChurn(c *gin.Context) {
	dealerID := c.Param("dealer_id")
	arr, _ := strconv.ParseFloat(c.DefaultQuery("arr", "0"), 64)
	if arr == 0 {
		if billing, ok := h.Ref.BillingFor(dealerID); ok {
			arr = billing.MonthlyFee * 12
		}
	}
	history, err := h.Store.GetTicketHistory(c.Request.Context(), dealerID)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load ticket history", err.Error())
		return
	}
	report := h.Health.ChurnRisk(dealerID, h.dealerName(dealerID), history, arr)
	c.JSON(http.StatusOK, report)
}

type SalesRequest struct {
	Subject  string `json:"subject"`
	Body     string `json:"body" validate:"required"`
	DealerID string `json:"dealer_id"`
	Package  string `json:"package"`
}

// @Summary Detect a sales opportunity in ticket text
// @Tags analytics
// @Accept json
// @Produce json
// @Success 200 {object} models.SalesOpportunity
// @Router /api/analytics/sales [post]
func (h *Handler) SalesOpportunity(c *gin.Context) {
	var req SalesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	pkg := req.Package
	if pkg == "" {
		if billing, ok := h.Ref.BillingFor(req.DealerID); ok {
			pkg = billing.PackageType
		}
	}
	opp := h.Sales.DetectOpportunity(req.Subject, req.Body, req.DealerID, h.dealerName(req.DealerID), pkg)
	c.JSON(http.StatusOK, opp)
}

type UpsellRequest struct {
	Text     string  `json:"text" validate:"required"`
	DealerID string  `json:"dealer_id"`
	Package  string  `json:"package"`
	ARR      float64 `json:"arr"`
}

// @Summary Detect an upsell opportunity
// @Tags analytics
// @Accept json
// @Produce json
// @Success 200 {object} models.UpsellOpportunity
// @Router /api/analytics/upsell [post]
func (h *Handler) UpsellOpportunity(c *gin.Context) {
	var req UpsellRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "Invalid payload", err.Error())
		return
	}
	if err := h.Validator.Struct(req); err != nil {
		writeError(c, http.StatusBadRequest, "VALIDATION_ERROR", "Validation failed", err.Error())
		return
	}
	pkg := req.Package
	arr := req.ARR
	if billing, ok := h.Ref.BillingFor(req.DealerID); ok {
		if pkg == "" {
			pkg = billing.PackageType
		}
		if arr == 0 {
			arr = billing.MonthlyFee * 12
		}
	}

	var history []models.TicketRecord
	if req.DealerID != "" {
		var err error
		history, err = h.Store.GetTicketHistory(c.Request.Context(), req.DealerID)
		if err != nil {
			writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to load ticket history", err.Error())
			return
		}
	}
	opp := h.Upsell.DetectOpportunity(req.Text, pkg, arr, history)
	c.JSON(http.StatusOK, opp)
}

// @Summary Import ticket history CSV
// @Description Bulk-load dealer ticket history rows for analytics
// @Tags import
// @Accept multipart/form-data
// @Produce json
// @Param history formData file true "history.csv"
// @Success 200 {object} ImportSummary
// @Failure 400 {object} map[string]any
// @Router /api/import [post]
func (h *Handler) Import(c *gin.Context) {
	file, err := c.FormFile("history")
	if err != nil {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "history file required", nil)
		return
	}
	if !validateExt(file.Filename) {
		writeError(c, http.StatusBadRequest, "INVALID_REQUEST", "file must be .csv", nil)
		return
	}

	records, errs := parseHistoryCSV(file)
	summary := ImportSummary{Parsed: len(records), Errors: errs}
	if len(errs) > 0 {
		writeError(c, http.StatusBadRequest, "CSV_PARSE_ERROR", "CSV validation errors", errs)
		return
	}

	inserted, err := h.Store.InsertTicketHistory(c.Request.Context(), records)
	if err != nil {
		writeError(c, http.StatusInternalServerError, "DB_ERROR", "Failed to insert ticket history", err.Error())
		return
	}
	summary.Inserted = int(inserted)
	c.JSON(http.StatusOK, summary)
}

func (h *Handler) dealerName(dealerID string) string {
	if dealerID == "" {
		return ""
	}
	for _, row := range h.Ref.RepDealers {
		if row.DealerID == dealerID {
			return row.DealerName
		}
	}
	return ""
}

func writeError(c *gin.Context, status int, code string, message string, details any) {
	c.JSON(status, gin.H{
		"error": gin.H{
			"code":    code,
			"message": message,
			"details": details,
		},
	})
}

func parseHistoryCSV(file *multipart.FileHeader) ([]models.TicketRecord, []string) {
	f, err := file.Open()
	if err != nil {
		return nil, []string{err.Error()}
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.TrimLeadingSpace = true
	headers, err := reader.Read()
	if err != nil {
		return nil, []string{"failed to read header"}
	}
	index := headerIndex(headers)
	var errs []string
	var out []models.TicketRecord

	for {
		rec, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}

		dealerID := getField(rec, index, "dealer_id")
		dateStr := getField(rec, index, "date")
		category := getField(rec, index, "category")
		sentiment := getField(rec, index, "sentiment")
		tier := getField(rec, index, "tier")

		if dealerID == "" {
			errs = append(errs, "dealer_id required")
			continue
		}
		date, err := time.Parse(time.RFC3339, dateStr)
		if err != nil {
			date, err = time.Parse("2006-01-02", dateStr)
			if err != nil {
				errs = append(errs, fmt.Sprintf("bad date %q for dealer %s", dateStr, dealerID))
				continue
			}
		}
		if sentiment == "" {
			sentiment = string(models.SentimentNeutral)
		}

		out = append(out, models.TicketRecord{
			DealerID:  dealerID,
			Date:      date,
			Category:  category,
			Sentiment: models.Sentiment(sentiment),
			Tier:      tier,
		})
	}
	return out, errs
}

func headerIndex(headers []string) map[string]int {
	idx := map[string]int{}
	for i, h := range headers {
		h = strings.ReplaceAll(h, "\uFEFF", "")
		idx[strings.ToLower(strings.TrimSpace(h))] = i
	}
	return idx
}

func getField(rec []string, idx map[string]int, name string) string {
	pos, ok := idx[name]
	if !ok || pos >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[pos])
}

func validateExt(name string) bool {
	return strings.ToLower(filepath.Ext(name)) == ".csv"
}
