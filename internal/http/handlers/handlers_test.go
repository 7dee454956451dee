package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/d2cmedia/syndesk/internal/ai"
	"github.com/d2cmedia/syndesk/internal/analytics"
	"github.com/d2cmedia/syndesk/internal/models"
	"github.com/d2cmedia/syndesk/internal/refdata"
	"github.com/d2cmedia/syndesk/internal/service"
)

func testRefTables() *refdata.Tables {
	return &refdata.Tables{
		Syndicators: []string{"Kijiji", "AutoTrader", "Facebook Marketplace", "Google Vehicle Ads", "AccuTrade"},
		Providers:   []string{"SERTI", "PBS"},
		RepDealers: []refdata.RepDealer{
			{RepName: "Marie Tremblay", DealerName: "Prestige Auto Laval", DealerID: "D-1001"},
		},
		BillingByID: map[string]refdata.Billing{
			"D-1001": {DealerID: "D-1001", OrderRequired: true, PackageType: "Premium", MonthlyFee: 1500},
		},
	}
}

func testHandler() *Handler {
	ref := testRefTables()
	return &Handler{
		Processor: &service.ProcessingService{
			AI:         ai.MockAdapter{},
			Engine:     service.NewEngine(ref),
			Resolver:   service.NewResolver(ref),
			Automation: service.NewAutomation(ref, nil, "d2cmedia.com", "https://feeds.d2cmedia.com", 0, zerolog.Nop()),
			Logger:     zerolog.Nop(),
		},
		Ref:       ref,
		Health:    analytics.NewHealthEngine(),
		Sales:     analytics.NewSalesEngine(),
		Upsell:    analytics.NewUpsellEngine(),
		Validator: validator.New(),
		Logger:    zerolog.Nop(),
	}
}

func TestClassifyEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := testHandler()
	r := gin.New()
	r.POST("/api/classify", h.Classify)

	body := `{"id":"TCK-1","subject":"Feed question","description":"Please set up the Kijiji feed for Prestige Auto Laval"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var result models.TicketResult
	if err := json.Unmarshal(w.Body.Bytes(), &result); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if result.TicketID != "TCK-1" {
		t.Fatalf("ticket id = %q", result.TicketID)
	}
	if result.Classification.Category == "" || result.Classification.Tier == "" {
		t.Fatalf("classification incomplete: %+v", result.Classification)
	}
}

func TestClassifyEndpointRejectsMissingDescription(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := testHandler()
	r := gin.New()
	r.POST("/api/classify", h.Classify)

	req, _ := http.NewRequest(http.MethodPost, "/api/classify", strings.NewReader(`{"id":"TCK-2"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", w.Code)
	}
}

func TestSalesEndpointUsesBillingDefaults(t *testing.T) {
	gin.SetMode(gin.TestMode)
	h := testHandler()
	r := gin.New()
	r.POST("/api/analytics/sales", h.SalesOpportunity)

	body := `{"body":"We are opening a second location next month","dealer_id":"D-1001"}`
	req, _ := http.NewRequest(http.MethodPost, "/api/analytics/sales", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", w.Code, w.Body.String())
	}
	var opp models.SalesOpportunity
	if err := json.Unmarshal(w.Body.Bytes(), &opp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !opp.HasOpportunity {
		t.Fatalf("expected opportunity: %s", w.Body.String())
	}
	if opp.DealerName != "Prestige Auto Laval" {
		t.Fatalf("dealer name = %q", opp.DealerName)
	}
}

func TestParseHistoryCSV(t *testing.T) {
	content := "dealer_id,date,category,sentiment,tier\n" +
		"D-1001,2026-08-01,Problem / Bug,Frustrated,Tier 2\n" +
		"D-1001,2026-08-05,General Question,,Tier 1\n"
	fh := makeMultipartFile(t, "history", "history.csv", content)

	records, errs := parseHistoryCSV(fh)
	if len(errs) > 0 {
		t.Fatalf("expected no errors, got %v", errs)
	}
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Category != models.CategoryProblemBug {
		t.Fatalf("category = %q", records[0].Category)
	}
	if records[1].Sentiment != models.SentimentNeutral {
		t.Fatalf("blank sentiment should default to Neutral, got %q", records[1].Sentiment)
	}
}

func TestParseHistoryCSVBadDate(t *testing.T) {
	content := "dealer_id,date,category,sentiment,tier\nD-1001,yesterday,Other,Calm,Tier 1\n"
	fh := makeMultipartFile(t, "history", "history.csv", content)

	records, errs := parseHistoryCSV(fh)
	if len(records) != 0 {
		t.Fatalf("expected no records, got %d", len(records))
	}
	if len(errs) != 1 {
		t.Fatalf("expected 1 error, got %v", errs)
	}
}

func makeMultipartFile(t *testing.T, fieldName, filename, content string) *multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile(fieldName, filename)
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatalf("write content: %v", err)
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}

	reader := multipart.NewReader(&buf, writer.Boundary())
	form, err := reader.ReadForm(int64(buf.Len()))
	if err != nil {
		t.Fatalf("read form: %v", err)
	}
	files := form.File[fieldName]
	if len(files) == 0 {
		t.Fatalf("no file headers found")
	}
	return files[0]
}
