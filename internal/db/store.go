package db

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/d2cmedia/syndesk/internal/models"
)

type Store struct {
	Pool *pgxpool.Pool
}

func New(ctx context.Context, databaseURL string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return &Store{Pool: pool}, nil
}

func (s *Store) Close() {
	s.Pool.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.Pool.Ping(ctx)
}

func (s *Store) WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error {
	tx, err := s.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return err
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()
	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit(ctx)
}

// UpsertClassification persists one ticket's classification. Re-running the
// pipeline for the same ticket updates the row in place.
func (s *Store) UpsertClassification(ctx context.Context, rec models.ClassificationRecord) error {
	c := rec.Classification
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO classifications (ticket_id, contact, dealer_name, dealer_id, rep,
			category, sub_category, syndicator, provider, inventory_type, tier,
			raw_model_output, suggested_response, automatable, automation_reason,
			ticket_subject, created_at, updated_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,NOW(),NOW())
		ON CONFLICT (ticket_id) DO UPDATE SET
			contact = EXCLUDED.contact,
			dealer_name = EXCLUDED.dealer_name,
			dealer_id = EXCLUDED.dealer_id,
			rep = EXCLUDED.rep,
			category = EXCLUDED.category,
			sub_category = EXCLUDED.sub_category,
			syndicator = EXCLUDED.syndicator,
			provider = EXCLUDED.provider,
			inventory_type = EXCLUDED.inventory_type,
			tier = EXCLUDED.tier,
			raw_model_output = EXCLUDED.raw_model_output,
			suggested_response = EXCLUDED.suggested_response,
			automatable = EXCLUDED.automatable,
			automation_reason = EXCLUDED.automation_reason,
			ticket_subject = EXCLUDED.ticket_subject,
			updated_at = NOW()
	`, rec.TicketID, c.Contact, c.DealerName, c.DealerID, c.Rep,
		c.Category, c.SubCategory, c.Syndicator, c.Provider, c.InventoryType, c.Tier,
		rec.RawModelOutput, rec.SuggestedResponse, rec.Automatable, rec.AutomationReason,
		rec.TicketSubject)
	return err
}

func (s *Store) GetClassification(ctx context.Context, ticketID string) (models.ClassificationRecord, error) {
	row := s.Pool.QueryRow(ctx, `
		SELECT ticket_id, contact, dealer_name, dealer_id, rep,
			category, sub_category, syndicator, provider, inventory_type, tier,
			raw_model_output, suggested_response, automatable, automation_reason,
			ticket_subject, created_at, updated_at
		FROM classifications WHERE ticket_id = $1
	`, ticketID)
	return scanClassification(row)
}

// ListClassifications filters by any combination of category, tier and dealer
// id, plus a free-text match against ticket id and subject.
func (s *Store) ListClassifications(ctx context.Context, category, tier, dealerID, q string, limit, offset int) ([]models.ClassificationRecord, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	query := `SELECT ticket_id, contact, dealer_name, dealer_id, rep,
		category, sub_category, syndicator, provider, inventory_type, tier,
		raw_model_output, suggested_response, automatable, automation_reason,
		ticket_subject, created_at, updated_at
		FROM classifications`
	var args []any
	var wheres []string
	if category != "" {
		args = append(args, category)
		wheres = append(wheres, fmt.Sprintf("category = $%d", len(args)))
	}
	if tier != "" {
		args = append(args, tier)
		wheres = append(wheres, fmt.Sprintf("tier = $%d", len(args)))
	}
	if dealerID != "" {
		args = append(args, dealerID)
		wheres = append(wheres, fmt.Sprintf("dealer_id = $%d", len(args)))
	}
	if q != "" {
		args = append(args, "%"+q+"%")
		wheres = append(wheres, fmt.Sprintf("(ticket_id ILIKE $%d OR ticket_subject ILIKE $%d)", len(args), len(args)))
	}
	if len(wheres) > 0 {
		query += " WHERE " + strings.Join(wheres, " AND ")
	}
	query += " ORDER BY updated_at DESC LIMIT $" + fmt.Sprint(len(args)+1) + " OFFSET $" + fmt.Sprint(len(args)+2)
	args = append(args, limit, offset)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.ClassificationRecord
	for rows.Next() {
		rec, err := scanClassification(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanClassification(row pgx.Row) (models.ClassificationRecord, error) {
	var rec models.ClassificationRecord
	c := &rec.Classification
	err := row.Scan(&rec.TicketID, &c.Contact, &c.DealerName, &c.DealerID, &c.Rep,
		&c.Category, &c.SubCategory, &c.Syndicator, &c.Provider, &c.InventoryType, &c.Tier,
		&rec.RawModelOutput, &rec.SuggestedResponse, &rec.Automatable, &rec.AutomationReason,
		&rec.TicketSubject, &rec.CreatedAt, &rec.UpdatedAt)
	return rec, err
}

// InsertCancellation appends one row to the cancellation log. The log is
// append-only; nothing updates or deletes rows.
func (s *Store) InsertCancellation(ctx context.Context, f models.CancelledFeed) error {
	_, err := s.Pool.Exec(ctx, `
		INSERT INTO cancelled_feeds (cancelled_at, dealer_id, dealer_name, feed_name, feed_type, cancelled_by, reason, feed_id)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
	`, f.CancelledAt, f.DealerID, f.DealerName, f.FeedName, f.FeedType, f.CancelledBy, f.Reason, f.FeedID)
	return err
}

func (s *Store) ListCancellations(ctx context.Context, dealerID string, limit int) ([]models.CancelledFeed, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `SELECT cancelled_at, dealer_id, dealer_name, feed_name, feed_type, cancelled_by, reason, feed_id FROM cancelled_feeds`
	var args []any
	if dealerID != "" {
		args = append(args, dealerID)
		query += " WHERE dealer_id = $1"
	}
	query += " ORDER BY cancelled_at DESC LIMIT $" + fmt.Sprint(len(args)+1)
	args = append(args, limit)

	rows, err := s.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.CancelledFeed
	for rows.Next() {
		var f models.CancelledFeed
		if err := rows.Scan(&f.CancelledAt, &f.DealerID, &f.DealerName, &f.FeedName, &f.FeedType, &f.CancelledBy, &f.Reason, &f.FeedID); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

// InsertTicketHistory bulk-loads analytics history rows.
func (s *Store) InsertTicketHistory(ctx context.Context, records []models.TicketRecord) (int64, error) {
	rows := make([][]any, 0, len(records))
	for _, r := range records {
		rows = append(rows, []any{r.DealerID, r.Date, r.Category, string(r.Sentiment), r.Tier})
	}
	return s.Pool.CopyFrom(ctx, pgx.Identifier{"ticket_history"}, []string{"dealer_id", "date", "category", "sentiment", "tier"}, pgx.CopyFromRows(rows))
}

func (s *Store) GetTicketHistory(ctx context.Context, dealerID string) ([]models.TicketRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT dealer_id, date, category, sentiment, tier
		FROM ticket_history WHERE dealer_id = $1 ORDER BY date ASC
	`, dealerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return collectHistory(rows)
}

// AllTicketHistory returns every history row grouped by dealer, for
// portfolio-wide scoring.
func (s *Store) AllTicketHistory(ctx context.Context) (map[string][]models.TicketRecord, error) {
	rows, err := s.Pool.Query(ctx, `
		SELECT dealer_id, date, category, sentiment, tier
		FROM ticket_history ORDER BY dealer_id ASC, date ASC
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records, err := collectHistory(rows)
	if err != nil {
		return nil, err
	}
	out := map[string][]models.TicketRecord{}
	for _, r := range records {
		out[r.DealerID] = append(out[r.DealerID], r)
	}
	return out, nil
}

func collectHistory(rows pgx.Rows) ([]models.TicketRecord, error) {
	var out []models.TicketRecord
	for rows.Next() {
		var r models.TicketRecord
		var sentiment string
		if err := rows.Scan(&r.DealerID, &r.Date, &r.Category, &sentiment, &r.Tier); err != nil {
			return nil, err
		}
		r.Sentiment = models.Sentiment(sentiment)
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) CreateRun(ctx context.Context, status string) (string, error) {
	var id string
	err := s.Pool.QueryRow(ctx, `INSERT INTO runs (status, started_at) VALUES ($1, NOW()) RETURNING id`, status).Scan(&id)
	return id, err
}

func (s *Store) FinishRun(ctx context.Context, runID string, status string, summary []byte) error {
	_, err := s.Pool.Exec(ctx, `UPDATE runs SET status = $1, summary = $2, finished_at = NOW() WHERE id = $3`, status, summary, runID)
	return err
}

func (s *Store) GetLatestRun(ctx context.Context) (models.Run, error) {
	row := s.Pool.QueryRow(ctx, `SELECT id, started_at, finished_at, status, summary FROM runs ORDER BY started_at DESC LIMIT 1`)
	var r models.Run
	var finished *time.Time
	if err := row.Scan(&r.ID, &r.StartedAt, &finished, &r.Status, &r.Summary); err != nil {
		return models.Run{}, err
	}
	if finished != nil {
		r.FinishedAt = *finished
	}
	return r, nil
}
