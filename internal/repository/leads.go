package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/octobees/leads-extractor/internal/dto"
	"github.com/octobees/leads-extractor/internal/entity"
)

// LeadsRepository describes persistence operations for extracted leads.
type LeadsRepository interface {
	UpsertLeads(ctx context.Context, leads []entity.Lead) (UpsertResult, error)
	List(ctx context.Context, filter dto.ListFilter) ([]entity.Lead, error)
	DeliveredCardIDs(ctx context.Context, keyword, location string) ([]string, error)
}

// UpsertResult summarises the number of rows inserted or updated.
type UpsertResult struct {
	Inserted int
	Updated  int
	Total    int
}

// PGXLeadsRepository implements LeadsRepository using pgx.
type PGXLeadsRepository struct {
	pool pgxPool
}

// NewPGXLeadsRepository wires a pgx backed repository.
func NewPGXLeadsRepository(pool *pgxpool.Pool) *PGXLeadsRepository {
	return &PGXLeadsRepository{pool: pool}
}

const upsertLeadSQL = `
        INSERT INTO leads (
            lead_key, card_id, name, rating, reviews, phone, phone_e164,
            address, website, website_host, keyword, location, detail_matched, run_id, updated_at
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW())
        ON CONFLICT (lead_key) DO UPDATE SET
            card_id = COALESCE(EXCLUDED.card_id, leads.card_id),
            name = EXCLUDED.name,
            rating = COALESCE(EXCLUDED.rating, leads.rating),
            reviews = EXCLUDED.reviews,
            phone = COALESCE(EXCLUDED.phone, leads.phone),
            phone_e164 = COALESCE(EXCLUDED.phone_e164, leads.phone_e164),
            address = COALESCE(EXCLUDED.address, leads.address),
            website = COALESCE(EXCLUDED.website, leads.website),
            website_host = COALESCE(EXCLUDED.website_host, leads.website_host),
            keyword = EXCLUDED.keyword,
            location = EXCLUDED.location,
            detail_matched = EXCLUDED.detail_matched,
            run_id = EXCLUDED.run_id,
            updated_at = NOW()
        RETURNING xmax = 0;
    `

// UpsertLeads persists a batch of leads keyed by lead_key in one transaction.
func (r *PGXLeadsRepository) UpsertLeads(ctx context.Context, leads []entity.Lead) (UpsertResult, error) {
	var result UpsertResult
	if len(leads) == 0 {
		return result, nil
	}

	tx, err := r.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return result, fmt.Errorf("start upsert tx: %w", err)
	}
	defer tx.Rollback(ctx)

	for _, lead := range leads {
		if lead.LeadKey == "" {
			return result, fmt.Errorf("upsert lead %q: empty lead key", lead.Name)
		}

		var runID any
		if lead.RunID != nil {
			runID = *lead.RunID
		}

		var inserted bool
		err := tx.QueryRow(ctx, upsertLeadSQL,
			lead.LeadKey,
			stringOrNil(lead.CardID),
			lead.Name,
			floatOrNil(lead.Rating),
			lead.Reviews,
			stringOrNil(lead.Phone),
			stringOrNil(lead.PhoneE164),
			stringOrNil(lead.Address),
			stringOrNil(lead.Website),
			stringOrNil(lead.WebsiteHost),
			lead.Keyword,
			lead.Location,
			lead.DetailMatched,
			runID,
		).Scan(&inserted)
		if err != nil {
			return result, fmt.Errorf("upsert lead %q: %w", lead.Name, err)
		}

		if inserted {
			result.Inserted++
		} else {
			result.Updated++
		}
		result.Total++
	}

	if err := tx.Commit(ctx); err != nil {
		return result, fmt.Errorf("commit upsert tx: %w", err)
	}

	return result, nil
}

// List retrieves leads matching the provided filter.
func (r *PGXLeadsRepository) List(ctx context.Context, filter dto.ListFilter) ([]entity.Lead, error) {
	query, args := buildListQuery(filter)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	return scanLeads(rows)
}

// DeliveredCardIDs returns the card ids already stored for a keyword and location.
func (r *PGXLeadsRepository) DeliveredCardIDs(ctx context.Context, keyword, location string) ([]string, error) {
	rows, err := r.pool.Query(ctx, `
        SELECT card_id FROM leads
        WHERE card_id IS NOT NULL AND LOWER(keyword) = LOWER($1) AND LOWER(location) = LOWER($2)
    `, keyword, location)
	if err != nil {
		return nil, fmt.Errorf("list delivered card ids: %w", err)
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan card id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate card ids: %w", err)
	}
	return ids, nil
}

func buildListQuery(filter dto.ListFilter) (string, []any) {
	query := strings.Builder{}
	query.WriteString(`
        SELECT
            id, lead_key, card_id, name, rating, reviews, phone, phone_e164,
            address, website, website_host, keyword, location, detail_matched, run_id,
            created_at, updated_at
        FROM leads
    `)

	var (
		clauses []string
		args    []any
		idx     = 1
	)

	if filter.Q != "" {
		pattern := fmt.Sprintf("%%%s%%", filter.Q)
		clauses = append(clauses, fmt.Sprintf("(name ILIKE $%d OR address ILIKE $%d)", idx, idx+1))
		args = append(args, pattern, pattern)
		idx += 2
	}
	if filter.Keyword != "" {
		clauses = append(clauses, fmt.Sprintf("LOWER(keyword) = LOWER($%d)", idx))
		args = append(args, filter.Keyword)
		idx++
	}
	if filter.Location != "" {
		clauses = append(clauses, fmt.Sprintf("location ILIKE $%d", idx))
		args = append(args, fmt.Sprintf("%%%s%%", filter.Location))
		idx++
	}
	if filter.MinRating != nil {
		clauses = append(clauses, fmt.Sprintf("rating >= $%d", idx))
		args = append(args, *filter.MinRating)
		idx++
	}
	switch strings.ToLower(filter.WebsiteStatus) {
	case "missing":
		clauses = append(clauses, "website IS NULL")
	case "available":
		clauses = append(clauses, "website IS NOT NULL")
	}
	switch strings.ToLower(filter.PhoneStatus) {
	case "missing":
		clauses = append(clauses, "phone IS NULL")
	case "available":
		clauses = append(clauses, "phone IS NOT NULL")
	}
	if filter.MatchedOnly {
		clauses = append(clauses, "detail_matched")
	}
	if filter.RunID != nil {
		clauses = append(clauses, fmt.Sprintf("run_id = $%d", idx))
		args = append(args, *filter.RunID)
		idx++
	}

	if len(clauses) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(clauses, " AND "))
	}

	orderClause := "rating DESC NULLS LAST, reviews DESC, name ASC"
	if strings.EqualFold(filter.Sort, "recent") {
		orderClause = "updated_at DESC, name ASC"
	}
	query.WriteString(" ORDER BY ")
	query.WriteString(orderClause)

	page := filter.Page
	if page <= 0 {
		page = 1
	}
	perPage := filter.PerPage
	if perPage <= 0 {
		perPage = 20
	}
	if perPage > 100 {
		perPage = 100
	}
	query.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", idx, idx+1))
	args = append(args, perPage, (page-1)*perPage)

	return query.String(), args
}

func scanLeads(rows pgx.Rows) ([]entity.Lead, error) {
	leads := []entity.Lead{}
	for rows.Next() {
		var (
			l           entity.Lead
			cardID      sql.NullString
			rating      sql.NullFloat64
			phone       sql.NullString
			phoneE164   sql.NullString
			address     sql.NullString
			website     sql.NullString
			websiteHost sql.NullString
			runID       sql.NullString
		)

		err := rows.Scan(
			&l.ID,
			&l.LeadKey,
			&cardID,
			&l.Name,
			&rating,
			&l.Reviews,
			&phone,
			&phoneE164,
			&address,
			&website,
			&websiteHost,
			&l.Keyword,
			&l.Location,
			&l.DetailMatched,
			&runID,
			&l.CreatedAt,
			&l.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}

		l.CardID = nullStringToPtr(cardID)
		l.Phone = nullStringToPtr(phone)
		l.PhoneE164 = nullStringToPtr(phoneE164)
		l.Address = nullStringToPtr(address)
		l.Website = nullStringToPtr(website)
		l.WebsiteHost = nullStringToPtr(websiteHost)
		if rating.Valid {
			val := rating.Float64
			l.Rating = &val
		}
		if runID.Valid {
			parsed, err := uuid.Parse(runID.String)
			if err != nil {
				return nil, fmt.Errorf("parse run_id: %w", err)
			}
			l.RunID = &parsed
		}

		leads = append(leads, l)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate leads: %w", err)
	}
	return leads, nil
}

func nullStringToPtr(value sql.NullString) *string {
	if value.Valid {
		val := value.String
		return &val
	}
	return nil
}

var _ LeadsRepository = (*PGXLeadsRepository)(nil)
