package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/oppradar/opportunity-radar/internal/models"
)

type Store struct {
	pool *pgxpool.Pool
}

func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const opportunityColumns = `id, source, type, title, COALESCE(description, ''), COALESCE(url, ''),
	potential_revenue, competition_level, COALESCE(keywords, '{}'::text[]),
	COALESCE(metadata, '{}'::jsonb), score, status, created_at, updated_at`

func scanOpportunity(scan func(dest ...interface{}) error) (models.Opportunity, error) {
	var o models.Opportunity
	var metadataRaw []byte

	err := scan(
		&o.ID, &o.Source, &o.Type, &o.Title, &o.Description, &o.URL,
		&o.PotentialRevenue, &o.CompetitionLevel, &o.Keywords,
		&metadataRaw, &o.Score, &o.Status, &o.CreatedAt, &o.UpdatedAt,
	)
	if err != nil {
		return o, err
	}

	if len(metadataRaw) > 0 {
		_ = json.Unmarshal(metadataRaw, &o.Metadata)
	}
	return o, nil
}

// Exists reports whether an opportunity with this (source, title) pair was
// already persisted. Dedup is keyed on exactly this pair.
func (s *Store) Exists(ctx context.Context, source, title string) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		"SELECT EXISTS(SELECT 1 FROM opportunities WHERE source = $1 AND title = $2)",
		source, title).Scan(&exists)
	return exists, err
}

// SaveOpportunity inserts a new record. The unique index on (source, title)
// backstops the application-level existence check; a conflicting insert is
// treated as a no-op, matching "re-discovery is not an update".
func (s *Store) SaveOpportunity(ctx context.Context, opp *models.Opportunity) error {
	metadataJSON, err := json.Marshal(opp.Metadata)
	if err != nil {
		return fmt.Errorf("marshaling metadata: %w", err)
	}

	err = s.pool.QueryRow(ctx, `
		INSERT INTO opportunities (
			source, type, title, description, url,
			potential_revenue, competition_level, keywords, metadata, score, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9::jsonb, $10, $11)
		ON CONFLICT (source, title) DO NOTHING
		RETURNING id
	`,
		opp.Source, opp.Type, opp.Title, nilIfEmpty(opp.Description), nilIfEmpty(opp.URL),
		opp.PotentialRevenue, opp.CompetitionLevel, opp.Keywords, string(metadataJSON),
		opp.Score, opp.Status,
	).Scan(&opp.ID)

	if errors.Is(err, pgx.ErrNoRows) {
		// Lost the race to a concurrent writer; the row exists, nothing to do.
		return nil
	}
	return err
}

// ListParams filters and pages the dashboard read path.
type ListParams struct {
	Source      string
	Type        string
	Status      string
	Competition string
	MinScore    int
	Search      string
	Limit       int
	Offset      int
}

type ListResult struct {
	Opportunities []models.Opportunity `json:"opportunities"`
	Total         int                  `json:"total"`
	Limit         int                  `json:"limit"`
	Offset        int                  `json:"offset"`
}

// buildListWhere translates ListParams into a WHERE clause and args.
func buildListWhere(params ListParams) (string, []interface{}) {
	var clauses []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		clauses = append(clauses, fmt.Sprintf(clause, len(args)))
	}

	if params.Source != "" {
		add("source = $%d", params.Source)
	}
	if params.Type != "" {
		add("type = $%d", params.Type)
	}
	if params.Status != "" {
		add("status = $%d", params.Status)
	}
	if params.Competition != "" {
		add("competition_level = $%d", params.Competition)
	}
	if params.MinScore > 0 {
		add("score >= $%d", params.MinScore)
	}
	if params.Search != "" {
		args = append(args, "%"+params.Search+"%")
		clauses = append(clauses, fmt.Sprintf("(title ILIKE $%d OR description ILIKE $%d)", len(args), len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(clauses, " AND "), args
}

func (s *Store) ListOpportunities(ctx context.Context, params ListParams) (*ListResult, error) {
	if params.Limit <= 0 || params.Limit > 200 {
		params.Limit = 50
	}
	if params.Offset < 0 {
		params.Offset = 0
	}

	where, args := buildListWhere(params)

	var total int
	if err := s.pool.QueryRow(ctx, "SELECT COUNT(*) FROM opportunities "+where, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting opportunities: %w", err)
	}

	query := fmt.Sprintf(
		"SELECT %s FROM opportunities %s ORDER BY score DESC, created_at DESC LIMIT $%d OFFSET $%d",
		opportunityColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing opportunities: %w", err)
	}
	defer rows.Close()

	result := &ListResult{Limit: params.Limit, Offset: params.Offset, Total: total}
	for rows.Next() {
		o, err := scanOpportunity(rows.Scan)
		if err != nil {
			return nil, err
		}
		result.Opportunities = append(result.Opportunities, o)
	}
	return result, rows.Err()
}

func (s *Store) GetOpportunity(ctx context.Context, id string) (*models.Opportunity, error) {
	row := s.pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM opportunities WHERE id = $1", opportunityColumns), id)
	o, err := scanOpportunity(row.Scan)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// UpdateStatus is the only mutation the dashboard performs on a persisted
// opportunity. Score and scan fields stay frozen.
func (s *Store) UpdateStatus(ctx context.Context, id, status string) (bool, error) {
	if !models.ValidStatus(status) {
		return false, fmt.Errorf("invalid status %q", status)
	}
	tag, err := s.pool.Exec(ctx,
		"UPDATE opportunities SET status = $1, updated_at = NOW() WHERE id = $2", status, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() > 0, nil
}

func (s *Store) GetSources(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx,
		"SELECT DISTINCT source FROM opportunities ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sources []string
	for rows.Next() {
		var source string
		if err := rows.Scan(&source); err != nil {
			return nil, err
		}
		sources = append(sources, source)
	}
	return sources, rows.Err()
}

func (s *Store) GetStats(ctx context.Context) (map[string]interface{}, error) {
	stats := make(map[string]interface{})

	var total, newCount int
	var avgScore float64
	err := s.pool.QueryRow(ctx, `
		SELECT COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'new'),
		       COALESCE(AVG(score), 0)
		FROM opportunities
	`).Scan(&total, &newCount, &avgScore)
	if err != nil {
		return nil, err
	}
	stats["total"] = total
	stats["new"] = newCount
	stats["avg_score"] = avgScore

	rows, err := s.pool.Query(ctx,
		"SELECT source, COUNT(*), MAX(score) FROM opportunities GROUP BY source ORDER BY source")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bySource := make(map[string]interface{})
	for rows.Next() {
		var source string
		var count, maxScore int
		if err := rows.Scan(&source, &count, &maxScore); err != nil {
			return nil, err
		}
		bySource[source] = map[string]interface{}{"count": count, "max_score": maxScore}
	}
	stats["by_source"] = bySource
	return stats, rows.Err()
}

// nilIfEmpty returns nil for empty strings so NULL is stored in the DB.
func nilIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
