package postgres

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/priority"
)

//go:embed schema.sql
var schema string

const pgForeignKeyViolation = "23503"

const issueColumns = `
	id, title, description, category, status, latitude, longitude, address, image,
	reported_by, assigned_to, upvotes, priority_level, priority_score, priority_breakdown,
	created_at, updated_at`

// PostgresRepository implements domain.IssueRepository
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Migrate creates the tables and indexes if they do not exist
func (r *PostgresRepository) Migrate(ctx context.Context) error {
	if _, err := r.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("postgres: failed to apply schema: %w", err)
	}
	return nil
}

// CreateIssue persists a new issue
func (r *PostgresRepository) CreateIssue(ctx context.Context, issue domain.Issue) error {
	query := `INSERT INTO issues (` + issueColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)`

	_, err := r.pool.Exec(ctx, query,
		issue.ID, issue.Title, issue.Description, issue.Category, issue.Status,
		issue.Latitude, issue.Longitude, issue.Address, issue.Image,
		issue.ReportedBy, issue.AssignedTo, issue.Upvotes, issue.PriorityLevel, issue.PriorityScore, issue.PriorityBreakdown,
		issue.CreatedAt, issue.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: failed to insert issue: %w", err)
	}
	return nil
}

// GetIssue loads one issue by ID
func (r *PostgresRepository) GetIssue(ctx context.Context, id uuid.UUID) (domain.Issue, error) {
	row := r.pool.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1`, id)
	issue, err := scanIssue(row)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to get issue %s: %w", id, err)
	}
	return issue, nil
}

// ListIssues returns issues matching filter, newest first
func (r *PostgresRepository) ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	where, args := whereClause(filter)
	query := `SELECT ` + issueColumns + ` FROM issues` + where + ` ORDER BY created_at DESC, id`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query issues: %w", err)
	}
	defer rows.Close()

	var results []domain.Issue
	for rows.Next() {
		issue, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("postgres: failed to scan issue row: %w", err)
		}
		results = append(results, issue)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate issues: %w", err)
	}

	return results, nil
}

// Upvote records the upvote and the re-scored priority in one transaction
func (r *PostgresRepository) Upvote(ctx context.Context, issueID, userID uuid.UUID, rescore domain.RescoreFunc) (domain.Issue, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to begin upvote: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	issue, err := scanIssue(tx.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1 FOR UPDATE`, issueID))
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to lock issue %s: %w", issueID, err)
	}

	tag, err := tx.Exec(ctx,
		`INSERT INTO issue_upvotes (issue_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		issueID, userID,
	)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to record upvote: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.Issue{}, domain.ErrAlreadyUpvoted
	}

	if err := tx.QueryRow(ctx, `SELECT count(*) FROM issue_upvotes WHERE issue_id = $1`, issueID).Scan(&issue.Upvotes); err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to count upvotes: %w", err)
	}
	issue.ApplyPriority(rescore(issue))

	err = tx.QueryRow(ctx, `
		UPDATE issues
		SET upvotes = $2, priority_level = $3, priority_score = $4, priority_breakdown = $5, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		issueID, issue.Upvotes, issue.PriorityLevel, issue.PriorityScore, issue.PriorityBreakdown,
	).Scan(&issue.UpdatedAt)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to update upvoted issue: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to commit upvote: %w", err)
	}
	return issue, nil
}

// SavePriority locks the issue row, re-scores its current state and stores the
// result before the lock is released
func (r *PostgresRepository) SavePriority(ctx context.Context, id uuid.UUID, rescore domain.RescoreFunc) (domain.Issue, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to begin rescore: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	issue, err := scanIssue(tx.QueryRow(ctx, `SELECT `+issueColumns+` FROM issues WHERE id = $1 FOR UPDATE`, id))
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to save priority for %s: %w", id, err)
	}
	issue.ApplyPriority(rescore(issue))

	err = tx.QueryRow(ctx, `
		UPDATE issues
		SET priority_level = $2, priority_score = $3, priority_breakdown = $4, updated_at = now()
		WHERE id = $1
		RETURNING updated_at`,
		id, issue.PriorityLevel, issue.PriorityScore, issue.PriorityBreakdown,
	).Scan(&issue.UpdatedAt)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to save priority for %s: %w", id, err)
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to commit priority for %s: %w", id, err)
	}
	return issue, nil
}

// UpdateStatus changes an issue's status
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Issue, error) {
	row := r.pool.QueryRow(ctx,
		`UPDATE issues SET status = $2, updated_at = now() WHERE id = $1 RETURNING `+issueColumns,
		id, status,
	)
	issue, err := scanIssue(row)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to update status of %s: %w", id, err)
	}
	return issue, nil
}

// AssignIssue sets the assignee; uuid.Nil clears it
func (r *PostgresRepository) AssignIssue(ctx context.Context, id, assignee uuid.UUID) (domain.Issue, error) {
	var assignedTo *uuid.UUID
	if assignee != uuid.Nil {
		assignedTo = &assignee
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE issues SET assigned_to = $2, updated_at = now() WHERE id = $1 RETURNING `+issueColumns,
		id, assignedTo,
	)
	issue, err := scanIssue(row)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("postgres: failed to assign %s: %w", id, err)
	}
	return issue, nil
}

// DeleteIssue removes an issue; upvotes and comments cascade
func (r *PostgresRepository) DeleteIssue(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("postgres: failed to delete issue %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("postgres: failed to delete issue %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// AddComment persists a comment; unknown issues yield ErrNotFound
func (r *PostgresRepository) AddComment(ctx context.Context, c domain.Comment) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO issue_comments (id, issue_id, user_id, body, is_official, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		c.ID, c.IssueID, c.UserID, c.Body, c.IsOfficial, c.CreatedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation {
		return fmt.Errorf("postgres: failed to add comment to %s: %w", c.IssueID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("postgres: failed to add comment: %w", err)
	}
	return nil
}

// ListComments returns an issue's comments, newest first
func (r *PostgresRepository) ListComments(ctx context.Context, issueID uuid.UUID) ([]domain.Comment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, issue_id, user_id, body, is_official, created_at
		FROM issue_comments
		WHERE issue_id = $1
		ORDER BY created_at DESC`, issueID)
	if err != nil {
		return nil, fmt.Errorf("postgres: failed to query comments: %w", err)
	}
	defer rows.Close()

	results := []domain.Comment{}
	for rows.Next() {
		var c domain.Comment
		if err := rows.Scan(&c.ID, &c.IssueID, &c.UserID, &c.Body, &c.IsOfficial, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("postgres: failed to scan comment row: %w", err)
		}
		results = append(results, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("postgres: failed to iterate comments: %w", err)
	}
	return results, nil
}

// Stats aggregates issue counts by status, category and priority level
func (r *PostgresRepository) Stats(ctx context.Context, filter domain.IssueFilter) (domain.IssueStats, error) {
	where, args := whereClause(filter)
	stats := domain.NewIssueStats()

	if err := r.pool.QueryRow(ctx, `SELECT count(*) FROM issues`+where, args...).Scan(&stats.TotalIssues); err != nil {
		return stats, fmt.Errorf("postgres: failed to count issues: %w", err)
	}

	groups := []struct {
		column string
		add    func(key string, n int)
	}{
		{"status", func(k string, n int) { stats.StatusCounts[domain.Status(k)] = n }},
		{"category", func(k string, n int) { stats.CategoryCounts[domain.Category(k)] = n }},
		{"priority_level", func(k string, n int) { stats.PriorityCounts[priority.Level(k)] = n }},
	}
	for _, g := range groups {
		rows, err := r.pool.Query(ctx, `SELECT `+g.column+`, count(*) FROM issues`+where+` GROUP BY `+g.column, args...)
		if err != nil {
			return stats, fmt.Errorf("postgres: failed to group issues by %s: %w", g.column, err)
		}
		for rows.Next() {
			var key string
			var n int
			if err := rows.Scan(&key, &n); err != nil {
				rows.Close()
				return stats, fmt.Errorf("postgres: failed to scan %s group: %w", g.column, err)
			}
			g.add(key, n)
		}
		rows.Close()
		if err := rows.Err(); err != nil {
			return stats, fmt.Errorf("postgres: failed to iterate %s groups: %w", g.column, err)
		}
	}

	return stats, nil
}

// Health checks database connectivity
func (r *PostgresRepository) Health(ctx context.Context) error {
	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("postgres: health check failed: %w", err)
	}
	return nil
}

func scanIssue(row pgx.Row) (domain.Issue, error) {
	var i domain.Issue
	err := row.Scan(
		&i.ID, &i.Title, &i.Description, &i.Category, &i.Status, &i.Latitude, &i.Longitude, &i.Address, &i.Image,
		&i.ReportedBy, &i.AssignedTo, &i.Upvotes, &i.PriorityLevel, &i.PriorityScore, &i.PriorityBreakdown,
		&i.CreatedAt, &i.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Issue{}, domain.ErrNotFound
	}
	return i, err
}

func whereClause(f domain.IssueFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if f.Category != "" {
		add("category = $%d", f.Category)
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.ReportedBy != uuid.Nil {
		add("reported_by = $%d", f.ReportedBy)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		add("(title ILIKE $%[1]d OR description ILIKE $%[1]d)", "%"+escapeLike(s)+"%")
	}

	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
