package postgres

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/priority"
)

// newTestRepository connects to TEST_DATABASE_URL or skips the test.
func newTestRepository(t *testing.T) *PostgresRepository {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set; skipping PostgreSQL integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	repo := NewPostgresRepository(pool)
	require.NoError(t, repo.Migrate(ctx))
	return repo
}

func TestPostgresIssueLifecycle(t *testing.T) {
	repo := newTestRepository(t)
	ctx := context.Background()

	now := time.Now().UTC().Truncate(time.Microsecond)
	issue := domain.Issue{
		ID:          uuid.New(),
		Title:       "Exposed wires at bus stop",
		Description: "Live cables hanging low, children pass daily",
		Category:    domain.CategoryElectricity,
		Status:      domain.StatusPending,
		Latitude:    12.97,
		Longitude:   77.59,
		Address:     "MG Road bus stop",
		ReportedBy:  uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	issue.ApplyPriority(priority.ComputePriority(issue.Snapshot(), now))
	require.NoError(t, repo.CreateIssue(ctx, issue))

	got, err := repo.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, issue.PriorityResult(), got.PriorityResult())
	assert.True(t, issue.CreatedAt.Equal(got.CreatedAt))

	user := uuid.New()
	rescore := func(i domain.Issue) priority.Result { return priority.ComputePriority(i.Snapshot(), now) }
	upvoted, err := repo.Upvote(ctx, issue.ID, user, rescore)
	require.NoError(t, err)
	assert.Equal(t, 1, upvoted.Upvotes)

	_, err = repo.Upvote(ctx, issue.ID, user, rescore)
	assert.ErrorIs(t, err, domain.ErrAlreadyUpvoted)

	_, err = repo.GetIssue(ctx, uuid.New())
	assert.ErrorIs(t, err, domain.ErrNotFound)

	err = repo.AddComment(ctx, domain.Comment{ID: uuid.New(), IssueID: uuid.New(), UserID: user, Body: "x", CreatedAt: now})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	list, err := repo.ListIssues(ctx, domain.IssueFilter{Search: "exposed wires", ReportedBy: issue.ReportedBy})
	require.NoError(t, err)
	require.Len(t, list, 1)

	stats, err := repo.Stats(ctx, domain.IssueFilter{ReportedBy: issue.ReportedBy})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.TotalIssues)
	assert.Equal(t, 1, stats.CategoryCounts[domain.CategoryElectricity])

	later := now.Add(20 * 24 * time.Hour)
	rescored, err := repo.SavePriority(ctx, issue.ID, func(i domain.Issue) priority.Result {
		return priority.ComputePriority(i.Snapshot(), later)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, rescored.Upvotes)
	assert.Equal(t, 15.0, rescored.PriorityBreakdown.Age)

	staff := uuid.New()
	assigned, err := repo.AssignIssue(ctx, issue.ID, staff)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, staff, *assigned.AssignedTo)
	cleared, err := repo.AssignIssue(ctx, issue.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTo)

	require.NoError(t, repo.AddComment(ctx, domain.Comment{ID: uuid.New(), IssueID: issue.ID, UserID: user, Body: "fixed?", CreatedAt: now}))
	require.NoError(t, repo.DeleteIssue(ctx, issue.ID))
	_, err = repo.GetIssue(ctx, issue.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, repo.DeleteIssue(ctx, issue.ID), domain.ErrNotFound)
	_, err = repo.SavePriority(ctx, issue.ID, rescore)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
