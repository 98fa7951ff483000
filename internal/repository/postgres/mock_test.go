package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/priority"
)

func seedIssue(t *testing.T, repo *MockRepository, mutate func(*domain.Issue)) domain.Issue {
	t.Helper()
	now := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	issue := domain.Issue{
		ID:          uuid.New(),
		Title:       "Overflowing garbage bin",
		Description: "Bin has not been emptied for days",
		Category:    domain.CategorySanitation,
		Status:      domain.StatusPending,
		Latitude:    19.07,
		Longitude:   72.87,
		ReportedBy:  uuid.New(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if mutate != nil {
		mutate(&issue)
	}
	issue.ApplyPriority(priority.ComputePriority(issue.Snapshot(), now))
	require.NoError(t, repo.CreateIssue(context.Background(), issue))
	return issue
}

func rescoreAt(now time.Time) domain.RescoreFunc {
	return func(i domain.Issue) priority.Result {
		return priority.ComputePriority(i.Snapshot(), now)
	}
}

func TestMockUpvoteDistinctUsers(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)
	now := issue.CreatedAt

	var last domain.Issue
	for i := 0; i < 5; i++ {
		var err error
		last, err = repo.Upvote(ctx, issue.ID, uuid.New(), rescoreAt(now))
		require.NoError(t, err)
	}
	assert.Equal(t, 5, last.Upvotes)
	assert.Equal(t, 8.0, last.PriorityBreakdown.Community)

	stored, err := repo.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, last.Upvotes, stored.Upvotes)
	assert.Equal(t, last.PriorityResult(), stored.PriorityResult())
}

func TestMockUpvoteRepeatRejected(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)
	user := uuid.New()

	_, err := repo.Upvote(ctx, issue.ID, user, rescoreAt(issue.CreatedAt))
	require.NoError(t, err)
	_, err = repo.Upvote(ctx, issue.ID, user, rescoreAt(issue.CreatedAt))
	assert.ErrorIs(t, err, domain.ErrAlreadyUpvoted)

	stored, err := repo.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.Upvotes)
}

func TestMockUpvoteUnknownIssue(t *testing.T) {
	_, err := NewMockRepository().Upvote(context.Background(), uuid.New(), uuid.New(), rescoreAt(time.Now()))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMockConcurrentUpvotes(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)

	var wg sync.WaitGroup
	for i := 0; i < 60; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := repo.Upvote(ctx, issue.ID, uuid.New(), rescoreAt(issue.CreatedAt))
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := repo.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, 60, stored.Upvotes)
	assert.Equal(t, 20.0, stored.PriorityBreakdown.Community)
}

func TestMockListAndStats(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	reporter := uuid.New()

	older := seedIssue(t, repo, func(i *domain.Issue) {
		i.Category = domain.CategoryWater
		i.Title = "Pipe burst on 5th street"
		i.CreatedAt = i.CreatedAt.Add(-48 * time.Hour)
		i.ReportedBy = reporter
	})
	newer := seedIssue(t, repo, func(i *domain.Issue) {
		i.Category = domain.CategoryWater
		i.Status = domain.StatusResolved
	})
	seedIssue(t, repo, nil)

	all, err := repo.ListIssues(ctx, domain.IssueFilter{})
	require.NoError(t, err)
	require.Len(t, all, 3)

	water, err := repo.ListIssues(ctx, domain.IssueFilter{Category: domain.CategoryWater})
	require.NoError(t, err)
	require.Len(t, water, 2)
	assert.Equal(t, newer.ID, water[0].ID)
	assert.Equal(t, older.ID, water[1].ID)

	found, err := repo.ListIssues(ctx, domain.IssueFilter{Search: "PIPE BURST"})
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, older.ID, found[0].ID)

	mine, err := repo.ListIssues(ctx, domain.IssueFilter{ReportedBy: reporter})
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	stats, err := repo.Stats(ctx, domain.IssueFilter{})
	require.NoError(t, err)
	assert.Equal(t, 3, stats.TotalIssues)
	assert.Equal(t, 2, stats.CategoryCounts[domain.CategoryWater])
	assert.Equal(t, 1, stats.StatusCounts[domain.StatusResolved])
	assert.Equal(t, 2, stats.StatusCounts[domain.StatusPending])
}

func TestMockComments(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)

	first := domain.Comment{ID: uuid.New(), IssueID: issue.ID, Body: "first", CreatedAt: issue.CreatedAt}
	second := domain.Comment{ID: uuid.New(), IssueID: issue.ID, Body: "second", CreatedAt: issue.CreatedAt.Add(time.Hour)}
	require.NoError(t, repo.AddComment(ctx, first))
	require.NoError(t, repo.AddComment(ctx, second))

	comments, err := repo.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "second", comments[0].Body)

	err = repo.AddComment(ctx, domain.Comment{ID: uuid.New(), IssueID: uuid.New(), Body: "orphan"})
	assert.ErrorIs(t, err, domain.ErrNotFound)

	empty, err := repo.ListComments(ctx, uuid.New())
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)
}

func TestMockSavePriorityRescoresCurrentState(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)
	now := issue.CreatedAt

	for i := 0; i < 5; i++ {
		_, err := repo.Upvote(ctx, issue.ID, uuid.New(), rescoreAt(now))
		require.NoError(t, err)
	}

	var seen domain.Issue
	saved, err := repo.SavePriority(ctx, issue.ID, func(i domain.Issue) priority.Result {
		seen = i
		return priority.ComputePriority(i.Snapshot(), now.Add(15*24*time.Hour))
	})
	require.NoError(t, err)
	assert.Equal(t, 5, seen.Upvotes)
	assert.Equal(t, 8.0, saved.PriorityBreakdown.Community)
	assert.Equal(t, 15.0, saved.PriorityBreakdown.Age)

	stored, err := repo.GetIssue(ctx, issue.ID)
	require.NoError(t, err)
	assert.Equal(t, saved.PriorityResult(), stored.PriorityResult())

	_, err = repo.SavePriority(ctx, uuid.New(), rescoreAt(now))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMockUpdateStatus(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)

	updated, err := repo.UpdateStatus(ctx, issue.ID, domain.StatusInProgress)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusInProgress, updated.Status)
	assert.Equal(t, issue.PriorityResult(), updated.PriorityResult())

	_, err = repo.UpdateStatus(ctx, uuid.New(), domain.StatusResolved)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMockAssignIssue(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)
	staff := uuid.New()

	assigned, err := repo.AssignIssue(ctx, issue.ID, staff)
	require.NoError(t, err)
	require.NotNil(t, assigned.AssignedTo)
	assert.Equal(t, staff, *assigned.AssignedTo)

	cleared, err := repo.AssignIssue(ctx, issue.ID, uuid.Nil)
	require.NoError(t, err)
	assert.Nil(t, cleared.AssignedTo)

	_, err = repo.AssignIssue(ctx, uuid.New(), staff)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestMockDeleteIssue(t *testing.T) {
	ctx := context.Background()
	repo := NewMockRepository()
	issue := seedIssue(t, repo, nil)
	voter := uuid.New()

	_, err := repo.Upvote(ctx, issue.ID, voter, rescoreAt(issue.CreatedAt))
	require.NoError(t, err)
	require.NoError(t, repo.AddComment(ctx, domain.Comment{ID: uuid.New(), IssueID: issue.ID, Body: "gone soon"}))

	require.NoError(t, repo.DeleteIssue(ctx, issue.ID))
	_, err = repo.GetIssue(ctx, issue.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	comments, err := repo.ListComments(ctx, issue.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)

	assert.ErrorIs(t, repo.DeleteIssue(ctx, issue.ID), domain.ErrNotFound)
}
