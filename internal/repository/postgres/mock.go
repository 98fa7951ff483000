package postgres

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/satishkumarchandala/clean-India/internal/domain"
)

// MockRepository implements domain.IssueRepository in memory for testing/demo mode
type MockRepository struct {
	mu       sync.RWMutex
	issues   map[uuid.UUID]domain.Issue
	upvoters map[uuid.UUID]map[uuid.UUID]struct{}
	comments map[uuid.UUID][]domain.Comment
}

// NewMockRepository creates a new mock repository
func NewMockRepository() *MockRepository {
	return &MockRepository{
		issues:   make(map[uuid.UUID]domain.Issue),
		upvoters: make(map[uuid.UUID]map[uuid.UUID]struct{}),
		comments: make(map[uuid.UUID][]domain.Comment),
	}
}

// CreateIssue stores a copy of issue
func (r *MockRepository) CreateIssue(ctx context.Context, issue domain.Issue) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.issues[issue.ID]; exists {
		return fmt.Errorf("mock: issue %s already exists", issue.ID)
	}
	r.issues[issue.ID] = issue
	return nil
}

// GetIssue returns domain.ErrNotFound for unknown IDs
func (r *MockRepository) GetIssue(ctx context.Context, id uuid.UUID) (domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	issue, ok := r.issues[id]
	if !ok {
		return domain.Issue{}, domain.ErrNotFound
	}
	return issue, nil
}

// ListIssues returns matching issues, newest first
func (r *MockRepository) ListIssues(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var results []domain.Issue
	for _, issue := range r.issues {
		if matches(issue, filter) {
			results = append(results, issue)
		}
	}
	sort.Slice(results, func(i, j int) bool {
		if !results[i].CreatedAt.Equal(results[j].CreatedAt) {
			return results[i].CreatedAt.After(results[j].CreatedAt)
		}
		return results[i].ID.String() < results[j].ID.String()
	})
	return results, nil
}

// Upvote records the upvote and the re-scored priority under one lock
func (r *MockRepository) Upvote(ctx context.Context, issueID, userID uuid.UUID, rescore domain.RescoreFunc) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[issueID]
	if !ok {
		return domain.Issue{}, domain.ErrNotFound
	}

	voters := r.upvoters[issueID]
	if voters == nil {
		voters = make(map[uuid.UUID]struct{})
		r.upvoters[issueID] = voters
	}
	if _, voted := voters[userID]; voted {
		return domain.Issue{}, domain.ErrAlreadyUpvoted
	}
	voters[userID] = struct{}{}

	issue.Upvotes = len(voters)
	issue.ApplyPriority(rescore(issue))
	issue.UpdatedAt = time.Now().UTC()
	r.issues[issueID] = issue

	return issue, nil
}

// SavePriority re-scores the stored issue under the write lock
func (r *MockRepository) SavePriority(ctx context.Context, id uuid.UUID, rescore domain.RescoreFunc) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return domain.Issue{}, fmt.Errorf("mock: failed to save priority for %s: %w", id, domain.ErrNotFound)
	}
	issue.ApplyPriority(rescore(issue))
	issue.UpdatedAt = time.Now().UTC()
	r.issues[id] = issue
	return issue, nil
}

// UpdateStatus changes an issue's status
func (r *MockRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status domain.Status) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return domain.Issue{}, domain.ErrNotFound
	}
	issue.Status = status
	issue.UpdatedAt = time.Now().UTC()
	r.issues[id] = issue
	return issue, nil
}

// AssignIssue sets the assignee; uuid.Nil clears it
func (r *MockRepository) AssignIssue(ctx context.Context, id, assignee uuid.UUID) (domain.Issue, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	issue, ok := r.issues[id]
	if !ok {
		return domain.Issue{}, domain.ErrNotFound
	}
	issue.AssignedTo = nil
	if assignee != uuid.Nil {
		issue.AssignedTo = &assignee
	}
	issue.UpdatedAt = time.Now().UTC()
	r.issues[id] = issue
	return issue, nil
}

// DeleteIssue drops the issue with its upvotes and comments
func (r *MockRepository) DeleteIssue(ctx context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.issues[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.issues, id)
	delete(r.upvoters, id)
	delete(r.comments, id)
	return nil
}

// AddComment stores a comment on an existing issue
func (r *MockRepository) AddComment(ctx context.Context, c domain.Comment) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.issues[c.IssueID]; !ok {
		return domain.ErrNotFound
	}
	r.comments[c.IssueID] = append(r.comments[c.IssueID], c)
	return nil
}

// ListComments returns an issue's comments, newest first
func (r *MockRepository) ListComments(ctx context.Context, issueID uuid.UUID) ([]domain.Comment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	results := append([]domain.Comment{}, r.comments[issueID]...)
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	return results, nil
}

// Stats aggregates counts over matching issues
func (r *MockRepository) Stats(ctx context.Context, filter domain.IssueFilter) (domain.IssueStats, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stats := domain.NewIssueStats()
	for _, issue := range r.issues {
		if !matches(issue, filter) {
			continue
		}
		stats.TotalIssues++
		stats.StatusCounts[issue.Status]++
		stats.CategoryCounts[issue.Category]++
		stats.PriorityCounts[issue.PriorityLevel]++
	}
	return stats, nil
}

// Health always returns nil in mock mode
func (r *MockRepository) Health(ctx context.Context) error {
	return nil
}

func matches(issue domain.Issue, f domain.IssueFilter) bool {
	if f.Category != "" && issue.Category != f.Category {
		return false
	}
	if f.Status != "" && issue.Status != f.Status {
		return false
	}
	if f.ReportedBy != uuid.Nil && issue.ReportedBy != f.ReportedBy {
		return false
	}
	if s := strings.ToLower(strings.TrimSpace(f.Search)); s != "" {
		return strings.Contains(strings.ToLower(issue.Title), s) ||
			strings.Contains(strings.ToLower(issue.Description), s)
	}
	return true
}
