package domain

import (
	"context"

	"github.com/google/uuid"

	"github.com/satishkumarchandala/clean-India/internal/priority"
)

// RescoreFunc recomputes an issue's priority from its current stored state.
type RescoreFunc func(Issue) priority.Result

// IssueRepository defines the interface for issue persistence
// This follows the Dependency Inversion Principle - domain defines the interface
type IssueRepository interface {
	// CreateIssue persists a new, already scored issue
	CreateIssue(ctx context.Context, issue Issue) error

	// GetIssue returns ErrNotFound for unknown IDs
	GetIssue(ctx context.Context, id uuid.UUID) (Issue, error)

	// ListIssues returns matching issues, newest first
	ListIssues(ctx context.Context, filter IssueFilter) ([]Issue, error)

	// Upvote records a distinct upvote by userID and stores rescore's result in
	// the same write. Returns ErrAlreadyUpvoted on a repeat.
	Upvote(ctx context.Context, issueID, userID uuid.UUID, rescore RescoreFunc) (Issue, error)

	// SavePriority locks the issue, applies rescore to its current state and
	// stores the result in the same write
	SavePriority(ctx context.Context, id uuid.UUID, rescore RescoreFunc) (Issue, error)

	// UpdateStatus changes an issue's status
	UpdateStatus(ctx context.Context, id uuid.UUID, status Status) (Issue, error)

	// AssignIssue sets or, with uuid.Nil, clears the staff member handling an issue
	AssignIssue(ctx context.Context, id, assignee uuid.UUID) (Issue, error)

	// DeleteIssue removes an issue together with its upvotes and comments
	DeleteIssue(ctx context.Context, id uuid.UUID) error

	// AddComment persists a comment on an existing issue
	AddComment(ctx context.Context, comment Comment) error

	// ListComments returns an issue's comments, newest first
	ListComments(ctx context.Context, issueID uuid.UUID) ([]Comment, error)

	// Stats aggregates counts over issues matching filter
	Stats(ctx context.Context, filter IssueFilter) (IssueStats, error)

	// Health checks database connectivity
	Health(ctx context.Context) error
}
