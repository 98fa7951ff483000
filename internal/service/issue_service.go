package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/metrics"
	"github.com/satishkumarchandala/clean-India/internal/priority"
)

// Caller is the authenticated principal behind a request
type Caller struct {
	UserID uuid.UUID
	Role   domain.Role
}

// IssueService runs the issue workflows and keeps stored priorities in step
// with upvotes and recalculation requests.
type IssueService struct {
	repo    IssueRepository
	engine  *priority.Engine
	metrics *metrics.Metrics
	log     logrus.FieldLogger
	now     func() time.Time
}

// Option customizes an IssueService
type Option func(*IssueService)

// WithClock replaces the wall clock used as the scoring instant
func WithClock(now func() time.Time) Option {
	return func(s *IssueService) { s.now = now }
}

// WithMetrics records scoring activity on m
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *IssueService) { s.metrics = m }
}

// NewIssueService creates a new issue service
func NewIssueService(repo IssueRepository, engine *priority.Engine, log logrus.FieldLogger, opts ...Option) *IssueService {
	s := &IssueService{
		repo:    repo,
		engine:  engine,
		metrics: metrics.New(),
		log:     log,
		now:     func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *IssueService) score(issue domain.Issue, now time.Time, trigger string) priority.Result {
	r := s.engine.Compute(issue.Snapshot(), now)
	s.metrics.ObserveScore(trigger, r.Level)
	return r
}

// Create validates and stores a new issue with its initial priority
func (s *IssueService) Create(ctx context.Context, in domain.NewIssue, reporter Caller) (domain.Issue, error) {
	if err := in.Validate(); err != nil {
		return domain.Issue{}, err
	}

	now := s.now()
	issue := domain.Issue{
		ID:          uuid.New(),
		Title:       strings.TrimSpace(in.Title),
		Description: strings.TrimSpace(in.Description),
		Category:    in.Category,
		Status:      domain.StatusPending,
		Latitude:    in.Latitude,
		Longitude:   in.Longitude,
		Address:     strings.TrimSpace(in.Address),
		Image:       in.Image,
		ReportedBy:  reporter.UserID,
		Upvotes:     0,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	issue.ApplyPriority(s.score(issue, now, metrics.TriggerCreate))

	if err := s.repo.CreateIssue(ctx, issue); err != nil {
		return domain.Issue{}, fmt.Errorf("issues: failed to create issue: %w", err)
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": issue.ID,
		"category": issue.Category,
		"priority": issue.PriorityLevel,
		"score":    issue.PriorityScore,
	}).Info("issue reported")
	return issue, nil
}

// Upvote records a distinct upvote and re-scores the issue in the same write
func (s *IssueService) Upvote(ctx context.Context, issueID uuid.UUID, voter Caller) (domain.Issue, error) {
	now := s.now()
	issue, err := s.repo.Upvote(ctx, issueID, voter.UserID, func(i domain.Issue) priority.Result {
		return s.score(i, now, metrics.TriggerUpvote)
	})
	if err != nil {
		return domain.Issue{}, fmt.Errorf("issues: failed to upvote %s: %w", issueID, err)
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": issue.ID,
		"upvotes":  issue.Upvotes,
		"priority": issue.PriorityLevel,
	}).Debug("issue upvoted")
	return issue, nil
}

// Recalculate re-scores every stored issue at a single instant. Each issue is
// re-read and re-scored inside its own write, so upvotes landing during the run
// are never overwritten with a stale priority. On failure the count of issues
// already updated is returned with the error, and the run can simply be repeated.
func (s *IssueService) Recalculate(ctx context.Context) (int, error) {
	issues, err := s.repo.ListIssues(ctx, domain.IssueFilter{})
	if err != nil {
		return 0, s.recalculationFailed(0, fmt.Errorf("issues: failed to load issues for recalculation: %w", err))
	}

	now := s.now()
	rescore := func(i domain.Issue) priority.Result {
		return s.score(i, now, metrics.TriggerRecalculate)
	}

	updated := 0
	for _, issue := range issues {
		if err := ctx.Err(); err != nil {
			return updated, s.recalculationFailed(updated, fmt.Errorf("issues: recalculation interrupted after %d issues: %w", updated, err))
		}
		if _, err := s.repo.SavePriority(ctx, issue.ID, rescore); err != nil {
			if errors.Is(err, domain.ErrNotFound) {
				// deleted since the listing
				continue
			}
			return updated, s.recalculationFailed(updated, fmt.Errorf("issues: recalculation stopped after %d issues: %w", updated, err))
		}
		updated++
	}

	s.metrics.ObserveRecalculation(updated, nil)
	s.log.WithField("count", updated).Info("priorities recalculated")
	return updated, nil
}

func (s *IssueService) recalculationFailed(updated int, err error) error {
	s.metrics.ObserveRecalculation(updated, err)
	s.log.WithError(err).WithField("count", updated).Error("priority recalculation failed")
	return err
}

// Get returns an issue with its comments
func (s *IssueService) Get(ctx context.Context, id uuid.UUID) (domain.IssueDetail, error) {
	issue, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		return domain.IssueDetail{}, fmt.Errorf("issues: failed to get %s: %w", id, err)
	}
	comments, err := s.repo.ListComments(ctx, id)
	if err != nil {
		return domain.IssueDetail{}, fmt.Errorf("issues: failed to get comments of %s: %w", id, err)
	}
	return domain.IssueDetail{Issue: issue, Comments: comments}, nil
}

// Explain returns the display breakdown of an issue's stored priority
func (s *IssueService) Explain(ctx context.Context, id uuid.UUID) (priority.Explanation, error) {
	issue, err := s.repo.GetIssue(ctx, id)
	if err != nil {
		return priority.Explanation{}, fmt.Errorf("issues: failed to get %s: %w", id, err)
	}
	return priority.Explain(issue.PriorityResult()), nil
}

// List returns issues matching filter, newest first
func (s *IssueService) List(ctx context.Context, filter domain.IssueFilter) ([]domain.Issue, error) {
	issues, err := s.repo.ListIssues(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("issues: failed to list: %w", err)
	}
	if issues == nil {
		issues = []domain.Issue{}
	}
	return issues, nil
}

// Stats aggregates counts over issues matching filter
func (s *IssueService) Stats(ctx context.Context, filter domain.IssueFilter) (domain.IssueStats, error) {
	stats, err := s.repo.Stats(ctx, filter)
	if err != nil {
		return domain.IssueStats{}, fmt.Errorf("issues: failed to compute stats: %w", err)
	}
	return stats, nil
}

// AddComment attaches a comment; staff comments are marked official
func (s *IssueService) AddComment(ctx context.Context, issueID uuid.UUID, author Caller, body string) (domain.Comment, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		v := &domain.ValidationError{}
		v.Add("comment", "comment cannot be empty")
		return domain.Comment{}, v
	}

	c := domain.Comment{
		ID:         uuid.New(),
		IssueID:    issueID,
		UserID:     author.UserID,
		Body:       body,
		IsOfficial: author.Role.IsStaff(),
		CreatedAt:  s.now(),
	}
	if err := s.repo.AddComment(ctx, c); err != nil {
		return domain.Comment{}, fmt.Errorf("issues: failed to comment on %s: %w", issueID, err)
	}
	return c, nil
}

// Comments returns an issue's comments, newest first
func (s *IssueService) Comments(ctx context.Context, issueID uuid.UUID) ([]domain.Comment, error) {
	comments, err := s.repo.ListComments(ctx, issueID)
	if err != nil {
		return nil, fmt.Errorf("issues: failed to list comments of %s: %w", issueID, err)
	}
	return comments, nil
}

// UpdateStatus moves an issue to status; staff only. A non-empty note is
// stored as an official comment.
func (s *IssueService) UpdateStatus(ctx context.Context, issueID uuid.UUID, staff Caller, status domain.Status, note string) (domain.Issue, error) {
	if !staff.Role.IsStaff() {
		return domain.Issue{}, domain.ErrForbidden
	}
	if !status.Valid() {
		v := &domain.ValidationError{}
		v.Add("status", "invalid status")
		return domain.Issue{}, v
	}

	issue, err := s.repo.UpdateStatus(ctx, issueID, status)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("issues: failed to update status of %s: %w", issueID, err)
	}

	if strings.TrimSpace(note) != "" {
		if _, err := s.AddComment(ctx, issueID, staff, note); err != nil {
			return issue, err
		}
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": issueID,
		"status":   status,
		"by":       staff.UserID,
	}).Info("issue status updated")
	return issue, nil
}

// Assign sets the staff member handling an issue; uuid.Nil unassigns. Staff only.
func (s *IssueService) Assign(ctx context.Context, issueID uuid.UUID, staff Caller, assignee uuid.UUID) (domain.Issue, error) {
	if !staff.Role.IsStaff() {
		return domain.Issue{}, domain.ErrForbidden
	}

	issue, err := s.repo.AssignIssue(ctx, issueID, assignee)
	if err != nil {
		return domain.Issue{}, fmt.Errorf("issues: failed to assign %s: %w", issueID, err)
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": issueID,
		"assignee": assignee,
		"by":       staff.UserID,
	}).Info("issue assigned")
	return issue, nil
}

// Delete removes an issue with its upvotes and comments. Super admins only.
func (s *IssueService) Delete(ctx context.Context, issueID uuid.UUID, admin Caller) error {
	if admin.Role != domain.RoleSuperAdmin {
		return domain.ErrForbidden
	}

	if err := s.repo.DeleteIssue(ctx, issueID); err != nil {
		return fmt.Errorf("issues: failed to delete %s: %w", issueID, err)
	}

	s.log.WithFields(logrus.Fields{
		"issue_id": issueID,
		"by":       admin.UserID,
	}).Warn("issue deleted")
	return nil
}

// Health checks the backing store
func (s *IssueService) Health(ctx context.Context) error {
	return s.repo.Health(ctx)
}
