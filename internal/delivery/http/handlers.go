package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/satishkumarchandala/clean-India/internal/domain"
	"github.com/satishkumarchandala/clean-India/internal/service"
)

// Handler contains all HTTP handlers
type Handler struct {
	issues *service.IssueService
}

// NewHandler creates a new handler
func NewHandler(issues *service.IssueService) *Handler {
	return &Handler{issues: issues}
}

// HealthCheck returns service health status
func (h *Handler) HealthCheck(c *fiber.Ctx) error {
	status := "ok"
	if err := h.issues.Health(c.UserContext()); err != nil {
		status = "degraded"
	}
	return c.JSON(fiber.Map{
		"status":  status,
		"service": "civic-issues-backend",
		"version": "1.0.0",
	})
}

// ListIssues returns issues filtered by category, status, search and reporter
func (h *Handler) ListIssues(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	issues, err := h.issues.List(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(issues),
		"data":    issues,
	})
}

// GetStats returns issue counts by status, category and priority
func (h *Handler) GetStats(c *fiber.Ctx) error {
	filter, err := parseFilter(c)
	if err != nil {
		return err
	}

	stats, err := h.issues.Stats(c.UserContext(), filter)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    stats,
	})
}

// GetIssue returns a single issue with its comments
func (h *Handler) GetIssue(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	detail, err := h.issues.Get(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    detail,
	})
}

// GetPriority returns the display breakdown of an issue's priority score
func (h *Handler) GetPriority(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	explanation, err := h.issues.Explain(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"data":    explanation,
	})
}

// CreateIssue reports a new issue
func (h *Handler) CreateIssue(c *fiber.Ctx) error {
	var req domain.NewIssue
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	issue, err := h.issues.Create(c.UserContext(), req, callerFrom(c))
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Issue reported successfully",
		"data":    issue,
	})
}

// Upvote adds the caller's upvote and returns the refreshed priority
func (h *Handler) Upvote(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	issue, err := h.issues.Upvote(c.UserContext(), id, callerFrom(c))
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success":        true,
		"message":        "Issue upvoted successfully",
		"upvotes":        issue.Upvotes,
		"priority_level": issue.PriorityLevel,
		"priority_score": issue.PriorityScore,
	})
}

// RecalculatePriorities re-scores every stored issue (staff only)
func (h *Handler) RecalculatePriorities(c *fiber.Ctx) error {
	if !callerFrom(c).Role.IsStaff() {
		return domain.ErrForbidden
	}

	count, err := h.issues.Recalculate(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error":   true,
			"message": fmt.Sprintf("Recalculation stopped after %d issues", count),
			"count":   count,
		})
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": fmt.Sprintf("Successfully recalculated priorities for %d issues", count),
		"count":   count,
	})
}

// ListComments returns the comments of an issue
func (h *Handler) ListComments(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	comments, err := h.issues.Comments(c.UserContext(), id)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"count":   len(comments),
		"data":    comments,
	})
}

type commentRequest struct {
	Comment string `json:"comment"`
}

// AddComment posts a comment on an issue
func (h *Handler) AddComment(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	var req commentRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	comment, err := h.issues.AddComment(c.UserContext(), id, callerFrom(c), req.Comment)
	if err != nil {
		return err
	}

	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"success": true,
		"message": "Comment added successfully",
		"data":    comment,
	})
}

type statusRequest struct {
	Status  domain.Status `json:"status"`
	Comment string        `json:"comment"`
}

// UpdateStatus changes an issue's status (staff only)
func (h *Handler) UpdateStatus(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	var req statusRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}

	issue, err := h.issues.UpdateStatus(c.UserContext(), id, callerFrom(c), req.Status, req.Comment)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Status updated successfully",
		"data":    issue,
	})
}

type assignRequest struct {
	AssignedTo string `json:"assigned_to"`
}

// AssignIssue sets or clears the staff member handling an issue (staff only)
func (h *Handler) AssignIssue(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	var req assignRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
	}
	assignee := uuid.Nil
	if req.AssignedTo != "" {
		if assignee, err = uuid.Parse(req.AssignedTo); err != nil {
			v := &domain.ValidationError{}
			v.Add("assigned_to", "invalid user id")
			return v
		}
	}

	issue, err := h.issues.Assign(c.UserContext(), id, callerFrom(c), assignee)
	if err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Issue assigned successfully",
		"data":    issue,
	})
}

// DeleteIssue removes an issue with its comments (super admin only)
func (h *Handler) DeleteIssue(c *fiber.Ctx) error {
	id, err := issueID(c)
	if err != nil {
		return err
	}

	if err := h.issues.Delete(c.UserContext(), id, callerFrom(c)); err != nil {
		return err
	}

	return c.JSON(fiber.Map{
		"success": true,
		"message": "Issue deleted successfully",
	})
}

func issueID(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.Parse(c.Params("id"))
	if err != nil {
		return uuid.Nil, fiber.NewError(fiber.StatusBadRequest, "Invalid issue id")
	}
	return id, nil
}

func parseFilter(c *fiber.Ctx) (domain.IssueFilter, error) {
	var f domain.IssueFilter

	if v := c.Query("category"); v != "" && v != "all" {
		f.Category = domain.Category(v)
		if !f.Category.Valid() {
			return f, fiber.NewError(fiber.StatusBadRequest, "Invalid category")
		}
	}
	if v := c.Query("status"); v != "" && v != "all" {
		f.Status = domain.Status(v)
		if !f.Status.Valid() {
			return f, fiber.NewError(fiber.StatusBadRequest, "Invalid status")
		}
	}
	if v := c.Query("reportedBy"); v != "" {
		id, err := uuid.Parse(v)
		if err != nil {
			return f, fiber.NewError(fiber.StatusBadRequest, "Invalid reportedBy")
		}
		f.ReportedBy = id
	}
	f.Search = c.Query("search")

	return f, nil
}

// ErrorHandler renders every handler error as {"error": true, "message": ...}
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	message := "Internal Server Error"

	var fe *fiber.Error
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &fe):
		code = fe.Code
		message = fe.Message
	case errors.As(err, &ve):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   true,
			"message": "Validation failed",
			"errors":  ve.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		code = fiber.StatusNotFound
		message = "Issue not found"
	case errors.Is(err, domain.ErrAlreadyUpvoted):
		code = fiber.StatusBadRequest
		message = "You have already upvoted this issue"
	case errors.Is(err, domain.ErrForbidden):
		code = fiber.StatusForbidden
		message = "Access denied"
	}

	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": message,
	})
}
