package domain

import (
	"time"

	"github.com/google/uuid"

	"github.com/satishkumarchandala/clean-India/internal/priority"
	"github.com/satishkumarchandala/clean-India/pkg/utils"
)

// Category classifies the civic department an issue belongs to.
type Category string

const (
	CategoryRoad           Category = "road"
	CategoryElectricity    Category = "electricity"
	CategoryWater          Category = "water"
	CategorySanitation     Category = "sanitation"
	CategoryTransport      Category = "transport"
	CategoryInfrastructure Category = "infrastructure"
	CategoryEnvironment    Category = "environment"
	CategoryOthers         Category = "others"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryRoad, CategoryElectricity, CategoryWater, CategorySanitation,
		CategoryTransport, CategoryInfrastructure, CategoryEnvironment, CategoryOthers:
		return true
	}
	return false
}

// Status tracks an issue through resolution.
type Status string

const (
	StatusPending    Status = "pending"
	StatusInProgress Status = "in-progress"
	StatusResolved   Status = "resolved"
	StatusRejected   Status = "rejected"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusResolved, StatusRejected:
		return true
	}
	return false
}

// Role is the caller's role as asserted by the upstream auth layer.
type Role string

const (
	RoleUser       Role = "user"
	RoleOrgStaff   Role = "org_staff"
	RoleOrgAdmin   Role = "org_admin"
	RoleSuperAdmin Role = "super_admin"
)

// IsStaff reports whether the role may manage issues and post official comments.
func (r Role) IsStaff() bool {
	switch r {
	case RoleOrgStaff, RoleOrgAdmin, RoleSuperAdmin:
		return true
	}
	return false
}

// Issue represents a reported civic problem
type Issue struct {
	ID                uuid.UUID          `json:"id"`
	Title             string             `json:"title"`
	Description       string             `json:"description"`
	Category          Category           `json:"category"`
	Status            Status             `json:"status"`
	Latitude          float64            `json:"lat"`
	Longitude         float64            `json:"lon"`
	Address           string             `json:"address"`
	Image             string             `json:"image,omitempty"`
	ReportedBy        uuid.UUID          `json:"reported_by"`
	AssignedTo        *uuid.UUID         `json:"assigned_to"`
	Upvotes           int                `json:"upvotes"`
	PriorityLevel     priority.Level     `json:"priority_level"`
	PriorityScore     int                `json:"priority_score"`
	PriorityBreakdown priority.Breakdown `json:"priority_breakdown"`
	CreatedAt         time.Time          `json:"created_at"`
	UpdatedAt         time.Time          `json:"updated_at"`
}

// Snapshot builds the scoring input from the issue's current state.
func (i Issue) Snapshot() priority.Snapshot {
	return priority.Snapshot{
		Category:    string(i.Category),
		Title:       i.Title,
		Description: i.Description,
		Address:     i.Address,
		Upvotes:     i.Upvotes,
		CreatedAt:   i.CreatedAt,
	}
}

// ApplyPriority overwrites the stored priority fields with r.
func (i *Issue) ApplyPriority(r priority.Result) {
	i.PriorityLevel = r.Level
	i.PriorityScore = r.Score
	i.PriorityBreakdown = r.Breakdown
}

// PriorityResult returns the stored priority fields as an engine result.
func (i Issue) PriorityResult() priority.Result {
	return priority.Result{
		Level:     i.PriorityLevel,
		Score:     i.PriorityScore,
		Breakdown: i.PriorityBreakdown,
	}
}

// NewIssue is the reporter-supplied part of an issue
type NewIssue struct {
	Title       string   `json:"title"`
	Description string   `json:"description"`
	Category    Category `json:"category"`
	Latitude    float64  `json:"lat"`
	Longitude   float64  `json:"lon"`
	Address     string   `json:"address"`
	Image       string   `json:"image,omitempty"`
}

// Validate applies the same limits the reporting form enforces.
func (n NewIssue) Validate() error {
	v := &ValidationError{}
	if l := utils.RuneLen(n.Title); l < 5 || l > 200 {
		v.Add("title", "must be 5-200 characters")
	}
	if l := utils.RuneLen(n.Description); l < 10 || l > 5000 {
		v.Add("description", "must be 10-5000 characters")
	}
	if !n.Category.Valid() {
		v.Add("category", "invalid category")
	}
	if !utils.ValidCoordinates(n.Latitude, n.Longitude) {
		v.Add("location", "please provide valid location coordinates")
	}
	switch l := utils.RuneLen(n.Address); {
	case l == 0:
		v.Add("address", "address is required")
	case l > 500:
		v.Add("address", "cannot exceed 500 characters")
	}
	return v.OrNil()
}

// Comment is a note on an issue; staff comments are flagged official.
type Comment struct {
	ID         uuid.UUID `json:"id"`
	IssueID    uuid.UUID `json:"issue_id"`
	UserID     uuid.UUID `json:"user_id"`
	Body       string    `json:"comment"`
	IsOfficial bool      `json:"is_official"`
	CreatedAt  time.Time `json:"created_at"`
}

// IssueDetail is an issue together with its comments, newest first
type IssueDetail struct {
	Issue
	Comments []Comment `json:"comments"`
}

// IssueFilter narrows issue listings. Zero values match everything.
type IssueFilter struct {
	Category   Category
	Status     Status
	Search     string
	ReportedBy uuid.UUID
}

// IssueStats aggregates issue counts
type IssueStats struct {
	TotalIssues    int                    `json:"total_issues"`
	StatusCounts   map[Status]int         `json:"status_counts"`
	CategoryCounts map[Category]int       `json:"category_counts"`
	PriorityCounts map[priority.Level]int `json:"priority_counts"`
}

// NewIssueStats returns stats with initialized maps
func NewIssueStats() IssueStats {
	return IssueStats{
		StatusCounts:   make(map[Status]int),
		CategoryCounts: make(map[Category]int),
		PriorityCounts: make(map[priority.Level]int),
	}
}
