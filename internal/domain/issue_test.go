package domain

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishkumarchandala/clean-India/internal/priority"
)

func validNewIssue() NewIssue {
	return NewIssue{
		Title:       "Broken streetlight",
		Description: "The streetlight outside house 12 has been off for a week.",
		Category:    CategoryElectricity,
		Latitude:    28.6139,
		Longitude:   77.2090,
		Address:     "12 Park Lane",
	}
}

func TestNewIssueValidate(t *testing.T) {
	require.NoError(t, validNewIssue().Validate())

	n := validNewIssue()
	n.Title = "abc"
	n.Description = strings.Repeat("x", 5001)
	n.Category = "noise"
	n.Latitude, n.Longitude = 0, 0
	n.Address = strings.Repeat("a", 501)

	err := n.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))

	fields := make([]string, 0, len(verr.Fields))
	for _, f := range verr.Fields {
		fields = append(fields, f.Field)
	}
	assert.Equal(t, []string{"title", "description", "category", "location", "address"}, fields)
	assert.Contains(t, err.Error(), "title: must be 5-200 characters")
}

func TestNewIssueRequiresAddressAndBothAxes(t *testing.T) {
	n := validNewIssue()
	n.Address = "   "
	n.Longitude = 0

	err := n.Validate()
	var verr *ValidationError
	require.True(t, errors.As(err, &verr))
	require.Len(t, verr.Fields, 2)
	assert.Equal(t, FieldError{Field: "location", Message: "please provide valid location coordinates"}, verr.Fields[0])
	assert.Equal(t, FieldError{Field: "address", Message: "address is required"}, verr.Fields[1])
}

func TestEnums(t *testing.T) {
	assert.True(t, CategoryInfrastructure.Valid())
	assert.False(t, Category("Road").Valid())
	assert.True(t, StatusInProgress.Valid())
	assert.False(t, Status("closed").Valid())

	assert.True(t, RoleOrgStaff.IsStaff())
	assert.True(t, RoleSuperAdmin.IsStaff())
	assert.False(t, RoleUser.IsStaff())
	assert.False(t, Role("").IsStaff())
}

func TestIssueSnapshotAndApply(t *testing.T) {
	created := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)
	issue := Issue{
		Title:       "Leak",
		Description: "water leak near the market",
		Category:    CategoryWater,
		Address:     "Sector 9",
		Upvotes:     7,
		CreatedAt:   created,
	}

	s := issue.Snapshot()
	assert.Equal(t, priority.Snapshot{
		Category:    "water",
		Title:       "Leak",
		Description: "water leak near the market",
		Address:     "Sector 9",
		Upvotes:     7,
		CreatedAt:   created,
	}, s)

	r := priority.ComputePriority(s, created)
	issue.ApplyPriority(r)
	assert.Equal(t, r, issue.PriorityResult())
}
