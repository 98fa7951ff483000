package service

import (
	"github.com/satishkumarchandala/clean-India/internal/domain"
)

// IssueRepository is re-exported from domain for convenience
type IssueRepository = domain.IssueRepository
