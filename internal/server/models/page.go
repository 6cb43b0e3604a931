package models

import (
	"fmt"
	"math"

	"github.com/dmitrijs2005/portfolio/internal/common"
)

// Page is a 1-indexed pagination window.
type Page struct {
	Page  int
	Limit int
}

// MaxPage keeps Offset within int for every allowed limit.
const MaxPage = math.MaxInt / common.MaxPageLimit

// NewPage validates page and limit. Values below 1 or pages past MaxPage are
// rejected; limit is clamped to common.MaxPageLimit.
func NewPage(page, limit int) (Page, error) {
	var errs []string
	switch {
	case page < 1:
		errs = append(errs, "page must be a positive integer")
	case page > MaxPage:
		errs = append(errs, fmt.Sprintf("page must be at most %d", MaxPage))
	}
	if limit < 1 {
		errs = append(errs, "limit must be a positive integer")
	}
	if len(errs) > 0 {
		return Page{}, common.NewValidationError(errs...)
	}
	if limit > common.MaxPageLimit {
		limit = common.MaxPageLimit
	}
	return Page{Page: page, Limit: limit}, nil
}

// DefaultPage is the first page with the default limit.
func DefaultPage() Page {
	return Page{Page: 1, Limit: common.DefaultPageLimit}
}

func (p Page) Offset() int {
	return (p.Page - 1) * p.Limit
}

// TotalPages is ceil(total/limit).
func (p Page) TotalPages(total int64) int64 {
	if p.Limit <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	return (total + limit - 1) / limit
}

func (p Page) String() string {
	return fmt.Sprintf("page=%d limit=%d", p.Page, p.Limit)
}
