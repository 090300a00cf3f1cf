package task

import (
	"math"

	"github.com/magnetbrain/backend/domain"
	"github.com/magnetbrain/backend/repository"
)

const (
	defaultPageSize = 10
	maxPageSize     = 100
)

// ListQuery carries the caller-supplied collection parameters. Every
// list call is a pure function of (principal, query); no filter state is
// kept between requests.
type ListQuery struct {
	Page       int
	Limit      int
	Status     string
	Priority   string
	AssignedTo string
}

// Pagination mirrors the metadata block returned alongside every page.
type Pagination struct {
	Current      int `json:"current"`
	Total        int `json:"total"`
	Count        int `json:"count"`
	TotalRecords int `json:"total_records"`
}

func (q ListQuery) validate() error {
	if q.Status != "" && !domain.ValidStatus(q.Status) {
		return domain.NewError(domain.ErrCodeInvalid, "status must be pending, in-progress, or completed")
	}
	if q.Priority != "" && !domain.ValidPriority(q.Priority) {
		return domain.NewError(domain.ErrCodeInvalid, "priority must be low, medium, or high")
	}
	return nil
}

func (q ListQuery) page() int {
	if q.Page < 1 {
		return 1
	}
	return q.Page
}

func (q ListQuery) limit() int {
	if q.Limit <= 0 {
		return defaultPageSize
	}
	if q.Limit > maxPageSize {
		return maxPageSize
	}
	return q.Limit
}

// buildFilter produces the store predicate for the general listing.
// Admins see everything and may narrow by assignee; everyone else is
// scoped to tasks they created or are assigned to (OR, matching the
// single-read rule).
func buildFilter(p domain.Principal, q ListQuery) repository.TaskFilter {
	filter := repository.TaskFilter{
		Status:   q.Status,
		Priority: q.Priority,
		Sort:     repository.SortCreatedDesc,
		Limit:    q.limit(),
		Offset:   (q.page() - 1) * q.limit(),
	}
	if p.IsAdmin() {
		filter.AssignedTo = q.AssignedTo
	} else {
		filter.MemberID = p.ID
	}
	return filter
}

// buildMineFilter scopes to assignment only (created-but-unassigned
// tasks are excluded) and orders by due date, soonest first.
func buildMineFilter(p domain.Principal, q ListQuery) repository.TaskFilter {
	return repository.TaskFilter{
		AssignedTo: p.ID,
		Status:     q.Status,
		Priority:   q.Priority,
		Sort:       repository.SortDueDateAsc,
		Limit:      q.limit(),
		Offset:     (q.page() - 1) * q.limit(),
	}
}

func paginate(q ListQuery, count, total int) Pagination {
	totalPages := 0
	if total > 0 {
		totalPages = int(math.Ceil(float64(total) / float64(q.limit())))
	}
	return Pagination{
		Current:      q.page(),
		Total:        totalPages,
		Count:        count,
		TotalRecords: total,
	}
}
