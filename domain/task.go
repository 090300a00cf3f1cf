package domain

import (
	"time"
	"unicode/utf8"
)

// Task statuses.
const (
	StatusPending    = "pending"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
)

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 1000
)

// Task is the single domain entity: an item of work created by one
// principal and assigned to one principal.
type Task struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      string     `json:"status"`
	Priority    string     `json:"priority"`
	DueDate     time.Time  `json:"due_date"`
	CreatedBy   string     `json:"created_by"`
	AssignedTo  string     `json:"assigned_to"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`

	// Read-time joins, never persisted on the task row.
	Assignee *UserSummary `json:"assignee,omitempty"`
	Creator  *UserSummary `json:"creator,omitempty"`
}

func (t *Task) IsCompleted() bool {
	return t != nil && t.Status == StatusCompleted
}

// ValidStatus reports whether s is one of the persisted status values.
func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ValidPriority reports whether p is one of the persisted priority values.
func ValidPriority(p string) bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ValidateNew checks the invariants required at creation time.
func (t *Task) ValidateNew() error {
	if t == nil {
		return ErrInvalidPayload
	}
	if t.Title == "" {
		return NewError(ErrCodeInvalid, "title is required")
	}
	// Limits count characters, matching the column constraints.
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewError(ErrCodeInvalid, "title must be less than 100 characters")
	}
	if utf8.RuneCountInString(t.Description) > MaxDescriptionLength {
		return NewError(ErrCodeInvalid, "description must be less than 1000 characters")
	}
	if t.DueDate.IsZero() {
		return NewError(ErrCodeInvalid, "due date is required")
	}
	if !ValidPriority(t.Priority) {
		return NewError(ErrCodeInvalid, "priority must be low, medium, or high")
	}
	if t.Status != "" && !ValidStatus(t.Status) {
		return NewError(ErrCodeInvalid, "status must be pending, in-progress, or completed")
	}
	return nil
}

// TaskPatch carries a partial update. Nil fields keep their prior value;
// a pointer to an empty description explicitly clears it.
type TaskPatch struct {
	Title       *string
	Description *string
	DueDate     *time.Time
	Priority    *string
	Status      *string
	AssignedTo  *string
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Description == nil && p.DueDate == nil &&
		p.Priority == nil && p.Status == nil && p.AssignedTo == nil
}

// Validate checks every supplied field against the task invariants.
func (p TaskPatch) Validate() error {
	if p.Title != nil {
		if *p.Title == "" {
			return NewError(ErrCodeInvalid, "title is required")
		}
		if utf8.RuneCountInString(*p.Title) > MaxTitleLength {
			return NewError(ErrCodeInvalid, "title must be less than 100 characters")
		}
	}
	if p.Description != nil && utf8.RuneCountInString(*p.Description) > MaxDescriptionLength {
		return NewError(ErrCodeInvalid, "description must be less than 1000 characters")
	}
	if p.Priority != nil && !ValidPriority(*p.Priority) {
		return NewError(ErrCodeInvalid, "priority must be low, medium, or high")
	}
	if p.Status != nil && !ValidStatus(*p.Status) {
		return NewError(ErrCodeInvalid, "status must be pending, in-progress, or completed")
	}
	if p.AssignedTo != nil && *p.AssignedTo == "" {
		return NewError(ErrCodeInvalid, "assigned_to must reference a user")
	}
	return nil
}
