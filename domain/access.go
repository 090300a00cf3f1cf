package domain

// Access policy for task operations. One pure predicate per operation;
// the use case layer turns a false result into ErrAccessDenied after the
// existence check, so an unknown id is always reported as not found
// regardless of would-be permission.
//
// The rules are deliberately asymmetric: status reflects work progress
// and is the assignee's to report, while priority and structural edits
// belong to the creator (or an admin).

// CanViewTask reports whether p may read a single task: admins, the
// assignee, or the creator.
func CanViewTask(p Principal, t *Task) bool {
	if t == nil {
		return false
	}
	return p.IsAdmin() || p.ID == t.AssignedTo || p.ID == t.CreatedBy
}

// CanEditTask reports whether p may perform a full-field update or a
// delete. Being the assignee alone is not sufficient.
func CanEditTask(p Principal, t *Task) bool {
	if t == nil {
		return false
	}
	return p.IsAdmin() || p.ID == t.CreatedBy
}

// CanDeleteTask mirrors CanEditTask.
func CanDeleteTask(p Principal, t *Task) bool {
	return CanEditTask(p, t)
}

// CanChangeStatus reports whether p may move the task between statuses.
// Broader than CanEditTask: the assignee qualifies here.
func CanChangeStatus(p Principal, t *Task) bool {
	if t == nil {
		return false
	}
	return p.IsAdmin() || p.ID == t.AssignedTo || p.ID == t.CreatedBy
}

// CanChangePriority reports whether p may change the task priority.
// Same restrictive rule as full edits; the assignee alone does not
// qualify, unlike status changes.
func CanChangePriority(p Principal, t *Task) bool {
	return CanEditTask(p, t)
}
