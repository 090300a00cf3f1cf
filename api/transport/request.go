package transport

type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// TaskCreateRequest carries the full create payload. The creator is
// never part of it.
type TaskCreateRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"due_date"`
	Priority    string `json:"priority"`
	AssignedTo  string `json:"assigned_to"`
}

// TaskUpdateRequest uses pointers throughout so an omitted field and an
// explicitly empty one stay distinguishable after decoding.
type TaskUpdateRequest struct {
	Title       *string `json:"title"`
	Description *string `json:"description"`
	DueDate     *string `json:"due_date"`
	Priority    *string `json:"priority"`
	Status      *string `json:"status"`
	AssignedTo  *string `json:"assigned_to"`
}

type StatusUpdateRequest struct {
	Status string `json:"status"`
}

type PriorityUpdateRequest struct {
	Priority string `json:"priority"`
}
