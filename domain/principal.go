package domain

// Principal is the verified identity attached to a request by the
// authentication middleware. Task operations never see raw credentials,
// only this pair.
type Principal struct {
	ID   string
	Role string
}

func (p Principal) IsAdmin() bool {
	return p.Role == RoleAdmin
}
