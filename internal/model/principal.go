package model

import "github.com/google/uuid"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleStaff  Role = "staff"
	RoleViewer Role = "viewer"
)

// Principal is the authenticated caller extracted from the access token.
type Principal struct {
	UserID uuid.UUID
	Name   string
	Email  string
	Role   Role
}

func (p Principal) IsViewer() bool {
	return p.Role == RoleViewer
}

// CanEdit reports whether the principal may write offers. Tokens without a
// role are issued to shop staff.
func (p Principal) CanEdit() bool {
	return !p.IsViewer()
}

func (p Principal) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.Email
}
