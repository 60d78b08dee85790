package domain

import "time"

// Built-in application roles. RoleAdministrator doubles as the bootstrap
// fallback claim when the role table is still empty.
const (
	RoleAdministrator = "Administrator"
	RoleModerator     = "Moderator"
	RoleStandardUser  = "StandardUser"
)

type Role struct {
	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time
}
