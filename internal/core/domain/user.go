package domain

import "time"

const (
	RoleAdmin       = "admin"
	RoleCoordinator = "coordinador"
	RoleAssistant   = "auxiliar"
)

// Roles lists every accepted role.
var Roles = []string{RoleAdmin, RoleCoordinator, RoleAssistant}

// User models an authenticated actor in the system.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	Active       bool      `json:"active"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
