package model

import "time"

// Roles stored in users.role.  Only ADMIN may use the admin surface.
const (
    RoleAdmin = "ADMIN"
    RoleStaff = "STAFF"
)

// User is an admin or staff account.  Guests booking a visit have no
// account.
type User struct {
    ID           uint64    // users.id
    Email        string    // users.email
    PasswordHash string    // users.password_hash
    Role         string    // users.role
    IsActive     bool      // users.is_active
    CreatedAt    time.Time // users.created_at
    UpdatedAt    time.Time // users.updated_at
}

// IsAdmin reports whether the stored role grants admin access.
func (u User) IsAdmin() bool { return u.IsActive && u.Role == RoleAdmin }
