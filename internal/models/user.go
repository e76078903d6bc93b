package models

import "time"

type User struct {
	ID        int64     `json:"id" yaml:"id"`
	Username  string    `json:"username" yaml:"username"`
	Email     string    `json:"email" yaml:"email"`
	IsAdmin   bool      `json:"is_admin" yaml:"is_admin"`
	CreatedAt time.Time `json:"created_at" yaml:"-"`
}

// Principal is the authenticated caller of a service operation.
type Principal struct {
	UserID   int64
	Username string
	IsAdmin  bool
}

// Owns reports whether the principal is the owner of a resource or an admin.
func (p Principal) Owns(userID int64) bool {
	return p.IsAdmin || p.UserID == userID
}
