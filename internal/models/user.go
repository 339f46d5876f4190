package models

import "time"

type UserRole string

const (
	UserRoleUser  UserRole = "user"
	UserRoleAdmin UserRole = "admin"
)

func (r UserRole) Valid() bool {
	return r == UserRoleUser || r == UserRoleAdmin
}

type User struct {
	ID           int64
	Name         string
	Email        string
	PasswordHash string
	Gender       string
	Role         UserRole
	CreatedAt    time.Time
}
