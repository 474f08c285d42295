package models

import (
	"time"
)

type UserRole string

const (
	RoleAdmin        UserRole = "admin"
	RoleManager      UserRole = "manager"
	RoleDataCapturer UserRole = "data_capturer"
)

// User is an employee record as exposed by the directory (Casdoor). The
// assessment service never writes users; they are read-only collaborator data.
type User struct {
	ID             string   `json:"id" gorm:"primaryKey;size:255"`
	FullName       string   `json:"full_name" gorm:"not null;size:100"`
	Email          string   `json:"email" gorm:"uniqueIndex;not null;size:255"`
	EmployeeNumber string   `json:"employee_number" gorm:"size:50"`
	Role           UserRole `json:"role" gorm:"-"`

	IsActive bool `json:"is_active" gorm:"default:true"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
