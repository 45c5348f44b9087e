package model

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleMember Role = "member"
)

type Department string

const (
	DepartmentSales       Department = "Sales"
	DepartmentAdvertising Department = "Advertising"
	DepartmentMarketing   Department = "Marketing"
)

var Departments = []Department{DepartmentSales, DepartmentAdvertising, DepartmentMarketing}

// ParseDepartment matches a department name case-insensitively.
func ParseDepartment(s string) (Department, bool) {
	for _, d := range Departments {
		if strings.EqualFold(strings.TrimSpace(s), string(d)) {
			return d, true
		}
	}
	return "", false
}

type User struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	PasswordHash    string      `json:"-"`
	ProfileImageURL string      `json:"profileImageUrl"`
	Role            Role        `json:"role"`
	Department      *Department `json:"department"`
	CreatedAt       time.Time   `json:"createdAt"`
	UpdatedAt       time.Time   `json:"updatedAt"`
}

// InDepartment reports whether the user belongs to d. Users without a department belong to none.
func (u *User) InDepartment(d Department) bool {
	return u.Department != nil && *u.Department == d
}

// Actor builds the request identity for u.
func (u *User) Actor() Actor {
	a := Actor{ID: u.ID, Role: u.Role}
	if u.Department != nil {
		a.Department = *u.Department
	}
	return a
}

// UserSummary is the assignee projection embedded in task responses.
type UserSummary struct {
	ID              int         `json:"id"`
	Name            string      `json:"name"`
	Email           string      `json:"email"`
	ProfileImageURL string      `json:"profileImageUrl"`
	Department      *Department `json:"department,omitempty"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{
		ID:              u.ID,
		Name:            u.Name,
		Email:           u.Email,
		ProfileImageURL: u.ProfileImageURL,
	}
}
