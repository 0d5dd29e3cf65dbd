package model

import "time"

// HRRole is the access level of an HR dashboard user.
type HRRole string

const (
	HRRoleAdmin    HRRole = "hr_admin"
	HRRoleReviewer HRRole = "reviewer"
)

// HRUser is a recruiter or reviewer with access to the results dashboard.
type HRUser struct {
	ID           int       `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	Role         HRRole    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// HRLoginRequest is the payload for HR authentication.
type HRLoginRequest struct {
	Email    string `json:"email" binding:"required,email,max=255"`
	Password string `json:"password" binding:"required,min=6,max=128"`
}

// HRLoginResponse is returned after a successful HR login.
type HRLoginResponse struct {
	Token       string   `json:"token"`
	User        HRUser   `json:"user"`
	Permissions []string `json:"permissions"`
}
