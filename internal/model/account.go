package model

import (
	"time"
)

// Role selects which portal an account belongs to. Immutable after creation.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleDoctor Role = "doctor"
)

// ParseRole maps a wire value onto the known roles.
func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin:
		return RoleAdmin, true
	case RoleDoctor:
		return RoleDoctor, true
	}
	return "", false
}

// Other returns the opposite portal's role.
func (r Role) Other() Role {
	if r == RoleAdmin {
		return RoleDoctor
	}
	return RoleAdmin
}

type AccountStatus string

const (
	AccountStatusPending  AccountStatus = "pending"
	AccountStatusApproved AccountStatus = "approved"
	AccountStatusRejected AccountStatus = "rejected"
)

// Account is the projection of the remote account record. It is never
// stored locally beyond the scope of the request that fetched it.
type Account struct {
	ID              string        `json:"id"`
	Role            Role          `json:"role"`
	Email           string        `json:"email,omitempty"`
	ICPNumber       string        `json:"icp_number,omitempty"`
	CityID          *int64        `json:"city_id"`
	RequirePassword bool          `json:"require_password"`
	LinkToken       *string       `json:"link_token,omitempty"`
	Status          AccountStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

// Request types
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=8"`
}

type PreregisterRequest struct {
	ICPNumber       string  `json:"icp_number" binding:"required,icp"`
	CityID          *int64  `json:"city_id" binding:"required"`
	RequirePassword bool    `json:"require_password"`
	Email           *string `json:"email,omitempty" binding:"omitempty,email"`
	Password        *string `json:"password,omitempty" binding:"omitempty,min=8"`
}

type ValidateRequest struct {
	Status AccountStatus `json:"status" binding:"required,oneof=approved rejected"`
}

type UpdateProfileRequest struct {
	Email           *string `json:"email,omitempty" binding:"omitempty,email"`
	CityID          *int64  `json:"city_id,omitempty"`
	RequirePassword *bool   `json:"require_password,omitempty"`
	Password        *string `json:"password,omitempty" binding:"omitempty,min=8"`
}

// City is a geography lookup record served by the remote API.
type City struct {
	ID       int64  `json:"id"`
	Name     string `json:"name"`
	RegionID int64  `json:"region_id"`
}
