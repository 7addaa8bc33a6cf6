package models

import "time"

type Role string

const (
	RoleUser   Role = "user"
	RoleVendor Role = "vendor"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleVendor || r == RoleAdmin
}

type User struct {
	ID           int       `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     Role   `json:"role"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type AuthResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type VendorRevenue struct {
	VendorID int     `json:"vendor_id"`
	Revenue  float64 `json:"revenue"`
}

type AdminStats struct {
	Users         []User          `json:"users"`
	Products      []Product       `json:"products"`
	Orders        []Order         `json:"orders"`
	TotalRevenue  float64         `json:"total_revenue"`
	VendorCount   int             `json:"vendor_count"`
	VendorRevenue []VendorRevenue `json:"vendor_revenue"`
}
