package identity

import "time"

const (
	RoleEmployee = "EMPLOYEE"
	RoleHR       = "HR"
)

type User struct {
	ID            string    `json:"id"`
	Email         string    `json:"email"`
	FullName      string    `json:"fullName"`
	PasswordHash  string    `json:"-"`
	Role          string    `json:"role"`
	IsActive      bool      `json:"isActive"`
	AnnualDays    float64   `json:"annualDays"`
	AvailableDays float64   `json:"availableDays"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

func (u User) IsHR() bool {
	return u.Role == RoleHR
}

// Principal is the authenticated caller as carried on the request context.
type Principal struct {
	UserID string
	Email  string
	Role   string
}

func (p Principal) IsHR() bool {
	return p.Role == RoleHR
}

type CreateUserInput struct {
	Email      string
	FullName   string
	Password   string
	Role       string
	IsActive   bool
	AnnualDays float64
}

// UpdateUserInput carries the HR-side partial update; nil means "leave as is".
type UpdateUserInput struct {
	Email         *string
	FullName      *string
	Password      *string
	Role          *string
	IsActive      *bool
	AnnualDays    *float64
	AvailableDays *float64
}

type ListUsersFilters struct {
	Role     string
	IsActive *bool
}

type UserListResult struct {
	Users []User
	Total int
}
