package dto

import (
	"time"

	"github.com/google/uuid"
)

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RegisterStudentInput struct {
	Username            string  `json:"username" binding:"required,min=3,max=50"`
	Email               string  `json:"email" binding:"required,email"`
	Password            string  `json:"password" binding:"required,min=8"`
	FullName            string  `json:"full_name" binding:"required"`
	Phone               *string `json:"phone,omitempty"`
	Institution         string  `json:"institution" binding:"required"`
	Course              string  `json:"course" binding:"required"`
	YearOfStudy         int     `json:"year_of_study" binding:"required,min=1,max=6"`
	SideHustle          *string `json:"side_hustle,omitempty"`
	PreferredDepartment string  `json:"preferred_department" binding:"required,oneof=hr ict registry"`
	AttachmentStart     *string `json:"attachment_start,omitempty"` // YYYY-MM-DD
}

type CreateStaffUserInput struct {
	Username string  `json:"username" binding:"required,min=3,max=50"`
	Email    string  `json:"email" binding:"required,email"`
	Password string  `json:"password" binding:"required,min=8"`
	FullName string  `json:"full_name" binding:"required"`
	Phone    *string `json:"phone,omitempty"`
	Role     string  `json:"role" binding:"required,oneof=hr ict registry admin"`
}

type UserResponse struct {
	ID       uuid.UUID `json:"id"`
	Username string    `json:"username"`
	Email    string    `json:"email"`
	FullName string    `json:"full_name"`
	Role     string    `json:"role"`
}

type AuthResponse struct {
	Token     string       `json:"token"`
	ExpiresAt time.Time    `json:"expires_at"`
	User      UserResponse `json:"user"`
}
