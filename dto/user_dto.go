package dto

import "time"

type CredentialsDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// ReplaceUserDTO is the full document accepted by PUT /users/:id. The
// password is only rehashed when present.
type ReplaceUserDTO struct {
	Email    string `json:"email" binding:"required,email"`
	Role     string `json:"role" binding:"required,oneof=student teacher sensor"`
	Password string `json:"password" binding:"omitempty,min=6,max=72"`
}

type UpdateRolesDTO struct {
	From time.Time `json:"from" binding:"required"`
	To   time.Time `json:"to" binding:"required,gtefield=From"`
	Role string    `json:"role" binding:"required,oneof=student teacher sensor"`
}
