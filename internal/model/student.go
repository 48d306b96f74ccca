package model

import "time"

// Student is a planner account.
type Student struct {
	ID            int       `json:"id"`
	StudentNumber string    `json:"student_number"`
	Name          string    `json:"name"`
	PasswordHash  string    `json:"-"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// StudentRegisterRequest is the payload for self-registration.
type StudentRegisterRequest struct {
	StudentNumber string `json:"student_number" binding:"required,min=4,max=20"`
	Name          string `json:"name" binding:"required,min=2,max=100"`
	Password      string `json:"password" binding:"required,min=6,max=128"`
}

// StudentLoginRequest is the payload for student authentication.
type StudentLoginRequest struct {
	StudentNumber string `json:"student_number" binding:"required,min=4,max=20"`
	Password      string `json:"password" binding:"required,min=4,max=128"`
}

// StudentLoginResponse is returned after successful login or registration.
type StudentLoginResponse struct {
	Token   string  `json:"token"`
	Student Student `json:"student"`
}
