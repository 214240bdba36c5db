package models

import "time"

// LoginRequest represents credentials provided by the client.
type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// UserDTO is a minimal user representation for responses.
type UserDTO struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
	Email    string `json:"email,omitempty"`
}

// LoginResponse is returned upon successful authentication.
type LoginResponse struct {
	Token     string    `json:"token"`
	User      UserDTO   `json:"user"`
	ExpiresAt time.Time `json:"expires_at"`
}

// ErrorResponse is the error shape of every API failure.
type ErrorResponse struct {
	Error   string `json:"error"`
	Title   string `json:"title,omitempty"`
	Message string `json:"message,omitempty"`
}
