package api

import (
	domain "github.com/example/tidytasks/domain/tasklist"
)

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest accepts either an OAuth2-style form or a JSON body.
type LoginRequest struct {
	Username string `json:"username" form:"username"`
	Password string `json:"password" form:"password"`
}

// TokenResponse represents an authentication token response.
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MessageResponse is a plain acknowledgement.
type MessageResponse struct {
	Msg string `json:"msg"`
}

// ListRequest is the body of list create and update.
type ListRequest struct {
	Name     string           `json:"name"`
	ColorTag *domain.ColorTag `json:"color_tag"`
	Category *string          `json:"category"`
}

// CreateTaskRequest is the body of task creation.
type CreateTaskRequest struct {
	Title       string           `json:"title"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	AssignedTo  *uint            `json:"assigned_to"`
}

// UpdateTaskRequest is a partial task update; absent fields are unchanged.
type UpdateTaskRequest struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Priority    *domain.Priority `json:"priority"`
	AssignedTo  *uint            `json:"assigned_to"`
	IsDone      *bool            `json:"is_done"`
}

// TaskStatusRequest is the body of the status patch.
type TaskStatusRequest struct {
	IsDone *bool `json:"is_done"`
}

// HealthResponse aggregates module health.
type HealthResponse struct {
	Status  string                  `json:"status"`
	Modules map[string]ModuleHealth `json:"modules"`
}

// ModuleHealth is one module's health entry.
type ModuleHealth struct {
	Healthy bool   `json:"healthy"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string            `json:"error"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}
