package models

import "time"

// CreateURLRequest represents the request body for creating a short link
type CreateURLRequest struct {
	URL         string     `json:"url" binding:"required,url"` // Gin validation: required and must be valid URL
	CustomAlias *string    `json:"custom_alias,omitempty"`     // Optional caller-supplied short code
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`       // Optional expiration date; defaults to 7 days
}
