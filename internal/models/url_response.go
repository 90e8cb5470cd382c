package models

import "time"

// CreateURLResponse represents the response after creating a short link
type CreateURLResponse struct {
	ShortCode     string     `json:"short_code"`
	OriginalURL   string     `json:"original_url"`
	ShortURL      string     `json:"short_url"` // Full short URL (base URL + short code)
	IsCustomAlias bool       `json:"is_custom_alias"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"`
}

// URLSummary represents a single link in an owner's listing
type URLSummary struct {
	ShortCode   string     `json:"short_code"`
	OriginalURL string     `json:"original_url"`
	ClickCount  int        `json:"click_count"`
	CreatedAt   time.Time  `json:"created_at"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// QRCodeResponse carries a cached or freshly generated QR code image
type QRCodeResponse struct {
	ShortCode string `json:"short_code"`
	Base64PNG string `json:"base64_png"`
}
