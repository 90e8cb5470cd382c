package entities

import "time"

// ShortLink represents a shortened URL record in the database
type ShortLink struct {
	ID            string     `json:"id"` // UUID, assigned by the database
	ShortCode     string     `json:"short_code"`
	OriginalURL   string     `json:"original_url"`
	UserID        string     `json:"user_id"`
	UserEmail     string     `json:"user_email"`
	IsCustomAlias bool       `json:"is_custom_alias"`
	ClickCount    int        `json:"click_count"`
	CreatedAt     time.Time  `json:"created_at"`
	ExpiresAt     *time.Time `json:"expires_at,omitempty"` // Pointer allows nil at scan time; defaulted on insert
	IsActive      bool       `json:"is_active"`
}

// Expired reports whether the link's expiry time has passed.
func (l *ShortLink) Expired(now time.Time) bool {
	return l.ExpiresAt != nil && l.ExpiresAt.Before(now)
}

// ClickEvent is the message carried through the click queue for every
// successful redirect. It has no identity of its own; delivery is
// at-least-once and increments commute, so duplicates only inflate the
// total count by the number of redeliveries.
type ClickEvent struct {
	ShortCode  string    `json:"short_code"`
	OccurredAt time.Time `json:"occurred_at"`
	UserAgent  string    `json:"user_agent"`
	IPAddress  string    `json:"ip_address"`
	Referrer   string    `json:"referrer"`
}
