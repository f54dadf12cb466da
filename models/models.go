package models

// User is the durable identity record. ID, TelegramID, AnonymousID and
// CreatedAt are immutable after creation.
type User struct {
	ID                   string  `json:"id"`
	TelegramID           string  `json:"telegram_id"`
	AnonymousID          string  `json:"anonymous_id"`
	Name                 *string `json:"name"`
	Status               *string `json:"status"`
	Gender               *string `json:"gender"`
	AvatarURL            *string `json:"avatar_url"`
	NotificationsEnabled bool    `json:"notifications_enabled"`
	CreatedAt            string  `json:"created_at"`
}

// UserUpdate carries a partial profile update: nil fields stay untouched.
type UserUpdate struct {
	Name                 *string `json:"name"`
	Status               *string `json:"status"`
	Gender               *string `json:"gender"`
	AvatarURL            *string `json:"avatar_url"`
	NotificationsEnabled *bool   `json:"notifications_enabled"`
}

// Contact is a contact-list entry enriched with the target's public profile.
// IsOnline is filled from the presence registry, not from the store.
type Contact struct {
	AnonymousID string  `json:"anonymous_id"`
	Name        *string `json:"name"`
	Status      *string `json:"status"`
	Gender      *string `json:"gender"`
	AvatarURL   *string `json:"avatar_url"`
	AddedAt     string  `json:"added_at"`
	IsOnline    bool    `json:"is_online"`
}

// PublicProfile is what a search by anonymous id exposes.
type PublicProfile struct {
	AnonymousID string  `json:"anonymous_id"`
	Name        *string `json:"name"`
	Status      *string `json:"status"`
	Gender      *string `json:"gender"`
	AvatarURL   *string `json:"avatar_url"`
	IsOnline    bool    `json:"is_online"`
}
