package domain

import (
	"time"

	"github.com/google/uuid"
)

// User is the signed-in account as seen by the storefront.
type User struct {
	ID          uuid.UUID `json:"id"`
	ProviderID  string    `json:"provider_id"`
	DisplayName string    `json:"display_name"`
	Email       string    `json:"email,omitempty"`
}

// Profile is the row kept in the profiles table.
type Profile struct {
	ID              uuid.UUID
	DiscordID       string
	DiscordUsername string
	UpdatedAt       time.Time
}

func (u User) Profile(now time.Time) Profile {
	return Profile{
		ID:              u.ID,
		DiscordID:       u.ProviderID,
		DiscordUsername: u.DisplayName,
		UpdatedAt:       now.UTC(),
	}
}
