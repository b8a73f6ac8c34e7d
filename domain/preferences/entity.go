package preferences

import "time"

// Theme is the colour scheme chosen by a user.
type Theme string

const (
	ThemeLight Theme = "light"
	ThemeDark  Theme = "dark"
)

// Valid reports whether t is a known theme.
func (t Theme) Valid() bool {
	return t == ThemeLight || t == ThemeDark
}

// Toggled returns the opposite theme.
func (t Theme) Toggled() Theme {
	if t == ThemeDark {
		return ThemeLight
	}
	return ThemeDark
}

// Preferences holds per-user display settings.
type Preferences struct {
	UserID         string    `json:"user_id"`
	Theme          Theme     `json:"theme"`
	DisplayName    string    `json:"display_name,omitempty"`
	ProfilePicture string    `json:"profile_picture,omitempty"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// Default returns the preferences of a user who never changed anything.
func Default(userID string) Preferences {
	return Preferences{UserID: userID, Theme: ThemeLight}
}
