package preferences

import domain "github.com/example/task-tracker/domain/preferences"

// GetPreferencesRequest identifies a user.
type GetPreferencesRequest struct {
	UserID string `json:"user_id"`
}

// UpdatePreferencesRequest is a partial update. Omitted fields are unchanged.
type UpdatePreferencesRequest struct {
	UserID         string  `json:"user_id"`
	Theme          *string `json:"theme,omitempty"`
	DisplayName    *string `json:"display_name,omitempty"`
	ProfilePicture *string `json:"profile_picture,omitempty"`
}

// PreferencesResponse carries a user's preferences.
type PreferencesResponse struct {
	Preferences domain.Preferences `json:"preferences"`
}
