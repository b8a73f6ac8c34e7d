package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	domain "github.com/example/task-tracker/domain/preferences"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

// PreferencesBucket is the KV bucket holding one JSON document per user.
const PreferencesBucket = "preferences"

// MaxDisplayNameLength bounds the display name in bytes.
const MaxDisplayNameLength = 100

var (
	// ErrInvalidTheme is returned for a theme other than light or dark.
	ErrInvalidTheme = errors.New("theme must be light or dark")
	// ErrInvalidPictureURL is returned when the profile picture is not an http(s) URL.
	ErrInvalidPictureURL = errors.New("profile picture must be an http or https URL")
	// ErrDisplayNameTooLong is returned when the display name exceeds MaxDisplayNameLength.
	ErrDisplayNameTooLong = errors.New("display name is too long")
)

type prefsBucket interface {
	Get(key string) ([]byte, error)
	Set(key string, value []byte, ttl time.Duration) error
}

// Update is a partial change. Nil fields are left as they are.
type Update struct {
	Theme          *string
	DisplayName    *string
	ProfilePicture *string
}

// Store reads and writes preferences in a KV bucket.
type Store struct {
	bucket prefsBucket
	now    func() time.Time
}

// NewStore creates a Store over bucket.
func NewStore(bucket prefsBucket) *Store {
	return &Store{bucket: bucket, now: time.Now}
}

// Get returns the user's preferences, or the defaults when none are stored.
func (s *Store) Get(_ context.Context, userID string) (domain.Preferences, error) {
	if userID == "" {
		return domain.Preferences{}, fmt.Errorf("user id is required")
	}

	data, err := s.bucket.Get(userID)
	if err != nil {
		if errors.Is(err, kvjetstream.ErrKeyNotFound) {
			return domain.Default(userID), nil
		}
		return domain.Preferences{}, fmt.Errorf("failed to load preferences: %w", err)
	}
	if data == nil {
		return domain.Default(userID), nil
	}

	var prefs domain.Preferences
	if err := json.Unmarshal(data, &prefs); err != nil {
		return domain.Preferences{}, fmt.Errorf("failed to decode preferences: %w", err)
	}
	if !prefs.Theme.Valid() {
		prefs.Theme = domain.ThemeLight
	}
	prefs.UserID = userID
	return prefs, nil
}

// Update validates u, applies it and saves the result. Nothing is written
// when validation fails.
func (s *Store) Update(ctx context.Context, userID string, u Update) (domain.Preferences, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}

	if u.Theme != nil {
		theme := domain.Theme(strings.ToLower(strings.TrimSpace(*u.Theme)))
		if !theme.Valid() {
			return domain.Preferences{}, ErrInvalidTheme
		}
		prefs.Theme = theme
	}
	if u.DisplayName != nil {
		name := strings.TrimSpace(*u.DisplayName)
		if len(name) > MaxDisplayNameLength {
			return domain.Preferences{}, ErrDisplayNameTooLong
		}
		prefs.DisplayName = name
	}
	if u.ProfilePicture != nil {
		picture := strings.TrimSpace(*u.ProfilePicture)
		if err := validatePictureURL(picture); err != nil {
			return domain.Preferences{}, err
		}
		prefs.ProfilePicture = picture
	}

	return s.save(prefs)
}

// ToggleTheme switches between light and dark.
func (s *Store) ToggleTheme(ctx context.Context, userID string) (domain.Preferences, error) {
	prefs, err := s.Get(ctx, userID)
	if err != nil {
		return domain.Preferences{}, err
	}
	prefs.Theme = prefs.Theme.Toggled()
	return s.save(prefs)
}

func (s *Store) save(prefs domain.Preferences) (domain.Preferences, error) {
	prefs.UpdatedAt = s.now().UTC()
	data, err := json.Marshal(prefs)
	if err != nil {
		return domain.Preferences{}, fmt.Errorf("failed to encode preferences: %w", err)
	}
	if err := s.bucket.Set(prefs.UserID, data, 0); err != nil {
		return domain.Preferences{}, fmt.Errorf("failed to save preferences: %w", err)
	}
	return prefs, nil
}

func validatePictureURL(raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" || (u.Scheme != "http" && u.Scheme != "https") {
		return ErrInvalidPictureURL
	}
	return nil
}
