package preferences

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	domain "github.com/example/task-tracker/domain/preferences"
	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
)

// PreferencesPort defines the preference operations available to other modules.
type PreferencesPort interface {
	Get(ctx context.Context, userID string) (*domain.Preferences, error)
	Update(ctx context.Context, req UpdatePreferencesRequest) (*domain.Preferences, error)
	ToggleTheme(ctx context.Context, userID string) (*domain.Preferences, error)
}

// PreferencesAdapter implements PreferencesPort using the service container.
type PreferencesAdapter struct {
	container mono.ServiceContainer
}

var _ PreferencesPort = (*PreferencesAdapter)(nil)

// NewPreferencesAdapter creates a new PreferencesAdapter.
func NewPreferencesAdapter(container mono.ServiceContainer) *PreferencesAdapter {
	return &PreferencesAdapter{container: container}
}

func (a *PreferencesAdapter) Get(ctx context.Context, userID string) (*domain.Preferences, error) {
	return a.call(ctx, "get-preferences", &GetPreferencesRequest{UserID: userID})
}

func (a *PreferencesAdapter) Update(ctx context.Context, req UpdatePreferencesRequest) (*domain.Preferences, error) {
	return a.call(ctx, "update-preferences", &req)
}

func (a *PreferencesAdapter) ToggleTheme(ctx context.Context, userID string) (*domain.Preferences, error) {
	return a.call(ctx, "toggle-theme", &GetPreferencesRequest{UserID: userID})
}

func (a *PreferencesAdapter) call(ctx context.Context, service string, req any) (*domain.Preferences, error) {
	var resp PreferencesResponse
	if err := helper.CallRequestReplyService(
		ctx,
		a.container,
		service,
		json.Marshal,
		json.Unmarshal,
		req,
		&resp,
	); err != nil {
		for _, known := range []error{ErrInvalidTheme, ErrInvalidPictureURL, ErrDisplayNameTooLong} {
			if strings.Contains(err.Error(), known.Error()) {
				return nil, known
			}
		}
		return nil, fmt.Errorf("%s request failed: %w", service, err)
	}
	return &resp.Preferences, nil
}

// IsValidation reports whether err is a rejected preference value.
func IsValidation(err error) bool {
	return errors.Is(err, ErrInvalidTheme) ||
		errors.Is(err, ErrInvalidPictureURL) ||
		errors.Is(err, ErrDisplayNameTooLong)
}
