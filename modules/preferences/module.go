// Package preferences stores per-user display settings.
package preferences

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"github.com/go-monolith/mono"
	"github.com/go-monolith/mono/pkg/helper"
	kvjetstream "github.com/go-monolith/mono/plugin/kv-jetstream"
)

// PreferencesModule serves theme and profile settings from a KV bucket.
type PreferencesModule struct {
	kv    *kvjetstream.PluginModule
	store *Store
}

// Compile-time interface checks.
var (
	_ mono.Module                = (*PreferencesModule)(nil)
	_ mono.ServiceProviderModule = (*PreferencesModule)(nil)
	_ mono.UsePluginModule       = (*PreferencesModule)(nil)
	_ mono.HealthCheckableModule = (*PreferencesModule)(nil)
)

// NewModule creates a new PreferencesModule.
func NewModule() *PreferencesModule {
	return &PreferencesModule{}
}

// Name returns the module name.
func (m *PreferencesModule) Name() string {
	return "preferences"
}

// SetPlugin receives the kv plugin.
func (m *PreferencesModule) SetPlugin(alias string, plugin mono.PluginModule) {
	if alias == "kv" {
		if kv, ok := plugin.(*kvjetstream.PluginModule); ok {
			m.kv = kv
		}
	}
}

// Start resolves the preferences bucket.
func (m *PreferencesModule) Start(_ context.Context) error {
	if m.kv == nil {
		return fmt.Errorf("required plugin 'kv' not registered")
	}
	bucket := m.kv.Bucket(PreferencesBucket)
	if bucket == nil {
		return fmt.Errorf("bucket '%s' not found in KV plugin", PreferencesBucket)
	}
	m.store = NewStore(bucket)
	log.Println("[preferences] Module started")
	return nil
}

// Stop stops the module.
func (m *PreferencesModule) Stop(_ context.Context) error {
	log.Println("[preferences] Module stopped")
	return nil
}

// Health returns the health status of the module.
func (m *PreferencesModule) Health(_ context.Context) mono.HealthStatus {
	if m.store == nil {
		return mono.HealthStatus{
			Healthy: false,
			Message: "store not initialized",
		}
	}
	return mono.HealthStatus{
		Healthy: true,
		Message: "operational",
		Details: map[string]any{
			"bucket": PreferencesBucket,
		},
	}
}

// RegisterServices registers request-reply services in the service container.
func (m *PreferencesModule) RegisterServices(container mono.ServiceContainer) error {
	if err := helper.RegisterTypedRequestReplyService(
		container, "get-preferences", json.Unmarshal, json.Marshal, m.getPreferences,
	); err != nil {
		return fmt.Errorf("failed to register get-preferences service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "update-preferences", json.Unmarshal, json.Marshal, m.updatePreferences,
	); err != nil {
		return fmt.Errorf("failed to register update-preferences service: %w", err)
	}

	if err := helper.RegisterTypedRequestReplyService(
		container, "toggle-theme", json.Unmarshal, json.Marshal, m.toggleTheme,
	); err != nil {
		return fmt.Errorf("failed to register toggle-theme service: %w", err)
	}

	log.Printf("[preferences] Registered services: get-preferences, update-preferences, toggle-theme")
	return nil
}

func (m *PreferencesModule) getPreferences(ctx context.Context, req GetPreferencesRequest, _ *mono.Msg) (PreferencesResponse, error) {
	prefs, err := m.store.Get(ctx, req.UserID)
	if err != nil {
		return PreferencesResponse{}, err
	}
	return PreferencesResponse{Preferences: prefs}, nil
}

func (m *PreferencesModule) updatePreferences(ctx context.Context, req UpdatePreferencesRequest, _ *mono.Msg) (PreferencesResponse, error) {
	prefs, err := m.store.Update(ctx, req.UserID, Update{
		Theme:          req.Theme,
		DisplayName:    req.DisplayName,
		ProfilePicture: req.ProfilePicture,
	})
	if err != nil {
		return PreferencesResponse{}, err
	}
	log.Printf("[preferences] Updated preferences for user %s", req.UserID)
	return PreferencesResponse{Preferences: prefs}, nil
}

func (m *PreferencesModule) toggleTheme(ctx context.Context, req GetPreferencesRequest, _ *mono.Msg) (PreferencesResponse, error) {
	prefs, err := m.store.ToggleTheme(ctx, req.UserID)
	if err != nil {
		return PreferencesResponse{}, err
	}
	return PreferencesResponse{Preferences: prefs}, nil
}
