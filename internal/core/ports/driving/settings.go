package driving

import "github.com/arkivist-labs/arkivist-cli/internal/core/domain"

// SettingsService manages application settings.
// This is used by CLI adapters.
type SettingsService interface {
	// Get retrieves current application settings, with defaults applied
	// for unset keys.
	Get() domain.AppSettings

	// Save persists application settings.
	Save(settings domain.AppSettings) error

	// SetBackendPreference updates and persists the backend preference.
	SetBackendPreference(preference domain.BackendPreference) error

	// ValidateRemote checks the remote backend configuration by pinging
	// the service with the stored credentials.
	ValidateRemote() error

	// ValidateLocal checks that the local runtime is reachable.
	ValidateLocal() error
}
