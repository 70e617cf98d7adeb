package driven

import "github.com/arkivist-labs/arkivist-cli/internal/core/domain"

// BackendValidator checks backend configuration by contacting the service.
// Used by the settings service to catch bad credentials at configuration
// time instead of first use.
type BackendValidator interface {
	// ValidateRemote pings the remote service with the given settings.
	// Unconfigured settings validate trivially.
	ValidateRemote(settings domain.RemoteBackendSettings) error

	// ValidateLocal checks the local runtime is reachable.
	ValidateLocal(settings domain.LocalBackendSettings) error
}
