package domain

const unknownDescription = "Unknown"

// BackendPreference selects which generation backend to use.
type BackendPreference string

// Available backend preferences.
const (
	// BackendPreferenceRemote forces the remote generation service.
	BackendPreferenceRemote BackendPreference = "remote"

	// BackendPreferenceLocal forces the local embedded model.
	BackendPreferenceLocal BackendPreference = "local"

	// BackendPreferenceAuto probes remote first and falls back to local.
	BackendPreferenceAuto BackendPreference = "auto"
)

// IsValid returns true if the preference is recognised.
func (p BackendPreference) IsValid() bool {
	switch p {
	case BackendPreferenceRemote, BackendPreferenceLocal, BackendPreferenceAuto:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (p BackendPreference) String() string {
	return string(p)
}

// BackendKind identifies a resolved generation backend.
type BackendKind string

// Resolved backend kinds.
const (
	// BackendRemote is the remote generation service.
	BackendRemote BackendKind = "remote"

	// BackendLocal is the locally embedded model.
	BackendLocal BackendKind = "local"

	// BackendNone means no backend is available.
	BackendNone BackendKind = "none"
)

// Description returns a human-readable description of the backend kind.
func (k BackendKind) Description() string {
	switch k {
	case BackendRemote:
		return "Remote (cloud)"
	case BackendLocal:
		return "Local (embedded model)"
	case BackendNone:
		return "None"
	default:
		return unknownDescription
	}
}

// ProviderStatus reports live backend availability.
// Availability is a live property: the status is recomputed per
// orchestration call and never cached across calls.
type ProviderStatus struct {
	// ActiveBackend is the backend that would serve the next request.
	ActiveBackend BackendKind

	// RemoteAvailable is true if the remote service answered its liveness probe.
	RemoteAvailable bool

	// LocalAvailable is true if a local model is currently loaded.
	LocalAvailable bool

	// LocalModelID is the loaded local model, when LocalAvailable.
	LocalModelID string

	// RemoteModelName is the configured remote model.
	RemoteModelName string
}
