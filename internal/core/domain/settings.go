package domain

import "time"

// RemoteBackendSettings configures the remote generation service.
type RemoteBackendSettings struct {
	// BaseURL is the API endpoint.
	BaseURL string

	// APIKey authenticates requests.
	APIKey string

	// Model is the generation model name.
	Model string

	// EmbeddingModel is the embedding model name.
	EmbeddingModel string
}

// IsConfigured returns true if the remote backend is set up.
func (r RemoteBackendSettings) IsConfigured() bool {
	return r.APIKey != ""
}

// LocalBackendSettings configures the local embedded model runtime.
type LocalBackendSettings struct {
	// BaseURL is the local runtime endpoint.
	BaseURL string

	// Model is the model to run. Empty means whichever model the runtime
	// currently has loaded.
	Model string
}

// IsConfigured returns true if the local backend is set up.
// The local runtime needs no credentials, only an endpoint (a default
// applies when empty), so it is always considered configured.
func (l LocalBackendSettings) IsConfigured() bool {
	return true
}

// BackendSettings bundles backend configuration with the user's preference.
type BackendSettings struct {
	// Preference selects remote, local, or automatic failover.
	Preference BackendPreference

	// Remote configures the remote generation service.
	Remote RemoteBackendSettings

	// Local configures the local model runtime.
	Local LocalBackendSettings
}

// RetrievalSettings holds retrieval behaviour configuration.
type RetrievalSettings struct {
	// Limit is the default number of passages to retrieve.
	Limit int

	// ScoreThreshold is the default relevance cutoff.
	ScoreThreshold float64

	// CacheCapacity is the query cache size in entries.
	CacheCapacity int

	// CacheTTL is how long cached results stay valid.
	CacheTTL time.Duration

	// GraphExpansion enables citation graph expansion by default.
	GraphExpansion bool

	// EntityBoost enables entity-boosted search by default.
	EntityBoost bool
}

// GenerationSettings holds generation behaviour configuration.
type GenerationSettings struct {
	// Timeout bounds a single generation request.
	Timeout time.Duration

	// ContextBudgetChars is the character budget handed to the compressor.
	ContextBudgetChars int

	// Preset picks the default sampling parameters.
	Preset SamplingPreset

	// Language is the default system prompt language.
	Language PromptLanguage

	// UseCustomPrompt substitutes CustomPrompt for the default instruction.
	UseCustomPrompt bool

	// CustomPrompt is the custom system instruction, when enabled.
	CustomPrompt string
}

// AppSettings bundles all configuration sections.
type AppSettings struct {
	Backend    BackendSettings
	Retrieval  RetrievalSettings
	Generation GenerationSettings
}

// DefaultAppSettings returns the application defaults.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		Backend:    BackendSettings{Preference: BackendPreferenceAuto},
		Retrieval:  DefaultRetrievalSettings(),
		Generation: DefaultGenerationSettings(),
	}
}

// Default configuration values.
const (
	DefaultRetrievalLimit     = 8
	DefaultScoreThreshold     = 0.001
	DefaultCacheCapacity      = 64
	DefaultCacheTTL           = 5 * time.Minute
	DefaultContextBudgetChars = 12000
)

// DefaultRetrievalSettings returns the retrieval defaults.
func DefaultRetrievalSettings() RetrievalSettings {
	return RetrievalSettings{
		Limit:          DefaultRetrievalLimit,
		ScoreThreshold: DefaultScoreThreshold,
		CacheCapacity:  DefaultCacheCapacity,
		CacheTTL:       DefaultCacheTTL,
	}
}

// DefaultGenerationSettings returns the generation defaults.
func DefaultGenerationSettings() GenerationSettings {
	return GenerationSettings{
		Timeout:            DefaultGenerationTimeout,
		ContextBudgetChars: DefaultContextBudgetChars,
		Preset:             SamplingBalanced,
		Language:           PromptLanguageEnglish,
	}
}
