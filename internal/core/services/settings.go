package services

import (
	"fmt"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyBackendPreference  = "backend.preference"
	keyRemoteBaseURL      = "backend.remote.base_url"
	keyRemoteAPIKey       = "backend.remote.api_key"
	keyRemoteModel        = "backend.remote.model"
	keyRemoteEmbedModel   = "backend.remote.embedding_model"
	keyLocalBaseURL       = "backend.local.base_url"
	keyLocalModel         = "backend.local.model"
	keyRetrievalLimit     = "retrieval.limit"
	keyRetrievalThreshold = "retrieval.score_threshold"
	keyCacheCapacity      = "retrieval.cache_capacity"
	keyCacheTTL           = "retrieval.cache_ttl"
	keyGraphExpansion     = "retrieval.graph_expansion"
	keyEntityBoost        = "retrieval.entity_boost"
	keyGenTimeout         = "generation.timeout"
	keyContextBudget      = "generation.context_budget_chars"
	keyPreset             = "generation.preset"
	keyLanguage           = "generation.language"
	keyUseCustomPrompt    = "generation.use_custom_prompt"
	keyCustomPrompt       = "generation.custom_prompt"
)

// SettingsService manages application settings on top of the config store.
type SettingsService struct {
	configStore driven.ConfigStore
	validator   driven.BackendValidator
}

// NewSettingsService creates a new settings service.
func NewSettingsService(configStore driven.ConfigStore, validator driven.BackendValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		validator:   validator,
	}
}

// Get retrieves current application settings, with defaults applied for
// unset keys.
func (s *SettingsService) Get() domain.AppSettings {
	defaults := domain.DefaultAppSettings()

	return domain.AppSettings{
		Backend: domain.BackendSettings{
			Preference: s.getPreference(defaults.Backend.Preference),
			Remote: domain.RemoteBackendSettings{
				BaseURL:        s.configStore.GetString(keyRemoteBaseURL), // No default - empty means the provider default
				APIKey:         s.configStore.GetString(keyRemoteAPIKey),
				Model:          s.configStore.GetString(keyRemoteModel),
				EmbeddingModel: s.configStore.GetString(keyRemoteEmbedModel),
			},
			Local: domain.LocalBackendSettings{
				BaseURL: s.configStore.GetString(keyLocalBaseURL),
				Model:   s.configStore.GetString(keyLocalModel),
			},
		},
		Retrieval: domain.RetrievalSettings{
			Limit:          s.getInt(keyRetrievalLimit, defaults.Retrieval.Limit),
			ScoreThreshold: s.getFloat(keyRetrievalThreshold, defaults.Retrieval.ScoreThreshold),
			CacheCapacity:  s.getInt(keyCacheCapacity, defaults.Retrieval.CacheCapacity),
			CacheTTL:       s.getDuration(keyCacheTTL, defaults.Retrieval.CacheTTL),
			GraphExpansion: s.configStore.GetBool(keyGraphExpansion),
			EntityBoost:    s.configStore.GetBool(keyEntityBoost),
		},
		Generation: domain.GenerationSettings{
			Timeout:            s.getDuration(keyGenTimeout, defaults.Generation.Timeout),
			ContextBudgetChars: s.getInt(keyContextBudget, defaults.Generation.ContextBudgetChars),
			Preset:             s.getPreset(defaults.Generation.Preset),
			Language:           s.getLanguage(defaults.Generation.Language),
			UseCustomPrompt:    s.configStore.GetBool(keyUseCustomPrompt),
			CustomPrompt:       s.configStore.GetString(keyCustomPrompt),
		},
	}
}

// Save persists application settings.
func (s *SettingsService) Save(settings domain.AppSettings) error {
	entries := []struct {
		key   string
		value any
	}{
		{keyBackendPreference, string(settings.Backend.Preference)},
		{keyRemoteBaseURL, settings.Backend.Remote.BaseURL},
		{keyRemoteModel, settings.Backend.Remote.Model},
		{keyRemoteEmbedModel, settings.Backend.Remote.EmbeddingModel},
		{keyLocalBaseURL, settings.Backend.Local.BaseURL},
		{keyLocalModel, settings.Backend.Local.Model},
		{keyRetrievalLimit, settings.Retrieval.Limit},
		{keyRetrievalThreshold, settings.Retrieval.ScoreThreshold},
		{keyCacheCapacity, settings.Retrieval.CacheCapacity},
		{keyCacheTTL, settings.Retrieval.CacheTTL.String()},
		{keyGraphExpansion, settings.Retrieval.GraphExpansion},
		{keyEntityBoost, settings.Retrieval.EntityBoost},
		{keyGenTimeout, settings.Generation.Timeout.String()},
		{keyContextBudget, settings.Generation.ContextBudgetChars},
		{keyPreset, string(settings.Generation.Preset)},
		{keyLanguage, string(settings.Generation.Language)},
		{keyUseCustomPrompt, settings.Generation.UseCustomPrompt},
		{keyCustomPrompt, settings.Generation.CustomPrompt},
	}

	for _, e := range entries {
		if err := s.configStore.Set(e.key, e.value); err != nil {
			return fmt.Errorf("save %s: %w", e.key, err)
		}
	}

	// API keys are only written when set, so a partial save cannot wipe
	// stored credentials.
	if settings.Backend.Remote.APIKey != "" {
		if err := s.configStore.Set(keyRemoteAPIKey, settings.Backend.Remote.APIKey); err != nil {
			return fmt.Errorf("save %s: %w", keyRemoteAPIKey, err)
		}
	}

	return nil
}

// SetBackendPreference updates and persists the backend preference.
func (s *SettingsService) SetBackendPreference(preference domain.BackendPreference) error {
	if !preference.IsValid() {
		return fmt.Errorf("%w: unknown backend preference %q", domain.ErrInvalidInput, preference)
	}
	return s.configStore.Set(keyBackendPreference, string(preference))
}

// ValidateRemote checks the remote backend configuration by pinging the
// service with the stored credentials.
func (s *SettingsService) ValidateRemote() error {
	if s.validator == nil {
		return nil
	}
	return s.validator.ValidateRemote(s.Get().Backend.Remote)
}

// ValidateLocal checks that the local runtime is reachable.
func (s *SettingsService) ValidateLocal() error {
	if s.validator == nil {
		return nil
	}
	return s.validator.ValidateLocal(s.Get().Backend.Local)
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	if _, ok := s.configStore.Get(key); !ok {
		return defaultVal
	}
	return s.configStore.GetFloat(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	if d := s.configStore.GetDuration(key); d > 0 {
		return d
	}
	return defaultVal
}

func (s *SettingsService) getPreference(defaultVal domain.BackendPreference) domain.BackendPreference {
	p := domain.BackendPreference(s.configStore.GetString(keyBackendPreference))
	if !p.IsValid() {
		return defaultVal
	}
	return p
}

func (s *SettingsService) getPreset(defaultVal domain.SamplingPreset) domain.SamplingPreset {
	switch p := domain.SamplingPreset(s.configStore.GetString(keyPreset)); p {
	case domain.SamplingFactual, domain.SamplingBalanced, domain.SamplingCreative:
		return p
	default:
		return defaultVal
	}
}

func (s *SettingsService) getLanguage(defaultVal domain.PromptLanguage) domain.PromptLanguage {
	l := domain.PromptLanguage(s.configStore.GetString(keyLanguage))
	if !l.IsValid() {
		return defaultVal
	}
	return l
}
