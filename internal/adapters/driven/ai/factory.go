// Package ai provides factory functions for creating generation backend
// adapters from settings.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/backend/ollama"
	"github.com/arkivist-labs/arkivist-cli/internal/adapters/driven/backend/openai"
	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Backends bundles the constructed backend adapters.
type Backends struct {
	Remote   driven.GenerationBackend // nil when unconfigured
	Local    driven.GenerationBackend // nil when unconfigured
	Embedder driven.EmbeddingService  // nil when remote unconfigured
	Warnings []string                 // Non-fatal issues found during construction.
}

// Close releases all resources held by the backends.
func (b *Backends) Close() {
	if b.Remote != nil {
		b.Remote.Close()
	}
	if b.Local != nil {
		b.Local.Close()
	}
	if b.Embedder != nil {
		b.Embedder.Close()
	}
}

// CreateBackends constructs every configured backend without probing
// availability. Liveness is a per-request property owned by the selector;
// construction only validates configuration.
func CreateBackends(settings domain.BackendSettings) (*Backends, error) {
	backends := &Backends{}

	if settings.Remote.IsConfigured() {
		remote, err := openai.New(openai.Config{
			APIKey:  settings.Remote.APIKey,
			BaseURL: settings.Remote.BaseURL,
			Model:   settings.Remote.Model,
		})
		if err != nil {
			return nil, fmt.Errorf("remote backend: %w. Run 'arkivist settings wizard' to fix", err)
		}
		backends.Remote = remote

		embedder, err := openai.NewEmbeddingService(openai.EmbeddingConfig{
			APIKey:  settings.Remote.APIKey,
			BaseURL: settings.Remote.BaseURL,
			Model:   settings.Remote.EmbeddingModel,
		})
		if err != nil {
			backends.Warnings = append(backends.Warnings,
				fmt.Sprintf("embedding service unavailable: %v (retrieval disabled)", err))
		} else {
			backends.Embedder = embedder
		}
	}

	if settings.Local.IsConfigured() {
		backends.Local = ollama.New(ollama.Config{
			BaseURL: settings.Local.BaseURL,
			Model:   settings.Local.Model,
		})
	}

	if backends.Remote == nil && backends.Local == nil {
		return nil, fmt.Errorf("%w: no backend configured. Run 'arkivist settings wizard' to fix",
			domain.ErrNoBackendAvailable)
	}

	return backends, nil
}

// ValidateRemoteConfig validates remote settings by creating a backend and
// pinging it. Intended for the settings wizard, to catch bad credentials at
// configuration time rather than first use.
func ValidateRemoteConfig(settings domain.RemoteBackendSettings) error {
	if !settings.IsConfigured() {
		return nil
	}

	backend, err := openai.New(openai.Config{
		APIKey:  settings.APIKey,
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	if err != nil {
		return err
	}
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return backend.Ping(ctx)
}

// ValidateLocalConfig validates local settings by creating a backend and
// pinging it.
func ValidateLocalConfig(settings domain.LocalBackendSettings) error {
	backend := ollama.New(ollama.Config{
		BaseURL: settings.BaseURL,
		Model:   settings.Model,
	})
	defer backend.Close()

	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	return backend.Ping(ctx)
}
