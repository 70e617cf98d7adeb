package services

import (
	"context"
	"fmt"
	"sync"

	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
	"github.com/arkivist-labs/arkivist-cli/internal/logger"
)

// noBackendRemediation is appended to ErrNoBackendAvailable so the direct
// caller can display actionable guidance instead of a bare error code.
const noBackendRemediation = "configure a remote API key or load a model in the local runtime, then run 'arkivist status' to verify"

// BackendSelector resolves the generation backend for each request and
// forwards streaming generation and embedding calls to it.
//
// The resolved backend is cached until the caller changes the preference;
// availability itself is a live property and is re-probed on every Select.
type BackendSelector struct {
	remote   driven.GenerationBackend // nil when unconfigured
	local    driven.GenerationBackend // nil when unconfigured
	embedder driven.EmbeddingService  // nil when remote unconfigured

	mu         sync.Mutex
	preference domain.BackendPreference
	active     driven.GenerationBackend
}

// NewBackendSelector creates a selector over the configured backends.
// Either backend may be nil; the embedder is remote-only and may be nil.
func NewBackendSelector(
	remote driven.GenerationBackend,
	local driven.GenerationBackend,
	embedder driven.EmbeddingService,
	preference domain.BackendPreference,
) *BackendSelector {
	if !preference.IsValid() {
		preference = domain.BackendPreferenceAuto
	}
	return &BackendSelector{
		remote:     remote,
		local:      local,
		embedder:   embedder,
		preference: preference,
	}
}

// SetPreference changes the backend preference and invalidates the cached
// active backend.
func (s *BackendSelector) SetPreference(p domain.BackendPreference) {
	if !p.IsValid() {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if p != s.preference {
		s.preference = p
		s.active = nil
	}
}

// Select resolves the backend for the given preference. An empty preference
// uses the configured one. In remote/local mode the backend is returned only
// if its liveness probe succeeds; auto mode probes remote first and falls
// back to local.
func (s *BackendSelector) Select(ctx context.Context, preference domain.BackendPreference) (driven.GenerationBackend, error) {
	s.mu.Lock()
	if preference != "" && preference != s.preference {
		s.preference = preference
		s.active = nil
	}
	pref := s.preference
	s.mu.Unlock()

	var backend driven.GenerationBackend

	switch pref {
	case domain.BackendPreferenceRemote:
		if backend = s.probe(ctx, s.remote); backend == nil {
			return nil, fmt.Errorf("%w: remote: %s", domain.ErrBackendUnavailable, noBackendRemediation)
		}
	case domain.BackendPreferenceLocal:
		if backend = s.probe(ctx, s.local); backend == nil {
			return nil, fmt.Errorf("%w: local: %s", domain.ErrBackendUnavailable, noBackendRemediation)
		}
	default:
		// Auto: remote first, local as fallback.
		if backend = s.probe(ctx, s.remote); backend == nil {
			backend = s.probe(ctx, s.local)
		}
	}

	if backend == nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrNoBackendAvailable, noBackendRemediation)
	}

	s.mu.Lock()
	s.active = backend
	s.mu.Unlock()

	logger.Debug("Selected backend: %s (%s)", backend.Name(), backend.ModelName())
	return backend, nil
}

// probe pings a backend, returning it only when it can serve a request.
func (s *BackendSelector) probe(ctx context.Context, backend driven.GenerationBackend) driven.GenerationBackend {
	if backend == nil {
		return nil
	}
	if err := backend.Ping(ctx); err != nil {
		logger.Debug("Backend %s failed liveness probe: %v", backend.Name(), err)
		return nil
	}
	return backend
}

// Active returns the cached active backend, if one has been selected since
// the last preference change.
func (s *BackendSelector) Active() driven.GenerationBackend {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Status probes both backends and reports live availability.
// The result is never cached: availability is a live property.
func (s *BackendSelector) Status(ctx context.Context) domain.ProviderStatus {
	status := domain.ProviderStatus{ActiveBackend: domain.BackendNone}

	if s.remote != nil {
		status.RemoteModelName = s.remote.ModelName()
		status.RemoteAvailable = s.remote.Ping(ctx) == nil
	}
	if s.local != nil {
		if err := s.local.Ping(ctx); err == nil {
			status.LocalAvailable = true
			status.LocalModelID = s.local.ModelName()
		}
	}

	s.mu.Lock()
	pref := s.preference
	s.mu.Unlock()

	switch pref {
	case domain.BackendPreferenceRemote:
		if status.RemoteAvailable {
			status.ActiveBackend = domain.BackendRemote
		}
	case domain.BackendPreferenceLocal:
		if status.LocalAvailable {
			status.ActiveBackend = domain.BackendLocal
		}
	default:
		if status.RemoteAvailable {
			status.ActiveBackend = domain.BackendRemote
		} else if status.LocalAvailable {
			status.ActiveBackend = domain.BackendLocal
		}
	}

	return status
}

// StreamGenerate forwards a generation request to the active backend,
// selecting one first if needed.
func (s *BackendSelector) StreamGenerate(ctx context.Context, req domain.GenerationRequest) (driven.TokenStream, error) {
	backend := s.Active()
	if backend == nil {
		var err error
		backend, err = s.Select(ctx, "")
		if err != nil {
			return nil, err
		}
	}
	return backend.StreamGenerate(ctx, req)
}

// Embed generates a query embedding. Only the remote backend supports
// embeddings; when it is unconfigured or unreachable the call fails with
// domain.ErrEmbeddingUnavailable.
func (s *BackendSelector) Embed(ctx context.Context, text string) ([]float32, error) {
	if s.embedder == nil {
		return nil, fmt.Errorf("%w: embeddings require the remote backend", domain.ErrEmbeddingUnavailable)
	}
	vec, err := s.embedder.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbeddingUnavailable, err)
	}
	return vec, nil
}

// CanEmbed reports whether an embedding service is configured.
func (s *BackendSelector) CanEmbed() bool {
	return s.embedder != nil
}
