package ai

import (
	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// Ensure Validator implements the interface.
var _ driven.BackendValidator = (*Validator)(nil)

// Validator validates backend configuration by constructing real adapters
// and pinging them.
type Validator struct{}

// NewValidator creates a backend configuration validator.
func NewValidator() *Validator {
	return &Validator{}
}

// ValidateRemote pings the remote service with the given settings.
func (v *Validator) ValidateRemote(settings domain.RemoteBackendSettings) error {
	return ValidateRemoteConfig(settings)
}

// ValidateLocal checks the local runtime is reachable.
func (v *Validator) ValidateLocal(settings domain.LocalBackendSettings) error {
	return ValidateLocalConfig(settings)
}
