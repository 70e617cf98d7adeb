// Package domain contains the core business types for Arkivist.
// It has no dependencies on adapters or infrastructure and defines
// the vocabulary shared by services, ports, and driving adapters:
// retrieved passages, backend selection, generation requests, and
// the explanation trace returned with every grounded answer.
package domain
