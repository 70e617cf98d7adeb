// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - HybridSearcher: Fused vector+lexical search over the indexed corpus
//   - GenerationBackend: Streaming text generation (remote or local)
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the pipeline degrades gracefully:
//
//   - EmbeddingService: Query embeddings (remote backend only). Without it,
//     retrieval is disabled entirely.
//   - CitationGraph: Cited/citing/similar document lookups for context expansion.
//   - ContextCompressor: Reduces oversized passage sets to a character budget.
//   - EntityExtractor: Named entities for boosted search.
//   - HistoryStore: Conversation and operation logging (fire-and-forget).
//   - ProjectContextProvider: Opaque project-level context.
//   - PromptStore: User-customisable prompt templates.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
