package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultGenerationTimeout bounds a single generation request. Large
// context windows on local models can take a long time, so the default
// is deliberately generous.
const DefaultGenerationTimeout = 30 * time.Minute

// SamplingParams are the decoding parameters for a generation request.
type SamplingParams struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// TopP is the nucleus sampling cutoff.
	TopP float64

	// TopK limits sampling to the k most likely tokens.
	TopK int

	// RepeatPenalty discourages verbatim repetition.
	RepeatPenalty float64

	// ContextWindowTokens is the model context window to request.
	ContextWindowTokens int
}

// SamplingPreset names a bundle of sampling defaults.
type SamplingPreset string

// Available sampling presets.
const (
	// SamplingFactual favours deterministic, grounded answers.
	SamplingFactual SamplingPreset = "factual"

	// SamplingBalanced is the general-purpose default.
	SamplingBalanced SamplingPreset = "balanced"

	// SamplingCreative allows freer generation for ungrounded questions.
	SamplingCreative SamplingPreset = "creative"
)

// Params returns the sampling defaults for the preset.
func (p SamplingPreset) Params() SamplingParams {
	switch p {
	case SamplingFactual:
		return SamplingParams{Temperature: 0.1, TopP: 0.9, TopK: 20, RepeatPenalty: 1.1, ContextWindowTokens: 8192}
	case SamplingCreative:
		return SamplingParams{Temperature: 0.9, TopP: 0.95, TopK: 60, RepeatPenalty: 1.05, ContextWindowTokens: 8192}
	default:
		return SamplingParams{Temperature: 0.4, TopP: 0.9, TopK: 40, RepeatPenalty: 1.1, ContextWindowTokens: 8192}
	}
}

// GenerationRequest carries everything a backend needs to produce an answer.
type GenerationRequest struct {
	// Query is the user's question.
	Query string

	// Passages is the retrieved context, possibly compressed. Empty when
	// answering without retrieval.
	Passages []RetrievedPassage

	// ProjectContext is an opaque project-level context string, when set.
	ProjectContext string

	// SystemPrompt is the assembled system instruction. Empty in free mode.
	SystemPrompt string

	// Sampling are the decoding parameters.
	Sampling SamplingParams

	// ModelOverride forces a specific model instead of the configured one.
	ModelOverride string

	// Timeout bounds the request. Zero means DefaultGenerationTimeout.
	Timeout time.Duration
}

// ContextBlock renders the project context and passages into the text block
// that backends prepend to the user query. Empty when there is nothing to
// ground the answer in.
func (r GenerationRequest) ContextBlock() string {
	if len(r.Passages) == 0 && r.ProjectContext == "" {
		return ""
	}

	var b strings.Builder
	if r.ProjectContext != "" {
		b.WriteString("Project context:\n")
		b.WriteString(r.ProjectContext)
		b.WriteString("\n\n")
	}
	if len(r.Passages) > 0 {
		b.WriteString("Passages from the archive:\n\n")
		for i, p := range r.Passages {
			fmt.Fprintf(&b, "[%d] document %s, position %d", i+1, p.DocumentID, p.Position)
			if p.GraphExpansion {
				b.WriteString(" (related via citations)")
			}
			b.WriteString("\n")
			b.WriteString(p.Content)
			b.WriteString("\n\n")
		}
	}
	return b.String()
}

// PromptSize returns the size in characters of the fully assembled prompt.
func (r GenerationRequest) PromptSize() int {
	return len(r.SystemPrompt) + len(r.ContextBlock()) + len(r.Query)
}

// AnswerOptions configures a single orchestrated answer.
type AnswerOptions struct {
	// Backend is the backend preference for this request.
	Backend BackendPreference

	// Retrieval enables grounding the answer in the document corpus.
	Retrieval bool

	// Filters narrows retrieval when Retrieval is set.
	Filters RetrievalFilters

	// Compression reduces oversized passage sets to the context budget.
	// Enabled by default; explicit opt-out via DisableCompression.
	DisableCompression bool

	// Language selects the default system prompt language.
	Language PromptLanguage

	// UseCustomPrompt substitutes CustomPrompt for the default instruction.
	UseCustomPrompt bool

	// CustomPrompt is the custom system instruction.
	CustomPrompt string

	// FreeMode disables the system instruction entirely.
	FreeMode bool

	// Preset picks sampling defaults; individual fields can be overridden
	// via Sampling.
	Preset SamplingPreset

	// Sampling overrides the preset defaults when non-nil.
	Sampling *SamplingParams

	// ModelOverride forces a specific model.
	ModelOverride string

	// Timeout bounds generation. Zero means DefaultGenerationTimeout.
	Timeout time.Duration

	// Sink receives each streamed fragment for incremental display.
	// Optional; may be nil.
	Sink func(fragment string)
}

// AnswerResult is the outcome of an orchestrated answer.
type AnswerResult struct {
	// Response is the full generated answer text.
	Response string

	// UsedRetrieval is true if passages grounded the answer.
	UsedRetrieval bool

	// PassageCount is the number of passages sent to the model.
	PassageCount int

	// Explanation traces how the answer was produced. Nil when retrieval
	// was not requested: answers without context are not explained.
	Explanation *ExplanationTrace
}
