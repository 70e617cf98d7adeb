package services

import (
	"github.com/arkivist-labs/arkivist-cli/internal/core/domain"
	"github.com/arkivist-labs/arkivist-cli/internal/core/ports/driven"
)

// Default system instructions, used when no PromptStore is configured or a
// template cannot be loaded.
//
//nolint:lll // Prompt content is intentionally long and should not be wrapped.
var defaultSystemPrompts = map[domain.PromptLanguage]string{
	domain.PromptLanguageEnglish: `You are Arkivist, a research assistant answering questions from a personal archive of documents.

Ground every claim in the supplied passages and cite the source document titles in your answer. If the passages do not contain the answer, say so plainly instead of speculating. Keep answers concise and quote original wording where it matters.`,

	domain.PromptLanguageGerman: `Du bist Arkivist, ein Recherche-Assistent, der Fragen anhand eines persönlichen Dokumentenarchivs beantwortet.

Stütze jede Aussage auf die mitgelieferten Passagen und nenne die Titel der Quelldokumente in deiner Antwort. Wenn die Passagen die Antwort nicht enthalten, sage das deutlich, statt zu spekulieren. Antworte knapp und zitiere wichtige Originalformulierungen.`,
}

// PromptBuilder assembles the system instruction for a generation request.
// Building is pure: no I/O beyond the prompt store lookup, no retries. Any
// failure here is a configuration error, not a runtime fault.
type PromptBuilder struct {
	prompts driven.PromptStore // optional
}

// NewPromptBuilder creates a builder. The prompt store is optional (can be
// nil); embedded defaults are used without it.
func NewPromptBuilder(prompts driven.PromptStore) *PromptBuilder {
	return &PromptBuilder{prompts: prompts}
}

// Build returns the system instruction for the given settings.
//
// Free mode returns an empty prompt. An enabled custom override with
// non-empty text is returned verbatim. Otherwise the language-selected
// default template applies.
func (b *PromptBuilder) Build(language domain.PromptLanguage, useCustom bool, customText string, freeMode bool) string {
	if freeMode {
		return ""
	}
	if useCustom && customText != "" {
		return customText
	}
	if !language.IsValid() {
		language = domain.PromptLanguageEnglish
	}
	return b.loadDefault(language)
}

// loadDefault resolves the language template through the store, with the
// embedded default as fallback.
func (b *PromptBuilder) loadDefault(language domain.PromptLanguage) string {
	name := driven.PromptAnswerSystemEN
	if language == domain.PromptLanguageGerman {
		name = driven.PromptAnswerSystemDE
	}

	if b.prompts != nil {
		if prompt, err := b.prompts.Load(name); err == nil && prompt != "" {
			return prompt
		}
	}
	return defaultSystemPrompts[language]
}
