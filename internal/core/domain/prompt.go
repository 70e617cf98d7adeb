package domain

// PromptLanguage selects the language of the default system instruction.
type PromptLanguage string

// Available prompt languages.
const (
	// PromptLanguageEnglish is the default.
	PromptLanguageEnglish PromptLanguage = "en"

	// PromptLanguageGerman selects the German instruction template.
	PromptLanguageGerman PromptLanguage = "de"
)

// IsValid returns true if the language is recognised.
func (l PromptLanguage) IsValid() bool {
	switch l {
	case PromptLanguageEnglish, PromptLanguageGerman:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (l PromptLanguage) String() string {
	return string(l)
}

// Description returns a human-readable description of the language.
func (l PromptLanguage) Description() string {
	switch l {
	case PromptLanguageEnglish:
		return "English"
	case PromptLanguageGerman:
		return "German"
	default:
		return unknownDescription
	}
}
