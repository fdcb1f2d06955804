package model

import "strings"

// Canonical tour languages.
const (
    LangSpanish = "Español"
    LangEnglish = "English"
)

// Languages lists the canonical languages in display order.
var Languages = []string{LangSpanish, LangEnglish}

var languageAliases = map[string]string{
    "español": LangSpanish,
    "espanol": LangSpanish,
    "spanish": LangSpanish,
    "es":      LangSpanish,
    "english": LangEnglish,
    "inglés":  LangEnglish,
    "ingles":  LangEnglish,
    "en":      LangEnglish,
}

// NormalizeLanguage maps a language name or legacy alias to its canonical
// form.  The second result is false for anything outside the closed set.
func NormalizeLanguage(s string) (string, bool) {
    canon, ok := languageAliases[strings.ToLower(strings.TrimSpace(s))]
    return canon, ok
}

// IsSpanish reports whether s names the Spanish tour, aliases included.
func IsSpanish(s string) bool {
    canon, ok := NormalizeLanguage(s)
    return ok && canon == LangSpanish
}

// IsEnglish reports whether s names the English tour, aliases included.
func IsEnglish(s string) bool {
    canon, ok := NormalizeLanguage(s)
    return ok && canon == LangEnglish
}
