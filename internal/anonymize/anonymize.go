// Package anonymize redacts personal names and acronyms from free text
// before it is embedded into a request to an external provider.
package anonymize

import "regexp"

const (
	// NamePlaceholder replaces a capitalized name that follows an honorific
	NamePlaceholder = "[NOM]"

	// GenericPlaceholder replaces a standalone uppercase token. This also
	// catches legitimate acronyms (CPP, OPJ) in legal citations.
	GenericPlaceholder = "[NOM_OU_SIGLE]"
)

var (
	honorificName = regexp.MustCompile(`\b(M\.|Mme|Mlle|Monsieur|Madame)\s+\p{Lu}\p{Ll}+`)

	// Placeholders are matched first so that the NOM inside [NOM] is kept.
	upperToken = regexp.MustCompile(`\[(?:NOM|NOM_OU_SIGLE)\]|\b[A-Z]{2,}\b`)
)

// Text redacts a single value. It never fails and is idempotent.
func Text(text string) string {
	if text == "" {
		return ""
	}

	text = honorificName.ReplaceAllString(text, "${1} "+NamePlaceholder)

	return upperToken.ReplaceAllStringFunc(text, func(match string) string {
		if match[0] == '[' {
			return match
		}
		return GenericPlaceholder
	})
}

// Fields redacts several values at once, preserving order
func Fields(values ...string) []string {
	out := make([]string, len(values))
	for i, v := range values {
		out[i] = Text(v)
	}
	return out
}
