package language

import (
	"strings"

	xlanguage "golang.org/x/text/language"
)

// Auto is the source code that asks the service to detect the language.
const Auto = "auto"

// NormalizeTag returns the canonical BCP 47 form of raw ("EN_us" -> "en-US",
// "zh-hant" -> "zh-Hant"). Well-formed tags unknown to the registry are
// lowercased with "-" separators. Blank or invalid values yield "".
func NormalizeTag(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return ""
	}
	if strings.EqualFold(trimmed, Auto) {
		return Auto
	}
	if tag, err := xlanguage.Parse(trimmed); err == nil {
		return tag.String()
	}
	return syntacticTag(trimmed)
}

// WireCode prepares a user-chosen code for a translation service. Only the
// primary subtag is lowercased and no aliases are applied, so "tl" stays "tl"
// and "zh-Hant" stays "zh-Hant".
func WireCode(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.EqualFold(trimmed, Auto) {
		return Auto
	}
	primary, rest, found := strings.Cut(trimmed, "-")
	if !found {
		return strings.ToLower(trimmed)
	}
	return strings.ToLower(primary) + "-" + rest
}

// NormalizeCode returns the primary language subtag (for example, "en" from
// "en-US"). Three-letter codes with a two-letter equivalent are shortened.
func NormalizeCode(raw string) string {
	tag := NormalizeTag(raw)
	if tag == "" || tag == Auto {
		return tag
	}
	primary := tag
	if dash := strings.IndexByte(tag, '-'); dash >= 0 {
		primary = tag[:dash]
	}
	if base, err := xlanguage.ParseBase(primary); err == nil {
		return base.String()
	}
	return primary
}

func syntacticTag(raw string) string {
	lowered := strings.ReplaceAll(strings.ToLower(raw), "_", "-")
	parts := strings.Split(lowered, "-")
	normalized := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		if !isAlphaLower(part) {
			return ""
		}
		normalized = append(normalized, part)
	}
	return strings.Join(normalized, "-")
}

func isAlphaLower(value string) bool {
	for _, r := range value {
		if r < 'a' || r > 'z' {
			return false
		}
	}
	return true
}
