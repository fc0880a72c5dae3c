// Package langdetect guesses the language of a cell so the dedicated backend
// can send an explicit source code instead of "auto".
package langdetect

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"unicode"

	lingua "github.com/pemistahl/lingua-go"
)

// MinLetters is the shortest sample, in letters, worth detecting. Shorter
// cells are left to the service.
const MinLetters = 6

// Detector wraps a lingua detector built on first use.
type Detector struct {
	languages []lingua.Language
	once      sync.Once
	detector  lingua.LanguageDetector
}

// ErrSingleLanguage is returned for a one-language subset, which lingua
// cannot tell apart from anything else.
var ErrSingleLanguage = errors.New("language detection needs at least two languages")

// New restricts detection to languages. With no languages every language
// lingua knows is considered; exactly one language is rejected.
func New(languages ...lingua.Language) (*Detector, error) {
	if len(languages) == 1 {
		return nil, fmt.Errorf("%w: got %s", ErrSingleLanguage, languages[0])
	}
	return &Detector{languages: languages}, nil
}

// FromISOCodes is New for ISO 639-1 codes such as "en" or "DE". Blank
// entries are skipped and an empty list means every language.
func FromISOCodes(codes []string) (*Detector, error) {
	known := make(map[string]lingua.Language)
	for _, language := range lingua.AllLanguages() {
		known[strings.ToLower(language.IsoCode639_1().String())] = language
	}

	languages := make([]lingua.Language, 0, len(codes))
	seen := make(map[lingua.Language]bool, len(codes))
	for _, raw := range codes {
		code := strings.ToLower(strings.TrimSpace(raw))
		if code == "" {
			continue
		}
		language, ok := known[code]
		if !ok {
			return nil, fmt.Errorf("unknown detection language %q", raw)
		}
		if !seen[language] {
			seen[language] = true
			languages = append(languages, language)
		}
	}
	return New(languages...)
}

var defaultDetector = &Detector{}

// DetectISO6391 uses the shared all-languages detector.
func DetectISO6391(text string) string {
	return defaultDetector.DetectISO6391(text)
}

// DetectISO6391 returns a lowercase two-letter code, or "" when the sample is
// too short or lingua is not confident.
func (d *Detector) DetectISO6391(text string) string {
	sample := strings.TrimSpace(text)
	if countLetters(sample) < MinLetters {
		return ""
	}

	language, exists := d.get().DetectLanguageOf(sample)
	if !exists {
		return ""
	}
	code := strings.ToLower(language.IsoCode639_1().String())
	if len(code) != 2 {
		return ""
	}
	return code
}

func (d *Detector) get() lingua.LanguageDetector {
	d.once.Do(func() {
		var builder lingua.LanguageDetectorBuilder
		if len(d.languages) > 0 {
			builder = lingua.NewLanguageDetectorBuilder().FromLanguages(d.languages...)
		} else {
			builder = lingua.NewLanguageDetectorBuilder().FromAllLanguages()
		}
		d.detector = builder.Build()
	})
	return d.detector
}

func countLetters(s string) int {
	n := 0
	for _, r := range s {
		if unicode.IsLetter(r) {
			n++
		}
	}
	return n
}
