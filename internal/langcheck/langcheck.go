// Package langcheck spot-checks translated text against its target language.
// Findings are advisory: the scheduler logs a mismatch and moves on, so a
// shaky detection can never block a row from reaching review.
package langcheck

import (
	"strings"

	lingua "github.com/pemistahl/lingua-go"
)

// minCheckLength is the minimum rune count worth detecting. Shorter texts
// give unreliable results and always pass.
const minCheckLength = 20

// Checker wraps the lingua-go detector. The detector is expensive to build;
// construct one Checker and share it.
type Checker struct {
	detector lingua.LanguageDetector
}

func New() *Checker {
	return &Checker{
		detector: lingua.NewLanguageDetectorBuilder().
			FromAllLanguages().
			Build(),
	}
}

// Mismatch reports whether text is confidently detected as some language
// other than lang. Empty or short texts, unknown target codes, and ambiguous
// detections all report false.
func (c *Checker) Mismatch(text, lang string) bool {
	if lang == "" {
		return false
	}
	text = strings.TrimSpace(text)
	if len([]rune(text)) < minCheckLength {
		return false
	}

	// Region subtags like zh-CN carry no signal for detection.
	base, _, _ := strings.Cut(lang, "-")

	detected, ok := c.detector.DetectLanguageOf(text)
	if !ok {
		return false
	}
	return !strings.EqualFold(detected.IsoCode639_1().String(), base)
}
