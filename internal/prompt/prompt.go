// Package prompt assembles the single instruction string sent to a
// translation provider: style template, glossary constraints, the source
// payload as machine-parseable JSON, and the required output schema.
package prompt

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"

	"github.com/valpere/transflow/internal"
	"github.com/valpere/transflow/internal/placeholder"
)

// ErrMissingTemplate is returned when a template has no prompt body. There is
// no silent fallback to a generic instruction: every provider variant treats
// a missing style template as a hard error, uniformly.
var ErrMissingTemplate = errors.New("prompt: template body is required")

// TargetLanguagePlaceholder is the token in a template body that gets
// replaced with the human-readable list of target language names.
const TargetLanguagePlaceholder = "{{targetLanguage}}"

// Build assembles the request payload for one batch. The returned string is
// opaque to the caller — it carries no semantics beyond being the provider
// request body.
//
// The required output shape is stated twice, in prose and by example. The
// duplication is intentional: models comply measurably better when the schema
// is shown both ways.
func Build(items []internal.BatchItem, tmpl internal.Template, targetLangs []string, terms []internal.GlossaryTerm, sourceLang string) (string, error) {
	if strings.TrimSpace(tmpl.PromptBody) == "" {
		return "", ErrMissingTemplate
	}
	if len(items) == 0 {
		return "", errors.New("prompt: no source items")
	}
	if len(targetLangs) == 0 {
		return "", errors.New("prompt: no target languages")
	}

	var sb strings.Builder

	body := strings.ReplaceAll(tmpl.PromptBody, TargetLanguagePlaceholder, LanguageNames(targetLangs))
	sb.WriteString(strings.TrimSpace(body))
	sb.WriteString("\n")

	if sourceLang != "" {
		sb.WriteString(fmt.Sprintf("\nThe source language is %s.\n", LanguageNames([]string{sourceLang})))
	}

	// Glossary section is omitted entirely when no term matched the batch.
	if len(terms) > 0 {
		sb.WriteString("\nTERMINOLOGY (use these exact translations):\n")
		for _, term := range terms {
			sb.WriteString(fmt.Sprintf("  %s:\n", term.SourceTerm))
			for _, lang := range targetLangs {
				if tr, ok := term.Translations[lang]; ok && tr != "" {
					sb.WriteString(fmt.Sprintf("    %s: %s\n", lang, tr))
				}
			}
		}
	}

	payload, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return "", fmt.Errorf("prompt: marshal source items: %w", err)
	}
	sb.WriteString("\nSource items (JSON; \"context\" is a hint, never translate it):\n")
	sb.Write(payload)
	sb.WriteString("\n")

	for _, item := range items {
		if strings.Contains(item.Text, "[PH") {
			sb.WriteString("\n" + placeholder.InstructionHint() + "\n")
			break
		}
	}

	sb.WriteString(fmt.Sprintf("\nReturn ONLY a JSON array with exactly %d elements, one per input id. ", len(items)))
	sb.WriteString("Each element must be an object with the input \"id\" and a \"translations\" object keyed by every requested language code. ")
	sb.WriteString("Do not add commentary, markdown fences, or extra keys.\n")
	sb.WriteString("Example element:\n")
	sb.WriteString(exampleElement(items[0].ID, targetLangs))

	return sb.String(), nil
}

// LanguageNames renders language codes as a comma-joined list of English
// display names ("Malay, Simplified Chinese"). Codes that do not parse as
// BCP 47 tags are kept verbatim.
func LanguageNames(codes []string) string {
	names := make([]string, 0, len(codes))
	for _, code := range codes {
		tag, err := language.Parse(code)
		if err != nil {
			names = append(names, code)
			continue
		}
		names = append(names, display.English.Languages().Name(tag))
	}
	return strings.Join(names, ", ")
}

func exampleElement(id string, targetLangs []string) string {
	translations := make(map[string]map[string]string, len(targetLangs))
	for _, lang := range targetLangs {
		translations[lang] = map[string]string{"text": "..."}
	}
	example := map[string]any{"id": id, "translations": translations}
	out, _ := json.MarshalIndent(example, "", "  ")
	return string(out)
}
