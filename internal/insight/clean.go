package insight

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

var (
	rolePrefix   = regexp.MustCompile(`(?i)^\s*(response|suggestion|reflection|insight|answer|advice|assistant|ai|bot)\s*:\s*`)
	strippedRune = strings.NewReplacer("<", "", ">", "", "{", "", "}", "", "[", "", "]", "")
	whitespace   = regexp.MustCompile(`\s+`)
)

const minTrailingFragment = 10

// Clean normalizes generated text into a single presentable sentence run.
func Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}
	cleaned := rolePrefix.ReplaceAllString(text, "")
	cleaned = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return ' '
		}
		return r
	}, cleaned)
	cleaned = strippedRune.Replace(cleaned)
	cleaned = strings.TrimSpace(whitespace.ReplaceAllString(cleaned, " "))
	cleaned = dropTrailingFragment(cleaned)
	if cleaned == "" {
		return ""
	}

	first, size := utf8.DecodeRuneInString(cleaned)
	cleaned = string(unicode.ToUpper(first)) + cleaned[size:]
	if !strings.ContainsAny(cleaned[len(cleaned)-1:], ".!?") {
		cleaned += "."
	}
	return cleaned
}

func dropTrailingFragment(text string) string {
	last := strings.LastIndexAny(text, ".!?")
	if last == -1 {
		return text
	}
	tail := strings.TrimSpace(text[last+1:])
	if tail == "" || len(tail) >= minTrailingFragment {
		return text
	}
	return strings.TrimSpace(text[:last+1])
}
