package segment

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// DefaultTitleMaxWords is the word-count ceiling for title candidates.
const DefaultTitleMaxWords = 12

// DefaultTitlePatterns are the structural patterns a title candidate may
// match: a numbered heading or an all-caps line. Short title-case lines
// are handled separately because they need per-word inspection.
func DefaultTitlePatterns() []string {
	return []string{
		`^\d+(\.\d+)*\.?\s+\S`,
		`^[\p{Lu}][\p{Lu}\d\s\.,:\-–]+$`,
	}
}

// TitleConfig controls title-paragraph detection.
type TitleConfig struct {
	MaxWords int
	patterns []*regexp.Regexp
}

// NewTitleConfig compiles the given patterns. Zero maxWords falls back
// to the default.
func NewTitleConfig(maxWords int, patterns []string) (TitleConfig, error) {
	if maxWords <= 0 {
		maxWords = DefaultTitleMaxWords
	}
	cfg := TitleConfig{MaxWords: maxWords}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return TitleConfig{}, fmt.Errorf("compile title pattern %q: %w", p, err)
		}
		cfg.patterns = append(cfg.patterns, re)
	}
	return cfg, nil
}

// DefaultTitleConfig returns the compiled default heuristics.
func DefaultTitleConfig() TitleConfig {
	cfg, err := NewTitleConfig(DefaultTitleMaxWords, DefaultTitlePatterns())
	if err != nil {
		panic(err)
	}
	return cfg
}

// IsTitle reports whether a paragraph looks like a section title. A
// heading style on the paragraph decides immediately; otherwise the text
// must be short and match one of the structural patterns or be a short
// title-case line.
func IsTitle(text, style string, cfg TitleConfig) bool {
	if isHeadingStyle(style) {
		return true
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	// A line ending like a sentence is body text, even when it starts
	// with a section number ("2023 wurden 45 Berichte geprüft.").
	if strings.ContainsAny(text[len(text)-1:], ".!?;,") {
		return false
	}
	words := strings.Fields(text)
	if len(words) > cfg.MaxWords {
		return false
	}

	for _, re := range cfg.patterns {
		if re.MatchString(text) {
			return true
		}
	}
	return isTitleCase(words)
}

// isHeadingStyle matches word-processor heading styles, including the
// German style names used by the source documents.
func isHeadingStyle(style string) bool {
	if style == "" {
		return false
	}
	s := strings.ToLower(strings.ReplaceAll(style, " ", ""))
	return strings.HasPrefix(s, "heading") ||
		strings.HasPrefix(s, "berschrift") ||
		strings.HasPrefix(s, "überschrift") ||
		s == "title" || s == "titel"
}

// isTitleCase reports whether every word starts with an uppercase letter
// or a digit.
func isTitleCase(words []string) bool {
	if len(words) < 2 {
		return false
	}
	for _, w := range words {
		r := []rune(w)[0]
		if !unicode.IsUpper(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
