package chat

import "strings"

// Detector classifies messages as addressed to the assistant or ordinary.
// Both the assistant's display name and a short alias are recognized as
// case-insensitive "@" prefixes; the full name takes precedence when both
// could match.
type Detector struct {
	fullPrefix  string // "@" + lower-cased assistant name
	shortPrefix string // lower-cased shorthand, normalized to start with "@"
}

// NewDetector builds a detector for the given assistant name and shorthand
// alias. The shorthand may be configured with or without a leading "@".
func NewDetector(assistantName, shorthand string) *Detector {
	short := strings.ToLower(shorthand)
	if !strings.HasPrefix(short, "@") {
		short = "@" + short
	}
	return &Detector{
		fullPrefix:  "@" + strings.ToLower(assistantName),
		shortPrefix: short,
	}
}

// Question returns the message text with the matched addressing prefix
// removed, and whether the text was addressed to the assistant at all.
// Detection only ever inspects the newly arrived message; the guard
// against the assistant answering itself lives in history filtering,
// not here.
func (d *Detector) Question(text string) (string, bool) {
	trimmed := strings.TrimSpace(text)
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, d.fullPrefix):
		return strings.TrimSpace(trimmed[len(d.fullPrefix):]), true
	case strings.HasPrefix(lower, d.shortPrefix):
		return strings.TrimSpace(trimmed[len(d.shortPrefix):]), true
	}
	return "", false
}
