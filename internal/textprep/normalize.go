// Package textprep cleans book page text before it is turned into SSML.
//
// Reference markers and parenthetical citations are dropped, typographic
// quotes and range dashes are flattened, and whitespace is collapsed. Em
// dashes are kept for the pause injector. URLs and email addresses pass
// through untouched.
package textprep

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	urlRegexPattern        = `https?://\S+`
	emailRegexPattern      = `[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`
	referenceRegexPattern  = `\[\d+(?:[,-]\s*\d+)*\]|[¹²³⁴⁵⁶⁷⁸⁹⁰]+`
	citationRegexPattern   = `\(\s*[A-Z][^()]*?\d{4}[a-z]?\s*\)`
	whitespaceRegexPattern = `\s+`
	spaceBeforePunctuation = `\s+([.,;:!?])`
	repeatedMarkPattern    = `([!?,;:])[!?,;:]+`
)

// Placeholders use private-use runes so no other pattern can match them.
const tokenPlaceholderPattern = "\uE000%d\uE001"

// Normalizer holds the precompiled patterns. It is safe for concurrent use.
type Normalizer struct {
	urlPattern         *regexp.Regexp
	emailPattern       *regexp.Regexp
	referencePattern   *regexp.Regexp
	citationPattern    *regexp.Regexp
	whitespacePattern  *regexp.Regexp
	spaceBeforePattern *regexp.Regexp
	repeatedPattern    *regexp.Regexp
	typography         *strings.Replacer
}

// New compiles the patterns.
func New() *Normalizer {
	return &Normalizer{
		urlPattern:         regexp.MustCompile(urlRegexPattern),
		emailPattern:       regexp.MustCompile(emailRegexPattern),
		referencePattern:   regexp.MustCompile(referenceRegexPattern),
		citationPattern:    regexp.MustCompile(citationRegexPattern),
		whitespacePattern:  regexp.MustCompile(whitespaceRegexPattern),
		spaceBeforePattern: regexp.MustCompile(spaceBeforePunctuation),
		repeatedPattern:    regexp.MustCompile(repeatedMarkPattern),
		typography: strings.NewReplacer(
			"\u2013", "-",
			"\u2012", "-",
			"…", "...",
			"“", `"`, "”", `"`,
			"‘", "'", "’", "'",
			"\u00a0", " ",
		),
	}
}

// Normalize returns text ready for speech. An input with nothing speakable
// yields "".
func (n *Normalizer) Normalize(text string) string {
	if strings.TrimSpace(text) == "" {
		return ""
	}

	preserved, tokens := n.preserveTokens(text)

	cleaned := n.referencePattern.ReplaceAllString(preserved, "")
	cleaned = n.citationPattern.ReplaceAllString(cleaned, "")
	cleaned = n.typography.Replace(cleaned)
	cleaned = n.repeatedPattern.ReplaceAllString(cleaned, "$1")
	cleaned = n.whitespacePattern.ReplaceAllString(cleaned, " ")
	cleaned = n.spaceBeforePattern.ReplaceAllString(cleaned, "$1")
	cleaned = strings.TrimSpace(cleaned)

	if strings.Trim(cleaned, `.,;:!?-"' `) == "" {
		return ""
	}

	return ensureSentenceEnding(restoreTokens(cleaned, tokens))
}

func (n *Normalizer) preserveTokens(text string) (string, []string) {
	var tokens []string

	replace := func(match string) string {
		placeholder := fmt.Sprintf(tokenPlaceholderPattern, len(tokens))
		tokens = append(tokens, match)

		return placeholder
	}

	text = n.urlPattern.ReplaceAllStringFunc(text, replace)
	text = n.emailPattern.ReplaceAllStringFunc(text, replace)

	return text, tokens
}

func restoreTokens(text string, tokens []string) string {
	for i := len(tokens) - 1; i >= 0; i-- {
		text = strings.Replace(text, fmt.Sprintf(tokenPlaceholderPattern, i), tokens[i], 1)
	}

	return text
}

func ensureSentenceEnding(text string) string {
	lastChar, _ := utf8.DecodeLastRuneInString(text)

	switch lastChar {
	case '.', '!', '?', '"', '\'':
		return text
	default:
		return text + "."
	}
}
