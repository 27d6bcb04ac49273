// Package tokenizer splits documented identifiers into lowercase search
// fragments.
package tokenizer

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// separatorRegex matches runs of anything that is neither a letter nor a digit.
var separatorRegex = regexp.MustCompile(`[^\p{L}\p{N}]+`)

// acronymRegex handles cases like "HTTPRequest" -> "HTTP Request" and the
// engine type prefixes in "UUnitHealth" -> "U UnitHealth"
var acronymRegex = regexp.MustCompile(`(\p{Lu}+)(\p{Lu}\p{Ll})`)

// camelCaseRegex handles cases like "maxHealth" -> "max Health" or "myAPI" -> "my API"
var camelCaseRegex = regexp.MustCompile(`([\p{Ll}\p{N}])(\p{Lu})`)

// Tokenize converts an identifier into a slice of lowercase tokens.
// It splits camel/PascalCase, lowercases the string, and splits on anything
// that is not a letter or digit.
func Tokenize(text string) []string {
	processedText := acronymRegex.ReplaceAllString(text, "$1 $2")
	processedText = camelCaseRegex.ReplaceAllString(processedText, "$1 $2")

	split := separatorRegex.Split(strings.ToLower(processedText), -1)

	tokens := make([]string, 0)
	for _, s := range split {
		if s != "" {
			tokens = append(tokens, s)
		}
	}
	return tokens
}

// Fragments returns the distinct tokens of name that are at least minLen
// runes long, in order of first appearance. The token equal to the whole
// lowercased name is left out: it is what an exact match already finds.
func Fragments(name string, minLen int) []string {
	whole := strings.ToLower(name)
	seen := make(map[string]struct{})
	fragments := make([]string, 0)
	for _, token := range Tokenize(name) {
		if token == whole || utf8.RuneCountInString(token) < minLen {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		fragments = append(fragments, token)
	}
	return fragments
}
