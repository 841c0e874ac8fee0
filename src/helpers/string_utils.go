package helpers

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	camelSeparators = regexp.MustCompile(`[-_\s]+(.)?`)
	lowerUpper      = regexp.MustCompile(`([a-z])([A-Z])`)
	kebabSeparators = regexp.MustCompile(`[\s_]+`)
	snakeSeparators = regexp.MustCompile(`[\s-]+`)
	whitespaceRuns  = regexp.MustCompile(`\s+`)

	upper = cases.Upper(language.Und)
	lower = cases.Lower(language.Und)
)

// Capitalize upper-cases the first letter and lower-cases the rest.
func Capitalize(s string) string {
	if s == "" {
		return s
	}
	r, size := utf8.DecodeRuneInString(s)
	return upper.String(string(r)) + lower.String(s[size:])
}

// ToCamelCase converts "hello-world" or "hello_world" to "helloWorld".
func ToCamelCase(s string) string {
	s = camelSeparators.ReplaceAllStringFunc(s, func(m string) string {
		sub := camelSeparators.FindStringSubmatch(m)
		return strings.ToUpper(sub[1])
	})
	if s == "" {
		return s
	}
	if s[0] >= 'A' && s[0] <= 'Z' {
		return strings.ToLower(s[:1]) + s[1:]
	}
	return s
}

// ToKebabCase converts "helloWorld" or "hello_world" to "hello-world".
func ToKebabCase(s string) string {
	s = lowerUpper.ReplaceAllString(s, "$1-$2")
	s = kebabSeparators.ReplaceAllString(s, "-")
	return strings.ToLower(s)
}

// ToSnakeCase converts "helloWorld" or "hello-world" to "hello_world".
func ToSnakeCase(s string) string {
	s = lowerUpper.ReplaceAllString(s, "${1}_${2}")
	s = snakeSeparators.ReplaceAllString(s, "_")
	return strings.ToLower(s)
}

// Truncate shortens s to length runes, ending with suffix.
func Truncate(s string, length int, suffix string) string {
	runes := []rune(s)
	if len(runes) <= length {
		return s
	}
	keep := length - utf8.RuneCountInString(suffix)
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + suffix
}

// NormalizeWhitespace trims s and collapses inner whitespace runs to one space.
func NormalizeWhitespace(s string) string {
	return whitespaceRuns.ReplaceAllString(strings.TrimSpace(s), " ")
}
