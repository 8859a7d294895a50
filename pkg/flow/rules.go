package flow

import (
	"strings"
	"unicode"
)

// RuleSet is the per-language pair of line filter and line classifier.
type RuleSet interface {
	// Language returns the language the rules belong to.
	Language() Language

	// Keep reports whether a raw line is significant enough to become a node.
	Keep(line string) bool

	// Classify derives the characteristics of a raw line.
	Classify(line string) Characteristics
}

// registry holds one RuleSet per supported language. It is never mutated
// after package initialization.
var registry = map[Language]RuleSet{
	Python:     pythonRules{},
	JavaScript: javascriptRules{},
	Java:       javaRules{},
	Ruby:       rubyRules{},
	Cpp:        cppRules{},
}

// RulesFor returns the RuleSet registered for lang.
func RulesFor(lang Language) (RuleSet, bool) {
	rs, ok := registry[lang]
	return rs, ok
}

// rulesOrDefault returns the rules for lang, falling back to the
// DefaultLanguage rules for an unregistered tag.
func rulesOrDefault(lang Language) RuleSet {
	if rs, ok := registry[lang]; ok {
		return rs
	}
	return registry[DefaultLanguage]
}

// trimLine strips surrounding whitespace and byte order marks, so a file
// saved with a BOM filters the same as one without.
func trimLine(line string) string {
	return strings.TrimFunc(line, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\uFEFF'
	})
}

// keepLine is the filter shared by every language: a trimmed line is dropped
// when it is empty or starts with any of the given prefixes.
func keepLine(line string, dropPrefixes ...string) bool {
	trimmed := trimLine(line)
	if trimmed == "" {
		return false
	}
	for _, p := range dropPrefixes {
		if strings.HasPrefix(trimmed, p) {
			return false
		}
	}
	return true
}

// containsAny reports whether line contains at least one of subs.
func containsAny(line string, subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(line, s) {
			return true
		}
	}
	return false
}

// containsAll reports whether line contains every one of subs.
func containsAll(line string, subs ...string) bool {
	for _, s := range subs {
		if !strings.Contains(line, s) {
			return false
		}
	}
	return true
}

// isLoopLine is the loop check shared by the brace languages and python.
func isLoopLine(line string) bool {
	return containsAny(line, "for ", "while ")
}
