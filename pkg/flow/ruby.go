package flow

import (
	"regexp"
	"strings"
)

type rubyRules struct{}

func (rubyRules) Language() Language { return Ruby }

func (rubyRules) Keep(line string) bool {
	return keepLine(line, "#", "require")
}

func (rubyRules) Classify(line string) Characteristics {
	isFunction := strings.Contains(line, "def ")
	return Characteristics{
		// "end" matches anywhere in the line, including inside identifiers.
		IsControlFlow: isFunction || containsAny(line, "if ", "do ", "end", "class "),
		IsFunction:    isFunction,
		IsLoop:        containsAny(line, "do ", "each "),
		IsConditional: containsAny(line, "if ", "else"),
	}
}

var (
	rbPutsRe  = regexp.MustCompile(`\bputs\s+["']`)
	rbDefRe   = regexp.MustCompile(`\bdef\s+\w+\b`)
	rbClassRe = regexp.MustCompile(`\bclass\s+\w+\b`)
	rbBlockRe = regexp.MustCompile(`\bdo\s*\|`)
)

var rubySignals = []signal{
	rbPutsRe.MatchString,
	rbDefRe.MatchString,
	rbClassRe.MatchString,
	rbBlockRe.MatchString,
	func(code string) bool { return strings.Contains(code, "end") },
}
