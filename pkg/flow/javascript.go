package flow

import (
	"regexp"
	"strings"
)

type javascriptRules struct{}

func (javascriptRules) Language() Language { return JavaScript }

func (javascriptRules) Keep(line string) bool {
	return keepLine(line, "//", "import", "export")
}

func (javascriptRules) Classify(line string) Characteristics {
	return Characteristics{
		IsControlFlow: strings.Contains(line, "function ") ||
			containsAll(line, "const ", "=>") ||
			containsAny(line, "if ", "for ", "while ", "class "),
		IsFunction:    containsAny(line, "function ", "=>"),
		IsLoop:        isLoopLine(line),
		IsConditional: containsAny(line, "if ", "else"),
	}
}

var (
	jsConsoleLogRe = regexp.MustCompile(`\bconsole\.log\s*\(["']`)
	jsDeclRe       = regexp.MustCompile(`\b(const|let|var)\s+\w+\s*=`)
	jsFuncClassRe  = regexp.MustCompile(`\b(function|class)\s+\w+`)
	jsArrowRe      = regexp.MustCompile(`=>\s*\{?`)
)

var javascriptSignals = []signal{
	jsConsoleLogRe.MatchString,
	jsDeclRe.MatchString,
	jsFuncClassRe.MatchString,
	jsArrowRe.MatchString,
	func(code string) bool { return containsAny(code, "export ", "import ") },
}
