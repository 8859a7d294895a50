package flow

import (
	"regexp"
	"strings"
)

type pythonRules struct{}

func (pythonRules) Language() Language { return Python }

func (pythonRules) Keep(line string) bool {
	return keepLine(line, "#", "import", "from")
}

func (pythonRules) Classify(line string) Characteristics {
	isFunction := strings.Contains(line, "def ")
	return Characteristics{
		IsControlFlow: isFunction || containsAny(line, "if ", "for ", "while ", "class "),
		IsFunction:    isFunction,
		IsLoop:        isLoopLine(line),
		IsConditional: containsAny(line, "if ", "elif", "else"),
	}
}

var (
	pyPrintRe    = regexp.MustCompile(`\bprint\s*\(["']`)
	pyDefRe      = regexp.MustCompile(`\bdef\s+\w+\s*\(`)
	pyBlockEndRe = regexp.MustCompile(`:\s*$`)
	pyImportRe   = regexp.MustCompile(`\bimport\s+\w+`)
)

var pythonSignals = []signal{
	pyPrintRe.MatchString,
	pyDefRe.MatchString,
	pythonBlockHeader,
	pyImportRe.MatchString,
	func(code string) bool { return strings.Contains(code, "__init__") },
}

// pythonBlockHeader checks that the first def/class/for/while line ends in a
// colon. Later header lines are not looked at.
func pythonBlockHeader(code string) bool {
	for _, line := range strings.Split(code, "\n") {
		if containsAny(line, "def ", "class ", "for ", "while ") {
			return pyBlockEndRe.MatchString(line)
		}
	}
	return false
}
