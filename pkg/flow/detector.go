package flow

import "strings"

// signal is one independent yes/no check against normalized snippet text.
type signal func(normalized string) bool

var signals = map[Language][]signal{
	Python:     pythonSignals,
	JavaScript: javascriptSignals,
	Ruby:       rubySignals,
	Java:       javaSignals,
	Cpp:        cppSignals,
}

// Score is the number of signals a language matched.
type Score struct {
	Language Language `json:"language"`
	Votes    int      `json:"votes"`
}

// Scores returns the vote count of every language in detection order.
func Scores(code string) []Score {
	normalized := strings.ToLower(trimLine(code))

	scores := make([]Score, 0, len(detectionOrder))
	for _, lang := range detectionOrder {
		votes := 0
		for _, check := range signals[lang] {
			if check(normalized) {
				votes++
			}
		}
		scores = append(scores, Score{Language: lang, Votes: votes})
	}
	return scores
}

// Detect guesses the language of code. The language with the most votes
// wins; ties go to the language scored first, and DefaultLanguage is
// returned when nothing matched at all.
//
// Signals run against lowercased text, so the java println signal is written
// lowercase and does fire: a snippet holding only System.out.println("hi")
// detects as java. The browser tool this mirrors never matched that signal
// and reported javascript for such a snippet.
func Detect(code string) Language {
	return pick(Scores(code))
}

func pick(scores []Score) Language {
	best := Score{Language: DefaultLanguage}
	for _, s := range scores {
		if s.Votes > best.Votes {
			best = s
		}
	}
	return best.Language
}
