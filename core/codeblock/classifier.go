package codeblock

import "strings"

// Defaults for KeywordClassifier.
const DefaultMinLines = 3

var DefaultKeywords = []string{"kubectl"}

// Classifier decides whether a code fragment is worth keeping as a usage
// example. Trivial fragments stay inline as plain text.
type Classifier interface {
	Significant(text string) bool
}

// ClassifierFunc adapts a plain function to Classifier.
type ClassifierFunc func(text string) bool

func (f ClassifierFunc) Significant(text string) bool { return f(text) }

// KeywordClassifier treats a fragment as significant when it spans at least
// MinLines lines or contains one of Keywords.
type KeywordClassifier struct {
	MinLines int
	Keywords []string
}

// DefaultClassifier returns the stock classifier: 3 lines or "kubectl".
func DefaultClassifier() KeywordClassifier {
	return KeywordClassifier{MinLines: DefaultMinLines, Keywords: DefaultKeywords}
}

// Significant implements Classifier.
func (c KeywordClassifier) Significant(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}
	if c.MinLines > 0 && lineCount(text) >= c.MinLines {
		return true
	}
	for _, kw := range c.Keywords {
		if kw != "" && strings.Contains(text, kw) {
			return true
		}
	}
	return false
}

func lineCount(text string) int {
	return strings.Count(text, "\n") + 1
}
