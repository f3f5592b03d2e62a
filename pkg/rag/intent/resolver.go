package intent

import (
	"strings"

	"github.com/kunaldev758/chataffy-sub000/internal/constant"
)

// Kind is the coarse classification of an incoming visitor message,
// decided before any retrieval happens.
type Kind int

const (
	// KindQuestion goes through retrieval and grounding.
	KindQuestion Kind = iota
	// KindGreeting is a bare salutation; it gets a warm reply without
	// touching the index.
	KindGreeting
)

// Classify decides the message kind lexically. Matching is deliberately
// conservative: only a message that IS a greeting counts, not one that
// merely starts with one ("hi, how do refunds work?" is a question).
func Classify(message string) Kind {
	normalized := normalize(message)
	if normalized == "" {
		return KindQuestion
	}
	for _, phrase := range constant.GreetingPhrases {
		if normalized == phrase {
			return KindGreeting
		}
	}
	return KindQuestion
}

func normalize(message string) string {
	s := strings.ToLower(strings.TrimSpace(message))
	s = strings.TrimRight(s, "!?.,:; ")
	return strings.Join(strings.Fields(s), " ")
}
