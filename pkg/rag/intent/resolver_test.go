package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name     string
		message  string
		expected Kind
	}{
		{"bare hi", "hi", KindGreeting},
		{"hello with punctuation", "Hello!!", KindGreeting},
		{"good morning", "Good morning", KindGreeting},
		{"whats up", "what's up?", KindGreeting},
		{"padded whitespace", "  hey there  ", KindGreeting},
		{"greeting followed by question", "hi, how do refunds work?", KindQuestion},
		{"plain question", "how much does the starter plan cost?", KindQuestion},
		{"empty message", "", KindQuestion},
		{"word containing greeting", "highlights of the release", KindQuestion},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Classify(tt.message))
		})
	}
}
