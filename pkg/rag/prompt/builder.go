package prompt

import (
	"fmt"
	"strings"

	"github.com/kunaldev758/chataffy-sub000/internal/constant"
	"github.com/kunaldev758/chataffy-sub000/pkg/rag/retriever"
)

// Builder renders the system prompts for the three answer variants.
// The persona is the tenant's public-facing name; visitors only ever see
// the bot speaking as that organization.
type Builder struct {
	persona string
}

func NewBuilder(persona string) *Builder {
	if strings.TrimSpace(persona) == "" {
		persona = constant.DefaultPersona
	}
	return &Builder{persona: persona}
}

// Grounded builds the context-backed system prompt. Passages are numbered
// so the model can be steered to them without inventing citations.
func (b *Builder) Grounded(passages []retriever.Passage) string {
	return fmt.Sprintf(constant.GroundedSystemPromptTemplate, b.persona, renderPassages(passages))
}

func (b *Builder) Greeting() string {
	return fmt.Sprintf(constant.GreetingSystemPromptTemplate, b.persona)
}

func (b *Builder) Redirect() string {
	return fmt.Sprintf(constant.RedirectSystemPromptTemplate, b.persona, b.persona)
}

func renderPassages(passages []retriever.Passage) string {
	if len(passages) == 0 {
		return "(no context available)"
	}

	var sb strings.Builder
	for i, p := range passages {
		if i > 0 {
			sb.WriteString("\n\n")
		}
		sb.WriteString(fmt.Sprintf("[%d]", i+1))
		if p.Title != "" {
			sb.WriteString(" ")
			sb.WriteString(p.Title)
		}
		if p.SourceRef != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", p.SourceRef))
		}
		sb.WriteString("\n")
		sb.WriteString(p.Text)
	}
	return sb.String()
}
