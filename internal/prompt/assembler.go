package prompt

import (
	"strings"

	"clin-summ/internal/corpus"
	"clin-summ/internal/errdefs"
)

// Spec describes one prompt to assemble. Examples are ordered by ascending
// retrieval distance (nearest first); rendering reverses them so the most
// similar exemplar sits immediately before the target input.
type Spec struct {
	Template  Template
	Examples  []corpus.Example
	Target    string
	MaxTokens int
}

// Render produces the final prompt text. If the rendered prompt exceeds
// MaxTokens, the farthest exemplars are dropped one at a time; the target
// input is never truncated. With zero exemplars still over budget, the
// case fails with a prompt-too-large error.
func (s Spec) Render() (string, int, error) {
	for n := len(s.Examples); n >= 0; n-- {
		text := render(s.Template, s.Examples[:n], s.Target)
		if tokens := CountTokens(text); tokens <= s.MaxTokens {
			return text, n, nil
		}
	}
	return "", 0, errdefs.PromptTooLarge(
		"target input does not fit %d tokens even with zero exemplars (template %s)",
		s.MaxTokens, s.Template.ID)
}

// render is pure: identical inputs always produce identical text.
func render(tmpl Template, nearestFirst []corpus.Example, target string) string {
	var b strings.Builder
	b.WriteString(tmpl.Instruction)
	b.WriteString("\n\n")

	// Farthest exemplar first, nearest last, per in-context recency effects.
	for i := len(nearestFirst) - 1; i >= 0; i-- {
		ex := nearestFirst[i]
		b.WriteString(tmpl.InputLabel)
		b.WriteString(": ")
		b.WriteString(ex.SourceText)
		b.WriteString("\n")
		b.WriteString(tmpl.OutputLabel)
		b.WriteString(": ")
		b.WriteString(ex.TargetSummary)
		b.WriteString("\n\n")
	}

	b.WriteString(tmpl.InputLabel)
	b.WriteString(": ")
	b.WriteString(target)
	b.WriteString("\n")
	b.WriteString(tmpl.OutputLabel)
	b.WriteString(":")
	return b.String()
}
