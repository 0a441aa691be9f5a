package translate

import (
	"strings"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
)

// RenderDisplayParts concatenates a SymbolDisplayPart sequence into plain
// text, discarding the per-part styling the analyzer attaches (it has no
// LSP equivalent outside of Markdown code fences).
func RenderDisplayParts(parts []analyzer.SymbolDisplayPart) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

// RenderDocumentation builds a GitHub-flavored Markdown block from a
// symbol's documentation comment and JSDoc tags, suitable for an LSP
// hover or completion-resolve documentation field. displayString, when
// non-empty, is wrapped in a ```typescript fenced code block first.
func RenderDocumentation(displayString string, documentation []analyzer.SymbolDisplayPart, tags []analyzer.JSDocTag) string {
	var b strings.Builder
	if displayString != "" {
		b.WriteString("```typescript\n")
		b.WriteString(displayString)
		b.WriteString("\n```")
	}
	if doc := RenderDisplayParts(documentation); doc != "" {
		if b.Len() > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(doc)
	}
	for _, tag := range tags {
		b.WriteString("\n\n")
		b.WriteString(renderTag(tag))
	}
	return b.String()
}

func renderTag(tag analyzer.JSDocTag) string {
	if tag.Text == "" {
		return "*@" + tag.Name + "*"
	}
	return "*@" + tag.Name + "* " + tag.Text
}
