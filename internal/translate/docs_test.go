package translate

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
)

func TestRenderDocumentationFencesDisplayString(t *testing.T) {
	t.Parallel()
	got := RenderDocumentation(
		"function foo(): void",
		[]analyzer.SymbolDisplayPart{{Text: "does the foo thing."}},
		[]analyzer.JSDocTag{{Name: "param", Text: "x the input"}, {Name: "deprecated"}},
	)
	want := "```typescript\nfunction foo(): void\n```\n\ndoes the foo thing.\n\n*@param* x the input\n\n*@deprecated*"
	assert.Equal(t, want, got)
}

func TestRenderDocumentationEmpty(t *testing.T) {
	t.Parallel()
	assert.Equal(t, "", RenderDocumentation("", nil, nil))
}
