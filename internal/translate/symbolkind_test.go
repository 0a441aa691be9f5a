package translate

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

func TestSymbolKindFromAnalyzer(t *testing.T) {
	t.Parallel()
	assert.Equal(t, lsproto.SymbolKindClass, SymbolKindFromAnalyzer("class"))
	assert.Equal(t, lsproto.SymbolKindMethod, SymbolKindFromAnalyzer("method"))
	assert.Equal(t, lsproto.SymbolKindVariable, SymbolKindFromAnalyzer("something-unknown"))
}

func TestNavTreeToDocumentSymbolsDropsGlobalRoot(t *testing.T) {
	t.Parallel()
	uri := lsproto.DocumentUri("file:///a.ts")
	root := analyzer.NavTreeItem{
		Text: "<global>",
		Kind: "module",
		ChildItems: []analyzer.NavTreeItem{
			{
				Text: "Foo",
				Kind: "class",
				Spans: []analyzer.AnalyzerRange{
					{Start: analyzer.AnalyzerPosition{Line: 1, Offset: 1}, End: analyzer.AnalyzerPosition{Line: 3, Offset: 2}},
				},
				ChildItems: []analyzer.NavTreeItem{
					{
						Text: "bar",
						Kind: "method",
						Spans: []analyzer.AnalyzerRange{
							{Start: analyzer.AnalyzerPosition{Line: 2, Offset: 3}, End: analyzer.AnalyzerPosition{Line: 2, Offset: 10}},
						},
					},
				},
			},
		},
	}

	symbols := NavTreeToDocumentSymbols(uri, root)
	assert.Equal(t, 2, len(symbols))
	assert.Equal(t, "Foo", symbols[0].Name)
	assert.Equal(t, "", symbols[0].ContainerName)
	assert.Equal(t, "bar", symbols[1].Name)
	assert.Equal(t, "Foo", symbols[1].ContainerName)
}
