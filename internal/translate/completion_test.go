package translate

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

func TestCompletionEntryToItemAttachesData(t *testing.T) {
	t.Parallel()
	pos := lsproto.Position{Line: 2, Character: 5}
	item := CompletionEntryToItem("/repo/a.ts", pos, analyzer.CompletionEntry{
		Name: "foo", Kind: "method", SortText: "0",
	})
	assert.Equal(t, "foo", item.Label)
	assert.Equal(t, lsproto.CompletionItemKindMethod, item.Kind)
	data, ok := item.Data.(lsproto.CompletionData)
	assert.Assert(t, ok)
	assert.Equal(t, "/repo/a.ts", data.FileName)
	assert.Equal(t, int32(3), data.Line)
	assert.Equal(t, int32(6), data.Offset)
	assert.Equal(t, "foo", data.Name)
}

func TestReferenceEntriesToLocationsFiltersDeclaration(t *testing.T) {
	t.Parallel()
	entries := []analyzer.ReferenceEntry{
		{File: "/repo/a.ts", IsDefinition: true},
		{File: "/repo/a.ts", IsDefinition: false},
	}
	withDecl := ReferenceEntriesToLocations(entries, true)
	assert.Equal(t, 2, len(withDecl))

	withoutDecl := ReferenceEntriesToLocations(entries, false)
	assert.Equal(t, 1, len(withoutDecl))
}

func TestDocumentHighlightsFromAnalyzerFiltersOtherFiles(t *testing.T) {
	t.Parallel()
	items := []analyzer.DocumentHighlightsItem{
		{File: "/repo/a.ts", HighlightSpans: []analyzer.HighlightSpan{
			{Kind: "writtenReference", Start: analyzer.AnalyzerPosition{Line: 1, Offset: 1}, End: analyzer.AnalyzerPosition{Line: 1, Offset: 4}},
		}},
		{File: "/repo/b.ts", HighlightSpans: []analyzer.HighlightSpan{
			{Kind: "reference", Start: analyzer.AnalyzerPosition{Line: 1, Offset: 1}, End: analyzer.AnalyzerPosition{Line: 1, Offset: 4}},
		}},
	}
	highlights := DocumentHighlightsFromAnalyzer("/repo/a.ts", items)
	assert.Equal(t, 1, len(highlights))
	assert.Equal(t, lsproto.DocumentHighlightKindWrite, highlights[0].Kind)
}

func TestSignatureHelpFromAnalyzer(t *testing.T) {
	t.Parallel()
	resp := analyzer.SignatureHelpResponse{
		Items: []analyzer.SignatureHelpItem{
			{
				Prefix:    []analyzer.SymbolDisplayPart{{Text: "foo("}},
				Suffix:    []analyzer.SymbolDisplayPart{{Text: ")"}},
				Separator: []analyzer.SymbolDisplayPart{{Text: ", "}},
				Parameters: []analyzer.SignatureHelpParameter{
					{Display: []analyzer.SymbolDisplayPart{{Text: "x: number"}}},
					{Display: []analyzer.SymbolDisplayPart{{Text: "y: number"}}},
				},
			},
		},
		SelectedItemIndex: 0,
		ArgumentIndex:     1,
	}
	help := SignatureHelpFromAnalyzer(resp)
	assert.Equal(t, 1, len(help.Signatures))
	assert.Equal(t, "foo(x: number, y: number)", help.Signatures[0].Label)
	assert.Equal(t, uint32(1), help.ActiveParameter)
}

func TestRenameLocationsToWorkspaceEdit(t *testing.T) {
	t.Parallel()
	resp := analyzer.RenameResponse{
		Info: analyzer.RenameInfo{CanRename: true},
		Locs: []analyzer.RenameResponseLocation{
			{
				File: "/repo/a.ts",
				Locs: []analyzer.AnalyzerTextEdit{
					{Start: analyzer.AnalyzerPosition{Line: 1, Offset: 1}, End: analyzer.AnalyzerPosition{Line: 1, Offset: 4}},
				},
			},
		},
	}
	edit := RenameLocationsToWorkspaceEdit(resp, "bar")
	edits, ok := edit.Changes[PathToURI("/repo/a.ts")]
	assert.Assert(t, ok)
	assert.Equal(t, 1, len(edits))
	assert.Equal(t, "bar", edits[0].NewText)
}
