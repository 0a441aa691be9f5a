package translate

import (
	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// CompletionEntryToItem converts one analyzer completion entry into an
// LSP completion item, attaching an opaque data payload so a later
// completionItem/resolve can re-request entry details without the editor
// round-tripping the full entry back to us.
func CompletionEntryToItem(fileName string, pos lsproto.Position, e analyzer.CompletionEntry) *lsproto.CompletionItem {
	item := &lsproto.CompletionItem{
		Label:    e.Name,
		Kind:     CompletionItemKindFromAnalyzer(e.Kind),
		SortText: e.SortText,
		Data: lsproto.CompletionData{
			FileName: fileName,
			Line:     int32(pos.Line) + 1,
			Offset:   int32(pos.Character) + 1,
			Name:     e.Name,
			Source:   e.Source,
		},
	}
	if e.InsertText != "" {
		item.InsertText = e.InsertText
	}
	return item
}

// CompletionEntriesToList converts a whole completionInfo response.
func CompletionEntriesToList(fileName string, pos lsproto.Position, resp analyzer.CompletionInfoResponse) *lsproto.CompletionList {
	items := make([]*lsproto.CompletionItem, len(resp.Entries))
	for i, e := range resp.Entries {
		items[i] = CompletionEntryToItem(fileName, pos, e)
	}
	return &lsproto.CompletionList{IsIncomplete: resp.IsIncomplete, Items: items}
}

// ApplyCompletionEntryDetails fills in the detail and documentation of an
// already-created completion item from a completionEntryDetails
// response, and attaches any additional edits the entry's code actions
// carry (e.g. an auto-import).
func ApplyCompletionEntryDetails(item *lsproto.CompletionItem, details analyzer.CompletionEntryDetailsResponse) {
	item.Detail = RenderDisplayParts(details.DisplayParts)
	if doc := RenderDocumentation("", details.Documentation, details.Tags); doc != "" {
		item.Documentation = &lsproto.MarkupContent{Kind: lsproto.MarkupKindMarkdown, Value: doc}
	}
	for _, action := range details.CodeActions {
		for _, change := range action.Changes {
			item.AdditionalTextEdits = append(item.AdditionalTextEdits, FromAnalyzerTextEdits(change.TextChanges)...)
		}
		if len(action.Commands) > 0 {
			item.Command = &lsproto.Command{
				Title:     action.Description,
				Command:   "_typescript.applyCompletionCodeAction",
				Arguments: []any{action.Commands},
			}
		}
	}
}

// QuickInfoToHover converts a quickinfo response into an LSP hover.
func QuickInfoToHover(resp analyzer.QuickInfoResponse) *lsproto.Hover {
	value := RenderDocumentation(resp.DisplayString, stringToParts(resp.Documentation), resp.Tags)
	r := FromAnalyzerRange(analyzer.AnalyzerRange{Start: resp.Start, End: resp.End})
	return &lsproto.Hover{
		Contents: lsproto.MarkupContent{Kind: lsproto.MarkupKindMarkdown, Value: value},
		Range:    &r,
	}
}

func stringToParts(s string) []analyzer.SymbolDisplayPart {
	if s == "" {
		return nil
	}
	return []analyzer.SymbolDisplayPart{{Text: s, Kind: "text"}}
}

// SignatureHelpFromAnalyzer converts a signatureHelp response into its LSP
// shape.
func SignatureHelpFromAnalyzer(resp analyzer.SignatureHelpResponse) *lsproto.SignatureHelp {
	sigs := make([]*lsproto.SignatureInformation, len(resp.Items))
	for i, it := range resp.Items {
		label := RenderDisplayParts(it.Prefix)
		params := make([]*lsproto.ParameterInformation, len(it.Parameters))
		for j, p := range it.Parameters {
			if j > 0 {
				label += RenderDisplayParts(it.Separator)
			}
			display := RenderDisplayParts(p.Display)
			label += display
			params[j] = &lsproto.ParameterInformation{Label: display}
		}
		label += RenderDisplayParts(it.Suffix)
		sigs[i] = &lsproto.SignatureInformation{
			Label:      label,
			Parameters: params,
		}
		if doc := RenderDisplayParts(it.Documentation); doc != "" {
			sigs[i].Documentation = &lsproto.MarkupContent{Kind: lsproto.MarkupKindMarkdown, Value: doc}
		}
	}
	return &lsproto.SignatureHelp{
		Signatures:      sigs,
		ActiveSignature: uint32(resp.SelectedItemIndex),
		ActiveParameter: uint32(resp.ArgumentIndex),
	}
}

// DefinitionEntriesToLocations converts definition/typeDefinition/
// implementation response arrays into LSP locations.
func DefinitionEntriesToLocations(entries []analyzer.DefinitionEntry) []lsproto.Location {
	out := make([]lsproto.Location, len(entries))
	for i, e := range entries {
		out[i] = lsproto.Location{
			URI:   PathToURI(e.File),
			Range: FromAnalyzerRange(analyzer.AnalyzerRange{Start: e.Start, End: e.End}),
		}
	}
	return out
}

// ReferenceEntriesToLocations converts a references response into plain
// LSP locations, dropping definition entries when includeDeclaration is
// false.
func ReferenceEntriesToLocations(entries []analyzer.ReferenceEntry, includeDeclaration bool) []lsproto.Location {
	out := make([]lsproto.Location, 0, len(entries))
	for _, e := range entries {
		if e.IsDefinition && !includeDeclaration {
			continue
		}
		out = append(out, lsproto.Location{
			URI:   PathToURI(e.File),
			Range: FromAnalyzerRange(analyzer.AnalyzerRange{Start: e.Start, End: e.End}),
		})
	}
	return out
}

// DocumentHighlightsFromAnalyzer converts the current file's highlight
// spans (the analyzer may return entries for other files too, which are
// dropped since LSP document highlights are single-file).
func DocumentHighlightsFromAnalyzer(fileName string, items []analyzer.DocumentHighlightsItem) []*lsproto.DocumentHighlight {
	var out []*lsproto.DocumentHighlight
	for _, item := range items {
		if item.File != fileName {
			continue
		}
		for _, span := range item.HighlightSpans {
			out = append(out, &lsproto.DocumentHighlight{
				Range: FromAnalyzerRange(analyzer.AnalyzerRange{Start: span.Start, End: span.End}),
				Kind:  highlightKind(span.Kind),
			})
		}
	}
	return out
}

func highlightKind(kind string) lsproto.DocumentHighlightKind {
	switch kind {
	case "writtenReference":
		return lsproto.DocumentHighlightKindWrite
	case "reference":
		return lsproto.DocumentHighlightKindRead
	default:
		return lsproto.DocumentHighlightKindText
	}
}

// RenameLocationsToWorkspaceEdit converts a rename response's per-file
// edit locations into an LSP WorkspaceEdit, substituting newName for each
// matched span's text.
func RenameLocationsToWorkspaceEdit(resp analyzer.RenameResponse, newName string) *lsproto.WorkspaceEdit {
	edit := &lsproto.WorkspaceEdit{Changes: make(map[lsproto.DocumentUri][]*lsproto.TextEdit, len(resp.Locs))}
	for _, loc := range resp.Locs {
		uri := PathToURI(loc.File)
		for _, l := range loc.Locs {
			edit.Changes[uri] = append(edit.Changes[uri], &lsproto.TextEdit{
				Range:   FromAnalyzerRange(analyzer.AnalyzerRange{Start: l.Start, End: l.End}),
				NewText: newName,
			})
		}
	}
	return edit
}

