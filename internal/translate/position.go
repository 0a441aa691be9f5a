package translate

import (
	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// ToAnalyzerPosition converts an LSP 0-based (line, character) to the
// analyzer's 1-based (line, offset).
func ToAnalyzerPosition(p lsproto.Position) analyzer.AnalyzerPosition {
	return analyzer.AnalyzerPosition{Line: int32(p.Line) + 1, Offset: int32(p.Character) + 1}
}

// FromAnalyzerPosition converts the analyzer's 1-based (line, offset) to
// an LSP 0-based (line, character).
func FromAnalyzerPosition(p analyzer.AnalyzerPosition) lsproto.Position {
	line := p.Line - 1
	offset := p.Offset - 1
	if line < 0 {
		line = 0
	}
	if offset < 0 {
		offset = 0
	}
	return lsproto.Position{Line: uint32(line), Character: uint32(offset)}
}

// ToAnalyzerRange converts an LSP range to an analyzer {start, end} range.
func ToAnalyzerRange(r lsproto.Range) analyzer.AnalyzerRange {
	return analyzer.AnalyzerRange{Start: ToAnalyzerPosition(r.Start), End: ToAnalyzerPosition(r.End)}
}

// FromAnalyzerRange converts an analyzer {start, end} range to LSP.
func FromAnalyzerRange(r analyzer.AnalyzerRange) lsproto.Range {
	return lsproto.Range{Start: FromAnalyzerPosition(r.Start), End: FromAnalyzerPosition(r.End)}
}

// FromAnalyzerTextEdit converts one analyzer text edit to its LSP shape.
func FromAnalyzerTextEdit(e analyzer.AnalyzerTextEdit) *lsproto.TextEdit {
	return &lsproto.TextEdit{
		Range:   lsproto.Range{Start: FromAnalyzerPosition(e.Start), End: FromAnalyzerPosition(e.End)},
		NewText: e.NewText,
	}
}

// FromAnalyzerTextEdits converts a slice of analyzer text edits.
func FromAnalyzerTextEdits(edits []analyzer.AnalyzerTextEdit) []*lsproto.TextEdit {
	out := make([]*lsproto.TextEdit, len(edits))
	for i, e := range edits {
		out[i] = FromAnalyzerTextEdit(e)
	}
	return out
}

// FileChangeTextsToWorkspaceEdit groups a set of per-file analyzer text
// changes into an LSP WorkspaceEdit keyed by document URI.
func FileChangeTextsToWorkspaceEdit(changes []analyzer.AnalyzerFileTextChanges) *lsproto.WorkspaceEdit {
	edit := &lsproto.WorkspaceEdit{Changes: make(map[lsproto.DocumentUri][]*lsproto.TextEdit, len(changes))}
	for _, c := range changes {
		edit.Changes[PathToURI(c.FileName)] = FromAnalyzerTextEdits(c.TextChanges)
	}
	return edit
}

// ScriptKindForLanguage derives the analyzer's script kind from an LSP
// language id.
func ScriptKindForLanguage(language string) analyzer.ScriptKind {
	switch language {
	case "typescript":
		return analyzer.ScriptKindTS
	case "typescriptreact":
		return analyzer.ScriptKindTSX
	case "javascript":
		return analyzer.ScriptKindJS
	case "javascriptreact":
		return analyzer.ScriptKindJSX
	default:
		return analyzer.ScriptKindNone
	}
}

// DiagnosticSeverity maps an analyzer diagnostic category to LSP severity.
func DiagnosticSeverity(category string) lsproto.DiagnosticSeverity {
	switch category {
	case "error":
		return lsproto.DiagnosticSeverityError
	case "warning":
		return lsproto.DiagnosticSeverityWarning
	case "suggestion":
		return lsproto.DiagnosticSeverityHint
	default:
		return lsproto.DiagnosticSeverityInformation
	}
}

// FromAnalyzerDiagnostic converts one analyzer diagnostic to LSP shape,
// tagging it with source "typescript".
func FromAnalyzerDiagnostic(d analyzer.AnalyzerDiagnostic) *lsproto.Diagnostic {
	var code any
	if d.Code != 0 {
		code = d.Code
	}
	return &lsproto.Diagnostic{
		Range:    FromAnalyzerRange(analyzer.AnalyzerRange{Start: d.Start, End: d.End}),
		Severity: DiagnosticSeverity(d.Category),
		Code:     code,
		Source:   "typescript",
		Message:  d.Text,
	}
}
