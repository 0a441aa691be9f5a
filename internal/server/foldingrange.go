package server

import (
	"regexp"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/document"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

var endregionPattern = regexp.MustCompile(`(?i)^\s*//\s*#endregion`)

// foldingRangesWithHeuristic converts the analyzer's outlining spans to
// LSP folding ranges, dropping #endregion comment markers and pulling a
// span's closing line back by one when it ends right after a "}" so
// the brace stays visible when folded.
func foldingRangesWithHeuristic(doc *document.Document, spans []analyzer.OutliningSpan) []*lsproto.FoldingRange {
	out := make([]*lsproto.FoldingRange, 0, len(spans))
	for _, span := range spans {
		kind := span.Kind
		if kind == "comment" {
			startLine := int(span.TextSpan.Start.Line) - 1
			if endregionPattern.MatchString(doc.LineText(startLine)) {
				continue
			}
		}

		startLine := uint32(span.TextSpan.Start.Line - 1)
		endLine := uint32(span.TextSpan.End.Line - 1)

		endPos := translate.FromAnalyzerPosition(span.TextSpan.End)
		if endsWithClosingBrace(doc, endPos) && endLine > startLine {
			endLine--
		}

		out = append(out, &lsproto.FoldingRange{
			StartLine: startLine,
			EndLine:   endLine,
			Kind:      foldingKindFor(kind),
		})
	}
	return out
}

func endsWithClosingBrace(doc *document.Document, pos lsproto.Position) bool {
	unit, ok := doc.CodeUnitBefore(doc.OffsetAt(pos))
	return ok && unit == '}'
}

func foldingKindFor(kind string) lsproto.FoldingRangeKind {
	switch kind {
	case "comment":
		return lsproto.FoldingRangeKindComment
	case "region":
		return lsproto.FoldingRangeKindRegion
	case "imports":
		return lsproto.FoldingRangeKindImports
	default:
		return ""
	}
}
