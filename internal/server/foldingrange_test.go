package server

import (
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/document"
)

func TestFoldingRangeDropsEndregionComment(t *testing.T) {
	t.Parallel()
	text := "// #region foo\nconst x = 1;\n// #endregion\n"
	doc := document.New("file:///a.ts", document.LanguageTypeScript, 1, text)

	spans := []analyzer.OutliningSpan{
		{Kind: "region", TextSpan: analyzer.AnalyzerRange{
			Start: analyzer.AnalyzerPosition{Line: 1, Offset: 1},
			End:   analyzer.AnalyzerPosition{Line: 3, Offset: 1},
		}},
		{Kind: "comment", TextSpan: analyzer.AnalyzerRange{
			Start: analyzer.AnalyzerPosition{Line: 3, Offset: 1},
			End:   analyzer.AnalyzerPosition{Line: 3, Offset: 14},
		}},
	}

	ranges := foldingRangesWithHeuristic(doc, spans)
	assert.Equal(t, 1, len(ranges))
	assert.Equal(t, uint32(0), ranges[0].StartLine)
}

func TestFoldingRangePullsBackClosingBrace(t *testing.T) {
	t.Parallel()
	text := "function foo() {\n  return 1;\n}\n"
	doc := document.New("file:///a.ts", document.LanguageTypeScript, 1, text)

	spans := []analyzer.OutliningSpan{
		{Kind: "code", TextSpan: analyzer.AnalyzerRange{
			Start: analyzer.AnalyzerPosition{Line: 1, Offset: 17},
			End:   analyzer.AnalyzerPosition{Line: 3, Offset: 2},
		}},
	}

	ranges := foldingRangesWithHeuristic(doc, spans)
	assert.Equal(t, 1, len(ranges))
	assert.Equal(t, uint32(0), ranges[0].StartLine)
	assert.Equal(t, uint32(1), ranges[0].EndLine)
}
