package diagnostics

import (
	"sync"
	"testing"

	"gotest.tools/v3/assert"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

type fakePublisher struct {
	mu   sync.Mutex
	last map[lsproto.DocumentUri]*lsproto.PublishDiagnosticsParams
}

func newFakePublisher() *fakePublisher {
	return &fakePublisher{last: make(map[lsproto.DocumentUri]*lsproto.PublishDiagnosticsParams)}
}

func (p *fakePublisher) PublishDiagnostics(params *lsproto.PublishDiagnosticsParams) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.last[params.URI] = params
}

func TestHandleEventUnionsAcrossKinds(t *testing.T) {
	t.Parallel()
	pub := newFakePublisher()
	q := New(pub)

	uri := translate.PathToURI("/repo/a.ts")
	q.HandleEvent("/repo/a.ts", analyzer.DiagnosticEventSyntactic, []analyzer.AnalyzerDiagnostic{
		{Category: "error", Text: "missing semicolon"},
	})
	q.HandleEvent("/repo/a.ts", analyzer.DiagnosticEventSemantic, []analyzer.AnalyzerDiagnostic{
		{Category: "error", Text: "type mismatch"},
	})

	params := pub.last[uri]
	assert.Assert(t, params != nil)
	assert.Equal(t, 2, len(params.Diagnostics))
	assert.Equal(t, "missing semicolon", params.Diagnostics[0].Message)
	assert.Equal(t, "type mismatch", params.Diagnostics[1].Message)
}

func TestHandleEventReplacesPriorKind(t *testing.T) {
	t.Parallel()
	pub := newFakePublisher()
	q := New(pub)

	q.HandleEvent("/repo/a.ts", analyzer.DiagnosticEventSemantic, []analyzer.AnalyzerDiagnostic{
		{Category: "error", Text: "first"},
	})
	q.HandleEvent("/repo/a.ts", analyzer.DiagnosticEventSemantic, []analyzer.AnalyzerDiagnostic{
		{Category: "error", Text: "second"},
	})

	uri := translate.PathToURI("/repo/a.ts")
	params := pub.last[uri]
	assert.Equal(t, 1, len(params.Diagnostics))
	assert.Equal(t, "second", params.Diagnostics[0].Message)
}

func TestClearPublishesEmptyList(t *testing.T) {
	t.Parallel()
	pub := newFakePublisher()
	q := New(pub)

	q.HandleEvent("/repo/a.ts", analyzer.DiagnosticEventSyntactic, []analyzer.AnalyzerDiagnostic{
		{Category: "error", Text: "x"},
	})
	uri := translate.PathToURI("/repo/a.ts")
	q.Clear(uri)

	params := pub.last[uri]
	assert.Assert(t, params != nil)
	assert.Equal(t, 0, len(params.Diagnostics))
}
