// Package diagnostics joins the analyzer's independent semantic/syntax/
// suggestion diagnostic events per file into the single list an editor
// expects, and publishes it through the LSP client.
package diagnostics

import (
	"sync"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

// Publisher sends a textDocument/publishDiagnostics notification to the
// editor. The server implements this by writing to its outgoing queue.
type Publisher interface {
	PublishDiagnostics(params *lsproto.PublishDiagnosticsParams)
}

// Queue holds, per file URI, the most recent diagnostic list the analyzer
// reported for each of the three kinds, and publishes their union.
type Queue struct {
	publisher Publisher

	mu    sync.Mutex
	byURI map[lsproto.DocumentUri]map[analyzer.DiagnosticEventKind][]analyzer.AnalyzerDiagnostic
}

func New(publisher Publisher) *Queue {
	return &Queue{
		publisher: publisher,
		byURI:     make(map[lsproto.DocumentUri]map[analyzer.DiagnosticEventKind][]analyzer.AnalyzerDiagnostic),
	}
}

// HandleEvent replaces the per-kind diagnostic list for a file and
// publishes the union across all three kinds.
func (q *Queue) HandleEvent(file string, kind analyzer.DiagnosticEventKind, diags []analyzer.AnalyzerDiagnostic) {
	uri := translate.PathToURI(file)

	q.mu.Lock()
	kinds, ok := q.byURI[uri]
	if !ok {
		kinds = make(map[analyzer.DiagnosticEventKind][]analyzer.AnalyzerDiagnostic, 3)
		q.byURI[uri] = kinds
	}
	kinds[kind] = diags
	union := q.unionLocked(kinds)
	q.mu.Unlock()

	q.publish(uri, union)
}

func (q *Queue) unionLocked(kinds map[analyzer.DiagnosticEventKind][]analyzer.AnalyzerDiagnostic) []*lsproto.Diagnostic {
	var out []*lsproto.Diagnostic
	for _, kind := range []analyzer.DiagnosticEventKind{
		analyzer.DiagnosticEventSyntactic,
		analyzer.DiagnosticEventSemantic,
		analyzer.DiagnosticEventSuggestion,
	} {
		for _, d := range kinds[kind] {
			out = append(out, translate.FromAnalyzerDiagnostic(d))
		}
	}
	return out
}

func (q *Queue) publish(uri lsproto.DocumentUri, diagnostics []*lsproto.Diagnostic) {
	if diagnostics == nil {
		diagnostics = []*lsproto.Diagnostic{}
	}
	q.publisher.PublishDiagnostics(&lsproto.PublishDiagnosticsParams{URI: uri, Diagnostics: diagnostics})
}

// Clear publishes an empty diagnostic list for uri and drops its state,
// used when the corresponding document is closed.
func (q *Queue) Clear(uri lsproto.DocumentUri) {
	q.mu.Lock()
	delete(q.byURI, uri)
	q.mu.Unlock()
	q.publish(uri, nil)
}
