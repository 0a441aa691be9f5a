package server

import "github.com/tsgolsp/tsgo-bridge/internal/analyzer"

// handleAnalyzerEvent runs on the analyzer client's reader goroutine; it
// only recognizes diagnostic events and hands them to the queue, which is
// safe to call from any goroutine.
func (s *Server) handleAnalyzerEvent(ev analyzer.Event) {
	switch analyzer.DiagnosticEventKind(ev.Name) {
	case analyzer.DiagnosticEventSemantic, analyzer.DiagnosticEventSyntactic, analyzer.DiagnosticEventSuggestion:
		var body analyzer.DiagnosticEventBody
		if err := ev.Unmarshal(&body); err != nil {
			return
		}
		s.diagnostics.HandleEvent(body.File, analyzer.DiagnosticEventKind(ev.Name), body.Diagnostics)
	default:
		if s.logger.IsVerbose() {
			s.logger.Log("unhandled analyzer event", ev.Name)
		}
	}
}
