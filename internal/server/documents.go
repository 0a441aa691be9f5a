package server

import (
	"context"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/document"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

func (s *Server) handleDidOpen(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.DidOpenTextDocumentParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	uri := params.TextDocument.URI

	s.docsMu.Lock()
	existing, alreadyOpen := s.docs[uri]
	s.docsMu.Unlock()

	if alreadyOpen {
		oldLineCount := existing.LineCount()
		existing.ApplyChange(&lsproto.TextDocumentContentChangeEvent{Text: params.TextDocument.Text}, params.TextDocument.Version)
		s.sendChangeNotification(existing, nil, params.TextDocument.Text, oldLineCount)
		s.requestDiagnostics()
		return nil
	}

	doc := document.New(uri, params.TextDocument.LanguageID, params.TextDocument.Version, params.TextDocument.Text)
	s.docsMu.Lock()
	s.docs[uri] = doc
	s.docsMu.Unlock()

	path, ok := translate.URIToPath(uri)
	if !ok {
		return nil
	}
	if err := s.client.Notify(analyzer.CommandOpen, &analyzer.OpenArgs{
		File:            path,
		FileContent:     params.TextDocument.Text,
		ScriptKindName:  translate.ScriptKindForLanguage(params.TextDocument.LanguageID),
		ProjectRootPath: s.rootPath,
	}); err != nil {
		return err
	}
	s.requestDiagnostics()
	return nil
}

func (s *Server) handleDidChange(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.DidChangeTextDocumentParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	uri := params.TextDocument.URI

	doc, ok := s.getDocument(uri)
	if !ok {
		return lsproto.ErrInvalidRequest
	}

	for _, change := range params.ContentChanges {
		var analyzerRange *lsproto.Range
		if change.Range != nil {
			analyzerRange = change.Range
		}
		oldLineCount := doc.LineCount()
		doc.ApplyChange(change, params.TextDocument.Version)
		s.sendChangeNotification(doc, analyzerRange, change.Text, oldLineCount)
	}
	doc.MarkAccessed()
	s.requestDiagnostics()
	return nil
}

// sendChangeNotification sends the analyzer "change" notification for one
// content-change entry. r is nil when the change replaces the whole
// document, in which case the analyzer is told to replace from (0,0) to
// the end of the document it still holds. oldLineCount must be the line
// count captured before doc.ApplyChange ran, since by the time this is
// called doc already holds the new text and can no longer report the
// extent the analyzer is replacing.
func (s *Server) sendChangeNotification(doc *document.Document, r *lsproto.Range, text string, oldLineCount int) {
	path, ok := translate.URIToPath(doc.URI())
	if !ok {
		return
	}
	if r == nil {
		// EndLine one past the last known line is clamped by the analyzer to
		// the document's actual end, same as sending a huge sentinel line
		// would be, but it fits in EndLine's int32 and matches a count we
		// already have on hand.
		_ = s.client.Notify(analyzer.CommandChange, &analyzer.ChangeArgs{
			File:         path,
			Line:         1,
			Offset:       1,
			EndLine:      int32(oldLineCount) + 1,
			EndOffset:    1,
			InsertString: text,
		})
		return
	}
	start := translate.ToAnalyzerPosition(r.Start)
	end := translate.ToAnalyzerPosition(r.End)
	_ = s.client.Notify(analyzer.CommandChange, &analyzer.ChangeArgs{
		File:         path,
		Line:         start.Line,
		Offset:       start.Offset,
		EndLine:      end.Line,
		EndOffset:    end.Offset,
		InsertString: text,
	})
}

func (s *Server) handleDidClose(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.DidCloseTextDocumentParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	uri := params.TextDocument.URI

	s.docsMu.Lock()
	delete(s.docs, uri)
	s.docsMu.Unlock()

	if path, ok := translate.URIToPath(uri); ok {
		_ = s.client.Notify(analyzer.CommandClose, &analyzer.CloseArgs{File: path})
	}
	s.diagnostics.Clear(uri)
	return nil
}
