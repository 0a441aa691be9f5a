package server

import (
	"context"

	"github.com/go-json-experiment/json"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/discovery"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

// resolvedPosition resolves a text-document-position request to an
// analyzer file path and 1-based position, marking the document accessed.
// ok is false when the URI does not resolve to a path, in which case
// callers return an empty result rather than an error.
func (s *Server) resolvedPosition(params lsproto.TextDocumentPositionParams) (path string, pos analyzer.AnalyzerPosition, ok bool) {
	path, ok = translate.URIToPath(params.TextDocument.URI)
	if !ok {
		return "", analyzer.AnalyzerPosition{}, false
	}
	if doc, found := s.getDocument(params.TextDocument.URI); found {
		doc.MarkAccessed()
	}
	return path, translate.ToAnalyzerPosition(params.Position), true
}

func (s *Server) handleHover(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.TextDocumentPositionParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params)
	if !ok {
		s.sendResult(req.ID, nil)
		return nil
	}
	var resp analyzer.QuickInfoResponse
	err := s.interruptDiagnostics(ctx, func(resume func()) error {
		call, err := s.client.Issue(analyzer.CommandQuickinfo, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset})
		if err != nil {
			return err
		}
		resume()
		body, err := call.Await(ctx, nil)
		if err != nil {
			return err
		}
		return body.Decode(&resp)
	})
	if err != nil {
		s.logger.Log("hover request failed", err)
		s.sendResult(req.ID, nil)
		return nil
	}
	s.sendResult(req.ID, translate.QuickInfoToHover(resp))
	return nil
}

func (s *Server) handleDefinition(ctx context.Context, req *lsproto.RequestMessage) error {
	return s.handleGoTo(ctx, req, analyzer.CommandDefinition)
}

func (s *Server) handleTypeDefinition(ctx context.Context, req *lsproto.RequestMessage) error {
	return s.handleGoTo(ctx, req, analyzer.CommandTypeDefinition)
}

func (s *Server) handleImplementation(ctx context.Context, req *lsproto.RequestMessage) error {
	return s.handleGoTo(ctx, req, analyzer.CommandImplementation)
}

func (s *Server) handleGoTo(ctx context.Context, req *lsproto.RequestMessage, command string) error {
	var params lsproto.TextDocumentPositionParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params)
	if !ok {
		s.sendResult(req.ID, []lsproto.Location{})
		return nil
	}
	var entries []analyzer.DefinitionEntry
	body, err := s.client.Request(ctx, command, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&entries); err != nil {
		return err
	}
	s.sendResult(req.ID, translate.DefinitionEntriesToLocations(entries))
	return nil
}

func (s *Server) handleReferences(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.ReferenceParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params.TextDocumentPositionParams)
	if !ok {
		s.sendResult(req.ID, []lsproto.Location{})
		return nil
	}
	var resp analyzer.ReferencesResponse
	body, err := s.client.Request(ctx, analyzer.CommandReferences, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&resp); err != nil {
		return err
	}
	s.sendResult(req.ID, translate.ReferenceEntriesToLocations(resp.Refs, params.Context.IncludeDeclaration))
	return nil
}

func (s *Server) handleDocumentHighlight(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.TextDocumentPositionParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params)
	if !ok {
		s.sendResult(req.ID, []*lsproto.DocumentHighlight{})
		return nil
	}
	var items []analyzer.DocumentHighlightsItem
	body, err := s.client.Request(ctx, analyzer.CommandDocumentHighlights, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset}, nil)
	if err != nil {
		s.logger.Log("document highlight request failed", err)
		s.sendResult(req.ID, []*lsproto.DocumentHighlight{})
		return nil
	}
	if err := body.Decode(&items); err != nil {
		s.logger.Log("document highlight response decode failed", err)
		s.sendResult(req.ID, []*lsproto.DocumentHighlight{})
		return nil
	}
	s.sendResult(req.ID, translate.DocumentHighlightsFromAnalyzer(path, items))
	return nil
}

func (s *Server) handleDocumentSymbol(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.DocumentSymbolParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	uri := params.TextDocument.URI
	path, ok := translate.URIToPath(uri)
	if !ok {
		s.sendResult(req.ID, []*lsproto.SymbolInformation{})
		return nil
	}
	var tree analyzer.NavTreeItem
	body, err := s.client.Request(ctx, analyzer.CommandNavtree, &analyzer.FileLocationArgs{File: path}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&tree); err != nil {
		return err
	}
	s.sendResult(req.ID, translate.NavTreeToDocumentSymbols(uri, tree))
	return nil
}

func (s *Server) handleWorkspaceSymbol(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.WorkspaceSymbolParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	contextFile := s.anyOpenFileOrRoot()
	if contextFile == "" {
		s.sendResult(req.ID, []*lsproto.SymbolInformation{})
		return nil
	}
	var items []analyzer.NavtoItem
	body, err := s.client.Request(ctx, analyzer.CommandNavto, &navtoArgs{SearchValue: params.Query, File: contextFile, MaxResultCount: 256}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&items); err != nil {
		return err
	}
	s.sendResult(req.ID, translate.NavtoToWorkspaceSymbols(items))
	return nil
}

type navtoArgs struct {
	SearchValue    string `json:"searchValue"`
	File           string `json:"file"`
	MaxResultCount int    `json:"maxResultCount,omitempty"`
}

// anyOpenFileOrRoot gives navto a file context to search from, best-effort:
// any open file, or the workspace root if nothing is open.
func (s *Server) anyOpenFileOrRoot() string {
	s.docsMu.Lock()
	for uri := range s.docs {
		if path, ok := translate.URIToPath(uri); ok {
			s.docsMu.Unlock()
			return path
		}
	}
	s.docsMu.Unlock()
	return s.rootPath
}

func (s *Server) handleSignatureHelp(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.SignatureHelpParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params.TextDocumentPositionParams)
	if !ok {
		s.sendResult(req.ID, nil)
		return nil
	}
	var resp analyzer.SignatureHelpResponse
	err := s.interruptDiagnostics(ctx, func(resume func()) error {
		call, err := s.client.Issue(analyzer.CommandSignatureHelp, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset})
		if err != nil {
			return err
		}
		resume()
		body, err := call.Await(ctx, nil)
		if err != nil {
			return err
		}
		return body.Decode(&resp)
	})
	if err != nil {
		s.logger.Log("signature help request failed", err)
		s.sendResult(req.ID, nil)
		return nil
	}
	s.sendResult(req.ID, translate.SignatureHelpFromAnalyzer(resp))
	return nil
}

func (s *Server) handleCompletion(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.CompletionParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params.TextDocumentPositionParams)
	if !ok {
		s.sendResult(req.ID, &lsproto.CompletionList{})
		return nil
	}
	var resp analyzer.CompletionInfoResponse
	err := s.interruptDiagnostics(ctx, func(resume func()) error {
		call, err := s.client.Issue(analyzer.CommandCompletionInfo, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset})
		if err != nil {
			return err
		}
		resume()
		body, err := call.Await(ctx, nil)
		if err != nil {
			return err
		}
		return body.Decode(&resp)
	})
	if err != nil {
		return err
	}
	s.sendResult(req.ID, translate.CompletionEntriesToList(path, params.Position, resp))
	return nil
}

func (s *Server) handleCompletionResolve(ctx context.Context, req *lsproto.RequestMessage) error {
	var item lsproto.CompletionItem
	if err := req.UnmarshalParams(&item); err != nil {
		return err
	}
	raw, err := json.Marshal(item.Data)
	if err != nil {
		return err
	}
	var data lsproto.CompletionData
	if err := json.Unmarshal(raw, &data); err != nil {
		return err
	}

	var resp analyzer.CompletionEntryDetailsResponse
	err = s.interruptDiagnostics(ctx, func(resume func()) error {
		call, err := s.client.Issue(analyzer.CommandCompletionEntryDetails, &completionDetailsArgs{
			FileLocationArgs: analyzer.FileLocationArgs{File: data.FileName, Line: data.Line, Offset: data.Offset},
			EntryNames:       []string{data.Name},
		})
		if err != nil {
			return err
		}
		resume()
		body, err := call.Await(ctx, nil)
		if err != nil {
			return err
		}
		return body.Decode(&resp)
	})
	if err != nil {
		return err
	}
	translate.ApplyCompletionEntryDetails(&item, resp)
	s.sendResult(req.ID, &item)
	return nil
}

type completionDetailsArgs struct {
	analyzer.FileLocationArgs
	EntryNames []string `json:"entryNames"`
}

func (s *Server) handleRename(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.RenameParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, pos, ok := s.resolvedPosition(params.TextDocumentPositionParams)
	if !ok {
		s.sendResult(req.ID, nil)
		return nil
	}
	var resp analyzer.RenameResponse
	body, err := s.client.Request(ctx, analyzer.CommandRename, &analyzer.FileLocationArgs{File: path, Line: pos.Line, Offset: pos.Offset}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&resp); err != nil {
		return err
	}
	if !resp.Info.CanRename || len(resp.Locs) == 0 {
		s.sendResult(req.ID, nil)
		return nil
	}
	s.sendResult(req.ID, translate.RenameLocationsToWorkspaceEdit(resp, params.NewName))
	return nil
}

func (s *Server) handleFormatting(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.DocumentFormattingParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, ok := translate.URIToPath(params.TextDocument.URI)
	if !ok {
		s.sendResult(req.ID, []*lsproto.TextEdit{})
		return nil
	}
	doc, found := s.getDocument(params.TextDocument.URI)
	if !found {
		s.sendResult(req.ID, []*lsproto.TextEdit{})
		return nil
	}
	doc.MarkAccessed()

	formatOptions := map[string]any{
		"tabSize":      params.Options.TabSize,
		"indentSize":   params.Options.TabSize,
		"convertTabsToSpaces": params.Options.InsertSpaces,
	}
	// Every key present in tsfmt.json overwrites the LSP-supplied value of
	// the same name; keys the file does not set keep the LSP values.
	for k, v := range s.loadFormatSettings() {
		formatOptions[k] = v
	}

	var edits []analyzer.AnalyzerTextEdit
	// EndLine one past the document's last line is clamped by the analyzer
	// to the real end of file; see sendChangeNotification's no-range branch
	// for the same sentinel.
	body, err := s.client.Request(ctx, analyzer.CommandFormat, &formatArgs{
		File:          path,
		Line:          1,
		Offset:        1,
		EndLine:       int32(doc.LineCount()) + 1,
		EndOffset:     1,
		FormatOptions: formatOptions,
	}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&edits); err != nil {
		return err
	}
	s.sendResult(req.ID, translate.FromAnalyzerTextEdits(edits))
	return nil
}

type formatArgs struct {
	File          string         `json:"file"`
	Line          int32          `json:"line"`
	Offset        int32          `json:"offset"`
	EndLine       int32          `json:"endLine"`
	EndOffset     int32          `json:"endOffset"`
	FormatOptions map[string]any `json:"formatOptions"`
}

func (s *Server) loadFormatSettings() map[string]any {
	s.formatOnce.Do(func() {
		settings, err := discovery.LoadFormatSettings(s.rootPath)
		if err != nil {
			s.logger.Warn("failed to load tsfmt.json", err)
			return
		}
		s.formatSettings = settings
	})
	return s.formatSettings
}

func (s *Server) handleFoldingRange(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.FoldingRangeParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, ok := translate.URIToPath(params.TextDocument.URI)
	if !ok {
		s.sendResult(req.ID, []*lsproto.FoldingRange{})
		return nil
	}
	doc, found := s.getDocument(params.TextDocument.URI)
	if !found {
		s.sendResult(req.ID, []*lsproto.FoldingRange{})
		return nil
	}
	var spans []analyzer.OutliningSpan
	body, err := s.client.Request(ctx, analyzer.CommandGetOutliningSpans, &analyzer.FileLocationArgs{File: path}, nil)
	if err != nil {
		return err
	}
	if err := body.Decode(&spans); err != nil {
		return err
	}
	s.sendResult(req.ID, foldingRangesWithHeuristic(doc, spans))
	return nil
}
