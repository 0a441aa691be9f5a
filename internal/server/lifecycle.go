package server

import (
	"context"
	"fmt"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/discovery"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

func (s *Server) handle(ctx context.Context, req *lsproto.RequestMessage) error {
	if !s.initialized.Load() && req.Method != lsproto.MethodInitialize {
		if req.ID != nil {
			return lsproto.ErrServerNotInitialized
		}
		return nil
	}

	switch req.Method {
	case lsproto.MethodInitialize:
		return s.handleInitialize(ctx, req)
	case lsproto.MethodInitialized:
		return nil
	case lsproto.MethodShutdown:
		s.sendResult(req.ID, nil)
		return nil
	case lsproto.MethodExit:
		return errNormalExit

	case lsproto.MethodTextDocumentDidOpen:
		return s.handleDidOpen(ctx, req)
	case lsproto.MethodTextDocumentDidChange:
		return s.handleDidChange(ctx, req)
	case lsproto.MethodTextDocumentDidClose:
		return s.handleDidClose(ctx, req)

	case lsproto.MethodTextDocumentDefinition:
		return s.handleDefinition(ctx, req)
	case lsproto.MethodTextDocumentTypeDefinition:
		return s.handleTypeDefinition(ctx, req)
	case lsproto.MethodTextDocumentImplementation:
		return s.handleImplementation(ctx, req)
	case lsproto.MethodTextDocumentReferences:
		return s.handleReferences(ctx, req)
	case lsproto.MethodTextDocumentDocumentHighlight:
		return s.handleDocumentHighlight(ctx, req)
	case lsproto.MethodTextDocumentDocumentSymbol:
		return s.handleDocumentSymbol(ctx, req)
	case lsproto.MethodWorkspaceSymbol:
		return s.handleWorkspaceSymbol(ctx, req)
	case lsproto.MethodTextDocumentHover:
		return s.handleHover(ctx, req)
	case lsproto.MethodTextDocumentSignatureHelp:
		return s.handleSignatureHelp(ctx, req)
	case lsproto.MethodTextDocumentCompletion:
		return s.handleCompletion(ctx, req)
	case lsproto.MethodCompletionItemResolve:
		return s.handleCompletionResolve(ctx, req)
	case lsproto.MethodTextDocumentRename:
		return s.handleRename(ctx, req)
	case lsproto.MethodTextDocumentFormatting:
		return s.handleFormatting(ctx, req)
	case lsproto.MethodTextDocumentFoldingRange:
		return s.handleFoldingRange(ctx, req)
	case lsproto.MethodTextDocumentCodeAction:
		return s.handleCodeAction(ctx, req)
	case lsproto.MethodWorkspaceExecuteCommand:
		return s.handleExecuteCommand(ctx, req)

	default:
		s.logger.Log("unhandled method", req.Method)
		if req.ID != nil {
			return lsproto.ErrMethodNotFound
		}
		return nil
	}
}

var errNormalExit = fmt.Errorf("exit notification received")

// analyzerArgs builds the CLI arguments the analyzer subprocess is started
// with, forwarding --tsserver-log-file/--tsserver-log-verbosity unchanged
// as the analyzer's own --logFile/--logVerbosity flags.
func (s *Server) analyzerArgs() []string {
	var args []string
	if s.analyzerLogFile != "" {
		args = append(args, "--logFile", s.analyzerLogFile)
	}
	if s.analyzerLogVerbosity != "" {
		args = append(args, "--logVerbosity", s.analyzerLogVerbosity)
	}
	return args
}

func (s *Server) handleInitialize(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.InitializeParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	if s.initialized.Load() {
		return lsproto.ErrInvalidRequest
	}

	if params.RootPath != nil {
		s.rootPath = *params.RootPath
	} else if params.RootURI != nil {
		s.rootPath, _ = translate.URIToPath(lsproto.DocumentUri(*params.RootURI))
	}

	analyzerPath, err := discovery.FindAnalyzer(s.analyzerPath, s.rootPath)
	if err != nil {
		return err
	}

	s.client = realAnalyzerClient{analyzer.NewClient(s.handleAnalyzerEvent)}
	if err := s.client.Start(ctx, analyzerPath, s.analyzerArgs(), &analyzer.ConfigureArgs{
		Preferences: map[string]any{"allowTextChangesInNewFiles": true},
	}); err != nil {
		return fmt.Errorf("failed to start analyzer: %w", err)
	}

	s.initialized.Store(true)

	s.sendResult(req.ID, &lsproto.InitializeResult{
		ServerInfo: &lsproto.ServerInfo{Name: "tsgo-bridge"},
		Capabilities: lsproto.ServerCapabilities{
			TextDocumentSync:           lsproto.TextDocumentSyncKindIncremental,
			HoverProvider:              true,
			DefinitionProvider:         true,
			TypeDefinitionProvider:     true,
			ImplementationProvider:     true,
			ReferencesProvider:         true,
			DocumentHighlightProvider:  true,
			DocumentSymbolProvider:     true,
			WorkspaceSymbolProvider:    true,
			CodeActionProvider:         true,
			DocumentFormattingProvider: true,
			RenameProvider:             true,
			FoldingRangeProvider:       true,
			CompletionProvider:         &lsproto.CompletionOptions{TriggerCharacters: []string{".", "\"", "'", "/", "@", "<"}, ResolveProvider: true},
			SignatureHelpProvider:      &lsproto.SignatureHelpOptions{TriggerCharacters: []string{"(", ",", "<"}},
			ExecuteCommandProvider: &lsproto.ExecuteCommandOptions{Commands: []string{
				commandApplyWorkspaceEdit, commandApplyCodeAction, commandApplyRefactoring, commandOrganizeImports,
			}},
		},
	})
	return nil
}
