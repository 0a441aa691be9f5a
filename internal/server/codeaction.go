package server

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-json-experiment/json"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

const (
	commandApplyWorkspaceEdit = "_typescript.applyWorkspaceEdit"
	commandApplyCodeAction    = "_typescript.applyCodeAction"
	commandApplyRefactoring   = "_typescript.applyRefactoring"
	commandOrganizeImports    = "_typescript.organizeImports"
	commandSelectRefactoring  = "_typescript.selectRefactoring"
)

func (s *Server) handleCodeAction(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.CodeActionParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}
	path, ok := translate.URIToPath(params.TextDocument.URI)
	if !ok {
		s.sendResult(req.ID, []*lsproto.CodeAction{})
		return nil
	}

	var actions []*lsproto.CodeAction
	err := s.interruptDiagnostics(ctx, func(resume func()) error {
		quickFixes, err := s.quickFixActions(ctx, path, params, resume)
		if err != nil {
			return err
		}
		actions = append(actions, quickFixes...)

		refactors, err := s.refactorActions(ctx, path, params, resume)
		if err != nil {
			return err
		}
		actions = append(actions, refactors...)

		organize := s.organizeImportsAction(path)
		if organize != nil {
			actions = append(actions, organize)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.sendResult(req.ID, actions)
	return nil
}

func (s *Server) quickFixActions(ctx context.Context, path string, params lsproto.CodeActionParams, resume func()) ([]*lsproto.CodeAction, error) {
	codes := make([]int, 0, len(params.Context.Diagnostics))
	for _, d := range params.Context.Diagnostics {
		switch code := d.Code.(type) {
		case int:
			codes = append(codes, code)
		case float64:
			codes = append(codes, int(code))
		}
	}
	if len(codes) == 0 {
		return nil, nil
	}
	call, err := s.client.Issue(analyzer.CommandGetCodeFixes, &getCodeFixesArgs{
		rangeArgs:  rangeArgsFrom(path, params.Range),
		ErrorCodes: codes,
	})
	if err != nil {
		s.logger.Log("code fixes request failed", err)
		return nil, nil
	}
	resume()
	body, err := call.Await(ctx, nil)
	if err != nil {
		s.logger.Log("code fixes request failed", err)
		return nil, nil
	}
	var fixes []analyzer.CodeActionEntry
	if err := body.Decode(&fixes); err != nil {
		s.logger.Log("code fixes response decode failed", err)
		return nil, nil
	}
	out := make([]*lsproto.CodeAction, len(fixes))
	for i, fix := range fixes {
		out[i] = &lsproto.CodeAction{
			Title: fix.Description,
			Kind:  "quickfix",
			Edit:  translate.FileChangeTextsToWorkspaceEdit(fix.Changes),
		}
	}
	return out, nil
}

type rangeArgs struct {
	File      string `json:"file"`
	Line      int32  `json:"line"`
	Offset    int32  `json:"offset"`
	EndLine   int32  `json:"endLine"`
	EndOffset int32  `json:"endOffset"`
}

func rangeArgsFrom(path string, r lsproto.Range) rangeArgs {
	start := translate.ToAnalyzerPosition(r.Start)
	end := translate.ToAnalyzerPosition(r.End)
	return rangeArgs{File: path, Line: start.Line, Offset: start.Offset, EndLine: end.Line, EndOffset: end.Offset}
}

type getCodeFixesArgs struct {
	rangeArgs
	ErrorCodes []int `json:"errorCodes"`
}

func (s *Server) refactorActions(ctx context.Context, path string, params lsproto.CodeActionParams, resume func()) ([]*lsproto.CodeAction, error) {
	call, err := s.client.Issue(analyzer.CommandGetApplicableRefactors, &rangeArgs{
		File: path, Line: translate.ToAnalyzerPosition(params.Range.Start).Line, Offset: translate.ToAnalyzerPosition(params.Range.Start).Offset,
		EndLine: translate.ToAnalyzerPosition(params.Range.End).Line, EndOffset: translate.ToAnalyzerPosition(params.Range.End).Offset,
	})
	if err != nil {
		s.logger.Log("applicable refactors request failed", err)
		return nil, nil
	}
	resume()
	body, err := call.Await(ctx, nil)
	if err != nil {
		s.logger.Log("applicable refactors request failed", err)
		return nil, nil
	}
	var groups []applicableRefactorInfo
	if err := body.Decode(&groups); err != nil {
		s.logger.Log("applicable refactors response decode failed", err)
		return nil, nil
	}

	var out []*lsproto.CodeAction
	for _, group := range groups {
		if len(group.Actions) > 1 {
			args, _ := json.Marshal(refactorSelection{File: path, Range: params.Range, RefactorName: group.Name, Description: group.Description})
			out = append(out, &lsproto.CodeAction{
				Title: group.Description,
				Kind:  "refactor",
				Command: &lsproto.Command{
					Title:     group.Description,
					Command:   commandSelectRefactoring,
					Arguments: []any{string(args)},
				},
			})
			continue
		}
		for _, action := range group.Actions {
			out = append(out, &lsproto.CodeAction{
				Title: action.Description,
				Kind:  "refactor",
				Command: &lsproto.Command{
					Title:   action.Description,
					Command: commandApplyRefactoring,
					Arguments: []any{refactorInvocation{
						File: path, Range: params.Range, RefactorName: group.Name, ActionName: action.Name,
					}},
				},
			})
		}
	}
	return out, nil
}

type applicableRefactorInfo struct {
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Actions     []refactorAction `json:"actions"`
}

type refactorAction struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type refactorSelection struct {
	File         string        `json:"file"`
	Range        lsproto.Range `json:"range"`
	RefactorName string        `json:"refactorName"`
	Description  string        `json:"description"`
}

type refactorInvocation struct {
	File         string        `json:"file"`
	Range        lsproto.Range `json:"range"`
	RefactorName string        `json:"refactorName"`
	ActionName   string        `json:"actionName"`
}

// organizeImportsAction offers a single synthetic command for source
// files; returns nil for file types the analyzer would reject.
func (s *Server) organizeImportsAction(path string) *lsproto.CodeAction {
	if !isOrganizableSource(path) {
		return nil
	}
	return &lsproto.CodeAction{
		Title: "Organize Imports",
		Kind:  "source.organizeImports",
		Command: &lsproto.Command{
			Title:     "Organize Imports",
			Command:   commandOrganizeImports,
			Arguments: []any{path},
		},
	}
}

func isOrganizableSource(path string) bool {
	for _, ext := range []string{".ts", ".tsx", ".js", ".jsx", ".mts", ".cts"} {
		if len(path) >= len(ext) && path[len(path)-len(ext):] == ext {
			return true
		}
	}
	return false
}

func (s *Server) handleExecuteCommand(ctx context.Context, req *lsproto.RequestMessage) error {
	var params lsproto.ExecuteCommandParams
	if err := req.UnmarshalParams(&params); err != nil {
		return err
	}

	switch params.Command {
	case commandApplyWorkspaceEdit:
		return s.execApplyWorkspaceEdit(ctx, req, params)
	case commandApplyCodeAction:
		return s.execApplyCodeAction(ctx, req, params)
	case commandApplyRefactoring:
		return s.execApplyRefactoring(ctx, req, params)
	case commandOrganizeImports:
		return s.execOrganizeImports(ctx, req, params)
	default:
		s.logger.Log("unknown command", params.Command)
		s.sendResult(req.ID, nil)
		return nil
	}
}

func (s *Server) execApplyWorkspaceEdit(ctx context.Context, req *lsproto.RequestMessage, params lsproto.ExecuteCommandParams) error {
	if len(params.Arguments) == 0 {
		return lsproto.ErrInvalidRequest
	}
	if _, err := s.sendServerRequest(ctx, lsproto.MethodWorkspaceApplyEdit, params.Arguments[0]); err != nil {
		return err
	}
	s.sendResult(req.ID, nil)
	return nil
}

func (s *Server) execApplyCodeAction(ctx context.Context, req *lsproto.RequestMessage, params lsproto.ExecuteCommandParams) error {
	if len(params.Arguments) == 0 {
		return lsproto.ErrInvalidRequest
	}
	var changes []analyzer.AnalyzerFileTextChanges
	raw, err := json.Marshal(params.Arguments[0])
	if err != nil {
		return err
	}
	if err := json.Unmarshal(raw, &changes); err != nil {
		return err
	}
	if _, err := s.sendServerRequest(ctx, lsproto.MethodWorkspaceApplyEdit, translate.FileChangeTextsToWorkspaceEdit(changes)); err != nil {
		return err
	}
	s.sendResult(req.ID, nil)
	return nil
}

func (s *Server) execApplyRefactoring(ctx context.Context, req *lsproto.RequestMessage, params lsproto.ExecuteCommandParams) error {
	if len(params.Arguments) == 0 {
		return lsproto.ErrInvalidRequest
	}
	raw, err := json.Marshal(params.Arguments[0])
	if err != nil {
		return err
	}
	var inv refactorInvocation
	if err := json.Unmarshal(raw, &inv); err != nil {
		return err
	}

	start := translate.ToAnalyzerPosition(inv.Range.Start)
	end := translate.ToAnalyzerPosition(inv.Range.End)
	body, err := s.client.Request(ctx, analyzer.CommandGetEditsForRefactor, &getEditsForRefactorArgs{
		rangeArgs:    rangeArgs{File: inv.File, Line: start.Line, Offset: start.Offset, EndLine: end.Line, EndOffset: end.Offset},
		RefactorName: inv.RefactorName,
		ActionName:   inv.ActionName,
	}, nil)
	if err != nil {
		return err
	}
	var result refactorEditsResult
	if err := body.Decode(&result); err != nil {
		return err
	}

	if err := createNewFiles(result.Edits); err != nil {
		return err
	}
	if _, err := s.sendServerRequest(ctx, lsproto.MethodWorkspaceApplyEdit, translate.FileChangeTextsToWorkspaceEdit(result.Edits)); err != nil {
		return err
	}
	if result.RenameLocation != nil {
		if _, err := s.sendServerRequest(ctx, lsproto.MethodTypescriptRename, renameAt{
			File: inv.File,
			Pos:  translate.FromAnalyzerPosition(*result.RenameLocation),
		}); err != nil {
			return err
		}
	}
	s.sendResult(req.ID, nil)
	return nil
}

// createNewFiles creates an empty file on disk for each edit the analyzer
// marked isNewFile, so the editor's applyEdit doesn't reject a text edit
// targeting a path that doesn't exist yet.
func createNewFiles(edits []analyzer.AnalyzerFileTextChanges) error {
	for _, e := range edits {
		if !e.IsNewFile {
			continue
		}
		if _, err := os.Stat(e.FileName); err == nil {
			continue
		}
		if err := os.MkdirAll(filepath.Dir(e.FileName), 0o755); err != nil {
			return fmt.Errorf("create directory for new file %s: %w", e.FileName, err)
		}
		f, err := os.OpenFile(e.FileName, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
		if err != nil {
			if os.IsExist(err) {
				continue
			}
			return fmt.Errorf("create new file %s: %w", e.FileName, err)
		}
		f.Close()
	}
	return nil
}

type getEditsForRefactorArgs struct {
	rangeArgs
	RefactorName string `json:"refactorName"`
	ActionName   string `json:"actionName"`
}

type refactorEditsResult struct {
	Edits          []analyzer.AnalyzerFileTextChanges `json:"edits"`
	RenameLocation *analyzer.AnalyzerPosition          `json:"renameLocation,omitempty"`
}

type renameAt struct {
	File string           `json:"file"`
	Pos  lsproto.Position `json:"position"`
}

func (s *Server) execOrganizeImports(ctx context.Context, req *lsproto.RequestMessage, params lsproto.ExecuteCommandParams) error {
	if len(params.Arguments) == 0 {
		return lsproto.ErrInvalidRequest
	}
	path, ok := params.Arguments[0].(string)
	if !ok {
		return fmt.Errorf("organize-imports: expected a file path argument")
	}
	body, err := s.client.Request(ctx, analyzer.CommandOrganizeImports, &organizeImportsArgs{
		Scope: organizeImportsScope{Type: "file", Args: rangeArgs{File: path}},
	}, nil)
	if err != nil {
		return err
	}
	var changes []analyzer.AnalyzerFileTextChanges
	if err := body.Decode(&changes); err != nil {
		return err
	}
	if _, err := s.sendServerRequest(ctx, lsproto.MethodWorkspaceApplyEdit, translate.FileChangeTextsToWorkspaceEdit(changes)); err != nil {
		return err
	}
	s.sendResult(req.ID, nil)
	return nil
}

type organizeImportsArgs struct {
	Scope organizeImportsScope `json:"scope"`
}

type organizeImportsScope struct {
	Type string    `json:"type"`
	Args rangeArgs `json:"args"`
}
