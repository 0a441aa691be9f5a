package server

import (
	"context"
	"io"
	"os"
	"strings"
	"sync"
	"testing"
	"time"

	"gotest.tools/v3/assert"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/document"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// recordedCall is one Notify/Request/Issue call a fakeClient observed,
// kept for assertions about what the dispatch code sent to the analyzer.
type recordedCall struct {
	command string
	args    any
}

// fakeClient stands in for a real analyzer subprocess in tests: it never
// spawns anything, and answers each command with a canned response
// registered via on(), so the internal/server dispatch path can be driven
// end to end without a tsserver-compatible binary on disk.
type fakeClient struct {
	mu        sync.Mutex
	responses map[string]analyzer.RawBody
	errs      map[string]error
	calls     []recordedCall

	// geterrC receives the file list of every "geterr" round issued, so
	// tests can observe when diagnostics are (re-)requested without
	// racing the background goroutine that issues them.
	geterrC chan []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		responses: make(map[string]analyzer.RawBody),
		errs:      make(map[string]error),
		geterrC:   make(chan []string, 16),
	}
}

func (f *fakeClient) on(command, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses[command] = analyzer.RawBody(body)
}

// onError makes every later Await for command fail, simulating the
// analyzer returning {success: false} for it.
func (f *fakeClient) onError(command string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs[command] = err
}

func (f *fakeClient) record(command string, args any) {
	f.mu.Lock()
	f.calls = append(f.calls, recordedCall{command: command, args: args})
	f.mu.Unlock()
	if command == analyzer.CommandGeterr {
		if g, ok := args.(*analyzer.GeterrArgs); ok {
			select {
			case f.geterrC <- g.Files:
			default:
			}
		}
	}
}

func (f *fakeClient) callCount(command string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	n := 0
	for _, c := range f.calls {
		if c.command == command {
			n++
		}
	}
	return n
}

func (f *fakeClient) Notify(command string, args any) error {
	f.record(command, args)
	return nil
}

func (f *fakeClient) Request(ctx context.Context, command string, args any, cancel <-chan struct{}) (analyzer.RawBody, error) {
	call, err := f.Issue(command, args)
	if err != nil {
		return nil, err
	}
	return call.Await(ctx, cancel)
}

func (f *fakeClient) Issue(command string, args any) (analyzerCall, error) {
	f.record(command, args)
	f.mu.Lock()
	body := f.responses[command]
	err := f.errs[command]
	f.mu.Unlock()
	return fakeCall{body: body, err: err}, nil
}

func (f *fakeClient) Start(ctx context.Context, path string, args []string, configureArgs *analyzer.ConfigureArgs) error {
	return nil
}

func (f *fakeClient) Stop(openFiles []string, grace time.Duration) {}

// fakeCall answers Await immediately with the body/err Issue recorded for
// it; there is no real round trip to wait on.
type fakeCall struct {
	body analyzer.RawBody
	err  error
}

func (c fakeCall) Await(ctx context.Context, cancel <-chan struct{}) (analyzer.RawBody, error) {
	return c.body, c.err
}

var _ analyzerClient = (*fakeClient)(nil)

// waitForGeterr drains geterrC, failing the test if no round arrives
// within the timeout. Diagnostics are requested from a background
// goroutine, so tests that need to observe one must wait rather than
// inspect callCount immediately after the triggering call returns.
func waitForGeterr(t *testing.T, fc *fakeClient) []string {
	t.Helper()
	select {
	case files := <-fc.geterrC:
		return files
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a geterr round")
		return nil
	}
}

func newTestServer(t *testing.T) (*Server, *fakeClient) {
	t.Helper()
	s := New(&Options{In: strings.NewReader(""), Out: io.Discard, Err: io.Discard})
	fc := newFakeClient()
	s.client = fc
	s.initialized.Store(true)
	return s, fc
}

func requestMessage(method lsproto.Method, id int32, params any) *lsproto.RequestMessage {
	return lsproto.NewRequestMessage(method, lsproto.NewID(lsproto.NewIntegerID(id)), params).Message().AsRequest()
}

func notificationMessage(method lsproto.Method, params any) *lsproto.RequestMessage {
	return lsproto.NewNotificationMessage(method, params).Message().AsRequest()
}

// dispatchResult runs req through the server's actual method dispatch and
// decodes the single response it writes to outgoingQueue into dst. dst
// may be nil for callers that only care that no error response came back.
func dispatchResult(t *testing.T, s *Server, req *lsproto.RequestMessage, dst any) {
	t.Helper()
	if err := s.handle(context.Background(), req); err != nil {
		t.Fatalf("handle %s: %v", req.Method, err)
	}
	select {
	case msg := <-s.outgoingQueue:
		resp := msg.AsResponse()
		assert.Assert(t, resp.Error == nil, "unexpected error response: %v", resp.Error)
		if dst != nil {
			assert.NilError(t, resp.UnmarshalResult(dst))
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for a response on outgoingQueue")
	}
}

// answerPendingServerRequest drains the next server-initiated request off
// outgoingQueue and acks it with an empty successful result, standing in
// for readLoop routing an editor's reply back to sendServerRequest.
func answerPendingServerRequest(t *testing.T, s *Server) {
	t.Helper()
	select {
	case msg := <-s.outgoingQueue:
		s.pendingServerMu.Lock()
		respChan, ok := s.pendingServerRequests[*msg.ID]
		s.pendingServerMu.Unlock()
		if !ok {
			t.Errorf("no pending server request for id %v", msg.ID)
			return
		}
		respChan <- &lsproto.ResponseMessage{ID: msg.ID}
	case <-time.After(time.Second):
		t.Error("timed out waiting for a server-initiated request on outgoingQueue")
	}
}

func openDocument(t *testing.T, s *Server, uri lsproto.DocumentUri, text string) {
	t.Helper()
	params := lsproto.DidOpenTextDocumentParams{TextDocument: lsproto.TextDocumentItem{
		URI: uri, LanguageID: document.LanguageTypeScript, Version: 1, Text: text,
	}}
	assert.NilError(t, s.handle(context.Background(), notificationMessage(lsproto.MethodTextDocumentDidOpen, params)))
}

func TestDispatchOpenThenHover(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	fc.on(analyzer.CommandQuickinfo, `{"kind":"var","kindModifiers":"","start":{"line":1,"offset":5},"end":{"line":1,"offset":6},"displayString":"let x: number","documentation":"a number"}`)

	openDocument(t, s, "file:///a.ts", "let x: number = 1;\n")
	assert.Equal(t, 1, fc.callCount(analyzer.CommandOpen))
	waitForGeterr(t, fc)

	var hover lsproto.Hover
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentHover, 1, lsproto.TextDocumentPositionParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
		Position:     lsproto.Position{Line: 0, Character: 4},
	}), &hover)

	assert.Assert(t, strings.Contains(hover.Contents.Value, "let x: number"))
	assert.Assert(t, strings.Contains(hover.Contents.Value, "a number"))
	assert.Equal(t, uint32(0), hover.Range.Start.Line)
	assert.Equal(t, uint32(4), hover.Range.Start.Character)
}

func TestDispatchIncrementalChangeThenDefinition(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "const a = 1;\nconst b = a;\n")
	waitForGeterr(t, fc)

	changeParams := lsproto.DidChangeTextDocumentParams{
		TextDocument: lsproto.VersionedTextDocumentIdentifier{
			TextDocumentIdentifier: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
			Version:                2,
		},
		ContentChanges: []*lsproto.TextDocumentContentChangeEvent{{
			Range: &lsproto.Range{
				Start: lsproto.Position{Line: 1, Character: 10},
				End:   lsproto.Position{Line: 1, Character: 11},
			},
			Text: "aa",
		}},
	}
	assert.NilError(t, s.handle(context.Background(), notificationMessage(lsproto.MethodTextDocumentDidChange, changeParams)))

	changeCalls := 0
	for _, c := range fc.calls {
		if c.command == analyzer.CommandChange {
			changeCalls++
			args, ok := c.args.(*analyzer.ChangeArgs)
			assert.Assert(t, ok)
			assert.Equal(t, int32(2), args.Line)
			assert.Equal(t, int32(11), args.Offset)
			assert.Equal(t, "aa", args.InsertString)
		}
	}
	assert.Equal(t, 1, changeCalls)
	waitForGeterr(t, fc)

	fc.on(analyzer.CommandDefinition, `[{"file":"/lib/a.ts","start":{"line":1,"offset":7},"end":{"line":1,"offset":8}}]`)
	var locations []lsproto.Location
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentDefinition, 2, lsproto.TextDocumentPositionParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
		Position:     lsproto.Position{Line: 1, Character: 10},
	}), &locations)

	assert.Equal(t, 1, len(locations))
	assert.Equal(t, lsproto.DocumentUri("file:///lib/a.ts"), locations[0].URI)
	assert.Equal(t, uint32(0), locations[0].Range.Start.Line)
	assert.Equal(t, uint32(6), locations[0].Range.Start.Character)
}

// TestReopenUsesOldExtentForChangeNotification guards against sending the
// analyzer a "change" notification whose endLine reflects the new text
// instead of the extent it still holds: didOpen on an already-open
// document replaces the whole buffer, and the notification must span the
// document's old line count, not its new one.
func TestReopenUsesOldExtentForChangeNotification(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "one\ntwo\nthree\n")
	waitForGeterr(t, fc)

	openDocument(t, s, "file:///a.ts", "one\n")
	waitForGeterr(t, fc)

	var lastChange *analyzer.ChangeArgs
	for _, c := range fc.calls {
		if c.command == analyzer.CommandChange {
			lastChange = c.args.(*analyzer.ChangeArgs)
		}
	}
	assert.Assert(t, lastChange != nil)
	assert.Equal(t, int32(5), lastChange.EndLine)
}

// TestCompletionInterruptsDiagnostics confirms a completion request is
// answered through the interrupt path and is followed by a fresh geterr
// round covering the open file. The fake client answers instantly, so
// this does not distinguish resuming on write from resuming after the
// response.
func TestCompletionInterruptsDiagnostics(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "foo.\n")
	waitForGeterr(t, fc)

	fc.on(analyzer.CommandCompletionInfo, `{"isIncomplete":false,"entries":[{"name":"bar","kind":"method","sortText":"0"}]}`)

	var list lsproto.CompletionList
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentCompletion, 3, lsproto.CompletionParams{
		TextDocumentPositionParams: lsproto.TextDocumentPositionParams{
			TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
			Position:     lsproto.Position{Line: 0, Character: 4},
		},
	}), &list)

	assert.Equal(t, 1, len(list.Items))
	assert.Equal(t, "bar", list.Items[0].Label)

	files := waitForGeterr(t, fc)
	assert.Equal(t, 1, len(files))
	assert.Equal(t, 1, fc.callCount(analyzer.CommandCompletionInfo))
}

// TestOpenFilesByLRUOrdersLeastRecentlyAccessedFirst exercises the
// ordering requestDiagnostics relies on to compute the file the user is
// looking at last.
func TestOpenFilesByLRUOrdersLeastRecentlyAccessedFirst(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "a\n")
	waitForGeterr(t, fc)
	time.Sleep(2 * time.Millisecond)
	openDocument(t, s, "file:///b.ts", "b\n")
	waitForGeterr(t, fc)

	doc, ok := s.getDocument("file:///a.ts")
	assert.Assert(t, ok)
	doc.MarkAccessed()

	files := s.openFilesByLRU()
	assert.Equal(t, 2, len(files))
	assert.Equal(t, "/b.ts", files[0])
	assert.Equal(t, "/a.ts", files[1])
}

func TestDispatchRenameRoundTrip(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "const a = 1;\nconst b = a;\n")
	waitForGeterr(t, fc)

	fc.on(analyzer.CommandRename, `{
		"info": {"canRename": true},
		"locs": [{"file": "/a.ts", "locs": [
			{"start": {"line": 1, "offset": 7}, "end": {"line": 1, "offset": 8}, "newText": ""},
			{"start": {"line": 2, "offset": 11}, "end": {"line": 2, "offset": 12}, "newText": ""}
		]}]
	}`)

	var edit lsproto.WorkspaceEdit
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentRename, 4, lsproto.RenameParams{
		TextDocumentPositionParams: lsproto.TextDocumentPositionParams{
			TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
			Position:     lsproto.Position{Line: 0, Character: 6},
		},
		NewName: "renamed",
	}), &edit)

	edits, ok := edit.Changes["file:///a.ts"]
	assert.Assert(t, ok)
	assert.Equal(t, 2, len(edits))
	for _, e := range edits {
		assert.Equal(t, "renamed", e.NewText)
	}
}

func TestDispatchCodeActionThenApplyRefactoringCreatesNewFile(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "export const a = 1;\n")
	waitForGeterr(t, fc)

	fc.on(analyzer.CommandGetApplicableRefactors, `[{"name":"Move to a new file","description":"Move to a new file","actions":[{"name":"Move to a new file","description":"Move to a new file"}]}]`)

	var actions []*lsproto.CodeAction
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentCodeAction, 5, lsproto.CodeActionParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
		Range:        lsproto.Range{Start: lsproto.Position{Line: 0, Character: 0}, End: lsproto.Position{Line: 0, Character: 1}},
		Context:      lsproto.CodeActionContext{},
	}), &actions)

	var refactor *lsproto.CodeAction
	for _, a := range actions {
		if a.Kind == "refactor" {
			refactor = a
		}
	}
	assert.Assert(t, refactor != nil)
	assert.Assert(t, refactor.Command != nil)
	assert.Equal(t, commandApplyRefactoring, refactor.Command.Command)

	newFilePath := t.TempDir() + "/b.ts"
	fc.on(analyzer.CommandGetEditsForRefactor, `{"edits":[{"fileName":"`+newFilePath+`","isNewFile":true,"textChanges":[{"start":{"line":1,"offset":1},"end":{"line":1,"offset":1},"newText":"export const a = 1;\n"}]}]}`)

	go answerPendingServerRequest(t, s)
	dispatchResult(t, s, requestMessage(lsproto.MethodWorkspaceExecuteCommand, 6, lsproto.ExecuteCommandParams{
		Command:   commandApplyRefactoring,
		Arguments: refactor.Command.Arguments,
	}), nil)

	_, err := os.Stat(newFilePath)
	assert.NilError(t, err)
}

// TestDispatchHoverAnalyzerFailureReturnsEmptyResult guards the read-only
// query contract: an analyzer request failure surfaces as a best-effort
// empty result, never as a JSON-RPC error response.
func TestDispatchHoverAnalyzerFailureReturnsEmptyResult(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "let x: number = 1;\n")
	waitForGeterr(t, fc)

	fc.onError(analyzer.CommandQuickinfo, &analyzer.RequestError{Command: analyzer.CommandQuickinfo, Message: "no quickinfo"})

	var hover lsproto.Hover
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentHover, 7, lsproto.TextDocumentPositionParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
		Position:     lsproto.Position{Line: 0, Character: 4},
	}), &hover)

	assert.Equal(t, "", hover.Contents.Value)
}

// TestDispatchCodeActionSkipsQuickFixesOnAnalyzerFailure mirrors the same
// contract for quickFixActions: a failed getCodeFixes call must not fail
// the whole codeAction request, just omit the quickfixes it would have
// contributed.
func TestDispatchCodeActionSkipsQuickFixesOnAnalyzerFailure(t *testing.T) {
	t.Parallel()
	s, fc := newTestServer(t)
	openDocument(t, s, "file:///a.ts", "export const a = 1;\n")
	waitForGeterr(t, fc)

	fc.onError(analyzer.CommandGetCodeFixes, &analyzer.RequestError{Command: analyzer.CommandGetCodeFixes, Message: "no fixes"})

	var actions []*lsproto.CodeAction
	dispatchResult(t, s, requestMessage(lsproto.MethodTextDocumentCodeAction, 8, lsproto.CodeActionParams{
		TextDocument: lsproto.TextDocumentIdentifier{URI: "file:///a.ts"},
		Range:        lsproto.Range{Start: lsproto.Position{Line: 0, Character: 0}, End: lsproto.Position{Line: 0, Character: 1}},
		Context:      lsproto.CodeActionContext{Diagnostics: []*lsproto.Diagnostic{{Code: 2304}}},
	}), &actions)

	for _, a := range actions {
		assert.Assert(t, a.Kind != "quickfix")
	}
}
