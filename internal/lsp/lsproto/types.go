package lsproto

import (
	"strings"
)

// DocumentUri is an opaque editor-supplied URI. Conversion to/from a
// filesystem path lives in internal/translate, which treats this as an
// opaque string.
type DocumentUri string

// IsFileURI reports whether the URI uses the file:// scheme.
func (u DocumentUri) IsFileURI() bool {
	return strings.HasPrefix(string(u), "file://")
}

func (u DocumentUri) String() string { return string(u) }

// Position is 0-based (line, UTF-16 character) per LSP.
type Position struct {
	Line      uint32 `json:"line"`
	Character uint32 `json:"character"`
}

type Range struct {
	Start Position `json:"start"`
	End   Position `json:"end"`
}

type Location struct {
	URI   DocumentUri `json:"uri"`
	Range Range       `json:"range"`
}

type TextEdit struct {
	Range   Range  `json:"range"`
	NewText string `json:"newText"`
}

type TextDocumentEdit struct {
	TextDocument VersionedTextDocumentIdentifier `json:"textDocument"`
	Edits        []*TextEdit                     `json:"edits"`
}

type WorkspaceEdit struct {
	Changes map[DocumentUri][]*TextEdit `json:"changes,omitempty"`
}

type TextDocumentIdentifier struct {
	URI DocumentUri `json:"uri"`
}

func (t TextDocumentIdentifier) TextDocumentURI() DocumentUri { return t.URI }

type VersionedTextDocumentIdentifier struct {
	TextDocumentIdentifier
	Version int32 `json:"version"`
}

type TextDocumentItem struct {
	URI        DocumentUri `json:"uri"`
	LanguageID string      `json:"languageId"`
	Version    int32       `json:"version"`
	Text       string      `json:"text"`
}

type TextDocumentPositionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Position     Position               `json:"position"`
}

func (p TextDocumentPositionParams) TextDocumentURI() DocumentUri { return p.TextDocument.URI }

// DiagnosticSeverity mirrors LSP's 1-based severity enum.
type DiagnosticSeverity uint32

const (
	DiagnosticSeverityError       DiagnosticSeverity = 1
	DiagnosticSeverityWarning     DiagnosticSeverity = 2
	DiagnosticSeverityInformation DiagnosticSeverity = 3
	DiagnosticSeverityHint        DiagnosticSeverity = 4
)

type Diagnostic struct {
	Range    Range              `json:"range"`
	Severity DiagnosticSeverity `json:"severity,omitempty"`
	Code     any                `json:"code,omitempty"`
	Source   string             `json:"source,omitempty"`
	Message  string             `json:"message"`
}

type PublishDiagnosticsParams struct {
	URI         DocumentUri   `json:"uri"`
	Diagnostics []*Diagnostic `json:"diagnostics"`
}

// --- lifecycle ---

type InitializeParams struct {
	ProcessID *int32  `json:"processId,omitempty"`
	RootURI   *string `json:"rootUri,omitempty"`
	RootPath  *string `json:"rootPath,omitempty"`
}

type ServerInfo struct {
	Name    string `json:"name"`
	Version string `json:"version,omitempty"`
}

type CompletionOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
	ResolveProvider   bool     `json:"resolveProvider,omitempty"`
}

type SignatureHelpOptions struct {
	TriggerCharacters []string `json:"triggerCharacters,omitempty"`
}

type TextDocumentSyncKind uint32

const (
	TextDocumentSyncKindNone        TextDocumentSyncKind = 0
	TextDocumentSyncKindFull        TextDocumentSyncKind = 1
	TextDocumentSyncKindIncremental TextDocumentSyncKind = 2
)

type ServerCapabilities struct {
	TextDocumentSync                 TextDocumentSyncKind  `json:"textDocumentSync"`
	CompletionProvider                *CompletionOptions    `json:"completionProvider,omitempty"`
	HoverProvider                     bool                  `json:"hoverProvider,omitempty"`
	SignatureHelpProvider             *SignatureHelpOptions `json:"signatureHelpProvider,omitempty"`
	DefinitionProvider                bool                  `json:"definitionProvider,omitempty"`
	TypeDefinitionProvider            bool                  `json:"typeDefinitionProvider,omitempty"`
	ImplementationProvider            bool                  `json:"implementationProvider,omitempty"`
	ReferencesProvider                bool                  `json:"referencesProvider,omitempty"`
	DocumentHighlightProvider         bool                  `json:"documentHighlightProvider,omitempty"`
	DocumentSymbolProvider            bool                  `json:"documentSymbolProvider,omitempty"`
	WorkspaceSymbolProvider           bool                  `json:"workspaceSymbolProvider,omitempty"`
	CodeActionProvider                bool                  `json:"codeActionProvider,omitempty"`
	DocumentFormattingProvider        bool                  `json:"documentFormattingProvider,omitempty"`
	RenameProvider                    bool                  `json:"renameProvider,omitempty"`
	FoldingRangeProvider              bool                  `json:"foldingRangeProvider,omitempty"`
	ExecuteCommandProvider            *ExecuteCommandOptions `json:"executeCommandProvider,omitempty"`
}

type ExecuteCommandOptions struct {
	Commands []string `json:"commands"`
}

type InitializeResult struct {
	Capabilities ServerCapabilities `json:"capabilities"`
	ServerInfo   *ServerInfo        `json:"serverInfo,omitempty"`
}

// --- document sync ---

type DidOpenTextDocumentParams struct {
	TextDocument TextDocumentItem `json:"textDocument"`
}

type TextDocumentContentChangeEvent struct {
	Range *Range `json:"range,omitempty"`
	Text  string `json:"text"`
}

type DidChangeTextDocumentParams struct {
	TextDocument   VersionedTextDocumentIdentifier   `json:"textDocument"`
	ContentChanges []*TextDocumentContentChangeEvent `json:"contentChanges"`
}

type DidCloseTextDocumentParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

// --- hover ---

type MarkupKind string

const MarkupKindMarkdown MarkupKind = "markdown"

type MarkupContent struct {
	Kind  MarkupKind `json:"kind"`
	Value string     `json:"value"`
}

type Hover struct {
	Contents MarkupContent `json:"contents"`
	Range    *Range        `json:"range,omitempty"`
}

// --- completion ---

type CompletionTriggerKind uint32

const (
	CompletionTriggerKindInvoked                   CompletionTriggerKind = 1
	CompletionTriggerKindTriggerCharacter          CompletionTriggerKind = 2
	CompletionTriggerKindTriggerForIncompleteCompletions CompletionTriggerKind = 3
)

type CompletionContext struct {
	TriggerKind      CompletionTriggerKind `json:"triggerKind"`
	TriggerCharacter string                `json:"triggerCharacter,omitempty"`
}

type CompletionParams struct {
	TextDocumentPositionParams
	Context *CompletionContext `json:"context,omitempty"`
}

type CompletionItemKind uint32

const (
	CompletionItemKindText          CompletionItemKind = 1
	CompletionItemKindMethod        CompletionItemKind = 2
	CompletionItemKindFunction      CompletionItemKind = 3
	CompletionItemKindConstructor   CompletionItemKind = 4
	CompletionItemKindField         CompletionItemKind = 5
	CompletionItemKindVariable      CompletionItemKind = 6
	CompletionItemKindClass         CompletionItemKind = 7
	CompletionItemKindInterface     CompletionItemKind = 8
	CompletionItemKindModule        CompletionItemKind = 9
	CompletionItemKindProperty      CompletionItemKind = 10
	CompletionItemKindEnum          CompletionItemKind = 13
	CompletionItemKindKeyword       CompletionItemKind = 14
	CompletionItemKindConstant      CompletionItemKind = 21
	CompletionItemKindTypeParameter CompletionItemKind = 25
)

type CompletionItem struct {
	Label            string             `json:"label"`
	Kind             CompletionItemKind `json:"kind,omitempty"`
	SortText         string             `json:"sortText,omitempty"`
	InsertText       string             `json:"insertText,omitempty"`
	Detail           string             `json:"detail,omitempty"`
	Documentation    *MarkupContent     `json:"documentation,omitempty"`
	AdditionalTextEdits []*TextEdit     `json:"additionalTextEdits,omitempty"`
	Command          *Command          `json:"command,omitempty"`
	Data             any               `json:"data,omitempty"`
}

type CompletionList struct {
	IsIncomplete bool              `json:"isIncomplete"`
	Items        []*CompletionItem `json:"items"`
}

// CompletionData is the opaque `data` payload this bridge attaches to every
// completion item so a later completionItem/resolve can re-issue the
// analyzer request against the originating document and entry.
type CompletionData struct {
	FileName string `json:"fileName"`
	Line     int32  `json:"line"`
	Offset   int32  `json:"offset"`
	Name     string `json:"name"`
	Source   string `json:"source,omitempty"`
}

// --- signature help ---

type SignatureHelpTriggerKind uint32

type SignatureHelpContext struct {
	TriggerKind         SignatureHelpTriggerKind `json:"triggerKind"`
	TriggerCharacter    string                   `json:"triggerCharacter,omitempty"`
	IsRetrigger         bool                     `json:"isRetrigger"`
}

type SignatureHelpParams struct {
	TextDocumentPositionParams
	Context *SignatureHelpContext `json:"context,omitempty"`
}

type ParameterInformation struct {
	Label string `json:"label"`
}

type SignatureInformation struct {
	Label         string                  `json:"label"`
	Documentation *MarkupContent          `json:"documentation,omitempty"`
	Parameters    []*ParameterInformation `json:"parameters,omitempty"`
}

type SignatureHelp struct {
	Signatures      []*SignatureInformation `json:"signatures"`
	ActiveSignature uint32                  `json:"activeSignature"`
	ActiveParameter uint32                  `json:"activeParameter"`
}

// --- references / highlights ---

type ReferenceContext struct {
	IncludeDeclaration bool `json:"includeDeclaration"`
}

type ReferenceParams struct {
	TextDocumentPositionParams
	Context ReferenceContext `json:"context"`
}

type DocumentHighlightKind uint32

const (
	DocumentHighlightKindText  DocumentHighlightKind = 1
	DocumentHighlightKindRead  DocumentHighlightKind = 2
	DocumentHighlightKindWrite DocumentHighlightKind = 3
)

type DocumentHighlight struct {
	Range Range                 `json:"range"`
	Kind  DocumentHighlightKind `json:"kind,omitempty"`
}

// --- symbols ---

type SymbolKind uint32

const (
	SymbolKindFile          SymbolKind = 1
	SymbolKindModule        SymbolKind = 2
	SymbolKindNamespace     SymbolKind = 3
	SymbolKindPackage       SymbolKind = 4
	SymbolKindClass         SymbolKind = 5
	SymbolKindMethod        SymbolKind = 6
	SymbolKindProperty      SymbolKind = 7
	SymbolKindField         SymbolKind = 8
	SymbolKindConstructor   SymbolKind = 9
	SymbolKindEnum          SymbolKind = 10
	SymbolKindInterface     SymbolKind = 11
	SymbolKindFunction      SymbolKind = 12
	SymbolKindVariable      SymbolKind = 13
	SymbolKindConstant      SymbolKind = 14
	SymbolKindTypeParameter SymbolKind = 26
)

type SymbolInformation struct {
	Name          string      `json:"name"`
	Kind          SymbolKind  `json:"kind"`
	Location      Location    `json:"location"`
	ContainerName string      `json:"containerName,omitempty"`
}

type DocumentSymbolParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

func (p DocumentSymbolParams) TextDocumentURI() DocumentUri { return p.TextDocument.URI }

type WorkspaceSymbolParams struct {
	Query string `json:"query"`
}

// --- rename ---

type RenameParams struct {
	TextDocumentPositionParams
	NewName string `json:"newName"`
}

// --- formatting ---

type FormattingOptions struct {
	TabSize      uint32 `json:"tabSize"`
	InsertSpaces bool   `json:"insertSpaces"`
}

type DocumentFormattingParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Options      FormattingOptions      `json:"options"`
}

func (p DocumentFormattingParams) TextDocumentURI() DocumentUri { return p.TextDocument.URI }

// --- folding ranges ---

type FoldingRangeKind string

const (
	FoldingRangeKindComment FoldingRangeKind = "comment"
	FoldingRangeKindImports FoldingRangeKind = "imports"
	FoldingRangeKindRegion  FoldingRangeKind = "region"
)

type FoldingRange struct {
	StartLine uint32           `json:"startLine"`
	EndLine   uint32           `json:"endLine"`
	Kind      FoldingRangeKind `json:"kind,omitempty"`
}

type FoldingRangeParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
}

func (p FoldingRangeParams) TextDocumentURI() DocumentUri { return p.TextDocument.URI }

// --- code actions ---

type CodeActionContext struct {
	Diagnostics []*Diagnostic `json:"diagnostics"`
}

type CodeActionParams struct {
	TextDocument TextDocumentIdentifier `json:"textDocument"`
	Range        Range                  `json:"range"`
	Context      CodeActionContext      `json:"context"`
}

func (p CodeActionParams) TextDocumentURI() DocumentUri { return p.TextDocument.URI }

type Command struct {
	Title     string `json:"title"`
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}

type CodeAction struct {
	Title   string         `json:"title"`
	Kind    string         `json:"kind,omitempty"`
	Edit    *WorkspaceEdit `json:"edit,omitempty"`
	Command *Command       `json:"command,omitempty"`
}

// --- execute command ---

type ExecuteCommandParams struct {
	Command   string `json:"command"`
	Arguments []any  `json:"arguments,omitempty"`
}
