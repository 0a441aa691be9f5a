package analyzer

import "github.com/go-json-experiment/json"

// outgoingMessage is the shape of every message this client writes to the
// analyzer's stdin: a single line of minified JSON.
type outgoingMessage struct {
	Seq       int32  `json:"seq"`
	Type      string `json:"type"`
	Command   string `json:"command,omitempty"`
	Arguments any    `json:"arguments,omitempty"`
}

// incomingEnvelope covers both response and event shapes the analyzer may
// send; exactly one of the response-only or event-only fields is
// populated depending on Type.
type incomingEnvelope struct {
	Type string `json:"type"`

	// response fields
	RequestSeq int32  `json:"request_seq"`
	Success    bool   `json:"success"`
	Message    string `json:"message,omitempty"`
	Command    string `json:"command,omitempty"`

	// event fields
	Event string `json:"event,omitempty"`

	Body RawBody `json:"body,omitempty"`
}

// RawBody defers decoding the body payload until the caller knows what
// shape to expect (a per-command response struct, or a per-event struct).
type RawBody []byte

func (b RawBody) MarshalJSON() ([]byte, error) {
	if len(b) == 0 {
		return []byte("null"), nil
	}
	return b, nil
}

func (b *RawBody) UnmarshalJSON(data []byte) error {
	*b = append((*b)[:0], data...)
	return nil
}

// Decode unmarshals the raw body into dst. A nil/empty body is a no-op,
// matching analyzer responses with no body (e.g. close/change acks).
func (b RawBody) Decode(dst any) error {
	if len(b) == 0 || string(b) == "null" {
		return nil
	}
	return json.Unmarshal(b, dst)
}

// Analyzer command names used by internal/server and internal/translate.
const (
	CommandConfigure              = "configure"
	CommandOpen                   = "open"
	CommandChange                 = "change"
	CommandClose                  = "close"
	CommandGeterr                 = "geterr"
	CommandQuickinfo              = "quickinfo"
	CommandDefinition             = "definition"
	CommandTypeDefinition         = "typeDefinition"
	CommandImplementation         = "implementation"
	CommandReferences             = "references"
	CommandDocumentHighlights     = "documentHighlights"
	CommandNavtree                = "navtree"
	CommandNavto                  = "navto"
	CommandSignatureHelp          = "signatureHelp"
	CommandCompletionInfo         = "completionInfo"
	CommandCompletionEntryDetails = "completionEntryDetails"
	CommandRename                 = "rename"
	CommandFormat                 = "format"
	CommandGetOutliningSpans      = "getOutliningSpans"
	CommandGetCodeFixes           = "getCodeFixes"
	CommandGetApplicableRefactors = "getApplicableRefactors"
	CommandGetEditsForRefactor    = "getEditsForRefactor"
	CommandOrganizeImports        = "organizeImports"
	CommandApplyCodeActionCommand = "applyCodeActionCommand"
)

// ScriptKind is the analyzer's source-dialect enumeration.
type ScriptKind string

const (
	ScriptKindTS   ScriptKind = "TS"
	ScriptKindTSX  ScriptKind = "TSX"
	ScriptKindJS   ScriptKind = "JS"
	ScriptKindJSX  ScriptKind = "JSX"
	ScriptKindNone ScriptKind = ""
)

// OpenArgs is the argument shape for the "open" notification.
type OpenArgs struct {
	File       string     `json:"file"`
	FileContent string    `json:"fileContent"`
	ScriptKindName ScriptKind `json:"scriptKindName,omitempty"`
	ProjectRootPath string `json:"projectRootPath,omitempty"`
}

// ChangeArgs is the argument shape for the "change" notification.
type ChangeArgs struct {
	File        string `json:"file"`
	Line        int32  `json:"line"`
	Offset      int32  `json:"offset"`
	EndLine     int32  `json:"endLine"`
	EndOffset   int32  `json:"endOffset"`
	InsertString string `json:"insertString"`
}

// CloseArgs is the argument shape for the "close" notification.
type CloseArgs struct {
	File string `json:"file"`
}

// GeterrArgs is the argument shape for the "geterr" request.
type GeterrArgs struct {
	Files []string `json:"files"`
	Delay int32    `json:"delay"`
}

// FileLocationArgs is the common (file, line, offset) argument shape used
// by quickinfo/definition/implementation/etc.
type FileLocationArgs struct {
	File   string `json:"file"`
	Line   int32  `json:"line"`
	Offset int32  `json:"offset"`
}

// ConfigureArgs carries analyzer-wide preferences sent once at startup.
type ConfigureArgs struct {
	Preferences map[string]any `json:"preferences,omitempty"`
	FormatOptions map[string]any `json:"formatOptions,omitempty"`
}

// DiagnosticEventKind names the three kinds of diagnostics the analyzer
// reports asynchronously after a geterr round.
type DiagnosticEventKind string

const (
	DiagnosticEventSemantic  DiagnosticEventKind = "semanticDiag"
	DiagnosticEventSyntactic DiagnosticEventKind = "syntaxDiag"
	DiagnosticEventSuggestion DiagnosticEventKind = "suggestionDiag"
)

// DiagnosticEventBody is the body of a semanticDiag/syntaxDiag/suggestionDiag event.
type DiagnosticEventBody struct {
	File        string               `json:"file"`
	Diagnostics []AnalyzerDiagnostic `json:"diagnostics"`
}

// AnalyzerDiagnostic is one diagnostic entry in the analyzer's coordinate
// system (1-based line/offset), translated to LSP shape by internal/translate.
type AnalyzerDiagnostic struct {
	Start    AnalyzerPosition `json:"start"`
	End      AnalyzerPosition `json:"end"`
	Text     string           `json:"text"`
	Code     int              `json:"code,omitempty"`
	Category string           `json:"category"` // "error" | "warning" | "suggestion" | "message"
}

// AnalyzerPosition is the analyzer's 1-based (line, offset) coordinate.
type AnalyzerPosition struct {
	Line   int32 `json:"line"`
	Offset int32 `json:"offset"`
}

// AnalyzerRange is a {start, end} pair in analyzer coordinates.
type AnalyzerRange struct {
	Start AnalyzerPosition `json:"start"`
	End   AnalyzerPosition `json:"end"`
}

// AnalyzerTextEdit is an analyzer `{newText, start, end}` code edit.
type AnalyzerTextEdit struct {
	Start   AnalyzerPosition `json:"start"`
	End     AnalyzerPosition `json:"end"`
	NewText string           `json:"newText"`
}

// AnalyzerFileTextChanges groups edits to one file, as returned by
// getCodeFixes/getApplicableRefactors/getEditsForRefactor/organizeImports.
type AnalyzerFileTextChanges struct {
	FileName    string             `json:"fileName"`
	TextChanges []AnalyzerTextEdit `json:"textChanges"`
	IsNewFile   bool               `json:"isNewFile,omitempty"`
}

// QuickInfoResponse is the body of a "quickinfo" response.
type QuickInfoResponse struct {
	Kind            string           `json:"kind"`
	KindModifiers   string           `json:"kindModifiers"`
	Start           AnalyzerPosition `json:"start"`
	End             AnalyzerPosition `json:"end"`
	DisplayString   string           `json:"displayString"`
	Documentation   string           `json:"documentation,omitempty"`
	Tags            []JSDocTag       `json:"tags,omitempty"`
}

// JSDocTag is one @tag entry attached to a symbol's documentation.
type JSDocTag struct {
	Name string `json:"name"`
	Text string `json:"text,omitempty"`
}

// DefinitionEntry is one element of a "definition"/"typeDefinition"/
// "implementation" response array.
type DefinitionEntry struct {
	File            string           `json:"file"`
	Start           AnalyzerPosition `json:"start"`
	End             AnalyzerPosition `json:"end"`
	ContextStart    *AnalyzerPosition `json:"contextStart,omitempty"`
	ContextEnd      *AnalyzerPosition `json:"contextEnd,omitempty"`
}

// ReferenceEntry is one element of a "references" response's refs array.
type ReferenceEntry struct {
	File        string           `json:"file"`
	Start       AnalyzerPosition `json:"start"`
	End         AnalyzerPosition `json:"end"`
	LineText    string           `json:"lineText,omitempty"`
	IsWriteAccess bool           `json:"isWriteAccess,omitempty"`
	IsDefinition  bool           `json:"isDefinition,omitempty"`
}

// ReferencesResponse is the body of a "references" response.
type ReferencesResponse struct {
	Refs []ReferenceEntry `json:"refs"`
}

// DocumentHighlightsItem is one element of a "documentHighlights" response.
type DocumentHighlightsItem struct {
	File            string                `json:"file"`
	HighlightSpans  []HighlightSpan       `json:"highlightSpans"`
}

// HighlightSpan is one highlighted span within a file.
type HighlightSpan struct {
	Start AnalyzerPosition `json:"start"`
	End   AnalyzerPosition `json:"end"`
	Kind  string           `json:"kind"` // "writtenReference" | "reference" | "none"
}

// NavTreeItem is a node of the "navtree" response's outline tree.
type NavTreeItem struct {
	Text          string           `json:"text"`
	Kind          string           `json:"kind"`
	Spans         []AnalyzerRange  `json:"spans"`
	SelectionSpan *AnalyzerRange   `json:"nameSpan,omitempty"`
	ChildItems    []NavTreeItem    `json:"childItems,omitempty"`
}

// NavtoItem is one element of a "navto" (workspace symbol search) response.
type NavtoItem struct {
	Name          string           `json:"name"`
	Kind          string           `json:"kind"`
	File          string           `json:"file"`
	Start         AnalyzerPosition `json:"start"`
	End           AnalyzerPosition `json:"end"`
	ContainerName string           `json:"containerName,omitempty"`
}

// SignatureHelpItem is one overload entry of a "signatureHelp" response.
type SignatureHelpItem struct {
	Prefix     []SymbolDisplayPart `json:"prefixDisplayParts"`
	Suffix     []SymbolDisplayPart `json:"suffixDisplayParts"`
	Separator  []SymbolDisplayPart `json:"separatorDisplayParts"`
	Parameters []SignatureHelpParameter `json:"parameters"`
	Documentation []SymbolDisplayPart `json:"documentation,omitempty"`
}

// SignatureHelpParameter is one parameter of a SignatureHelpItem.
type SignatureHelpParameter struct {
	Name          string              `json:"name"`
	Display       []SymbolDisplayPart `json:"displayParts"`
	Documentation []SymbolDisplayPart `json:"documentation,omitempty"`
}

// SignatureHelpResponse is the body of a "signatureHelp" response.
type SignatureHelpResponse struct {
	Items           []SignatureHelpItem `json:"items"`
	SelectedItemIndex int               `json:"selectedItemIndex"`
	ArgumentIndex     int               `json:"argumentIndex"`
}

// SymbolDisplayPart is one styled fragment of a rendered signature or type.
type SymbolDisplayPart struct {
	Text string `json:"text"`
	Kind string `json:"kind"`
}

// CompletionEntry is one element of a "completionInfo" response's entries.
type CompletionEntry struct {
	Name        string `json:"name"`
	Kind        string `json:"kind"`
	SortText    string `json:"sortText"`
	InsertText  string `json:"insertText,omitempty"`
	Source      string `json:"source,omitempty"`
	IsSnippet   bool   `json:"isSnippet,omitempty"`
}

// CompletionInfoResponse is the body of a "completionInfo" response.
type CompletionInfoResponse struct {
	IsIncomplete bool              `json:"isIncomplete"`
	Entries      []CompletionEntry `json:"entries"`
}

// CompletionEntryDetailsResponse is the body of a "completionEntryDetails"
// response.
type CompletionEntryDetailsResponse struct {
	Name          string               `json:"name"`
	Kind          string               `json:"kind"`
	DisplayParts  []SymbolDisplayPart  `json:"displayParts"`
	Documentation []SymbolDisplayPart  `json:"documentation,omitempty"`
	Tags          []JSDocTag           `json:"tags,omitempty"`
	CodeActions   []CodeActionEntry    `json:"codeActions,omitempty"`
}

// CodeActionEntry is one suggested fix, carrying both edits and an
// optional follow-up server-side command.
type CodeActionEntry struct {
	Description string                    `json:"description"`
	Changes     []AnalyzerFileTextChanges `json:"changes"`
	Commands    []any                     `json:"commands,omitempty"`
}

// RenameResponseLocation is one file's set of rename edits.
type RenameResponseLocation struct {
	File  string             `json:"file"`
	Locs  []AnalyzerTextEdit `json:"locs"`
}

// RenameResponse is the body of a "rename" response.
type RenameResponse struct {
	Info  RenameInfo               `json:"info"`
	Locs  []RenameResponseLocation `json:"locs"`
}

// RenameInfo carries whether the rename request can proceed.
type RenameInfo struct {
	CanRename        bool   `json:"canRename"`
	LocalizedErrorMessage string `json:"localizedErrorMessage,omitempty"`
	DisplayName      string `json:"displayName,omitempty"`
}

// OutliningSpan is one element of a "getOutliningSpans" response.
type OutliningSpan struct {
	TextSpan AnalyzerRange `json:"textSpan"`
	Kind     string        `json:"kind"` // "comment" | "region" | "code" | "imports"
}
