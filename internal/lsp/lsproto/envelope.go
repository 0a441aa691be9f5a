// Package lsproto defines the editor-facing LSP wire types: the JSON-RPC
// envelope, the request/notification method table, and the subset of LSP
// 3.17 parameter and result shapes the bridge server speaks.
package lsproto

import (
	"fmt"

	"github.com/go-json-experiment/json"
)

// IntegerOrString is an LSP request id, which is either a number or a string.
type IntegerOrString struct {
	Integer *int32
	String  *string
}

func NewIntegerID(v int32) IntegerOrString { return IntegerOrString{Integer: &v} }
func NewStringID(v string) IntegerOrString { return IntegerOrString{String: &v} }

func (v IntegerOrString) str() string {
	if v.String != nil {
		return *v.String
	}
	if v.Integer != nil {
		return fmt.Sprintf("%d", *v.Integer)
	}
	return "<nil>"
}

// ID is a typed, comparable request identifier usable as a map key.
type ID struct {
	value IntegerOrString
}

func NewID(v IntegerOrString) *ID { return &ID{value: v} }

func NewIDString(s string) *ID { return NewID(NewStringID(s)) }

func (id *ID) String() string {
	if id == nil {
		return "<nil>"
	}
	return id.value.str()
}

func (id *ID) MarshalJSON() ([]byte, error) {
	if id.value.String != nil {
		return json.Marshal(*id.value.String)
	}
	return json.Marshal(*id.value.Integer)
}

func (id *ID) UnmarshalJSON(data []byte) error {
	var asInt int32
	if err := json.Unmarshal(data, &asInt); err == nil {
		id.value = IntegerOrString{Integer: &asInt}
		return nil
	}
	var asString string
	if err := json.Unmarshal(data, &asString); err != nil {
		return fmt.Errorf("invalid request id: %s", data)
	}
	id.value = IntegerOrString{String: &asString}
	return nil
}

// Method names the handlers this bridge registers; see the handler table
// in internal/server.
type Method string

const (
	MethodInitialize                    Method = "initialize"
	MethodInitialized                   Method = "initialized"
	MethodShutdown                      Method = "shutdown"
	MethodExit                          Method = "exit"
	MethodCancelRequest                 Method = "$/cancelRequest"
	MethodTextDocumentPublishDiagnostics Method = "textDocument/publishDiagnostics"
	MethodTextDocumentDidOpen           Method = "textDocument/didOpen"
	MethodTextDocumentDidChange         Method = "textDocument/didChange"
	MethodTextDocumentDidClose          Method = "textDocument/didClose"
	MethodTextDocumentDefinition        Method = "textDocument/definition"
	MethodTextDocumentTypeDefinition    Method = "textDocument/typeDefinition"
	MethodTextDocumentImplementation    Method = "textDocument/implementation"
	MethodTextDocumentReferences        Method = "textDocument/references"
	MethodTextDocumentDocumentHighlight Method = "textDocument/documentHighlight"
	MethodTextDocumentDocumentSymbol    Method = "textDocument/documentSymbol"
	MethodWorkspaceSymbol               Method = "workspace/symbol"
	MethodTextDocumentHover             Method = "textDocument/hover"
	MethodTextDocumentSignatureHelp     Method = "textDocument/signatureHelp"
	MethodTextDocumentCompletion        Method = "textDocument/completion"
	MethodCompletionItemResolve         Method = "completionItem/resolve"
	MethodTextDocumentRename            Method = "textDocument/rename"
	MethodTextDocumentFormatting        Method = "textDocument/formatting"
	MethodTextDocumentFoldingRange      Method = "textDocument/foldingRange"
	MethodTextDocumentCodeAction        Method = "textDocument/codeAction"
	MethodWorkspaceExecuteCommand       Method = "workspace/executeCommand"
	MethodWorkspaceApplyEdit            Method = "workspace/applyEdit"
	MethodTypescriptRename              Method = "_typescript.rename"
)

// MessageKind distinguishes the three JSON-RPC envelope shapes.
type MessageKind int

const (
	MessageKindRequest MessageKind = iota
	MessageKindResponse
	MessageKindNotification
)

// rawValue holds a JSON value verbatim so it can be decoded a second time
// once the method name is known to select the concrete Go type.
type rawValue []byte

func (r rawValue) MarshalJSON() ([]byte, error) {
	if len(r) == 0 {
		return []byte("null"), nil
	}
	return r, nil
}

func (r *rawValue) UnmarshalJSON(data []byte) error {
	*r = append((*r)[:0], data...)
	return nil
}

func (r rawValue) decode(into any) error {
	if len(r) == 0 || string(r) == "null" {
		return nil
	}
	return json.Unmarshal(r, into)
}

// wireEnvelope is the literal JSON-RPC 2.0 shape used on the wire.
type wireEnvelope struct {
	JSONRPC string         `json:"jsonrpc"`
	ID      *ID            `json:"id,omitempty"`
	Method  Method         `json:"method,omitempty"`
	Params  rawValue       `json:"params,omitempty"`
	Result  rawValue       `json:"result,omitempty"`
	Error   *ResponseError `json:"error,omitempty"`
}

// Message is a parsed JSON-RPC envelope carrying undecoded params/result
// payloads; callers decode them into a concrete type once the method (and
// therefore the expected shape) is known.
type Message struct {
	Kind MessageKind

	ID     *ID
	Method Method
	params rawValue

	result rawValue
	Error  *ResponseError
}

func (m *Message) MarshalJSON() ([]byte, error) {
	env := wireEnvelope{JSONRPC: "2.0", ID: m.ID, Method: m.Method, Params: m.params, Result: m.result, Error: m.Error}
	return json.Marshal(env)
}

func (m *Message) UnmarshalJSON(data []byte) error {
	var env wireEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return err
	}
	m.ID = env.ID
	m.Method = env.Method
	m.params = env.Params
	m.result = env.Result
	m.Error = env.Error
	switch {
	case env.Method != "" && env.ID != nil:
		m.Kind = MessageKindRequest
	case env.Method != "":
		m.Kind = MessageKindNotification
	default:
		m.Kind = MessageKindResponse
	}
	return nil
}

func (m *Message) AsRequest() *RequestMessage {
	return &RequestMessage{ID: m.ID, Method: m.Method, params: m.params}
}

func (m *Message) AsResponse() *ResponseMessage {
	return &ResponseMessage{ID: m.ID, result: m.result, Error: m.Error}
}

// RequestMessage is an outgoing or incoming request/notification (ID is
// nil for notifications).
type RequestMessage struct {
	ID     *ID
	Method Method
	Params any
	params rawValue
}

func NewRequestMessage(method Method, id *ID, params any) *RequestMessage {
	return &RequestMessage{ID: id, Method: method, Params: params}
}

func NewNotificationMessage(method Method, params any) *RequestMessage {
	return &RequestMessage{Method: method, Params: params}
}

func (r *RequestMessage) Message() *Message {
	raw, _ := json.Marshal(r.Params)
	return &Message{Kind: MessageKindRequest, ID: r.ID, Method: r.Method, params: raw}
}

// UnmarshalParams decodes the request's raw params into dst.
func (r *RequestMessage) UnmarshalParams(dst any) error {
	return r.params.decode(dst)
}

// ResponseMessage is an outgoing or incoming response.
type ResponseMessage struct {
	ID     *ID
	Result any
	result rawValue
	Error  *ResponseError
}

func (r *ResponseMessage) Message() *Message {
	raw, _ := json.Marshal(r.Result)
	return &Message{Kind: MessageKindResponse, ID: r.ID, result: raw, Error: r.Error}
}

// UnmarshalResult decodes the response's raw result into dst.
func (r *ResponseMessage) UnmarshalResult(dst any) error {
	return r.result.decode(dst)
}

// ResponseError carries a JSON-RPC error; it also satisfies `error` so
// handlers can return it directly.
type ResponseError struct {
	Code    int32  `json:"code"`
	Message string `json:"message"`
}

func (e *ResponseError) Error() string { return e.Message }

func (e *ResponseError) String() string {
	return fmt.Sprintf("%s (%d)", e.Message, e.Code)
}

type ErrorCode struct {
	Code int32
	Name string
}

func (e *ErrorCode) Error() string { return e.Name }

var (
	ErrInvalidRequest       = &ErrorCode{Code: -32600, Name: "invalid request"}
	ErrMethodNotFound       = &ErrorCode{Code: -32601, Name: "method not found"}
	ErrInternalError        = &ErrorCode{Code: -32603, Name: "internal error"}
	ErrServerNotInitialized = &ErrorCode{Code: -32002, Name: "server not initialized"}
	ErrRequestCancelled     = &ErrorCode{Code: -32800, Name: "request cancelled"}
)

// HasTextDocumentURI is implemented by every request/notification param
// type that names a single target document, letting the server's generic
// document-request wrapper resolve the open document without a type
// switch per operation.
type HasTextDocumentURI interface {
	TextDocumentURI() DocumentUri
}
