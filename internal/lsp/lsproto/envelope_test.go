package lsproto

import (
	"testing"

	"gotest.tools/v3/assert"
)

func TestMessageUnmarshalKindDetection(t *testing.T) {
	t.Parallel()

	var req Message
	assert.NilError(t, req.UnmarshalJSON([]byte(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{}}`)))
	assert.Equal(t, MessageKindRequest, req.Kind)

	var notif Message
	assert.NilError(t, notif.UnmarshalJSON([]byte(`{"jsonrpc":"2.0","method":"textDocument/didOpen","params":{}}`)))
	assert.Equal(t, MessageKindNotification, notif.Kind)

	var resp Message
	assert.NilError(t, resp.UnmarshalJSON([]byte(`{"jsonrpc":"2.0","id":1,"result":{}}`)))
	assert.Equal(t, MessageKindResponse, resp.Kind)
}

func TestIDRoundTripsIntegerAndString(t *testing.T) {
	t.Parallel()

	var fromInt ID
	assert.NilError(t, fromInt.UnmarshalJSON([]byte(`42`)))
	data, err := fromInt.MarshalJSON()
	assert.NilError(t, err)
	assert.Equal(t, "42", string(data))

	var fromString ID
	assert.NilError(t, fromString.UnmarshalJSON([]byte(`"abc"`)))
	data, err = fromString.MarshalJSON()
	assert.NilError(t, err)
	assert.Equal(t, `"abc"`, string(data))
}

func TestRequestMessageUnmarshalParams(t *testing.T) {
	t.Parallel()
	var msg Message
	assert.NilError(t, msg.UnmarshalJSON([]byte(`{"jsonrpc":"2.0","id":1,"method":"textDocument/hover","params":{"textDocument":{"uri":"file:///a.ts"}}}`)))
	req := msg.AsRequest()

	var params struct {
		TextDocument struct {
			URI DocumentUri `json:"uri"`
		} `json:"textDocument"`
	}
	assert.NilError(t, req.UnmarshalParams(&params))
	assert.Equal(t, DocumentUri("file:///a.ts"), params.TextDocument.URI)
}
