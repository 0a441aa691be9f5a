// Package lsp wires the Content-Length-framed transport to the JSON-RPC
// message envelope.
package lsp

import (
	"fmt"
	"io"

	"github.com/go-json-experiment/json"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

type Reader interface {
	Read() (*lsproto.Message, error)
}

type Writer interface {
	Write(msg *lsproto.Message) error
}

type reader struct {
	r *lsproto.BaseReader
}

func ToReader(r io.Reader) Reader {
	return &reader{r: lsproto.NewBaseReader(r)}
}

func (r *reader) Read() (*lsproto.Message, error) {
	data, err := r.r.Read()
	if err != nil {
		return nil, err
	}
	msg := &lsproto.Message{}
	if err := json.Unmarshal(data, msg); err != nil {
		return nil, fmt.Errorf("%w: %w", lsproto.ErrInvalidRequest, err)
	}
	return msg, nil
}

type writer struct {
	w *lsproto.BaseWriter
}

func ToWriter(w io.Writer) Writer {
	return &writer{w: lsproto.NewBaseWriter(w)}
}

func (w *writer) Write(msg *lsproto.Message) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	return w.w.Write(data)
}

var (
	_ Reader = (*reader)(nil)
	_ Writer = (*writer)(nil)
)
