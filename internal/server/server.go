// Package server implements the bridge's core: the open-document map, the
// analyzer client, the diagnostics queue, and the per-operation LSP
// dispatch table.
package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/tsgolsp/tsgo-bridge/internal/diagnostics"
	"github.com/tsgolsp/tsgo-bridge/internal/discovery"
	"github.com/tsgolsp/tsgo-bridge/internal/document"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/logging"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

const shutdownGrace = 2 * time.Second

// Options configures a Server.
type Options struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer

	AnalyzerPath string

	// AnalyzerLogFile and AnalyzerLogVerbosity are forwarded unchanged to
	// the analyzer subprocess as its own --logFile/--logVerbosity CLI
	// arguments; they do not affect this bridge's own stderr logging.
	AnalyzerLogFile      string
	AnalyzerLogVerbosity string
}

// Server bridges an editor's LSP session to one analyzer subprocess.
type Server struct {
	r lsp.Reader
	w lsp.Writer

	logger logging.Logger

	requestQueue          chan *lsproto.RequestMessage
	outgoingQueue         chan *lsproto.Message
	pendingClientRequests map[lsproto.ID]pendingClientRequest
	pendingClientMu       sync.Mutex

	serverSeq             atomic.Int32
	pendingServerRequests map[lsproto.ID]chan *lsproto.ResponseMessage
	pendingServerMu       sync.Mutex

	analyzerPath         string
	analyzerLogFile      string
	analyzerLogVerbosity string

	initialized atomic.Bool
	rootPath    string

	docsMu sync.Mutex
	docs   map[lsproto.DocumentUri]*document.Document

	client      analyzerClient
	diagnostics *diagnostics.Queue

	diagToken diagToken

	formatOnce     sync.Once
	formatSettings discovery.FormatSettings
}

type pendingClientRequest struct {
	cancel context.CancelFunc
}

func New(opts *Options) *Server {
	s := &Server{
		r:                     lsp.ToReader(opts.In),
		w:                     lsp.ToWriter(opts.Out),
		logger:                logging.NewLogger(opts.Err),
		requestQueue:          make(chan *lsproto.RequestMessage, 100),
		outgoingQueue:         make(chan *lsproto.Message, 100),
		pendingClientRequests: make(map[lsproto.ID]pendingClientRequest),
		pendingServerRequests: make(map[lsproto.ID]chan *lsproto.ResponseMessage),
		analyzerPath:          opts.AnalyzerPath,
		analyzerLogFile:       opts.AnalyzerLogFile,
		analyzerLogVerbosity:  opts.AnalyzerLogVerbosity,
		docs:                  make(map[lsproto.DocumentUri]*document.Document),
	}
	s.diagnostics = diagnostics.New(s)
	return s
}

// Run starts the dispatch/write/read loops and blocks until the session
// ends (editor disconnect, or exit notification).
func (s *Server) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return s.dispatchLoop(ctx) })
	g.Go(func() error { return s.writeLoop(ctx) })

	readLoopErr := make(chan error, 1)
	g.Go(func() error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readLoopErr:
			return err
		}
	})
	go func() { readLoopErr <- s.readLoop(ctx) }()

	if err := g.Wait(); err != nil && !errors.Is(err, io.EOF) && ctx.Err() == nil {
		return err
	}
	if s.client != nil {
		s.client.Stop(s.openFileNames(), shutdownGrace)
	}
	return nil
}

func (s *Server) readLoop(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		msg, err := s.r.Read()
		if err != nil {
			if errors.Is(err, lsproto.ErrInvalidRequest) {
				s.sendError(nil, err)
				continue
			}
			return err
		}

		switch msg.Kind {
		case lsproto.MessageKindRequest, lsproto.MessageKindNotification:
			req := msg.AsRequest()
			if req.Method == lsproto.MethodCancelRequest {
				s.cancelRequest(req)
				continue
			}
			s.requestQueue <- req
		case lsproto.MessageKindResponse:
			resp := msg.AsResponse()
			if resp.ID == nil {
				continue
			}
			s.pendingServerMu.Lock()
			if respChan, ok := s.pendingServerRequests[*resp.ID]; ok {
				respChan <- resp
				close(respChan)
				delete(s.pendingServerRequests, *resp.ID)
			}
			s.pendingServerMu.Unlock()
		}
	}
}

type cancelParams struct {
	ID lsproto.IntegerOrString `json:"id"`
}

func (s *Server) cancelRequest(req *lsproto.RequestMessage) {
	var params cancelParams
	if err := req.UnmarshalParams(&params); err != nil {
		return
	}
	id := lsproto.NewID(params.ID)
	s.pendingClientMu.Lock()
	defer s.pendingClientMu.Unlock()
	if pending, ok := s.pendingClientRequests[*id]; ok {
		pending.cancel()
		delete(s.pendingClientRequests, *id)
	}
}

func (s *Server) dispatchLoop(ctx context.Context) error {
	ctx, exit := context.WithCancel(ctx)
	defer exit()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case req := <-s.requestQueue:
			s.dispatch(ctx, req, exit)
		}
	}
}

func (s *Server) dispatch(ctx context.Context, req *lsproto.RequestMessage, exit context.CancelFunc) {
	requestCtx := ctx
	var cancel context.CancelFunc
	if req.ID != nil {
		requestCtx, cancel = context.WithCancel(ctx)
		s.pendingClientMu.Lock()
		s.pendingClientRequests[*req.ID] = pendingClientRequest{cancel: cancel}
		s.pendingClientMu.Unlock()
	}

	handle := func() {
		defer s.recoverPanic(req)
		if req.ID != nil {
			defer func() {
				s.pendingClientMu.Lock()
				delete(s.pendingClientRequests, *req.ID)
				s.pendingClientMu.Unlock()
			}()
		}
		if err := s.handle(requestCtx, req); err != nil {
			switch {
			case errors.Is(err, context.Canceled):
				s.sendError(req.ID, lsproto.ErrRequestCancelled)
			case errors.Is(err, io.EOF):
				exit()
			default:
				s.sendError(req.ID, err)
			}
		}
	}

	if isBlockingMethod(req.Method) {
		handle()
	} else {
		go handle()
	}
}

// isBlockingMethod names methods that must run on the dispatch loop
// itself rather than a spawned goroutine, because later messages depend
// on their completed side effects (document mutation, lifecycle state).
func isBlockingMethod(m lsproto.Method) bool {
	switch m {
	case lsproto.MethodInitialize, lsproto.MethodInitialized,
		lsproto.MethodTextDocumentDidOpen, lsproto.MethodTextDocumentDidChange, lsproto.MethodTextDocumentDidClose,
		lsproto.MethodShutdown, lsproto.MethodExit:
		return true
	default:
		return false
	}
}

func (s *Server) writeLoop(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg := <-s.outgoingQueue:
			if err := s.w.Write(msg); err != nil {
				return fmt.Errorf("failed to write message: %w", err)
			}
		}
	}
}

func (s *Server) sendResult(id *lsproto.ID, result any) {
	s.outgoingQueue <- (&lsproto.ResponseMessage{ID: id, Result: result}).Message()
}

func (s *Server) sendError(id *lsproto.ID, err error) {
	code := lsproto.ErrInternalError.Code
	var ec *lsproto.ErrorCode
	if errors.As(err, &ec) {
		code = ec.Code
	}
	s.outgoingQueue <- (&lsproto.ResponseMessage{ID: id, Error: &lsproto.ResponseError{Code: code, Message: err.Error()}}).Message()
}

func (s *Server) sendNotification(method lsproto.Method, params any) {
	s.outgoingQueue <- lsproto.NewNotificationMessage(method, params).Message()
}

// sendServerRequest issues a bridge-initiated request (applyEdit,
// client-side rename/refactor commands) and blocks for the editor's
// response, correlating by request id the way the analyzer side does for
// its own requests.
func (s *Server) sendServerRequest(ctx context.Context, method lsproto.Method, params any) (*lsproto.ResponseMessage, error) {
	id := lsproto.NewIDString(fmt.Sprintf("bridge%d", s.serverSeq.Add(1)))
	req := lsproto.NewRequestMessage(method, id, params)

	respChan := make(chan *lsproto.ResponseMessage, 1)
	s.pendingServerMu.Lock()
	s.pendingServerRequests[*id] = respChan
	s.pendingServerMu.Unlock()

	s.outgoingQueue <- req.Message()

	select {
	case <-ctx.Done():
		s.pendingServerMu.Lock()
		delete(s.pendingServerRequests, *id)
		s.pendingServerMu.Unlock()
		return nil, ctx.Err()
	case resp := <-respChan:
		if resp.Error != nil {
			return nil, resp.Error
		}
		return resp, nil
	}
}

// PublishDiagnostics implements diagnostics.Publisher.
func (s *Server) PublishDiagnostics(params *lsproto.PublishDiagnosticsParams) {
	s.sendNotification(lsproto.MethodTextDocumentPublishDiagnostics, params)
}

func (s *Server) recoverPanic(req *lsproto.RequestMessage) {
	if r := recover(); r != nil {
		stack := debug.Stack()
		s.logger.Error("panic handling request", req.Method, r, string(stack))
		if req.ID != nil {
			s.sendError(req.ID, fmt.Errorf("%w: panic handling %s: %v", lsproto.ErrInternalError, req.Method, r))
		}
	}
}

func (s *Server) openFileNames() []string {
	s.docsMu.Lock()
	defer s.docsMu.Unlock()
	names := make([]string, 0, len(s.docs))
	for uri := range s.docs {
		if path, ok := translate.URIToPath(uri); ok {
			names = append(names, path)
		}
	}
	return names
}
