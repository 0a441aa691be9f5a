package server

import (
	"context"
	"sort"
	"sync"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
	"github.com/tsgolsp/tsgo-bridge/internal/document"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
	"github.com/tsgolsp/tsgo-bridge/internal/translate"
)

// diagToken is the single-slot cancellation token representing an
// in-flight geterr round.
type diagToken struct {
	mu     sync.Mutex
	cancel context.CancelFunc
	gen    uint64
}

// interruptDiagnostics cancels any in-flight geterr round so the analyzer's
// work queue is free for an interactive query, then runs f. f must issue
// its analyzer request(s) and call resume as soon as the last one has been
// written to the wire, before blocking on any response, so that diagnostics
// resume without waiting for the interactive round trip to finish. resume
// is a no-op on its second and later calls, and is always called once more
// after f returns in case f never got the chance to (e.g. it failed before
// issuing anything).
func (s *Server) interruptDiagnostics(ctx context.Context, f func(resume func()) error) error {
	s.cancelDiagRound()
	var resumeOnce sync.Once
	resume := func() { resumeOnce.Do(s.requestDiagnostics) }
	err := f(resume)
	resume()
	return err
}

func (s *Server) cancelDiagRound() {
	s.diagToken.mu.Lock()
	defer s.diagToken.mu.Unlock()
	if s.diagToken.cancel != nil {
		s.diagToken.cancel()
		s.diagToken.cancel = nil
	}
}

// requestDiagnostics cancels any prior round, installs a new token, and
// asks the analyzer for diagnostics on every open file, ordered
// least-recently-accessed first so the file the user is currently
// looking at is computed last and stays fresh if they switch away.
func (s *Server) requestDiagnostics() {
	s.cancelDiagRound()

	files := s.openFilesByLRU()
	if len(files) == 0 {
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.diagToken.mu.Lock()
	s.diagToken.gen++
	gen := s.diagToken.gen
	s.diagToken.cancel = cancel
	s.diagToken.mu.Unlock()

	go func() {
		defer cancel()
		_, _ = s.client.Request(ctx, analyzer.CommandGeterr, &analyzer.GeterrArgs{Files: files, Delay: 0}, ctx.Done())
		s.diagToken.mu.Lock()
		if s.diagToken.gen == gen {
			s.diagToken.cancel = nil
		}
		s.diagToken.mu.Unlock()
	}()
}

type lruDoc struct {
	path     string
	accessed int64
}

func (s *Server) openFilesByLRU() []string {
	s.docsMu.Lock()
	docs := make([]lruDoc, 0, len(s.docs))
	for uri, d := range s.docs {
		if path, ok := translate.URIToPath(uri); ok {
			docs = append(docs, lruDoc{path: path, accessed: d.LastAccessed()})
		}
	}
	s.docsMu.Unlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].accessed < docs[j].accessed })
	out := make([]string, len(docs))
	for i, d := range docs {
		out[i] = d.path
	}
	return out
}

func (s *Server) getDocument(uri lsproto.DocumentUri) (*document.Document, bool) {
	s.docsMu.Lock()
	defer s.docsMu.Unlock()
	d, ok := s.docs[uri]
	return d, ok
}
