// Package analyzer implements the bridge's side of the line-framed JSON
// command protocol spoken by the external TypeScript language service
// subprocess: process lifecycle, request/response correlation with
// cancellation, and event fan-out.
package analyzer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-json-experiment/json"
	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// Event is one `type: "event"` message from the analyzer, still holding
// its body undecoded so each consumer (internal/diagnostics today) can
// unmarshal only what it recognizes.
type Event struct {
	Name string
	body RawBody
}

// Unmarshal decodes the event body into dst.
func (e Event) Unmarshal(dst any) error {
	if len(e.body) == 0 {
		return nil
	}
	return json.Unmarshal(e.body, dst)
}

// EventHandler is invoked for every analyzer event on the client's reader
// goroutine. It must not block indefinitely; callers typically hand off
// to a buffered queue (internal/diagnostics does this).
type EventHandler func(Event)

// ErrTransportClosed is returned to every pending request when the
// subprocess connection fails or exits unexpectedly.
var ErrTransportClosed = errors.New("analyzer transport closed")

// RequestError wraps a `{success: false, message}` analyzer response.
type RequestError struct {
	Command string
	Message string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("analyzer command %q failed: %s", e.Command, e.Message)
}

type pendingRequest struct {
	command string
	resultC chan pendingResult
}

type pendingResult struct {
	body RawBody
	err  error
}

// Client multiplexes requests/notifications onto one analyzer subprocess.
type Client struct {
	onEvent EventHandler

	cmd     *exec.Cmd
	stdin   io.WriteCloser
	writeMu sync.Mutex

	seq atomic.Int32

	pendingMu sync.Mutex
	pending   map[int32]*pendingRequest

	done      chan struct{}
	closeOnce sync.Once
	fatalErr  atomic.Pointer[error]
}

// NewClient constructs a client that delivers analyzer events to onEvent.
// No subprocess exists until Start is called with the executable to run.
func NewClient(onEvent EventHandler) *Client {
	return &Client{
		onEvent: onEvent,
		pending: make(map[int32]*pendingRequest),
		done:    make(chan struct{}),
	}
}

// Start spawns the analyzer subprocess, attaches stdio, starts the reader
// goroutine, and sends the first "configure" request. The caller supplies
// configureArgs because only the server layer knows the analyzer
// preferences to send.
func (c *Client) Start(ctx context.Context, path string, args []string, configureArgs *ConfigureArgs) error {
	cmd := exec.Command(path, args...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("failed to open analyzer stdin: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("failed to open analyzer stdout: %w", err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start analyzer process: %w", err)
	}

	c.cmd = cmd
	c.stdin = stdin

	go c.readLoop(stdout)
	go c.waitLoop()

	if configureArgs != nil {
		if _, err := c.Request(ctx, CommandConfigure, configureArgs, nil); err != nil {
			return fmt.Errorf("analyzer rejected configure: %w", err)
		}
	}
	return nil
}

func (c *Client) waitLoop() {
	err := c.cmd.Wait()
	if err == nil {
		err = errors.New("analyzer process exited")
	}
	c.fail(fmt.Errorf("analyzer process exited: %w", err))
}

func (c *Client) readLoop(stdout io.Reader) {
	r := lsproto.NewBaseReader(stdout)
	for {
		data, err := r.Read()
		if err != nil {
			c.fail(fmt.Errorf("%w: %w", ErrTransportClosed, err))
			return
		}
		var env incomingEnvelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue // malformed frame; analyzer transport stays up, frame is dropped
		}
		switch env.Type {
		case "response":
			c.completeRequest(env.RequestSeq, env)
		case "event":
			if c.onEvent != nil {
				c.onEvent(Event{Name: env.Event, body: env.Body})
			}
		}
	}
}

func (c *Client) completeRequest(requestSeq int32, env incomingEnvelope) {
	c.pendingMu.Lock()
	pending, ok := c.pending[requestSeq]
	if ok {
		delete(c.pending, requestSeq)
	}
	c.pendingMu.Unlock()
	if !ok {
		return
	}
	if env.Success {
		pending.resultC <- pendingResult{body: env.Body}
	} else {
		pending.resultC <- pendingResult{err: &RequestError{Command: pending.command, Message: env.Message}}
	}
}

// fail drains every pending request with ErrTransportClosed and marks the
// client dead. Called at most once; later calls are no-ops.
func (c *Client) fail(err error) {
	c.closeOnce.Do(func() {
		c.fatalErr.Store(&err)
		c.pendingMu.Lock()
		pending := c.pending
		c.pending = make(map[int32]*pendingRequest)
		c.pendingMu.Unlock()
		for _, p := range pending {
			p.resultC <- pendingResult{err: ErrTransportClosed}
		}
		close(c.done)
	})
}

// Dead returns a channel closed when the transport has failed fatally.
func (c *Client) Dead() <-chan struct{} {
	return c.done
}

// FatalError returns the error that caused the transport to fail, or nil
// if it is still alive.
func (c *Client) FatalError() error {
	if p := c.fatalErr.Load(); p != nil {
		return *p
	}
	return nil
}

// Request sends a command and waits for its response. If cancel fires
// before the response arrives, Request returns context.Canceled and the
// analyzer's eventual response (if any) is discarded; the analyzer keeps
// computing regardless.
func (c *Client) Request(ctx context.Context, command string, args any, cancel <-chan struct{}) (RawBody, error) {
	call, err := c.Issue(command, args)
	if err != nil {
		return nil, err
	}
	return call.Await(ctx, cancel)
}

// PendingCall is a request that has been written to the wire but whose
// response has not yet been awaited. Splitting issue from await lets a
// caller react to "the request is on the wire" before the analyzer has
// replied, e.g. to resume other work that was paused to let this request
// go out first.
type PendingCall struct {
	client  *Client
	seq     int32
	pending *pendingRequest
}

// Issue writes a request to the analyzer and returns immediately, without
// waiting for its response.
func (c *Client) Issue(command string, args any) (*PendingCall, error) {
	seq := c.seq.Add(1)
	pending := &pendingRequest{command: command, resultC: make(chan pendingResult, 1)}

	c.pendingMu.Lock()
	c.pending[seq] = pending
	c.pendingMu.Unlock()

	if err := c.writeMessage(outgoingMessage{Seq: seq, Type: "request", Command: command, Arguments: args}); err != nil {
		c.pendingMu.Lock()
		delete(c.pending, seq)
		c.pendingMu.Unlock()
		return nil, err
	}
	return &PendingCall{client: c, seq: seq, pending: pending}, nil
}

// Await blocks for the response to a call issued by Issue. If cancel fires
// first, Await returns context.Canceled and the analyzer's eventual
// response (if any) is discarded; the analyzer keeps computing regardless.
func (call *PendingCall) Await(ctx context.Context, cancel <-chan struct{}) (RawBody, error) {
	select {
	case <-ctx.Done():
		call.client.abandon(call.seq)
		return nil, ctx.Err()
	case <-cancelOrNever(cancel):
		call.client.abandon(call.seq)
		return nil, context.Canceled
	case result := <-call.pending.resultC:
		return result.body, result.err
	}
}

func cancelOrNever(cancel <-chan struct{}) <-chan struct{} {
	if cancel != nil {
		return cancel
	}
	return nil
}

// abandon removes a pending request so its eventual response is dropped
// without waking anyone; the analyzer is not told to stop working on it.
func (c *Client) abandon(seq int32) {
	c.pendingMu.Lock()
	delete(c.pending, seq)
	c.pendingMu.Unlock()
}

// Notify sends a fire-and-forget command.
func (c *Client) Notify(command string, args any) error {
	return c.writeMessage(outgoingMessage{Seq: c.seq.Add(1), Type: "request", Command: command, Arguments: args})
}

func (c *Client) writeMessage(msg outgoingMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal analyzer message: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if _, err := c.stdin.Write(data); err != nil {
		return err
	}
	_, err = c.stdin.Write([]byte("\n"))
	return err
}

// Stop sends a close notification for every currently open file, then
// signals the subprocess to exit; if it has not exited within grace, it
// is killed.
func (c *Client) Stop(openFiles []string, grace time.Duration) {
	for _, file := range openFiles {
		_ = c.Notify(CommandClose, &CloseArgs{File: file})
	}
	c.writeMu.Lock()
	_ = c.stdin.Close()
	c.writeMu.Unlock()

	if c.cmd == nil || c.cmd.Process == nil {
		return
	}
	timer := time.NewTimer(grace)
	defer timer.Stop()
	select {
	case <-c.done:
	case <-timer.C:
		_ = c.cmd.Process.Kill()
	}
}
