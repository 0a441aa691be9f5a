package server

import (
	"context"
	"time"

	"github.com/tsgolsp/tsgo-bridge/internal/analyzer"
)

// analyzerClient is the subset of *analyzer.Client's behavior the
// dispatch code in this package depends on. Tests substitute a stub
// implementation so request handling can be exercised without spawning a
// real analyzer subprocess.
type analyzerClient interface {
	Notify(command string, args any) error
	Request(ctx context.Context, command string, args any, cancel <-chan struct{}) (analyzer.RawBody, error)
	Issue(command string, args any) (analyzerCall, error)
	Start(ctx context.Context, path string, args []string, configureArgs *analyzer.ConfigureArgs) error
	Stop(openFiles []string, grace time.Duration)
}

// analyzerCall is a request that has been written to the wire but not yet
// awaited, as returned by analyzerClient.Issue.
type analyzerCall interface {
	Await(ctx context.Context, cancel <-chan struct{}) (analyzer.RawBody, error)
}

// realAnalyzerClient adapts *analyzer.Client to analyzerClient; Issue's
// return type differs only in that *analyzer.PendingCall must be boxed as
// analyzerCall, since a concrete *analyzer.Client can't implement an
// interface method returning an interface type by itself.
type realAnalyzerClient struct {
	*analyzer.Client
}

func (c realAnalyzerClient) Issue(command string, args any) (analyzerCall, error) {
	return c.Client.Issue(command, args)
}

var _ analyzerClient = realAnalyzerClient{}
