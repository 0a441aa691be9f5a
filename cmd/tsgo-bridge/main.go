// Command tsgo-bridge speaks the Language Server Protocol on stdio and
// forwards the session to a tsserver-compatible analyzer subprocess.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/tsgolsp/tsgo-bridge/internal/server"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		analyzerPath         string
		analyzerLogFile      string
		analyzerLogVerbosity string
		stdio                bool
	)

	cmd := &cobra.Command{
		Use:   "tsgo-bridge",
		Short: "Language server bridge from LSP to a tsserver-compatible analyzer",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !stdio {
				return fmt.Errorf("tsgo-bridge only supports --stdio transport")
			}

			s := server.New(&server.Options{
				In:                   os.Stdin,
				Out:                  os.Stdout,
				Err:                  os.Stderr,
				AnalyzerPath:         analyzerPath,
				AnalyzerLogFile:      analyzerLogFile,
				AnalyzerLogVerbosity: analyzerLogVerbosity,
			})
			return s.Run()
		},
	}

	cmd.Flags().StringVar(&analyzerPath, "tsserver-path", "", "explicit path to the tsserver-compatible analyzer binary")
	cmd.Flags().StringVar(&analyzerLogFile, "tsserver-log-file", "", "forwarded to the analyzer subprocess as its own --logFile")
	cmd.Flags().StringVar(&analyzerLogVerbosity, "tsserver-log-verbosity", "", "forwarded to the analyzer subprocess as its own --logVerbosity (terse|normal|verbose|requestTime)")
	cmd.Flags().BoolVar(&stdio, "stdio", true, "use stdio transport (the only transport supported today)")

	return cmd
}
