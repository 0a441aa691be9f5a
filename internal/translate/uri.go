// Package translate implements the pure, stateless conversions between
// LSP wire shapes and the analyzer's wire shapes: URI/path translation,
// positions and ranges, symbol kinds, documentation rendering, and
// completion item shapes.
package translate

import (
	"net/url"
	"strings"

	"github.com/tsgolsp/tsgo-bridge/internal/lsp/lsproto"
)

// URIToPath parses a file:// URI into an absolute native path. It returns
// ok=false for non-file schemes; callers short-circuit the request with
// an empty response in that case.
func URIToPath(uri lsproto.DocumentUri) (path string, ok bool) {
	if !strings.HasPrefix(string(uri), "file://") {
		return "", false
	}
	parsed, err := url.Parse(string(uri))
	if err != nil {
		return "", false
	}
	path = parsed.Path
	if runtimeIsWindows && len(path) > 0 && path[0] == '/' {
		// file:///C:/foo -> C:/foo
		if len(path) >= 3 && path[2] == ':' {
			path = path[1:]
		}
	}
	return path, true
}

// PathToURI produces a file:// URI with the path percent-encoded per
// RFC 3986.
func PathToURI(path string) lsproto.DocumentUri {
	p := strings.ReplaceAll(path, "\\", "/")
	if runtimeIsWindows && len(p) >= 2 && p[1] == ':' {
		p = "/" + p
	}
	u := url.URL{Scheme: "file", Path: p}
	return lsproto.DocumentUri(u.String())
}
