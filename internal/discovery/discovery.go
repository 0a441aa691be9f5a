// Package discovery locates the analyzer executable and loads optional
// project-level settings the server needs at startup.
package discovery

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/go-json-experiment/json"
)

// binaryName is the analyzer's executable name, platform-suffixed.
func binaryName() string {
	if runtime.GOOS == "windows" {
		return "tsserver.cmd"
	}
	return "tsserver"
}

// FindAnalyzer resolves the analyzer binary to run. explicitPath, when
// non-empty, is used verbatim. Otherwise it looks for
// <root>/node_modules/.bin/tsserver(.cmd), falls back to "tsserver" on
// PATH, and finally to a bundled path alongside this executable.
func FindAnalyzer(explicitPath, root string) (string, error) {
	if explicitPath != "" {
		return explicitPath, nil
	}

	if root != "" {
		local := filepath.Join(root, "node_modules", ".bin", binaryName())
		if info, err := os.Stat(local); err == nil && !info.IsDir() {
			return local, nil
		}
	}

	if path, err := exec.LookPath(binaryName()); err == nil {
		return path, nil
	}

	if self, err := os.Executable(); err == nil {
		bundled := filepath.Join(filepath.Dir(self), binaryName())
		if info, err := os.Stat(bundled); err == nil && !info.IsDir() {
			return bundled, nil
		}
	}

	return "", fmt.Errorf("could not locate %s: not found under node_modules/.bin, on PATH, or bundled", binaryName())
}

// FormatSettings is loaded from a project's tsfmt.json and merged over
// the format options built from the LSP formatting request.
type FormatSettings map[string]any

// LoadFormatSettings reads <root>/tsfmt.json. A missing file is not an
// error: it returns a nil map. A malformed file returns an error so the
// caller can log and ignore it.
func LoadFormatSettings(root string) (FormatSettings, error) {
	if root == "" {
		return nil, nil
	}
	data, err := os.ReadFile(filepath.Join(root, "tsfmt.json"))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var settings FormatSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return nil, fmt.Errorf("failed to parse tsfmt.json: %w", err)
	}
	return settings, nil
}
