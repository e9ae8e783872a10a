// Package hints provides actionable error hints for common failure scenarios.
// Hints are formatted consistently as "\n  hint: <text>" for appending to error messages.
package hints

import (
	"os"
	"strings"

	"github.com/alnah/go-mdpress/internal/fileutil"
)

// IsInContainer detects if running inside a Docker container or similar.
// Checks for /.dockerenv file which Docker creates automatically.
var IsInContainer = func() bool {
	return fileutil.FileExists("/.dockerenv")
}

// InCI reports whether a well-known CI environment variable is set.
func InCI() bool {
	return os.Getenv("CI") != "" ||
		os.Getenv("GITHUB_ACTIONS") != "" ||
		os.Getenv("GITLAB_CI") != "" ||
		os.Getenv("JENKINS_URL") != ""
}

// ForBrowserConnect returns hints for browser connection errors.
// Detects CI/Docker environment and suggests relevant environment variables.
func ForBrowserConnect() string {
	var hints []string

	// Suggest ROD_NO_SANDBOX for container/CI environments
	if (InCI() || IsInContainer()) && os.Getenv("ROD_NO_SANDBOX") != "1" {
		hints = append(hints, "set ROD_NO_SANDBOX=1 for Docker/CI")
	}

	if os.Getenv("ROD_BROWSER_BIN") == "" {
		hints = append(hints, "set ROD_BROWSER_BIN to use custom Chrome")
	}

	hints = append(hints, "or use --engine ink --rasterizer vector to skip Chrome")

	return formatHints(hints)
}

// ForTimeout returns a hint about increasing timeout for slow diagrams.
func ForTimeout() string {
	return format("for large diagrams, use --timeout flag")
}

// ForConfigNotFound returns hints for config file not found errors.
// Suggests --config flag and creating a config in ~/.config/go-mdpress/.
func ForConfigNotFound(searchedPaths []string) string {
	hint := "use --config /path/to/file.yaml"

	for _, p := range searchedPaths {
		if strings.Contains(p, "go-mdpress") {
			hint += " or create " + p
			break
		}
	}

	return format(hint)
}

// ForUnsavedDocument is appended when an operation needs the document's
// directory but only stdin was given.
func ForUnsavedDocument() string {
	return format("pass a file path or --base-dir so images land next to the document")
}

// ForThemeNotFound lists the themes that can be selected.
func ForThemeNotFound(available []string) string {
	if len(available) == 0 {
		return ""
	}
	return format("available: " + strings.Join(available, ", "))
}

// ForImagePrefix explains the absolute URL contract of the image prefix.
func ForImagePrefix() string {
	return format("use an absolute URL such as https://cdn.example.com/ so repeated previews stay stable")
}

// ForDiagramEngine returns hints when mermaid.js could not be loaded.
func ForDiagramEngine() string {
	var hints []string
	if os.Getenv("MDPRESS_DIAGRAM_SCRIPT_PATH") == "" {
		hints = append(hints, "set MDPRESS_DIAGRAM_SCRIPT_PATH to a local mermaid.min.js when offline")
	}
	hints = append(hints, "or use --engine ink to render through mermaid.ink")
	return formatHints(hints)
}

// ForS3 returns hints for object storage failures.
func ForS3() string {
	return format("check storage.s3 endpoint, bucket and credentials (MDPRESS_S3_*)")
}

// format creates a single hint string with consistent formatting.
func format(hint string) string {
	if hint == "" {
		return ""
	}
	return "\n  hint: " + hint
}

// formatHints joins multiple hints with consistent formatting.
func formatHints(hints []string) string {
	if len(hints) == 0 {
		return ""
	}
	return format(strings.Join(hints, "; "))
}
