package main

import (
	"fmt"
	"io"
)

// printUsage prints the main usage message.
func printUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress <command> [flags] [args]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  preview          Render Markdown to themed HTML")
	fmt.Fprintln(w, "  export-diagrams  Replace mermaid blocks with PNG images")
	fmt.Fprintln(w, "  copy             Write self-contained HTML ready to paste")
	fmt.Fprintln(w, "  localize         Download remote images into the assets folder")
	fmt.Fprintln(w, "  serve            Live preview server for one document")
	fmt.Fprintln(w, "  themes           List available themes")
	fmt.Fprintln(w, "  config           Print the effective configuration as YAML")
	fmt.Fprintln(w, "  doctor           Check system configuration")
	fmt.Fprintln(w, "  version          Show version information")
	fmt.Fprintln(w, "  help             Show help for a command")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run 'mdpress help <command>' for details on a specific command.")
}

// printCommonUsage prints the flags shared by document commands.
func printCommonUsage(w io.Writer) {
	fmt.Fprintln(w, "Editor:")
	fmt.Fprintln(w, "      --theme <s>           Theme name or CSS file path")
	fmt.Fprintln(w, "      --assets-dir <s>      Assets folder name (default: assets)")
	fmt.Fprintln(w, "      --asset-path <dir>    Directory with custom themes/{name}.css")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Diagrams:")
	fmt.Fprintln(w, "      --engine <s>          Engine: browser, ink")
	fmt.Fprintln(w, "      --rasterizer <s>      Rasterizer: browser, vector")
	fmt.Fprintln(w, "  -t, --timeout <d>         Per-diagram timeout (e.g., 30s, 2m)")
	fmt.Fprintln(w, "      --script-url <url>    mermaid.js URL")
	fmt.Fprintln(w, "      --script-path <path>  Local mermaid.js (offline rendering)")
	fmt.Fprintln(w, "      --max-width <px>      Downscale wider rasters (0 = keep)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Storage:")
	fmt.Fprintln(w, "      --storage <s>         Backend: fs, s3 (see MDPRESS_S3_*)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Output Control:")
	fmt.Fprintln(w, "  -c, --config <name>       Config file name or path")
	fmt.Fprintln(w, "  -q, --quiet               Only show errors")
	fmt.Fprintln(w, "  -v, --verbose             Show debug logs")
}

// printPreviewUsage prints usage for the preview command.
func printPreviewUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress preview [input.md] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render Markdown to themed HTML. Reads stdin when no input is given.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Preview:")
	fmt.Fprintln(w, "  -o, --output <path>       Output HTML file (default: stdout)")
	fmt.Fprintln(w, "      --base-dir <dir>      Document directory when reading stdin")
	fmt.Fprintln(w, "      --prefix <url>        Absolute URL prepended to relative images")
	fmt.Fprintln(w, "      --footnotes           Turn links into numbered footnotes")
	fmt.Fprintln(w, "      --inline-css          Inline theme CSS into style attributes")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printExportUsage prints usage for the export-diagrams command.
func printExportUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress export-diagrams <input.md>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Render each mermaid block to PNG under {document dir}/{assets dir} and")
	fmt.Fprintln(w, "replace the block with an image reference. Files are updated in place.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Export:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel documents (0 = auto)")
	fmt.Fprintln(w, "      --naming <s>          File naming: auto, flat, sequenced")
	fmt.Fprintln(w, "      --alt <s>             Alt text of the image references")
	fmt.Fprintln(w, "      --base-dir <dir>      Document directory when reading stdin")
	fmt.Fprintln(w, "      --stdout              Print the result instead of saving it")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printCopyUsage prints usage for the copy command.
func printCopyUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress copy [input.md] [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Write a self-contained HTML document with diagrams embedded as images.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Copy:")
	fmt.Fprintln(w, "  -o, --output <path>       Output HTML file (default: stdout)")
	fmt.Fprintln(w, "      --text <path>         Also write the plain-text fallback")
	fmt.Fprintln(w, "      --mode <s>            Embedding: data-uri, png, inline-svg")
	fmt.Fprintln(w, "      --base-dir <dir>      Document directory when reading stdin")
	fmt.Fprintln(w, "      --prefix <url>        Absolute URL prepended to relative images")
	fmt.Fprintln(w, "      --footnotes           Turn links into numbered footnotes")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printLocalizeUsage prints usage for the localize command.
func printLocalizeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress localize <input.md>... [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Download remote images into the assets folder and rewrite the references.")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Localize:")
	fmt.Fprintln(w, "  -w, --workers <n>         Parallel documents (0 = auto)")
	fmt.Fprintln(w, "      --site-prefix <url>   Base URL for site-relative images")
	fmt.Fprintln(w, "      --base-dir <dir>      Document directory when reading stdin")
	fmt.Fprintln(w, "      --stdout              Print the result instead of saving it")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printServeUsage prints usage for the serve command.
func printServeUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress serve <input.md> [flags]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve a live preview. Reload the page to pick up edits.")
	fmt.Fprintln(w, "  GET /          themed preview")
	fmt.Fprintln(w, "  GET /copy      self-contained HTML")
	fmt.Fprintln(w, "  GET /copy.txt  plain-text fallback")
	fmt.Fprintln(w, "  GET /ws        reload notifications (used by the preview page)")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Serve:")
	fmt.Fprintf(w, "      --addr <host:port>    Listen address (default: %s)\n", defaultServeAddr)
	fmt.Fprintln(w, "      --prefix <url>        Absolute URL prepended to relative images")
	fmt.Fprintln(w, "      --cors-origin <url>   Allowed CORS origin, repeatable (default: localhost)")
	fmt.Fprintln(w)
	printCommonUsage(w)
}

// printConfigUsage prints usage for the config and themes commands.
func printConfigUsage(w io.Writer) {
	fmt.Fprintln(w, "Usage: mdpress config|themes [-c <name>]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "config prints the effective configuration as YAML.")
	fmt.Fprintln(w, "themes lists built-in and custom themes; * marks the configured one.")
}

// runHelp prints help for a specific command.
func runHelp(args []string, env *Environment) int {
	if len(args) == 0 {
		printUsage(env.Stdout)
		return ExitSuccess
	}

	switch args[0] {
	case "preview":
		printPreviewUsage(env.Stdout)
	case "export-diagrams":
		printExportUsage(env.Stdout)
	case "copy":
		printCopyUsage(env.Stdout)
	case "localize":
		printLocalizeUsage(env.Stdout)
	case "serve":
		printServeUsage(env.Stdout)
	case "config", "themes":
		printConfigUsage(env.Stdout)
	case "doctor":
		fmt.Fprintln(env.Stdout, "Usage: mdpress doctor [--json]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Check Chrome, mermaid.js, container/CI settings and the temp directory.")
	case "version":
		fmt.Fprintln(env.Stdout, "Usage: mdpress version")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show version information.")
	case "help":
		fmt.Fprintln(env.Stdout, "Usage: mdpress help [command]")
		fmt.Fprintln(env.Stdout)
		fmt.Fprintln(env.Stdout, "Show help for a command.")
	default:
		fmt.Fprintf(env.Stderr, "Unknown command: %s\n", args[0])
		printUsage(env.Stderr)
		return ExitUsage
	}
	return ExitSuccess
}
