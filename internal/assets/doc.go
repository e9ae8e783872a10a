// Package assets provides theme stylesheets for converted documents.
//
// # Loader Architecture
//
//	ThemeLoader (interface)
//	    │
//	    ├── EmbeddedLoader    - built-in themes compiled in with go:embed
//	    ├── FilesystemLoader  - custom themes from a directory on disk
//	    └── ThemeResolver     - custom first, embedded as fallback
//
// Built-in themes: default (green), lapis (blue), sakura (pink) and
// tech (dark). A fallback stylesheet with layout rules shared by every
// theme is applied before the selected theme.
//
// # Directory Structure
//
//	{basePath}/
//	└── themes/
//	    └── {name}.css
//
// # Security
//
// Theme names are validated to prevent path traversal. FilesystemLoader
// resolves symlinks and verifies paths stay within basePath.
package assets
