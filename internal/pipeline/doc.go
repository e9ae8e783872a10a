// Package pipeline converts Markdown into a styled HTML document ready to
// paste into a rich-text publishing target.
//
// Stages, in order:
//   - Markdown preprocessing (line endings, ==highlight== syntax)
//   - Markdown to HTML via goldmark, with mermaid fences emitted as
//     <div class="mermaid"> placeholders
//   - Optional conversion of links to numbered footnotes
//   - Document wrapping, fallback and theme CSS injection
//   - Optional CSS inlining into style attributes (go-premailer)
//   - mermaid.js preview script when placeholders are present
//
// Image references are not touched here; the root package rewrites them
// after conversion.
package pipeline
