// Package mdpress turns Markdown documents into styled, self-contained HTML
// ready to paste into a rich-text publishing target, and keeps images and
// Mermaid diagrams consistent along the way.
//
// # Quick Start
//
// Create an editor, render a preview, and close when done:
//
//	ed, err := mdpress.NewEditor(mdpress.WithTheme("lapis"))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer ed.Close()
//
//	html, err := ed.RenderPreview(ctx, mdpress.PreviewInput{
//	    Markdown: content,
//	    BaseDir:  "/path/to/docs", // resolves assets/ images
//	    Prefix:   "https://cdn.example.com/",
//	})
//
// # Image References
//
// Every img src in a preview is one of four kinds: remote (http:, https:,
// data:, //), internal (a locator minted by a loadable bridge), relative to
// the assets directory, or any other relative path. Assets-relative images
// are turned into loadable locators against the document directory; other
// relative images get the content-delivery prefix. Both passes are
// idempotent as long as the prefix is an absolute URL.
//
// # Diagrams
//
// ExportDiagramsToRaster renders each ```mermaid block to PNG, stores it in
// the assets directory and replaces the block with an image reference:
//
//	res, err := ed.ExportDiagramsToRaster(ctx, mdpress.ExportInput{
//	    Markdown: content,
//	    BaseDir:  "/path/to/docs",
//	})
//	// res.Markdown: "![Mermaid 图](assets/1700000000000.png)"
//
// Blocks are rendered one at a time. A block that fails is left as it was
// and reported in res.Failures; other blocks are still exported.
//
// ExportForClipboard replaces the diagram placeholders of a rendered preview
// with embedded images so the pasted document needs no diagram engine.
//
// # Diagram Engines
//
// By default diagrams are rendered with mermaid.js in headless Chrome and
// screenshotted to PNG. Alternatives:
//
//	mdpress.WithDiagramEngine(mdpress.NewInkEngine("", nil)) // mermaid.ink service
//	mdpress.WithRasterizer(mdpress.NewVectorRasterizer(0))   // pure Go, no labels in foreignObject
//
// # Parallel Processing
//
// For batch work across documents, use EditorPool. Each editor owns its own
// browser:
//
//	pool := mdpress.NewEditorPool(mdpress.ResolvePoolSize(0))
//	defer pool.Close()
//
//	ed, err := pool.Acquire(ctx)
//	defer pool.Release(ed)
//
// # Browser Requirements
//
// The browser engine requires Chrome/Chromium. The go-rod library
// automatically downloads a managed Chromium instance on first run
// (~/.cache/rod/browser/).
//
// For containers and CI environments, set ROD_NO_SANDBOX=1 to disable the
// Chrome sandbox. Use ROD_BROWSER_BIN to specify a custom Chrome binary.
package mdpress
