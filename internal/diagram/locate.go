// Package diagram finds fenced mermaid blocks in Markdown text and splices
// image references in their place.
//
// Offsets are byte offsets into the text that was scanned. Splice only ever
// reads from that original text, so replacements of different lengths never
// shift the positions of later blocks.
package diagram

import (
	"regexp"
	"strings"
)

// Language is the fence info string that marks a diagram block.
const Language = "mermaid"

// fencePattern matches an opening ```mermaid fence up to the next closing
// fence. Compiled once; regexp.Regexp keeps no cursor between calls.
var fencePattern = regexp.MustCompile("(?s)```" + Language + "(.*?)```")

// Block is one fenced diagram occurrence.
type Block struct {
	Code  string // trimmed diagram source, empty for whitespace-only bodies
	Start int    // offset of the opening fence
	End   int    // offset just past the closing fence
	Index int    // 0-based position among all blocks in the text
}

// Empty reports whether the block has no diagram source.
func (b Block) Empty() bool {
	return b.Code == ""
}

// Locate returns every diagram block in markdown in increasing offset order.
// Calling it twice on the same text yields identical results.
func Locate(markdown string) []Block {
	matches := fencePattern.FindAllStringSubmatchIndex(markdown, -1)
	if len(matches) == 0 {
		return nil
	}

	blocks := make([]Block, 0, len(matches))
	for i, m := range matches {
		blocks = append(blocks, Block{
			Code:  strings.TrimSpace(markdown[m[2]:m[3]]),
			Start: m[0],
			End:   m[1],
			Index: i,
		})
	}
	return blocks
}

// CountNonEmpty returns how many blocks carry diagram source.
func CountNonEmpty(blocks []Block) int {
	n := 0
	for _, b := range blocks {
		if !b.Empty() {
			n++
		}
	}
	return n
}
