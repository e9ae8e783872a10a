package diagram

import "strings"

// ReplaceFunc produces the replacement text for a non-empty block. ordinal
// is the block's 1-based position among non-empty blocks. A non-nil error
// leaves the block's original text in place.
type ReplaceFunc func(b Block, ordinal int) (string, error)

// Failure records a block that could not be replaced.
type Failure struct {
	Block Block
	Err   error
}

// Result is the outcome of a Splice.
type Result struct {
	Markdown string
	Replaced int
	Failures []Failure
}

// Splice rebuilds markdown with each non-empty block replaced by the output
// of replace. Blocks must come from Locate on the same text.
//
// The output is built in one left-to-right pass by concatenating slices of
// the original text. Empty blocks are copied verbatim and replace is never
// called for them. replace is called once per non-empty block, in order,
// and the next call starts only after the previous one has returned.
func Splice(markdown string, blocks []Block, replace ReplaceFunc) Result {
	var b strings.Builder
	b.Grow(len(markdown))

	res := Result{}
	cursor := 0
	ordinal := 0

	for _, blk := range blocks {
		b.WriteString(markdown[cursor:blk.Start])
		original := markdown[blk.Start:blk.End]
		cursor = blk.End

		if blk.Empty() {
			b.WriteString(original)
			continue
		}

		ordinal++
		replacement, err := replace(blk, ordinal)
		if err != nil {
			b.WriteString(original)
			res.Failures = append(res.Failures, Failure{Block: blk, Err: err})
			continue
		}
		b.WriteString(replacement)
		res.Replaced++
	}

	b.WriteString(markdown[cursor:])
	res.Markdown = b.String()
	return res
}
