package diagram

import (
	"fmt"
	"path"
	"strconv"
)

// Naming selects how raster files are named within one export.
type Naming string

// Naming strategies.
const (
	// NamingAuto is resolved by the caller before splicing.
	NamingAuto Naming = "auto"
	// NamingFlat names the file after the timestamp alone.
	NamingFlat Naming = "flat"
	// NamingSequenced appends a 1-based ordinal to the timestamp.
	NamingSequenced Naming = "sequenced"
)

// Valid reports whether n is a known strategy. The empty string counts as
// NamingAuto.
func (n Naming) Valid() bool {
	switch n {
	case "", NamingAuto, NamingFlat, NamingSequenced:
		return true
	}
	return false
}

// Resolve turns NamingAuto into a concrete strategy: flat when exactly one
// block will be rasterized, sequenced otherwise. Concrete strategies are
// returned as they are.
func (n Naming) Resolve(nonEmpty int) Naming {
	if n == NamingFlat || n == NamingSequenced {
		return n
	}
	if nonEmpty == 1 {
		return NamingFlat
	}
	return NamingSequenced
}

// FileName returns the raster file name for the ordinal-th rasterized block
// (1-based) of an export stamped ts. n must be resolved.
func FileName(ts int64, ordinal int, n Naming) string {
	stamp := strconv.FormatInt(ts, 10)
	if n == NamingFlat {
		return stamp + ".png"
	}
	return fmt.Sprintf("%s-%d.png", stamp, ordinal)
}

// RenderID returns the engine key used to render the ordinal-th block of an
// export stamped ts.
func RenderID(ts int64, ordinal int) string {
	return fmt.Sprintf("export-mermaid-%d-%d", ts, ordinal-1)
}

// ImageMarkup returns the Markdown image reference for a file stored in the
// assets directory.
func ImageMarkup(alt, assetsDir, name string) string {
	return "![" + alt + "](" + path.Join(assetsDir, name) + ")"
}
