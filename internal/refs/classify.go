// Package refs classifies and rewrites image references in rendered HTML.
//
// A reference is the value of an img src attribute. It takes one of four
// shapes:
//
//	remote           http:, https:, data:, protocol-relative //
//	internal         a locator produced by a loadable bridge (file:, mdpress:)
//	assets-relative  {assetsDir}/x.png or ./{assetsDir}/x.png
//	other-relative   anything else (../img/a.png, /img/a.png, a.png)
//
// Classification is a pure function of the string and the assets directory
// name. It never touches the filesystem.
package refs

import "strings"

// Kind is the classified shape of a reference.
type Kind int

// Reference kinds.
const (
	KindOtherRelative Kind = iota
	KindRemote
	KindInternal
	KindAssetsRelative
)

// String returns the kind name used in logs and tests.
func (k Kind) String() string {
	switch k {
	case KindRemote:
		return "remote"
	case KindInternal:
		return "internal"
	case KindAssetsRelative:
		return "assets-relative"
	default:
		return "other-relative"
	}
}

// Absolute reports whether the reference already resolves without a base
// directory or prefix. Both rewrite passes leave absolute references alone.
func (k Kind) Absolute() bool {
	return k == KindRemote || k == KindInternal
}

// InternalScheme is the URI scheme of locators minted by this application's
// own loadable bridges other than file://.
const InternalScheme = "mdpress:"

// remotePrefixes are matched case-insensitively.
var remotePrefixes = []string{"http:", "https:", "data:", "//"}

// internalPrefixes identify locators already rewritten for local preview.
var internalPrefixes = []string{"file:", InternalScheme}

// Classify decides the kind of ref relative to the assets directory name.
// Trailing slashes or backslashes on assetsDir are ignored. An empty ref
// classifies as KindOtherRelative; callers must not rewrite it.
func Classify(ref, assetsDir string) Kind {
	trimmed := strings.TrimSpace(ref)
	lower := strings.ToLower(trimmed)

	for _, p := range remotePrefixes {
		if strings.HasPrefix(lower, p) {
			return KindRemote
		}
	}
	for _, p := range internalPrefixes {
		if strings.HasPrefix(lower, p) {
			return KindInternal
		}
	}

	if isAssetsRelative(trimmed, assetsDir) {
		return KindAssetsRelative
	}
	return KindOtherRelative
}

// isAssetsRelative matches "{dir}/..." and "./{dir}/...".
func isAssetsRelative(ref, assetsDir string) bool {
	dir := NormalizeAssetsDir(assetsDir)
	if dir == "" {
		return false
	}
	return strings.HasPrefix(ref, dir+"/") || strings.HasPrefix(ref, "./"+dir+"/")
}

// NormalizeAssetsDir strips trailing path separators from the configured
// assets directory name.
func NormalizeAssetsDir(assetsDir string) string {
	return strings.TrimRight(assetsDir, `/\`)
}
