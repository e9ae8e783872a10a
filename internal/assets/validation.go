package assets

import "fmt"

// MaxThemeNameLength bounds theme names, built-in or custom.
const MaxThemeNameLength = 64

// ValidateAssetName checks that name can be used as a theme file name:
// ASCII letters, digits, '-' and '_' only. Separators and dots are
// rejected, which rules out traversal and extension tricks.
func ValidateAssetName(name string) error {
	if name == "" {
		return fmt.Errorf("%w: empty name", ErrInvalidAssetName)
	}
	if len(name) > MaxThemeNameLength {
		return fmt.Errorf("%w: longer than %d characters", ErrInvalidAssetName, MaxThemeNameLength)
	}
	for i := 0; i < len(name); i++ {
		if !isNameByte(name[i]) {
			return fmt.Errorf("%w: %q", ErrInvalidAssetName, name)
		}
	}
	return nil
}

func isNameByte(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	return c == '-' || c == '_'
}
