package assets

// ThemeLoader loads theme CSS by name (without the .css extension).
// Implementations return ErrThemeNotFound for unknown names and
// ErrInvalidAssetName for unsafe ones.
type ThemeLoader interface {
	LoadTheme(name string) (string, error)
}
