package assets

import (
	"errors"
	"slices"
)

// ThemeResolver combines custom and embedded loaders. A custom theme with
// the same name as a built-in one overrides it.
type ThemeResolver struct {
	custom   *FilesystemLoader // nil if no custom path configured
	embedded *EmbeddedLoader
}

// NewThemeResolver creates a ThemeResolver. If customBasePath is empty,
// only built-in themes are used. Returns an error if customBasePath is set
// but invalid.
func NewThemeResolver(customBasePath string) (*ThemeResolver, error) {
	resolver := &ThemeResolver{
		embedded: NewEmbeddedLoader(),
	}

	if customBasePath != "" {
		fsLoader, err := NewFilesystemLoader(customBasePath)
		if err != nil {
			return nil, err
		}
		resolver.custom = fsLoader
	}

	return resolver, nil
}

// LoadTheme loads a theme, trying the custom loader first.
func (r *ThemeResolver) LoadTheme(name string) (string, error) {
	if r.custom == nil {
		return r.embedded.LoadTheme(name)
	}

	css, err := r.custom.LoadTheme(name)
	if err == nil {
		return css, nil
	}

	// Only fall back for "not found", not for validation or I/O errors.
	if !errors.Is(err, ErrThemeNotFound) {
		return "", err
	}
	return r.embedded.LoadTheme(name)
}

// Resolve loads name, or the default theme when name is empty or unknown.
// It returns the CSS and the name actually used. Invalid names and read
// errors are still returned.
func (r *ThemeResolver) Resolve(name string) (css, used string, err error) {
	if name == "" {
		name = DefaultThemeName
	}

	css, err = r.LoadTheme(name)
	if err == nil {
		return css, name, nil
	}
	if !errors.Is(err, ErrThemeNotFound) || name == DefaultThemeName {
		return "", "", err
	}

	css, err = r.LoadTheme(DefaultThemeName)
	if err != nil {
		return "", "", err
	}
	return css, DefaultThemeName, nil
}

// FallbackCSS returns the stylesheet applied under every theme.
func (r *ThemeResolver) FallbackCSS() string {
	return r.embedded.FallbackCSS()
}

// Themes lists built-in and custom theme names, built-ins first.
func (r *ThemeResolver) Themes() []string {
	names := BuiltinThemes()
	if r.custom == nil {
		return names
	}
	for _, n := range r.custom.Themes() {
		if !slices.Contains(names, n) {
			names = append(names, n)
		}
	}
	return names
}

var _ ThemeLoader = (*ThemeResolver)(nil)
