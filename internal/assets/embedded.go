package assets

import (
	"embed"
	"fmt"
)

//go:embed themes/*.css
var themes embed.FS

// EmbeddedLoader loads built-in themes.
type EmbeddedLoader struct{}

// NewEmbeddedLoader creates an EmbeddedLoader.
func NewEmbeddedLoader() *EmbeddedLoader {
	return &EmbeddedLoader{}
}

// LoadTheme loads a built-in theme by name.
func (e *EmbeddedLoader) LoadTheme(name string) (string, error) {
	if err := ValidateAssetName(name); err != nil {
		return "", err
	}
	if name == fallbackStyleName {
		return "", fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	return readEmbedded(name)
}

// FallbackCSS returns the stylesheet shared by all themes.
func (e *EmbeddedLoader) FallbackCSS() string {
	css, err := readEmbedded(fallbackStyleName)
	if err != nil {
		return ""
	}
	return css
}

func readEmbedded(name string) (string, error) {
	content, err := themes.ReadFile("themes/" + name + ".css")
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrThemeNotFound, name)
	}
	return string(content), nil
}

var _ ThemeLoader = (*EmbeddedLoader)(nil)
