package assets

import (
	"errors"
	"strings"
	"testing"
)

func TestValidateAssetName(t *testing.T) {
	t.Parallel()

	valid := []string{"sakura", "my-theme", "my_theme", "theme123", "MyTheme", strings.Repeat("a", MaxThemeNameLength)}
	invalid := []string{
		"",
		"themes/sakura",
		`themes\sakura`,
		"../secret",
		`..\secret`,
		"sakura.css",
		".hidden",
		".",
		"/etc/passwd",
		`C:\Windows`,
		"my theme",
		"thème",
		"tab\tname",
		strings.Repeat("a", MaxThemeNameLength+1),
	}

	for _, name := range valid {
		if err := ValidateAssetName(name); err != nil {
			t.Errorf("ValidateAssetName(%q) unexpected error: %v", name, err)
		}
	}
	for _, name := range invalid {
		if err := ValidateAssetName(name); !errors.Is(err, ErrInvalidAssetName) {
			t.Errorf("ValidateAssetName(%q) error = %v, want ErrInvalidAssetName", name, err)
		}
	}
}
