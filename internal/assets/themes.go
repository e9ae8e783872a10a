package assets

// Built-in theme names.
const (
	DefaultThemeName = "default"
	LapisThemeName   = "lapis"
	SakuraThemeName  = "sakura"
	TechThemeName    = "tech"
)

// fallbackStyleName is applied under every theme; it is not selectable.
const fallbackStyleName = "fallback"

// builtinThemes lists selectable embedded themes with their display labels.
var builtinThemes = []struct {
	Name  string
	Label string
}{
	{DefaultThemeName, "Default (Green)"},
	{LapisThemeName, "Lapis (Blue)"},
	{SakuraThemeName, "Sakura (Pink)"},
	{TechThemeName, "Tech (Dark)"},
}

// BuiltinThemes returns the names of the embedded themes in display order.
func BuiltinThemes() []string {
	names := make([]string, 0, len(builtinThemes))
	for _, t := range builtinThemes {
		names = append(names, t.Name)
	}
	return names
}

// ThemeLabel returns the display label of a built-in theme, or name itself.
func ThemeLabel(name string) string {
	for _, t := range builtinThemes {
		if t.Name == name {
			return t.Label
		}
	}
	return name
}
