package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/alnah/go-mdpress/internal/yamlutil"
)

// Sentinel errors for config operations.
var (
	ErrConfigNotFound  = errors.New("config file not found")
	ErrEmptyConfigName = errors.New("config name cannot be empty")
	ErrConfigParse     = errors.New("failed to parse config")
	ErrFieldTooLong    = errors.New("field exceeds maximum length")
	ErrInvalidValue    = errors.New("invalid config value")
)

// Field length limits.
const (
	MaxDirNameLength   = 100
	MaxURLLength       = 2048 // Browser limit
	MaxPathLength      = 4096
	MaxThemeLength     = 64
	MaxAltTextLength   = 200
	MaxBucketLength    = 63 // S3 bucket naming rules
	MaxRegionLength    = 32
	MaxKeyPrefixLength = 512
	MaxSecretLength    = 256
)

// Enum values accepted by Validate.
var (
	diagramEngines   = []string{"browser", "ink"}
	rasterizers      = []string{"browser", "vector"}
	securityLevels   = []string{"strict", "loose", "antiscript", "sandbox"}
	namingStrategies = []string{"auto", "flat", "sequenced"}
	clipboardModes   = []string{"data-uri", "png", "inline-svg"}
	storageBackends  = []string{"fs", "s3"}
)

// Config holds all configuration for the editor pipeline.
type Config struct {
	Editor    EditorConfig    `yaml:"editor"`
	Diagram   DiagramConfig   `yaml:"diagram"`
	Clipboard ClipboardConfig `yaml:"clipboard"`
	Storage   StorageConfig   `yaml:"storage"`
	Assets    AssetsConfig    `yaml:"assets"`
}

// EditorConfig defines how previews are produced.
type EditorConfig struct {
	AssetsDir     string `yaml:"assetsDir"`     // folder name next to the document
	ImagePrefix   string `yaml:"imagePrefix"`   // absolute URL prepended to other relative images
	SitePrefix    string `yaml:"sitePrefix"`    // base URL for site-relative images when localizing
	Theme         string `yaml:"theme"`         // built-in or custom theme name
	LinkFootnotes bool   `yaml:"linkFootnotes"` // turn links into numbered footnotes
	InlineCSS     bool   `yaml:"inlineCSS"`     // move theme CSS into style attributes
}

// DiagramConfig defines diagram rendering and export.
type DiagramConfig struct {
	Engine        string `yaml:"engine"`     // "browser" or "ink"
	Rasterizer    string `yaml:"rasterizer"` // "browser" or "vector"
	ScriptURL     string `yaml:"scriptURL"`
	ScriptPath    string `yaml:"scriptPath"` // local mermaid.min.js, wins over scriptURL
	InkURL        string `yaml:"inkURL"`
	SecurityLevel string `yaml:"securityLevel"`
	Timeout       string `yaml:"timeout"` // Go duration, e.g. "30s"
	MaxWidth      int    `yaml:"maxWidth"`
	AltText       string `yaml:"altText"`
	Naming        string `yaml:"naming"` // "auto", "flat" or "sequenced"
}

// ClipboardConfig defines the self-contained export.
type ClipboardConfig struct {
	Mode string `yaml:"mode"` // "data-uri", "png" or "inline-svg"
}

// StorageConfig selects where exported files are written.
type StorageConfig struct {
	Backend string   `yaml:"backend"` // "fs" or "s3"
	S3      S3Config `yaml:"s3"`
}

// S3Config holds S3-compatible object storage settings.
type S3Config struct {
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	Prefix    string `yaml:"prefix"`
	AccessKey string `yaml:"accessKey"`
	SecretKey string `yaml:"secretKey"`
}

// AssetsConfig defines custom theme loading.
type AssetsConfig struct {
	BasePath string `yaml:"basePath"` // directory containing themes/{name}.css
}

// Validate checks field lengths, enum values and the image prefix contract.
func (c *Config) Validate() error {
	// Editor
	if err := validateFieldLength("editor.assetsDir", c.Editor.AssetsDir, MaxDirNameLength); err != nil {
		return err
	}
	if strings.ContainsAny(strings.Trim(c.Editor.AssetsDir, "/"), `/\`) || strings.Contains(c.Editor.AssetsDir, "..") {
		return fmt.Errorf("%w: editor.assetsDir must be a folder name, got %q", ErrInvalidValue, c.Editor.AssetsDir)
	}
	if err := validateFieldLength("editor.imagePrefix", c.Editor.ImagePrefix, MaxURLLength); err != nil {
		return err
	}
	if p := strings.TrimSpace(c.Editor.ImagePrefix); p != "" && !IsAbsoluteURL(p) {
		return fmt.Errorf("%w: editor.imagePrefix must be an absolute URL (http://, https:// or //), got %q", ErrInvalidValue, p)
	}
	if err := validateFieldLength("editor.sitePrefix", c.Editor.SitePrefix, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("editor.theme", c.Editor.Theme, MaxThemeLength); err != nil {
		return err
	}

	// Diagram
	if err := validateEnum("diagram.engine", c.Diagram.Engine, diagramEngines); err != nil {
		return err
	}
	if err := validateEnum("diagram.rasterizer", c.Diagram.Rasterizer, rasterizers); err != nil {
		return err
	}
	if err := validateEnum("diagram.securityLevel", c.Diagram.SecurityLevel, securityLevels); err != nil {
		return err
	}
	if err := validateEnum("diagram.naming", c.Diagram.Naming, namingStrategies); err != nil {
		return err
	}
	if err := validateFieldLength("diagram.scriptURL", c.Diagram.ScriptURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("diagram.scriptPath", c.Diagram.ScriptPath, MaxPathLength); err != nil {
		return err
	}
	if err := validateFieldLength("diagram.inkURL", c.Diagram.InkURL, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("diagram.altText", c.Diagram.AltText, MaxAltTextLength); err != nil {
		return err
	}
	if c.Diagram.Timeout != "" {
		d, err := time.ParseDuration(c.Diagram.Timeout)
		if err != nil {
			return fmt.Errorf("%w: diagram.timeout: %v", ErrInvalidValue, err)
		}
		if d <= 0 {
			return fmt.Errorf("%w: diagram.timeout must be positive, got %s", ErrInvalidValue, c.Diagram.Timeout)
		}
	}
	if c.Diagram.MaxWidth < 0 {
		return fmt.Errorf("%w: diagram.maxWidth must be >= 0, got %d", ErrInvalidValue, c.Diagram.MaxWidth)
	}

	// Clipboard
	if err := validateEnum("clipboard.mode", c.Clipboard.Mode, clipboardModes); err != nil {
		return err
	}

	// Storage
	if err := validateEnum("storage.backend", c.Storage.Backend, storageBackends); err != nil {
		return err
	}
	s3 := c.Storage.S3
	if err := validateFieldLength("storage.s3.endpoint", s3.Endpoint, MaxURLLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.s3.region", s3.Region, MaxRegionLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.s3.bucket", s3.Bucket, MaxBucketLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.s3.prefix", s3.Prefix, MaxKeyPrefixLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.s3.accessKey", s3.AccessKey, MaxSecretLength); err != nil {
		return err
	}
	if err := validateFieldLength("storage.s3.secretKey", s3.SecretKey, MaxSecretLength); err != nil {
		return err
	}
	if strings.EqualFold(c.Storage.Backend, "s3") && s3.Bucket == "" {
		return fmt.Errorf("%w: storage.s3.bucket: required when backend is s3", ErrInvalidValue)
	}

	// Assets
	if err := validateFieldLength("assets.basePath", c.Assets.BasePath, MaxPathLength); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration returns diagram.timeout parsed, or 0 when unset.
func (c DiagramConfig) TimeoutDuration() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 0
	}
	return d
}

// IsAbsoluteURL reports whether prefix is http(s) or protocol-relative.
func IsAbsoluteURL(prefix string) bool {
	p := strings.ToLower(prefix)
	return strings.HasPrefix(p, "http://") || strings.HasPrefix(p, "https://") || strings.HasPrefix(p, "//")
}

// validateFieldLength checks if a field exceeds its maximum allowed length.
func validateFieldLength(fieldName, value string, maxLength int) error {
	if len(value) > maxLength {
		return fmt.Errorf("%w: %s (%d chars, max %d)", ErrFieldTooLong, fieldName, len(value), maxLength)
	}
	return nil
}

// validateEnum accepts empty values, which mean "use the default".
func validateEnum(fieldName, value string, allowed []string) error {
	if value == "" {
		return nil
	}
	for _, a := range allowed {
		if strings.EqualFold(value, a) {
			return nil
		}
	}
	return fmt.Errorf("%w: %s: %q (must be one of %s)", ErrInvalidValue, fieldName, value, strings.Join(allowed, ", "))
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() *Config {
	return &Config{
		Editor: EditorConfig{
			AssetsDir: "assets",
			Theme:     "default",
		},
		Diagram: DiagramConfig{
			Engine:        "browser",
			Rasterizer:    "browser",
			ScriptURL:     "https://cdn.jsdelivr.net/npm/mermaid@10/dist/mermaid.min.js",
			InkURL:        "https://mermaid.ink",
			SecurityLevel: "strict",
			Timeout:       "30s",
			AltText:       "Mermaid 图",
			Naming:        "auto",
		},
		Clipboard: ClipboardConfig{Mode: "data-uri"},
		Storage:   StorageConfig{Backend: "fs"},
	}
}

// LoadConfig loads configuration from a file path or config name.
// If nameOrPath contains a path separator, it's treated as a file path.
// Otherwise, it's treated as a config name and searched in standard locations.
// Values missing from the file keep their DefaultConfig value.
func LoadConfig(nameOrPath string) (*Config, error) {
	if nameOrPath == "" {
		return nil, ErrEmptyConfigName
	}

	var configPath string
	var err error

	if isFilePath(nameOrPath) {
		configPath = nameOrPath
	} else {
		configPath, err = resolveConfigPath(nameOrPath)
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(configPath) // #nosec G304 -- config path is user-provided
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", ErrConfigNotFound, configPath)
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yamlutil.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrConfigParse, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Encode renders cfg as YAML, used by "mdpress config" to print a starting file.
func Encode(cfg *Config) ([]byte, error) {
	return yamlutil.Marshal(cfg)
}

// isFilePath returns true if the string looks like a file path.
func isFilePath(s string) bool {
	return strings.ContainsAny(s, "/\\")
}

// resolveConfigPath searches for a config file by name in standard locations.
// Tries extensions in order: .yaml, .yml
// Tries locations in order: current directory, ~/.config/go-mdpress/
func resolveConfigPath(name string) (string, error) {
	extensions := []string{".yaml", ".yml"}
	triedPaths := make([]string, 0, len(extensions)*2)

	for _, ext := range extensions {
		localPath := name + ext
		if fileExists(localPath) {
			return localPath, nil
		}
		triedPaths = append(triedPaths, localPath)
	}

	userConfigDir, err := os.UserConfigDir()
	if err == nil {
		for _, ext := range extensions {
			userPath := filepath.Join(userConfigDir, "go-mdpress", name+ext)
			if fileExists(userPath) {
				return userPath, nil
			}
			triedPaths = append(triedPaths, userPath)
		}
	}

	return "", fmt.Errorf("%w: tried %s", ErrConfigNotFound, strings.Join(triedPaths, ", "))
}

// fileExists returns true if the path exists and is a regular file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}
