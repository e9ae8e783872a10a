package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/alnah/go-mdpress/internal/config"
)

// envConfig holds configuration from environment variables.
// Provides CI/CD-friendly overrides without requiring YAML files.
type envConfig struct {
	ConfigPath  string        // MDPRESS_CONFIG
	Theme       string        // MDPRESS_THEME
	Timeout     time.Duration // MDPRESS_TIMEOUT
	AssetsDir   string        // MDPRESS_ASSETS_DIR
	ImagePrefix string        // MDPRESS_IMAGE_PREFIX
	SitePrefix  string        // MDPRESS_SITE_PREFIX
	Workers     int           // MDPRESS_WORKERS

	Engine     string // MDPRESS_DIAGRAM_ENGINE
	Rasterizer string // MDPRESS_DIAGRAM_RASTERIZER
	ScriptURL  string // MDPRESS_DIAGRAM_SCRIPT_URL
	ScriptPath string // MDPRESS_DIAGRAM_SCRIPT_PATH
	InkURL     string // MDPRESS_DIAGRAM_INK_URL

	Storage     string // MDPRESS_STORAGE
	S3Endpoint  string // MDPRESS_S3_ENDPOINT
	S3Region    string // MDPRESS_S3_REGION
	S3Bucket    string // MDPRESS_S3_BUCKET
	S3Prefix    string // MDPRESS_S3_PREFIX
	S3AccessKey string // MDPRESS_S3_ACCESS_KEY
	S3SecretKey string // MDPRESS_S3_SECRET_KEY
}

// knownEnvVars lists valid MDPRESS_* environment variables.
// Used to detect typos and warn users about unknown variables.
var knownEnvVars = map[string]bool{
	"MDPRESS_CONFIG":       true,
	"MDPRESS_THEME":        true,
	"MDPRESS_TIMEOUT":      true,
	"MDPRESS_ASSETS_DIR":   true,
	"MDPRESS_IMAGE_PREFIX": true,
	"MDPRESS_SITE_PREFIX":  true,
	"MDPRESS_WORKERS":      true,

	"MDPRESS_DIAGRAM_ENGINE":      true,
	"MDPRESS_DIAGRAM_RASTERIZER":  true,
	"MDPRESS_DIAGRAM_SCRIPT_URL":  true,
	"MDPRESS_DIAGRAM_SCRIPT_PATH": true,
	"MDPRESS_DIAGRAM_INK_URL":     true,

	"MDPRESS_STORAGE":       true,
	"MDPRESS_S3_ENDPOINT":   true,
	"MDPRESS_S3_REGION":     true,
	"MDPRESS_S3_BUCKET":     true,
	"MDPRESS_S3_PREFIX":     true,
	"MDPRESS_S3_ACCESS_KEY": true,
	"MDPRESS_S3_SECRET_KEY": true,

	"MDPRESS_CONTAINER": true, // read by doctor
}

// loadEnvConfig reads configuration from environment variables.
func loadEnvConfig() *envConfig {
	cfg := &envConfig{
		ConfigPath:  os.Getenv("MDPRESS_CONFIG"),
		Theme:       os.Getenv("MDPRESS_THEME"),
		AssetsDir:   os.Getenv("MDPRESS_ASSETS_DIR"),
		ImagePrefix: os.Getenv("MDPRESS_IMAGE_PREFIX"),
		SitePrefix:  os.Getenv("MDPRESS_SITE_PREFIX"),

		Engine:     os.Getenv("MDPRESS_DIAGRAM_ENGINE"),
		Rasterizer: os.Getenv("MDPRESS_DIAGRAM_RASTERIZER"),
		ScriptURL:  os.Getenv("MDPRESS_DIAGRAM_SCRIPT_URL"),
		ScriptPath: os.Getenv("MDPRESS_DIAGRAM_SCRIPT_PATH"),
		InkURL:     os.Getenv("MDPRESS_DIAGRAM_INK_URL"),

		Storage:     os.Getenv("MDPRESS_STORAGE"),
		S3Endpoint:  os.Getenv("MDPRESS_S3_ENDPOINT"),
		S3Region:    os.Getenv("MDPRESS_S3_REGION"),
		S3Bucket:    os.Getenv("MDPRESS_S3_BUCKET"),
		S3Prefix:    os.Getenv("MDPRESS_S3_PREFIX"),
		S3AccessKey: os.Getenv("MDPRESS_S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("MDPRESS_S3_SECRET_KEY"),
	}

	// Invalid values are ignored rather than fatal
	if timeout := os.Getenv("MDPRESS_TIMEOUT"); timeout != "" {
		if d, err := time.ParseDuration(timeout); err == nil && d > 0 {
			cfg.Timeout = d
		}
	}
	if workers := os.Getenv("MDPRESS_WORKERS"); workers != "" {
		if w, err := strconv.Atoi(workers); err == nil && w > 0 {
			cfg.Workers = w
		}
	}

	return cfg
}

// warnUnknownEnvVars logs warnings for unrecognized MDPRESS_* variables.
// Helps catch typos like MDPRESS_TEHME.
func warnUnknownEnvVars(w io.Writer) {
	for _, env := range os.Environ() {
		if strings.HasPrefix(env, "MDPRESS_") {
			name := strings.SplitN(env, "=", 2)[0]
			if !knownEnvVars[name] {
				fmt.Fprintf(w, "warning: unknown environment variable %s (typo?)\n", name)
			}
		}
	}
}

// applyEnvConfig overwrites cfg with every variable that is set. cfg holds
// the config file merged over defaults, and flags are merged afterwards, so
// the result is: CLI flags > env vars > config file > defaults.
func applyEnvConfig(env *envConfig, cfg *config.Config) {
	setString(&cfg.Editor.Theme, env.Theme)
	setString(&cfg.Editor.AssetsDir, env.AssetsDir)
	setString(&cfg.Editor.ImagePrefix, env.ImagePrefix)
	setString(&cfg.Editor.SitePrefix, env.SitePrefix)
	if env.Timeout > 0 {
		cfg.Diagram.Timeout = env.Timeout.String()
	}

	setString(&cfg.Diagram.Engine, env.Engine)
	setString(&cfg.Diagram.Rasterizer, env.Rasterizer)
	setString(&cfg.Diagram.ScriptURL, env.ScriptURL)
	setString(&cfg.Diagram.ScriptPath, env.ScriptPath)
	setString(&cfg.Diagram.InkURL, env.InkURL)

	setString(&cfg.Storage.Backend, env.Storage)
	s3 := &cfg.Storage.S3
	setString(&s3.Endpoint, env.S3Endpoint)
	setString(&s3.Region, env.S3Region)
	setString(&s3.Bucket, env.S3Bucket)
	setString(&s3.Prefix, env.S3Prefix)
	setString(&s3.AccessKey, env.S3AccessKey)
	setString(&s3.SecretKey, env.S3SecretKey)
}

// setString assigns v to dst when v is not empty.
func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}
