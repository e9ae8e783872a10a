package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	mdpress "github.com/alnah/go-mdpress"
	"github.com/alnah/go-mdpress/internal/config"
	"github.com/alnah/go-mdpress/internal/diagram"
	"github.com/alnah/go-mdpress/internal/export"
	"github.com/alnah/go-mdpress/internal/fileutil"
	"github.com/alnah/go-mdpress/internal/hints"
	"github.com/alnah/go-mdpress/internal/storage"
)

// Sentinel errors for CLI operations.
var (
	ErrUsage        = errors.New("invalid usage")
	ErrNoInput      = errors.New("no input specified")
	ErrReadMarkdown = errors.New("failed to read markdown")
	ErrReadTheme    = errors.New("failed to read theme CSS")
	ErrWriteOutput  = errors.New("failed to write output")
)

// session is the resolved configuration of one command run.
type session struct {
	env     *Environment
	envCfg  *envConfig
	cfg     *config.Config
	logger  *slog.Logger
	quiet   bool
	verbose bool

	themeCSS      string // set when --theme names a CSS file
	themeOverride string // replaces an unknown configured theme name
}

// newSession loads the config file, applies environment overrides, then the
// editor flags and finally merge (command-specific flags), and validates
// the result.
func newSession(env *Environment, common commonFlags, ed editorFlags, merge func(*config.Config)) (*session, error) {
	envCfg := loadEnvConfig()

	cfg, err := loadConfig(common.config, envCfg)
	if err != nil {
		return nil, err
	}
	applyEnvConfig(envCfg, cfg)

	s := &session{
		env:     env,
		envCfg:  envCfg,
		cfg:     cfg,
		logger:  newLogger(env.Stderr, common.quiet, common.verbose),
		quiet:   common.quiet,
		verbose: common.verbose,
	}

	themeFile := mergeEditorFlags(&ed, cfg)
	if merge != nil {
		merge(cfg)
	}
	if err := cfg.Validate(); err != nil {
		if strings.Contains(err.Error(), "imagePrefix") {
			return nil, fmt.Errorf("%w%s", err, hints.ForImagePrefix())
		}
		return nil, err
	}

	if themeFile != "" {
		css, err := os.ReadFile(themeFile) // #nosec G304 -- user-provided theme path
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrReadTheme, err)
		}
		s.themeCSS = string(css)
	}

	return s, nil
}

// loadConfig loads the config named by the flag, or by MDPRESS_CONFIG.
// Without either, defaults are used.
func loadConfig(name string, envCfg *envConfig) (*config.Config, error) {
	if name == "" {
		name = envCfg.ConfigPath
	}
	if name == "" {
		return config.DefaultConfig(), nil
	}

	cfg, err := config.LoadConfig(name)
	if err != nil {
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("loading config: %w%s", err, hints.ForConfigNotFound(configSearchPaths(err)))
		}
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}

// configSearchPaths extracts the tried paths from a not-found error.
func configSearchPaths(err error) []string {
	_, tried, ok := strings.Cut(err.Error(), "tried ")
	if !ok {
		return nil
	}
	return strings.Split(tried, ", ")
}

// mergeEditorFlags applies editor flags to cfg (flags win). It returns the
// theme CSS file when --theme is a path rather than a name.
func mergeEditorFlags(f *editorFlags, cfg *config.Config) (themeFile string) {
	if fileutil.IsFilePath(f.theme) {
		themeFile = f.theme
	} else {
		setString(&cfg.Editor.Theme, f.theme)
	}
	setString(&cfg.Editor.AssetsDir, f.assetsDir)
	setString(&cfg.Assets.BasePath, f.assetPath)
	setString(&cfg.Diagram.Engine, f.engine)
	setString(&cfg.Diagram.Rasterizer, f.rasterizer)
	setString(&cfg.Diagram.Timeout, f.timeout)
	setString(&cfg.Diagram.ScriptURL, f.scriptURL)
	setString(&cfg.Diagram.ScriptPath, f.scriptPath)
	setString(&cfg.Storage.Backend, f.storage)
	if f.maxWidth != 0 {
		cfg.Diagram.MaxWidth = f.maxWidth
	}
	return themeFile
}

// newLogger creates the CLI logger: debug with verbose, errors only with
// quiet, warnings otherwise.
func newLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelWarn
	switch {
	case verbose:
		level = slog.LevelDebug
	case quiet:
		level = slog.LevelError
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// editorOptions translates the session config into editor options.
func (s *session) editorOptions() ([]mdpress.Option, error) {
	cfg := s.cfg
	opts := []mdpress.Option{
		mdpress.WithLogger(s.logger),
		mdpress.WithClock(s.env.Now),
		mdpress.WithAssetsDir(cfg.Editor.AssetsDir),
		mdpress.WithImagePrefix(strings.TrimSpace(cfg.Editor.ImagePrefix)),
		mdpress.WithSitePrefix(cfg.Editor.SitePrefix),
		mdpress.WithTheme(cfg.Editor.Theme),
		mdpress.WithLinkFootnotes(cfg.Editor.LinkFootnotes),
		mdpress.WithInlineCSS(cfg.Editor.InlineCSS),
		mdpress.WithMermaidScriptURL(cfg.Diagram.ScriptURL),
		mdpress.WithMermaidScriptPath(cfg.Diagram.ScriptPath),
		mdpress.WithSecurityLevel(strings.ToLower(cfg.Diagram.SecurityLevel)),
		mdpress.WithMaxRasterWidth(cfg.Diagram.MaxWidth),
		mdpress.WithNaming(diagram.Naming(strings.ToLower(cfg.Diagram.Naming))),
		mdpress.WithClipboardMode(export.Mode(strings.ToLower(cfg.Clipboard.Mode))),
	}
	if s.env.HTTPClient != nil {
		opts = append(opts, mdpress.WithHTTPClient(s.env.HTTPClient))
	}
	if cfg.Diagram.AltText != "" {
		opts = append(opts, mdpress.WithAltText(cfg.Diagram.AltText))
	}
	if cfg.Assets.BasePath != "" {
		opts = append(opts, mdpress.WithAssetPath(cfg.Assets.BasePath))
	}
	if d := cfg.Diagram.TimeoutDuration(); d > 0 {
		opts = append(opts, mdpress.WithTimeout(d))
	}

	if strings.EqualFold(cfg.Diagram.Engine, "ink") {
		opts = append(opts, mdpress.WithDiagramEngine(mdpress.NewInkEngine(cfg.Diagram.InkURL, s.env.HTTPClient)))
	}
	if strings.EqualFold(cfg.Diagram.Rasterizer, "vector") {
		opts = append(opts, mdpress.WithRasterizer(mdpress.NewVectorRasterizer(cfg.Diagram.MaxWidth)))
	}

	if strings.EqualFold(cfg.Storage.Backend, "s3") {
		store, err := s.s3Store()
		if err != nil {
			return nil, err
		}
		opts = append(opts, mdpress.WithStorage(store))
	}

	return opts, nil
}

// s3Store builds the S3 store. Object keys mirror paths relative to the
// working directory.
func (s *session) s3Store() (*storage.S3Store, error) {
	root, err := os.Getwd()
	if err != nil {
		return nil, err
	}
	c := s.cfg.Storage.S3
	store, err := storage.NewS3Store(storage.S3Config{
		Endpoint:  c.Endpoint,
		Region:    c.Region,
		Bucket:    c.Bucket,
		Prefix:    c.Prefix,
		AccessKey: c.AccessKey,
		SecretKey: c.SecretKey,
		Root:      root,
	})
	if err != nil {
		return nil, fmt.Errorf("%w%s", err, hints.ForS3())
	}
	return store, nil
}

// newEditor creates an editor from the session config.
func (s *session) newEditor(extra ...mdpress.Option) (*mdpress.Editor, error) {
	opts, err := s.editorOptions()
	if err != nil {
		return nil, err
	}
	return mdpress.NewEditor(append(opts, extra...)...)
}

// newPool creates an editor pool of workers editors (0 = auto, then
// MDPRESS_WORKERS).
func (s *session) newPool(workers int) (*mdpress.EditorPool, error) {
	if workers < 0 {
		return nil, fmt.Errorf("%w: workers must be >= 0, got %d", ErrUsage, workers)
	}
	if workers == 0 {
		workers = s.envCfg.Workers
	}
	opts, err := s.editorOptions()
	if err != nil {
		return nil, err
	}
	size := mdpress.ResolvePoolSize(workers)
	s.logger.Debug("editor pool", "size", size)
	return mdpress.NewEditorPool(size, opts...), nil
}

// withHint appends the actionable hint matching err, if any.
func withHint(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mdpress.ErrBrowserConnect):
		return fmt.Errorf("%w%s", err, hints.ForBrowserConnect())
	case errors.Is(err, mdpress.ErrDiagramEngine):
		return fmt.Errorf("%w%s", err, hints.ForDiagramEngine())
	case errors.Is(err, mdpress.ErrNoBaseDir):
		return fmt.Errorf("%w%s", err, hints.ForUnsavedDocument())
	case errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("%w%s", err, hints.ForTimeout())
	case errors.Is(err, storage.ErrWriteFailed) && strings.Contains(err.Error(), "s3"):
		return fmt.Errorf("%w%s", err, hints.ForS3())
	}
	return err
}
