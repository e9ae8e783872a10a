package main

import (
	"context"
	"fmt"

	"github.com/alnah/go-mdpress/internal/assets"
	"github.com/alnah/go-mdpress/internal/config"
)

// runConfig prints the effective configuration (defaults, file, env) as
// YAML, a starting point for a config file.
func runConfig(_ context.Context, args []string, env *Environment) error {
	f, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)
	if err := cfg.Validate(); err != nil {
		return err
	}

	data, err := config.Encode(cfg)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	_, err = env.Stdout.Write(data)
	return err
}

// runThemes lists the selectable themes, custom ones included.
func runThemes(_ context.Context, args []string, env *Environment) error {
	f, err := parseConfigFlags(args, env.Stderr)
	if err != nil {
		return err
	}

	envCfg := loadEnvConfig()
	cfg, err := loadConfig(f.config, envCfg)
	if err != nil {
		return err
	}
	applyEnvConfig(envCfg, cfg)

	resolver, err := assets.NewThemeResolver(cfg.Assets.BasePath)
	if err != nil {
		return err
	}
	for _, name := range resolver.Themes() {
		marker := " "
		if name == cfg.Editor.Theme {
			marker = "*"
		}
		fmt.Fprintf(env.Stdout, "%s %-10s %s\n", marker, name, assets.ThemeLabel(name))
	}
	return nil
}
