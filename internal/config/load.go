package config

import (
	"fmt"

	"github.com/yndnr/stmkit/internal/infra/confloader"
)

// Load reads the configuration from path (optional), the STMKIT_
// environment and overrides over the defaults, then verifies it.
func Load(path string, overrides map[string]any) (*Config, *confloader.Loader, error) {
	loader := confloader.NewLoader(
		confloader.WithConfigFile(path),
		confloader.WithOverrides(overrides),
	)
	cfg := Default()
	if err := loader.Load(cfg); err != nil {
		return nil, nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, loader, nil
}

// Reload reads the configuration again with loader. The result starts
// from the defaults, so keys removed from the file revert to them.
func Reload(loader *confloader.Loader) (*Config, error) {
	cfg := Default()
	if err := loader.Load(cfg); err != nil {
		return nil, err
	}
	if err := Verify(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}
