// Package pagination reads list windows from query strings and shapes paged
// responses for the back-office grids.
package pagination

import (
	"errors"
	"os"
	"strconv"
)

// Config bounds the page sizes a client may request.
type Config struct {
	DefaultPageSize int `toml:"default_page_size"`
	MaxPageSize     int `toml:"max_page_size"`
}

// ConfigEnv names the environment variables overriding Config.
type ConfigEnv struct {
	DefaultPageSize string
	MaxPageSize     string
}

var (
	errDefaultSize = errors.New("default_page_size must be positive")
	errMaxSize     = errors.New("max_page_size must be positive")
	errSizeOrder   = errors.New("default_page_size cannot exceed max_page_size")
)

// Finalize fills defaults, applies env overrides, then validates.
func (c *Config) Finalize(env *ConfigEnv) error {
	if c.DefaultPageSize <= 0 {
		c.DefaultPageSize = 20
	}
	if c.MaxPageSize <= 0 {
		c.MaxPageSize = 100
	}
	if env != nil {
		envInt(env.DefaultPageSize, &c.DefaultPageSize)
		envInt(env.MaxPageSize, &c.MaxPageSize)
	}

	switch {
	case c.DefaultPageSize < 1:
		return errDefaultSize
	case c.MaxPageSize < 1:
		return errMaxSize
	case c.DefaultPageSize > c.MaxPageSize:
		return errSizeOrder
	}
	return nil
}

// Merge takes every non-zero field of overlay.
func (c *Config) Merge(overlay *Config) {
	if overlay.DefaultPageSize != 0 {
		c.DefaultPageSize = overlay.DefaultPageSize
	}
	if overlay.MaxPageSize != 0 {
		c.MaxPageSize = overlay.MaxPageSize
	}
}

func envInt(name string, dst *int) {
	if name == "" {
		return
	}
	if n, err := strconv.Atoi(os.Getenv(name)); err == nil {
		*dst = n
	}
}
