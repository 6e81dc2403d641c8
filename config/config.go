// Package config reads storage options from a YAML file.
//
// Example:
//
//	threshold: 1000
//	private_prefix: "_"
//	hide_private: true
//	cast: safe
//	load_gc: false
//	umask: "027"
//
// Keys left out keep their defaults.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/goccy/go-yaml"
	"github.com/signadot/graphstore"
)

type Config struct {
	Threshold     *int    `yaml:"threshold"`
	PrivatePrefix *string `yaml:"private_prefix"`
	HidePrivate   *bool   `yaml:"hide_private"`
	Cast          string  `yaml:"cast"`
	LoadGC        *bool   `yaml:"load_gc"`
	// Umask is octal.
	Umask string `yaml:"umask"`
}

// Load reads the config file at path.
func Load(path string) (*Config, error) {
	d, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read config: %w", err)
	}
	c, err := Parse(d)
	if err != nil {
		return nil, fmt.Errorf("could not decode %s: %w", path, err)
	}
	return c, nil
}

// Parse decodes and validates a config. Unknown keys are errors.
func Parse(d []byte) (*Config, error) {
	c := &Config{}
	if err := yaml.UnmarshalWithOptions(d, c, yaml.Strict()); err != nil {
		return nil, err
	}
	if _, err := c.Options(); err != nil {
		return nil, err
	}
	return c, nil
}

// Options returns the options c sets.
func (c *Config) Options() ([]graphstore.Option, error) {
	var opts []graphstore.Option
	if c.Threshold != nil {
		if *c.Threshold < 0 {
			return nil, fmt.Errorf("threshold must not be negative, got %d", *c.Threshold)
		}
		opts = append(opts, graphstore.WithThreshold(*c.Threshold))
	}
	if c.PrivatePrefix != nil {
		opts = append(opts, graphstore.WithPrivatePrefix(*c.PrivatePrefix))
	}
	if c.HidePrivate != nil {
		opts = append(opts, graphstore.WithHidePrivate(*c.HidePrivate))
	}
	if c.Cast != "" {
		cp, err := graphstore.ParseCastPolicy(c.Cast)
		if err != nil {
			return nil, err
		}
		opts = append(opts, graphstore.WithCastPolicy(cp))
	}
	if c.LoadGC != nil {
		opts = append(opts, graphstore.WithLoadGC(*c.LoadGC))
	}
	if c.Umask != "" {
		m, err := strconv.ParseUint(c.Umask, 8, 32)
		if err != nil || m > 0777 {
			return nil, fmt.Errorf("invalid umask %q", c.Umask)
		}
		opts = append(opts, graphstore.WithUmask(int(m)))
	}
	return opts, nil
}
