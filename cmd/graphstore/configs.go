package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/signadot/graphstore"
	"github.com/signadot/graphstore/config"

	"github.com/scott-cotton/cli"

	"github.com/mattn/go-isatty"
)

type MainConfig struct {
	Verbose bool   `cli:"name=v desc='debug logging'"`
	Config  string `cli:"name=config desc='yaml file with storage options'"`
	Gops    bool   `cli:"name=gops desc='start the gops diagnostics agent'"`

	Main *cli.Command

	log  *slog.Logger
	opts []graphstore.Option
}

// setup applies the global options once they are parsed.
func (cfg *MainConfig) setup(cc *cli.Context) error {
	cfg.log = newLogger(cc.Out, cfg.Verbose)
	cfg.opts = []graphstore.Option{graphstore.WithLogger(cfg.log)}
	if cfg.Config == "" {
		return nil
	}
	c, err := config.Load(cfg.Config)
	if err != nil {
		return err
	}
	opts, err := c.Options()
	if err != nil {
		return err
	}
	cfg.opts = append(cfg.opts, opts...)
	cfg.log.Debug("loaded config", "path", cfg.Config, "options", len(opts))
	return nil
}

func (cfg *MainConfig) logger() *slog.Logger {
	if cfg.log == nil {
		return slog.Default()
	}
	return cfg.log
}

// location checks that dir holds a structural snapshot.
func location(dir string) error {
	_, err := os.Stat(filepath.Join(dir, graphstore.StateFile))
	if err != nil {
		return fmt.Errorf("%s is not a storage location: %w", dir, err)
	}
	return nil
}

type InspectConfig struct {
	*MainConfig
	Y     bool `cli:"name=y aliases=yaml desc='print yaml'"`
	Color bool `cli:"name=color desc='print with color'"`

	Inspect *cli.Command
}

// colorize reports whether output to w is colored: always with -color,
// otherwise when w is a terminal.
func colorize(force bool, w io.Writer) bool {
	if force {
		return true
	}
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd())
}

type GetConfig struct {
	*MainConfig
	Y bool `cli:"name=y aliases=yaml desc='print yaml'"`

	Get *cli.Command
}

type BlobsConfig struct {
	*MainConfig
	Verify bool `cli:"name=verify desc='check blob checksums'"`
	Color  bool `cli:"name=color desc='print with color'"`

	Blobs *cli.Command
}

type GCConfig struct {
	*MainConfig
	DryRun bool `cli:"name=n desc='list what would be removed'"`

	GC *cli.Command
}

type QueryConfig struct {
	*MainConfig
	Y bool `cli:"name=y aliases=yaml desc='print yaml'"`

	Query *cli.Command
}

type DiffConfig struct {
	*MainConfig
	Patch bool `cli:"name=patch desc='print a json merge patch'"`
	Color bool `cli:"name=color desc='print with color'"`

	Diff *cli.Command
}
