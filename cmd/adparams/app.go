package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/ducminhle1904/ad-params/cmd/common"
	"github.com/ducminhle1904/ad-params/internal/ad"
	"github.com/ducminhle1904/ad-params/internal/buildmode"
	"github.com/ducminhle1904/ad-params/internal/config"
	perrors "github.com/ducminhle1904/ad-params/internal/errors"
	"github.com/ducminhle1904/ad-params/internal/logger"
	"github.com/ducminhle1904/ad-params/internal/source"
	"github.com/ducminhle1904/ad-params/pkg/params"
)

// commandFlags holds the flags of one subcommand
type commandFlags struct {
	fs     *flag.FlagSet
	common *common.CommonFlags

	// mode layer inputs, registered by withModeFlags
	source      *string
	stdin       *bool
	assignments common.StringList
	ranges      common.StringList
}

func newCommandFlags(name string, out io.Writer) *commandFlags {
	fs := flag.NewFlagSet(appName+" "+name, flag.ContinueOnError)
	fs.SetOutput(out)
	return &commandFlags{fs: fs, common: common.RegisterCommonFlags(fs)}
}

// withModeFlags registers the flags feeding the compiled feature mode
func (c *commandFlags) withModeFlags() *commandFlags {
	c.source = c.fs.String("source", "", "Override file (.yaml, .json) or SQLite store (.db) for config builds, overrides "+config.EnvConfigSource)
	c.stdin = c.fs.Bool("stdin", false, "Read field=value lines from stdin (input builds)")
	c.fs.Var(&c.assignments, "set", "field=value (input builds, repeatable)")
	c.fs.Var(&c.ranges, "range", "field=min:max:step or field=value (optimize builds, repeatable)")
	return c
}

// app is the per-invocation environment shared by the subcommands
type app struct {
	settings config.Settings
	log      *logger.Logger
	stdin    io.Reader
	stdout   io.Writer
}

// setup loads settings, applies flag overrides and opens the logger
func (c *commandFlags) setup(stdin io.Reader, stdout io.Writer) (*app, error) {
	settings, envLoaded, err := config.Load(*c.common.EnvFile)
	if err != nil {
		return nil, err
	}
	if *c.common.LogLevel != "" {
		settings.LogLevel = *c.common.LogLevel
	}
	if *c.common.LogDir != "" {
		settings.LogDir = *c.common.LogDir
	}
	if *c.common.ConsoleOnly {
		settings.ConsoleOnly = true
	}
	if err := checkMode(settings.Mode); err != nil {
		return nil, err
	}

	log, err := logger.New(logger.Options{
		Level:       settings.LogLevel,
		Dir:         settings.LogDir,
		ConsoleOnly: settings.ConsoleOnly,
		Debug:       buildmode.Debug,
	})
	if err != nil {
		return nil, err
	}
	if envLoaded {
		log.Debug().Str("file", *c.common.EnvFile).Msg("Environment file loaded")
	}
	return &app{settings: settings, log: log, stdin: stdin, stdout: stdout}, nil
}

// checkMode rejects a binary built for a mode other than the expected one
func checkMode(expected string) error {
	if expected == "" {
		return nil
	}
	want, err := params.ParseFeatureMode(expected)
	if err != nil {
		return fmt.Errorf("%s: %w", config.EnvMode, err)
	}
	if got := buildmode.Mode(); got != want {
		return perrors.NewModeMismatchError(appName, "startup",
			fmt.Sprintf("binary built for %s mode, %s expects %s", got, config.EnvMode, want))
	}
	return nil
}

// sourcePath returns the override source for config builds
func (a *app) sourcePath(c *commandFlags) string {
	if c.source != nil && *c.source != "" {
		return *c.source
	}
	if buildmode.Mode() == params.ModeExternalConfig {
		return a.settings.ConfigSource
	}
	return ""
}

// newResolver builds the AD resolver for the compiled mode. Mode inputs given to a
// build of another mode are rejected by the resolver.
func (a *app) newResolver(ctx context.Context, c *commandFlags) (*ad.Resolver, error) {
	mode := buildmode.Mode()
	reg, err := ad.NewRegistry()
	if err != nil {
		return nil, err
	}
	cfg := ad.Config{Mode: mode, Logger: a.log.Logger}

	path := a.sourcePath(c)
	if mode == params.ModeExternalConfig && path == "" {
		return nil, perrors.NewMissingSourceError(appName, "override source",
			errors.New("set -source or "+config.EnvConfigSource))
	}
	if path != "" {
		snap, err := source.Open(ctx, path, reg, a.log.Logger)
		if err != nil {
			return nil, err
		}
		a.log.Info().Str("source", snap.Source()).Int("entries", snap.Len()).Msg("Override source loaded")
		cfg.Providers = snap.Providers()
	}

	assignments := []string(c.assignments)
	if c.stdin != nil && *c.stdin {
		lines, err := params.ReadLines(a.stdin)
		if err != nil {
			return nil, err
		}
		assignments = append(assignments, lines...)
	}
	if len(assignments) > 0 {
		if cfg.Input, err = reg.ParseInput(assignments); err != nil {
			return nil, err
		}
	}
	if len(c.ranges) > 0 {
		if cfg.Sweep, err = reg.ParseSweep(c.ranges); err != nil {
			return nil, err
		}
	}
	return ad.NewResolver(cfg)
}
