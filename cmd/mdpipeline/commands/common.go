// Package commands implements the mdpipeline command line.
package commands

import (
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"git.home.luguber.info/inful/mdpipeline/internal/config"
)

// DefaultConfigFile is read when --config is not given and the file exists.
const DefaultConfigFile = "mdpipeline.yaml"

// Global is passed to every command's Run.
type Global struct {
	Logger *slog.Logger
}

// CLI is the root command.
type CLI struct {
	Config  string           `short:"c" help:"Configuration file path (defaults to ./mdpipeline.yaml when present)" type:"path"`
	Verbose bool             `short:"v" help:"Enable verbose logging"`
	Version kong.VersionFlag `name:"version" help:"Show version and exit"`

	Render   RenderCmd   `cmd:"" help:"Render documents below a directory to HTML"`
	Watch    WatchCmd    `cmd:"" help:"Render documents and re-render them as they change"`
	Stages   StagesCmd   `cmd:"" help:"Show the resolved stage order (text, mermaid, dot, json)"`
	Validate ValidateCmd `cmd:"" help:"Validate the configuration and the stage selection"`
	Theme    ThemeCmd    `cmd:"" help:"Write the code highlighting stylesheet for the configured themes"`
	Routes   RoutesCmd   `cmd:"" help:"Filter page URLs read from stdin through the sitemap route filter"`
	Init     InitCmd     `cmd:"" help:"Write a default configuration file"`
}

// AfterApply runs after flag parsing and sets up logging once.
// nolint:unparam // AfterApply currently never returns an error.
func (c *CLI) AfterApply() error {
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: parseLogLevel(c.Verbose)}))
	slog.SetDefault(logger)
	return nil
}

// parseLogLevel uses --verbose, then MDPIPELINE_LOG_LEVEL, then info.
func parseLogLevel(verbose bool) slog.Level {
	if verbose {
		return slog.LevelDebug
	}
	switch strings.ToLower(strings.TrimSpace(os.Getenv("MDPIPELINE_LOG_LEVEL"))) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// configPath resolves the configuration file to load; "" means defaults.
func (c *CLI) configPath() string {
	if c.Config != "" {
		return c.Config
	}
	if _, err := os.Stat(DefaultConfigFile); err == nil {
		return DefaultConfigFile
	}
	return ""
}

// loadConfig loads the configuration named on the command line.
func (c *CLI) loadConfig() (*config.Config, error) {
	return config.Load(c.configPath())
}
