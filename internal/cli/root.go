// Package cli implements the coursebook command line.
package cli

import (
	"context"
	"io"
	"log/slog"

	"github.com/spf13/cobra"

	"coursebook/internal/app"
	"coursebook/internal/config"
	"coursebook/internal/logging"
)

// CLI is the coursebook command tree.
type CLI struct {
	rootCmd    *cobra.Command
	configPath string
}

// New builds the command tree.
func New() *CLI {
	rootCmd := &cobra.Command{
		Use:           "coursebook",
		Short:         "Learning documents with mind maps, quizzes and timelines",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       Version,
	}
	c := &CLI{rootCmd: rootCmd}

	rootCmd.PersistentFlags().StringVarP(&c.configPath, "config", "c", "", "Path to a YAML config file")

	rootCmd.AddCommand(c.newServeCmd())
	rootCmd.AddCommand(c.newMCPCmd())
	rootCmd.AddCommand(c.newLayoutCmd())
	rootCmd.AddCommand(c.newImportCmd())
	rootCmd.AddCommand(c.newExportCmd())
	rootCmd.AddCommand(c.newVersionCmd())
	return c
}

// Execute runs the root command with ctx.
func (c *CLI) Execute(ctx context.Context) error {
	c.rootCmd.SetContext(ctx)
	return c.rootCmd.Execute()
}

// SetArgs sets the arguments for the root command. Used for testing.
func (c *CLI) SetArgs(args []string) {
	c.rootCmd.SetArgs(args)
}

// SetOut redirects command output. Used for testing.
func (c *CLI) SetOut(w io.Writer) {
	c.rootCmd.SetOut(w)
}

// SetIn replaces stdin. Used for testing.
func (c *CLI) SetIn(r io.Reader) {
	c.rootCmd.SetIn(r)
}

// loadConfig reads the config file and installs the configured logger.
func (c *CLI) loadConfig() (config.Config, error) {
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	logging.Setup(cfg.Log)
	return cfg, nil
}

// withApp loads the config, opens the app and runs fn against it.
func (c *CLI) withApp(mutate func(*config.Config), fn func(*app.App) error) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if mutate != nil {
		mutate(&cfg)
	}
	a, err := app.New(cfg, Version)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			slog.Warn("close storage", "error", err)
		}
	}()
	return fn(a)
}
