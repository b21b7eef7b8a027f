// Package main is the entry point for the dashgram CLI.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/flemzord/dashgram/internal/config"
	"github.com/flemzord/dashgram/internal/redact"
	"github.com/flemzord/dashgram/pkg/dashgram"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// Set with -ldflags at build time.
var (
	commit = "none"
	date   = "unknown"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "dashgram",
		Short:         "Send Telegram bot analytics to Dashgram",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringP("config", "c", "", "Path to configuration file")
	root.PersistentFlags().BoolP("verbose", "v", false, "Enable debug logging")
	root.AddCommand(versionCmd(), trackCmd(), invitedByCmd(), configCmd(), serveCmd(), initCmd())
	return root
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dashgram %s (commit: %s, built: %s)\n", dashgram.Version, commit, date)
		},
	}
}

func configCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration management",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "check [path]",
		Short: "Validate configuration",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := ""
			if len(args) == 1 {
				path = args[0]
			}
			cfg, err := loadConfig(cmd, path)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration OK (project %s)\n", cfg.ProjectID)
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective configuration with credentials redacted",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(cmd, "")
			if err != nil {
				return err
			}
			return showConfig(cmd.OutOrStdout(), cfg)
		},
	})
	return cmd
}

// showConfig writes cfg as YAML, defaults applied and secrets redacted.
func showConfig(w io.Writer, cfg *config.Config) error {
	raw, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	var m map[string]any
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return err
	}
	redact.New(cfg.AccessKey, cfg.Relay.SecretToken).Map(m)

	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m); err != nil {
		return err
	}
	return enc.Close()
}

// configPath returns path, the --config flag, or the first existing
// standard location, in that order.
func configPath(cmd *cobra.Command, path string) (string, error) {
	if path == "" {
		path, _ = cmd.Flags().GetString("config")
	}
	if path == "" {
		return config.ResolvePath()
	}
	return path, nil
}

// loadConfig loads and validates the configuration found by configPath.
func loadConfig(cmd *cobra.Command, path string) (*config.Config, error) {
	path, err := configPath(cmd, path)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := config.Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger returns a stderr logger scrubbing the credentials held by cfg.
func newLogger(cmd *cobra.Command, cfg *config.Config) *slog.Logger {
	level := slog.LevelInfo
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	text := slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})
	return slog.New(redact.NewHandler(text, redact.New(cfg.AccessKey, cfg.Relay.SecretToken)))
}

// newClient builds a client from cfg. The CLI reports itself as the origin
// unless one is configured.
func newClient(cmd *cobra.Command, cfg *config.Config, extra ...dashgram.Option) *dashgram.Client {
	opts := []dashgram.Option{
		dashgram.WithLogger(newLogger(cmd, cfg)),
		dashgram.WithOrigin("Go + Dashgram CLI v" + dashgram.Version),
	}
	opts = append(opts, cfg.ClientOptions()...)
	opts = append(opts, extra...)
	return dashgram.New(cfg.ProjectID, cfg.AccessKey, opts...)
}
