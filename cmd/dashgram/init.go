package main

import (
	"errors"
	"fmt"
	"net/url"

	"github.com/charmbracelet/huh"
	"github.com/flemzord/dashgram/internal/config"
	"github.com/spf13/cobra"
)

func initCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Interactively create a configuration file",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			if path == "" {
				paths := config.UserPaths()
				if len(paths) == 0 {
					return errors.New("cannot determine a config location, pass --config")
				}
				path = paths[0]
			}

			cfg := config.Config{Version: "1"}
			overwrite := true

			form := huh.NewForm(
				huh.NewGroup(
					huh.NewInput().
						Title("Project ID").
						Value(&cfg.ProjectID).
						Validate(required("project id")),
					huh.NewInput().
						Title("Access key").
						EchoMode(huh.EchoModePassword).
						Value(&cfg.AccessKey).
						Validate(required("access key")),
					huh.NewInput().
						Title("Collector URL").
						Description("Leave empty for the public Dashgram API.").
						Value(&cfg.APIURL).
						Validate(optionalURL),
				),
				huh.NewGroup(
					huh.NewConfirm().
						Title(fmt.Sprintf("Write %s?", path)).
						Value(&overwrite),
				),
			)
			if err := form.Run(); err != nil {
				return err
			}
			if !overwrite {
				fmt.Fprintln(cmd.OutOrStdout(), "aborted")
				return nil
			}

			if err := config.Write(path, &cfg); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Configuration written to %s\n", path)
			return nil
		},
	}
}

func required(name string) func(string) error {
	return func(s string) error {
		if s == "" {
			return fmt.Errorf("%s is required", name)
		}
		return nil
	}
}

func optionalURL(s string) error {
	if s == "" {
		return nil
	}
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return errors.New("must be an http or https URL")
	}
	return nil
}
