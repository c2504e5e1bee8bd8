package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/tech-arch1tect/hrcore/config"
)

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Configuration helpers",
	}

	checkCmd := &cobra.Command{
		Use:   "check",
		Short: "Load configuration from the environment and validate it",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := &config.Config{}
			if err := config.LoadConfig(cfg); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "app:       %s (%s)\n", cfg.App.Name, cfg.App.Env)
			fmt.Fprintf(out, "listen:    %s:%s%s\n", cfg.Server.Host, cfg.Server.Port, cfg.Server.APIPrefix)
			fmt.Fprintf(out, "database:  %s\n", cfg.Database.Driver)
			fmt.Fprintf(out, "tokens:    access %s, refresh %s\n", cfg.JWT.AccessTTL(), cfg.JWT.RefreshTTL())
			fmt.Fprintf(out, "sessions:  max %d per user, retention %s\n", cfg.Session.MaxPerUser, cfg.Session.Retention)
			fmt.Fprintf(out, "mail:      enabled=%t\n", cfg.Mail.Enabled)
			fmt.Fprintln(out, "ok")
			return nil
		},
	}

	cmd.AddCommand(checkCmd)
	return cmd
}
