package main

import (
	"github.com/spf13/cobra"
	"github.com/tech-arch1tect/hrcore"
)

func newServeCmd() *cobra.Command {
	var noPurge bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the expired session purge worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			var opts []hrcore.Option
			if noPurge {
				opts = append(opts, hrcore.WithoutPurgeWorker())
			}

			app, err := hrcore.New(opts...)
			if err != nil {
				return err
			}
			return app.Run()
		},
	}
	cmd.Flags().BoolVar(&noPurge, "no-purge", false, "Do not run the background session purge worker")
	return cmd
}
