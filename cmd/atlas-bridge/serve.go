package main

import (
	"github.com/spf13/cobra"

	"github.com/entrhq/atlas-bridge/pkg/gateway"
)

func newServeCmd(opts *rootOptions, d deps) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the clinic tools over MCP on stdin/stdout",
		Long:  "serve runs an MCP server on stdin/stdout exposing hello_world, search_patient_v2 and create_new_task. The browser starts on the first tool call and is closed on exit.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := wireApp(cmd, opts, d)
			if err != nil {
				return err
			}
			defer a.Close()

			gw := gateway.New(a.runner, version, a.logger.With("gateway"))
			if err := gw.Serve(cmd.Context()); err != nil && cmd.Context().Err() == nil {
				return err
			}
			a.logger.Infof("MCP server stopped")
			return nil
		},
	}
}
