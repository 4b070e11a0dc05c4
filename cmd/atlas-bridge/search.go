package main

import (
	"context"
	"encoding/json"

	"github.com/spf13/cobra"

	"github.com/entrhq/atlas-bridge/pkg/types"
)

func newSearchCmd(opts *rootOptions, d deps) *cobra.Command {
	var (
		detailed bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "search <patient name>",
		Short: "Search the patient listing by name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := wireApp(cmd, opts, d)
			if err != nil {
				return err
			}
			defer a.Close()

			var patients []types.PatientRecord
			err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Searching patients...", func(ctx context.Context) error {
				var err error
				patients, err = a.runner.SearchPatients(ctx, args[0], detailed)
				return err
			})
			if err != nil {
				return err
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(patients)
			}
			return renderPatients(cmd.OutOrStdout(), args[0], patients)
		},
	}

	cmd.Flags().BoolVar(&detailed, "detailed", false, "log every extracted record")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the records as JSON")
	return cmd
}
