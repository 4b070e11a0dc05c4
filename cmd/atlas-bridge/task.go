package main

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/entrhq/atlas-bridge/pkg/types"
)

var errTaskNotCreated = errors.New("task was not created")

func newCreateTaskCmd(opts *rootOptions, d deps) *cobra.Command {
	var req types.TaskCreationRequest

	cmd := &cobra.Command{
		Use:   "create-task",
		Short: "Create a task through the task form",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !types.IsKnownTaskType(req.TaskType) {
				return fmt.Errorf("invalid task type %q: must be one of %s", req.TaskType, strings.Join(types.TaskTypeNames(), ", "))
			}

			a, err := wireApp(cmd, opts, d)
			if err != nil {
				return err
			}
			defer a.Close()

			var res types.TaskResult
			err = runWithSpinner(cmd.Context(), cmd.ErrOrStderr(), "Creating task...", func(ctx context.Context) error {
				res = a.runner.CreateTask(ctx, req)
				return nil
			})
			if err != nil {
				return err
			}

			if err := renderTaskResult(cmd.OutOrStdout(), res); err != nil {
				return err
			}
			if !res.Success {
				return errTaskNotCreated
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&req.TaskType, "type", "", "task type: "+strings.Join(types.TaskTypeNames(), ", "))
	cmd.Flags().StringVar(&req.TaskName, "name", "", "task title")
	cmd.Flags().StringVar(&req.Description, "description", "", "optional task description")
	_ = cmd.MarkFlagRequired("type")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
