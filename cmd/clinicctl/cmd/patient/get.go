package patient

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "patient")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, readPaths...); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		patient, err := q.Patient(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get patient %d: %w", id, err)
		}
		return cmdutil.Render(cmd.OutOrStdout(), getOutput, patient, patientTable([]sdk.Patient{*patient}))
	},
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", cmdutil.OutputTable, "Output format: table, json")
}
