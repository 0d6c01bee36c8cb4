package patient

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var listFlags cmdutil.ListFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List patients",
	Example: `  clinicctl patient list
  clinicctl patient list --filter 'gender == "female"'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, readPaths...); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		patients, err := q.Patients(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list patients: %w", err)
		}
		patients, err = cmdutil.Apply(listFlags, patients)
		if err != nil {
			return err
		}
		return cmdutil.Render(cmd.OutOrStdout(), listFlags.Output, patients, patientTable(patients))
	},
}

func init() {
	listFlags.Register(listCmd)
}
