package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var doctorsFlags cmdutil.ListFlags

var doctorsCmd = &cobra.Command{
	Use:   "doctors",
	Short: "List doctor accounts",
	Long:  `Lists doctor accounts. Available to admins and nurses.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathAdminUsers, cmdutil.PathNursePatients); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		doctors, err := q.Doctors(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list doctors: %w", err)
		}
		doctors, err = cmdutil.Apply(doctorsFlags, doctors)
		if err != nil {
			return err
		}
		return cmdutil.Render(cmd.OutOrStdout(), doctorsFlags.Output, doctors, userTable(doctors))
	},
}

func init() {
	doctorsFlags.Register(doctorsCmd)
}
