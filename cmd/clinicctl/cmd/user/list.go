package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var listFlags cmdutil.ListFlags

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List all accounts",
	Example: `  clinicctl user list
  clinicctl user list --filter 'role == "nurse"' -o json`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathAdminUsers); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		users, err := q.Users(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list users: %w", err)
		}
		users, err = cmdutil.Apply(listFlags, users)
		if err != nil {
			return err
		}
		return cmdutil.Render(cmd.OutOrStdout(), listFlags.Output, users, userTable(users))
	},
}

func init() {
	listFlags.Register(listCmd)
}
