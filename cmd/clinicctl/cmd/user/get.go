package user

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "user")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathAdminUsers); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		user, err := q.User(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get user %d: %w", id, err)
		}
		return cmdutil.Render(cmd.OutOrStdout(), getOutput, user, userTable([]sdk.User{*user}))
	},
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", cmdutil.OutputTable, "Output format: table, json")
}
