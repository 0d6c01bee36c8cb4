package user

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an account",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "user")
		if err != nil {
			return err
		}
		mgr, err := cmdutil.Authorize(cmd, args, cmdutil.PathAdminUsers)
		if err != nil {
			return err
		}
		if self := mgr.Identity(); self != nil && self.ID == id {
			return fmt.Errorf("refusing to delete the signed-in account %d", id)
		}
		if err := cmdutil.Confirm(cmd, deleteYes, fmt.Sprintf("Delete account %d?", id)); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		if err := q.DeleteUser(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted account %d\n", id)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
