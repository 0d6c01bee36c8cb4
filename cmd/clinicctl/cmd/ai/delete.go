package ai

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var deleteYes bool

var deleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete a past analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "analysis")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorAI); err != nil {
			return err
		}
		if err := cmdutil.Confirm(cmd, deleteYes, fmt.Sprintf("Delete analysis %d?", id)); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		if err := q.DeleteAnalysis(cmd.Context(), id); err != nil {
			return err
		}
		pterm.Success.Printf("Deleted analysis %d\n", id)
		return nil
	},
}

func init() {
	deleteCmd.Flags().BoolVarP(&deleteYes, "yes", "y", false, "Skip the confirmation prompt")
}
