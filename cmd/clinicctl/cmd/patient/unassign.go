package patient

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var unassignInput struct {
	patient int64
	yes     bool
}

var unassignCmd = &cobra.Command{
	Use:   "unassign <linkId>",
	Short: "Remove a disease assignment",
	Long: `Removes a patient-disease link. The link id is shown by 'clinicctl patient diseases';
--patient names the patient whose cached list is updated.`,
	Example: `  clinicctl patient unassign 41 --patient 12`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		linkID, err := cmdutil.ParseID(args[0], "link")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorPatients); err != nil {
			return err
		}
		if err := cmdutil.Confirm(cmd, unassignInput.yes, fmt.Sprintf("Remove assignment %d?", linkID)); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		if err := q.RemovePatientDisease(cmd.Context(), linkID, unassignInput.patient); err != nil {
			return err
		}
		pterm.Success.Printf("Removed assignment %d\n", linkID)
		return nil
	},
}

func init() {
	unassignCmd.Flags().Int64Var(&unassignInput.patient, "patient", 0, "Patient id the link belongs to (required)")
	unassignCmd.Flags().BoolVarP(&unassignInput.yes, "yes", "y", false, "Skip the confirmation prompt")
	_ = unassignCmd.MarkFlagRequired("patient")
}
