package patient

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var assignDisease int64

var assignCmd = &cobra.Command{
	Use:     "assign <patientId>",
	Short:   "Assign a disease to a patient",
	Example: `  clinicctl patient assign 12 --disease 3`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID, err := cmdutil.ParseID(args[0], "patient")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorPatients); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		link, err := q.AssignDisease(cmd.Context(), sdk.AssignDiseaseInput{PatientID: patientID, DiseaseID: assignDisease})
		if err != nil {
			return err
		}
		pterm.Success.Printf("Assigned disease %d to patient %d (link %d)\n", link.DiseaseID, link.PatientID, link.ID)
		return nil
	},
}

func init() {
	assignCmd.Flags().Int64Var(&assignDisease, "disease", 0, "Disease id to assign (required)")
	_ = assignCmd.MarkFlagRequired("disease")
}
