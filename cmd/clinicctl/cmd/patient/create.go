package patient

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var createInput sdk.NewPatient

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a patient",
	Example: `  clinicctl patient create --full-name "Ann Lee" --birth-date 1990-01-02 \
    --phone 555-0100 --gender female`,
	RunE: func(cmd *cobra.Command, args []string) error {
		mgr, err := cmdutil.Authorize(cmd, args, cmdutil.PathNursePatients)
		if err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		input := createInput
		if self := mgr.Identity(); self != nil {
			input.CreatedBy = &self.ID
		}
		patient, err := q.CreatePatient(cmd.Context(), input)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Registered patient %d (%s)\n", patient.ID, patient.FullName)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createInput.FullName, "full-name", "", "Full name (required)")
	createCmd.Flags().StringVar(&createInput.BirthDate, "birth-date", "", "Birth date as YYYY-MM-DD (required)")
	createCmd.Flags().StringVar(&createInput.PhoneNumber, "phone", "", "Phone number (required)")
	createCmd.Flags().StringVar(&createInput.Gender, "gender", "", "Gender: male, female (required)")
}
