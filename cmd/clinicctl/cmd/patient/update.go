package patient

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var updateInput struct {
	fullName  string
	phone     string
	birthDate string
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update a patient record",
	Long:  `Updates the given fields of a patient. Fields whose flags are not set are left unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "patient")
		if err != nil {
			return err
		}

		var input sdk.UpdatePatient
		if cmd.Flags().Changed("full-name") {
			input.FullName = &updateInput.fullName
		}
		if cmd.Flags().Changed("phone") {
			input.PhoneNumber = &updateInput.phone
		}
		if cmd.Flags().Changed("birth-date") {
			input.BirthDate = &updateInput.birthDate
		}
		if input == (sdk.UpdatePatient{}) {
			return errors.New("nothing to update: set --full-name, --phone or --birth-date")
		}

		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathNursePatients); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		patient, err := q.UpdatePatient(cmd.Context(), id, input)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Updated patient %d (%s)\n", patient.ID, patient.FullName)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateInput.fullName, "full-name", "", "New full name")
	updateCmd.Flags().StringVar(&updateInput.phone, "phone", "", "New phone number")
	updateCmd.Flags().StringVar(&updateInput.birthDate, "birth-date", "", "New birth date as YYYY-MM-DD")
}
