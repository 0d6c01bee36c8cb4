package disease

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var createInput sdk.NewDisease

var createCmd = &cobra.Command{
	Use:     "create",
	Short:   "Add a disease to the catalogue",
	Example: `  clinicctl disease create --name Psoriasis --description "Chronic scaly plaques"`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorDiseases); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		disease, err := q.CreateDisease(cmd.Context(), createInput)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Added disease %d (%s)\n", disease.ID, disease.Name)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createInput.Name, "name", "", "Disease name (required)")
	createCmd.Flags().StringVar(&createInput.Description, "description", "", "Description used by the classifier (required)")
}
