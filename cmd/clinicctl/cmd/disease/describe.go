package disease

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var describeText string

var describeCmd = &cobra.Command{
	Use:     "describe <id>",
	Short:   "Replace a disease description",
	Example: `  clinicctl disease describe 3 --description "Chronic autoimmune skin condition"`,
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "disease")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorDiseases); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		disease, err := q.UpdateDiseaseDescription(cmd.Context(), id, describeText)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Updated description of %s\n", disease.Name)
		return nil
	},
}

func init() {
	describeCmd.Flags().StringVar(&describeText, "description", "", "New description (required)")
	_ = describeCmd.MarkFlagRequired("description")
}
