package disease

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one disease with its full description",
	Args:  cobra.ExactArgs(1),
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

		disease, err := q.Disease(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get disease %d: %w", id, err)
		}
		if getOutput == cmdutil.OutputJSON {
			return cmdutil.PrintJSON(cmd.OutOrStdout(), disease)
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "ID:      %d\n", disease.ID)
		fmt.Fprintf(out, "Name:    %s\n", disease.Name)
		fmt.Fprintf(out, "Created: %s\n", cmdutil.FormatTime(disease.CreatedAt))
		fmt.Fprintf(out, "\n%s\n", disease.Description)
		return nil
	},
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", cmdutil.OutputTable, "Output format: table, json")
}
