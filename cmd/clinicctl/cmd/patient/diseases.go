package patient

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var diseasesFlags cmdutil.ListFlags

var diseasesCmd = &cobra.Command{
	Use:   "diseases <patientId>",
	Short: "List the diseases assigned to a patient",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		patientID, err := cmdutil.ParseID(args[0], "patient")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, readPaths...); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		links, err := q.PatientDiseases(cmd.Context(), patientID)
		if err != nil {
			return fmt.Errorf("failed to list diseases of patient %d: %w", patientID, err)
		}
		links, err = cmdutil.Apply(diseasesFlags, links)
		if err != nil {
			return err
		}
		return cmdutil.Render(cmd.OutOrStdout(), diseasesFlags.Output, links, func(w *tabwriter.Writer) {
			fmt.Fprintln(w, "LINK\tDISEASE\tASSIGNED BY\tASSIGNED AT")
			for _, l := range links {
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", l.ID, l.DiseaseName, cmdutil.Dash(l.AssignedByName), cmdutil.FormatTime(&l.AssignedAt))
			}
		})
	},
}

func init() {
	diseasesFlags.Register(diseasesCmd)
}
