package patient

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

// PatientCmd is the parent command for patient records. Nurses register
// and edit patients; doctors and nurses read them; doctors manage
// diagnoses.
var PatientCmd = &cobra.Command{
	Use:   "patient",
	Short: "Manage patient records",
}

// readPaths admits doctors and nurses.
var readPaths = []string{cmdutil.PathDoctorPatients, cmdutil.PathNursePatients}

func init() {
	PatientCmd.AddCommand(listCmd)
	PatientCmd.AddCommand(getCmd)
	PatientCmd.AddCommand(createCmd)
	PatientCmd.AddCommand(updateCmd)
	PatientCmd.AddCommand(deleteCmd)
	PatientCmd.AddCommand(diseasesCmd)
	PatientCmd.AddCommand(assignCmd)
	PatientCmd.AddCommand(unassignCmd)
}

func patientTable(patients []sdk.Patient) func(*tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tBIRTH DATE\tGENDER\tPHONE")
		for _, p := range patients {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
				p.ID, p.FullName, cmdutil.Dash(p.BirthDate), cmdutil.Dash(p.Gender), cmdutil.Dash(p.PhoneNumber))
		}
	}
}
