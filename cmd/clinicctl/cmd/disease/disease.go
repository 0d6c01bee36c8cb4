package disease

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

// DiseaseCmd is the parent command for the disease catalogue (doctor portal)
var DiseaseCmd = &cobra.Command{
	Use:   "disease",
	Short: "Browse and edit the disease catalogue",
}

func init() {
	DiseaseCmd.AddCommand(listCmd)
	DiseaseCmd.AddCommand(getCmd)
	DiseaseCmd.AddCommand(createCmd)
	DiseaseCmd.AddCommand(describeCmd)
}

// maxDescription is how much of a description the table shows.
const maxDescription = 60

func diseaseTable(diseases []sdk.Disease) func(*tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tDESCRIPTION\tCREATED")
		for _, d := range diseases {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\n", d.ID, d.Name, cmdutil.Dash(truncate(d.Description, maxDescription)), cmdutil.FormatTime(d.CreatedAt))
		}
	}
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n-3]) + "..."
}
