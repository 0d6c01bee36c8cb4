package ai

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

// AICmd groups the image classifier commands (doctor portal)
var AICmd = &cobra.Command{
	Use:   "ai",
	Short: "Classify skin images and browse past analyses",
}

func init() {
	AICmd.AddCommand(classifyCmd)
	AICmd.AddCommand(historyCmd)
	AICmd.AddCommand(getCmd)
	AICmd.AddCommand(deleteCmd)
}

func historyTable(items []sdk.HistoryItem) func(*tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tDISEASE\tSCORE\tIMAGE\tCREATED")
		for _, h := range items {
			fmt.Fprintf(w, "%d\t%s\t%.3f\t%s\t%s\n", h.ID, h.DiseaseName, h.Score, cmdutil.Dash(h.ImagePath), cmdutil.FormatTime(&h.CreatedAt))
		}
	}
}
