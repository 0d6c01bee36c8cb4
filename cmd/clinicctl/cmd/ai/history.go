package ai

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
)

var historyFlags cmdutil.ListFlags

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List your past analyses",
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorAI); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		items, err := q.History(cmd.Context())
		if err != nil {
			return fmt.Errorf("failed to list history: %w", err)
		}
		items, err = cmdutil.Apply(historyFlags, items)
		if err != nil {
			return err
		}
		return cmdutil.Render(cmd.OutOrStdout(), historyFlags.Output, items, historyTable(items))
	},
}

func init() {
	historyFlags.Register(historyCmd)
}
