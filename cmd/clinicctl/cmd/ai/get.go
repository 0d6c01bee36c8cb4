package ai

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var getOutput string

var getCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Show one past analysis",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "analysis")
		if err != nil {
			return err
		}
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorAI); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		item, err := q.Analysis(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to get analysis %d: %w", id, err)
		}
		return cmdutil.Render(cmd.OutOrStdout(), getOutput, item, historyTable([]sdk.HistoryItem{*item}))
	},
}

func init() {
	getCmd.Flags().StringVarP(&getOutput, "output", "o", cmdutil.OutputTable, "Output format: table, json")
}
