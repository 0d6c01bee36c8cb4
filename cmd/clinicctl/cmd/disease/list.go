package disease

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var (
	listFlags cmdutil.ListFlags
	listPage  sdk.Page
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List one page of the catalogue",
	Example: `  clinicctl disease list
  clinicctl disease list --skip 10 --limit 10
  clinicctl disease list --filter 'name matches "^Ps"'`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorDiseases); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		diseases, err := q.Diseases(cmd.Context(), listPage)
		if err != nil {
			return fmt.Errorf("failed to list diseases: %w", err)
		}
		diseases, err = cmdutil.Apply(listFlags, diseases)
		if err != nil {
			return err
		}
		return cmdutil.Render(cmd.OutOrStdout(), listFlags.Output, diseases, diseaseTable(diseases))
	},
}

func init() {
	listFlags.Register(listCmd)
	listCmd.Flags().IntVar(&listPage.Skip, "skip", 0, "Number of diseases to skip")
	listCmd.Flags().IntVar(&listPage.Limit, "limit", sdk.DefaultPageSize, "Page size")
}
