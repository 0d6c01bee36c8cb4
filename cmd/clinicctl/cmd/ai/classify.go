package ai

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var classifyInput struct {
	maxPhrases int
	topK       int
	output     string
}

var classifyCmd = &cobra.Command{
	Use:   "classify <image>",
	Short: "Classify a skin image against the disease catalogue",
	Example: `  clinicctl ai classify lesion.jpg
  clinicctl ai classify lesion.png --top-k 3 -o json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathDoctorAI); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		f, err := os.Open(args[0])
		if err != nil {
			return fmt.Errorf("open image: %w", err)
		}
		defer f.Close()

		spinner, _ := pterm.DefaultSpinner.WithWriter(cmd.ErrOrStderr()).Start("Classifying " + filepath.Base(args[0]))
		result, err := q.Classify(cmd.Context(), sdk.ImageUpload{
			Filename:   f.Name(),
			Data:       f,
			MaxPhrases: classifyInput.maxPhrases,
			TopK:       classifyInput.topK,
		})
		if spinner != nil {
			_ = spinner.Stop()
		}
		if err != nil {
			return err
		}

		return cmdutil.Render(cmd.OutOrStdout(), classifyInput.output, result, func(w *tabwriter.Writer) {
			fmt.Fprintln(w, "RANK\tDISEASE\tSCORE\tBEST PHRASE")
			for i, r := range result.Results {
				fmt.Fprintf(w, "%d\t%s\t%.3f\t%s\n", i+1, r.DiseaseName, r.Score, cmdutil.Dash(r.BestPhrase))
			}
		})
	},
}

func init() {
	classifyCmd.Flags().IntVar(&classifyInput.maxPhrases, "max-phrases", sdk.DefaultMaxPhrases, "Description phrases compared per disease")
	classifyCmd.Flags().IntVar(&classifyInput.topK, "top-k", sdk.DefaultTopK, "Number of ranked results")
	classifyCmd.Flags().StringVarP(&classifyInput.output, "output", "o", cmdutil.OutputTable, "Output format: table, json")
}
