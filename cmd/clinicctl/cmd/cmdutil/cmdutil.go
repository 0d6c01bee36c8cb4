// Package cmdutil holds helpers shared by the clinicctl command groups:
// access checks against the portal policy, list filtering and output.
package cmdutil

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/config"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/returnto"
	"github.com/clinicdesk/clinic/pkg/sdk"
	"github.com/clinicdesk/clinic/pkg/sdk/guard"
	"github.com/clinicdesk/clinic/pkg/sdk/querycache"
	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

// Portal paths the command groups map onto.
const (
	PathAdminUsers     = "/admin/users"
	PathDoctorPatients = "/doctor/patients"
	PathNursePatients  = "/nurse/patients"
	PathDoctorDiseases = "/doctor/diseases"
	PathDoctorAI       = "/doctor/ai"
)

// Output formats accepted by --output.
const (
	OutputTable = "table"
	OutputJSON  = "json"
)

// sensitiveFlags are never written to the return-to record.
var sensitiveFlags = map[string]bool{"password": true}

// Authorize bootstraps the session and admits the caller if their role may
// enter any of paths. A signed-out caller has the command recorded so
// `auth login` can point back to it.
func Authorize(cmd *cobra.Command, args []string, paths ...string) (*session.Manager, error) {
	cfg := config.MustFromContext(cmd.Context())
	provider := cfg.ClientProvider

	mgr, err := provider.Session(cmd.Context())
	if err != nil {
		return nil, err
	}
	policy, err := provider.Policy()
	if err != nil {
		return nil, err
	}

	snap := mgr.Snapshot()
	outcome := policy.Guard(paths...).Evaluate(snap, paths[0])
	switch outcome.Decision {
	case guard.Allow:
		return mgr, nil
	case guard.RedirectLogin:
		if err := returnto.Record(provider.ConfigDir(), outcome.ReturnTo, CommandLine(cmd, args)); err != nil {
			logger := provider.Logger()
			logger.Warn().Err(err).Msg("record return location")
		}
		return nil, fmt.Errorf("%w\n\nPlease run 'clinicctl auth login' first", outcome.Err())
	case guard.Denied:
		return nil, fmt.Errorf("%w: %s is not available to role %q", outcome.Err(), paths[0], snap.Role())
	default:
		return nil, outcome.Err()
	}
}

// Queries returns the cached query layer after Authorize.
func Queries(cmd *cobra.Command) (*querycache.Queries, error) {
	return config.MustFromContext(cmd.Context()).ClientProvider.Queries()
}

// CommandLine renders the invoked command for display, with sensitive
// flag values redacted.
func CommandLine(cmd *cobra.Command, args []string) string {
	parts := []string{cmd.CommandPath()}
	parts = append(parts, args...)
	cmd.Flags().Visit(func(f *pflag.Flag) {
		value := f.Value.String()
		if sensitiveFlags[f.Name] {
			value = "***"
		}
		parts = append(parts, fmt.Sprintf("--%s=%s", f.Name, value))
	})
	return strings.Join(parts, " ")
}

// ListFlags are the --filter and --output flags of list commands.
type ListFlags struct {
	Filter string
	Output string
}

// Register adds the flags to cmd.
func (f *ListFlags) Register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.Filter, "filter", "", `bexpr filter over the entity fields (e.g. role == "doctor")`)
	cmd.Flags().StringVarP(&f.Output, "output", "o", OutputTable, "Output format: table, json")
}

// Apply filters items by the --filter expression.
func Apply[T any](f ListFlags, items []T) ([]T, error) {
	filter, err := sdk.ParseFilter(f.Filter)
	if err != nil {
		return nil, err
	}
	return sdk.FilterItems(items, filter), nil
}

// Render writes items as JSON or, for table output, through the table
// callback.
func Render(w io.Writer, format string, v any, table func(*tabwriter.Writer)) error {
	switch strings.ToLower(format) {
	case OutputJSON:
		return PrintJSON(w, v)
	case OutputTable, "":
		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		table(tw)
		return tw.Flush()
	default:
		return fmt.Errorf("%w: unsupported output format %q (supported: table, json)", sdk.ErrInvalidInput, format)
	}
}

// PrintJSON writes v as indented JSON.
func PrintJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// ParseID parses a positional numeric id.
func ParseID(arg, what string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(arg), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s id must be a positive integer, got %q", sdk.ErrInvalidInput, what, arg)
	}
	return id, nil
}

// Dash renders an empty value as "-".
func Dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

// FormatTime renders an optional timestamp.
func FormatTime(ts *sdk.Timestamp) string {
	if ts == nil || ts.IsZero() {
		return "-"
	}
	return ts.Format("2006-01-02 15:04")
}

// Confirm asks before a destructive action. Non-interactive runs require
// --yes.
func Confirm(cmd *cobra.Command, yes bool, prompt string) error {
	if yes {
		return nil
	}
	if config.MustFromContext(cmd.Context()).NonInteractive {
		return errors.New("refusing to proceed without --yes in non-interactive mode")
	}
	ok, err := pterm.DefaultInteractiveConfirm.WithDefaultValue(false).Show(prompt)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("aborted")
	}
	return nil
}
