package auth

import (
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/config"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display authentication status",
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := config.MustFromContext(cmd.Context()).ClientProvider

		mgr, err := provider.Session(cmd.Context())
		if err != nil {
			return err
		}
		snap := mgr.Snapshot()
		if !snap.HasIdentity() {
			return errors.New("not logged in")
		}

		store, err := provider.TokenStore()
		if err != nil {
			return err
		}
		token, err := store.Get()
		if err != nil {
			return fmt.Errorf("read credential: %w", err)
		}
		claims, err := sdk.DecodeClaims(token)
		if err != nil {
			return err
		}
		policy, err := provider.Policy()
		if err != nil {
			return err
		}

		pterm.DefaultSection.Println("Authentication Status")
		if claims.ExpiresAt.IsZero() {
			pterm.Info.Println("Logged in with a token that carries no expiry")
		} else {
			pterm.Info.Printf("Logged in with token expiring at: %s (in %s)\n",
				claims.ExpiresAt.Format(time.RFC1123), time.Until(claims.ExpiresAt).Round(time.Minute))
		}

		identity := snap.Identity
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tROLE\tSTATE\tPORTAL")
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			identity.ID, cmdutil.Dash(identity.FullName), cmdutil.Dash(identity.Email), identity.Role, snap.State, policy.Home(identity.Role))
		return w.Flush()
	},
}
