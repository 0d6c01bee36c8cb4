package auth

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/config"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/returnto"
	"github.com/clinicdesk/clinic/pkg/sdk/guard"
	"github.com/clinicdesk/clinic/pkg/sdk/session"
)

var (
	loginEmail    string
	loginPassword string
	loginForce    bool
)

var loginCmd = &cobra.Command{
	Use:   "login",
	Short: "Sign in to the clinic",
	Long: `Signs in with email and password and stores the returned credential in
$HOME/.clinic/credentials.json.

The password is read from --password, then CLINIC_PASSWORD, then an
interactive prompt. If a command was refused because you were signed out,
it is shown again after a successful login.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.MustFromContext(cmd.Context())
		provider := cfg.ClientProvider

		mgr, err := provider.Session(cmd.Context())
		if err != nil {
			return err
		}
		if outcome := guard.EvaluateGuest(mgr.Snapshot()); outcome.Decision == guard.RedirectHome && !loginForce {
			identity := mgr.Identity()
			pterm.Info.Printf("Already signed in as %s (%s); use --force to sign in again\n", identity.Email, identity.Role)
			return nil
		}

		email, password, err := credentials(cfg.NonInteractive)
		if err != nil {
			return err
		}

		if err := mgr.Login(cmd.Context(), email, password); err != nil {
			return err
		}

		snap := mgr.Snapshot()
		pterm.Success.Printf("Signed in as %s (%s)\n", displayName(snap), snap.Role())
		if snap.State == session.StateOptimistic {
			pterm.Info.Println("Identity taken from the credential; the server confirms it on the next command.")
		}

		policy, err := provider.Policy()
		if err != nil {
			return err
		}
		pterm.Info.Printf("Portal: %s\n", policy.Home(snap.Role()))

		entry, err := returnto.Take(provider.ConfigDir())
		if err != nil {
			logger := provider.Logger()
			logger.Warn().Err(err).Msg("read return location")
			return nil
		}
		if entry != nil {
			if policy.Allowed(snap.Role(), entry.Location) {
				pterm.Info.Printf("Continue where you left off:\n  %s\n", entry.Command)
			} else {
				pterm.Warning.Printf("%s is not available to role %s\n", entry.Location, snap.Role())
			}
		}
		return nil
	},
}

func init() {
	loginCmd.Flags().StringVar(&loginEmail, "email", "", "Account email")
	loginCmd.Flags().StringVar(&loginPassword, "password", "", "Account password (prefer CLINIC_PASSWORD or the prompt)")
	loginCmd.Flags().BoolVar(&loginForce, "force", false, "Sign in even if a session is active")
}

func credentials(nonInteractive bool) (email, password string, err error) {
	email = strings.TrimSpace(loginEmail)
	password = loginPassword
	if password == "" {
		password = os.Getenv("CLINIC_PASSWORD")
	}

	if email == "" {
		if nonInteractive {
			return "", "", errors.New("--email is required in non-interactive mode")
		}
		if email, err = pterm.DefaultInteractiveTextInput.Show("Email"); err != nil {
			return "", "", fmt.Errorf("read email: %w", err)
		}
	}
	if password == "" {
		if nonInteractive {
			return "", "", errors.New("password required: set --password or CLINIC_PASSWORD")
		}
		if password, err = pterm.DefaultInteractiveTextInput.WithMask("*").Show("Password"); err != nil {
			return "", "", fmt.Errorf("read password: %w", err)
		}
	}
	return strings.TrimSpace(email), password, nil
}

func displayName(snap session.Snapshot) string {
	if snap.Identity == nil {
		return "-"
	}
	if snap.Identity.FullName != "" {
		return fmt.Sprintf("%s <%s>", snap.Identity.FullName, snap.Identity.Email)
	}
	if snap.Identity.Email != "" {
		return snap.Identity.Email
	}
	return fmt.Sprintf("user %d", snap.Identity.ID)
}
