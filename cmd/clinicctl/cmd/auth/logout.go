package auth

import (
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/config"
	"github.com/clinicdesk/clinic/cmd/clinicctl/internal/returnto"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Sign out",
	Long: `Revokes the stored credential on the server and deletes it locally.
The local credential is removed even when the server cannot be reached.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		provider := config.MustFromContext(cmd.Context()).ClientProvider

		mgr, err := provider.Session(cmd.Context())
		if err != nil {
			return err
		}
		if err := mgr.Logout(cmd.Context()); err != nil {
			return err
		}
		if err := returnto.Discard(provider.ConfigDir()); err != nil {
			logger := provider.Logger()
			logger.Warn().Err(err).Msg("discard return location")
		}

		pterm.Success.Println("Logged out successfully")
		return nil
	},
}
