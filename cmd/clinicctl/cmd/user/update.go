package user

import (
	"errors"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var updateInput struct {
	fullName string
	phone    string
	password string
}

var updateCmd = &cobra.Command{
	Use:   "update <id>",
	Short: "Update an account",
	Long:  `Updates the given fields of an account. Fields whose flags are not set are left unchanged.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		id, err := cmdutil.ParseID(args[0], "user")
		if err != nil {
			return err
		}

		var input sdk.UpdateUser
		if cmd.Flags().Changed("full-name") {
			input.FullName = &updateInput.fullName
		}
		if cmd.Flags().Changed("phone") {
			input.PhoneNumber = &updateInput.phone
		}
		if cmd.Flags().Changed("password") {
			input.Password = &updateInput.password
		}
		if input == (sdk.UpdateUser{}) {
			return errors.New("nothing to update: set --full-name, --phone or --password")
		}

		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathAdminUsers); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		user, err := q.UpdateUser(cmd.Context(), id, input)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Updated account %d (%s)\n", user.ID, user.Email)
		return nil
	},
}

func init() {
	updateCmd.Flags().StringVar(&updateInput.fullName, "full-name", "", "New full name")
	updateCmd.Flags().StringVar(&updateInput.phone, "phone", "", "New phone number")
	updateCmd.Flags().StringVar(&updateInput.password, "password", "", "New password, at least 6 characters")
}
