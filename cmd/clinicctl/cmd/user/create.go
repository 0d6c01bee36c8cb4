package user

import (
	"fmt"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

var createInput struct {
	email    string
	fullName string
	phone    string
	password string
	role     string
}

var createCmd = &cobra.Command{
	Use:   "create",
	Short: "Register a new account",
	Example: `  clinicctl user create --email nurse@example.com --full-name "Nora Nurse" \
    --phone 555-0100 --password s3cret! --role nurse`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := cmdutil.Authorize(cmd, args, cmdutil.PathAdminUsers); err != nil {
			return err
		}
		q, err := cmdutil.Queries(cmd)
		if err != nil {
			return err
		}

		input := sdk.NewUser{
			Email:       createInput.email,
			FullName:    createInput.fullName,
			PhoneNumber: createInput.phone,
			Password:    createInput.password,
		}
		if createInput.role != "" {
			role, err := sdk.ParseRole(createInput.role)
			if err != nil {
				return err
			}
			input.Role = role
		}

		user, err := q.CreateUser(cmd.Context(), input)
		if err != nil {
			return err
		}
		pterm.Success.Printf("Created %s account %d for %s\n", user.Role, user.ID, user.Email)
		return nil
	},
}

func init() {
	createCmd.Flags().StringVar(&createInput.email, "email", "", "Email address (required)")
	createCmd.Flags().StringVar(&createInput.fullName, "full-name", "", "Full name (required)")
	createCmd.Flags().StringVar(&createInput.phone, "phone", "", "Phone number (required)")
	createCmd.Flags().StringVar(&createInput.password, "password", "", "Initial password, at least 6 characters (required)")
	createCmd.Flags().StringVar(&createInput.role, "role", "", fmt.Sprintf("Role: %s, %s, %s (server default: nurse)", sdk.RoleAdmin, sdk.RoleDoctor, sdk.RoleNurse))
}
