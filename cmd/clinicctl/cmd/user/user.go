package user

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/clinicdesk/clinic/cmd/clinicctl/cmd/cmdutil"
	"github.com/clinicdesk/clinic/pkg/sdk"
)

// UserCmd is the parent command for account management (admin portal)
var UserCmd = &cobra.Command{
	Use:   "user",
	Short: "Manage clinic accounts",
	Long:  `Commands for listing, registering, updating and removing accounts. Requires the admin role.`,
}

func init() {
	UserCmd.AddCommand(listCmd)
	UserCmd.AddCommand(doctorsCmd)
	UserCmd.AddCommand(getCmd)
	UserCmd.AddCommand(createCmd)
	UserCmd.AddCommand(updateCmd)
	UserCmd.AddCommand(deleteCmd)
}

func userTable(users []sdk.User) func(*tabwriter.Writer) {
	return func(w *tabwriter.Writer) {
		fmt.Fprintln(w, "ID\tNAME\tEMAIL\tPHONE\tROLE\tCREATED")
		for _, u := range users {
			fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
				u.ID, u.FullName, u.Email, cmdutil.Dash(u.PhoneNumber), u.Role, cmdutil.FormatTime(u.CreatedAt))
		}
	}
}
