package auth

import (
	"github.com/spf13/cobra"
)

func NewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Manage your The Server Monitor session",
		Long: `Manage your The Server Monitor session.

Use this command group to sign in, sign out and check who is signed in.
The session token is kept in the OS keychain unless the session-store
config key selects the file backend.`,
	}

	cmd.AddCommand(LoginCommand())
	cmd.AddCommand(LogoutCommand())
	cmd.AddCommand(StatusCommand())

	return cmd
}
