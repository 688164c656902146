package auth

import (
	"fmt"

	"nathanbeddoewebdev/tsm/internal/app"
	"nathanbeddoewebdev/tsm/internal/auditlog"

	"github.com/spf13/cobra"
)

func LogoutCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "logout",
		Short: "Sign out and forget the stored session",
		Long: `Remove the stored session token and user, and clear cached API
responses.

Example:
  tsm auth logout`,
		Args:         cobra.NoArgs,
		RunE:         runLogout,
		SilenceUsage: true,
		Annotations:  map[string]string{auditlog.Annotation: "true"},
	}

	return cmd
}

func runLogout(cmd *cobra.Command, args []string) error {
	a, err := app.Load(nil)
	if err != nil {
		return err
	}

	sess := a.Sessions.Restore()
	if sess != nil {
		cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
			Account:      sess.User.Email,
			ResourceType: "session",
		}))
	}

	if err := a.Sessions.Logout(); err != nil {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	if err := a.Cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear response cache: %w", err)
	}

	if sess == nil {
		fmt.Fprintln(cmd.OutOrStdout(), "Not logged in.")
		return nil
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Logged out %s\n", sess.User.Email)
	return nil
}
