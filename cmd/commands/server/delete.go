package server

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/auditlog"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <server>",
		Aliases: []string{"rm"},
		Short:   "Stop monitoring a server",
		Long: `Remove a server and its history from your account.

On a terminal you are asked to confirm; pass --yes to skip the prompt.
Without a terminal --yes is required.

Examples:
  tsm server delete web-1
  tsm server delete 42 --yes`,
		Args:         cobra.ExactArgs(1),
		RunE:         runDelete,
		SilenceUsage: true,
		Annotations:  map[string]string{auditlog.Annotation: "true"},
	}

	cmd.Flags().BoolP("yes", "y", false, "Delete without asking for confirmation")

	return cmd
}

func runDelete(cmd *cobra.Command, args []string) error {
	yes, _ := cmd.Flags().GetBool("yes")
	if !yes && !output.Interactive() {
		return errors.New("refusing to delete without confirmation: pass --yes")
	}

	a, svc, sess, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := resolve(cmd, svc, args[0])
	if err != nil {
		return err
	}

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Account:      sess.User.Email,
		ResourceType: "server",
		ResourceID:   server.ID.String(),
		ResourceName: server.Name,
	}))

	if !yes {
		confirmed, err := output.Confirm(
			fmt.Sprintf("Delete server %q (ID: %s)?", server.Name, server.ID),
			"Its monitoring history is removed as well.",
			"Delete",
		)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.ErrOrStderr(), "Server deletion cancelled.")
			return nil
		}
	}

	fmt.Fprintf(cmd.ErrOrStderr(), "Deleting server %q (ID: %s)...\n", server.Name, server.ID)

	err = output.Spin(cmd, "Deleting server...", func() error {
		return svc.DeleteServer(cmd.Context(), server.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete server: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Server %q (ID: %s) deleted successfully.\n", server.Name, server.ID)
	return nil
}
