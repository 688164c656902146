package website

import (
	"errors"
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/auditlog"

	"github.com/spf13/cobra"
)

func DeleteCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "delete <website>",
		Aliases: []string{"rm"},
		Short:   "Stop monitoring a website",
		Long: `Stop monitoring a website and remove its history.

On a terminal you are asked to confirm; pass --yes to skip the prompt.
Without a terminal --yes is required.

Examples:
  tsm website delete https://example.com
  tsm website delete 7 --yes`,
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

	site, err := resolve(cmd, svc, args[0])
	if err != nil {
		return err
	}

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Account:      sess.User.Email,
		ResourceType: "website",
		ResourceID:   site.ID.String(),
		ResourceName: site.URL,
	}))

	if !yes {
		confirmed, err := output.Confirm(
			fmt.Sprintf("Stop monitoring %s?", site.URL),
			"Its uptime history is removed as well.",
			"Delete",
		)
		if err != nil {
			return err
		}
		if !confirmed {
			fmt.Fprintln(cmd.ErrOrStderr(), "Website deletion cancelled.")
			return nil
		}
	}

	err = output.Spin(cmd, "Deleting website...", func() error {
		return svc.DeleteWebsite(cmd.Context(), site.ID)
	})
	if err != nil {
		return fmt.Errorf("failed to delete website: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Stopped monitoring %s (ID: %s).\n", site.URL, site.ID)
	return nil
}
