package server

import (
	"errors"
	"fmt"
	"strings"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/util"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"
)

func CreateCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "create",
		Aliases: []string{"add"},
		Short:   "Register a new server for monitoring",
		Long: `Register a new server. The response includes the unique identifier the
monitoring agent on that host is configured with.

Without --name on a terminal, a form asks for the name and description.

Server names must be 2-63 characters of letters, digits, hyphens and
periods, starting with a letter or digit and not ending with a hyphen or
period.

Examples:
  # Interactive
  tsm server create

  # Non-interactive (scripting)
  tsm server create --name web-1 --description "Frontend"`,
		Args:         cobra.NoArgs,
		RunE:         runCreate,
		SilenceUsage: true,
		Annotations:  map[string]string{auditlog.Annotation: "true"},
	}

	cmd.Flags().String("name", "", "Server name")
	cmd.Flags().String("description", "", "Optional description (max 255 characters)")
	output.AddFlag(cmd)

	return cmd
}

func runCreate(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	name, _ := cmd.Flags().GetString("name")
	description, _ := cmd.Flags().GetString("description")
	opts := domain.CreateServerOpts{
		Name:        strings.TrimSpace(name),
		Description: strings.TrimSpace(description),
	}

	if opts.Name == "" {
		if !output.Interactive() {
			return errors.New("--name is required when not running in a terminal")
		}
		if err := createForm(&opts).Run(); err != nil {
			if errors.Is(err, huh.ErrUserAborted) {
				fmt.Fprintln(cmd.ErrOrStderr(), "Server creation cancelled.")
				return nil
			}
			return err
		}
	}

	if err := util.ValidateCreateServer(opts); err != nil {
		return err
	}

	a, svc, sess, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Account:      sess.User.Email,
		ResourceType: "server",
		ResourceName: opts.Name,
	}))

	fmt.Fprintf(cmd.ErrOrStderr(), "Creating server %q\n", opts.Name)

	var server *domain.Server
	err = output.Spin(cmd, "Creating server...", func() error {
		var createErr error
		server, createErr = svc.CreateServer(cmd.Context(), opts)
		return createErr
	})
	if err != nil {
		return fmt.Errorf("failed to create server: %w", err)
	}

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		ResourceID:   server.ID.String(),
		ResourceName: server.Name,
	}))

	if format == output.JSON {
		return output.PrintJSON(cmd, server)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Server created.")
	printServerDetail(cmd, server)
	return nil
}

func createForm(opts *domain.CreateServerOpts) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Server name").
				Description("How the server appears in lists.").
				Value(&opts.Name).
				Validate(func(s string) error {
					return util.ValidateServerName(strings.TrimSpace(s))
				}),
			huh.NewText().
				Title("Description").
				Description("Optional.").
				CharLimit(255).
				Value(&opts.Description),
		),
	).WithAccessible(output.Accessible())
}
