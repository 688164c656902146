package auth

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/app"

	"github.com/spf13/cobra"
)

type statusOutput struct {
	LoggedIn bool   `json:"logged_in"`
	Email    string `json:"email,omitempty"`
	Name     string `json:"name,omitempty"`
	Backend  string `json:"session_store"`
	APIURL   string `json:"api_url"`
}

func StatusCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show who is signed in",
		Long: `Show whether a session is stored, for which account, and which API
it is used against. No request is made.

Example:
  tsm auth status`,
		Args:         cobra.NoArgs,
		RunE:         runStatus,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runStatus(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	a, err := app.Load(nil)
	if err != nil {
		return err
	}

	out := statusOutput{
		Backend: a.Config.SessionBackend(),
		APIURL:  a.Config.BaseURL(),
	}
	if sess := a.Sessions.Restore(); sess != nil {
		out.LoggedIn = true
		out.Email = sess.User.Email
		out.Name = sess.User.DisplayName()
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, out)
	}

	w := cmd.OutOrStdout()
	if !out.LoggedIn {
		fmt.Fprintln(w, "Not logged in. Run `tsm auth login` to sign in.")
		return nil
	}
	fmt.Fprintf(w, "Logged in as %s <%s>\n", out.Name, out.Email)
	fmt.Fprintf(w, "  API:           %s\n", out.APIURL)
	fmt.Fprintf(w, "  Session store: %s\n", out.Backend)
	return nil
}
