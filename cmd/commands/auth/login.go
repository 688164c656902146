package auth

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/app"
	"nathanbeddoewebdev/tsm/internal/auditlog"
	"nathanbeddoewebdev/tsm/internal/domain"

	"golang.org/x/term"

	"github.com/spf13/cobra"
)

func LoginCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "login",
		Short: "Sign in to The Server Monitor",
		Long: `Sign in with your account email and password and store the session.

The password is prompted for without echo. When stdin is not a terminal
it is read from the first line of stdin instead, so it can be piped.

Examples:
  tsm auth login --email ops@example.com
  echo "$TSM_PASSWORD" | tsm auth login --email ops@example.com`,
		Args:         cobra.NoArgs,
		RunE:         runLogin,
		SilenceUsage: true,
		Annotations:  map[string]string{auditlog.Annotation: "true"},
	}

	cmd.Flags().String("email", "", "Account email address")
	cmd.Flags().String("password", "", "Account password (optional, overrides prompt)")

	return cmd
}

func runLogin(cmd *cobra.Command, args []string) error {
	email, _ := cmd.Flags().GetString("email")
	email = strings.TrimSpace(email)
	password, _ := cmd.Flags().GetString("password")

	stdin := cmd.InOrStdin()
	fd, interactive := terminalFd(stdin)
	reader := bufio.NewReader(stdin)

	if email == "" {
		if !interactive {
			return errors.New("--email is required when stdin is not a terminal")
		}
		fmt.Fprint(cmd.ErrOrStderr(), "Email: ")
		line, err := reader.ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		email = strings.TrimSpace(line)
	}

	if password == "" {
		var err error
		password, err = readPassword(cmd, reader, fd, interactive)
		if err != nil {
			return err
		}
	}

	cmd.SetContext(auditlog.WithMetadata(cmd.Context(), auditlog.Metadata{
		Account:      email,
		ResourceType: "session",
	}))

	a, err := app.Load(nil)
	if err != nil {
		return err
	}

	var sess *domain.Session
	err = output.Spin(cmd, "Signing in...", func() error {
		var loginErr error
		sess, loginErr = a.Sessions.Login(cmd.Context(), domain.Credentials{Email: email, Password: password})
		return loginErr
	})
	if err != nil {
		return err
	}

	// Responses cached for a previous login of the same account are stale.
	if err := a.Cache.Scoped(sess.User.Email).Clear(); err != nil {
		a.Logger.Debug("failed to clear response cache", "error", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Logged in as %s\n", sess.User.DisplayName())
	return nil
}

func readPassword(cmd *cobra.Command, reader *bufio.Reader, fd int, interactive bool) (string, error) {
	if interactive {
		fmt.Fprint(cmd.ErrOrStderr(), "Password: ")
		bytes, err := term.ReadPassword(fd)
		fmt.Fprintln(cmd.ErrOrStderr())
		if err != nil {
			return "", err
		}
		return string(bytes), nil
	}

	line, err := reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

// terminalFd returns r's file descriptor when r is a terminal.
func terminalFd(r io.Reader) (int, bool) {
	f, ok := r.(*os.File)
	if !ok {
		return 0, false
	}
	fd := int(f.Fd())
	return fd, term.IsTerminal(fd)
}
