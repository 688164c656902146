package server

import (
	"fmt"

	"nathanbeddoewebdev/tsm/cmd/commands/internal/output"
	"nathanbeddoewebdev/tsm/internal/domain"
	"nathanbeddoewebdev/tsm/internal/metrics"

	"github.com/spf13/cobra"
)

func ContainersCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "containers <server>",
		Short: "List the containers running on a server",
		Long: `List the containers reported by a server's agent.

Examples:
  tsm server containers web-1
  tsm server containers 42 -o json`,
		Args:         cobra.ExactArgs(1),
		RunE:         runContainers,
		SilenceUsage: true,
	}

	output.AddFlag(cmd)

	return cmd
}

func runContainers(cmd *cobra.Command, args []string) error {
	format, err := output.Format(cmd)
	if err != nil {
		return err
	}

	a, svc, _, err := connect()
	if err != nil {
		return err
	}
	defer a.Close()

	server, err := resolve(cmd, svc, args[0])
	if err != nil {
		return err
	}

	var list *domain.ContainerList
	err = output.Spin(cmd, "Fetching containers...", func() error {
		var getErr error
		list, getErr = svc.GetContainers(cmd.Context(), server.ID)
		return getErr
	})
	if err != nil {
		return fmt.Errorf("failed to fetch containers: %w", err)
	}

	if format == output.JSON {
		return output.PrintJSON(cmd, list)
	}

	if len(list.Containers) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No containers running.")
		return nil
	}

	w := output.NewTable(cmd.OutOrStdout(), "ID", "NAME", "IMAGE", "STATUS", "UPTIME", "CPU%", "MEMORY")
	for _, c := range list.Containers {
		mem := metrics.FormatBytes(c.MemoryUsage)
		if c.MemoryLimit > 0 {
			mem += " / " + metrics.FormatBytes(c.MemoryLimit)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			shortID(c.ID),
			c.Name,
			orDash(c.Image.String()),
			orDash(c.Status),
			orDash(c.Uptime.String()),
			metrics.FormatPercent(c.CPUPercent),
			mem,
		)
	}
	w.Flush()
	return nil
}

// shortID abbreviates a container ID the way docker ps does.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
