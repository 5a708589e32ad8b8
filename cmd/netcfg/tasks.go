package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dmagro/netcfg/internal/output"
	"github.com/dmagro/netcfg/internal/tasks"
)

func tasksCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "tasks",
		Short: "List registered tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tbl := output.NewTable(cmd.OutOrStdout(), "Task", "Description")
			for _, t := range a.registry.Tasks() {
				tbl.AddRow(output.Cyan(t.Name), t.Description)
			}
			tbl.Print()
			return nil
		},
	}
}

func runCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run <task>",
		Short: "Run a task against the selected network",
		Long: `Resolve the selected network and run a registered task against it. Nothing
runs when resolution fails, and a failing task prints nothing.

Examples:
  netcfg run accounts
  netcfg run balances -n mainnet`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTask(cmd, args[0])
		},
	}
}

func taskCmd(a *app, t tasks.Task) *cobra.Command {
	return &cobra.Command{
		Use:   t.Name,
		Short: t.Description,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runTask(cmd, t.Name)
		},
	}
}

func (a *app) runTask(cmd *cobra.Command, name string) error {
	if _, ok := a.registry.Lookup(name); !ok {
		return fmt.Errorf("%w: %s", tasks.ErrUnknownTask, name)
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := a.resolve(ctx)
	if err != nil {
		return err
	}

	return a.registry.Run(ctx, name, tasks.Env{
		Config:  cfg,
		Clients: a.clients,
		Out:     cmd.OutOrStdout(),
		Log:     a.log,
	})
}
