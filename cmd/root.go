package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/va6996/toolshed/bootstrap"
	"github.com/va6996/toolshed/config"
	logcontext "github.com/va6996/toolshed/context"
	"github.com/va6996/toolshed/log"
)

// cli carries state shared by the subcommands of one invocation
type cli struct {
	configPath string
	app        *bootstrap.App
}

func newRootCmd(c *cli) *cobra.Command {
	root := &cobra.Command{
		Use:               "toolshed",
		Short:             "Search, create, update and delete tools in the inventory",
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: c.setup,
	}
	root.PersistentFlags().StringVar(&c.configPath, "config", "", "yaml config file (default: config.yaml if present, then environment)")

	root.AddCommand(
		newSearchCmd(c),
		newGetCmd(c),
		newCreateCmd(c),
		newUpdateCmd(c),
		newDeleteCmd(c),
	)
	return root
}

func (c *cli) setup(cmd *cobra.Command, args []string) error {
	var (
		cfg *config.Config
		err error
	)
	if c.configPath != "" {
		cfg, err = config.LoadFile(c.configPath)
	} else {
		cfg, err = config.Load()
	}
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	app, err := bootstrap.Setup(cmd.Context(), cfg)
	if err != nil {
		return fmt.Errorf("setup failed: %w", err)
	}
	c.app = app
	return nil
}

// run executes one command line and always releases the database handle
func run(ctx context.Context, args []string, out, errOut io.Writer) error {
	c := &cli{}
	root := newRootCmd(c)
	root.SetArgs(args)
	root.SetOut(out)
	root.SetErr(errOut)

	defer func() {
		if c.app == nil {
			return
		}
		if err := c.app.Close(ctx); err != nil {
			log.Warnf(ctx, "Failed to close database: %v", err)
		}
	}()

	ctx = logcontext.WithOperationID(ctx, logcontext.NewOperationID())
	return root.ExecuteContext(ctx)
}

// Execute runs the root command.
func Execute() {
	log.Init()
	if err := run(context.Background(), os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
