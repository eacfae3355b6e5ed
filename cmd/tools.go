package cmd

import (
	"fmt"
	"io"
	"strconv"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/spf13/cobra"
	"github.com/va6996/toolshed/orm"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var cellStyle = lipgloss.NewStyle().Padding(0, 1)

type toolFlags struct {
	name       string
	kind       string
	primaryUse string
}

func (f *toolFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.name, "name", "", "tool name")
	cmd.Flags().StringVar(&f.kind, "type", "", "tool type")
	cmd.Flags().StringVar(&f.primaryUse, "use", "", "primary use")
}

func newSearchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "search [pattern]",
		Short: "List tools whose name contains pattern (all tools when omitted)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			pattern := ""
			if len(args) == 1 {
				pattern = args[0]
			}
			tools, err := c.app.Tools.Search(cmd.Context(), pattern)
			if err != nil {
				return err
			}
			renderTools(cmd.OutOrStdout(), tools)
			return nil
		},
	}
}

func newGetCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id>",
		Short: "Show one tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tool, err := c.app.Tools.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			renderTools(cmd.OutOrStdout(), []orm.Tool{*tool})
			return nil
		},
	}
}

func newCreateCmd(c *cli) *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "create",
		Short: "Add a tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tool := &orm.Tool{Name: flags.name, Type: flags.kind, PrimaryUse: flags.primaryUse}
			if err := tool.Validate(); err != nil {
				return err
			}
			msg, err := apply(cmd.Context(), c.app.Tools, OperationCreate, tool)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newUpdateCmd(c *cli) *cobra.Command {
	var flags toolFlags
	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a tool's name, type or primary use",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tool, err := c.app.Tools.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}

			// Only the flags given on the command line replace stored values
			if cmd.Flags().Changed("name") {
				tool.Name = flags.name
			}
			if cmd.Flags().Changed("type") {
				tool.Type = flags.kind
			}
			if cmd.Flags().Changed("use") {
				tool.PrimaryUse = flags.primaryUse
			}
			if err := tool.Validate(); err != nil {
				return err
			}

			msg, err := apply(cmd.Context(), c.app.Tools, OperationUpdate, tool)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	flags.register(cmd)
	return cmd
}

func newDeleteCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Remove a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseID(args[0])
			if err != nil {
				return err
			}
			tool, err := c.app.Tools.GetByID(cmd.Context(), id)
			if err != nil {
				return err
			}
			msg, err := apply(cmd.Context(), c.app.Tools, OperationDelete, tool)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
}

func parseID(arg string) (uint, error) {
	id, err := strconv.ParseUint(arg, 10, 0)
	if err != nil || id == 0 {
		return 0, fmt.Errorf("invalid tool id %q", arg)
	}
	return uint(id), nil
}

func renderTools(w io.Writer, tools []orm.Tool) {
	if len(tools) == 0 {
		fmt.Fprintln(w, "No tools found")
		return
	}

	rows := make([][]string, 0, len(tools))
	for _, tool := range tools {
		rows = append(rows, []string{
			strconv.FormatUint(uint64(tool.ID), 10),
			tool.Name,
			tool.Type,
			tool.PrimaryUse,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("ID", "NAME", "TYPE", "PRIMARY USE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
	fmt.Fprintln(w, t.Render())
}
