package main

import (
	"context"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/mit-kavli-institute/ticdb"
	"github.com/mit-kavli-institute/ticdb/log"
	"github.com/mit-kavli-institute/ticdb/log/logger"
	"github.com/mit-kavli-institute/ticdb/log/writer"
	"github.com/mit-kavli-institute/ticdb/rdb/query"
)

var version = "0.0.0-dev"

type rootOptions struct {
	config   string
	database string
	table    string
	format   string
	logLevel string

	client *ticdb.Client
}

func main() {
	if err := newRootCommand(os.Stdout).ExecuteContext(context.Background()); err != nil {
		pterm.Error.Println(err)
		os.Exit(1)
	}
}

func newRootCommand(out io.Writer) *cobra.Command {
	opts := &rootOptions{}

	rootCmd := &cobra.Command{
		Use:   "ticdb",
		Short: "Query the TESS Input Catalog",
		Long: `ticdb queries TIC catalog databases described in a credentials file.

Examples:
  ticdb id 1 2 3 --field id --field tmag
  ticdb loc 10.0 20.0 0.2 --where tmag__lt=10
  ticdb --database tic_82 raw "SELECT count(*) FROM ticentries"
  ticdb schema --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if cmd.Name() == "version" {
				return nil
			}
			if !validFormat(opts.format) {
				return errors.Errorf("unsupported format %q, expected one of %s", opts.format, strings.Join(formats, ", "))
			}

			l, err := logger.NewSLogWithOptions(&logger.SLogOptions{
				Level:  opts.logLevel,
				Format: "text",
				Output: writer.Options{Type: "console", Console: writer.ConsoleWriterOptions{Target: "stderr"}},
			})
			if err != nil {
				return err
			}
			log.SetDefault(l)

			opts.client, err = ticdb.NewClientWithOptions(&ticdb.ClientOptions{
				ConfigPath: opts.config,
				Database:   opts.database,
				Table:      opts.table,
				Logger:     l,
			})
			return err
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if opts.client == nil {
				return nil
			}
			return opts.client.Close()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&opts.config, "config", "c", "", "Credentials file path (default $HOME/.config/tic/db.conf)")
	flags.StringVarP(&opts.database, "database", "d", ticdb.DefaultDatabase, "Database section name")
	flags.StringVarP(&opts.table, "table", "t", ticdb.DefaultTable, "Table name")
	flags.StringVarP(&opts.format, "format", "f", "table", "Output format (table, json, yaml, csv)")
	flags.StringVar(&opts.logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")

	rootCmd.AddCommand(
		newIDCommand(opts, out),
		newLocCommand(opts, out),
		newRawCommand(opts, out),
		newSchemaCommand(opts, out),
		newVersionCommand(out),
	)
	return rootCmd
}

type filterFlags struct {
	fields []string
	wheres []string
}

func (f *filterFlags) bind(cmd *cobra.Command) {
	cmd.Flags().StringSliceVar(&f.fields, "field", []string{"id", "ra", "dec"}, "Output column, repeatable")
	cmd.Flags().StringArrayVarP(&f.wheres, "where", "w", nil, "Filter as column__operator=value, repeatable")
}

func (f *filterFlags) options() ([]ticdb.QueryOption, error) {
	opts := make([]ticdb.QueryOption, 0, len(f.wheres))
	for _, where := range f.wheres {
		name, value, err := parseWhere(where)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ticdb.WithKeyword(name, value))
	}
	return opts, nil
}

func newIDCommand(root *rootOptions, out io.Writer) *cobra.Command {
	filters := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "id <id>...",
		Short: "Query rows by primary key",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := filters.options()
			if err != nil {
				return err
			}

			var id any = args
			if len(args) == 1 {
				id = args[0]
			}
			result, err := root.client.QueryByID(cmd.Context(), id, filters.fields, opts...)
			if err != nil {
				return err
			}
			return writeResult(out, root.format, result)
		},
	}
	filters.bind(cmd)
	return cmd
}

func newLocCommand(root *rootOptions, out io.Writer) *cobra.Command {
	filters := &filterFlags{}
	cmd := &cobra.Command{
		Use:   "loc <ra> <dec> <radius>",
		Short: "Cone search around ra/dec, all in degrees",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			var coords [3]float64
			for i, arg := range args {
				v, err := strconv.ParseFloat(arg, 64)
				if err != nil {
					return errors.Wrapf(err, "invalid coordinate %q", arg)
				}
				coords[i] = v
			}
			opts, err := filters.options()
			if err != nil {
				return err
			}

			result, err := root.client.QueryByLoc(cmd.Context(), coords[0], coords[1], coords[2], filters.fields, opts...)
			if err != nil {
				return err
			}
			return writeResult(out, root.format, result)
		},
	}
	filters.bind(cmd)
	return cmd
}

func newRawCommand(root *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "raw <sql>",
		Short: "Execute SQL verbatim",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			result, err := root.client.QueryRaw(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			return writeResult(out, root.format, result)
		},
	}
}

func newSchemaCommand(root *rootOptions, out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "schema",
		Short: "Show the reflected columns of the table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			table, err := root.client.InspectSchema(cmd.Context())
			if err != nil {
				return err
			}
			return writeSchema(out, root.format, table)
		},
	}
}

func newVersionCommand(out io.Writer) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			pterm.Fprintln(out, "ticdb "+version)
			pterm.Fprintln(out, "operators: "+strings.Join(query.SupportedOperators(), ", "))
		},
	}
}
