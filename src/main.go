package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fieldmapper/src/directors"
	"fieldmapper/src/engine"
	"fieldmapper/src/helpers"
	"fieldmapper/src/server"
	"fieldmapper/src/settings"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCommand(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		os.Exit(1)
	}
}

// newRootCommand wires the CLI. Results go to out, logs go to stderr.
func newRootCommand(out io.Writer) *cobra.Command {
	var (
		logger  *zap.SugaredLogger
		args    *settings.Arguments
		manager *directors.ServiceManager
	)

	root := &cobra.Command{
		Use:           "fieldmapper",
		Short:         "Compile field definitions into query abilities and filter fragments",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example: `  fieldmapper abilities definition.json
  fieldmapper query --definition definition.json status in "active,pending"
  fieldmapper query --type number age gte 18
  fieldmapper validate definition.json document.json
  fieldmapper serve --port 7710`,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			var err error
			args, err = settings.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err = directors.NewLogger(args.Debug)
			if err != nil {
				return err
			}
			directors.ResetServiceManager()
			manager = directors.InitServiceManager(directors.NewMapperService(args, logger), logger)
			return nil
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			if logger != nil {
				_ = logger.Sync()
			}
		},
	}

	flags := root.PersistentFlags()
	flags.String("config", "", "Path to config file")
	flags.Int("max-level", 3, "Levels of embedded documents to compile")
	flags.Int("max-depth", 0, "Nesting levels to list query abilities for (0 = no limit)")
	flags.Bool("canonical", false, "Render query fragments as canonical extended JSON")
	flags.Bool("json-schema", false, "Also validate documents against the exported JSON Schema")
	flags.String("locale", "en-US", "Locale for numbers in summaries")
	flags.Bool("debug", false, "Enable debug logging")

	root.AddCommand(&cobra.Command{
		Use:   "abilities <definition.json>",
		Short: "List queryable field paths and their operators",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			resp, err := directors.CommandDirector(manager, "abilities", positional, logger)
			if err != nil {
				return err
			}
			logger.Infof("Definition %s has %s queryable paths", resp.DefinitionID,
				helpers.FormatNumber(float64(resp.ResultCount), args.Locale))
			return writeJSON(out, resp.Result)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "jsonschema <definition.json>",
		Short: "Print the JSON Schema of a definition",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, positional []string) error {
			resp, err := directors.CommandDirector(manager, "jsonschema", positional, logger)
			if err != nil {
				return err
			}
			return writeJSON(out, resp.Result)
		},
	})

	root.AddCommand(&cobra.Command{
		Use:   "validate <definition.json> <document.json|document.bson>",
		Short: "Validate a document against a definition",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, positional []string) error {
			_, err := directors.CommandDirector(manager, "validate", positional, logger)
			if err != nil {
				for _, e := range multierr.Errors(err) {
					fmt.Fprintln(out, e)
				}
				return errors.New("document is not valid")
			}
			fmt.Fprintln(out, "valid")
			return nil
		},
	})

	var (
		definition  string
		elementType string
	)
	queryCmd := &cobra.Command{
		Use:   "query <path> <operator> <value>",
		Short: "Compile one condition into a filter fragment",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, positional []string) error {
			resp, err := directors.QueryDirector(manager, directors.QueryRequest{
				Definition:  definition,
				Path:        positional[0],
				Operator:    positional[1],
				Value:       positional[2],
				ElementType: engine.ElementType(elementType),
			})
			if err != nil {
				return err
			}
			rendered, err := engine.ExtJSON(resp.Result.(engine.QueryFragment), args.Canonical)
			if err != nil {
				return fmt.Errorf("failed to render fragment: %w", err)
			}
			fmt.Fprintln(out, string(rendered))
			return nil
		},
	}
	queryCmd.Flags().StringVar(&definition, "definition", "", "Definition file to take the field type from")
	queryCmd.Flags().StringVar(&elementType, "type", string(engine.TypeString), "Element type of the field when no definition is given")
	root.AddCommand(queryCmd)

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Answer mapper commands over TCP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			srv := server.NewServer(args.Host, args.Port, args.IdleTimeout, args.DataDir, manager, logger)
			if err := srv.Start(); err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			<-ctx.Done()

			logger.Info("Shutting down server")
			return srv.Stop()
		},
	}
	serveCmd.Flags().String("host", "127.0.0.1", "Address to listen on")
	serveCmd.Flags().Int("port", 7710, "Port to listen on")
	serveCmd.Flags().Duration("idle-timeout", 5*time.Minute, "Close connections idle for this long")
	serveCmd.Flags().String("data-dir", "", "Directory client file names are resolved in (default: working directory)")
	root.AddCommand(serveCmd)

	return root
}

func writeJSON(out io.Writer, v interface{}) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
