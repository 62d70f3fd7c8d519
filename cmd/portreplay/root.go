package main

import (
	"fmt"
	"log/slog"

	"github.com/richinsley/dynport/graphapi"
	"github.com/richinsley/dynport/internal/logging"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

type rootOptions struct {
	defs     string
	logLevel string
	logger   *slog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "portreplay",
		Short: "Drive dynamic port controllers from editor events",
		Long: "portreplay applies node-editor events to a graph of nodes with dynamic inputs,\n" +
			"either from a recorded event log or live from an editor websocket.",
		SilenceUsage: true,
		CompletionOptions: cobra.CompletionOptions{
			HiddenDefaultCmd: true,
		},
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			opts.logger = logging.NewWithWriter(cmd.ErrOrStderr(), logging.ParseLevel(opts.logLevel))
			slog.SetDefault(opts.logger)
		},
	}
	cmd.Version = version
	cmd.PersistentFlags().StringVar(&opts.defs, "defs", "nodes.yaml", "Node type definitions (YAML or JSON)")
	cmd.PersistentFlags().StringVar(&opts.logLevel, "log-level", "warn", "debug, info, warn or error")

	cmd.AddCommand(newReplayCmd(opts))
	cmd.AddCommand(newBridgeCmd(opts))
	return cmd
}

// loadGraph returns the saved graph at path, or an empty one when path is
// empty.
func (o *rootOptions) loadGraph(path string) (*graphapi.Graph, error) {
	objects, err := graphapi.NewNodeObjectsFromFile(o.defs)
	if err != nil {
		return nil, fmt.Errorf("loading node definitions: %w", err)
	}
	if path == "" {
		return graphapi.NewGraph(objects, graphapi.WithGraphLogger(o.logger)), nil
	}
	graph, missing, err := graphapi.NewGraphFromJsonFile(path, objects, graphapi.WithGraphLogger(o.logger))
	if err != nil {
		if missing != nil && len(*missing) > 0 {
			return nil, fmt.Errorf("loading %s: %w (missing types %v)", path, err, *missing)
		}
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	return graph, nil
}
