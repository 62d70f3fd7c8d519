package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/richinsley/dynport/client"
	"github.com/richinsley/dynport/graphapi"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

type replayOptions struct {
	events    string
	graph     string
	out       string
	trace     bool
	keepGoing bool
	progress  bool
}

func newReplayCmd(root *rootOptions) *cobra.Command {
	opts := &replayOptions{}
	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Apply a recorded event log and print every node's input layout",
		Long: "Reads editor events (node_added, node_removed, link_created, link_removed,\n" +
			"save_request) from a YAML or JSON file and applies them in order. Deferred\n" +
			"work is drained after each event, as the editor's event loop would.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.events, "events", "", "Event log (YAML or JSON)")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "Saved graph to start from")
	cmd.Flags().StringVar(&opts.out, "out", "", "Write the resulting graph here")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "Print every outbound message as a JSON line")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false, "Report failed events and continue")
	cmd.Flags().BoolVar(&opts.progress, "progress", term.IsTerminal(int(os.Stderr.Fd())), "Show a progress bar")
	_ = cmd.MarkFlagRequired("events")
	return cmd
}

func runReplay(cmd *cobra.Command, root *rootOptions, opts *replayOptions) error {
	events, err := client.LoadEventsFromFile(opts.events)
	if err != nil {
		return err
	}
	graph, err := root.loadGraph(opts.graph)
	if err != nil {
		return err
	}

	stdout := cmd.OutOrStdout()
	enc := json.NewEncoder(stdout)
	session := client.NewSession(graph, func(m client.EditorMessage) {
		if opts.trace {
			if err := enc.Encode(m); err != nil {
				root.logger.Warn("Unable to trace message", "type", m.Type, "error", err)
			}
		}
	}, root.logger)

	bar := progressbar.NewOptions(len(events),
		progressbar.OptionSetWriter(cmd.ErrOrStderr()),
		progressbar.OptionSetDescription("replaying"),
		progressbar.OptionSetVisibility(opts.progress),
		progressbar.OptionShowCount(),
	)

	failed := 0
	for i := range events {
		if err := session.Apply(&events[i]); err != nil {
			if !opts.keepGoing {
				return fmt.Errorf("event %d (%s): %w", i+1, events[i].Type, err)
			}
			failed++
			root.logger.Warn("Event failed", "index", i+1, "type", events[i].Type, "error", err)
		}
		_ = bar.Add(1)
	}
	_ = bar.Finish()

	printLayouts(stdout, graph)
	if failed > 0 {
		fmt.Fprintf(stdout, "%d of %d events failed\n", failed, len(events))
	}

	if opts.out != "" {
		if err := graph.SaveGraphToFile(opts.out); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
	}
	return nil
}

func printLayouts(w io.Writer, graph *graphapi.Graph) {
	for _, n := range graph.Nodes {
		if len(n.Object.Inputs) == 0 {
			continue
		}
		fmt.Fprintf(w, "node %d %s: order=%v spare=%d active=%d\n",
			n.ID, n.Type, n.Ports.VisualOrder(), n.Ports.SpareIndex(), n.Ports.ActiveInputCount())
		for _, v := range n.Ports.Ports() {
			caption := v.Caption
			if !v.CaptionVisible {
				caption = ""
			}
			fmt.Fprintf(w, "  %d. [%d] %-12s %s\n", v.Position, v.Index, v.State, caption)
		}
	}
}
