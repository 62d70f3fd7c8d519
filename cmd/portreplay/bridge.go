package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/richinsley/dynport/client"
	"github.com/spf13/cobra"
)

type bridgeOptions struct {
	url      string
	graph    string
	out      string
	retries  int
	deadline time.Duration
}

func newBridgeCmd(root *rootOptions) *cobra.Command {
	opts := &bridgeOptions{}
	cmd := &cobra.Command{
		Use:   "bridge",
		Short: "Serve a graph to a live editor over a websocket",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBridge(cmd, root, opts)
		},
	}
	cmd.Flags().StringVar(&opts.url, "url", "ws://localhost:8188/ws", "Editor websocket URL")
	cmd.Flags().StringVar(&opts.graph, "graph", "", "Saved graph to start from")
	cmd.Flags().StringVar(&opts.out, "out", "", "Save the graph here when the connection ends")
	cmd.Flags().IntVar(&opts.retries, "retries", 5, "Connection attempts before giving up")
	cmd.Flags().DurationVar(&opts.deadline, "connect-timeout", 30*time.Second, "Time allowed to connect")
	return cmd
}

func runBridge(cmd *cobra.Command, root *rootOptions, opts *bridgeOptions) error {
	graph, err := root.loadGraph(opts.graph)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c := client.NewEditorClient(opts.url, graph, client.DefaultEditorClientCallbacks())
	c.Connection().MaxRetry = opts.retries

	connectCtx, cancel := context.WithTimeout(ctx, opts.deadline)
	defer cancel()
	if err := c.Connect(connectCtx); err != nil {
		return fmt.Errorf("connecting to %s: %w", opts.url, err)
	}
	root.logger.Info("Connected to editor", "url", opts.url, "client_id", c.ClientID(), "graph_id", graph.ID)

	select {
	case <-c.Done():
		root.logger.Info("Editor connection closed")
	case <-ctx.Done():
		_ = c.Close()
		<-c.Done()
	}

	if opts.out != "" {
		data, err := c.Session().Snapshot()
		if err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
		if err := os.WriteFile(opts.out, data, 0o644); err != nil {
			return fmt.Errorf("saving graph: %w", err)
		}
	}
	return nil
}
