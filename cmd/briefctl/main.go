package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/manthysbr/briefing/pkg/client"
	"github.com/spf13/cobra"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "briefctl",
		Short:         "Command line client for the briefing kernel",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	server := os.Getenv("BRIEFING_SERVER")
	if server == "" {
		server = client.DefaultServer
	}
	root.PersistentFlags().String("server", server, "kernel base URL (env BRIEFING_SERVER)")

	root.AddCommand(
		newSubmitCmd(),
		newStatusCmd(),
		newListCmd(),
		newDeleteCmd(),
		newDigestCmd(),
		newFeedCmd(),
	)
	return root
}

// apiClient builds a client from the persistent --server flag.
func apiClient(cmd *cobra.Command) (*client.Client, error) {
	server, err := cmd.Flags().GetString("server")
	if err != nil {
		return nil, fmt.Errorf("failed to read --server: %w", err)
	}
	return client.New(server), nil
}
