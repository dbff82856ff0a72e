// Command server runs the White Elephant gift-exchange game server.
package main

import (
	"fmt"
	"os"

	"github.com/lukev/we_server/internal/config"
	"github.com/spf13/cobra"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "we_server",
		Short:         "Hosts concurrent White Elephant gift-exchange games over HTTP and websockets.",
		Args:          cobra.ExactArgs(0),
		SilenceErrors: true,
		SilenceUsage:  true,
	}

	load := config.Bind(cmd.Flags())
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		return serve(load())
	}

	return cmd
}
