package ctl

import (
	"fmt"
	"runtime"

	"github.com/dmitrijs2005/portfolio/internal/server"
	"github.com/spf13/cobra"
)

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "portfolioctl version %s (%s)\n", server.Version, runtime.Version())
		},
	}
}
