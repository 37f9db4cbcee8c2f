package cmd

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/JakeFAU/storefront-insights/internal/metrics"
	"github.com/JakeFAU/storefront-insights/internal/server"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		Long: `Starts the REST API on server.port. The process drains in-flight requests
and exits on SIGINT or SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := resolveApp(cmd.Context())
			if err != nil {
				return err
			}
			metrics.Init()
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			addr := fmt.Sprintf(":%d", a.Config().Server.Port)
			return server.Run(ctx, addr, a.APIServer().Handler(), a.Logger())
		},
	}
}
