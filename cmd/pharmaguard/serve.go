package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pharma-guard/pharmaguard/internal/web"
)

func newServeCmd(g *globalOptions) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the web front",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := g.load()
			if err != nil {
				return err
			}
			if port > 0 {
				a.config.GetServerConfig().Port = port
			}

			cfg := a.config.GetServerConfig()
			a.logger.WithFields(logrus.Fields{
				"host": cfg.Host,
				"port": cfg.Port,
			}).Info("Starting PharmaGuard web front")

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return web.Run(ctx, a.config, a.logger)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "listen port (overrides server.port)")
	return cmd
}
