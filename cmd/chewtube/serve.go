package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/teslashibe/chewtube/internal/log"
	"github.com/teslashibe/chewtube/pkg/source"
	"github.com/teslashibe/chewtube/pkg/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the ChewTube server",
	Long:  `Serves the dashboard, the observer and player WebSockets, the REST API and /metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.Addr, _ = cmd.Flags().GetString("addr")
		}
		if cmd.Flags().Changed("backend") {
			cfg.Backend, _ = cmd.Flags().GetString("backend")
		}
		if cmd.Flags().Changed("static") {
			cfg.StaticDir, _ = cmd.Flags().GetString("static")
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		var opts []web.Option
		lookup, err := source.NewLookup(ctx, source.LookupConfig{
			APIKey:   cfg.YouTube.APIKey,
			CacheTTL: cfg.YouTube.CacheTTL.Std(),
		})
		switch {
		case err == nil:
			opts = append(opts, web.WithLookup(lookup))
		case source.IsNoCredentials(err):
			log.Info("youtube lookup disabled", "reason", "no api key or default credentials")
		default:
			log.Warn("youtube lookup disabled", "error", err)
		}

		srv, err := web.New(cfg, opts...)
		if err != nil {
			return err
		}
		return srv.Run(ctx)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "HTTP listen address")
	serveCmd.Flags().String("backend", "api", "Initial playback backend (embed, api, media)")
	serveCmd.Flags().String("static", "./web", "Directory with the browser client")
}
