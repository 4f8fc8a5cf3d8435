package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/flowlane/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve layouts over HTTP",
	Long: `Starts the layout service:

  POST /v1/layout                   lay out the groups in the request body
  GET  /v1/workflows/:name/layout   fetch, snapshot and lay out a workflow
  GET  /healthz                     liveness
  GET  /metrics                     Prometheus metrics

Workflows that cannot be fetched are served from the newest snapshot and
marked stale. Shuts down gracefully on interrupt.`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (default from config)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	s, err := newSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	ctx := cmd.Context()
	db, err := s.openStore(ctx)
	if err != nil {
		return err
	}
	defer db.Close()

	var accessLog io.Writer
	if s.cfg.Verbose {
		accessLog = cmd.ErrOrStderr()
	}
	srv := server.New(server.Options{
		Fetcher:     s.client(),
		Store:       db,
		Telemetry:   s.events,
		HistoryKeep: s.cfg.HistoryKeep,
		Warn:        s.cfg.WarnOnIssues,
		AccessLog:   accessLog,
	})

	s.printer.Info(fmt.Sprintf("listening on %s (workflow API %s)", s.cfg.Server.Addr, s.cfg.APIURL))
	if err := srv.Run(ctx, s.cfg.Server.Addr, s.cfg.Server.ReadTimeout, s.cfg.Server.WriteTimeout); err != nil {
		return err
	}
	s.printer.Info("shut down")
	return nil
}
