package main

import (
	"context"
	"fmt"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notewise/internal/config"
	"notewise/internal/logging"
	"notewise/internal/preflight"
	"notewise/internal/server"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string
	var live bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the session over the HTTP API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			if bind != "" {
				cfg.Paths.APIBind = bind
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}
			logStartupSnapshot(signalCtx, logger, cfg, live)

			a, err := ctx.openApp(signalCtx, logger)
			if err != nil {
				logger.Error("open session", logging.Error(err))
				return err
			}
			defer a.close()

			srv, err := server.New(cfg, a.session, logger)
			if err != nil {
				return err
			}
			if err := srv.Start(signalCtx); err != nil {
				return err
			}
			defer srv.Stop()

			fmt.Fprintf(cmd.OutOrStdout(), "Serving session %s on http://%s\n", a.session.ID(), srv.Addr())
			<-signalCtx.Done()
			logger.Info("notewise server shutting down")
			return nil
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Override paths.api_bind")
	cmd.Flags().BoolVar(&live, "live", false, "Send a live health request to the model endpoint at startup")
	return cmd
}

// logStartupSnapshot records readiness and optional dependencies once so the
// log explains later configuration errors.
func logStartupSnapshot(ctx context.Context, logger *slog.Logger, cfg *config.Config, live bool) {
	for _, result := range preflight.RunAll(ctx, cfg, preflight.Options{Live: live}) {
		if result.Passed {
			logger.Info("preflight check passed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
			)
			continue
		}
		logging.WarnWithContext(logger, "preflight check failed", "preflight_failed",
			logging.String("check", result.Name),
			logging.String("detail", result.Detail),
			logging.String(logging.FieldErrorHint, "run `notewise status` for details"),
		)
	}
	for _, dep := range preflight.CheckSystemDeps(cfg) {
		logger.Info("optional dependency",
			logging.String("name", dep.Name),
			logging.Bool("available", dep.Available),
			logging.String("command", dep.Command),
			logging.String("detail", dep.Detail),
		)
	}
}
