package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/flemzord/dashgram/internal/config"
	"github.com/flemzord/dashgram/internal/relay"
	"github.com/flemzord/dashgram/internal/reload"
	"github.com/flemzord/dashgram/internal/telemetry"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 30 * time.Second

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run a webhook relay that tracks updates before forwarding them to the bot",
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, err := configPath(cmd, "")
			if err != nil {
				return err
			}
			cfg, err := loadConfig(cmd, path)
			if err != nil {
				return err
			}
			logger := newLogger(cmd, cfg)

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			tel, err := telemetry.Setup(ctx, cfg.Telemetry)
			if err != nil {
				return err
			}

			client := newClient(cmd, cfg, tel.ClientOptions()...)
			srv := relay.New(cfg.Relay, client, tel.Gatherer(), logger)
			if err := srv.Start(); err != nil {
				_ = client.Close()
				return err
			}

			hup := make(chan os.Signal, 1)
			signal.Notify(hup, syscall.SIGHUP)
			defer signal.Stop(hup)

			watcher := reload.NewWatcher(path, reload.ReloaderFunc(func(next *config.Config) error {
				return srv.Reload(next.Relay)
			}), logger)
			go func() {
				if err := watcher.Run(ctx, hup); err != nil {
					logger.Warn("config hot reload disabled", "error", err)
				}
			}()

			<-ctx.Done()
			logger.Info("shutdown signal received")

			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Stop(shutdownCtx); err != nil {
				logger.Error("relay stop error", "error", err)
			}
			_ = client.Close()
			if err := tel.Shutdown(shutdownCtx); err != nil {
				logger.Error("telemetry shutdown error", "error", err)
			}
			logger.Info("shutdown complete")
			return nil
		},
	}
}
