package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/example/dmlog/internal/config"
	"github.com/example/dmlog/internal/db"
	"github.com/example/dmlog/internal/migrate"
	"github.com/example/dmlog/internal/quota"
	"github.com/example/dmlog/internal/record"
	"github.com/example/dmlog/internal/session"
	"github.com/example/dmlog/internal/sheets"
	"github.com/example/dmlog/internal/web"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newServerCmd() *cobra.Command {
	var migrateUp bool

	cmd := &cobra.Command{
		Use:   "server",
		Short: "Run the web UI + break lock sweeper",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.FromEnv()
			if err != nil {
				return err
			}

			logger, err := newLogger(cfg.DevMode)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			d, err := db.Open(ctx, cfg.DatabaseURL)
			if err != nil {
				return err
			}
			defer d.Close()

			if err := d.Ping(ctx); err != nil {
				return fmt.Errorf("db ping: %w", err)
			}

			if migrateUp {
				if err := migrate.Up(ctx, d); err != nil {
					return err
				}
			}

			sessions := session.NewStore(cfg.CookieHashKey, cfg.CookieBlockKey)
			records := record.NewRepo(d)
			locks := quota.NewStore(d)
			sheet := sheets.New(cfg.SheetsWebhookURL, cfg.SheetsSecret, logger)

			// sweeper
			sw := &quota.Sweeper{
				Locks:    locks,
				Interval: cfg.SweepInterval,
				Log:      logger,
			}
			go func() { _ = sw.Run(ctx) }()

			// web
			ws := &web.Server{
				Sessions: sessions,
				Records:  records,
				Locks:    locks,
				Sheets:   sheet,
				Log:      logger,
				BaseURL:  cfg.BaseURL,
			}
			return web.Start(ctx, cfg.ListenAddr, ws.Routes(), logger)
		},
	}

	cmd.Flags().BoolVar(&migrateUp, "migrate", true, "run database migrations on startup")

	cmd.Flags().Lookup("migrate").NoOptDefVal = "true"
	return cmd
}

func newLogger(dev bool) (*zap.Logger, error) {
	if dev {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}
