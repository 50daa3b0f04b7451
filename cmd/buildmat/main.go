package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/spf13/cobra"

	"github.com/Spok95/buildmat/internal/bot"
	"github.com/Spok95/buildmat/internal/cli"
	"github.com/Spok95/buildmat/internal/dialog"
	"github.com/Spok95/buildmat/internal/domain/materials"
	"github.com/Spok95/buildmat/internal/domain/reports"
	"github.com/Spok95/buildmat/internal/domain/sales"
	"github.com/Spok95/buildmat/internal/infra/db"
	httpx "github.com/Spok95/buildmat/internal/infra/http"
	"github.com/Spok95/buildmat/internal/infra/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app := cli.New()
	root := app.Root()
	root.AddCommand(serveCmd(app))

	if err := app.Execute(ctx, root); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func serveCmd(app *cli.CLI) *cobra.Command {
	var skipMigrate bool
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the health/metrics HTTP server and the Telegram bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), app, !skipMigrate)
		},
	}
	cmd.Flags().BoolVar(&skipMigrate, "skip-migrate", false, "do not apply migrations on start")
	return cmd
}

func serve(ctx context.Context, app *cli.CLI, migrate bool) error {
	cfg := app.Config()
	// сервис пишет логи в stdout, в отличие от CLI-команд
	log := logger.New(cfg.App.Env, cfg.App.LogLevel)

	if migrate {
		if err := db.Migrate(cfg.DSN()); err != nil {
			return fmt.Errorf("migrations failed: %w", err)
		}
		log.Info("migrations applied")
	}

	pool, err := db.Connect(ctx, cfg.DSN())
	if err != nil {
		return fmt.Errorf("db connect failed: %w", err)
	}
	defer pool.Close()
	log.Info("db connected")

	srv := httpx.New(cfg.HTTP.Addr, cfg.Metrics.Enabled, pool)
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server error", "err", err)
		}
	}()
	log.Info("HTTP server started", "addr", cfg.HTTP.Addr)

	loc, err := cfg.Location()
	if err != nil {
		return err
	}
	now := func() time.Time { return time.Now().In(loc) }

	if cfg.Telegram.Token != "" {
		api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
		if err != nil {
			return fmt.Errorf("telegram: %w", err)
		}
		log.Info("telegram bot authorized", "username", api.Self.UserName)

		recorder := sales.NewRecorder(pool, log,
			sales.WithCustomerCheck(cfg.Sales.RequireCustomer),
			sales.WithClock(now),
		)
		b := bot.New(api, log,
			dialog.NewRepo(pool),
			reports.NewRepo(pool, now),
			recorder,
			materials.NewRepo(pool),
			cfg.Telegram.AdminChatID,
			cfg.Telegram.AllowedChatIDs,
			cfg.Reports.LowStockThreshold,
		)
		go func() {
			if err := b.Run(ctx, cfg.Telegram.TimeoutSec); err != nil && !errors.Is(err, context.Canceled) {
				log.Error("bot stopped", "err", err)
			}
		}()
	} else {
		log.Warn("telegram.token is empty, bot disabled")
	}

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shutdownCtx)
	log.Info("graceful shutdown complete")
	return nil
}
