package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"starbot/internal/config"
	"starbot/internal/loader"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Poll every account on a schedule and serve HTTP until interrupted",
	RunE:  runAction,
}

var onceCmd = &cobra.Command{
	Use:   "once",
	Short: "Check every account a single time and exit",
	RunE:  onceAction,
}

func init() {
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(onceCmd)
}

func runAction(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	return serve(ctx, cfg)
}

func onceAction(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig(ctx, cmd.ErrOrStderr())
	if err != nil {
		return err
	}
	cfg.Bot.RunOnce = true

	st, err := loader.NewLoader(cfg, false).Initialize(ctx)
	if err != nil {
		return err
	}
	defer closeState(st.Close)

	if err := st.Bot.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return fmt.Errorf("bot: %w", err)
	}
	return nil
}

// serve runs the scheduler and the HTTP server side by side. Either one
// failing, or the bot finishing in run-once mode, stops the other.
func serve(ctx context.Context, cfg *config.Config) error {
	st, err := loader.NewLoader(cfg, true).Initialize(ctx)
	if err != nil {
		return err
	}
	defer closeState(st.Close)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer cancel()
		err := st.Bot.Start(gctx)
		if errors.Is(err, context.Canceled) {
			return nil
		}
		return err
	})

	if srv := st.Server(); srv != nil {
		g.Go(func() error {
			return srv.Run(gctx)
		})
	}

	slog.InfoContext(ctx, "starbot running", "bot", cfg.Bot.Name, "accounts", len(st.Routes), "port", cfg.Server.Port)

	if err := g.Wait(); err != nil {
		return err
	}

	slog.Info("starbot stopped")
	return nil
}

func closeState(closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := closeFn(ctx); err != nil {
		slog.Error("shutdown error", "error", err)
	}
}
