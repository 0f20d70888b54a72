// Command relay runs the turn-coordinating TCP server clients connect
// to for a single lockstep game session.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/khaaarl/elven-canopy/internal/relay"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		port         int
		name         string
		password     string
		ticksPerTurn uint32
		maxPlayers   int
	)

	cmd := &cobra.Command{
		Use:   "relay",
		Short: "Run the elven-canopy lockstep relay server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelay(cmd.Context(), port, name, password, ticksPerTurn, maxPlayers)
		},
		SilenceUsage: true,
	}

	cmd.Flags().IntVar(&port, "port", 7878, "TCP port to listen on (0 lets the OS pick)")
	cmd.Flags().StringVar(&name, "name", "elven-canopy-session", "session name announced to clients")
	cmd.Flags().StringVar(&password, "password", "", "session password (empty means none required)")
	cmd.Flags().Uint32Var(&ticksPerTurn, "ticks-per-turn", 50, "simulation ticks advanced per relay turn")
	cmd.Flags().IntVar(&maxPlayers, "max-players", 4, "maximum concurrent players")

	return cmd
}

func runRelay(ctx context.Context, port int, name, password string, ticksPerTurn uint32, maxPlayers int) error {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	slog.SetDefault(logger)

	var pw *string
	if password != "" {
		pw = &password
	}
	session := relay.NewSession(name, pw, ticksPerTurn, maxPlayers, logger)
	srv := relay.NewServer(fmt.Sprintf(":%d", port), session, logger)

	ln, err := net.Listen("tcp", srv.Addr)
	if err != nil {
		logger.Error("failed to bind", "addr", srv.Addr, "error", err)
		return err
	}
	logger.Info("relay listening", "addr", ln.Addr().String(), "session", name, "ticks_per_turn", ticksPerTurn, "max_players", maxPlayers)

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received signal, shutting down", "signal", sig.String())
		cancel()
	}()

	if err := srv.Serve(runCtx, ln); err != nil {
		logger.Error("relay stopped with error", "error", err)
		return err
	}

	logger.Info("relay stopped")
	return nil
}
