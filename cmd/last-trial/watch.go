package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/reedyang/last-trial/internal/api"
	"github.com/reedyang/last-trial/internal/session"
	"github.com/reedyang/last-trial/internal/websocket"
)

func newWatchCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "watch <game-id>",
		Short: "Stream a game's reconciled timeline to stdout.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			return watch(cmd.Context(), cfg, gameID)
		},
	}
}

func watch(ctx context.Context, cfg *Config, gameID int) error {
	client := api.New(cfg.serverURL)
	defer client.Close()

	printer := newPrinter(os.Stdout)

	sess, err := session.New(session.Config{
		GameID: gameID,
		API:    client,
		Dial: func(ctx context.Context, gameID int) (session.Conn, error) {
			endpoint, err := cfg.wsURL(gameID)
			if err != nil {
				return nil, err
			}
			return websocket.Dial(ctx, endpoint)
		},
		HeartbeatInterval: cfg.heartbeat,
		ReconnectDelay:    cfg.reconnectDelay,
		MinLiveDuration:   cfg.minLive,
		PollInterval:      cfg.pollInterval,
		OnEntry:           printer.Entry,
		OnPhase:           printer.Phase,
	})
	if err != nil {
		return err
	}

	if err := sess.Start(ctx); err != nil {
		return fmt.Errorf("start session: %w", err)
	}
	defer sess.Close()

	snap := sess.Snapshot()
	if snap.HistoryMode {
		// Finished game: the full replay was printed during Start.
		return nil
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-sigCh:
		fmt.Fprintln(os.Stderr, "shutting down")
	case <-ctx.Done():
	case <-sess.Done():
	}
	return nil
}

func newStartCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "start <game-id>",
		Short: "Ask the server to start a prepared game.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			client := api.New(cfg.serverURL)
			defer client.Close()
			return client.StartGame(cmd.Context(), gameID)
		},
	}
}

func newStopCmd(cfg *Config) *cobra.Command {
	return &cobra.Command{
		Use:   "stop <game-id>",
		Short: "Ask the server to stop a running game.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID, err := parseGameID(args[0])
			if err != nil {
				return err
			}
			client := api.New(cfg.serverURL)
			defer client.Close()
			return client.StopGame(cmd.Context(), gameID)
		},
	}
}
