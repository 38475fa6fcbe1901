package main

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/reedyang/last-trial/pkg/logger"
)

type Config struct {
	serverURL      string
	logLevel       string
	heartbeat      time.Duration
	reconnectDelay time.Duration
	minLive        time.Duration
	pollInterval   time.Duration
	verbose        bool
}

func (c *Config) validate() error {
	if c.serverURL == "" {
		return errors.New("--server is required")
	}
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return fmt.Errorf("invalid --server %q: %w", c.serverURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid --server scheme %q (expected http or https)", u.Scheme)
	}
	if _, err := logger.ParseLevel(c.logLevel); err != nil {
		return err
	}
	return nil
}

// wsURL derives the live channel endpoint for a game from the server URL.
func (c *Config) wsURL(gameID int) (string, error) {
	u, err := url.Parse(c.serverURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "https":
		u.Scheme = "wss"
	default:
		u.Scheme = "ws"
	}
	u.Path = fmt.Sprintf("/api/ws/game/%d", gameID)
	return u.String(), nil
}

func newCmd(cfg *Config) *cobra.Command {
	v := viper.New()
	v.SetEnvPrefix("LAST_TRIAL")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	cmd := &cobra.Command{
		Use:           "last-trial",
		Short:         "Watch live AI courtroom trials from the terminal.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Version:       releaseVersion,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmd.Flags().VisitAll(func(f *pflag.Flag) {
				if !f.Changed && v.IsSet(f.Name) {
					_ = f.Value.Set(v.GetString(f.Name))
				}
			})
			if err := cfg.validate(); err != nil {
				return err
			}
			level, _ := logger.ParseLevel(cfg.logLevel)
			if cfg.verbose && level > logger.LevelDebug {
				level = logger.LevelDebug
			}
			logger.SetLevel(level)
			return nil
		},
	}

	fs := cmd.PersistentFlags()
	fs.SetNormalizeFunc(func(_ *pflag.FlagSet, name string) pflag.NormalizedName {
		return pflag.NormalizedName(strings.ReplaceAll(name, "_", "-"))
	})

	fs.StringVarP(&cfg.serverURL, "server", "s", "http://localhost:8001", "trial server base URL (env: LAST_TRIAL_SERVER)")
	fs.StringVar(&cfg.logLevel, "log-level", "info", "log level: trace, debug, info, warn, error (env: LAST_TRIAL_LOG_LEVEL)")
	fs.DurationVar(&cfg.heartbeat, "heartbeat-interval", 30*time.Second, "live channel ping interval (env: LAST_TRIAL_HEARTBEAT_INTERVAL)")
	fs.DurationVar(&cfg.reconnectDelay, "reconnect-delay", 5*time.Second, "delay before reconnecting a dropped channel (env: LAST_TRIAL_RECONNECT_DELAY)")
	fs.DurationVar(&cfg.minLive, "min-live-duration", 3*time.Second, "minimum connection age before a drop triggers reconnection (env: LAST_TRIAL_MIN_LIVE_DURATION)")
	fs.DurationVar(&cfg.pollInterval, "poll-interval", 10*time.Second, "game metadata poll interval (env: LAST_TRIAL_POLL_INTERVAL)")
	fs.BoolVarP(&cfg.verbose, "verbose", "v", false, "display additional output (env: LAST_TRIAL_VERBOSE)")

	cmd.AddCommand(newWatchCmd(cfg), newStartCmd(cfg), newStopCmd(cfg))

	return cmd
}

func parseGameID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid game id %q", arg)
	}
	return id, nil
}
