package commands

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"chatterbox/internal/app"
	"chatterbox/internal/config"
	"chatterbox/internal/logging"
)

var (
	home       string
	configPath string
	relayURL   string
	selfID     string
	selfName   string
	logLevel   string

	settings config.Config
	logger   zerolog.Logger
)

func Execute() error {
	root := &cobra.Command{
		Use:          "chatterbox",
		Short:        "Session coordinator for one-to-one, group and ad-hoc conversations",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveSettings(cmd)
			if err != nil {
				return err
			}
			settings = cfg

			opts := logging.Defaults(logging.ProfileRuntime)
			if lvl, ok := logging.ParseLevel(cfg.Log.Level); ok {
				opts.Level = lvl
			}
			opts.JSON = cfg.Log.JSON
			opts.NoColor = cfg.Log.NoColor
			logger = logging.New("chatterbox", opts)
			return nil
		},
	}

	root.PersistentFlags().StringVar(&home, "home", "", "data dir (default ~/.chatterbox)")
	root.PersistentFlags().StringVar(&configPath, "config", "", "config file (default <home>/config.toml when present)")
	root.PersistentFlags().StringVar(&relayURL, "relay", "", "relay base URL (e.g. http://127.0.0.1:8080)")
	root.PersistentFlags().StringVar(&selfID, "self", "", "your participant id")
	root.PersistentFlags().StringVar(&selfName, "name", "", "your display name")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (trace, debug, info, warn, error, off)")

	root.AddCommand(keyCmd(), lognameCmd(), historyCmd(), sendCmd(), runCmd(), simulateCmd())
	return root.Execute()
}

// resolveSettings loads the config file, if any, and applies flags on top.
func resolveSettings(cmd *cobra.Command) (config.Config, error) {
	cfg := config.Default()
	if home != "" {
		cfg.Home = home
	}

	path := configPath
	if path == "" {
		candidate := filepath.Join(cfg.Home, "config.toml")
		if _, err := os.Stat(candidate); err == nil {
			path = candidate
		} else if !errors.Is(err, fs.ErrNotExist) {
			return config.Config{}, err
		}
	}
	if path != "" {
		loaded, err := config.LoadUnvalidated(path)
		if err != nil {
			return config.Config{}, err
		}
		cfg = loaded
		if home != "" {
			cfg.Home = home
		}
	}

	flags := cmd.Flags()
	if flags.Changed("relay") {
		cfg.RelayURL = relayURL
	}
	if flags.Changed("self") {
		id, err := uuid.Parse(selfID)
		if err != nil {
			return config.Config{}, fmt.Errorf("--self: %w", err)
		}
		cfg.Self = id
	}
	if flags.Changed("name") {
		cfg.DisplayName = selfName
	}
	if flags.Changed("log-level") {
		cfg.Log.Level = logLevel
	}
	return cfg, nil
}

// newApp validates the settings and builds the app.
func newApp(noPoller bool) (*app.App, error) {
	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings: %w", err)
	}
	if err := os.MkdirAll(settings.Home, 0o700); err != nil {
		return nil, err
	}
	return app.New(app.Config{Settings: settings, Log: logger, NoPoller: noPoller})
}
