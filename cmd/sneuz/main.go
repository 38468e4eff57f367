// Command sneuz is the client for the Sneuz sleep tracker. It plays every
// surface of the original app: the main app (login, history, manual edits),
// the widget (status, rendered purely from the shared state file), and the
// voice shortcuts (start/stop/toggle).
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"sneuz/internal/intent"
	"sneuz/internal/remote"
	"sneuz/internal/session"
	"sneuz/internal/sharedstate"
)

type app struct {
	shared  sharedstate.Store
	auth    *remote.Auth
	svc     *session.Service
	intents *intent.Intents
	log     zerolog.Logger
}

func newApp() (*app, error) {
	apiURL := getenv("SNEUZ_API_URL", "http://localhost:8080")

	dataDir := os.Getenv("SNEUZ_DATA_DIR")
	if dataDir == "" {
		configDir, err := os.UserConfigDir()
		if err != nil {
			return nil, fmt.Errorf("resolve data dir: %w", err)
		}
		dataDir = filepath.Join(configDir, "sneuz")
	}

	level, err := zerolog.ParseLevel(getenv("SNEUZ_LOG", "warn"))
	if err != nil {
		level = zerolog.WarnLevel
	}
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().Timestamp().Logger().
		Level(level)

	// Every surface process shares these two files, like an app group.
	shared := sharedstate.NewFileStore(filepath.Join(dataDir, "shared_state.json"))
	auth := remote.NewAuth(apiURL, filepath.Join(dataDir, "token"), shared, logger)
	client := remote.NewClient(apiURL, auth, logger)
	svc := session.NewService(client, auth, shared, logger)

	return &app{
		shared:  shared,
		auth:    auth,
		svc:     svc,
		intents: intent.New(svc, auth, shared, logger),
		log:     logger,
	}, nil
}

func getenv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func main() {
	root := &cobra.Command{
		Use:           "sneuz",
		Short:         "Manual sleep tracking from the command line",
		SilenceUsage:  true,
		SilenceErrors: false,
	}

	root.AddCommand(
		newSignupCmd(),
		newLoginCmd(),
		newLogoutCmd(),
		newStartCmd(),
		newStopCmd(),
		newToggleCmd(),
		newStatusCmd(),
		newHistoryCmd(),
		newAddCmd(),
		newEditCmd(),
		newRemoveCmd(),
		newStatsCmd(),
		newExportCmd(),
		newRefreshCmd(),
	)

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}
