// Package cli implements the voicesync command line interface.
package cli

import (
	"fmt"
	"net"

	"github.com/spf13/cobra"

	"github.com/strato-space/voicesync/internal/api"
	"github.com/strato-space/voicesync/internal/config"
	"github.com/strato-space/voicesync/internal/logging"
)

// Execute runs the root command.
func Execute(version string) error {
	return newRootCmd(version).Execute()
}

func newRootCmd(version string) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "voicesync",
		Short:         "Live viewer and cache for voice session transcripts",
		Long:          "voicesync follows a voice session's message stream, keeps a deduplicated transcript projection, and caches snapshots for offline inspection.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Version:       version,
	}
	cmd.PersistentFlags().String("config", "", "Config file path")
	cmd.PersistentFlags().String("backend", "", "Backend address (host:port)")

	cmd.AddCommand(
		newWatchCmd(),
		newTailCmd(),
		newSnapshotCmd(),
	)

	return cmd
}

// loadConfig loads configuration honoring the --config and --backend flags
// and initializes logging from it.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	loader := config.NewLoader()
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		loader.SetConfigFile(path)
	}
	if addr, _ := cmd.Flags().GetString("backend"); addr != "" {
		loader.Set("backend.addr", addr)
	}

	cfg, err := loader.Load()
	if err != nil {
		return nil, err
	}

	logging.Init(logging.Config{
		Level:        cfg.Logging.Level,
		Format:       cfg.Logging.Format,
		EnableCaller: cfg.Logging.EnableCaller,
	})
	return cfg, nil
}

func newBackendClient(cfg *config.Config) (*api.Client, error) {
	return api.NewClient(api.Config{
		Addr:        cfg.Backend.Addr,
		DialTimeout: cfg.Backend.DialTimeout,
	})
}

// channelAddr resolves the event channel address: an explicit channel.addr
// wins; otherwise the backend host is combined with the snapshot's port.
func channelAddr(cfg *config.Config, port int) (string, error) {
	if cfg.Channel.Addr != "" {
		return cfg.Channel.Addr, nil
	}
	host, _, err := net.SplitHostPort(cfg.Backend.Addr)
	if err != nil {
		return "", fmt.Errorf("cannot derive channel host from backend.addr: %w", err)
	}
	if port <= 0 {
		return "", fmt.Errorf("session snapshot carries no channel port; set channel.addr")
	}
	return net.JoinHostPort(host, fmt.Sprint(port)), nil
}
