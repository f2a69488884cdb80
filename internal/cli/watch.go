package cli

import (
	"context"
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/strato-space/voicesync/internal/channel"
	"github.com/strato-space/voicesync/internal/config"
	"github.com/strato-space/voicesync/internal/db"
	"github.com/strato-space/voicesync/internal/logging"
	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/syncer"
	"github.com/strato-space/voicesync/internal/watchtui"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch <session-id>",
		Short: "Follow a session live in the terminal",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runWatch(cmd.Context(), cfg, args[0])
		},
	}
}

func runWatch(ctx context.Context, cfg *config.Config, sessionID string) error {
	logger := logging.Component("watch")

	if err := cfg.EnsureDirectories(); err != nil {
		return err
	}
	database, err := db.Open(cfg.CachePath(), cfg.Cache.BusyTimeoutMs)
	if err != nil {
		return err
	}
	defer database.Close()
	store := db.NewSnapshotStore(database)

	sync := syncer.New(models.Session{ID: sessionID})
	warmStart(ctx, store, sync, sessionID, logger)

	client, err := newBackendClient(cfg)
	if err != nil {
		return err
	}

	snapshot, err := client.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}
	sync.ReplaceAll(snapshot.Session, snapshot.Messages)

	addr, err := channelAddr(cfg, snapshot.ChannelPort)
	if err != nil {
		return err
	}
	events, err := channel.NewClient(channel.Config{
		Dialer:     &channel.TCPDialer{Addr: addr, Timeout: cfg.Channel.DialTimeout},
		Syncer:     sync,
		Rehydrator: client,
		Token:      snapshot.ChannelToken,
	})
	if err != nil {
		return err
	}
	if err := events.Connect(ctx); err != nil {
		return fmt.Errorf("failed to connect event channel: %w", err)
	}
	defer events.Disconnect()

	model := watchtui.New(sync, cfg.TUI.ShowTimestamps)
	if _, err := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run(); err != nil {
		if !errors.Is(err, tea.ErrProgramKilled) {
			return err
		}
	}

	// Persist what we saw so the next start is warm even offline.
	if err := store.SaveSnapshot(context.Background(), sync.Session(), sync.Messages()); err != nil {
		logger.Warn().Err(err).Msg("failed to save session snapshot")
	}
	return nil
}

// warmStart seeds the syncer from the cached snapshot, if one exists. The
// first rehydrate replaces it wholesale.
func warmStart(ctx context.Context, store *db.SnapshotStore, sync *syncer.Syncer, sessionID string, logger zerolog.Logger) {
	session, messages, err := store.LoadSnapshot(ctx, sessionID)
	if err != nil {
		if !errors.Is(err, db.ErrSnapshotNotFound) {
			logger.Warn().Err(err).Msg("failed to load cached snapshot")
		}
		return
	}
	patches := make([]models.MessagePatch, 0, len(messages))
	for _, message := range messages {
		patches = append(patches, message.Patch())
	}
	sync.ReplaceAll(session, patches)
	logger.Debug().Int("messages", len(patches)).Msg("warm start from cached snapshot")
}
