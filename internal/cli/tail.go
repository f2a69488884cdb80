package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/strato-space/voicesync/internal/channel"
	"github.com/strato-space/voicesync/internal/config"
	"github.com/strato-space/voicesync/internal/models"
	"github.com/strato-space/voicesync/internal/projection"
	"github.com/strato-space/voicesync/internal/syncer"
	"github.com/strato-space/voicesync/internal/timeline"
)

func newTailCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "tail <session-id>",
		Short: "Print projected rows as they arrive",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			return runTail(cmd.Context(), cfg, args[0])
		},
	}
}

func runTail(ctx context.Context, cfg *config.Config, sessionID string) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := newBackendClient(cfg)
	if err != nil {
		return err
	}
	snapshot, err := client.GetSession(ctx, sessionID)
	if err != nil {
		return fmt.Errorf("failed to load session %s: %w", sessionID, err)
	}

	sync := syncer.New(models.Session{ID: sessionID})
	printed := make(map[projection.RowKey]struct{})
	sync.OnChange(func() {
		for _, group := range sync.Groups() {
			for _, row := range group.Rows {
				key := row.Key()
				if _, seen := printed[key]; seen {
					continue
				}
				printed[key] = struct{}{}
				printRow(group, row)
			}
		}
	})
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

	<-ctx.Done()
	return nil
}

func printRow(group projection.Group, row projection.Row) {
	switch row.Kind {
	case projection.RowImage:
		fmt.Printf("%s  %-20s [image] %s\n", timeline.LabelSeconds(row.End), group.MessageID, row.ImageURI)
	default:
		speaker := row.Speaker
		if speaker == "" {
			speaker = row.Avatar
		}
		fmt.Printf("%s  %-20s %s: %s\n", timeline.LabelSeconds(row.End), group.MessageID, speaker, row.Text)
	}
}
