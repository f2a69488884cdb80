package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/strato-space/voicesync/internal/db"
	"github.com/strato-space/voicesync/internal/projection"
	"github.com/strato-space/voicesync/internal/timeline"
)

func newSnapshotCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "snapshot",
		Short: "Inspect locally cached session snapshots",
	}
	cmd.AddCommand(
		newSnapshotListCmd(),
		newSnapshotShowCmd(),
		newSnapshotDeleteCmd(),
	)
	return cmd
}

func openStore(cmd *cobra.Command) (*db.SnapshotStore, func(), error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, nil, err
	}
	database, err := db.Open(cfg.CachePath(), cfg.Cache.BusyTimeoutMs)
	if err != nil {
		return nil, nil, err
	}
	return db.NewSnapshotStore(database), func() { database.Close() }, nil
}

func newSnapshotListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			sessions, err := store.Sessions(cmd.Context())
			if err != nil {
				return err
			}
			if len(sessions) == 0 {
				fmt.Println("no cached sessions")
				return nil
			}
			for _, session := range sessions {
				state := "closed"
				if session.IsActive {
					state = "live"
				}
				updated := ""
				if session.UpdatedAt > 0 {
					updated = time.Unix(int64(session.UpdatedAt), 0).Format(time.RFC3339)
				}
				fmt.Printf("%-24s %-8s %-20s %s\n", session.ID, state, session.Name, updated)
			}
			return nil
		},
	}
}

func newSnapshotShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print the projected transcript of a cached session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()

			session, messages, err := store.LoadSnapshot(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			groups := projection.Transform(messages)
			projection.SortGroups(groups, projection.DefaultAscending(session), session.Source, func(g projection.Group) string {
				return g.MessageID
			})
			fmt.Printf("%s (%d messages, %d groups)\n", session.Name, len(messages), len(groups))
			for _, group := range groups {
				fmt.Println(group.MessageID)
				if group.Summary != "" {
					fmt.Printf("  summary: %s\n", group.Summary)
				}
				for _, row := range group.Rows {
					switch row.Kind {
					case projection.RowImage:
						fmt.Printf("  [image] %s\n", row.ImageURI)
					default:
						fmt.Printf("  %s-%s %s: %s\n",
							timeline.LabelSeconds(row.Start), timeline.LabelSeconds(row.End), row.Avatar, row.Text)
					}
				}
			}
			return nil
		},
	}
}

func newSnapshotDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Drop a cached session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, closeDB, err := openStore(cmd)
			if err != nil {
				return err
			}
			defer closeDB()
			return store.DeleteSession(cmd.Context(), args[0])
		},
	}
}
