package main

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"lexbridge/internal/adapter/archive"
	"lexbridge/internal/domain"
	"lexbridge/internal/infra/config"
)

var (
	sessionIDStyle = lipgloss.NewStyle().Bold(true)
	sessionMeta    = lipgloss.NewStyle().Faint(true)
)

func newSessionsCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sessions",
		Short: "Browse locally archived transcripts",
	}
	cmd.AddCommand(newSessionsListCmd(opts), newSessionsShowCmd(opts))
	return cmd
}

func openArchive(opts *rootOpts) (*archive.Store, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}
	if !cfg.Archive.Enabled {
		return nil, fmt.Errorf("archive is disabled (set archive.enabled: true)")
	}
	return archive.Open(cfg.Archive.Path)
}

func newSessionsListCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List archived sessions",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			summaries, err := store.List(cmd.Context())
			if err != nil {
				return err
			}
			if len(summaries) == 0 {
				fmt.Println("no archived sessions")
				return nil
			}
			for _, s := range summaries {
				fmt.Printf("%s  %s\n",
					sessionIDStyle.Render(s.SessionID),
					sessionMeta.Render(fmt.Sprintf("%d messages, archived %s",
						s.Messages, s.ArchivedAt.Local().Format("2006-01-02 15:04"))),
				)
			}
			return nil
		},
	}
}

func newSessionsShowCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "show <session-id>",
		Short: "Print one archived transcript",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := openArchive(opts)
			if err != nil {
				return err
			}
			defer store.Close()

			messages, err := store.Load(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			for _, msg := range messages {
				label := "You"
				if msg.Role == domain.RoleAssistant {
					label = "Assistant"
				}
				fmt.Printf("%s  %s\n%s\n\n",
					sessionIDStyle.Render(label),
					sessionMeta.Render(msg.Timestamp.Local().Format("15:04:05")),
					msg.Content,
				)
			}
			return nil
		},
	}
}
