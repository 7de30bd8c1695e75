package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"lexbridge/internal/adapter/archive"
	"lexbridge/internal/adapter/bff"
	"lexbridge/internal/adapter/tui"
	"lexbridge/internal/domain"
	"lexbridge/internal/infra/config"
	"lexbridge/internal/infra/tracer"
	"lexbridge/internal/usecase/actions"
	"lexbridge/internal/usecase/bridge"
	"lexbridge/internal/usecase/chat"
)

func newChatCmd(opts *rootOpts) *cobra.Command {
	var (
		documentID   string
		documentPath string
		playbookID   string
	)

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the two-pane chat/document workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closeLog, token, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			ctx := cmd.Context()
			shutdownTracer, err := tracer.Setup(ctx, cfg.Tracer)
			if err != nil {
				return err
			}
			defer shutdownTracer(context.Background())

			if documentPath == "" {
				documentPath = cfg.TUI.DocumentPath
			}
			document := ""
			if documentPath != "" {
				data, err := os.ReadFile(documentPath)
				if err != nil {
					return fmt.Errorf("read document: %w", err)
				}
				document = string(data)
			}

			client := bff.NewClient(cfg.BFF.BaseURL, token, log)
			stream := bff.NewStreamClient(client, log)
			manager := chat.NewManager(client, stream, log)
			bus := bridge.New(log)
			defer bus.Close()

			if err := manager.CreateSession(ctx); err != nil {
				return err
			}
			// Session teardown mirrors component unmount.
			defer func() {
				if err := manager.DeleteSession(context.Background()); err != nil {
					log.Warn("session teardown failed", "error", err)
				}
			}()

			if playbookID == "" {
				playbookID = cfg.TUI.PlaybookID
			}
			if documentID != "" || playbookID != "" {
				sc := domain.SessionContext{
					DocumentID: documentID,
					PlaybookID: playbookID,
					HostContext: domain.HostContext{
						EntityType: "document",
						EntityID:   documentID,
					},
				}
				if err := manager.SwitchContext(ctx, sc); err != nil {
					log.Warn("context switch failed", "error", err)
				}
			}

			app := tui.NewApp(tui.Deps{
				Manager:    manager,
				Stream:     stream,
				Bus:        bus,
				Actions:    actions.NewCache(client),
				DocumentID: documentID,
				Document:   document,
				Markdown:   cfg.TUI.Markdown,
				Logger:     log,
			})
			defer app.Close()

			if _, err := tea.NewProgram(app, tea.WithAltScreen()).Run(); err != nil {
				return err
			}

			return archiveTranscript(cfg, log, manager)
		},
	}

	cmd.Flags().StringVar(&documentID, "document", "", "document id for session context")
	cmd.Flags().StringVar(&documentPath, "document-file", "", "local file shown in the document pane")
	cmd.Flags().StringVar(&playbookID, "playbook", "", "playbook id for session context")
	return cmd
}

func archiveTranscript(cfg *config.Config, log *slog.Logger, manager *chat.Manager) error {
	if !cfg.Archive.Enabled {
		return nil
	}
	session := manager.Session()
	messages := manager.Messages()
	if session == nil || len(messages) == 0 {
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.Archive.Path), 0700); err != nil {
		return err
	}
	store, err := archive.Open(cfg.Archive.Path)
	if err != nil {
		return err
	}
	defer store.Close()

	if err := store.Save(context.Background(), *session, messages); err != nil {
		return err
	}
	log.Info("transcript archived", "session", session.ID, "messages", len(messages))
	return nil
}
