package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"lexbridge/internal/adapter/dataplatform"
	"lexbridge/internal/adapter/host"
	"lexbridge/internal/domain"
	"lexbridge/internal/infra/config"
	"lexbridge/internal/usecase/matter"
)

func newMatterCmd(opts *rootOpts) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "matter",
		Short: "Work with matters on the data platform",
	}
	cmd.AddCommand(newMatterCreateCmd(opts), newMatterListCmd(opts), newMatterOpenCmd(opts))
	return cmd
}

func platformClient(cfg *config.Config, token string, log *slog.Logger) (*dataplatform.HTTPClient, error) {
	ttl, err := cfg.Platform.TTL()
	if err != nil {
		return nil, err
	}
	base := cfg.Platform.ResolveBaseURL(cfg.BFF.BaseURL)
	return dataplatform.NewHTTPClient(base, token, ttl, log), nil
}

func newMatterCreateCmd(opts *rootOpts) *cobra.Command {
	var (
		name         string
		clientName   string
		practiceArea string
		assignees    []string
		todos        []string
		files        []string
	)

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a matter with optional files, team and to-dos",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closeLog, token, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			client, err := platformClient(cfg, token, log)
			if err != nil {
				return err
			}

			draft := domain.MatterDraft{
				Name:         name,
				ClientName:   clientName,
				PracticeArea: practiceArea,
				Assignees:    assignees,
			}
			for _, todo := range todos {
				title, due, _ := strings.Cut(todo, "@")
				draft.Todos = append(draft.Todos, domain.TodoItem{
					Title:   strings.TrimSpace(title),
					DueDate: strings.TrimSpace(due),
				})
			}
			for _, path := range files {
				data, err := os.ReadFile(path)
				if err != nil {
					return fmt.Errorf("read file %s: %w", path, err)
				}
				draft.Files = append(draft.Files, domain.FileUpload{
					Name:        filepath.Base(path),
					ContentType: mime.TypeByExtension(filepath.Ext(path)),
					Data:        data,
				})
			}

			result := matter.NewService(client, client, log).CreateMatter(cmd.Context(), draft)
			switch result.Status {
			case domain.StatusError:
				return result.Err
			case domain.StatusPartial:
				fmt.Printf("matter %s created with warnings:\n", result.MatterID)
				for _, w := range result.Warnings {
					fmt.Printf("  - %s\n", w)
				}
			default:
				fmt.Printf("matter %s created\n", result.MatterID)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "matter name (required)")
	cmd.Flags().StringVar(&clientName, "client", "", "client name (required)")
	cmd.Flags().StringVar(&practiceArea, "practice-area", "", "practice area")
	cmd.Flags().StringArrayVar(&assignees, "assignee", nil, "user id to assign (repeatable)")
	cmd.Flags().StringArrayVar(&todos, "todo", nil, "to-do as title[@due-date] (repeatable)")
	cmd.Flags().StringArrayVar(&files, "file", nil, "file to attach (repeatable)")
	return cmd
}

func newMatterListCmd(opts *rootOpts) *cobra.Command {
	var (
		contains string
		area     string
		top      int
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List matters",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, closeLog, token, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			client, err := platformClient(cfg, token, log)
			if err != nil {
				return err
			}

			q := dataplatform.NewQuery().
				Select("name", "clientName", "practiceArea").
				OrderBy("createdon desc").
				Top(top)
			if contains != "" {
				q = q.FilterContains("name", contains)
			}
			if area != "" {
				q = q.FilterEq("practiceArea", area)
			}

			records, err := client.Query(cmd.Context(), "matters", q)
			if err != nil {
				return err
			}
			if len(records) == 0 {
				fmt.Println("no matters")
				return nil
			}
			for _, r := range records {
				fmt.Printf("%s  %v  (%v)\n", r.ID, r.Fields["name"], r.Fields["clientName"])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&contains, "contains", "", "filter matters whose name contains the value")
	cmd.Flags().StringVar(&area, "practice-area", "", "filter by practice area")
	cmd.Flags().IntVar(&top, "top", 25, "maximum number of matters")
	return cmd
}

// stdoutTransport writes navigation messages to stdout for the hosting shell
// to pick up. The CLI has no cross-window channel; the printed JSON is the
// same versioned message shape the embedded client posts.
type stdoutTransport struct{}

func (stdoutTransport) Post(msg host.NavigationMessage) error {
	return json.NewEncoder(os.Stdout).Encode(msg)
}

func newMatterOpenCmd(opts *rootOpts) *cobra.Command {
	return &cobra.Command{
		Use:   "open <matter-id>",
		Short: "Emit a host navigation message for a matter record",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, closeLog, _, err := loadEnv(opts)
			if err != nil {
				return err
			}
			defer closeLog()

			messenger := host.NewMessenger(stdoutTransport{}, "lexbridge-cli", log)
			return messenger.NavigateToRecord("matter", args[0])
		},
	}
}
