// Package matter implements the create-matter intake flow: one primary
// record-creation step followed by best-effort follow-on steps.
package matter

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"lexbridge/internal/adapter/dataplatform"
	"lexbridge/internal/domain"
)

// matterEntity is the platform entity name for matters.
const matterEntity = "matters"

// Service runs the matter intake flow against the data platform.
//
// Failure policy is three-tier and must stay that way: a validation or
// primary-step failure is fatal (StatusError, no follow-on steps attempted);
// a follow-on step failure is downgraded to a warning on an overall partial
// success; a clean run is StatusOK. A follow-on step never fails the primary
// operation.
type Service struct {
	records dataplatform.RecordClient
	files   dataplatform.FileClient
	logger  *slog.Logger
}

// NewService creates the intake service.
func NewService(records dataplatform.RecordClient, files dataplatform.FileClient, logger *slog.Logger) *Service {
	return &Service{records: records, files: files, logger: logger}
}

// CreateMatter validates the draft, creates the matter record, then runs the
// follow-on steps (file uploads, team assignment, to-do seeding). The result
// is a discriminated success/partial/error value; this method never panics
// and only returns through the result.
func (s *Service) CreateMatter(ctx context.Context, draft domain.MatterDraft) domain.MatterIntakeResult {
	if err := validate(draft); err != nil {
		return domain.MatterIntakeResult{Status: domain.StatusError, Err: err}
	}

	fields := map[string]any{
		"name":       draft.Name,
		"clientName": draft.ClientName,
	}
	if draft.PracticeArea != "" {
		fields["practiceArea"] = draft.PracticeArea
	}

	matterID, err := s.records.Create(ctx, matterEntity, fields)
	if err != nil {
		return domain.MatterIntakeResult{
			Status: domain.StatusError,
			Err:    domain.WrapOp("matter.Create", err),
		}
	}

	var warnings []string
	warnings = append(warnings, s.uploadFiles(ctx, matterID, draft.Files)...)
	warnings = append(warnings, s.assignTeam(ctx, matterID, draft.Assignees)...)
	warnings = append(warnings, s.seedTodos(ctx, matterID, draft.Todos)...)

	status := domain.StatusOK
	if len(warnings) > 0 {
		status = domain.StatusPartial
	}
	s.logger.Info("matter created",
		"matter", matterID,
		"status", string(status),
		"warnings", len(warnings),
	)
	return domain.MatterIntakeResult{Status: status, MatterID: matterID, Warnings: warnings}
}

// validate rejects bad drafts locally, before any network call.
func validate(draft domain.MatterDraft) error {
	if strings.TrimSpace(draft.Name) == "" {
		return domain.NewDomainError("matter.validate", domain.ErrInvalidInput, "matter name is required")
	}
	if strings.TrimSpace(draft.ClientName) == "" {
		return domain.NewDomainError("matter.validate", domain.ErrInvalidInput, "client name is required")
	}
	return nil
}

func (s *Service) uploadFiles(ctx context.Context, matterID string, files []domain.FileUpload) []string {
	var warnings []string
	for _, f := range files {
		if err := s.files.Upload(ctx, matterEntity, matterID, f.Name, f.ContentType, f.Data); err != nil {
			warnings = append(warnings, fmt.Sprintf("file upload %q failed: %v", f.Name, err))
		}
	}
	return warnings
}

func (s *Service) assignTeam(ctx context.Context, matterID string, assignees []string) []string {
	if len(assignees) == 0 {
		return nil
	}
	if err := s.records.Update(ctx, matterEntity, matterID, map[string]any{"assignees": assignees}); err != nil {
		return []string{fmt.Sprintf("team assignment failed: %v", err)}
	}
	return nil
}

func (s *Service) seedTodos(ctx context.Context, matterID string, todos []domain.TodoItem) []string {
	var warnings []string
	for _, todo := range todos {
		if strings.TrimSpace(todo.Title) == "" {
			warnings = append(warnings, "to-do skipped: empty title")
			continue
		}
		fields := map[string]any{
			"title":    todo.Title,
			"matterId": matterID,
		}
		if todo.DueDate != "" {
			fields["dueDate"] = todo.DueDate
		}
		if _, err := s.records.Create(ctx, "todos", fields); err != nil {
			warnings = append(warnings, fmt.Sprintf("to-do %q failed: %v", todo.Title, err))
		}
	}
	return warnings
}
