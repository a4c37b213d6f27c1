package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"

	"github.com/postlane/postlane/internal/models"
	"github.com/postlane/postlane/internal/repository"
	"github.com/postlane/postlane/internal/transfer"
)

// EventService is the audit sink. LogEvent is fire-and-forget: a failed
// write is logged and swallowed, never surfaced to the pipeline.
type EventService interface {
	LogEvent(ctx context.Context, e transfer.Event)
	List(ctx context.Context, workspaceID string, limit int) ([]*models.EventLog, error)
}

type eventService struct {
	er repository.EventRepository
}

func NewEventService(er repository.EventRepository) EventService {
	return &eventService{er: er}
}

func (s *eventService) LogEvent(ctx context.Context, e transfer.Event) {
	level := e.Level
	if level == "" {
		level = models.LogLevelInfo
	}

	record := models.EventLog{
		WorkspaceID: e.WorkspaceID,
		PostID:      nullString(e.PostID),
		ChannelID:   nullString(e.ChannelID),
		UserID:      nullString(e.UserID),
		Level:       level,
		Action:      e.Action,
		Message:     e.Message,
	}

	if e.Details != nil {
		if details, err := json.Marshal(e.Details); err == nil {
			record.DetailsJSON = sql.NullString{String: string(details), Valid: true}
		}
	}

	if err := s.er.Create(ctx, &record); err != nil {
		slog.Warn("failed to write event log", "action", e.Action, "error", err)
	}
}

func (s *eventService) List(ctx context.Context, workspaceID string, limit int) ([]*models.EventLog, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	return s.er.ListByWorkspace(ctx, workspaceID, limit)
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
