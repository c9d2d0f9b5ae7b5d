package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/agenthub/agenthub/internal/events"
	"github.com/agenthub/agenthub/internal/events/bus"
	"github.com/agenthub/agenthub/internal/hub/models"
	"github.com/agenthub/agenthub/internal/hub/store"
)

// CreateTaskInput carries the fields of a task creation.
type CreateTaskInput struct {
	RoomName    string `json:"roomName"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Assignee    string `json:"assignee"`
	Creator     string `json:"creator"`
	Priority    string `json:"priority"`
}

// CreateTask creates a task in status todo and publishes a task event.
func (s *Service) CreateTask(ctx context.Context, in CreateTaskInput) (*models.Task, error) {
	if in.RoomName == "" || in.Title == "" || in.Creator == "" {
		return nil, fmt.Errorf("%w: roomName, title, and creator are required", ErrValidation)
	}
	if !s.state.RoomExists(in.RoomName) {
		return nil, store.ErrRoomNotFound
	}

	priority := models.TaskPriorityMedium
	if in.Priority != "" {
		priority = models.TaskPriority(in.Priority)
		if !models.ValidPriority(priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, in.Priority)
		}
	}

	now := time.Now().UTC()
	task := &models.Task{
		ID:          uuid.New().String(),
		Room:        in.RoomName,
		Title:       in.Title,
		Description: in.Description,
		Assignee:    in.Assignee,
		Creator:     in.Creator,
		Priority:    priority,
		Status:      models.TaskStatusTodo,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.InsertTask(ctx, task); err != nil {
		return nil, err
	}

	s.publishTask(ctx, events.TaskCreated, "created", task)
	s.logger.Info("Task created",
		zap.String("room", task.Room),
		zap.String("task_id", task.ID),
		zap.String("title", task.Title))
	return task, nil
}

// UpdateTaskInput carries a partial task update; nil fields are untouched.
type UpdateTaskInput struct {
	Status   *string `json:"status"`
	Assignee *string `json:"assignee"`
	Priority *string `json:"priority"`
}

// UpdateTask merges a partial update into a task, refreshes updatedAt, and
// publishes a task event.
func (s *Service) UpdateTask(ctx context.Context, taskID string, in UpdateTaskInput) (*models.Task, error) {
	task, err := s.store.GetTask(ctx, taskID)
	if err != nil {
		return nil, err
	}

	if in.Status != nil {
		status := models.TaskStatus(*in.Status)
		if !models.ValidStatus(status) {
			return nil, fmt.Errorf("%w: unknown status %q", ErrValidation, *in.Status)
		}
		task.Status = status
	}
	if in.Assignee != nil {
		task.Assignee = *in.Assignee
	}
	if in.Priority != nil {
		priority := models.TaskPriority(*in.Priority)
		if !models.ValidPriority(priority) {
			return nil, fmt.Errorf("%w: unknown priority %q", ErrValidation, *in.Priority)
		}
		task.Priority = priority
	}
	task.UpdatedAt = time.Now().UTC()

	if err := s.store.UpdateTask(ctx, task); err != nil {
		return nil, err
	}

	s.publishTask(ctx, events.TaskUpdated, "updated", task)
	return task, nil
}

// ListTasks returns a room's tasks newest-first.
func (s *Service) ListTasks(ctx context.Context, room string) ([]*models.Task, error) {
	if !s.state.RoomExists(room) {
		return nil, store.ErrRoomNotFound
	}
	return s.store.ListTasks(ctx, room, "")
}

// publishTask emits a task event whose payload carries the change kind, so
// push sessions can tell creations from updates.
func (s *Service) publishTask(ctx context.Context, eventType, kind string, task *models.Task) {
	event := bus.NewEvent(eventType, "api", map[string]interface{}{
		"type": kind,
		"task": task,
	})
	if err := s.eventBus.Publish(ctx, events.RoomTaskSubject(task.Room), event); err != nil {
		s.logger.Warn("Failed to publish task event",
			zap.String("room", task.Room),
			zap.String("task_id", task.ID),
			zap.Error(err))
	}
}
