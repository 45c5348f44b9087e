package task

import (
	"context"
	"errors"

	mqcontract "github.com/Prabesh-Pandey/Task-Manager/contracts/mq"
	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
)

func (s *Service) save(ctx context.Context, task *model.Task) error {
	if err := s.tasks.Update(ctx, task); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Task not found")
		}
		return apperr.Internal(err)
	}
	return nil
}

// UpdateStatus writes status directly. Completed also completes every checklist
// item; any other status leaves progress and the checklist as they are.
func (s *Service) UpdateStatus(ctx context.Context, actor model.Actor, id int, status string) (t *model.TaskDetail, err error) {
	defer func() { s.record("update_status", err) }()

	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CanAccessTask(actor, task); err != nil {
		return nil, err
	}

	parsed, ok := model.ParseStatus(status)
	if !ok {
		return nil, apperr.Validation("Status must be Pending, In Progress or Completed")
	}
	task.ApplyStatus(parsed)

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, mqcontract.RoutingKeyTaskStatusUpdated, actor, task, nil)
	return s.detail(ctx, task)
}

// UpdateChecklist replaces the checklist wholesale and re-derives progress and status.
// The returned task is re-read after the write.
func (s *Service) UpdateChecklist(ctx context.Context, actor model.Actor, id int, items []model.TodoItem) (t *model.TaskDetail, err error) {
	defer func() { s.record("update_checklist", err) }()

	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CanAccessTask(actor, task); err != nil {
		return nil, err
	}
	if err := validateChecklist(items); err != nil {
		return nil, err
	}

	task.ApplyChecklist(items)
	if err := s.save(ctx, task); err != nil {
		return nil, err
	}
	s.afterWrite(ctx, mqcontract.RoutingKeyTaskChecklistUpdated, actor, task, nil)

	reloaded, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.detail(ctx, reloaded)
}
