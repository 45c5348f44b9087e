package task

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"

	mqcontract "github.com/Prabesh-Pandey/Task-Manager/contracts/mq"
	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
)

type StatusSummary struct {
	All             int `json:"all"`
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	CompletedTasks  int `json:"completedTasks"`
}

type ListResult struct {
	Tasks         []model.TaskListItem `json:"tasks"`
	StatusSummary StatusSummary        `json:"statusSummary"`
}

// scope is the visibility filter of actor: its department, narrowed to its
// own assignments unless it is an admin.
func scope(actor model.Actor) repository.TaskFilter {
	f := repository.TaskFilter{Department: actor.Department}
	if !actor.IsAdmin() {
		f.AssigneeID = actor.ID
	}
	return f
}

// List returns the tasks visible to actor, optionally narrowed by status.
// The summary always counts the whole visible scope regardless of the status filter.
func (s *Service) List(ctx context.Context, actor model.Actor, status string) (*ListResult, error) {
	filter := scope(actor)
	if status != "" {
		parsed, ok := model.ParseStatus(status)
		if !ok {
			return nil, apperr.Validation("Invalid status filter")
		}
		filter.Status = parsed
	}

	tasks, err := s.tasks.List(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	details, err := s.expand(ctx, tasks, false)
	if err != nil {
		return nil, err
	}

	counts, err := s.tasks.CountByStatus(ctx, filter.WithoutStatus())
	if err != nil {
		return nil, apperr.Internal(err)
	}

	all := 0
	for _, n := range counts {
		all += n
	}

	items := make([]model.TaskListItem, 0, len(details))
	for _, d := range details {
		items = append(items, model.TaskListItem{
			TaskDetail:         d,
			CompletedTodoCount: d.CompletedCount(),
		})
	}

	return &ListResult{
		Tasks: items,
		StatusSummary: StatusSummary{
			All:             all,
			PendingTasks:    counts[model.StatusPending],
			InProgressTasks: counts[model.StatusInProgress],
			CompletedTasks:  counts[model.StatusCompleted],
		},
	}, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id int) (*model.TaskDetail, error) {
	t, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CanAccessTask(actor, t); err != nil {
		return nil, err
	}
	return s.detail(ctx, t)
}

type CreateInput struct {
	Title         string
	Description   string
	Priority      string
	DueDate       *time.Time
	AssignedTo    []int
	Attachments   []string
	TodoChecklist []model.TodoItem
}

func validateChecklist(items []model.TodoItem) error {
	for _, item := range items {
		if strings.TrimSpace(item.Text) == "" {
			return apperr.Validation("Checklist items need a text")
		}
	}
	return nil
}

// Create stores a new task in the admin's department. Nothing is written when
// any assignee is outside that department.
func (s *Service) Create(ctx context.Context, actor model.Actor, in CreateInput) (t *model.TaskDetail, err error) {
	defer func() { s.record("create", err) }()

	if err := rbac.CanCreateTask(actor); err != nil {
		return nil, err
	}

	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperr.Validation("Title is required")
	}
	if in.DueDate == nil || in.DueDate.IsZero() {
		return nil, apperr.Validation("Due date is required")
	}

	priority := model.PriorityMedium
	if in.Priority != "" {
		p, ok := model.ParsePriority(in.Priority)
		if !ok {
			return nil, apperr.Validation("Priority must be low, medium or high")
		}
		priority = p
	}
	if err := validateChecklist(in.TodoChecklist); err != nil {
		return nil, err
	}

	assignees, err := s.validateAssignees(ctx, in.AssignedTo, actor.Department)
	if err != nil {
		return nil, err
	}

	task := &model.Task{
		Title:       title,
		Description: in.Description,
		Priority:    priority,
		DueDate:     *in.DueDate,
		AssignedTo:  assignees,
		CreatedBy:   actor.ID,
		Department:  actor.Department,
		Attachments: in.Attachments,
	}
	if task.Attachments == nil {
		task.Attachments = []string{}
	}
	task.ApplyChecklist(in.TodoChecklist)

	if err := s.tasks.Insert(ctx, task); err != nil {
		return nil, apperr.Internal(err)
	}

	logger.WithTrace(ctx, s.logger).Info("Task created",
		zap.Int("task_id", task.ID),
		zap.Int("created_by", actor.ID),
		zap.String("department", string(task.Department)),
		zap.Ints("assigned_to", task.AssignedTo),
	)
	s.afterWrite(ctx, mqcontract.RoutingKeyTaskCreated, actor, task, nil)

	return s.detail(ctx, task)
}

// UpdatePatch carries the fields to change; nil means "leave unchanged".
type UpdatePatch struct {
	Title         *string
	Description   *string
	Priority      *string
	DueDate       *time.Time
	AssignedTo    *[]int
	Attachments   *[]string
	TodoChecklist *[]model.TodoItem
}

// Update merges patch into the task. A new checklist re-derives progress and
// status; new assignees are validated against the task's department.
func (s *Service) Update(ctx context.Context, actor model.Actor, id int, patch UpdatePatch) (t *model.TaskDetail, err error) {
	defer func() { s.record("update", err) }()

	task, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CanAccessTask(actor, task); err != nil {
		return nil, err
	}
	previous := append([]int{}, task.AssignedTo...)

	if patch.Title != nil {
		title := strings.TrimSpace(*patch.Title)
		if title == "" {
			return nil, apperr.Validation("Title cannot be empty")
		}
		task.Title = title
	}
	if patch.Description != nil {
		task.Description = *patch.Description
	}
	if patch.Priority != nil {
		p, ok := model.ParsePriority(*patch.Priority)
		if !ok {
			return nil, apperr.Validation("Priority must be low, medium or high")
		}
		task.Priority = p
	}
	if patch.DueDate != nil {
		if patch.DueDate.IsZero() {
			return nil, apperr.Validation("Due date cannot be empty")
		}
		task.DueDate = *patch.DueDate
	}
	if patch.Attachments != nil {
		task.Attachments = *patch.Attachments
		if task.Attachments == nil {
			task.Attachments = []string{}
		}
	}
	if patch.TodoChecklist != nil {
		if err := validateChecklist(*patch.TodoChecklist); err != nil {
			return nil, err
		}
		task.ApplyChecklist(*patch.TodoChecklist)
	}
	if patch.AssignedTo != nil {
		assignees, err := s.validateAssignees(ctx, *patch.AssignedTo, task.Department)
		if err != nil {
			return nil, err
		}
		task.AssignedTo = assignees
	}

	if err := s.save(ctx, task); err != nil {
		return nil, err
	}

	s.afterWrite(ctx, mqcontract.RoutingKeyTaskUpdated, actor, task, previous)
	return s.detail(ctx, task)
}

func (s *Service) Delete(ctx context.Context, actor model.Actor, id int) (err error) {
	defer func() { s.record("delete", err) }()

	task, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.CanDeleteTask(actor, task); err != nil {
		return err
	}

	if err := s.tasks.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("Task not found")
		}
		return apperr.Internal(err)
	}

	logger.WithTrace(ctx, s.logger).Info("Task deleted", zap.Int("task_id", id), zap.Int("actor_id", actor.ID))
	s.afterWrite(ctx, mqcontract.RoutingKeyTaskDeleted, actor, task, nil)
	return nil
}
