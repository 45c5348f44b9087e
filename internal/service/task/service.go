package task

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	mqcontract "github.com/Prabesh-Pandey/Task-Manager/contracts/mq"
	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/metrics"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/trace"
)

type TaskStore interface {
	Insert(ctx context.Context, t *model.Task) error
	FindByID(ctx context.Context, id int) (*model.Task, error)
	Update(ctx context.Context, t *model.Task) error
	Delete(ctx context.Context, id int) error
	List(ctx context.Context, f repository.TaskFilter) ([]model.Task, error)
	CountByStatus(ctx context.Context, f repository.TaskFilter) (map[model.Status]int, error)
	CountByPriority(ctx context.Context, f repository.TaskFilter) (map[model.Priority]int, error)
	CountOverdue(ctx context.Context, f repository.TaskFilter, now time.Time) (int, error)
	Recent(ctx context.Context, f repository.TaskFilter, limit int) ([]model.TaskSummary, error)
}

type UserLookup interface {
	FindByIDs(ctx context.Context, ids []int) ([]model.User, error)
	FindInDepartment(ctx context.Context, ids []int, department model.Department) ([]model.User, error)
}

type DashboardCache interface {
	Get(ctx context.Context, key string, out any) (bool, error)
	Set(ctx context.Context, key string, value any) error
	Invalidate(ctx context.Context, department model.Department, userIDs ...int) error
}

type EventEmitter interface {
	Emit(ctx context.Context, routingKey string, payload any)
}

type Service struct {
	tasks  TaskStore
	users  UserLookup
	cache  DashboardCache
	events EventEmitter
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the task service. cache may be nil, in which case dashboards are always computed.
func NewService(tasks TaskStore, users UserLookup, cache DashboardCache, events EventEmitter, logger *zap.Logger) *Service {
	return &Service{
		tasks:  tasks,
		users:  users,
		cache:  cache,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

func outcome(err error) string {
	if err == nil {
		return "success"
	}
	switch apperr.KindOf(err) {
	case apperr.KindValidation:
		return "invalid"
	case apperr.KindForbidden:
		return "forbidden"
	case apperr.KindNotFound:
		return "not_found"
	default:
		return "error"
	}
}

func (s *Service) record(operation string, err error) {
	metrics.IncrementTaskOperation(operation, outcome(err))
}

// load fetches a task, mapping a missing row to NotFound.
func (s *Service) load(ctx context.Context, id int) (*model.Task, error) {
	t, err := s.tasks.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("Task not found")
		}
		return nil, apperr.Internal(err)
	}
	return t, nil
}

// validateAssignees de-duplicates ids and checks every one resolves to a user of department.
func (s *Service) validateAssignees(ctx context.Context, ids []int, department model.Department) ([]int, error) {
	unique := dedupe(ids)
	if len(unique) == 0 {
		return nil, apperr.Validation("assignedTo must be a non-empty array of user IDs")
	}

	users, err := s.users.FindInDepartment(ctx, unique, department)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	if len(users) != len(unique) {
		return nil, apperr.Validation("All assigned users must belong to your department")
	}
	return unique, nil
}

func dedupe(ids []int) []int {
	seen := make(map[int]bool, len(ids))
	out := make([]int, 0, len(ids))
	for _, id := range ids {
		if id <= 0 || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}

// expand resolves the assignees of tasks to user summaries in one lookup.
func (s *Service) expand(ctx context.Context, tasks []model.Task, withDepartment bool) ([]model.TaskDetail, error) {
	var ids []int
	for i := range tasks {
		ids = append(ids, tasks[i].AssignedTo...)
	}

	users, err := s.users.FindByIDs(ctx, dedupe(ids))
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byID := make(map[int]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	details := make([]model.TaskDetail, 0, len(tasks))
	for _, t := range tasks {
		summaries := make([]model.UserSummary, 0, len(t.AssignedTo))
		for _, id := range t.AssignedTo {
			u, ok := byID[id]
			if !ok {
				continue
			}
			summary := u.Summary()
			if withDepartment {
				summary.Department = u.Department
			}
			summaries = append(summaries, summary)
		}
		details = append(details, model.TaskDetail{Task: t, AssignedTo: summaries})
	}
	return details, nil
}

func (s *Service) detail(ctx context.Context, t *model.Task) (*model.TaskDetail, error) {
	details, err := s.expand(ctx, []model.Task{*t}, true)
	if err != nil {
		return nil, err
	}
	return &details[0], nil
}

// afterWrite invalidates the affected dashboards and publishes the event for a successful mutation.
// Neither step can fail the request.
func (s *Service) afterWrite(ctx context.Context, routingKey string, actor model.Actor, t *model.Task, previousAssignees []int) {
	if s.cache != nil {
		affected := dedupe(append(append([]int{}, previousAssignees...), t.AssignedTo...))
		if err := s.cache.Invalidate(ctx, t.Department, affected...); err != nil {
			logger.WithTrace(ctx, s.logger).Warn("Failed to invalidate dashboard cache",
				zap.Int("task_id", t.ID),
				zap.Error(err),
			)
		}
	}

	if s.events != nil {
		s.events.Emit(ctx, routingKey, mqcontract.TaskEventPayload{
			TaskID:     t.ID,
			Title:      t.Title,
			Department: string(t.Department),
			ActorID:    actor.ID,
			AssignedTo: t.AssignedTo,
			Status:     string(t.Status),
			Progress:   t.Progress,
			TraceID:    trace.FromContext(ctx),
			OccurredAt: s.now().UTC(),
		})
	}
}
