package user

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	mqcontract "github.com/Prabesh-Pandey/Task-Manager/contracts/mq"
	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/trace"
)

type UserStore interface {
	FindByID(ctx context.Context, id int) (*model.User, error)
	ListMembers(ctx context.Context, department model.Department) ([]model.User, error)
	Delete(ctx context.Context, id int) error
}

type TaskCounter interface {
	CountByAssignee(ctx context.Context, department model.Department, userIDs []int) (map[int]map[model.Status]int, error)
}

type CacheInvalidator interface {
	Invalidate(ctx context.Context, department model.Department, userIDs ...int) error
}

type EventEmitter interface {
	Emit(ctx context.Context, routingKey string, payload any)
}

// WithTaskCounts is a member of the department together with the number of
// tasks assigned to them in each status.
type WithTaskCounts struct {
	model.User
	PendingTasks    int `json:"pendingTasks"`
	InProgressTasks int `json:"inProgressTasks"`
	CompletedTasks  int `json:"completedTasks"`
}

type Service struct {
	users  UserStore
	tasks  TaskCounter
	cache  CacheInvalidator
	events EventEmitter
	logger *zap.Logger
	now    func() time.Time
}

// NewService wires the user service. cache may be nil.
func NewService(users UserStore, tasks TaskCounter, cache CacheInvalidator, events EventEmitter, logger *zap.Logger) *Service {
	return &Service{
		users:  users,
		tasks:  tasks,
		cache:  cache,
		events: events,
		logger: logger,
		now:    time.Now,
	}
}

// List returns the members of the admin's department with their task counts.
func (s *Service) List(ctx context.Context, actor model.Actor) ([]WithTaskCounts, error) {
	if err := rbac.CheckPermission(actor, rbac.PermissionListUsers); err != nil {
		return nil, err
	}

	members, err := s.users.ListMembers(ctx, actor.Department)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	ids := make([]int, 0, len(members))
	for _, m := range members {
		ids = append(ids, m.ID)
	}
	counts, err := s.tasks.CountByAssignee(ctx, actor.Department, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	out := make([]WithTaskCounts, 0, len(members))
	for _, m := range members {
		c := counts[m.ID]
		out = append(out, WithTaskCounts{
			User:            m,
			PendingTasks:    c[model.StatusPending],
			InProgressTasks: c[model.StatusInProgress],
			CompletedTasks:  c[model.StatusCompleted],
		})
	}
	return out, nil
}

func (s *Service) load(ctx context.Context, id int) (*model.User, error) {
	u, err := s.users.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperr.NotFound("User not found")
		}
		return nil, apperr.Internal(err)
	}
	return u, nil
}

func (s *Service) Get(ctx context.Context, actor model.Actor, id int) (*model.User, error) {
	u, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := rbac.CanReadUser(actor, u); err != nil {
		return nil, err
	}
	return u, nil
}

// Delete removes a user of the admin's department and drops them from every
// task assignment.
func (s *Service) Delete(ctx context.Context, actor model.Actor, id int) error {
	u, err := s.load(ctx, id)
	if err != nil {
		return err
	}
	if err := rbac.CanDeleteUser(actor, u); err != nil {
		return err
	}

	if err := s.users.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperr.NotFound("User not found")
		}
		return apperr.Internal(err)
	}

	log := logger.WithTrace(ctx, s.logger)
	log.Info("User deleted", zap.Int("user_id", id), zap.Int("actor_id", actor.ID))

	if s.cache != nil && u.Department != nil {
		if err := s.cache.Invalidate(ctx, *u.Department, u.ID); err != nil {
			log.Warn("Failed to invalidate dashboard cache", zap.Int("user_id", id), zap.Error(err))
		}
	}

	if s.events != nil {
		payload := mqcontract.UserEventPayload{
			UserID:     u.ID,
			Email:      u.Email,
			Role:       string(u.Role),
			ActorID:    actor.ID,
			TraceID:    trace.FromContext(ctx),
			OccurredAt: s.now().UTC(),
		}
		if u.Department != nil {
			payload.Department = string(*u.Department)
		}
		s.events.Emit(ctx, mqcontract.RoutingKeyUserDeleted, payload)
	}
	return nil
}
