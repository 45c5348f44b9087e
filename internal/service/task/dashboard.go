package task

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/cache"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
)

const recentTaskLimit = 10

type Statistics struct {
	TotalTasks     int `json:"totalTasks"`
	PendingTasks   int `json:"pendingTasks"`
	CompletedTasks int `json:"completedTasks"`
	OverdueTasks   int `json:"overdueTasks"`
}

// Charts always carries every status and priority key, zero when absent.
type Charts struct {
	TaskDistribution   map[string]int `json:"taskDistribution"`
	TaskPriorityLevels map[string]int `json:"taskPriorityLevels"`
}

type Dashboard struct {
	Statistics  Statistics          `json:"statistics"`
	Charts      Charts              `json:"charts"`
	RecentTasks []model.TaskSummary `json:"recentTasks"`
}

// Dashboard aggregates every task of the admin's department.
func (s *Service) Dashboard(ctx context.Context, actor model.Actor) (*Dashboard, error) {
	if err := rbac.CheckPermission(actor, rbac.PermissionDepartmentDashboard); err != nil {
		return nil, err
	}
	filter := repository.TaskFilter{Department: actor.Department}
	return s.cachedDashboard(ctx, cache.DepartmentKey(actor.Department), filter)
}

// UserDashboard aggregates the tasks assigned to actor within its department.
func (s *Service) UserDashboard(ctx context.Context, actor model.Actor) (*Dashboard, error) {
	filter := repository.TaskFilter{Department: actor.Department, AssigneeID: actor.ID}
	return s.cachedDashboard(ctx, cache.UserKey(actor.Department, actor.ID), filter)
}

func (s *Service) cachedDashboard(ctx context.Context, key string, filter repository.TaskFilter) (*Dashboard, error) {
	log := logger.WithTrace(ctx, s.logger)

	if s.cache != nil {
		var cached Dashboard
		hit, err := s.cache.Get(ctx, key, &cached)
		if err != nil {
			log.Warn("Dashboard cache read failed", zap.String("key", key), zap.Error(err))
		}
		if hit {
			return &cached, nil
		}
	}

	d, err := s.buildDashboard(ctx, filter)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.Set(ctx, key, d); err != nil {
			log.Warn("Dashboard cache write failed", zap.String("key", key), zap.Error(err))
		}
	}
	return d, nil
}

// distributionKey renders "In Progress" as "InProgress".
func distributionKey(status model.Status) string {
	return strings.ReplaceAll(string(status), " ", "")
}

func (s *Service) buildDashboard(ctx context.Context, filter repository.TaskFilter) (*Dashboard, error) {
	byStatus, err := s.tasks.CountByStatus(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byPriority, err := s.tasks.CountByPriority(ctx, filter)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	overdue, err := s.tasks.CountOverdue(ctx, filter, s.now())
	if err != nil {
		return nil, apperr.Internal(err)
	}
	recent, err := s.tasks.Recent(ctx, filter, recentTaskLimit)
	if err != nil {
		return nil, apperr.Internal(err)
	}

	total := 0
	for _, n := range byStatus {
		total += n
	}

	distribution := make(map[string]int, len(model.Statuses)+1)
	for _, status := range model.Statuses {
		distribution[distributionKey(status)] = byStatus[status]
	}
	distribution["All"] = total

	priorities := make(map[string]int, len(model.Priorities))
	for _, p := range model.Priorities {
		priorities[string(p)] = byPriority[p]
	}

	return &Dashboard{
		Statistics: Statistics{
			TotalTasks:     total,
			PendingTasks:   byStatus[model.StatusPending],
			CompletedTasks: byStatus[model.StatusCompleted],
			OverdueTasks:   overdue,
		},
		Charts: Charts{
			TaskDistribution:   distribution,
			TaskPriorityLevels: priorities,
		},
		RecentTasks: recent,
	}, nil
}
