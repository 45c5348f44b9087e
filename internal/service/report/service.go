// Package report renders department tasks and members as .xlsx workbooks.
package report

import (
	"context"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/rbac"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
)

const (
	TasksSheet = "Tasks Report"
	UsersSheet = "User Task Report"

	dueDateLayout = "2006-01-02"
)

var (
	taskHeader = []any{"Task ID", "Title", "Description", "Priority", "Status", "Due Date", "Assigned To", "Progress"}
	userHeader = []any{"User Name", "Email", "Total Assigned", "Pending", "In Progress", "Completed"}
)

type TaskStore interface {
	List(ctx context.Context, f repository.TaskFilter) ([]model.Task, error)
	CountByAssignee(ctx context.Context, department model.Department, userIDs []int) (map[int]map[model.Status]int, error)
}

type UserStore interface {
	FindByIDs(ctx context.Context, ids []int) ([]model.User, error)
	ListMembers(ctx context.Context, department model.Department) ([]model.User, error)
}

type Service struct {
	tasks  TaskStore
	users  UserStore
	logger *zap.Logger
}

func NewService(tasks TaskStore, users UserStore, logger *zap.Logger) *Service {
	return &Service{tasks: tasks, users: users, logger: logger}
}

// ExportTasks writes every task of the admin's department, newest first.
func (s *Service) ExportTasks(ctx context.Context, actor model.Actor) ([]byte, error) {
	if err := rbac.CheckPermission(actor, rbac.PermissionExportReport); err != nil {
		return nil, err
	}

	tasks, err := s.tasks.List(ctx, repository.TaskFilter{Department: actor.Department})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	var ids []int
	for _, t := range tasks {
		ids = append(ids, t.AssignedTo...)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, apperr.Internal(err)
	}
	byID := make(map[int]model.User, len(users))
	for _, u := range users {
		byID[u.ID] = u
	}

	rows := make([][]any, 0, len(tasks))
	for _, t := range tasks {
		assignees := make([]string, 0, len(t.AssignedTo))
		for _, id := range t.AssignedTo {
			if u, ok := byID[id]; ok {
				assignees = append(assignees, fmt.Sprintf("%s (%s)", u.Name, u.Email))
			}
		}
		rows = append(rows, []any{
			t.ID,
			t.Title,
			t.Description,
			string(t.Priority),
			string(t.Status),
			t.DueDate.Format(dueDateLayout),
			strings.Join(assignees, ", "),
			fmt.Sprintf("%d%%", t.Progress),
		})
	}

	data, err := render(TasksSheet, taskHeader, rows, []float64{10, 30, 50, 10, 15, 15, 40, 10})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.WithTrace(ctx, s.logger).Info("Tasks report exported",
		zap.Int("actor_id", actor.ID),
		zap.Int("rows", len(rows)),
	)
	return data, nil
}

// ExportUsers writes each member of the admin's department with their task counts.
func (s *Service) ExportUsers(ctx context.Context, actor model.Actor) ([]byte, error) {
	if err := rbac.CheckPermission(actor, rbac.PermissionExportReport); err != nil {
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

	rows := make([][]any, 0, len(members))
	for _, m := range members {
		c := counts[m.ID]
		pending, inProgress, completed := c[model.StatusPending], c[model.StatusInProgress], c[model.StatusCompleted]
		rows = append(rows, []any{m.Name, m.Email, pending + inProgress + completed, pending, inProgress, completed})
	}

	data, err := render(UsersSheet, userHeader, rows, []float64{30, 40, 20, 15, 15, 15})
	if err != nil {
		return nil, apperr.Internal(err)
	}

	logger.WithTrace(ctx, s.logger).Info("Users report exported",
		zap.Int("actor_id", actor.ID),
		zap.Int("rows", len(rows)),
	)
	return data, nil
}

// render builds a single-sheet workbook with a bold header row.
func render(sheet string, header []any, rows [][]any, widths []float64) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	for i, w := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(sheet, col, col, w); err != nil {
			return nil, fmt.Errorf("set width of %s: %w", col, err)
		}
	}

	bold, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"EEEEEE"}, Pattern: 1},
	})
	if err != nil {
		return nil, fmt.Errorf("header style: %w", err)
	}

	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return nil, fmt.Errorf("write header: %w", err)
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return nil, err
	}
	if err := f.SetCellStyle(sheet, "A1", last, bold); err != nil {
		return nil, fmt.Errorf("style header: %w", err)
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}
