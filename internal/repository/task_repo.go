package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/otel"
)

const taskColumns = `id, title, description, priority, status, due_date, assigned_to, COALESCE(created_by, 0),
        department, attachments, todo_checklist, progress, created_at, updated_at`

type TaskRepository struct {
	db     *pgxpool.Pool
	logger *zap.Logger
}

func NewTaskRepository(db *pgxpool.Pool, logger *zap.Logger) *TaskRepository {
	return &TaskRepository{db: db, logger: logger}
}

func scanTask(row pgx.Row) (*model.Task, error) {
	var (
		t                      model.Task
		priority, status, dept string
		attachments, checklist []byte
	)
	if err := row.Scan(
		&t.ID,
		&t.Title,
		&t.Description,
		&priority,
		&status,
		&t.DueDate,
		&t.AssignedTo,
		&t.CreatedBy,
		&dept,
		&attachments,
		&checklist,
		&t.Progress,
		&t.CreatedAt,
		&t.UpdatedAt,
	); err != nil {
		return nil, err
	}

	t.Priority = model.Priority(priority)
	t.Status = model.Status(status)
	t.Department = model.Department(dept)
	if t.AssignedTo == nil {
		t.AssignedTo = []int{}
	}
	if err := json.Unmarshal(attachments, &t.Attachments); err != nil {
		return nil, fmt.Errorf("decode attachments of task %d: %w", t.ID, err)
	}
	if err := json.Unmarshal(checklist, &t.TodoChecklist); err != nil {
		return nil, fmt.Errorf("decode checklist of task %d: %w", t.ID, err)
	}
	if t.Attachments == nil {
		t.Attachments = []string{}
	}
	if t.TodoChecklist == nil {
		t.TodoChecklist = []model.TodoItem{}
	}
	return &t, nil
}

// encodeDocuments renders the nested parts of a task as JSONB parameters.
func encodeDocuments(t *model.Task) (attachments, checklist []byte, err error) {
	a := t.Attachments
	if a == nil {
		a = []string{}
	}
	c := t.TodoChecklist
	if c == nil {
		c = []model.TodoItem{}
	}

	if attachments, err = json.Marshal(a); err != nil {
		return nil, nil, err
	}
	if checklist, err = json.Marshal(c); err != nil {
		return nil, nil, err
	}
	return attachments, checklist, nil
}

// Insert stores t and fills in its id and timestamps.
func (r *TaskRepository) Insert(ctx context.Context, t *model.Task) error {
	r.logger.Debug("Inserting task",
		zap.String("title", t.Title),
		zap.String("department", string(t.Department)),
		zap.Ints("assigned_to", t.AssignedTo),
	)

	attachments, checklist, err := encodeDocuments(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	query := `
        INSERT INTO tasks (title, description, priority, status, due_date, assigned_to, created_by,
                           department, attachments, todo_checklist, progress)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
        RETURNING id, created_at, updated_at
    `
	err = otel.DB(ctx, "INSERT", "tasks", query, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query,
			t.Title,
			t.Description,
			string(t.Priority),
			string(t.Status),
			t.DueDate,
			t.AssignedTo,
			t.CreatedBy,
			string(t.Department),
			attachments,
			checklist,
			t.Progress,
		).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	})
	if err != nil {
		r.logger.Error("Failed to insert task", zap.String("title", t.Title), zap.Error(err))
		return fmt.Errorf("insert task: %w", err)
	}

	r.logger.Info("Task inserted successfully",
		zap.Int("task_id", t.ID),
		zap.Int("created_by", t.CreatedBy),
	)
	return nil
}

func (r *TaskRepository) FindByID(ctx context.Context, id int) (*model.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`

	var t *model.Task
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		var err error
		t, err = scanTask(r.db.QueryRow(ctx, query, id))
		return err
	})
	if err != nil {
		return nil, notFoundOr(err)
	}
	return t, nil
}

// Update writes the whole task row. Concurrent writers are last-writer-wins.
func (r *TaskRepository) Update(ctx context.Context, t *model.Task) error {
	attachments, checklist, err := encodeDocuments(t)
	if err != nil {
		return fmt.Errorf("encode task: %w", err)
	}

	query := `
        UPDATE tasks
        SET title = $1, description = $2, priority = $3, status = $4, due_date = $5, assigned_to = $6,
            attachments = $7, todo_checklist = $8, progress = $9, updated_at = NOW()
        WHERE id = $10
        RETURNING updated_at
    `
	err = otel.DB(ctx, "UPDATE", "tasks", query, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query,
			t.Title,
			t.Description,
			string(t.Priority),
			string(t.Status),
			t.DueDate,
			t.AssignedTo,
			attachments,
			checklist,
			t.Progress,
			t.ID,
		).Scan(&t.UpdatedAt)
	})
	if err != nil {
		err = notFoundOr(err)
		if !errors.Is(err, ErrNotFound) {
			r.logger.Error("Failed to update task", zap.Int("task_id", t.ID), zap.Error(err))
		}
		return err
	}

	r.logger.Debug("Task updated",
		zap.Int("task_id", t.ID),
		zap.String("status", string(t.Status)),
		zap.Int("progress", t.Progress),
	)
	return nil
}

func (r *TaskRepository) Delete(ctx context.Context, id int) error {
	query := `DELETE FROM tasks WHERE id = $1`

	var affected int64
	err := otel.DB(ctx, "DELETE", "tasks", query, func(ctx context.Context) error {
		tag, err := r.db.Exec(ctx, query, id)
		affected = tag.RowsAffected()
		return err
	})
	if err != nil {
		r.logger.Error("Failed to delete task", zap.Int("task_id", id), zap.Error(err))
		return fmt.Errorf("delete task: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}

	r.logger.Info("Task deleted", zap.Int("task_id", id))
	return nil
}

// List returns the tasks matching f, newest first.
func (r *TaskRepository) List(ctx context.Context, f TaskFilter) ([]model.Task, error) {
	where, args := f.where()
	query := `SELECT ` + taskColumns + ` FROM tasks ` + where + ` ORDER BY created_at DESC, id DESC`

	tasks := []model.Task{}
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			t, err := scanTask(rows)
			if err != nil {
				return err
			}
			tasks = append(tasks, *t)
		}
		return rows.Err()
	})
	if err != nil {
		r.logger.Error("Failed to list tasks",
			zap.String("department", string(f.Department)),
			zap.Int("assignee_id", f.AssigneeID),
			zap.Error(err),
		)
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return tasks, nil
}

// CountByStatus groups the tasks matching f by status. Missing statuses are absent from the map.
func (r *TaskRepository) CountByStatus(ctx context.Context, f TaskFilter) (map[model.Status]int, error) {
	where, args := f.where()
	query := `SELECT status, COUNT(*) FROM tasks ` + where + ` GROUP BY status`

	counts := make(map[model.Status]int)
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				status string
				n      int
			)
			if err := rows.Scan(&status, &n); err != nil {
				return err
			}
			counts[model.Status(status)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("count tasks by status: %w", err)
	}
	return counts, nil
}

func (r *TaskRepository) CountByPriority(ctx context.Context, f TaskFilter) (map[model.Priority]int, error) {
	where, args := f.where()
	query := `SELECT priority, COUNT(*) FROM tasks ` + where + ` GROUP BY priority`

	counts := make(map[model.Priority]int)
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				priority string
				n        int
			)
			if err := rows.Scan(&priority, &n); err != nil {
				return err
			}
			counts[model.Priority(priority)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("count tasks by priority: %w", err)
	}
	return counts, nil
}

// CountOverdue counts tasks matching f that are not completed and due before now.
func (r *TaskRepository) CountOverdue(ctx context.Context, f TaskFilter, now time.Time) (int, error) {
	where, args := f.where()
	args = append(args, string(model.StatusCompleted), now)
	query := fmt.Sprintf(`SELECT COUNT(*) FROM tasks %s AND status <> $%d AND due_date < $%d`, where, len(args)-1, len(args))

	var n int
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		return r.db.QueryRow(ctx, query, args...).Scan(&n)
	})
	if err != nil {
		return 0, fmt.Errorf("count overdue tasks: %w", err)
	}
	return n, nil
}

// Recent returns the limit newest tasks matching f.
func (r *TaskRepository) Recent(ctx context.Context, f TaskFilter, limit int) ([]model.TaskSummary, error) {
	where, args := f.where()
	args = append(args, limit)
	query := fmt.Sprintf(`SELECT id, title, status, priority, due_date, created_at FROM tasks %s
        ORDER BY created_at DESC, id DESC LIMIT $%d`, where, len(args))

	recent := []model.TaskSummary{}
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, args...)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				s                model.TaskSummary
				status, priority string
			)
			if err := rows.Scan(&s.ID, &s.Title, &status, &priority, &s.DueDate, &s.CreatedAt); err != nil {
				return err
			}
			s.Status = model.Status(status)
			s.Priority = model.Priority(priority)
			recent = append(recent, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("recent tasks: %w", err)
	}
	return recent, nil
}

// CountByAssignee returns, for each of userIDs, its task count per status within department.
func (r *TaskRepository) CountByAssignee(ctx context.Context, department model.Department, userIDs []int) (map[int]map[model.Status]int, error) {
	counts := make(map[int]map[model.Status]int, len(userIDs))
	if len(userIDs) == 0 {
		return counts, nil
	}

	query := `
        SELECT a.user_id, t.status, COUNT(*)
        FROM tasks t, unnest(t.assigned_to) AS a(user_id)
        WHERE t.department = $1 AND a.user_id = ANY($2)
        GROUP BY a.user_id, t.status
    `
	err := otel.DB(ctx, "SELECT", "tasks", query, func(ctx context.Context) error {
		rows, err := r.db.Query(ctx, query, string(department), userIDs)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var (
				userID, n int
				status    string
			)
			if err := rows.Scan(&userID, &status, &n); err != nil {
				return err
			}
			if counts[userID] == nil {
				counts[userID] = make(map[model.Status]int)
			}
			counts[userID][model.Status(status)] = n
		}
		return rows.Err()
	})
	if err != nil {
		return nil, fmt.Errorf("count tasks by assignee: %w", err)
	}
	return counts, nil
}
