// Package memstore is an in-memory implementation of the user and task
// repositories with the same filtering semantics as the PostgreSQL ones.
// Service and HTTP tests run against it.
package memstore

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/repository"
)

type state struct {
	mu         sync.Mutex
	users      map[int]model.User
	tasks      map[int]model.Task
	nextUserID int
	nextTaskID int
	clock      func() time.Time
}

type Store struct {
	Users *Users
	Tasks *Tasks
	st    *state
}

func New() *Store {
	st := &state{
		users: make(map[int]model.User),
		tasks: make(map[int]model.Task),
		clock: time.Now,
	}
	return &Store{Users: &Users{st: st}, Tasks: &Tasks{st: st}, st: st}
}

// SetClock overrides the time source used for created/updated timestamps.
func (s *Store) SetClock(now func() time.Time) {
	s.st.mu.Lock()
	defer s.st.mu.Unlock()
	s.st.clock = now
}

func copyUser(u model.User) model.User {
	if u.Department != nil {
		d := *u.Department
		u.Department = &d
	}
	return u
}

func copyTask(t model.Task) model.Task {
	t.AssignedTo = append([]int{}, t.AssignedTo...)
	t.Attachments = append([]string{}, t.Attachments...)
	t.TodoChecklist = append([]model.TodoItem{}, t.TodoChecklist...)
	return t
}

type Users struct {
	st *state
}

func (r *Users) Create(_ context.Context, u *model.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, existing := range r.st.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}

	r.st.nextUserID++
	now := r.st.clock()
	u.ID = r.st.nextUserID
	u.CreatedAt, u.UpdatedAt = now, now
	r.st.users[u.ID] = copyUser(*u)
	return nil
}

func (r *Users) FindByID(_ context.Context, id int) (*model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	u, ok := r.st.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	u = copyUser(u)
	return &u, nil
}

func (r *Users) FindByEmail(_ context.Context, email string) (*model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	for _, u := range r.st.users {
		if strings.EqualFold(u.Email, email) {
			u = copyUser(u)
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *Users) FindByIDs(_ context.Context, ids []int) ([]model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	out := []model.User{}
	seen := make(map[int]bool)
	for _, id := range ids {
		if u, ok := r.st.users[id]; ok && !seen[id] {
			seen[id] = true
			out = append(out, copyUser(u))
		}
	}
	return out, nil
}

func (r *Users) FindInDepartment(ctx context.Context, ids []int, department model.Department) ([]model.User, error) {
	users, _ := r.FindByIDs(ctx, ids)
	out := []model.User{}
	for _, u := range users {
		if u.InDepartment(department) {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *Users) ListMembers(_ context.Context, department model.Department) ([]model.User, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	out := []model.User{}
	for _, u := range r.st.users {
		if u.Role == model.RoleMember && u.InDepartment(department) {
			out = append(out, copyUser(u))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (r *Users) Update(_ context.Context, u *model.User) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.users[u.ID]; !ok {
		return repository.ErrNotFound
	}
	for id, existing := range r.st.users {
		if id != u.ID && strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}

	u.UpdatedAt = r.st.clock()
	r.st.users[u.ID] = copyUser(*u)
	return nil
}

// Delete removes the user and its id from every task assignment.
func (r *Users) Delete(_ context.Context, id int) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.users, id)

	for taskID, t := range r.st.tasks {
		if !t.IsAssigned(id) {
			continue
		}
		kept := []int{}
		for _, a := range t.AssignedTo {
			if a != id {
				kept = append(kept, a)
			}
		}
		t.AssignedTo = kept
		r.st.tasks[taskID] = t
	}
	return nil
}

type Tasks struct {
	st *state
}

func matches(t model.Task, f repository.TaskFilter) bool {
	if t.Department != f.Department {
		return false
	}
	if f.AssigneeID != 0 && !t.IsAssigned(f.AssigneeID) {
		return false
	}
	if f.Status != "" && t.Status != f.Status {
		return false
	}
	return true
}

// newestFirst orders by creation time descending, then by id descending.
func newestFirst(tasks []model.Task) {
	sort.Slice(tasks, func(i, j int) bool {
		if !tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].CreatedAt.After(tasks[j].CreatedAt)
		}
		return tasks[i].ID > tasks[j].ID
	})
}

func (r *Tasks) Insert(_ context.Context, t *model.Task) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	r.st.nextTaskID++
	now := r.st.clock()
	t.ID = r.st.nextTaskID
	t.CreatedAt, t.UpdatedAt = now, now
	r.st.tasks[t.ID] = copyTask(*t)
	return nil
}

func (r *Tasks) FindByID(_ context.Context, id int) (*model.Task, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	t, ok := r.st.tasks[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	t = copyTask(t)
	return &t, nil
}

func (r *Tasks) Update(_ context.Context, t *model.Task) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	existing, ok := r.st.tasks[t.ID]
	if !ok {
		return repository.ErrNotFound
	}
	t.CreatedAt = existing.CreatedAt
	t.CreatedBy = existing.CreatedBy
	t.Department = existing.Department
	t.UpdatedAt = r.st.clock()
	r.st.tasks[t.ID] = copyTask(*t)
	return nil
}

func (r *Tasks) Delete(_ context.Context, id int) error {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	if _, ok := r.st.tasks[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.st.tasks, id)
	return nil
}

func (r *Tasks) filtered(f repository.TaskFilter) []model.Task {
	out := []model.Task{}
	for _, t := range r.st.tasks {
		if matches(t, f) {
			out = append(out, copyTask(t))
		}
	}
	newestFirst(out)
	return out
}

func (r *Tasks) List(_ context.Context, f repository.TaskFilter) ([]model.Task, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()
	return r.filtered(f), nil
}

func (r *Tasks) CountByStatus(_ context.Context, f repository.TaskFilter) (map[model.Status]int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	counts := make(map[model.Status]int)
	for _, t := range r.filtered(f) {
		counts[t.Status]++
	}
	return counts, nil
}

func (r *Tasks) CountByPriority(_ context.Context, f repository.TaskFilter) (map[model.Priority]int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	counts := make(map[model.Priority]int)
	for _, t := range r.filtered(f) {
		counts[t.Priority]++
	}
	return counts, nil
}

func (r *Tasks) CountOverdue(_ context.Context, f repository.TaskFilter, now time.Time) (int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	n := 0
	for _, t := range r.filtered(f) {
		if t.IsOverdue(now) {
			n++
		}
	}
	return n, nil
}

func (r *Tasks) Recent(_ context.Context, f repository.TaskFilter, limit int) ([]model.TaskSummary, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	tasks := r.filtered(f)
	if len(tasks) > limit {
		tasks = tasks[:limit]
	}

	out := make([]model.TaskSummary, 0, len(tasks))
	for _, t := range tasks {
		out = append(out, model.TaskSummary{
			ID:        t.ID,
			Title:     t.Title,
			Status:    t.Status,
			Priority:  t.Priority,
			DueDate:   t.DueDate,
			CreatedAt: t.CreatedAt,
		})
	}
	return out, nil
}

func (r *Tasks) CountByAssignee(_ context.Context, department model.Department, userIDs []int) (map[int]map[model.Status]int, error) {
	r.st.mu.Lock()
	defer r.st.mu.Unlock()

	wanted := make(map[int]bool, len(userIDs))
	for _, id := range userIDs {
		wanted[id] = true
	}

	counts := make(map[int]map[model.Status]int)
	for _, t := range r.st.tasks {
		if t.Department != department {
			continue
		}
		for _, id := range t.AssignedTo {
			if !wanted[id] {
				continue
			}
			if counts[id] == nil {
				counts[id] = make(map[model.Status]int)
			}
			counts[id][t.Status]++
		}
	}
	return counts, nil
}
