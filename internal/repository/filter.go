package repository

import (
	"strconv"
	"strings"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
)

// TaskFilter scopes task queries. Department is always applied; AssigneeID 0
// and an empty Status mean "any".
type TaskFilter struct {
	Department model.Department
	AssigneeID int
	Status     model.Status
}

// where renders the filter as a WHERE clause with positional args.
func (f TaskFilter) where() (string, []any) {
	conds := []string{"department = $1"}
	args := []any{string(f.Department)}

	if f.AssigneeID != 0 {
		args = append(args, f.AssigneeID)
		conds = append(conds, "$"+strconv.Itoa(len(args))+" = ANY(assigned_to)")
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		conds = append(conds, "status = $"+strconv.Itoa(len(args)))
	}

	return "WHERE " + strings.Join(conds, " AND "), args
}

// WithoutStatus is the same scope with the status condition dropped.
func (f TaskFilter) WithoutStatus() TaskFilter {
	f.Status = ""
	return f
}
