// Package rbac holds the role permission table and the department-scoped
// access rules for tasks and users. Every check is a pure function of the
// actor and the resource; existence is decided by the caller beforehand.
package rbac

import (
	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
)

const (
	PermissionCreateTask          = "task:create"
	PermissionDeleteTask          = "task:delete"
	PermissionListUsers           = "user:list"
	PermissionDeleteUser          = "user:delete"
	PermissionExportReport        = "report:export"
	PermissionDepartmentDashboard = "dashboard:department"
)

var rolePermissions = map[model.Role][]string{
	model.RoleMember: {},
	model.RoleAdmin: {
		PermissionCreateTask,
		PermissionDeleteTask,
		PermissionListUsers,
		PermissionDeleteUser,
		PermissionExportReport,
		PermissionDepartmentDashboard,
	},
}

// HasPermission reports whether role grants permission.
func HasPermission(role model.Role, permission string) bool {
	permissions, ok := rolePermissions[role]
	if !ok {
		return false
	}

	for _, p := range permissions {
		if p == permission {
			return true
		}
	}
	return false
}

// CheckPermission is HasPermission returning a Forbidden error instead of a bool.
func CheckPermission(actor model.Actor, permission string) error {
	if !HasPermission(actor.Role, permission) {
		return deny(actor, permission, "Not authorized as an admin")
	}
	return nil
}

// PermissionDeniedError describes a failed check. It travels inside an apperr Forbidden error.
type PermissionDeniedError struct {
	UserID     int
	Permission string
	Reason     string
}

func (e *PermissionDeniedError) Error() string {
	return "insufficient permissions: " + e.Permission
}

func deny(actor model.Actor, permission, message string) error {
	return apperr.ForbiddenCause(message, &PermissionDeniedError{
		UserID:     actor.ID,
		Permission: permission,
		Reason:     message,
	})
}

// CanAccessTask covers read, update, status and checklist writes.
// The task must be in the actor's department; members must also be assigned.
func CanAccessTask(actor model.Actor, task *model.Task) error {
	if !actor.HasDepartment() || task.Department != actor.Department {
		return deny(actor, "task:access", "Not authorized to access this task")
	}
	if actor.IsAdmin() || task.IsAssigned(actor.ID) {
		return nil
	}
	return deny(actor, "task:access", "Not authorized to access this task")
}

func CanDeleteTask(actor model.Actor, task *model.Task) error {
	if err := CheckPermission(actor, PermissionDeleteTask); err != nil {
		return err
	}
	if task.Department != actor.Department {
		return deny(actor, PermissionDeleteTask, "Cannot delete task from another department")
	}
	return nil
}

// CanCreateTask requires an admin that belongs to a department; the task inherits it.
func CanCreateTask(actor model.Actor) error {
	if err := CheckPermission(actor, PermissionCreateTask); err != nil {
		return err
	}
	if !actor.HasDepartment() {
		return deny(actor, PermissionCreateTask, "Admin has no department")
	}
	return nil
}

// CanReadUser lets anyone read themselves and admins read their own department.
func CanReadUser(actor model.Actor, user *model.User) error {
	if actor.ID == user.ID {
		return nil
	}
	if actor.IsAdmin() && actor.HasDepartment() && user.InDepartment(actor.Department) {
		return nil
	}
	return deny(actor, "user:read", "Not authorized")
}

func CanDeleteUser(actor model.Actor, user *model.User) error {
	if err := CheckPermission(actor, PermissionDeleteUser); err != nil {
		return err
	}
	if !actor.HasDepartment() || !user.InDepartment(actor.Department) {
		return deny(actor, PermissionDeleteUser, "Cannot delete user from another department")
	}
	return nil
}
