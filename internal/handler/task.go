package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/internal/service/task"
)

type TaskService interface {
	List(ctx context.Context, actor model.Actor, status string) (*task.ListResult, error)
	Get(ctx context.Context, actor model.Actor, id int) (*model.TaskDetail, error)
	Create(ctx context.Context, actor model.Actor, in task.CreateInput) (*model.TaskDetail, error)
	Update(ctx context.Context, actor model.Actor, id int, patch task.UpdatePatch) (*model.TaskDetail, error)
	Delete(ctx context.Context, actor model.Actor, id int) error
	UpdateStatus(ctx context.Context, actor model.Actor, id int, status string) (*model.TaskDetail, error)
	UpdateChecklist(ctx context.Context, actor model.Actor, id int, items []model.TodoItem) (*model.TaskDetail, error)
	Dashboard(ctx context.Context, actor model.Actor) (*task.Dashboard, error)
	UserDashboard(ctx context.Context, actor model.Actor) (*task.Dashboard, error)
}

type TaskHandler struct {
	svc  TaskService
	errs *ErrorResponder
}

func NewTaskHandler(svc TaskService, errs *ErrorResponder) *TaskHandler {
	return &TaskHandler{svc: svc, errs: errs}
}

// GetDashboardData handles GET /api/tasks/dashboard-data
func (h *TaskHandler) GetDashboardData(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	d, err := h.svc.Dashboard(c.Request.Context(), actor)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetUserDashboardData handles GET /api/tasks/user-dashboard-data
func (h *TaskHandler) GetUserDashboardData(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	d, err := h.svc.UserDashboard(c.Request.Context(), actor)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// GetTasks handles GET /api/tasks?status=
func (h *TaskHandler) GetTasks(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	res, err := h.svc.List(c.Request.Context(), actor, c.Query("status"))
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// GetTask handles GET /api/tasks/:id
func (h *TaskHandler) GetTask(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "task")
	if !ok {
		return
	}
	t, err := h.svc.Get(c.Request.Context(), actor, id)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, t)
}

type createTaskRequest struct {
	Title         string           `json:"title" binding:"required"`
	Description   string           `json:"description"`
	Priority      string           `json:"priority"`
	DueDate       *Date            `json:"dueDate" binding:"required"`
	AssignedTo    []int            `json:"assignedTo"`
	Attachments   []string         `json:"attachments"`
	TodoChecklist []model.TodoItem `json:"todoChecklist"`
}

// CreateTask handles POST /api/tasks
func (h *TaskHandler) CreateTask(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	var req createTaskRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}

	t, err := h.svc.Create(c.Request.Context(), actor, task.CreateInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate.ptr(),
		AssignedTo:    req.AssignedTo,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
	})
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"message": "Task created successfully", "task": t})
}

type updateTaskRequest struct {
	Title         *string           `json:"title"`
	Description   *string           `json:"description"`
	Priority      *string           `json:"priority"`
	DueDate       *Date             `json:"dueDate"`
	AssignedTo    *[]int            `json:"assignedTo"`
	Attachments   *[]string         `json:"attachments"`
	TodoChecklist *[]model.TodoItem `json:"todoChecklist"`
}

// UpdateTask handles PUT /api/tasks/:id
func (h *TaskHandler) UpdateTask(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "task")
	if !ok {
		return
	}
	var req updateTaskRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}

	t, err := h.svc.Update(c.Request.Context(), actor, id, task.UpdatePatch{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate.ptr(),
		AssignedTo:    req.AssignedTo,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
	})
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task updated", "task": t})
}

// DeleteTask handles DELETE /api/tasks/:id
func (h *TaskHandler) DeleteTask(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "task")
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), actor, id); err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Task deleted"})
}

type statusRequest struct {
	Status string `json:"status" binding:"required"`
}

// UpdateTaskStatus handles PUT /api/tasks/:id/status
func (h *TaskHandler) UpdateTaskStatus(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "task")
	if !ok {
		return
	}
	var req statusRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}

	t, err := h.svc.UpdateStatus(c.Request.Context(), actor, id, req.Status)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Status updated", "task": t})
}

type checklistRequest struct {
	TodoChecklist *[]model.TodoItem `json:"todoChecklist"`
}

// UpdateTaskChecklist handles PUT /api/tasks/:id/todo
func (h *TaskHandler) UpdateTaskChecklist(c *gin.Context) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	id, ok := h.errs.idParam(c, "task")
	if !ok {
		return
	}
	var req checklistRequest
	if !h.errs.bindJSON(c, &req) {
		return
	}
	if req.TodoChecklist == nil {
		h.errs.Respond(c, apperr.Validation("todoChecklist must be an array"))
		return
	}

	t, err := h.svc.UpdateChecklist(c.Request.Context(), actor, id, *req.TodoChecklist)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Checklist updated", "task": t})
}
