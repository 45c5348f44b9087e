package handler

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type ReportService interface {
	ExportTasks(ctx context.Context, actor model.Actor) ([]byte, error)
	ExportUsers(ctx context.Context, actor model.Actor) ([]byte, error)
}

type ReportHandler struct {
	svc  ReportService
	errs *ErrorResponder
}

func NewReportHandler(svc ReportService, errs *ErrorResponder) *ReportHandler {
	return &ReportHandler{svc: svc, errs: errs}
}

// ExportTasks handles GET /api/reports/export/tasks
func (h *ReportHandler) ExportTasks(c *gin.Context) {
	h.export(c, "tasks_report.xlsx", h.svc.ExportTasks)
}

// ExportUsers handles GET /api/reports/export/users
func (h *ReportHandler) ExportUsers(c *gin.Context) {
	h.export(c, "users_report.xlsx", h.svc.ExportUsers)
}

func (h *ReportHandler) export(c *gin.Context, filename string, render func(context.Context, model.Actor) ([]byte, error)) {
	actor, ok := h.errs.actor(c)
	if !ok {
		return
	}
	data, err := render(c.Request.Context(), actor)
	if err != nil {
		h.errs.Respond(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, xlsxContentType, data)
}
