package handler

import (
	"errors"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/Prabesh-Pandey/Task-Manager/internal/apperr"
	"github.com/Prabesh-Pandey/Task-Manager/internal/model"
	"github.com/Prabesh-Pandey/Task-Manager/pkg/logger"
)

const actorKey = "actor"

// SetActor stores the authenticated actor on the request context.
func SetActor(c *gin.Context, actor model.Actor) {
	c.Set(actorKey, actor)
}

// ActorFrom returns the actor stored by the auth middleware.
func ActorFrom(c *gin.Context) (model.Actor, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return model.Actor{}, false
	}
	actor, ok := v.(model.Actor)
	return actor, ok
}

// ErrorResponder turns service errors into {message, error?} responses.
type ErrorResponder struct {
	exposeErrors bool
	logger       *zap.Logger
}

func NewErrorResponder(exposeErrors bool, logger *zap.Logger) *ErrorResponder {
	return &ErrorResponder{exposeErrors: exposeErrors, logger: logger}
}

func (r *ErrorResponder) Respond(c *gin.Context, err error) {
	kind := apperr.KindOf(err)
	status := kind.HTTPStatus()
	body := gin.H{"message": apperr.Message(err)}

	log := logger.WithTrace(c.Request.Context(), r.logger)
	if kind == apperr.KindInternal {
		log.Error("Request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	} else {
		log.Debug("Request rejected",
			zap.String("path", c.FullPath()),
			zap.String("kind", kind.String()),
			zap.Error(err),
		)
	}

	if r.exposeErrors {
		if cause := errors.Unwrap(err); cause != nil {
			body["error"] = cause.Error()
		} else if kind == apperr.KindInternal {
			body["error"] = err.Error()
		}
	}

	c.AbortWithStatusJSON(status, body)
}

// actor fetches the request actor or answers 401 when the route was not authenticated.
func (r *ErrorResponder) actor(c *gin.Context) (model.Actor, bool) {
	actor, ok := ActorFrom(c)
	if !ok {
		r.Respond(c, apperr.Unauthenticated("Not authorized, no token"))
		return model.Actor{}, false
	}
	return actor, true
}

func (r *ErrorResponder) bindJSON(c *gin.Context, out any) bool {
	if err := c.ShouldBindJSON(out); err != nil {
		r.Respond(c, apperr.Validation("Invalid request body: "+err.Error()))
		return false
	}
	return true
}

func (r *ErrorResponder) idParam(c *gin.Context, what string) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		r.Respond(c, apperr.Validation("Invalid "+what+" id"))
		return 0, false
	}
	return id, true
}

// Date accepts RFC 3339 timestamps as well as plain YYYY-MM-DD dates.
type Date struct {
	time.Time
}

func (d *Date) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	if s == "" || s == "null" {
		return nil
	}
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05", "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			d.Time = t
			return nil
		}
	}
	return errors.New("dueDate must be an ISO 8601 date")
}

// ptr returns the wrapped time, or nil for an absent date.
func (d *Date) ptr() *time.Time {
	if d == nil || d.IsZero() {
		return nil
	}
	t := d.Time
	return &t
}
