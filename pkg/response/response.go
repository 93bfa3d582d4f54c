package response

import (
	"errors"
	"net/http"
	"strings"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/d60-Lab/socialgraph/pkg/apperr"
	"github.com/d60-Lab/socialgraph/pkg/logger"
)

// ErrorBody is the wire shape of every failure.
type ErrorBody struct {
	Code        string            `json:"code"`
	Description string            `json:"description"`
	Path        string            `json:"path"`
	Fields      map[string]string `json:"fields,omitempty"`
}

// Success writes data as a 200 JSON body.
func Success(c *gin.Context, data any) {
	if data == nil {
		data = gin.H{"ok": true}
	}
	c.JSON(http.StatusOK, data)
}

// BadRequest reports a request that could not be bound. Binding failures from
// validator/v10 are expanded into per-field messages.
func BadRequest(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		fields := make(map[string]string, len(verrs))
		for _, fe := range verrs {
			fields[lowerFirst(fe.Field())] = fieldMessage(fe)
		}
		Error(c, apperr.Validation("invalid_request", "Request validation failed", fields))
		return
	}
	Error(c, apperr.Validation("invalid_request", err.Error(), nil))
}

// Error writes err using its apperr classification. Internal errors are logged
// with request context and reported to Sentry; their cause is not exposed.
func Error(c *gin.Context, err error) {
	e := apperr.As(err)
	body := ErrorBody{
		Code:        e.Code,
		Description: e.Message,
		Path:        c.Request.URL.Path,
		Fields:      e.Fields,
	}
	if e.Kind == apperr.KindInternal {
		logger.Error("request failed",
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.String("uid", c.GetString("uid")),
			zap.Error(err),
		)
		if hub := sentrygin.GetHubFromContext(c); hub != nil {
			hub.CaptureException(err)
		}
	}
	c.AbortWithStatusJSON(e.Kind.Status(), body)
}

// InternalError is a shorthand for unexpected failures.
func InternalError(c *gin.Context, err error) {
	Error(c, apperr.Internal(c.Request.Method+" "+c.FullPath(), err))
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "required_without":
		return "is required when " + lowerFirst(fe.Param()) + " is absent"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + " characters"
	case "max":
		return "must be at most " + fe.Param() + " characters"
	case "oneof":
		return "must be one of: " + fe.Param()
	case "alphanum":
		return "must contain only letters and digits"
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func lowerFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToLower(s[:1]) + s[1:]
}
