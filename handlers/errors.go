package handlers

import (
	"errors"
	"reflect"
	"strconv"
	"strings"

	"github.com/ABH36/Machine-test/apperr"
	"github.com/ABH36/Machine-test/middleware"
	"github.com/ABH36/Machine-test/policy"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

func init() {
	// report binding failures by their json names
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
	}
}

// respondError renders err as {"error": {kind, message, field}}. Errors
// without a kind are logged and reported as internal.
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	pub := apperr.Public(err)
	if pub.Kind == apperr.KindInternal || pub.Kind == apperr.KindUpstreamUnavailable {
		trace.SpanFromContext(c.Request.Context()).RecordError(err)
		logger.Error("Request failed",
			zap.String("trace_id", middleware.GetTraceID(c.Request.Context())),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
	}
	if pub.Kind == apperr.KindUnauthorized {
		c.Header("WWW-Authenticate", "Bearer")
	}
	c.JSON(apperr.HTTPStatus(pub.Kind), gin.H{"error": pub})
}

// bindError converts a ShouldBindJSON failure into a validation error.
func bindError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		_, field, _ := strings.Cut(fe.Namespace(), ".")
		return apperr.Validation(field, "%s failed on the '%s' rule", fe.Field(), fe.Tag())
	}
	return apperr.Validation("body", "Invalid request body")
}

// precheck rejects callers whose role can never perform action, before the
// request is parsed. It responds and returns false on rejection.
func precheck(c *gin.Context, logger *zap.Logger, action policy.Action) bool {
	if err := policy.Precheck(middleware.PrincipalFrom(c), action); err != nil {
		respondError(c, logger, err)
		return false
	}
	return true
}

func parseID(c *gin.Context) (int, error) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		return 0, apperr.Validation("id", "Invalid id %q", c.Param("id"))
	}
	return id, nil
}
