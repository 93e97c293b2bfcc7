package middleware

import (
	"fmt"
	"net/http"

	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/logging"
	"github.com/GriffinCanCode/traceprobe/internal/infrastructure/tracing"
	"github.com/GriffinCanCode/traceprobe/internal/shared/problem"
	"github.com/bytedance/sonic"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Problems renders the last error a handler attached with c.Error as an
// application/problem+json body.
func Problems(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		writeProblem(c, logger, c.Errors.Last().Err)
	}
}

// Recovery turns a handler panic into a 500 problem.
func Recovery(logger *logging.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			r := recover()
			if r == nil {
				return
			}
			if r == http.ErrAbortHandler {
				panic(r)
			}

			logger.For(c.Request.Context()).Error("request panicked",
				zap.Any("panic", r),
				zap.Stack("stack"),
			)

			err := problem.Wrap(fmt.Errorf("panic: %v", r), http.StatusInternalServerError, "")
			_ = c.Error(err)
			c.Abort()
			if !c.Writer.Written() {
				writeProblem(c, logger, err)
			}
		}()

		c.Next()
	}
}

// NotFound reports requests no route matched.
func NotFound() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(problem.NotFound(c.Request.URL.Path))
	}
}

// MethodNotAllowed reports requests whose path matched under another method.
func MethodNotAllowed() gin.HandlerFunc {
	return func(c *gin.Context) {
		_ = c.Error(problem.MethodNotAllowed(c.Request.Method))
	}
}

func writeProblem(c *gin.Context, logger *logging.Logger, err error) {
	ctx := c.Request.Context()
	req := c.Request

	query := ""
	if req.URL.RawQuery != "" {
		query = "?" + req.URL.RawQuery
	}
	logger.For(ctx).Error("Failed to process",
		zap.String("method", req.Method),
		zap.String("url", requestURL(req)),
		zap.String("query", query),
		zap.Error(err),
	)

	detail := problem.FromError(err, req.URL.Path, tracing.TraceParent(ctx))
	body, mErr := sonic.Marshal(detail)
	if mErr != nil {
		c.String(detail.Status, detail.Detail)
		return
	}
	c.Data(detail.Status, problem.ContentType, body)
}

func requestURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + r.URL.Path
}
