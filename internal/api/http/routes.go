package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts the probe endpoints. metricsHandler serves /metrics and may be nil.
func Register(r gin.IRouter, h *Handlers, metricsHandler http.Handler) {
	r.GET("/", h.Root)
	r.GET("/health", h.Health)
	if metricsHandler != nil {
		r.GET("/metrics", gin.WrapH(metricsHandler))
	}

	r.GET("/test0", h.Test0)
	r.GET("/test1/:from", h.Test1)
	r.GET("/test2/:from", h.Test2)
	r.GET("/jms", h.JMS)
	r.GET("/jms-error-handler", h.JMSErrorHandler)
	r.GET("/exception", h.Exception)
	r.GET("/cache", h.Cache)
	r.GET("/custom-trace", h.CustomTrace)
}
