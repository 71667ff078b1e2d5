// Package httpapi serves documents to viewers over HTTP.
package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	mcpserver "coursebook/internal/mcp"
	"coursebook/internal/service"
)

// Deps holds what the router needs from the app layer.
type Deps struct {
	Documents *service.DocumentService
	Approval  *mcpserver.ApprovalQueue // nil disables the approval endpoints
	Version   string
}

// NewRouter registers every route.
//
//	GET    /healthz
//	GET    /metrics
//	GET    /v1/documents
//	POST   /v1/documents
//	GET    /v1/documents/:id
//	PUT    /v1/documents/:id
//	DELETE /v1/documents/:id
//	GET    /v1/documents/:id/export
//	GET    /v1/documents/:id/blocks/:blockId/render?mode=&expanded=
//	GET    /v1/approvals
//	POST   /v1/approvals/:id/approve
//	POST   /v1/approvals/:id/reject
func NewRouter(deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger())

	h := &handlers{docs: deps.Documents, approval: deps.Approval, version: deps.Version}

	r.GET("/healthz", h.health)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	v1 := r.Group("/v1")
	docs := v1.Group("/documents")
	docs.GET("", h.listDocuments)
	docs.POST("", h.createDocument)
	docs.GET("/:id", h.getDocument)
	docs.PUT("/:id", h.putDocument)
	docs.DELETE("/:id", h.deleteDocument)
	docs.GET("/:id/export", h.exportDocument)
	docs.GET("/:id/blocks/:blockId/render", h.renderBlock)

	if deps.Approval != nil {
		v1.GET("/approvals", h.listApprovals)
		v1.POST("/approvals/:id/approve", h.resolveApproval(true))
		v1.POST("/approvals/:id/reject", h.resolveApproval(false))
	}
	return r
}

func requestLogger() gin.HandlerFunc {
	log := slog.Default().With("component", "http")
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Debug("request",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start),
		)
	}
}
