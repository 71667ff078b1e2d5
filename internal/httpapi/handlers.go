package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coursebook/internal/domain"
	mcpserver "coursebook/internal/mcp"
	"coursebook/internal/nodes"
	"coursebook/internal/service"
)

const maxBodyBytes = 8 << 20

type handlers struct {
	docs     *service.DocumentService
	approval *mcpserver.ApprovalQueue
	version  string
}

// fail maps service errors to status codes.
func fail(c *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, service.ErrBlockNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		slog.Error("request failed", "path", c.FullPath(), "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func (h *handlers) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "version": h.version})
}

type documentSummary struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Blocks int    `json:"blocks"`
}

func (h *handlers) listDocuments(c *gin.Context) {
	docs, err := h.docs.List()
	if err != nil {
		fail(c, err)
		return
	}
	out := make([]documentSummary, len(docs))
	for i, d := range docs {
		out[i] = documentSummary{ID: d.ID, Title: d.Title, Blocks: len(d.Body.Content)}
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) createDocument(c *gin.Context) {
	var req struct {
		Title string `json:"title"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	d, err := h.docs.Create(c.Request.Context(), req.Title)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, d)
}

func (h *handlers) getDocument(c *gin.Context) {
	d, err := h.docs.Get(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

// putDocument stores the request body as the document's content, creating
// the document when it does not exist. The body is normalized first.
func (h *handlers) putDocument(c *gin.Context) {
	data, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if !json.Valid(data) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body must be JSON"})
		return
	}
	d, err := h.docs.ImportJSON(c.Request.Context(), c.Param("id"), data)
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, d)
}

func (h *handlers) deleteDocument(c *gin.Context) {
	if err := h.docs.Delete(c.Request.Context(), c.Param("id")); err != nil {
		fail(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *handlers) exportDocument(c *gin.Context) {
	data, err := h.docs.ExportJSON(c.Param("id"))
	if err != nil {
		fail(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+c.Param("id")+`.json"`)
	c.Data(http.StatusOK, "application/json", data)
}

// renderBlock returns a block's surface. Viewers get mind maps with every
// branch collapsed except the ids listed in expanded, given either
// comma-separated or as repeated parameters.
func (h *handlers) renderBlock(c *gin.Context) {
	mode := domain.ModeViewer
	switch c.DefaultQuery("mode", string(domain.ModeViewer)) {
	case string(domain.ModeViewer):
	case string(domain.ModeAuthor):
		mode = domain.ModeAuthor
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode must be author or viewer"})
		return
	}
	var expanded []string
	for _, v := range c.QueryArray("expanded") {
		for _, id := range strings.Split(v, ",") {
			if id = strings.TrimSpace(id); id != "" {
				expanded = append(expanded, id)
			}
		}
	}
	out, err := h.docs.RenderBlock(c.Param("id"), c.Param("blockId"), nodes.RenderContext{Mode: mode, Expanded: expanded})
	if err != nil {
		fail(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h *handlers) listApprovals(c *gin.Context) {
	c.JSON(http.StatusOK, h.approval.Pending())
}

func (h *handlers) resolveApproval(approve bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.Param("id")
		var ok bool
		if approve {
			ok = h.approval.Approve(id)
		} else {
			ok = h.approval.Reject(id)
		}
		if !ok {
			c.JSON(http.StatusNotFound, gin.H{"error": "no pending action " + id})
			return
		}
		c.JSON(http.StatusOK, gin.H{"id": id, "approved": approve})
	}
}
