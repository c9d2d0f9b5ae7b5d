package handlers

import (
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"
)

// filePath extracts the shared-root-relative path from the wildcard segment.
func filePath(c *gin.Context) string {
	return strings.TrimPrefix(c.Param("path"), "/")
}

// readFile serves a file's content, or a directory listing when the path is a
// directory.
func (h *Handlers) readFile(c *gin.Context) {
	rel := filePath(c)

	abs, err := h.files.Resolve(rel)
	if err != nil {
		h.respondError(c, err)
		return
	}
	info, err := os.Stat(abs)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "file not found"})
		return
	}

	if info.IsDir() {
		entries, err := h.files.List(rel)
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"path": rel, "entries": entries})
		return
	}

	data, err := h.files.Read(rel)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"path": rel, "content": string(data)})
}

type writeFileRequest struct {
	Content string `json:"content"`
}

func (h *Handlers) writeFile(c *gin.Context) {
	var req writeFileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": err.Error()})
		return
	}
	rel := filePath(c)
	if err := h.files.Write(rel, []byte(req.Content)); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": rel})
}

func (h *Handlers) deleteFile(c *gin.Context) {
	rel := filePath(c)
	if err := h.files.Delete(rel); err != nil {
		if os.IsNotExist(err) {
			c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "file not found"})
			return
		}
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "path": rel})
}
