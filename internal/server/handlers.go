package server

import (
	"errors"
	"fmt"
	"html/template"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/amosWeiskopf/profilesmith/internal/models"
	"github.com/amosWeiskopf/profilesmith/pkg/reporter"
	"github.com/amosWeiskopf/profilesmith/pkg/storage"
)

// defaultDashboardPages is the crawl budget when a request sets none
const defaultDashboardPages = 20

type crawlRequest struct {
	URL      string `json:"url"`
	MaxPages int    `json:"max_pages"`
}

type aggregateRequest struct {
	CompanyName string   `json:"company_name"`
	URLs        []string `json:"urls"`
}

// respondError sends a JSON error response.
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, gin.H{"success": false, "error": message})
}

// respondJobError maps a failed job to a status code
func (s *Server) respondJobError(c *gin.Context, err error) {
	if errors.Is(err, models.ErrConfiguration) {
		respondError(c, http.StatusBadRequest, err.Error())
		return
	}
	s.logger.Error("Job failed", zap.Error(err))
	respondError(c, http.StatusInternalServerError, err.Error())
}

// respondStoreError maps storage failures to status codes
func respondStoreError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		respondError(c, http.StatusNotFound, "File not found")
	case errors.Is(err, storage.ErrInvalidName):
		respondError(c, http.StatusBadRequest, err.Error())
	default:
		respondError(c, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) crawl(c *gin.Context) {
	var req crawlRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.URL == "" {
		respondError(c, http.StatusBadRequest, "URL is required")
		return
	}
	if req.MaxPages <= 0 {
		req.MaxPages = defaultDashboardPages
	}

	result, file, err := s.service.Crawl(c.Request.Context(), req.URL, req.MaxPages)
	if err != nil {
		s.respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully crawled %d pages", len(result.Pages)),
		"file":    file,
		"data":    result,
	})
}

func (s *Server) aggregate(c *gin.Context) {
	var req aggregateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.CompanyName == "" {
		respondError(c, http.StatusBadRequest, "Company name is required")
		return
	}

	result, file, err := s.service.Aggregate(c.Request.Context(), req.CompanyName, req.URLs)
	if err != nil {
		s.respondJobError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"message": fmt.Sprintf("Successfully aggregated data from %d sources", len(result.Sources)),
		"file":    file,
		"data":    result,
	})
}

func (s *Server) listData(c *gin.Context) {
	files, err := s.service.Store().List(c.Request.Context())
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"files": files})
}

func (s *Server) getData(c *gin.Context) {
	data, err := s.service.Store().Load(c.Request.Context(), c.Param("filename"))
	if err != nil {
		respondStoreError(c, err)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", data)
}

func (s *Server) deleteData(c *gin.Context) {
	name := c.Param("filename")
	if err := s.service.Store().Delete(c.Request.Context(), name); err != nil {
		respondStoreError(c, err)
		return
	}
	s.logger.Info("Deleted document", zap.String("file", name))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "Deleted " + name})
}

func (s *Server) results(c *gin.Context) {
	name := c.Query("file")
	if name == "" {
		c.String(http.StatusBadRequest, "No file specified")
		return
	}

	data, err := s.service.Store().Load(c.Request.Context(), name)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			c.String(http.StatusNotFound, "File not found")
			return
		}
		c.String(http.StatusBadRequest, err.Error())
		return
	}

	report, err := s.reporter.GenerateReport(data, reporter.FormatHTML)
	if err != nil {
		c.String(http.StatusUnprocessableEntity, err.Error())
		return
	}
	c.Data(http.StatusOK, "text/html; charset=utf-8", []byte(report))
}

var indexTemplate = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Company Profiling Dashboard</title>
</head>
<body>
    <h1>Company Profiling Dashboard</h1>
    <h2>Saved results</h2>
    {{if .}}
    <ul>
    {{range .}}
        <li><a href="/results?file={{.Name}}">{{.Name}}</a> ({{.Size}} bytes, {{.Modified.Format "2006-01-02 15:04"}})</li>
    {{end}}
    </ul>
    {{else}}
    <p>No results yet. POST to /crawl or /aggregate to create one.</p>
    {{end}}
</body>
</html>`))

func (s *Server) index(c *gin.Context) {
	files, err := s.service.Store().List(c.Request.Context())
	if err != nil {
		c.String(http.StatusInternalServerError, err.Error())
		return
	}
	c.Header("Content-Type", "text/html; charset=utf-8")
	c.Status(http.StatusOK)
	if err := indexTemplate.Execute(c.Writer, files); err != nil {
		s.logger.Error("Render index", zap.Error(err))
	}
}
