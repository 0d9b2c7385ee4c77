package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"hookrun/pkg/metrics"
	"hookrun/pkg/models"
)

// CreateRunRequest is the payload for triggering a run.
type CreateRunRequest struct {
	Script    string `json:"script" binding:"required"`
	ResumeURL string `json:"resume_url" binding:"required"`
}

// createRun handles POST /api/v1/runs. The request is validated, assigned a
// run ID, and enqueued; execution and callback delivery happen on a runner
// daemon. The caller gets 202 with the run ID.
func (s *Server) createRun(c *gin.Context) {
	var req CreateRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.validator.ValidateScript(req.Script); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.validator.ValidateResumeURL(req.ResumeURL); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job := &models.JobRequest{
		RunID:       uuid.New(),
		Script:      req.Script,
		ResumeURL:   req.ResumeURL,
		SubmittedAt: time.Now().UTC(),
	}

	if err := s.queue.Push(c.Request.Context(), job); err != nil {
		s.log.Error("failed to enqueue run", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to enqueue run"})
		return
	}

	metrics.RunsAccepted.Inc()

	c.JSON(http.StatusAccepted, gin.H{
		"message": "run accepted",
		"run_id":  job.RunID,
	})
}

// listNodes handles GET /api/v1/cluster/nodes.
func (s *Server) listNodes(c *gin.Context) {
	nodes, err := s.coordinator.GetActiveNodes(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list nodes"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"nodes": nodes,
		"count": len(nodes),
	})
}
