package handler

import (
	"net/http"
	"strconv"

	"github.com/marimovDEV/v0-crm-pos-system/internal/apierror"
	"github.com/marimovDEV/v0-crm-pos-system/internal/worker"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// JobsHandler exposes the background job dead letter queues to admins.
type JobsHandler struct{ rdb *redis.Client }

func NewJobsHandler(rdb *redis.Client) *JobsHandler { return &JobsHandler{rdb: rdb} }

func (h *JobsHandler) available(c *gin.Context) bool {
	if h.rdb == nil {
		c.JSON(http.StatusServiceUnavailable, apierror.New("job queue is disabled"))
		return false
	}
	return true
}

// DeadLetters returns the number of parked jobs per queue.
func (h *JobsHandler) DeadLetters(c *gin.Context) {
	if !h.available(c) {
		return
	}
	stats, err := worker.DLQStats(c.Request.Context(), h.rdb)
	if err != nil {
		_ = c.Error(err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// Replay moves dead letters of one queue back for another round of attempts.
func (h *JobsHandler) Replay(c *gin.Context) {
	if !h.available(c) {
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "100"))
	if err != nil || limit < 1 || limit > 1000 {
		c.JSON(http.StatusBadRequest, apierror.New("limit must be between 1 and 1000"))
		return
	}
	moved, err := worker.ReplayDLQ(c.Request.Context(), h.rdb, "jobs:"+c.Param("queue"), limit)
	if err != nil {
		c.JSON(http.StatusBadRequest, apierror.New(err.Error()))
		return
	}
	c.JSON(http.StatusOK, gin.H{"replayed": moved})
}
