package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/leejason2025/audiostudio/model"
	"github.com/leejason2025/audiostudio/pkg/logger"
	"github.com/leejason2025/audiostudio/queue"
	"github.com/leejason2025/audiostudio/service"
)

// JobHandler serves the upload and job query endpoints.
type JobHandler struct {
	store      service.Store
	files      *service.FileStore
	dispatcher queue.Dispatcher
}

func NewJobHandler(store service.Store, files *service.FileStore, dispatcher queue.Dispatcher) *JobHandler {
	return &JobHandler{
		store:      store,
		files:      files,
		dispatcher: dispatcher,
	}
}

// Upload accepts a multipart audio file, creates a pending job, stages the
// file on disk and dispatches it for processing.
func (h *JobHandler) Upload(c *gin.Context) {
	ctx := c.Request.Context()

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "No file provided"})
		return
	}
	defer file.Close()

	if err := h.files.Validate(header); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	job, err := h.store.Create(ctx, header.Filename)
	if err != nil {
		logger.Error(ctx, "failed to create job", "error", err, "filename", header.Filename)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create job"})
		return
	}
	ctx = logger.WithJobID(ctx, job.ID)

	path, err := h.files.Save(file, job.ID, header.Filename)
	if err != nil {
		logger.Error(ctx, "failed to save uploaded file", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to save uploaded file"})
		return
	}

	msg := queue.Message{JobID: job.ID, FilePath: path}
	if err := h.dispatcher.Dispatch(ctx, msg); err != nil {
		// The job row stays pending; without a queued task the staged copy
		// is an orphan, so remove it.
		logger.Error(ctx, "failed to dispatch job", "error", err)
		if rerr := h.files.Remove(path); rerr != nil && !errors.Is(rerr, service.ErrFileMissing) {
			logger.Error(ctx, "failed to remove staged file", "error", rerr, "path", path)
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to queue job for processing"})
		return
	}

	logger.Info(ctx, "upload accepted", "filename", header.Filename, "size", header.Size)
	c.JSON(http.StatusOK, model.UploadResponse{JobID: job.ID, Status: job.Status})
}

// GetStatus returns the processing status of a job.
func (h *JobHandler) GetStatus(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, model.NewStatusResponse(job))
}

// GetResult returns the transcription and summary of a job. The result is
// served for any status; pipeline steps that have not run yet are null.
func (h *JobHandler) GetResult(c *gin.Context) {
	job, ok := h.loadJob(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, model.NewResultResponse(job))
}

// Delete removes a job record.
func (h *JobHandler) Delete(c *gin.Context) {
	id := c.Param("job_id")
	if err := h.store.Delete(c.Request.Context(), id); err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return
		}
		logger.Error(c.Request.Context(), "failed to delete job", "error", err, "job_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete job"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Job deleted"})
}

func (h *JobHandler) loadJob(c *gin.Context) (*model.Job, bool) {
	id := c.Param("job_id")
	job, err := h.store.Get(c.Request.Context(), id)
	if err != nil {
		if errors.Is(err, service.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
			return nil, false
		}
		logger.Error(c.Request.Context(), "failed to load job", "error", err, "job_id", id)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load job"})
		return nil, false
	}
	return job, true
}
