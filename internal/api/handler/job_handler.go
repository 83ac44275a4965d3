package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
)

const (
	defaultPageSize = 20
	maxPageSize     = 50
)

// jobFromRequest converts the request body into a job. companyID is used
// when the body names no company.
func jobFromRequest(req dto.JobRequest, companyID int64) (*domain.Job, error) {
	jobType, err := domain.ParseJobType(req.JobType)
	if err != nil {
		return nil, err
	}
	deadline, err := time.Parse(dto.DateLayout, req.Deadline)
	if err != nil {
		return nil, domain.NewValidationError("deadline", "must be a date in YYYY-MM-DD format")
	}
	if req.CompanyID != 0 {
		companyID = req.CompanyID
	}
	return &domain.Job{
		CompanyID:    companyID,
		Title:        req.Title,
		Description:  req.Description,
		Requirements: req.Requirements,
		Location:     req.Location,
		JobType:      jobType,
		SalaryRange:  req.SalaryRange,
		Deadline:     deadline,
	}, nil
}

// SearchJobs handles GET /api/v1/jobs
// Lists jobs with optional filtering and cursor pagination
func (h *Handler) SearchJobs(c *gin.Context) {
	var req dto.SearchJobsRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		h.bindError(c, err)
		return
	}

	if req.PageSize <= 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	cursor, err := DecodeJobCursor(req.Cursor)
	if err != nil {
		h.respondError(c, err)
		return
	}

	filter := domain.JobSearch{
		Location:   req.Location,
		ActiveOnly: req.ActiveOnly == nil || *req.ActiveOnly,
		Limit:      req.PageSize + 1,
		Cursor:     cursor,
	}
	if req.JobType != "" {
		if filter.JobType, err = domain.ParseJobType(req.JobType); err != nil {
			h.respondError(c, err)
			return
		}
	}

	jobs, err := h.engine.SearchJobs(c.Request.Context(), filter)
	if err != nil {
		h.respondError(c, err)
		return
	}

	// One extra row tells us whether another page exists
	hasMore := len(jobs) > req.PageSize
	if hasMore {
		jobs = jobs[:req.PageSize]
	}

	var nextCursor string
	if hasMore {
		nextCursor = EncodeJobCursor(&jobs[len(jobs)-1])
	}

	c.JSON(http.StatusOK, dto.ListJobsResponse{
		Jobs:       dto.NewJobDTOs(jobs),
		NextCursor: nextCursor,
	})
}

// CreateJob handles POST /api/v1/jobs
func (h *Handler) CreateJob(c *gin.Context) {
	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	actor := ActorFrom(c)
	job, err := jobFromRequest(req, actor.UserID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if err := h.engine.PostJob(c.Request.Context(), actor, job); err != nil {
		h.respondError(c, err)
		return
	}

	h.requestLogger(c).Info("Job posted",
		slog.Int64("job_id", job.ID),
		slog.Int64("company_id", job.CompanyID),
	)
	h.publish(c, events.JobPosted(actor, job))
	c.JSON(http.StatusCreated, dto.NewJobDTO(job))
}

// GetJob handles GET /api/v1/jobs/:job_id
func (h *Handler) GetJob(c *gin.Context) {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	job, err := h.engine.GetJob(c.Request.Context(), jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// UpdateJob handles PUT /api/v1/jobs/:job_id
// The owning company cannot change.
func (h *Handler) UpdateJob(c *gin.Context) {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.JobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	ctx := c.Request.Context()
	existing, err := h.engine.GetJob(ctx, jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	job, err := jobFromRequest(req, existing.CompanyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	job.ID = jobID

	if err := h.engine.UpdateJob(ctx, ActorFrom(c), job); err != nil {
		h.respondError(c, err)
		return
	}

	updated, err := h.engine.GetJob(ctx, jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewJobDTO(updated))
}

// DeactivateJob handles POST /api/v1/jobs/:job_id/deactivate
// Deactivating an inactive job succeeds without publishing again.
func (h *Handler) DeactivateJob(c *gin.Context) {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := ActorFrom(c)
	job, changed, err := h.engine.DeactivateJob(c.Request.Context(), actor, jobID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	if changed {
		h.requestLogger(c).Info("Job deactivated", slog.Int64("job_id", jobID))
		h.publish(c, events.JobDeactivated(actor, job, job.UpdatedAt))
	}
	c.JSON(http.StatusOK, dto.NewJobDTO(job))
}

// ListCompanyJobs handles GET /api/v1/companies/:company_id/jobs
func (h *Handler) ListCompanyJobs(c *gin.Context) {
	companyID, err := pathID(c, "company_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	jobs, err := h.engine.ListJobsByCompany(c.Request.Context(), companyID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListJobsResponse{Jobs: dto.NewJobDTOs(jobs)})
}
