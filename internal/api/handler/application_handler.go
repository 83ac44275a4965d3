package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/cuongbtq/jobboard/internal/api/dto"
	"github.com/cuongbtq/jobboard/internal/domain"
	"github.com/cuongbtq/jobboard/internal/events"
	"github.com/cuongbtq/jobboard/internal/policy"
	"github.com/cuongbtq/jobboard/internal/workflow"
)

// SubmitApplication handles POST /api/v1/jobs/:job_id/applications
// student_id defaults to the caller; an admin must name the student.
func (h *Handler) SubmitApplication(c *gin.Context) {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.SubmitApplicationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	actor := ActorFrom(c)
	studentID := req.StudentID
	if studentID == 0 {
		studentID = actor.UserID
	}

	app, err := h.engine.SubmitApplication(c.Request.Context(), actor, workflow.SubmitApplicationInput{
		JobID:       jobID,
		StudentID:   studentID,
		ResumePath:  req.ResumePath,
		CoverLetter: req.CoverLetter,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.requestLogger(c).Info("Application submitted",
		slog.Int64("application_id", app.ID),
		slog.Int64("job_id", app.JobID),
		slog.Int64("student_id", app.StudentID),
	)
	h.publish(c, events.ApplicationSubmitted(actor, app))
	c.JSON(http.StatusCreated, dto.NewApplicationDTO(app))
}

// ListJobApplications handles GET /api/v1/jobs/:job_id/applications
func (h *Handler) ListJobApplications(c *gin.Context) {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	apps, err := h.engine.ListApplicationsFor(c.Request.Context(), ActorFrom(c), workflow.ApplicationQuery{JobID: jobID})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListApplicationsResponse{Applications: dto.NewApplicationDTOs(apps)})
}

// HasApplied handles GET /api/v1/jobs/:job_id/applications/exists
// student_id defaults to the caller.
func (h *Handler) HasApplied(c *gin.Context) {
	jobID, err := pathID(c, "job_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := ActorFrom(c)
	studentID := actor.UserID
	if raw := c.Query("student_id"); raw != "" {
		studentID, err = strconv.ParseInt(raw, 10, 64)
		if err != nil || studentID <= 0 {
			h.respondError(c, domain.NewValidationError("student_id", "must be a positive integer"))
			return
		}
	}

	if err := policy.Authorize(actor, policy.ActionReadStudentApplications, studentID); err != nil {
		h.respondError(c, err)
		return
	}

	applied, err := h.engine.HasApplied(c.Request.Context(), jobID, studentID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.HasAppliedResponse{JobID: jobID, StudentID: studentID, Applied: applied})
}

// ListStudentApplications handles GET /api/v1/students/:student_id/applications
func (h *Handler) ListStudentApplications(c *gin.Context) {
	studentID, err := pathID(c, "student_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	apps, err := h.engine.ListApplicationsFor(c.Request.Context(), ActorFrom(c), workflow.ApplicationQuery{StudentID: studentID})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.ListApplicationsResponse{Applications: dto.NewApplicationDTOs(apps)})
}

// GetApplication handles GET /api/v1/applications/:application_id
func (h *Handler) GetApplication(c *gin.Context) {
	applicationID, err := pathID(c, "application_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	app, err := h.engine.GetApplication(c.Request.Context(), ActorFrom(c), applicationID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, dto.NewApplicationDTO(app))
}

// UpdateApplicationStatus handles PATCH /api/v1/applications/:application_id/status
// A lost race answers 409 with Retry-After; the client should re-read.
func (h *Handler) UpdateApplicationStatus(c *gin.Context) {
	applicationID, err := pathID(c, "application_id")
	if err != nil {
		h.respondError(c, err)
		return
	}

	var req dto.UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.bindError(c, err)
		return
	}

	next, err := domain.ParseApplicationStatus(req.Status)
	if err != nil {
		h.respondError(c, err)
		return
	}

	actor := ActorFrom(c)
	move, err := h.engine.MoveApplication(c.Request.Context(), actor, applicationID, next)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.requestLogger(c).Info("Application status changed",
		slog.Int64("application_id", applicationID),
		slog.String("from", string(move.From)),
		slog.String("to", string(move.Application.Status)),
	)
	h.publish(c, events.ApplicationStatusChanged(actor, move.From, move.Application))
	c.JSON(http.StatusOK, dto.NewApplicationDTO(move.Application))
}
