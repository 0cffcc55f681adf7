package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/yungbote/cytorepo-backend/internal/http/response"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

// AssignmentHandler serves the worker polling surface. Guard failures answer
// 304 with no body; workers retry on their own schedule.
type AssignmentHandler struct {
	log        *logger.Logger
	assignment services.AssignmentService
}

func NewAssignmentHandler(log *logger.Logger, assignment services.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{log: log.With("handler", "AssignmentHandler"), assignment: assignment}
}

// GET /api/viable-process-requests
func (h *AssignmentHandler) ListViable(c *gin.Context) {
	out, err := h.assignment.ListViable(c.Request.Context())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_requests": out})
}

// GET /api/assigned-process-requests
func (h *AssignmentHandler) ListAssigned(c *gin.Context) {
	out, err := h.assignment.ListAssigned(c.Request.Context())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_requests": out})
}

// POST /api/process-requests/:id/claim
func (h *AssignmentHandler) Claim(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	pr, err := h.assignment.Claim(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_request": pr})
}

// POST /api/process-requests/:id/revoke
func (h *AssignmentHandler) Revoke(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	pr, err := h.assignment.Revoke(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_request": pr})
}

type reportErrorBody struct {
	Message string `json:"message"`
}

// POST /api/process-requests/:id/error
func (h *AssignmentHandler) ReportError(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	var body reportErrorBody
	if c.Request.ContentLength != 0 && !bindJSON(c, &body) {
		return
	}
	pr, err := h.assignment.ReportError(c.Request.Context(), id, body.Message)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_request": pr})
}

// POST /api/process-requests/:id/complete
func (h *AssignmentHandler) Complete(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	pr, err := h.assignment.Complete(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_request": pr})
}

type heartbeatBody struct {
	PercentComplete *int `json:"percent_complete"`
}

// POST /api/process-requests/:id/heartbeat
func (h *AssignmentHandler) Heartbeat(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	var body heartbeatBody
	if c.Request.ContentLength != 0 && !bindJSON(c, &body) {
		return
	}
	pr, err := h.assignment.Heartbeat(c.Request.Context(), id, body.PercentComplete)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_request": pr})
}

// GET /api/process-requests/:id/assignment
func (h *AssignmentHandler) VerifyAssignment(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	assigned, err := h.assignment.VerifyAssignment(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"assigned": assigned})
}
