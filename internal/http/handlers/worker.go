package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/http/response"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

type WorkerHandler struct {
	log     *logger.Logger
	workers services.WorkerService
}

func NewWorkerHandler(log *logger.Logger, workers services.WorkerService) *WorkerHandler {
	return &WorkerHandler{log: log.With("handler", "WorkerHandler"), workers: workers}
}

type createWorkerBody struct {
	UserID   uuid.UUID `json:"user_id"`
	Name     string    `json:"name"`
	Hostname string    `json:"hostname"`
}

// POST /api/workers
func (h *WorkerHandler) Create(c *gin.Context) {
	var body createWorkerBody
	if !bindJSON(c, &body) {
		return
	}
	w, err := h.workers.Create(c.Request.Context(), services.CreateWorkerInput{
		UserID:   body.UserID,
		Name:     body.Name,
		Hostname: body.Hostname,
	})
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"worker": w})
}

// GET /api/workers
func (h *WorkerHandler) List(c *gin.Context) {
	out, err := h.workers.List(c.Request.Context())
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"workers": out})
}

// DELETE /api/workers/:id
func (h *WorkerHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "worker")
	if !ok {
		return
	}
	if err := h.workers.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
