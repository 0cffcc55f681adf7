package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/http/response"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

type ClusterLabelHandler struct {
	log    *logger.Logger
	labels services.ClusterLabelService
}

func NewClusterLabelHandler(log *logger.Logger, labels services.ClusterLabelService) *ClusterLabelHandler {
	return &ClusterLabelHandler{log: log.With("handler", "ClusterLabelHandler"), labels: labels}
}

type createClusterLabelBody struct {
	ClusterID uuid.UUID `json:"cluster_id"`
	LabelID   uuid.UUID `json:"label_id"`
}

// POST /api/cluster-labels
func (h *ClusterLabelHandler) Create(c *gin.Context) {
	var body createClusterLabelBody
	if !bindJSON(c, &body) {
		return
	}
	row, err := h.labels.Create(c.Request.Context(), body.ClusterID, body.LabelID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"cluster_label": row})
}

// GET /api/cluster-labels
func (h *ClusterLabelHandler) List(c *gin.Context) {
	var q services.ClusterLabelQuery
	var ok bool
	if q.ClusterID, ok = queryUUID(c, "cluster_id"); !ok {
		return
	}
	if q.LabelID, ok = queryUUID(c, "label_id"); !ok {
		return
	}
	out, err := h.labels.List(c.Request.Context(), q)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"cluster_labels": out})
}

// DELETE /api/cluster-labels/:id
func (h *ClusterLabelHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "cluster_label")
	if !ok {
		return
	}
	if err := h.labels.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}
