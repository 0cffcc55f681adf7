package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/http/response"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

type ResultsHandler struct {
	log     *logger.Logger
	results services.ResultsService
}

func NewResultsHandler(log *logger.Logger, results services.ResultsService) *ResultsHandler {
	return &ResultsHandler{log: log.With("handler", "ResultsHandler"), results: results}
}

type createClusterBody struct {
	ProcessRequestID uuid.UUID `json:"process_request_id"`
	Index            int       `json:"index"`
}

// POST /api/clusters
func (h *ResultsHandler) CreateCluster(c *gin.Context) {
	var body createClusterBody
	if !bindJSON(c, &body) {
		return
	}
	cluster, err := h.results.CreateCluster(c.Request.Context(), body.ProcessRequestID, body.Index)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"cluster": cluster})
}

type componentBody struct {
	Covariance [][]float64     `json:"covariance"`
	Weight     float64         `json:"weight"`
	Parameters map[int]float64 `json:"parameters"`
}

// Parameter maps are keyed by channel number; JSON object keys are the
// decimal channel numbers.
type createSampleClusterBody struct {
	ClusterID  uuid.UUID       `json:"cluster_id"`
	SampleID   uuid.UUID       `json:"sample_id"`
	Events     []int64         `json:"events"`
	Parameters map[int]float64 `json:"parameters"`
	Components []componentBody `json:"components"`
}

// POST /api/sample-clusters
func (h *ResultsHandler) CreateSampleCluster(c *gin.Context) {
	var body createSampleClusterBody
	if !bindJSON(c, &body) {
		return
	}
	in := aggregates.CreateSampleClusterInput{
		ClusterID:  body.ClusterID,
		SampleID:   body.SampleID,
		Events:     body.Events,
		Parameters: body.Parameters,
		Components: make([]aggregates.ComponentInput, 0, len(body.Components)),
	}
	for _, comp := range body.Components {
		in.Components = append(in.Components, aggregates.ComponentInput{
			Covariance: comp.Covariance,
			Weight:     comp.Weight,
			Parameters: comp.Parameters,
		})
	}
	res, err := h.results.CreateSampleCluster(c.Request.Context(), in)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"sample_cluster": res.SampleCluster,
		"component_ids":  res.ComponentIDs,
	})
}

// GET /api/sample-clusters
func (h *ResultsHandler) ListSampleClusters(c *gin.Context) {
	var q services.SampleClusterQuery
	var ok bool
	if q.ClusterID, ok = queryUUID(c, "cluster_id"); !ok {
		return
	}
	if q.RequestID, ok = queryUUID(c, "process_request_id"); !ok {
		return
	}
	if q.SampleID, ok = queryUUID(c, "sample_id"); !ok {
		return
	}
	out, err := h.results.ListSampleClusters(c.Request.Context(), q)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"sample_clusters": out})
}

// GET /api/sample-clusters/:id/events
func (h *ResultsHandler) GetSampleClusterEvents(c *gin.Context) {
	id, ok := pathID(c, "sample_cluster")
	if !ok {
		return
	}
	events, err := h.results.GetSampleClusterEvents(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"events": events})
}

// GET /api/sample-cluster-components
func (h *ResultsHandler) ListSampleClusterComponents(c *gin.Context) {
	scID, ok := queryUUID(c, "sample_cluster_id")
	if !ok {
		return
	}
	out, err := h.results.ListSampleClusterComponents(c.Request.Context(), scID)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"components": out})
}
