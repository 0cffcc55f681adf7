package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/http/response"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

type ProcessRequestHandler struct {
	log      *logger.Logger
	requests services.ProcessRequestService
	results  services.ResultsService
	stage2   services.Stage2Service
}

func NewProcessRequestHandler(log *logger.Logger, requests services.ProcessRequestService, results services.ResultsService, stage2 services.Stage2Service) *ProcessRequestHandler {
	return &ProcessRequestHandler{
		log:      log.With("handler", "ProcessRequestHandler"),
		requests: requests,
		results:  results,
		stage2:   stage2,
	}
}

type inputBody struct {
	Kind  string `json:"kind"`
	Value string `json:"value"`
}

type createProcessRequestBody struct {
	ProjectID          uuid.UUID   `json:"project_id"`
	SampleCollectionID *uuid.UUID  `json:"sample_collection_id"`
	Description        string      `json:"description"`
	SubsampleCount     int         `json:"subsample_count"`
	Inputs             []inputBody `json:"inputs"`
}

// POST /api/process-requests
func (h *ProcessRequestHandler) Create(c *gin.Context) {
	var body createProcessRequestBody
	if !bindJSON(c, &body) {
		return
	}
	inputs := make([]aggregates.InputValue, 0, len(body.Inputs))
	for _, in := range body.Inputs {
		// unknown kinds pass through so the aggregate reports them per index
		inputs = append(inputs, aggregates.InputValue{Kind: processing.InputKind(in.Kind), Value: in.Value})
	}
	res, err := h.requests.Create(c.Request.Context(), services.CreateProcessRequestInput{
		ProjectID:          body.ProjectID,
		SampleCollectionID: body.SampleCollectionID,
		Description:        body.Description,
		SubsampleCount:     body.SubsampleCount,
		Inputs:             inputs,
	})
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{"process_request": res.Request, "inputs": res.Inputs})
}

// GET /api/process-requests
func (h *ProcessRequestHandler) List(c *gin.Context) {
	projectID, ok := queryUUID(c, "project_id")
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", 0)
	if !ok {
		return
	}
	q := services.ProcessRequestQuery{ProjectID: projectID, Limit: limit}
	if raw := c.Query("status"); raw != "" {
		st, valid := processing.ParseStatus(raw)
		if !valid {
			response.RespondError(c, http.StatusBadRequest, "invalid_query", errors.New("unknown status"))
			return
		}
		q.Status = &st
	}
	out, err := h.requests.List(c.Request.Context(), q)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_requests": out})
}

// GET /api/process-requests/:id
func (h *ProcessRequestHandler) Get(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	pr, err := h.requests.Get(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"process_request": pr})
}

// DELETE /api/process-requests/:id
func (h *ProcessRequestHandler) Delete(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	if err := h.requests.Delete(c.Request.Context(), id); err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/process-requests/:id/inputs
func (h *ProcessRequestHandler) ListInputs(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	out, err := h.requests.ListInputs(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"inputs": out})
}

// GET /api/process-requests/:id/clusters
func (h *ProcessRequestHandler) ListClusters(c *gin.Context) {
	id, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	out, err := h.results.ListClusters(c.Request.Context(), id)
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondOK(c, gin.H{"clusters": out})
}

type stage2Body struct {
	LabelID          uuid.UUID `json:"label_id"`
	Description      string    `json:"description"`
	SubsampleCount   int       `json:"subsample_count"`
	RandomSeed       int       `json:"random_seed"`
	ClusterCount     int       `json:"cluster_count"`
	Burnin           int       `json:"burnin"`
	IterationCount   int       `json:"iteration_count"`
	FilterParameters []string  `json:"filter_parameters"`
}

// POST /api/process-requests/:id/stage2
func (h *ProcessRequestHandler) CreateStage2(c *gin.Context) {
	parentID, ok := pathID(c, "process_request")
	if !ok {
		return
	}
	var body stage2Body
	if !bindJSON(c, &body) {
		return
	}
	res, err := h.stage2.CreateStage2Request(c.Request.Context(), services.Stage2Input{
		ParentID:         parentID,
		LabelID:          body.LabelID,
		Description:      body.Description,
		SubsampleCount:   body.SubsampleCount,
		RandomSeed:       body.RandomSeed,
		ClusterCount:     body.ClusterCount,
		Burnin:           body.Burnin,
		IterationCount:   body.IterationCount,
		FilterParameters: body.FilterParameters,
	})
	if err != nil {
		response.RespondErr(c, h.log, err)
		return
	}
	response.RespondCreated(c, gin.H{
		"process_request":  res.Request,
		"inputs":           res.Inputs,
		"seed_cluster_ids": res.SeedClusterIDs,
	})
}
