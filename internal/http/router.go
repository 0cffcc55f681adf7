package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/cytorepo-backend/internal/http/handlers"
	httpMW "github.com/yungbote/cytorepo-backend/internal/http/middleware"
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type RouterConfig struct {
	Log            *logger.Logger
	Metrics        *observability.Metrics
	ServiceName    string
	TracingEnabled bool
	CORSOrigins    []string

	AuthMiddleware *httpMW.AuthMiddleware

	ProcessRequestHandler *httpH.ProcessRequestHandler
	AssignmentHandler     *httpH.AssignmentHandler
	ResultsHandler        *httpH.ResultsHandler
	ClusterLabelHandler   *httpH.ClusterLabelHandler
	WorkerHandler         *httpH.WorkerHandler
	CatalogHandler        *httpH.CatalogHandler

	HealthHandler *httpH.HealthHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.TracingEnabled {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.RequestLogger(cfg.Log))
	r.Use(httpMW.CORS(cfg.CORSOrigins))

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
		r.GET("/readyz", cfg.HealthHandler.Ready)
	}

	protected := r.Group("/api")
	if cfg.AuthMiddleware != nil {
		protected.Use(cfg.AuthMiddleware.RequireAuth())
	}

	// Process requests (users)
	if h := cfg.ProcessRequestHandler; h != nil {
		protected.POST("/process-requests", h.Create)
		protected.GET("/process-requests", h.List)
		protected.GET("/process-requests/:id", h.Get)
		protected.DELETE("/process-requests/:id", h.Delete)
		protected.GET("/process-requests/:id/inputs", h.ListInputs)
		protected.GET("/process-requests/:id/clusters", h.ListClusters)
		protected.POST("/process-requests/:id/stage2", h.CreateStage2)
	}

	// Assignment (workers, admin revoke)
	if h := cfg.AssignmentHandler; h != nil {
		protected.GET("/viable-process-requests", h.ListViable)
		protected.GET("/assigned-process-requests", h.ListAssigned)
		protected.POST("/process-requests/:id/claim", h.Claim)
		protected.POST("/process-requests/:id/revoke", h.Revoke)
		protected.POST("/process-requests/:id/error", h.ReportError)
		protected.POST("/process-requests/:id/complete", h.Complete)
		protected.POST("/process-requests/:id/heartbeat", h.Heartbeat)
		protected.GET("/process-requests/:id/assignment", h.VerifyAssignment)
	}

	// Results
	if h := cfg.ResultsHandler; h != nil {
		protected.POST("/clusters", h.CreateCluster)
		protected.POST("/sample-clusters", h.CreateSampleCluster)
		protected.GET("/sample-clusters", h.ListSampleClusters)
		protected.GET("/sample-clusters/:id/events", h.GetSampleClusterEvents)
		protected.GET("/sample-cluster-components", h.ListSampleClusterComponents)
	}

	// Cluster labels
	if h := cfg.ClusterLabelHandler; h != nil {
		protected.POST("/cluster-labels", h.Create)
		protected.GET("/cluster-labels", h.List)
		protected.DELETE("/cluster-labels/:id", h.Delete)
	}

	// Workers (admin)
	if h := cfg.WorkerHandler; h != nil {
		protected.POST("/workers", h.Create)
		protected.GET("/workers", h.List)
		protected.DELETE("/workers/:id", h.Delete)
	}

	if h := cfg.CatalogHandler; h != nil {
		protected.GET("/subprocess-inputs", h.List)
	}

	return r
}
