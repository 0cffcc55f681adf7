package app

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/data/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	httpH "github.com/yungbote/cytorepo-backend/internal/http/handlers"
	"github.com/yungbote/cytorepo-backend/internal/observability"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

const slowAggregateWrite = 2 * time.Second

type Aggregates struct {
	Assignment domainagg.AssignmentAggregate
	Results    domainagg.ResultsAggregate
	Submission domainagg.SubmissionAggregate
	Stage2     domainagg.Stage2Aggregate
}

func wireAggregates(db *gorm.DB, lockTimeout time.Duration, log *logger.Logger, set repos.Set, blobs blobstore.Store, metrics *observability.Metrics) Aggregates {
	base := aggregates.BaseDeps{
		DB:     db,
		Log:    log,
		Runner: aggregates.NewGormTxRunner(db, aggregates.WithLockTimeout(lockTimeout)),
		Hooks: aggregates.FanoutHooks(
			aggregates.NewObservabilityHooks(metrics),
			aggregates.NewLogHooks(log, slowAggregateWrite),
		),
	}
	return Aggregates{
		Assignment: aggregates.NewAssignmentAggregate(aggregates.AssignmentAggregateDeps{Base: base, Requests: set.ProcessRequest}),
		Results: aggregates.NewResultsAggregate(aggregates.ResultsAggregateDeps{
			Base:                base,
			Requests:            set.ProcessRequest,
			Clusters:            set.Cluster,
			Samples:             set.Sample,
			SampleClusters:      set.SampleCluster,
			Parameters:          set.SampleClusterParameter,
			Components:          set.SampleClusterComponent,
			ComponentParameters: set.SampleClusterComponentParameter,
			Blobs:               blobs,
		}),
		Submission: aggregates.NewSubmissionAggregate(aggregates.SubmissionAggregateDeps{
			Base:                base,
			Projects:            set.Project,
			SampleCollections:   set.SampleCollection,
			Requests:            set.ProcessRequest,
			Inputs:              set.ProcessRequestInput,
			SubprocessInputs:    set.SubprocessInput,
			Stage2Clusters:      set.Stage2Cluster,
			Clusters:            set.Cluster,
			ClusterLabels:       set.ClusterLabel,
			SampleClusters:      set.SampleCluster,
			Parameters:          set.SampleClusterParameter,
			Components:          set.SampleClusterComponent,
			ComponentParameters: set.SampleClusterComponentParameter,
		}),
		Stage2: aggregates.NewStage2Aggregate(aggregates.Stage2AggregateDeps{
			Base:             base,
			Requests:         set.ProcessRequest,
			Inputs:           set.ProcessRequestInput,
			SubprocessInputs: set.SubprocessInput,
			Labels:           set.CellSubsetLabel,
			Clusters:         set.Cluster,
			Stage2Clusters:   set.Stage2Cluster,
		}),
	}
}

type Services struct {
	Auth           services.AuthService
	Oracle         services.PermissionOracle
	Metadata       services.MetadataStore
	Notifier       services.Notifier
	Assignment     services.AssignmentService
	Results        services.ResultsService
	ProcessRequest services.ProcessRequestService
	Stage2         services.Stage2Service
	Worker         services.WorkerService
	ClusterLabel   services.ClusterLabelService
	LeaseSweeper   *services.LeaseSweeper
}

func wireServices(log *logger.Logger, cfg Config, set repos.Set, aggs Aggregates, blobs blobstore.Store, notifier services.Notifier, metrics *observability.Metrics) Services {
	oracle := services.NewPermissionOracle(log, set.User, set.Project, set.ProjectPermission)
	meta := services.NewMetadataStore(log, set.Sample, set.CellSubsetLabel, set.SubprocessInput)
	return Services{
		Auth:     services.NewAuthService(log, set.User, set.Worker, cfg.Auth),
		Oracle:   oracle,
		Metadata: meta,
		Notifier: notifier,
		Assignment: services.NewAssignmentService(log, set.ProcessRequest, aggs.Assignment, oracle, notifier, metrics,
			services.AssignmentConfig{ScopeViableByProject: cfg.ScopeViableByProject}),
		Results: services.NewResultsService(log, aggs.Results, oracle, set.ProcessRequest, set.Cluster, set.SampleCluster,
			set.SampleClusterComponent, set.SampleClusterComponentParameter, blobs, metrics),
		ProcessRequest: services.NewProcessRequestService(log, aggs.Submission, oracle, set.ProcessRequest, set.ProcessRequestInput, blobs, notifier),
		Stage2:         services.NewStage2Service(log, aggs.Stage2, oracle, set.ProcessRequest, notifier),
		Worker:         services.NewWorkerService(log, set.User, set.Worker, set.ProcessRequest),
		ClusterLabel:   services.NewClusterLabelService(log, oracle, meta, set.Cluster, set.ClusterLabel, set.ProcessRequest),
		LeaseSweeper:   services.NewLeaseSweeper(log, set.ProcessRequest, aggs.Assignment, notifier, metrics, cfg.Lease),
	}
}

type Handlers struct {
	ProcessRequest *httpH.ProcessRequestHandler
	Assignment     *httpH.AssignmentHandler
	Results        *httpH.ResultsHandler
	ClusterLabel   *httpH.ClusterLabelHandler
	Worker         *httpH.WorkerHandler
	Catalog        *httpH.CatalogHandler
	Health         *httpH.HealthHandler
}

func wireHandlers(log *logger.Logger, svcs Services, ping func(ctx context.Context) error) Handlers {
	return Handlers{
		ProcessRequest: httpH.NewProcessRequestHandler(log, svcs.ProcessRequest, svcs.Results, svcs.Stage2),
		Assignment:     httpH.NewAssignmentHandler(log, svcs.Assignment),
		Results:        httpH.NewResultsHandler(log, svcs.Results),
		ClusterLabel:   httpH.NewClusterLabelHandler(log, svcs.ClusterLabel),
		Worker:         httpH.NewWorkerHandler(log, svcs.Worker),
		Catalog:        httpH.NewCatalogHandler(log, svcs.Metadata),
		Health:         httpH.NewHealthHandler(ping),
	}
}

// queueCounter adapts the per-status count to the metrics collector.
func queueCounter(requests repos.ProcessRequestRepo) observability.QueueCounter {
	return func(ctx context.Context) (map[string]int64, error) {
		counts, err := requests.CountByStatus(dbctx.Context{Ctx: ctx})
		if err != nil {
			return nil, err
		}
		out := make(map[string]int64, len(counts))
		for status, n := range counts {
			out[string(status)] = n
		}
		return out, nil
	}
}
