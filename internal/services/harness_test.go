package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/data/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	repotest "github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/ctxutil"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

// recordingNotifier keeps every published event for assertions.
type recordingNotifier struct {
	mu     sync.Mutex
	events []processing.ProcessRequestEvent
}

func (n *recordingNotifier) Publish(_ context.Context, ev processing.ProcessRequestEvent) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, ev)
}

func (n *recordingNotifier) kinds() []processing.EventType {
	n.mu.Lock()
	defer n.mu.Unlock()
	out := make([]processing.EventType, 0, len(n.events))
	for _, ev := range n.events {
		out = append(out, ev.Type)
	}
	return out
}

type env struct {
	t      *testing.T
	ctx    context.Context
	tx     *gorm.DB
	set    repos.Set
	blobs  blobstore.Store
	events *recordingNotifier
	oracle services.PermissionOracle
	meta   services.MetadataStore

	log       *logger.Logger
	assignAgg domainagg.AssignmentAggregate

	assignment services.AssignmentService
	results    services.ResultsService
	requests   services.ProcessRequestService
	stage2     services.Stage2Service
	workers    services.WorkerService
	labels     services.ClusterLabelService
}

func newEnv(t *testing.T) *env {
	t.Helper()
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	log := repotest.Logger(t)
	blobs, err := blobstore.NewLocalStore(t.TempDir(), log)
	require.NoError(t, err)

	set := repos.NewSet(tx, log)
	base := aggregates.BaseDeps{DB: tx, Log: log, Runner: aggregates.NewGormTxRunner(tx)}
	assignAgg := aggregates.NewAssignmentAggregate(aggregates.AssignmentAggregateDeps{Base: base, Requests: set.ProcessRequest})
	resultsAgg := aggregates.NewResultsAggregate(aggregates.ResultsAggregateDeps{
		Base:                base,
		Requests:            set.ProcessRequest,
		Clusters:            set.Cluster,
		Samples:             set.Sample,
		SampleClusters:      set.SampleCluster,
		Parameters:          set.SampleClusterParameter,
		Components:          set.SampleClusterComponent,
		ComponentParameters: set.SampleClusterComponentParameter,
		Blobs:               blobs,
	})
	submissionAgg := aggregates.NewSubmissionAggregate(aggregates.SubmissionAggregateDeps{
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
	})
	stage2Agg := aggregates.NewStage2Aggregate(aggregates.Stage2AggregateDeps{
		Base:             base,
		Requests:         set.ProcessRequest,
		Inputs:           set.ProcessRequestInput,
		SubprocessInputs: set.SubprocessInput,
		Labels:           set.CellSubsetLabel,
		Clusters:         set.Cluster,
		Stage2Clusters:   set.Stage2Cluster,
	})

	events := &recordingNotifier{}
	oracle := services.NewPermissionOracle(log, set.User, set.Project, set.ProjectPermission)
	meta := services.NewMetadataStore(log, set.Sample, set.CellSubsetLabel, set.SubprocessInput)

	return &env{
		t:      t,
		ctx:    context.Background(),
		tx:     tx,
		set:    set,
		blobs:  blobs,
		events: events,
		oracle: oracle,
		meta:   meta,

		log:       log,
		assignAgg: assignAgg,

		assignment: services.NewAssignmentService(log, set.ProcessRequest, assignAgg, oracle, events, nil, services.AssignmentConfig{}),
		results: services.NewResultsService(log, resultsAgg, oracle, set.ProcessRequest, set.Cluster, set.SampleCluster,
			set.SampleClusterComponent, set.SampleClusterComponentParameter, blobs, nil),
		requests: services.NewProcessRequestService(log, submissionAgg, oracle, set.ProcessRequest, set.ProcessRequestInput, blobs, events),
		stage2:   services.NewStage2Service(log, stage2Agg, oracle, set.ProcessRequest, events),
		workers:  services.NewWorkerService(log, set.User, set.Worker, set.ProcessRequest),
		labels:   services.NewClusterLabelService(log, oracle, meta, set.Cluster, set.ClusterLabel, set.ProcessRequest),
	}
}

func (e *env) as(p *auth.Principal) context.Context {
	return ctxutil.WithPrincipal(e.ctx, p)
}

// member seeds a regular user holding perms on project.
func (e *env) member(projectID uuid.UUID, perms ...types.Permission) *auth.Principal {
	e.t.Helper()
	u := repotest.SeedUser(e.t, e.ctx, e.tx, false)
	if len(perms) > 0 {
		repotest.SeedPermission(e.t, e.ctx, e.tx, u.ID, projectID, perms...)
	}
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: auth.RoleUser}
}

func (e *env) worker() (*types.Worker, *auth.Principal) {
	e.t.Helper()
	w := repotest.SeedWorker(e.t, e.ctx, e.tx)
	return w, &auth.Principal{UserID: w.UserID, Username: w.Name, Role: auth.RoleWorker, WorkerID: w.ID}
}

func (e *env) admin() *auth.Principal {
	e.t.Helper()
	u := repotest.SeedUser(e.t, e.ctx, e.tx, true)
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: auth.RoleAdmin}
}

func containsRequest(list []*types.ProcessRequest, id uuid.UUID) bool {
	for _, pr := range list {
		if pr.ID == id {
			return true
		}
	}
	return false
}
