package aggregates_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/data/aggregates"
	aggtest "github.com/yungbote/cytorepo-backend/internal/data/aggregates/testutil"
	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	repotest "github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
)

type harness struct {
	ctx   context.Context
	db    *gorm.DB
	set   repos.Set
	hooks *aggtest.HooksRecorder
	blobs blobstore.Store
	dir   string
	base  aggregates.BaseDeps
}

// newHarness wires aggregates against db, which is either a test transaction
// or, for concurrency tests, the database itself.
func newHarness(t *testing.T, db *gorm.DB) *harness {
	t.Helper()
	log := repotest.Logger(t)
	dir := t.TempDir()
	blobs, err := blobstore.NewLocalStore(dir, log)
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}
	hooks := &aggtest.HooksRecorder{}
	return &harness{
		ctx:   context.Background(),
		db:    db,
		set:   repos.NewSet(db, log),
		hooks: hooks,
		blobs: blobs,
		dir:   dir,
		base: aggregates.BaseDeps{
			DB:     db,
			Log:    log,
			Runner: aggregates.NewGormTxRunner(db),
			Hooks:  hooks,
		},
	}
}

func (h *harness) assignment() *assignmentHelper {
	return &assignmentHelper{agg: aggregates.NewAssignmentAggregate(aggregates.AssignmentAggregateDeps{
		Base:     h.base,
		Requests: h.set.ProcessRequest,
	})}
}

func (h *harness) resultsDeps() aggregates.ResultsAggregateDeps {
	return aggregates.ResultsAggregateDeps{
		Base:                h.base,
		Requests:            h.set.ProcessRequest,
		Clusters:            h.set.Cluster,
		Samples:             h.set.Sample,
		SampleClusters:      h.set.SampleCluster,
		Parameters:          h.set.SampleClusterParameter,
		Components:          h.set.SampleClusterComponent,
		ComponentParameters: h.set.SampleClusterComponentParameter,
		Blobs:               h.blobs,
	}
}

func (h *harness) submissionDeps() aggregates.SubmissionAggregateDeps {
	return aggregates.SubmissionAggregateDeps{
		Base:                h.base,
		Projects:            h.set.Project,
		SampleCollections:   h.set.SampleCollection,
		Requests:            h.set.ProcessRequest,
		Inputs:              h.set.ProcessRequestInput,
		SubprocessInputs:    h.set.SubprocessInput,
		Stage2Clusters:      h.set.Stage2Cluster,
		Clusters:            h.set.Cluster,
		ClusterLabels:       h.set.ClusterLabel,
		SampleClusters:      h.set.SampleCluster,
		Parameters:          h.set.SampleClusterParameter,
		Components:          h.set.SampleClusterComponent,
		ComponentParameters: h.set.SampleClusterComponentParameter,
	}
}

func (h *harness) stage2Deps() aggregates.Stage2AggregateDeps {
	return aggregates.Stage2AggregateDeps{
		Base:             h.base,
		Requests:         h.set.ProcessRequest,
		Inputs:           h.set.ProcessRequestInput,
		SubprocessInputs: h.set.SubprocessInput,
		Labels:           h.set.CellSubsetLabel,
		Clusters:         h.set.Cluster,
		Stage2Clusters:   h.set.Stage2Cluster,
	}
}

func workerPrincipal(w *types.Worker) *auth.Principal {
	return &auth.Principal{UserID: w.UserID, Username: w.Name, Role: auth.RoleWorker, WorkerID: w.ID}
}

func adminPrincipal() *auth.Principal {
	return &auth.Principal{UserID: uuid.New(), Username: "admin", Role: auth.RoleAdmin}
}

func userPrincipal(u *types.User) *auth.Principal {
	return &auth.Principal{UserID: u.ID, Username: u.Username, Role: auth.RoleUser}
}
