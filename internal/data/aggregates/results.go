package aggregates

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/blobstore"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

type ResultsAggregateDeps struct {
	Base BaseDeps

	Requests            repos.ProcessRequestRepo
	Clusters            repos.ClusterRepo
	Samples             repos.SampleRepo
	SampleClusters      repos.SampleClusterRepo
	Parameters          repos.SampleClusterParameterRepo
	Components          repos.SampleClusterComponentRepo
	ComponentParameters repos.SampleClusterComponentParameterRepo
	Blobs               blobstore.Store
}

type resultsAggregate struct {
	deps ResultsAggregateDeps
}

func NewResultsAggregate(deps ResultsAggregateDeps) domainagg.ResultsAggregate {
	deps.Base = deps.Base.withDefaults()
	return &resultsAggregate{deps: deps}
}

func (a *resultsAggregate) Contract() domainagg.Contract {
	return domainagg.ResultsAggregateContract
}

func (a *resultsAggregate) CreateCluster(ctx context.Context, in domainagg.CreateClusterInput) (processing.Cluster, error) {
	op := domainagg.ResultsAggregateContract.Op("CreateCluster")
	var out processing.Cluster
	if !in.Actor.IsWorker() {
		return out, domainagg.NewError(domainagg.CodeForbidden, op, "only workers may create clusters", nil)
	}
	if err := requireID(op, "process_request", in.RequestID); err != nil {
		return out, err
	}
	if in.Index < 0 {
		return out, domainagg.FieldError(op, "index", "must be >= 0")
	}
	if a.deps.Requests == nil || a.deps.Clusters == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "results aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		pr, err := a.deps.Requests.LockByID(dbc, in.RequestID)
		if err != nil {
			return err
		}
		if pr == nil {
			return notFound(op, "process request", in.RequestID)
		}
		if err := RequireAssignee(op, pr, in.Actor); err != nil {
			return err
		}
		created, err := a.deps.Clusters.Create(dbc, &types.Cluster{ProcessRequestID: pr.ID, Index: in.Index})
		if err != nil {
			return err
		}
		out = *created
		return nil
	})
	if err != nil {
		if domainagg.IsCode(err, domainagg.CodeConflict) {
			msg := fmt.Sprintf("cluster index %d already exists for this process request", in.Index)
			return processing.Cluster{}, domainagg.FieldCodeError(domainagg.CodeConflict, op, "index", msg, err)
		}
		return processing.Cluster{}, err
	}
	return out, nil
}

// CreateSampleCluster uploads the event blob before the request row is
// locked, then writes the whole row tree in one transaction. Ownership is
// checked without the lock first and again under it. The blob is removed
// again if the transaction does not commit.
func (a *resultsAggregate) CreateSampleCluster(ctx context.Context, in domainagg.CreateSampleClusterInput) (domainagg.CreateSampleClusterResult, error) {
	op := domainagg.ResultsAggregateContract.Op("CreateSampleCluster")
	var out domainagg.CreateSampleClusterResult
	if !in.Actor.IsWorker() {
		return out, domainagg.NewError(domainagg.CodeForbidden, op, "only workers may create sample clusters", nil)
	}
	if err := validateSampleClusterInput(op, in); err != nil {
		return out, err
	}
	if a.deps.Requests == nil || a.deps.Clusters == nil || a.deps.Samples == nil || a.deps.SampleClusters == nil ||
		a.deps.Parameters == nil || a.deps.Components == nil || a.deps.ComponentParameters == nil || a.deps.Blobs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "results aggregate repos not configured", nil)
	}

	if _, _, err := a.sampleClusterTarget(dbctx.Context{Ctx: ctx}, op, in, false); err != nil {
		return out, MapError(op, err)
	}

	sampleClusterID := uuid.New()
	eventsKey := blobstore.EventsKey(sampleClusterID)
	if err := a.deps.Blobs.Put(ctx, eventsKey, bytes.NewReader(blobstore.EncodeEvents(in.Events))); err != nil {
		return out, MapError(op, RetryableError(fmt.Sprintf("write event blob: %v", err)))
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		cluster, sample, err := a.sampleClusterTarget(dbc, op, in, true)
		if err != nil {
			return err
		}

		sc, err := a.deps.SampleClusters.Create(dbc, &types.SampleCluster{
			ID:         sampleClusterID,
			ClusterID:  cluster.ID,
			SampleID:   sample.ID,
			EventsKey:  eventsKey,
			EventCount: len(in.Events),
		})
		if err != nil {
			return err
		}

		params := make([]*types.SampleClusterParameter, 0, len(in.Parameters))
		for _, ch := range sortedChannels(in.Parameters) {
			params = append(params, &types.SampleClusterParameter{SampleClusterID: sc.ID, Channel: ch, Location: in.Parameters[ch]})
		}
		if _, err := a.deps.Parameters.Create(dbc, params); err != nil {
			return err
		}

		componentIDs := make([]uuid.UUID, 0, len(in.Components))
		componentParams := 0
		for i, comp := range in.Components {
			cov, err := json.Marshal(comp.Covariance)
			if err != nil {
				return domainagg.FieldError(op, fmt.Sprintf("components[%d].covariance", i), "not serializable")
			}
			rows, err := a.deps.Components.Create(dbc, []*types.SampleClusterComponent{{
				SampleClusterID: sc.ID,
				Covariance:      datatypes.JSON(cov),
				Weight:          comp.Weight,
			}})
			if err != nil {
				return err
			}
			if len(rows) != 1 {
				return InvariantError("component insert returned no row")
			}
			compID := rows[0].ID
			componentIDs = append(componentIDs, compID)

			cps := make([]*types.SampleClusterComponentParameter, 0, len(comp.Parameters))
			for _, ch := range sortedChannels(comp.Parameters) {
				cps = append(cps, &types.SampleClusterComponentParameter{
					SampleClusterComponentID: compID,
					Channel:                  ch,
					Location:                 comp.Parameters[ch],
				})
			}
			if _, err := a.deps.ComponentParameters.Create(dbc, cps); err != nil {
				return err
			}
			componentParams += len(cps)
		}

		out = domainagg.CreateSampleClusterResult{
			SampleCluster:           *sc,
			ParameterCount:          len(params),
			ComponentIDs:            componentIDs,
			ComponentParameterCount: componentParams,
		}
		return nil
	})
	if err != nil {
		// ctx may already be cancelled; the blob is orphaned either way.
		if derr := a.deps.Blobs.Delete(context.WithoutCancel(ctx), eventsKey); derr != nil {
			a.deps.Base.Log.Warn("event blob cleanup failed", "key", eventsKey, "error", derr)
		}
		return domainagg.CreateSampleClusterResult{}, err
	}
	return out, nil
}

// sampleClusterTarget loads the cluster and sample and checks the caller is
// the request's assignee. With lock set the request row is held FOR UPDATE.
func (a *resultsAggregate) sampleClusterTarget(dbc dbctx.Context, op string, in domainagg.CreateSampleClusterInput, lock bool) (*types.Cluster, *types.Sample, error) {
	cluster, err := a.deps.Clusters.GetByID(dbc, in.ClusterID)
	if err != nil {
		return nil, nil, err
	}
	if cluster == nil {
		return nil, nil, notFound(op, "cluster", in.ClusterID)
	}
	load := a.deps.Requests.GetByID
	if lock {
		load = a.deps.Requests.LockByID
	}
	pr, err := load(dbc, cluster.ProcessRequestID)
	if err != nil {
		return nil, nil, err
	}
	if pr == nil {
		return nil, nil, InvariantError("cluster references a missing process request")
	}
	if err := RequireAssignee(op, pr, in.Actor); err != nil {
		return nil, nil, err
	}
	sample, err := a.deps.Samples.GetByID(dbc, in.SampleID)
	if err != nil {
		return nil, nil, err
	}
	if sample == nil {
		return nil, nil, domainagg.FieldError(op, "sample", "sample does not exist")
	}
	if sample.ProjectID != pr.ProjectID {
		return nil, nil, domainagg.FieldError(op, "sample", "sample belongs to a different project")
	}
	return cluster, sample, nil
}

func validateSampleClusterInput(op string, in domainagg.CreateSampleClusterInput) error {
	if err := requireID(op, "cluster", in.ClusterID); err != nil {
		return err
	}
	if err := requireID(op, "sample", in.SampleID); err != nil {
		return err
	}
	for i, e := range in.Events {
		if e < 0 {
			return domainagg.FieldError(op, "events", fmt.Sprintf("event index at position %d is negative", i))
		}
	}
	if err := validateChannels(op, "parameters", in.Parameters); err != nil {
		return err
	}
	for i, comp := range in.Components {
		prefix := fmt.Sprintf("components[%d]", i)
		if math.IsNaN(comp.Weight) || math.IsInf(comp.Weight, 0) || comp.Weight < 0 || comp.Weight > 1 {
			return domainagg.FieldError(op, prefix+".weight", "must be between 0 and 1")
		}
		if err := validateChannels(op, prefix+".parameters", comp.Parameters); err != nil {
			return err
		}
		if err := validateCovariance(comp.Covariance, len(comp.Parameters)); err != nil {
			return domainagg.FieldError(op, prefix+".covariance", err.Error())
		}
	}
	return nil
}

func validateChannels(op, field string, m map[int]float64) error {
	for ch, loc := range m {
		if ch < 0 {
			return domainagg.FieldError(op, field, fmt.Sprintf("channel %d is negative", ch))
		}
		if math.IsNaN(loc) || math.IsInf(loc, 0) {
			return domainagg.FieldError(op, field, fmt.Sprintf("channel %d location is not finite", ch))
		}
	}
	return nil
}

// validateCovariance requires a square matrix of finite values whose
// dimension matches the component's channel count when channels are given.
func validateCovariance(cov [][]float64, channels int) error {
	n := len(cov)
	if n == 0 {
		return fmt.Errorf("must not be empty")
	}
	if channels > 0 && n != channels {
		return fmt.Errorf("dimension %d does not match %d channels", n, channels)
	}
	for i, row := range cov {
		if len(row) != n {
			return fmt.Errorf("row %d has %d columns, want %d", i, len(row), n)
		}
		for _, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return fmt.Errorf("row %d contains a non-finite value", i)
			}
		}
	}
	return nil
}

func sortedChannels(m map[int]float64) []int {
	out := make([]int, 0, len(m))
	for ch := range m {
		out = append(out, ch)
	}
	sort.Ints(out)
	return out
}
