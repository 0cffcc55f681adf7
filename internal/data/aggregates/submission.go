package aggregates

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

type SubmissionAggregateDeps struct {
	Base BaseDeps

	Projects          repos.ProjectRepo
	SampleCollections repos.SampleCollectionRepo
	Requests          repos.ProcessRequestRepo
	Inputs            repos.ProcessRequestInputRepo
	SubprocessInputs  repos.SubprocessInputRepo

	Stage2Clusters      repos.Stage2ClusterRepo
	Clusters            repos.ClusterRepo
	ClusterLabels       repos.ClusterLabelRepo
	SampleClusters      repos.SampleClusterRepo
	Parameters          repos.SampleClusterParameterRepo
	Components          repos.SampleClusterComponentRepo
	ComponentParameters repos.SampleClusterComponentParameterRepo
}

type submissionAggregate struct {
	deps SubmissionAggregateDeps
}

func NewSubmissionAggregate(deps SubmissionAggregateDeps) domainagg.SubmissionAggregate {
	deps.Base = deps.Base.withDefaults()
	return &submissionAggregate{deps: deps}
}

func (a *submissionAggregate) Contract() domainagg.Contract {
	return domainagg.SubmissionAggregateContract
}

func (a *submissionAggregate) Submit(ctx context.Context, in domainagg.SubmitInput) (domainagg.SubmitResult, error) {
	op := domainagg.SubmissionAggregateContract.Op("Submit")
	var out domainagg.SubmitResult
	if err := requireID(op, "project", in.ProjectID); err != nil {
		return out, err
	}
	if err := requireID(op, "request_user", in.RequestedBy); err != nil {
		return out, err
	}
	description := strings.TrimSpace(in.Description)
	if description == "" {
		return out, domainagg.FieldError(op, "description", "is required")
	}
	if in.SubsampleCount < 0 {
		return out, domainagg.FieldError(op, "subsample_count", "must be >= 0")
	}
	kinds := make([]processing.InputKind, 0, len(in.Inputs))
	for i, iv := range in.Inputs {
		spec, ok := processing.Spec(iv.Kind)
		if !ok {
			return out, domainagg.FieldError(op, fmt.Sprintf("inputs[%d].kind", i), fmt.Sprintf("unknown input %q", iv.Kind))
		}
		if err := spec.Validate(iv.Value); err != nil {
			return out, domainagg.FieldError(op, fmt.Sprintf("inputs[%d].value", i), err.Error())
		}
		kinds = append(kinds, iv.Kind)
	}
	if a.deps.Projects == nil || a.deps.SampleCollections == nil || a.deps.Requests == nil ||
		a.deps.Inputs == nil || a.deps.SubprocessInputs == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "submission aggregate repos not configured", nil)
	}
	at := nowUTC(in.At)

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		project, err := a.deps.Projects.GetByID(dbc, in.ProjectID)
		if err != nil {
			return err
		}
		if project == nil {
			return notFound(op, "project", in.ProjectID)
		}
		if in.SampleCollectionID != nil && *in.SampleCollectionID != uuid.Nil {
			sc, err := a.deps.SampleCollections.GetByID(dbc, *in.SampleCollectionID)
			if err != nil {
				return err
			}
			if sc == nil {
				return domainagg.FieldError(op, "sample_collection", "sample collection does not exist")
			}
			if sc.ProjectID != project.ID {
				return domainagg.FieldError(op, "sample_collection", "sample collection belongs to a different project")
			}
		}
		defs, err := resolveInputDefinitions(dbc, op, a.deps.SubprocessInputs, kinds)
		if err != nil {
			return err
		}

		pr := &types.ProcessRequest{
			ProjectID:      project.ID,
			SubsampleCount: in.SubsampleCount,
			Description:    description,
			RequestUserID:  in.RequestedBy,
			RequestDate:    at,
			Status:         processing.StatusPending,
		}
		if in.SampleCollectionID != nil && *in.SampleCollectionID != uuid.Nil {
			id := *in.SampleCollectionID
			pr.SampleCollectionID = &id
		}
		created, err := a.deps.Requests.Create(dbc, []*types.ProcessRequest{pr})
		if err != nil {
			return err
		}

		rows := make([]*types.ProcessRequestInput, 0, len(in.Inputs))
		for _, iv := range in.Inputs {
			rows = append(rows, &types.ProcessRequestInput{
				ProcessRequestID:  created[0].ID,
				SubprocessInputID: defs[iv.Kind].ID,
				Value:             strings.TrimSpace(iv.Value),
			})
		}
		inputs, err := a.deps.Inputs.Create(dbc, rows)
		if err != nil {
			return err
		}

		out.Request = *created[0]
		out.Inputs = derefInputs(inputs)
		return nil
	})
	if err != nil {
		return domainagg.SubmitResult{}, err
	}
	return out, nil
}

// Delete removes a request and its whole result tree, children first. A
// request that seeded stage-2 requests cannot be deleted.
func (a *submissionAggregate) Delete(ctx context.Context, requestID uuid.UUID) (domainagg.DeleteResult, error) {
	op := domainagg.SubmissionAggregateContract.Op("Delete")
	var out domainagg.DeleteResult
	if err := requireID(op, "process_request", requestID); err != nil {
		return out, err
	}
	if a.deps.Requests == nil || a.deps.Inputs == nil || a.deps.Stage2Clusters == nil || a.deps.Clusters == nil ||
		a.deps.ClusterLabels == nil || a.deps.SampleClusters == nil || a.deps.Parameters == nil ||
		a.deps.Components == nil || a.deps.ComponentParameters == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "submission aggregate repos not configured", nil)
	}

	err := executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		pr, err := a.deps.Requests.LockByID(dbc, requestID)
		if err != nil {
			return err
		}
		if pr == nil {
			return notFound(op, "process request", requestID)
		}
		children, err := a.deps.Requests.CountChildren(dbc, pr.ID)
		if err != nil {
			return err
		}
		if children > 0 {
			return ConflictError(fmt.Sprintf("process request seeded %d stage-2 requests", children))
		}

		clusterIDs, err := a.deps.Clusters.IDsByRequest(dbc, pr.ID)
		if err != nil {
			return err
		}
		sampleClusters, err := a.deps.SampleClusters.ListByClusterIDs(dbc, clusterIDs)
		if err != nil {
			return err
		}
		scIDs := make([]uuid.UUID, 0, len(sampleClusters))
		keys := make([]string, 0, len(sampleClusters))
		for _, sc := range sampleClusters {
			scIDs = append(scIDs, sc.ID)
			if sc.EventsKey != "" {
				keys = append(keys, sc.EventsKey)
			}
		}
		compIDs, err := a.deps.Components.IDsBySampleClusters(dbc, scIDs)
		if err != nil {
			return err
		}

		if _, err := a.deps.ComponentParameters.DeleteByComponents(dbc, compIDs); err != nil {
			return err
		}
		if _, err := a.deps.Components.DeleteBySampleClusters(dbc, scIDs); err != nil {
			return err
		}
		if _, err := a.deps.Parameters.DeleteBySampleClusters(dbc, scIDs); err != nil {
			return err
		}
		if _, err := a.deps.SampleClusters.DeleteByIDs(dbc, scIDs); err != nil {
			return err
		}
		if _, err := a.deps.ClusterLabels.DeleteByClusterIDs(dbc, clusterIDs); err != nil {
			return err
		}
		if _, err := a.deps.Stage2Clusters.DeleteByRequest(dbc, pr.ID); err != nil {
			return err
		}
		if _, err := a.deps.Clusters.DeleteByRequest(dbc, pr.ID); err != nil {
			return err
		}
		if _, err := a.deps.Inputs.DeleteByRequest(dbc, pr.ID); err != nil {
			return err
		}
		ok, err := a.deps.Requests.Delete(dbc, pr.ID)
		if err != nil {
			return err
		}
		if !ok {
			return InvariantError("locked process request was not deleted")
		}
		out = domainagg.DeleteResult{Request: *pr, EventKeys: keys}
		return nil
	})
	if err != nil {
		return domainagg.DeleteResult{}, err
	}
	return out, nil
}

// resolveInputDefinitions maps catalog kinds to their seeded rows. A missing
// row means the catalog was never seeded into this database.
func resolveInputDefinitions(dbc dbctx.Context, op string, repo repos.SubprocessInputRepo, kinds []processing.InputKind) (map[processing.InputKind]*types.SubprocessInput, error) {
	out := make(map[processing.InputKind]*types.SubprocessInput, len(kinds))
	for _, kind := range kinds {
		if _, done := out[kind]; done {
			continue
		}
		spec, ok := processing.Spec(kind)
		if !ok {
			return nil, domainagg.NewError(domainagg.CodeValidation, op, fmt.Sprintf("unknown input %q", kind), nil)
		}
		row, err := repo.GetByDefinition(dbc, spec.Definition)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, domainagg.NewError(domainagg.CodePreconditionFailed, op,
				fmt.Sprintf("subprocess input %s is not registered", spec.Definition), nil)
		}
		out[kind] = row
	}
	return out, nil
}

func derefInputs(in []*types.ProcessRequestInput) []processing.ProcessRequestInput {
	out := make([]processing.ProcessRequestInput, 0, len(in))
	for _, row := range in {
		if row != nil {
			out = append(out, *row)
		}
	}
	return out
}
