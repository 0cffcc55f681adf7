package aggregates

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

type Stage2AggregateDeps struct {
	Base BaseDeps

	Requests         repos.ProcessRequestRepo
	Inputs           repos.ProcessRequestInputRepo
	SubprocessInputs repos.SubprocessInputRepo
	Labels           repos.CellSubsetLabelRepo
	Clusters         repos.ClusterRepo
	Stage2Clusters   repos.Stage2ClusterRepo
}

type stage2Aggregate struct {
	deps Stage2AggregateDeps
}

func NewStage2Aggregate(deps Stage2AggregateDeps) domainagg.Stage2Aggregate {
	deps.Base = deps.Base.withDefaults()
	return &stage2Aggregate{deps: deps}
}

func (a *stage2Aggregate) Contract() domainagg.Contract {
	return domainagg.Stage2AggregateContract
}

// Compose creates the stage-2 request, its filter inputs, one link per
// labeled parent cluster and the four clustering hyperparameters. Nothing is
// written when no cluster of the parent carries the label.
func (a *stage2Aggregate) Compose(ctx context.Context, in domainagg.ComposeStage2Input) (domainagg.ComposeStage2Result, error) {
	op := domainagg.Stage2AggregateContract.Op("Compose")
	var out domainagg.ComposeStage2Result
	hdp, filters, err := validateStage2Input(op, in)
	if err != nil {
		return out, err
	}
	if a.deps.Requests == nil || a.deps.Inputs == nil || a.deps.SubprocessInputs == nil ||
		a.deps.Labels == nil || a.deps.Clusters == nil || a.deps.Stage2Clusters == nil {
		return out, domainagg.NewError(domainagg.CodeInternal, op, "stage2 aggregate repos not configured", nil)
	}
	at := nowUTC(in.At)

	err = executeWrite(ctx, a.deps.Base, op, func(dbc dbctx.Context) error {
		parent, err := a.deps.Requests.GetByID(dbc, in.ParentID)
		if err != nil {
			return err
		}
		if parent == nil {
			return notFound(op, "process request", in.ParentID)
		}
		label, err := a.deps.Labels.GetByID(dbc, in.LabelID)
		if err != nil {
			return err
		}
		if label == nil {
			return notFound(op, "cell subset label", in.LabelID)
		}
		clusterIDs, err := a.deps.Clusters.IDsByRequestAndLabel(dbc, parent.ID, label.ID)
		if err != nil {
			return err
		}
		if len(clusterIDs) == 0 {
			return domainagg.FieldCodeError(domainagg.CodePreconditionFailed, op, "label", "no clusters found with specified label", nil)
		}

		kinds := append([]processing.InputKind{processing.InputFilterParameter}, processing.HDPInputs...)
		defs, err := resolveInputDefinitions(dbc, op, a.deps.SubprocessInputs, kinds)
		if err != nil {
			return err
		}

		pr := &types.ProcessRequest{
			ProjectID:      parent.ProjectID,
			ParentStageID:  &parent.ID,
			SubsampleCount: in.SubsampleCount,
			Description:    strings.TrimSpace(in.Description),
			RequestUserID:  in.RequestedBy,
			RequestDate:    at,
			Status:         processing.StatusPending,
		}
		if parent.SampleCollectionID != nil {
			id := *parent.SampleCollectionID
			pr.SampleCollectionID = &id
		}
		created, err := a.deps.Requests.Create(dbc, []*types.ProcessRequest{pr})
		if err != nil {
			return err
		}
		child := created[0]

		rows := make([]*types.ProcessRequestInput, 0, len(filters)+len(processing.HDPInputs))
		for _, f := range filters {
			rows = append(rows, &types.ProcessRequestInput{
				ProcessRequestID:  child.ID,
				SubprocessInputID: defs[processing.InputFilterParameter].ID,
				Value:             f,
			})
		}

		links := make([]*types.ProcessRequestStage2Cluster, 0, len(clusterIDs))
		for _, cid := range clusterIDs {
			links = append(links, &types.ProcessRequestStage2Cluster{ProcessRequestID: child.ID, ClusterID: cid})
		}
		if _, err := a.deps.Stage2Clusters.Create(dbc, links); err != nil {
			return err
		}

		for _, kind := range processing.HDPInputs {
			rows = append(rows, &types.ProcessRequestInput{
				ProcessRequestID:  child.ID,
				SubprocessInputID: defs[kind].ID,
				Value:             hdp[kind],
			})
		}
		inputs, err := a.deps.Inputs.Create(dbc, rows)
		if err != nil {
			return err
		}

		out = domainagg.ComposeStage2Result{
			Request:        *child,
			Inputs:         derefInputs(inputs),
			SeedClusterIDs: clusterIDs,
		}
		return nil
	})
	if err != nil {
		return domainagg.ComposeStage2Result{}, err
	}
	return out, nil
}

func validateStage2Input(op string, in domainagg.ComposeStage2Input) (map[processing.InputKind]string, []string, error) {
	if err := requireID(op, "parent", in.ParentID); err != nil {
		return nil, nil, err
	}
	if err := requireID(op, "label", in.LabelID); err != nil {
		return nil, nil, err
	}
	if err := requireID(op, "request_user", in.RequestedBy); err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(in.Description) == "" {
		return nil, nil, domainagg.FieldError(op, "description", "is required")
	}
	if in.SubsampleCount < 0 {
		return nil, nil, domainagg.FieldError(op, "subsample_count", "must be >= 0")
	}

	hdp := map[processing.InputKind]string{
		processing.InputRandomSeed:     strconv.Itoa(in.RandomSeed),
		processing.InputClusterCount:   strconv.Itoa(in.ClusterCount),
		processing.InputBurnin:         strconv.Itoa(in.Burnin),
		processing.InputIterationCount: strconv.Itoa(in.IterationCount),
	}
	for _, kind := range processing.HDPInputs {
		spec, ok := processing.Spec(kind)
		if !ok {
			return nil, nil, domainagg.NewError(domainagg.CodeInternal, op, fmt.Sprintf("catalog is missing %s", kind), nil)
		}
		if err := spec.Validate(hdp[kind]); err != nil {
			return nil, nil, domainagg.FieldError(op, string(kind), err.Error())
		}
	}

	filters := make([]string, 0, len(in.FilterParameters))
	for i, f := range in.FilterParameters {
		f = strings.TrimSpace(f)
		if f == "" {
			return nil, nil, domainagg.FieldError(op, fmt.Sprintf("filter_parameters[%d]", i), "must not be empty")
		}
		filters = append(filters, f)
	}
	return hdp, filters, nil
}

