package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/repos"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// MetadataStore reads the repository-side records process requests refer to.
// Missing rows return (nil, nil).
type MetadataStore interface {
	GetSample(ctx context.Context, id uuid.UUID) (*types.Sample, error)
	GetCellSubsetLabel(ctx context.Context, id uuid.UUID) (*types.CellSubsetLabel, error)
	GetSubprocessInput(ctx context.Context, kind processing.InputKind) (*types.SubprocessInput, error)
}

type metadataStore struct {
	log              *logger.Logger
	samples          repos.SampleRepo
	labels           repos.CellSubsetLabelRepo
	subprocessInputs repos.SubprocessInputRepo
}

func NewMetadataStore(log *logger.Logger, samples repos.SampleRepo, labels repos.CellSubsetLabelRepo, subprocessInputs repos.SubprocessInputRepo) MetadataStore {
	return &metadataStore{
		log:              log.With("service", "MetadataStore"),
		samples:          samples,
		labels:           labels,
		subprocessInputs: subprocessInputs,
	}
}

func (m *metadataStore) GetSample(ctx context.Context, id uuid.UUID) (*types.Sample, error) {
	return m.samples.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (m *metadataStore) GetCellSubsetLabel(ctx context.Context, id uuid.UUID) (*types.CellSubsetLabel, error) {
	return m.labels.GetByID(dbctx.Context{Ctx: ctx}, id)
}

func (m *metadataStore) GetSubprocessInput(ctx context.Context, kind processing.InputKind) (*types.SubprocessInput, error) {
	spec, ok := processing.Spec(kind)
	if !ok {
		return nil, fmt.Errorf("unknown subprocess input %q", kind)
	}
	return m.subprocessInputs.GetByDefinition(dbctx.Context{Ctx: ctx}, spec.Definition)
}

// CatalogEntry is one subprocess input kind joined with its persisted row.
type CatalogEntry struct {
	Kind        processing.InputKind   `json:"kind"`
	ValueType   string                 `json:"value_type"`
	Min         *int                   `json:"min,omitempty"`
	Description string                 `json:"description"`
	Input       *types.SubprocessInput `json:"subprocess_input"`
}

// ListCatalog resolves every catalog kind through the store. A kind whose row
// was never seeded is reported as an error since requests could not reference it.
func ListCatalog(ctx context.Context, store MetadataStore) ([]CatalogEntry, error) {
	specs := processing.CatalogSpecs()
	out := make([]CatalogEntry, 0, len(specs))
	for _, spec := range specs {
		row, err := store.GetSubprocessInput(ctx, spec.Kind)
		if err != nil {
			return nil, err
		}
		if row == nil {
			return nil, fmt.Errorf("subprocess input %s is not seeded", spec.Definition)
		}
		out = append(out, CatalogEntry{
			Kind:        spec.Kind,
			ValueType:   spec.ValueType,
			Min:         spec.Min,
			Description: spec.Description,
			Input:       row,
		})
	}
	return out, nil
}
