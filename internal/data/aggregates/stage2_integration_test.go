package aggregates_test

import (
	"testing"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/aggregates"
	repotest "github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

func composeInput(parentID, labelID, userID uuid.UUID) domainagg.ComposeStage2Input {
	return domainagg.ComposeStage2Input{
		ParentID:         parentID,
		LabelID:          labelID,
		Description:      "re-cluster lymphocytes",
		SubsampleCount:   5000,
		RandomSeed:       123,
		ClusterCount:     16,
		Burnin:           100,
		IterationCount:   50,
		FilterParameters: []string{"FSC-A", "SSC-A", "CD3"},
		RequestedBy:      userID,
	}
}

func TestStage2ComposeFromLabeledClusters(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	agg := aggregates.NewStage2Aggregate(h.stage2Deps())
	dbc := dbctx.Context{Ctx: h.ctx, Tx: tx}

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	collection := repotest.SeedSampleCollection(t, h.ctx, tx, project.ID)
	parent := repotest.SeedAssigned(t, h.ctx, tx, project.ID, user.ID, w1.ID, processing.StatusCompleted)
	if err := tx.Model(parent).Update("sample_collection_id", collection.ID).Error; err != nil {
		t.Fatalf("attach collection: %v", err)
	}
	lymph := repotest.SeedLabel(t, h.ctx, tx, project.ID, "lymphocytes")
	debris := repotest.SeedLabel(t, h.ctx, tx, project.ID, "debris")
	c0 := repotest.SeedCluster(t, h.ctx, tx, parent.ID, 0)
	c1 := repotest.SeedCluster(t, h.ctx, tx, parent.ID, 1)
	c2 := repotest.SeedCluster(t, h.ctx, tx, parent.ID, 2)
	repotest.SeedClusterLabel(t, h.ctx, tx, c0.ID, lymph.ID)
	repotest.SeedClusterLabel(t, h.ctx, tx, c1.ID, lymph.ID)
	repotest.SeedClusterLabel(t, h.ctx, tx, c2.ID, debris.ID)

	res, err := agg.Compose(h.ctx, composeInput(parent.ID, lymph.ID, user.ID))
	if err != nil {
		t.Fatalf("Compose: %v", err)
	}
	child := res.Request
	if child.ParentStageID == nil || *child.ParentStageID != parent.ID {
		t.Fatalf("parent_stage: %v", child.ParentStageID)
	}
	if child.ProjectID != project.ID || child.SampleCollectionID == nil || *child.SampleCollectionID != collection.ID {
		t.Fatalf("copied fields: project=%s collection=%v", child.ProjectID, child.SampleCollectionID)
	}
	if child.Status != processing.StatusPending || child.WorkerID != nil {
		t.Fatalf("child must start pending and unassigned: status=%s worker=%v", child.Status, child.WorkerID)
	}
	if n := repotest.Count(t, tx, &types.ProcessRequest{}, "parent_stage_id = ?", parent.ID); n != 1 {
		t.Fatalf("stage-2 requests: want=1 got=%d", n)
	}

	links, err := h.set.Stage2Cluster.ListByRequest(dbc, child.ID)
	if err != nil {
		t.Fatalf("ListByRequest links: %v", err)
	}
	linked := map[uuid.UUID]bool{}
	for _, l := range links {
		linked[l.ClusterID] = true
	}
	if len(links) != 2 || !linked[c0.ID] || !linked[c1.ID] || linked[c2.ID] {
		t.Fatalf("links: want c0,c1 got %v", linked)
	}

	inputs, err := h.set.ProcessRequestInput.ListByRequest(dbc, child.ID)
	if err != nil {
		t.Fatalf("ListByRequest inputs: %v", err)
	}
	ids := make([]uuid.UUID, 0, len(inputs))
	for _, in := range inputs {
		ids = append(ids, in.SubprocessInputID)
	}
	defs, err := h.set.SubprocessInput.GetByIDs(dbc, ids)
	if err != nil {
		t.Fatalf("GetByIDs: %v", err)
	}
	byID := map[uuid.UUID]processing.Definition{}
	for _, d := range defs {
		byID[d.ID] = d.Definition()
	}
	perDef := map[string][]string{}
	for _, in := range inputs {
		key := byID[in.SubprocessInputID].String()
		perDef[key] = append(perDef[key], in.Value)
	}
	if got := perDef["filtering.parameters.parameter"]; len(got) != 3 {
		t.Fatalf("filter inputs: want 3 got %v", got)
	}
	wantHDP := map[string]string{
		"clustering.hdp.random_seed":     "123",
		"clustering.hdp.cluster_count":   "16",
		"clustering.hdp.burnin":          "100",
		"clustering.hdp.iteration_count": "50",
	}
	hdp := 0
	for def, want := range wantHDP {
		got := perDef[def]
		if len(got) != 1 || got[0] != want {
			t.Fatalf("%s: want [%s] got %v", def, want, got)
		}
		hdp++
	}
	if hdp != 4 || len(inputs) != 7 {
		t.Fatalf("inputs: want 3 filters + 4 hyperparameters, got %d rows", len(inputs))
	}
	if len(res.SeedClusterIDs) != 2 || len(res.Inputs) != 7 {
		t.Fatalf("result: seeds=%d inputs=%d", len(res.SeedClusterIDs), len(res.Inputs))
	}
}

func TestStage2ComposeWithUnmatchedLabelWritesNothing(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	agg := aggregates.NewStage2Aggregate(h.stage2Deps())

	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	w1 := repotest.SeedWorker(t, h.ctx, tx)
	parent := repotest.SeedAssigned(t, h.ctx, tx, project.ID, user.ID, w1.ID, processing.StatusCompleted)
	used := repotest.SeedLabel(t, h.ctx, tx, project.ID, "monocytes")
	unused := repotest.SeedLabel(t, h.ctx, tx, project.ID, "b cells")
	c0 := repotest.SeedCluster(t, h.ctx, tx, parent.ID, 0)
	repotest.SeedClusterLabel(t, h.ctx, tx, c0.ID, used.ID)

	requestsBefore := repotest.Count(t, tx, &types.ProcessRequest{}, "project_id = ?", project.ID)
	inputsBefore := repotest.Count(t, tx, &types.ProcessRequestInput{}, "")
	linksBefore := repotest.Count(t, tx, &types.ProcessRequestStage2Cluster{}, "")

	_, err := agg.Compose(h.ctx, composeInput(parent.ID, unused.ID, user.ID))
	if !domainagg.IsCode(err, domainagg.CodePreconditionFailed) {
		t.Fatalf("want precondition_failed, got %v", err)
	}
	if msg := domainagg.FieldsOf(err)["label"]; msg != "no clusters found with specified label" {
		t.Fatalf("label field: got %q", msg)
	}
	if n := repotest.Count(t, tx, &types.ProcessRequest{}, "project_id = ?", project.ID); n != requestsBefore {
		t.Fatalf("requests: before=%d after=%d", requestsBefore, n)
	}
	if n := repotest.Count(t, tx, &types.ProcessRequestInput{}, ""); n != inputsBefore {
		t.Fatalf("inputs: before=%d after=%d", inputsBefore, n)
	}
	if n := repotest.Count(t, tx, &types.ProcessRequestStage2Cluster{}, ""); n != linksBefore {
		t.Fatalf("links: before=%d after=%d", linksBefore, n)
	}
}

func TestStage2ComposeValidation(t *testing.T) {
	db := repotest.DB(t)
	tx := repotest.Tx(t, db)
	h := newHarness(t, tx)
	agg := aggregates.NewStage2Aggregate(h.stage2Deps())
	user := repotest.SeedUser(t, h.ctx, tx, false)
	project := repotest.SeedProject(t, h.ctx, tx)
	label := repotest.SeedLabel(t, h.ctx, tx, project.ID, "nk cells")

	in := composeInput(uuid.New(), label.ID, user.ID)
	in.ClusterCount = 0
	if _, err := agg.Compose(h.ctx, in); domainagg.FieldsOf(err)["cluster_count"] == "" {
		t.Fatalf("cluster_count=0: want field error, got %v", err)
	}
	in = composeInput(uuid.New(), label.ID, user.ID)
	in.FilterParameters = []string{"FSC-A", " "}
	if _, err := agg.Compose(h.ctx, in); domainagg.FieldsOf(err)["filter_parameters[1]"] == "" {
		t.Fatalf("blank filter: want field error, got %v", err)
	}
	in = composeInput(uuid.New(), label.ID, user.ID)
	in.Description = ""
	if _, err := agg.Compose(h.ctx, in); !domainagg.IsCode(err, domainagg.CodeValidation) {
		t.Fatalf("blank description: want validation, got %v", err)
	}
	if _, err := agg.Compose(h.ctx, composeInput(uuid.New(), label.ID, user.ID)); !domainagg.IsCode(err, domainagg.CodeNotFound) {
		t.Fatalf("missing parent: want not_found, got %v", err)
	}
}
