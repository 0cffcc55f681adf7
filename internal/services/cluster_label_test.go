package services_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	repotest "github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/repository"
	"github.com/yungbote/cytorepo-backend/internal/services"
)

func TestClusterLabelCreateListDelete(t *testing.T) {
	e := newEnv(t)
	project := repotest.SeedProject(t, e.ctx, e.tx)
	curator := e.member(project.ID, repository.PermissionAdd, repository.PermissionModify, repository.PermissionProcess)
	pr := repotest.SeedProcessRequest(t, e.ctx, e.tx, project.ID, curator.UserID)
	cluster := repotest.SeedCluster(t, e.ctx, e.tx, pr.ID, 0)
	label := repotest.SeedLabel(t, e.ctx, e.tx, project.ID, "NK cells")

	row, err := e.labels.Create(e.as(curator), cluster.ID, label.ID)
	require.NoError(t, err)

	_, err = e.labels.Create(e.as(curator), cluster.ID, label.ID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "duplicate: %v", err)
	require.Equal(t, "cluster already carries this label", domainagg.FieldsOf(err)["label"])

	list, err := e.labels.List(e.as(curator), services.ClusterLabelQuery{ClusterID: &cluster.ID})
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, row.ID, list[0].ID)

	require.NoError(t, e.labels.Delete(e.as(curator), row.ID))
	list, err = e.labels.List(e.as(curator), services.ClusterLabelQuery{ClusterID: &cluster.ID})
	require.NoError(t, err)
	require.Empty(t, list)
}

func TestClusterLabelRejectsForeignProjectLabel(t *testing.T) {
	e := newEnv(t)
	project := repotest.SeedProject(t, e.ctx, e.tx)
	other := repotest.SeedProject(t, e.ctx, e.tx)
	curator := e.member(other.ID, repository.PermissionAdd)
	pr := repotest.SeedProcessRequest(t, e.ctx, e.tx, project.ID, curator.UserID)
	cluster := repotest.SeedCluster(t, e.ctx, e.tx, pr.ID, 0)
	foreign := repotest.SeedLabel(t, e.ctx, e.tx, other.ID, "Monocytes")

	_, err := e.labels.Create(e.as(curator), cluster.ID, foreign.ID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeValidation), "foreign label: %v", err)
	require.Contains(t, domainagg.FieldsOf(err), "label")
}

func TestClusterLabelNeedsAddPermission(t *testing.T) {
	e := newEnv(t)
	project := repotest.SeedProject(t, e.ctx, e.tx)
	viewer := e.member(project.ID, repository.PermissionView)
	pr := repotest.SeedProcessRequest(t, e.ctx, e.tx, project.ID, viewer.UserID)
	cluster := repotest.SeedCluster(t, e.ctx, e.tx, pr.ID, 0)
	label := repotest.SeedLabel(t, e.ctx, e.tx, project.ID, "Granulocytes")

	_, err := e.labels.Create(e.as(viewer), cluster.ID, label.ID)
	require.True(t, domainagg.IsCode(err, domainagg.CodeForbidden), "viewer: %v", err)
}
