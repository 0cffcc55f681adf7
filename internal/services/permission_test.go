package services_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	repotest "github.com/yungbote/cytorepo-backend/internal/data/repos/testutil"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/domain/repository"
)

func TestPermissionOracleGrants(t *testing.T) {
	e := newEnv(t)
	project := repotest.SeedProject(t, e.ctx, e.tx)
	other := repotest.SeedProject(t, e.ctx, e.tx)
	member := e.member(project.ID, repository.PermissionView, repository.PermissionProcess)

	ok, err := e.oracle.HasViewPermission(e.ctx, member, project.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ok, err = e.oracle.HasModifyPermission(e.ctx, member, project.ID)
	require.NoError(t, err)
	require.False(t, ok)
	ok, err = e.oracle.HasProcessPermission(e.ctx, member, other.ID)
	require.NoError(t, err)
	require.False(t, ok)

	ids, err := e.oracle.ProjectsUserCanProcess(e.ctx, member)
	require.NoError(t, err)
	require.Equal(t, []uuid.UUID{project.ID}, ids)

	ok, err = e.oracle.HasViewPermission(e.ctx, nil, project.ID)
	require.NoError(t, err)
	require.False(t, ok)
	ids, err = e.oracle.ProjectsUserCanProcess(e.ctx, nil)
	require.NoError(t, err)
	require.Empty(t, ids)
}

func TestPermissionOracleSuperusers(t *testing.T) {
	e := newEnv(t)
	project := repotest.SeedProject(t, e.ctx, e.tx)
	admin := e.admin()

	ok, err := e.oracle.HasModifyPermission(e.ctx, admin, project.ID)
	require.NoError(t, err)
	require.True(t, ok)
	ids, err := e.oracle.ProjectsUserCanProcess(e.ctx, admin)
	require.NoError(t, err)
	require.Contains(t, ids, project.ID)

	// a worker account owned by a superuser keeps superuser reach
	su := repotest.SeedUser(t, e.ctx, e.tx, true)
	wp := &auth.Principal{UserID: su.ID, Role: auth.RoleWorker, WorkerID: uuid.New()}
	ok, err = e.oracle.HasProcessPermission(e.ctx, wp, project.ID)
	require.NoError(t, err)
	require.True(t, ok)
}
