package repos

import (
	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/data/repos/processing"
	"github.com/yungbote/cytorepo-backend/internal/data/repos/repository"
	"github.com/yungbote/cytorepo-backend/internal/data/repos/user"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

type UserRepo = user.UserRepo

type ProjectRepo = repository.ProjectRepo
type ProjectPermissionRepo = repository.ProjectPermissionRepo
type SampleRepo = repository.SampleRepo
type SampleCollectionRepo = repository.SampleCollectionRepo
type CellSubsetLabelRepo = repository.CellSubsetLabelRepo

type WorkerRepo = processing.WorkerRepo
type ProcessRequestRepo = processing.ProcessRequestRepo
type ProcessRequestInputRepo = processing.ProcessRequestInputRepo
type SubprocessInputRepo = processing.SubprocessInputRepo
type Stage2ClusterRepo = processing.Stage2ClusterRepo
type ClusterRepo = processing.ClusterRepo
type ClusterLabelRepo = processing.ClusterLabelRepo
type SampleClusterRepo = processing.SampleClusterRepo
type SampleClusterParameterRepo = processing.SampleClusterParameterRepo
type SampleClusterComponentRepo = processing.SampleClusterComponentRepo
type SampleClusterComponentParameterRepo = processing.SampleClusterComponentParameterRepo

type ProcessRequestFilter = processing.ProcessRequestFilter
type ClusterFilter = processing.ClusterFilter
type ClusterLabelFilter = processing.ClusterLabelFilter
type SampleClusterFilter = processing.SampleClusterFilter
type SampleClusterComponentFilter = processing.SampleClusterComponentFilter

// Set is every table repo, built once at startup.
type Set struct {
	User UserRepo

	Project           ProjectRepo
	ProjectPermission ProjectPermissionRepo
	Sample            SampleRepo
	SampleCollection  SampleCollectionRepo
	CellSubsetLabel   CellSubsetLabelRepo

	Worker                          WorkerRepo
	ProcessRequest                  ProcessRequestRepo
	ProcessRequestInput             ProcessRequestInputRepo
	SubprocessInput                 SubprocessInputRepo
	Stage2Cluster                   Stage2ClusterRepo
	Cluster                         ClusterRepo
	ClusterLabel                    ClusterLabelRepo
	SampleCluster                   SampleClusterRepo
	SampleClusterParameter          SampleClusterParameterRepo
	SampleClusterComponent          SampleClusterComponentRepo
	SampleClusterComponentParameter SampleClusterComponentParameterRepo
}

func NewSet(db *gorm.DB, log *logger.Logger) Set {
	return Set{
		User: user.NewUserRepo(db, log),

		Project:           repository.NewProjectRepo(db, log),
		ProjectPermission: repository.NewProjectPermissionRepo(db, log),
		Sample:            repository.NewSampleRepo(db, log),
		SampleCollection:  repository.NewSampleCollectionRepo(db, log),
		CellSubsetLabel:   repository.NewCellSubsetLabelRepo(db, log),

		Worker:                          processing.NewWorkerRepo(db, log),
		ProcessRequest:                  processing.NewProcessRequestRepo(db, log),
		ProcessRequestInput:             processing.NewProcessRequestInputRepo(db, log),
		SubprocessInput:                 processing.NewSubprocessInputRepo(db, log),
		Stage2Cluster:                   processing.NewStage2ClusterRepo(db, log),
		Cluster:                         processing.NewClusterRepo(db, log),
		ClusterLabel:                    processing.NewClusterLabelRepo(db, log),
		SampleCluster:                   processing.NewSampleClusterRepo(db, log),
		SampleClusterParameter:          processing.NewSampleClusterParameterRepo(db, log),
		SampleClusterComponent:          processing.NewSampleClusterComponentRepo(db, log),
		SampleClusterComponentParameter: processing.NewSampleClusterComponentParameterRepo(db, log),
	}
}
