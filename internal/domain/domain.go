package domain

import (
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/domain/repository"
	"github.com/yungbote/cytorepo-backend/internal/domain/user"
)

const (
	StatusPending   = processing.StatusPending
	StatusWorking   = processing.StatusWorking
	StatusError     = processing.StatusError
	StatusCompleted = processing.StatusCompleted
)

const (
	PermissionView    = repository.PermissionView
	PermissionAdd     = repository.PermissionAdd
	PermissionModify  = repository.PermissionModify
	PermissionProcess = repository.PermissionProcess
)

type User = user.User

type Project = repository.Project
type ProjectPermission = repository.ProjectPermission
type Permission = repository.Permission
type Sample = repository.Sample
type SampleCollection = repository.SampleCollection
type SampleCollectionMember = repository.SampleCollectionMember
type CellSubsetLabel = repository.CellSubsetLabel

type Worker = processing.Worker
type ProcessRequest = processing.ProcessRequest
type ProcessRequestInput = processing.ProcessRequestInput
type ProcessRequestStage2Cluster = processing.ProcessRequestStage2Cluster
type SubprocessInput = processing.SubprocessInput
type Cluster = processing.Cluster
type ClusterLabel = processing.ClusterLabel
type SampleCluster = processing.SampleCluster
type SampleClusterParameter = processing.SampleClusterParameter
type SampleClusterComponent = processing.SampleClusterComponent
type SampleClusterComponentParameter = processing.SampleClusterComponentParameter
type ProcessRequestEvent = processing.ProcessRequestEvent

// AllModels lists every table the job store migrates, parents first.
func AllModels() []any {
	return []any{
		&User{},
		&Project{},
		&ProjectPermission{},
		&Sample{},
		&SampleCollection{},
		&SampleCollectionMember{},
		&CellSubsetLabel{},

		&Worker{},
		&SubprocessInput{},
		&ProcessRequest{},
		&ProcessRequestInput{},
		&Cluster{},
		&ClusterLabel{},
		&ProcessRequestStage2Cluster{},
		&SampleCluster{},
		&SampleClusterParameter{},
		&SampleClusterComponent{},
		&SampleClusterComponentParameter{},
	}
}
