package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/yungbote/cytorepo-backend/internal/data/aggregates"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/auth"
	"github.com/yungbote/cytorepo-backend/internal/platform/ctxutil"
)

func requirePrincipal(ctx context.Context, op string) (*auth.Principal, error) {
	p := ctxutil.GetPrincipal(ctx)
	if p.Anonymous() {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "authentication required", nil)
	}
	return p, nil
}

func requireWorker(ctx context.Context, op string) (*auth.Principal, error) {
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if !p.IsWorker() {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "caller is not a worker", nil)
	}
	return p, nil
}

func requireAdmin(ctx context.Context, op string) (*auth.Principal, error) {
	p, err := requirePrincipal(ctx, op)
	if err != nil {
		return nil, err
	}
	if !p.IsAdmin() {
		return nil, domainagg.NewError(domainagg.CodeForbidden, op, "caller is not an administrator", nil)
	}
	return p, nil
}

// requirePermission turns a (bool, error) oracle answer into a forbidden error.
func requirePermission(op, perm string, projectID uuid.UUID, ok bool, err error) error {
	if err != nil {
		return domainagg.Wrap(domainagg.CodeInternal, op, err)
	}
	if !ok {
		return domainagg.NewError(domainagg.CodeForbidden, op, fmt.Sprintf("missing %s permission on project %s", perm, projectID), nil)
	}
	return nil
}

func notFound(op, what string, id uuid.UUID) error {
	return domainagg.NewError(domainagg.CodeNotFound, op, fmt.Sprintf("%s %s not found", what, id), nil)
}

func readErr(op string, err error) error {
	return aggregates.MapError(op, err)
}
