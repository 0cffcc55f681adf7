package testutil

import (
	"context"
	"sync"

	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/data/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

// InjectedTxRunner stands in for the gorm runner in aggregate tests and can
// fail at begin, before the body, or at commit. The body runs against DB as
// dbc.Tx; the runner never commits or rolls DB back itself, so a test that
// passes an outer transaction still sees what the body wrote.
type InjectedTxRunner struct {
	mu sync.Mutex

	DB *gorm.DB

	FailBegin      error
	FailBeforeBody error
	FailCommit     error

	BeginCalls    int
	CommitCalls   int
	RollbackCalls int
}

var _ aggregates.TxRunner = (*InjectedTxRunner)(nil)

func (r *InjectedTxRunner) InTx(ctx context.Context, fn func(dbc dbctx.Context) error) error {
	r.mu.Lock()
	r.BeginCalls++
	failBegin, failBeforeBody, failCommit := r.FailBegin, r.FailBeforeBody, r.FailCommit
	r.mu.Unlock()

	if failBegin != nil {
		return failBegin
	}
	if failBeforeBody != nil {
		return r.rollback(failBeforeBody)
	}
	if fn != nil {
		if err := fn(dbctx.Context{Ctx: ctx, Tx: r.DB}); err != nil {
			return r.rollback(err)
		}
	}
	if failCommit != nil {
		return r.rollback(failCommit)
	}
	r.mu.Lock()
	r.CommitCalls++
	r.mu.Unlock()
	return nil
}

func (r *InjectedTxRunner) rollback(err error) error {
	r.mu.Lock()
	r.RollbackCalls++
	r.mu.Unlock()
	return err
}

// Counts returns begin, commit and rollback counts.
func (r *InjectedTxRunner) Counts() (begin, commit, rollback int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.BeginCalls, r.CommitCalls, r.RollbackCalls
}
