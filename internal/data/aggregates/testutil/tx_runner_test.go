package testutil

import (
	"context"
	"errors"
	"testing"

	"gorm.io/gorm"

	"github.com/yungbote/cytorepo-backend/internal/platform/dbctx"
)

func TestInjectedTxRunnerOutcomes(t *testing.T) {
	bodyErr := errors.New("covariance rejected")
	beginErr := errors.New("begin: too many connections")
	preErr := errors.New("lock wait")
	commitErr := errors.New("commit: connection lost")

	cases := []struct {
		name                    string
		runner                  *InjectedTxRunner
		body                    error
		wantErr                 error
		wantRan                 bool
		begin, commit, rollback int
	}{
		{name: "commit", runner: &InjectedTxRunner{}, wantRan: true, begin: 1, commit: 1},
		{name: "body error rolls back", runner: &InjectedTxRunner{}, body: bodyErr, wantErr: bodyErr, wantRan: true, begin: 1, rollback: 1},
		{name: "begin fails", runner: &InjectedTxRunner{FailBegin: beginErr}, wantErr: beginErr, begin: 1},
		{name: "fails before body", runner: &InjectedTxRunner{FailBeforeBody: preErr}, wantErr: preErr, begin: 1, rollback: 1},
		{name: "commit fails after body", runner: &InjectedTxRunner{FailCommit: commitErr}, wantErr: commitErr, wantRan: true, begin: 1, rollback: 1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			ran := false
			err := tc.runner.InTx(context.Background(), func(_ dbctx.Context) error {
				ran = true
				return tc.body
			})
			if tc.wantErr == nil && err != nil {
				t.Fatalf("unexpected err: %v", err)
			}
			if tc.wantErr != nil && !errors.Is(err, tc.wantErr) {
				t.Fatalf("want %v, got %v", tc.wantErr, err)
			}
			if ran != tc.wantRan {
				t.Fatalf("body ran=%v want=%v", ran, tc.wantRan)
			}
			begin, commit, rollback := tc.runner.Counts()
			if begin != tc.begin || commit != tc.commit || rollback != tc.rollback {
				t.Fatalf("counters begin=%d commit=%d rollback=%d", begin, commit, rollback)
			}
		})
	}
}

func TestInjectedTxRunnerHandsDBToBody(t *testing.T) {
	db := &gorm.DB{}
	r := &InjectedTxRunner{DB: db}
	var got *gorm.DB
	if err := r.InTx(context.Background(), func(dbc dbctx.Context) error {
		got = dbc.Tx
		return nil
	}); err != nil {
		t.Fatalf("InTx: %v", err)
	}
	if got != db {
		t.Fatalf("body should see the injected DB as its transaction")
	}
}
