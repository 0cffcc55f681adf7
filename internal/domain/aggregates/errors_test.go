package aggregates

import (
	"errors"
	"fmt"
	"testing"
)

func TestErrorFormatting(t *testing.T) {
	err := NewError(CodeConflict, "Processing.Assignment.Claim", "already assigned", nil)
	if got := err.Error(); got != "Processing.Assignment.Claim: already assigned (conflict)" {
		t.Fatalf("unexpected message: %q", got)
	}
	if got := NewError(CodeInternal, "", "", nil).Error(); got != "internal" {
		t.Fatalf("bare code: %q", got)
	}
}

func TestIsCodeThroughWrapping(t *testing.T) {
	base := NewError(CodeNotModified, "op", "guard failed", nil)
	wrapped := fmt.Errorf("service: %w", base)
	if !IsCode(wrapped, CodeNotModified) {
		t.Fatalf("expected not_modified through fmt wrapping")
	}
	if CodeOf(errors.New("plain")) != "" {
		t.Fatalf("plain errors carry no code")
	}
}

func TestFieldError(t *testing.T) {
	err := FieldError("op", "label", "project mismatch")
	if !IsCode(err, CodeValidation) {
		t.Fatalf("expected validation code, got %q", CodeOf(err))
	}
	fields := FieldsOf(err)
	if fields["label"] != "project mismatch" {
		t.Fatalf("unexpected fields: %+v", fields)
	}
}

func TestFieldCodeErrorKeepsCause(t *testing.T) {
	cause := errors.New("unique constraint failed: cluster.process_request_id, cluster.cluster_index")
	err := FieldCodeError(CodeConflict, "Processing.Results.CreateCluster", "index", "cluster index 3 already exists", cause)
	if !IsCode(err, CodeConflict) || FieldsOf(err)["index"] != "cluster index 3 already exists" {
		t.Fatalf("unexpected error: %v fields=%v", err, FieldsOf(err))
	}
	if !errors.Is(err, cause) {
		t.Fatalf("cause should stay in the chain")
	}
	if got := NewError(CodeNotFound, "", "worker not found", nil).Error(); got != "worker not found (not_found)" {
		t.Fatalf("message only: %q", got)
	}
}
