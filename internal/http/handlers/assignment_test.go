package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	types "github.com/yungbote/cytorepo-backend/internal/domain"
	domainagg "github.com/yungbote/cytorepo-backend/internal/domain/aggregates"
	"github.com/yungbote/cytorepo-backend/internal/domain/processing"
	"github.com/yungbote/cytorepo-backend/internal/platform/logger"
)

// stubAssignment answers every call with err when set, else echoes the id.
type stubAssignment struct {
	err         error
	lastPercent *int
	lastMessage string
}

func (s *stubAssignment) pr(id uuid.UUID, st processing.Status) (*types.ProcessRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &types.ProcessRequest{ID: id, Status: st}, nil
}

func (s *stubAssignment) ListViable(context.Context) ([]*types.ProcessRequest, error) {
	if s.err != nil {
		return nil, s.err
	}
	return []*types.ProcessRequest{{ID: uuid.New(), Status: processing.StatusPending}}, nil
}

func (s *stubAssignment) ListAssigned(context.Context) ([]*types.ProcessRequest, error) {
	return nil, s.err
}

func (s *stubAssignment) Claim(_ context.Context, id uuid.UUID) (*types.ProcessRequest, error) {
	return s.pr(id, processing.StatusWorking)
}

func (s *stubAssignment) Revoke(_ context.Context, id uuid.UUID) (*types.ProcessRequest, error) {
	return s.pr(id, processing.StatusPending)
}

func (s *stubAssignment) ReportError(_ context.Context, id uuid.UUID, msg string) (*types.ProcessRequest, error) {
	s.lastMessage = msg
	return s.pr(id, processing.StatusError)
}

func (s *stubAssignment) Complete(_ context.Context, id uuid.UUID) (*types.ProcessRequest, error) {
	return s.pr(id, processing.StatusCompleted)
}

func (s *stubAssignment) Heartbeat(_ context.Context, id uuid.UUID, percent *int) (*types.ProcessRequest, error) {
	s.lastPercent = percent
	return s.pr(id, processing.StatusWorking)
}

func (s *stubAssignment) VerifyAssignment(context.Context, uuid.UUID) (bool, error) {
	return s.err == nil, s.err
}

func assignmentRouter(svc *stubAssignment) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewAssignmentHandler(logger.NewNop(), svc)
	r := gin.New()
	r.GET("/viable", h.ListViable)
	r.POST("/pr/:id/claim", h.Claim)
	r.POST("/pr/:id/error", h.ReportError)
	r.POST("/pr/:id/complete", h.Complete)
	r.POST("/pr/:id/heartbeat", h.Heartbeat)
	r.GET("/pr/:id/assignment", h.VerifyAssignment)
	return r
}

func do(r http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestAssignmentHandlerClaim(t *testing.T) {
	svc := &stubAssignment{}
	r := assignmentRouter(svc)
	id := uuid.New()

	w := do(r, http.MethodPost, "/pr/"+id.String()+"/claim", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		ProcessRequest types.ProcessRequest `json:"process_request"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Equal(t, id, out.ProcessRequest.ID)
	require.Equal(t, processing.StatusWorking, out.ProcessRequest.Status)

	w = do(r, http.MethodPost, "/pr/not-a-uuid/claim", "")
	require.Equal(t, http.StatusBadRequest, w.Code)
	require.Contains(t, w.Body.String(), "invalid_process_request_id")
}

func TestAssignmentHandlerGuardFailuresMapToStatus(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want int
	}{
		{"already claimed", domainagg.NewError(domainagg.CodeConflict, "claim", "process request is already assigned", nil), http.StatusConflict},
		{"benign no-op", domainagg.NewError(domainagg.CodeNotModified, "complete", "not modified", nil), http.StatusNotModified},
		{"wrong role", domainagg.NewError(domainagg.CodeForbidden, "claim", "worker role required", nil), http.StatusForbidden},
		{"missing", domainagg.NewError(domainagg.CodeNotFound, "claim", "process request not found", nil), http.StatusNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := assignmentRouter(&stubAssignment{err: tc.err})
			w := do(r, http.MethodPost, "/pr/"+uuid.NewString()+"/complete", "")
			require.Equal(t, tc.want, w.Code)
			if tc.want == http.StatusNotModified {
				require.Empty(t, w.Body.String())
			}
		})
	}
}

func TestAssignmentHandlerBodies(t *testing.T) {
	svc := &stubAssignment{}
	r := assignmentRouter(svc)
	id := uuid.NewString()

	w := do(r, http.MethodPost, "/pr/"+id+"/heartbeat", `{"percent_complete":40}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotNil(t, svc.lastPercent)
	require.Equal(t, 40, *svc.lastPercent)

	w = do(r, http.MethodPost, "/pr/"+id+"/heartbeat", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.Nil(t, svc.lastPercent)

	w = do(r, http.MethodPost, "/pr/"+id+"/heartbeat", `{"percent_complete":"forty"}`)
	require.Equal(t, http.StatusBadRequest, w.Code)

	w = do(r, http.MethodPost, "/pr/"+id+"/error", `{"message":"segfault in step 3"}`)
	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "segfault in step 3", svc.lastMessage)
}

func TestAssignmentHandlerVerifyAndList(t *testing.T) {
	r := assignmentRouter(&stubAssignment{})
	w := do(r, http.MethodGet, "/pr/"+uuid.NewString()+"/assignment", "")
	require.Equal(t, http.StatusOK, w.Code)
	require.JSONEq(t, `{"assigned":true}`, w.Body.String())

	w = do(r, http.MethodGet, "/viable", "")
	require.Equal(t, http.StatusOK, w.Code)
	var out struct {
		ProcessRequests []types.ProcessRequest `json:"process_requests"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	require.Len(t, out.ProcessRequests, 1)
}

func TestAssignmentHandlerHidesInternalErrors(t *testing.T) {
	r := assignmentRouter(&stubAssignment{err: errBoom})
	w := do(r, http.MethodPost, "/pr/"+uuid.NewString()+"/claim", "")
	require.Equal(t, http.StatusInternalServerError, w.Code)
	require.NotContains(t, w.Body.String(), errBoom.Error())
}
