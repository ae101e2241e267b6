package rest

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"careerflow/application/commands/bus"
	"careerflow/application/ports"
	"careerflow/application/services"
	"careerflow/application/sync"
	domainconfig "careerflow/domain/config"
	"careerflow/domain/core/entities"
	"careerflow/infrastructure/config"
	"careerflow/pkg/auth"
	pkgerrors "careerflow/pkg/errors"
	"careerflow/pkg/observability"
	"careerflow/tests/mocks"
)

type testServer struct {
	handler http.Handler
	ws      *services.WorkspaceService
	metrics *observability.Collector
}

func newTestServer(t *testing.T, backend ports.Backend, validator *auth.JWTValidator) *testServer {
	t.Helper()
	logger := zap.NewNop()
	metrics := observability.NewCollector("test")
	ws := services.NewWorkspaceService(domainconfig.DefaultDomainConfig(), metrics, logger)
	guard := bus.NewInFlight()
	adapter := sync.NewAdapter(ws, backend, guard, logger)
	commandBus := bus.NewCommandBus(bus.InFlightMiddleware(guard))
	require.NoError(t, adapter.Register(commandBus))

	cfg := &config.Config{EnableCORS: true, CORSOrigins: []string{"http://localhost:3000"}}
	router := NewRouter(commandBus, ws, adapter, metrics, validator, pkgerrors.NewErrorHandler(logger, false), cfg, logger)
	return &testServer{handler: router.Setup(), ws: ws, metrics: metrics}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

type nodeBody struct {
	ID       int64   `json:"id"`
	Type     string  `json:"type"`
	Label    string  `json:"label"`
	ParentID int64   `json:"parentId"`
	Y        float64 `json:"y"`
	Version  int     `json:"version"`
	Selected bool    `json:"selected"`
}

type viewBody struct {
	Nodes     []nodeBody `json:"nodes"`
	Selection struct {
		Selected int64   `json:"selectedNode"`
		Multi    []int64 `json:"selectedNodes"`
	} `json:"selection"`
}

func (v viewBody) find(label string) (nodeBody, bool) {
	for _, n := range v.Nodes {
		if n.Label == label {
			return n, true
		}
	}
	return nodeBody{}, false
}

type mutationBody struct {
	CommandID string          `json:"commandId"`
	Result    json.RawMessage `json:"result"`
	View      viewBody        `json:"view"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func (s *testServer) createChild(t *testing.T, parent int64, label string) nodeBody {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/api/v1/nodes/"+itoa(parent)+"/children", map[string]string{"label": label})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode[mutationBody](t, rec)
	var n nodeBody
	require.NoError(t, json.Unmarshal(body.Result, &n))
	return n
}

func itoa(id int64) string {
	return strconv.FormatInt(id, 10)
}

func TestHealthAndReady(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/ready", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ready","mode":"local"}`, rec.Body.String())
}

func TestCompaniesAreLaidOutAlphabetically(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.createChild(t, 1, "Zeta")
	s.createChild(t, 1, "Acme")

	view := decode[viewBody](t, s.do(t, http.MethodGet, "/api/v1/workspace", nil))
	acme, ok := view.find("Acme")
	require.True(t, ok)
	zeta, ok := view.find("Zeta")
	require.True(t, ok)
	assert.Equal(t, 100.0, acme.Y)
	assert.Equal(t, 180.0, zeta.Y)
}

func TestDuplicateCompanyIsConflict(t *testing.T) {
	s := newTestServer(t, nil, nil)
	s.createChild(t, 1, "Acme")

	rec := s.do(t, http.MethodPost, "/api/v1/nodes/1/children", map[string]string{"label": " acme "})
	assert.Equal(t, http.StatusConflict, rec.Code)
	errBody := decode[pkgerrors.ErrorResponse](t, rec)
	assert.Equal(t, "DUPLICATE_NAME", errBody.Code)
	assert.Len(t, s.ws.Snapshot().Tree.Nodes(), 2)
}

func TestRolesAppearAfterClickingCompany(t *testing.T) {
	s := newTestServer(t, nil, nil)
	company := s.createChild(t, 1, "Acme")
	role := s.createChild(t, company.ID, "SWE")
	assert.Equal(t, string(entities.KindRole), role.Type)

	view := decode[viewBody](t, s.do(t, http.MethodGet, "/api/v1/workspace", nil))
	_, visible := view.find("SWE")
	assert.False(t, visible)

	rec := s.do(t, http.MethodPost, "/api/v1/selection/click", map[string]int64{"id": company.ID})
	require.Equal(t, http.StatusOK, rec.Code)
	view = decode[viewBody](t, rec)
	_, visible = view.find("SWE")
	assert.True(t, visible)
	assert.Equal(t, company.ID, view.Selection.Selected)
}

func TestRoleCannotReceiveChildren(t *testing.T) {
	s := newTestServer(t, nil, nil)
	company := s.createChild(t, 1, "Acme")
	role := s.createChild(t, company.ID, "SWE")

	rec := s.do(t, http.MethodPost, "/api/v1/nodes/"+itoa(role.ID)+"/children", map[string]string{"label": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "UNSUPPORTED_CHILD", decode[pkgerrors.ErrorResponse](t, rec).Code)
}

func TestRenameAndDelete(t *testing.T) {
	s := newTestServer(t, nil, nil)
	company := s.createChild(t, 1, "Acme")

	rec := s.do(t, http.MethodPut, "/api/v1/nodes/"+itoa(company.ID), map[string]string{"label": "Globex"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	_, ok := decode[mutationBody](t, rec).View.find("Globex")
	assert.True(t, ok)

	rec = s.do(t, http.MethodDelete, "/api/v1/nodes/"+itoa(company.ID), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, s.ws.Snapshot().Tree.Nodes(), 1)
}

func TestBaseNodeCannotBeDeleted(t *testing.T) {
	s := newTestServer(t, nil, nil)

	rec := s.do(t, http.MethodDelete, "/api/v1/nodes/1", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "PROTECTED_NODE", decode[pkgerrors.ErrorResponse](t, rec).Code)
}

func TestBadRequests(t *testing.T) {
	s := newTestServer(t, nil, nil)

	tests := []struct {
		name   string
		method string
		path   string
		body   interface{}
		status int
	}{
		{"invalid node id", http.MethodDelete, "/api/v1/nodes/abc", nil, http.StatusBadRequest},
		{"unknown node", http.MethodPost, "/api/v1/nodes/99/children", map[string]string{"label": "x"}, http.StatusNotFound},
		{"unknown field", http.MethodPut, "/api/v1/nodes/1", map[string]string{"name": "x"}, http.StatusBadRequest},
		{"blank label", http.MethodPost, "/api/v1/nodes/1/children", map[string]string{"label": "  "}, http.StatusBadRequest},
		{"unknown type", http.MethodPost, "/api/v1/selection/select-all", map[string]string{"type": "team"}, http.StatusBadRequest},
		{"select all without selection", http.MethodPost, "/api/v1/selection/select-all", map[string]string{}, http.StatusBadRequest},
		{"delete without selection", http.MethodPost, "/api/v1/selection/delete", nil, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := s.do(t, tt.method, tt.path, tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestMultiSelectionDelete(t *testing.T) {
	s := newTestServer(t, nil, nil)
	a := s.createChild(t, 1, "Acme")
	b := s.createChild(t, 1, "Globex")
	s.createChild(t, 1, "Initech")

	for _, id := range []int64{a.ID, b.ID} {
		rec := s.do(t, http.MethodPost, "/api/v1/selection/toggle", map[string]int64{"id": id})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	}
	view := decode[viewBody](t, s.do(t, http.MethodGet, "/api/v1/workspace", nil))
	assert.Equal(t, []int64{a.ID, b.ID}, view.Selection.Multi)

	rec := s.do(t, http.MethodPost, "/api/v1/selection/delete", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body := decode[mutationBody](t, rec)
	assert.Empty(t, body.View.Selection.Multi)
	initech, ok := body.View.find("Initech")
	require.True(t, ok)
	assert.Equal(t, 100.0, initech.Y)
}

func TestSelectAllAndClear(t *testing.T) {
	s := newTestServer(t, nil, nil)
	a := s.createChild(t, 1, "Acme")
	s.createChild(t, 1, "Globex")

	s.do(t, http.MethodPost, "/api/v1/selection/toggle", map[string]int64{"id": a.ID})
	rec := s.do(t, http.MethodPost, "/api/v1/selection/select-all", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Len(t, decode[viewBody](t, rec).Selection.Multi, 2)

	rec = s.do(t, http.MethodPost, "/api/v1/selection/clear", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode[viewBody](t, rec).Selection.Multi)
}

func TestUploadCVMultipart(t *testing.T) {
	s := newTestServer(t, nil, nil)

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", "cv.txt")
	require.NoError(t, err)
	_, err = part.Write([]byte("ten years of Go"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/cv", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	cv := s.ws.Snapshot().Tree.Root().Details().(entities.BaseDetails)
	assert.Equal(t, "cv.txt", cv.Filename)
	assert.Equal(t, "ten years of Go", cv.Text)

	rec = s.do(t, http.MethodPut, "/api/v1/cv/text", map[string]string{"text": "edited"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "edited", s.ws.Snapshot().Tree.Root().Details().(entities.BaseDetails).Text)
}

func TestUploadWithoutFileIsRejected(t *testing.T) {
	s := newTestServer(t, nil, nil)
	rec := s.do(t, http.MethodPost, "/api/v1/cv", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReload(t *testing.T) {
	t.Run("local only", func(t *testing.T) {
		s := newTestServer(t, nil, nil)
		rec := s.do(t, http.MethodPost, "/api/v1/sync/reload", nil)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Body.String(), `"localOnly":true`)
	})

	t.Run("mirrors backend", func(t *testing.T) {
		backend := new(mocks.MockBackend)
		backend.On("ListCompanies", mock.Anything).Return([]ports.Company{{ID: 1, Name: "Acme"}}, nil)
		backend.On("ListJobs", mock.Anything).Return([]ports.Job{}, nil)
		backend.On("ListTailoredResumes", mock.Anything, int64(0)).Return([]ports.TailoredResume{}, nil)
		backend.On("GetLatestCV", mock.Anything).Return((*ports.CVMeta)(nil), nil)
		s := newTestServer(t, backend, nil)

		rec := s.do(t, http.MethodPost, "/api/v1/sync/reload", nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Contains(t, rec.Body.String(), `"added":1`)
		backend.AssertExpectations(t)
	})

	t.Run("backend failure", func(t *testing.T) {
		backend := new(mocks.MockBackend)
		backend.On("ListCompanies", mock.Anything).Return([]ports.Company(nil), errors.New("connection refused"))
		s := newTestServer(t, backend, nil)

		rec := s.do(t, http.MethodPost, "/api/v1/sync/reload", nil)
		assert.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "BACKEND_ERROR", decode[pkgerrors.ErrorResponse](t, rec).Code)
	})
}

func TestAuthentication(t *testing.T) {
	validator, err := auth.NewJWTValidator(auth.JWTConfig{SecretKey: "secret", Issuer: "careerflow"})
	require.NoError(t, err)
	s := newTestServer(t, nil, validator)

	rec := s.do(t, http.MethodGet, "/api/v1/workspace", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	errBody := decode[pkgerrors.ErrorResponse](t, rec)
	assert.Equal(t, "MISSING_TOKEN", errBody.Code)
	assert.Equal(t, "UNAUTHORIZED", errBody.Type)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/workspace", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "INVALID_TOKEN", decode[pkgerrors.ErrorResponse](t, rec).Code)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, auth.Claims{
		UserID: "user-1",
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    "careerflow",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}).SignedString([]byte("secret"))
	require.NoError(t, err)

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workspace", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = s.do(t, http.MethodGet, "/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsUseRoutePatterns(t *testing.T) {
	s := newTestServer(t, nil, nil)
	company := s.createChild(t, 1, "Acme")
	s.do(t, http.MethodPut, "/api/v1/nodes/"+itoa(company.ID), map[string]string{"label": "Globex"})

	rec := s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Contains(t, body, `route="/api/v1/nodes/{nodeID}"`)
	assert.Contains(t, body, `test_nodes_created_total{type="company"} 1`)
}
