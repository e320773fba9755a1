package v1_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"studentrecords/internal/domain/auth"
	"studentrecords/internal/domain/mirror"
	"studentrecords/internal/domain/record"
	v1 "studentrecords/internal/infrastructure/http/v1"
	"studentrecords/internal/infrastructure/http/v1/handlers"
	"studentrecords/internal/infrastructure/storage/postgres"
	"studentrecords/internal/testutil"
	"studentrecords/pkg/logger"
)

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type pooledPinger struct{ pinger }

func (pooledPinger) Stats() postgres.PoolStats {
	return postgres.PoolStats{TotalConns: 4, AcquiredConns: 1, IdleConns: 3, MaxConns: 10}
}

type server struct {
	router *gin.Engine
	docs   *mirror.MemoryStore
	tokens *testutil.TokenRepo
}

func newServer(t *testing.T, store handlers.Pinger) server {
	t.Helper()

	docs := mirror.NewMemoryStore()
	records := record.NewService(record.ServiceConfig{
		Repo:   testutil.NewRecordRepo(),
		Mirror: mirror.NewBridge(docs),
	})

	tokens := testutil.NewTokenRepo()
	cfg := auth.DefaultServiceConfig()
	cfg.BcryptCost = bcrypt.MinCost
	authSvc := auth.NewService(
		testutil.NewUserRepo(),
		tokens,
		nil,
		auth.NewJWTService(auth.DefaultJWTConfig("test-secret")),
		cfg,
	)

	router := v1.NewRouter(v1.RouterConfig{
		Logger:  logger.Default(),
		Records: records,
		Auth:    authSvc,
		Store:   store,
	})
	return server{router: router, docs: docs, tokens: tokens}
}

func (s server) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

type session struct {
	access  string
	refresh string
}

func (s server) register(t *testing.T, username string) session {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":        username,
		"password":        "correct-horse",
		"passwordConfirm": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	body := decode(t, w)
	tokens := body["tokens"].(map[string]any)
	assert.Equal(t, username, body["user"].(map[string]any)["username"])
	return session{
		access:  tokens["accessToken"].(string),
		refresh: tokens["refreshToken"].(string),
	}
}

func TestHealth(t *testing.T) {
	s := newServer(t, pinger{})
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/live", "", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(t, http.MethodGet, "/health/ready", "", nil).Code)

	down := newServer(t, pinger{err: errors.New("connection refused")})
	w := down.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "error", decode(t, w)["status"])
	assert.NotContains(t, decode(t, w), "pool")
}

func TestHealth_ReportsPoolStats(t *testing.T) {
	s := newServer(t, pooledPinger{})
	w := s.do(t, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	pool, ok := decode(t, w)["pool"].(map[string]any)
	require.True(t, ok, w.Body.String())
	assert.EqualValues(t, 1, pool["acquiredConns"])
	assert.EqualValues(t, 10, pool["maxConns"])

	w = newServer(t, pinger{}).do(t, http.MethodGet, "/health/ready", "", nil)
	assert.NotContains(t, decode(t, w), "pool")
}

func TestRecords_RequireLogin(t *testing.T) {
	s := newServer(t, pinger{})

	for _, tc := range []struct{ method, path, token string }{
		{http.MethodGet, "/api/v1/records", ""},
		{http.MethodPost, "/api/v1/records", ""},
		{http.MethodGet, "/api/v1/records/1", ""},
		{http.MethodDelete, "/api/v1/records/1", ""},
		{http.MethodGet, "/api/v1/records", "not-a-jwt"},
	} {
		w := s.do(t, tc.method, tc.path, tc.token, nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code, "%s %s", tc.method, tc.path)
		assert.Equal(t, "UNAUTHORIZED", decode(t, w)["code"])
	}
}

func TestRecords_Lifecycle(t *testing.T) {
	s := newServer(t, pinger{})
	token := s.register(t, "registrar").access

	w := s.do(t, http.MethodPost, "/api/v1/records", token, map[string]any{
		"firstName": "Ann",
		"lastName":  "Lee",
		"class":     "10A",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.EqualValues(t, 1, created["id"])
	assert.Equal(t, "Ann Lee", created["fullName"])
	createdAt := created["createdAt"]
	require.NotEmpty(t, createdAt)

	doc, ok := s.docs.Get(1)
	require.True(t, ok)
	assert.Equal(t, "10A", doc.Class)

	w = s.do(t, http.MethodPatch, "/api/v1/records/1", token, map[string]any{
		"city":      "Austin",
		"id":        99,
		"createdAt": "2001-01-01T00:00:00Z",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	patched := decode(t, w)
	assert.EqualValues(t, 1, patched["id"])
	assert.Equal(t, createdAt, patched["createdAt"])
	assert.Equal(t, "Austin", patched["city"])
	assert.Equal(t, "10A", patched["class"])

	doc, _ = s.docs.Get(1)
	assert.Equal(t, "Austin", doc.City)

	w = s.do(t, http.MethodPut, "/api/v1/records/1", token, map[string]any{
		"firstName": "Ann",
		"lastName":  "Lee-Park",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	replaced := decode(t, w)
	assert.Equal(t, "Lee-Park", replaced["lastName"])
	assert.Equal(t, "", replaced["city"])

	w = s.do(t, http.MethodGet, "/api/v1/records", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.EqualValues(t, 1, decode(t, w)["total"])

	w = s.do(t, http.MethodDelete, "/api/v1/records/1", token, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodGet, "/api/v1/records/1", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", decode(t, w)["code"])
	_, ok = s.docs.Get(1)
	assert.False(t, ok)

	w = s.do(t, http.MethodDelete, "/api/v1/records/1", token, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRecords_BadInput(t *testing.T) {
	s := newServer(t, pinger{})
	token := s.register(t, "registrar").access

	tests := []struct {
		name      string
		method    string
		path      string
		body      any
		want      int
		wantField string
	}{
		{"missing last name", http.MethodPost, "/api/v1/records", map[string]any{"firstName": "Ann"}, http.StatusBadRequest, "lastName"},
		{"first name too long", http.MethodPost, "/api/v1/records",
			map[string]any{"firstName": strings.Repeat("a", 51), "lastName": "Lee"}, http.StatusBadRequest, "firstName"},
		{"blank first name", http.MethodPost, "/api/v1/records", map[string]any{"firstName": "   ", "lastName": "Lee"}, http.StatusBadRequest, "firstName"},
		{"non-numeric id", http.MethodGet, "/api/v1/records/abc", nil, http.StatusBadRequest, "id"},
		{"zero id", http.MethodGet, "/api/v1/records/0", nil, http.StatusBadRequest, "id"},
		{"patch missing record", http.MethodPatch, "/api/v1/records/42", map[string]any{"city": "Austin"}, http.StatusNotFound, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := s.do(t, tt.method, tt.path, token, tt.body)
			assert.Equal(t, tt.want, w.Code, w.Body.String())
			if tt.wantField != "" {
				details, ok := decode(t, w)["details"].(map[string]any)
				require.True(t, ok, w.Body.String())
				assert.Equal(t, tt.wantField, details["field"])
			}
		})
	}
	assert.Empty(t, s.docs.Keys())
}

func TestRecords_LimitsApplyAfterTrimming(t *testing.T) {
	s := newServer(t, pinger{})
	token := s.register(t, "registrar").access

	name := strings.Repeat("a", record.MaxFirstNameLen)
	w := s.do(t, http.MethodPost, "/api/v1/records", token, map[string]any{
		"firstName": name + " ",
		"lastName":  "  Lee",
		"city":      "\t" + strings.Repeat("c", record.MaxCityLen) + "\n",
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, name, created["firstName"])
	assert.Equal(t, "Lee", created["lastName"])

	w = s.do(t, http.MethodPatch, "/api/v1/records/1", token, map[string]any{
		"state": strings.Repeat("s", record.MaxStateLen) + "   ",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, strings.Repeat("s", record.MaxStateLen), decode(t, w)["state"])

	w = s.do(t, http.MethodPatch, "/api/v1/records/1", token, map[string]any{
		"state": strings.Repeat("s", record.MaxStateLen+1),
	})
	require.Equal(t, http.StatusBadRequest, w.Code, w.Body.String())
	assert.Equal(t, "state", decode(t, w)["details"].(map[string]any)["field"])
}

func TestAuth_Flow(t *testing.T) {
	s := newServer(t, pinger{})
	sess := s.register(t, "ann")

	w := s.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]any{
		"username":        "ann",
		"password":        "correct-horse",
		"passwordConfirm": "correct-horse",
	})
	assert.Equal(t, http.StatusConflict, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "ann",
		"password": "wrong-password",
	})
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]any{
		"username": "ann",
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	w = s.do(t, http.MethodGet, "/api/v1/auth/me", sess.access, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ann", decode(t, w)["username"])

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refreshToken": sess.refresh})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	rotated := decode(t, w)["refreshToken"].(string)
	assert.NotEqual(t, sess.refresh, rotated)

	w = s.do(t, http.MethodPost, "/api/v1/auth/logout", sess.access, nil)
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, http.MethodPost, "/api/v1/auth/refresh", "", map[string]any{"refreshToken": rotated})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
