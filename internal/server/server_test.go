package server

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/images"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/model"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/ratelimit"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/service/directory"
	"github.com/AhmedFT-hub/FT-Agent-Studio/internal/storage/sqlite"
)

var pngBytes = []byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR\x00\x00\x00\x01\x00\x00\x00\x01\x08\x06\x00\x00\x00")

type memImageStore struct {
	keys []string
}

func (m *memImageStore) Put(_ context.Context, key, _ string, r io.Reader, _ int64) (string, error) {
	if _, err := io.Copy(io.Discard, r); err != nil {
		return "", err
	}
	m.keys = append(m.keys, key)
	return "https://cdn.example.com/agent-images/" + key, nil
}

type denyAll struct{}

func (denyAll) Allow(context.Context, string) (bool, error) { return false, nil }
func (denyAll) Close() error                                { return nil }

type testEnv struct {
	handler http.Handler
	broker  *Broker
	images  *memImageStore
}

func newTestEnv(t *testing.T, mutate func(*ServerConfig)) *testEnv {
	t.Helper()
	store, err := sqlite.Open(context.Background(), sqlite.MemoryPath, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	broker := NewBroker(nil, testLogger())
	svc := directory.New(store, testLogger(), directory.WithPublisher(broker))
	imgs := &memImageStore{}

	cfg := ServerConfig{
		Directory:           svc,
		Storage:             store,
		StorageDriver:       store.Driver(),
		Logger:              testLogger(),
		Uploader:            images.NewUploader(imgs, 1024),
		Broker:              broker,
		Version:             "test",
		MaxRequestBodyBytes: 1 << 20,
		OpenAPISpec:         []byte("openapi: 3.1.0\n"),
	}
	if mutate != nil {
		mutate(&cfg)
	}
	return &testEnv{handler: New(cfg).Handler(), broker: broker, images: imgs}
}

func (e *testEnv) do(t *testing.T, method, target string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var rdr io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		rdr = strings.NewReader(b)
	default:
		data, err := json.Marshal(b)
		require.NoError(t, err)
		rdr = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, target, rdr)
	req.RemoteAddr = "10.1.1.1:5000"
	if rdr != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	return rec
}

// envelope decodes a {data, meta} body into data.
func envelope[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var body struct {
		Data T                  `json:"data"`
		Meta model.ResponseMeta `json:"meta"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	assert.NotEmpty(t, body.Meta.RequestID)
	return body.Data
}

func apiError(t *testing.T, rec *httptest.ResponseRecorder) model.ErrorDetail {
	t.Helper()
	var body struct {
		Error struct {
			Code    string                  `json:"code"`
			Message string                  `json:"message"`
			Details model.ValidationDetails `json:"details"`
		} `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return model.ErrorDetail{Code: body.Error.Code, Message: body.Error.Message, Details: body.Error.Details}
}

func newDraft(name string) map[string]any {
	return map[string]any{
		"name":        name,
		"description": "Plans loads",
		"vercelUrl":   "https://loads.example.com",
		"tags":        []string{"AI", "Loads"},
	}
}

func TestHealthEndpoint(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	health := envelope[model.HealthResponse](t, rec)
	assert.Equal(t, "healthy", health.Status)
	assert.Equal(t, "connected", health.Storage)
	assert.Equal(t, sqlite.DriverName, health.Driver)
	assert.Equal(t, "running", health.SSEBroker)
	assert.Equal(t, "test", health.Version)
}

func TestSecurityHeadersAndRequestID(t *testing.T) {
	env := newTestEnv(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("X-Request-ID", "req-123")
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)

	assert.Equal(t, "req-123", rec.Header().Get("X-Request-ID"))
	assert.Equal(t, "nosniff", rec.Header().Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", rec.Header().Get("X-Frame-Options"))

	rec = env.do(t, http.MethodGet, "/health", nil)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestListAgents_SeedOnly(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/v1/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	list := envelope[model.ListAgentsResponse](t, rec)
	assert.Len(t, list.Agents, 9)
	assert.Empty(t, list.CustomAgents)
	assert.NotNil(t, list.CustomAgents)
	assert.Empty(t, list.Overrides)
}

func TestCreateAgent(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/v1/agents", newDraft("Route  Optimizer"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := envelope[model.MutationResult](t, rec)
	require.True(t, res.Success)
	require.NotNil(t, res.Agent)
	assert.True(t, strings.HasPrefix(res.Agent.ID, "custom-"))
	assert.Equal(t, "route-optimizer", res.Agent.Slug)
	assert.Equal(t, "https://loads.example.com", res.Agent.ExternalURL)
	assert.Equal(t, model.CategoryOther, res.Agent.Category)
	assert.Equal(t, model.DefaultImageURL, res.Agent.ImageURL)

	list := envelope[model.ListAgentsResponse](t, env.do(t, http.MethodGet, "/v1/agents", nil))
	assert.Len(t, list.Agents, 10)
	require.Len(t, list.CustomAgents, 1)
	assert.Equal(t, res.Agent.ID, list.CustomAgents[0].ID)
	assert.Equal(t, res.Agent.ID, list.Agents[9].ID)
}

func TestCreateAgent_MissingFields(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/v1/agents", map[string]any{"name": "Only a name"})
	require.Equal(t, http.StatusBadRequest, rec.Code)

	e := apiError(t, rec)
	assert.Equal(t, model.ErrCodeInvalidInput, e.Code)
	assert.Equal(t, model.ValidationDetails{Fields: []string{"description", "externalUrl"}}, e.Details)
}

func TestCreateAgent_MalformedBody(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodPost, "/v1/agents", "{not json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ErrCodeInvalidInput, apiError(t, rec).Code)
}

func TestCreateAgent_BodyTooLarge(t *testing.T) {
	env := newTestEnv(t, func(c *ServerConfig) { c.MaxRequestBodyBytes = 32 })
	rec := env.do(t, http.MethodPost, "/v1/agents", newDraft(strings.Repeat("x", 100)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.Equal(t, model.ErrCodePayloadTooLarge, apiError(t, rec).Code)
}

func TestUpdateDefaultAgent_OverrideAndReset(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPut, "/v1/agents", map[string]any{
		"id":        "4",
		"isDefault": true,
		"updates":   map[string]any{"name": "Load Matcher", "status": "Beta"},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := envelope[model.MutationResult](t, rec)
	require.NotNil(t, res.Agent)
	assert.Equal(t, "Load Matcher", res.Agent.Name)
	assert.Equal(t, "load-matcher", res.Agent.Slug)

	got := envelope[model.AgentRecord](t, env.do(t, http.MethodGet, "/v1/agents/4", nil))
	assert.Equal(t, "Load Matcher", got.Name)
	assert.Equal(t, model.StatusBeta, got.Status)
	assert.Equal(t, model.CategoryPlanning, got.Category)

	list := envelope[model.ListAgentsResponse](t, env.do(t, http.MethodGet, "/v1/agents", nil))
	require.Contains(t, list.Overrides, "4")
	assert.Equal(t, list.Overrides, list.AgentOverrides)

	rec = env.do(t, http.MethodDelete, "/v1/agents?id=4&reset=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	got = envelope[model.AgentRecord](t, env.do(t, http.MethodGet, "/v1/agents/4", nil))
	assert.Equal(t, "Load Assignment", got.Name)
	assert.Equal(t, model.StatusLive, got.Status)
}

func TestUpdateAgent_Errors(t *testing.T) {
	env := newTestEnv(t, nil)

	tests := []struct {
		name   string
		body   any
		status int
		fields []string
	}{
		{"missing id", map[string]any{"updates": map[string]any{"name": "x"}}, http.StatusBadRequest, []string{"id"}},
		{"missing updates", map[string]any{"id": "4", "isDefault": true}, http.StatusBadRequest, []string{"updates"}},
		{"unknown key", map[string]any{"id": "4", "isDefault": true, "updates": map[string]any{"bogus": 1}}, http.StatusBadRequest, []string{"bogus"}},
		{"blank name", map[string]any{"id": "4", "isDefault": true, "updates": map[string]any{"name": " "}}, http.StatusBadRequest, []string{"name"}},
		{"unknown default", map[string]any{"id": "404", "isDefault": true, "updates": map[string]any{"name": "x"}}, http.StatusNotFound, nil},
		{"unknown custom", map[string]any{"id": "custom-1", "updates": map[string]any{"name": "x"}}, http.StatusNotFound, nil},
		{"seed via custom path", map[string]any{"id": "4", "updates": map[string]any{"name": "x"}}, http.StatusBadRequest, []string{"isDefault"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPut, "/v1/agents", tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			e := apiError(t, rec)
			if tt.fields != nil {
				assert.Equal(t, model.ErrCodeInvalidInput, e.Code)
				assert.Equal(t, model.ValidationDetails{Fields: tt.fields}, e.Details)
			} else {
				assert.Equal(t, model.ErrCodeNotFound, e.Code)
			}
		})
	}
}

func TestUpdateAndDeleteCustomAgent(t *testing.T) {
	env := newTestEnv(t, nil)
	created := envelope[model.MutationResult](t, env.do(t, http.MethodPost, "/v1/agents", newDraft("Rate Finder")))
	id := created.Agent.ID

	rec := env.do(t, http.MethodPut, "/v1/agents", map[string]any{
		"id":      id,
		"updates": map[string]any{"name": "Rate Scout", "tags": []string{}},
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := envelope[model.MutationResult](t, rec)
	assert.Equal(t, "rate-scout", updated.Agent.Slug)
	assert.Empty(t, updated.Agent.Tags)

	rec = env.do(t, http.MethodDelete, "/v1/agents?id="+id, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, envelope[model.MutationResult](t, rec).Success)

	// Idempotent.
	rec = env.do(t, http.MethodDelete, "/v1/agents?id="+id, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodGet, "/v1/agents/"+id, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAgent_BadQuery(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodDelete, "/v1/agents", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ValidationDetails{Fields: []string{"id"}}, apiError(t, rec).Details)

	rec = env.do(t, http.MethodDelete, "/v1/agents?id=4&reset=maybe", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ValidationDetails{Fields: []string{"reset"}}, apiError(t, rec).Details)
}

func TestLegacyAlias_BareBodies(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/agents", newDraft("Dock Scheduler"))
	require.Equal(t, http.StatusOK, rec.Code)
	var created model.MutationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.True(t, created.Success)
	require.NotNil(t, created.Agent)

	rec = env.do(t, http.MethodGet, "/api/agents", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &raw))
	assert.Contains(t, raw, "agents")
	assert.Contains(t, raw, "customAgents")
	assert.Contains(t, raw, "agentOverrides")
	assert.NotContains(t, raw, "data")

	rec = env.do(t, http.MethodPost, "/api/agents", map[string]any{"name": "x"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	var failed model.LegacyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &failed))
	assert.False(t, failed.Success)
	assert.NotEmpty(t, failed.Error)
	assert.Equal(t, []string{"description", "externalUrl"}, failed.Fields)

	rec = env.do(t, http.MethodDelete, "/api/agents", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"success":false`)
}

func TestCatalogSearch(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/v1/catalog?category=Planning", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	res := envelope[model.CatalogResponse](t, rec)
	assert.Equal(t, 3, res.Total)

	rec = env.do(t, http.MethodGet, "/v1/catalog?category=Planning&status=Beta", nil)
	res = envelope[model.CatalogResponse](t, rec)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "7", res.Agents[0].ID)

	rec = env.do(t, http.MethodGet, "/v1/catalog?status=Beta,Experimental&category=All", nil)
	res = envelope[model.CatalogResponse](t, rec)
	assert.Equal(t, 2, res.Total)

	rec = env.do(t, http.MethodGet, "/v1/catalog?q=weather", nil)
	res = envelope[model.CatalogResponse](t, rec)
	assert.Equal(t, "weather", res.Query)
	require.Equal(t, 1, res.Total)
	assert.Equal(t, "3", res.Agents[0].ID)

	rec = env.do(t, http.MethodGet, "/v1/catalog?q=nothing-matches-this", nil)
	res = envelope[model.CatalogResponse](t, rec)
	assert.Equal(t, 0, res.Total)
	assert.NotNil(t, res.Agents)

	rec = env.do(t, http.MethodGet, "/v1/catalog?category=Nope", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ValidationDetails{Fields: []string{"category"}}, apiError(t, rec).Details)
}

func TestCatalogFacets(t *testing.T) {
	env := newTestEnv(t, nil)
	res := envelope[model.FacetsResponse](t, env.do(t, http.MethodGet, "/v1/catalog/facets", nil))
	assert.Equal(t, model.Categories(), res.Categories)
	assert.Equal(t, model.Statuses(), res.Statuses)
}

func multipartBody(t *testing.T, field string, data []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	_ = mw.WriteField("note", "ignored")
	fw, err := mw.CreateFormFile(field, "card.png")
	require.NoError(t, err)
	_, err = fw.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func upload(env *testEnv, body io.Reader, contentType string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/v1/images", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	return rec
}

func TestUploadImage(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, "file", pngBytes)
	rec := upload(env, body, ct)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := envelope[model.ImageUploadResponse](t, rec)
	assert.Equal(t, "image/png", res.ContentType)
	assert.Equal(t, int64(len(pngBytes)), res.Size)
	require.Len(t, env.images.keys, 1)
	assert.True(t, strings.HasSuffix(res.URL, env.images.keys[0]))
	assert.True(t, strings.HasSuffix(res.URL, ".png"))
}

func TestUploadImage_Rejections(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, "file", []byte("plain text, not an image"))
	rec := upload(env, body, ct)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	body, ct = multipartBody(t, "file", bytes.Repeat(pngBytes, 100))
	rec = upload(env, body, ct)
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	body, ct = multipartBody(t, "image", pngBytes)
	rec = upload(env, body, ct)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, model.ValidationDetails{Fields: []string{"file"}}, apiError(t, rec).Details)

	rec = upload(env, strings.NewReader("{}"), "application/json")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, env.images.keys)
}

func TestUploadImage_LegacyPath(t *testing.T) {
	env := newTestEnv(t, nil)

	body, ct := multipartBody(t, "file", pngBytes)
	req := httptest.NewRequest(http.MethodPost, "/api/upload-image", body)
	req.Header.Set("Content-Type", ct)
	rec := httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var res model.ImageUploadResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res))
	require.Len(t, env.images.keys, 1)
	assert.True(t, strings.HasSuffix(res.URL, env.images.keys[0]), "bare body carries url at the top level")

	body, ct = multipartBody(t, "file", []byte("plain text, not an image"))
	req = httptest.NewRequest(http.MethodPost, "/api/upload-image", body)
	req.Header.Set("Content-Type", ct)
	rec = httptest.NewRecorder()
	env.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)
	var legacy model.LegacyResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &legacy))
	assert.NotEmpty(t, legacy.Error)
}

func TestUploadImage_NotConfigured(t *testing.T) {
	env := newTestEnv(t, func(c *ServerConfig) { c.Uploader = nil })
	body, ct := multipartBody(t, "file", pngBytes)
	rec := upload(env, body, ct)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, model.ErrCodeUnavailable, apiError(t, rec).Code)
}

func TestRateLimit_OnlyMutations(t *testing.T) {
	env := newTestEnv(t, func(c *ServerConfig) { c.Limiter = denyAll{} })

	rec := env.do(t, http.MethodGet, "/v1/agents", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = env.do(t, http.MethodPost, "/v1/agents", newDraft("Blocked"))
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))
	assert.Equal(t, model.ErrCodeRateLimited, apiError(t, rec).Code)
}

func TestRateLimit_MemoryLimiterBurst(t *testing.T) {
	limiter := ratelimit.NewMemoryLimiter(0.001, 2)
	t.Cleanup(func() { _ = limiter.Close() })
	env := newTestEnv(t, func(c *ServerConfig) { c.Limiter = limiter })

	for i := range 2 {
		rec := env.do(t, http.MethodDelete, "/v1/agents?id=custom-none", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := env.do(t, http.MethodDelete, "/v1/agents?id=custom-none", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestOpenAPISpec(t *testing.T) {
	env := newTestEnv(t, nil)
	rec := env.do(t, http.MethodGet, "/openapi.yaml", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/yaml", rec.Header().Get("Content-Type"))
	assert.Equal(t, "openapi: 3.1.0\n", rec.Body.String())

	env = newTestEnv(t, func(c *ServerConfig) { c.OpenAPISpec = nil })
	rec = env.do(t, http.MethodGet, "/openapi.yaml", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRecoveryMiddleware(t *testing.T) {
	h := recoveryMiddleware(testLogger(), http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, model.ErrCodeInternalError, apiError(t, rec).Code)
}

func TestSubscribe_NoBroker(t *testing.T) {
	env := newTestEnv(t, func(c *ServerConfig) { c.Broker = nil })
	rec := env.do(t, http.MethodGet, "/v1/agents/events", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestSubscribe_StreamsChanges(t *testing.T) {
	env := newTestEnv(t, nil)
	srv := httptest.NewServer(env.handler)
	t.Cleanup(srv.Close)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/v1/agents/events", nil)
	require.NoError(t, err)
	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	require.Eventually(t, func() bool { return env.broker.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	rec := env.do(t, http.MethodDelete, "/v1/agents?id=5&reset=true", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	sc := bufio.NewScanner(resp.Body)
	var lines []string
	for sc.Scan() {
		line := sc.Text()
		if line == "" && len(lines) > 0 {
			break
		}
		if line != "" {
			lines = append(lines, line)
		}
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "event: reset", lines[0])
	assert.Contains(t, lines[1], `"agentId":"5"`)
}
