package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fiona/internal/agent"
	"fiona/internal/domain"
	"fiona/internal/service"
	"fiona/internal/storage"
)

type fakeRunner struct {
	answer string
	edit   bool
	err    error
}

func (f *fakeRunner) Run(_ context.Context, session *agent.LayoutSession, _ agent.RunOptions) (*agent.RunResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	if f.edit {
		if _, err := session.ExecuteTool(agent.ToolCreateBlock, []byte(`{"type":"text","content":"from agent"}`)); err != nil {
			return nil, err
		}
	}
	return &agent.RunResult{Answer: f.answer}, nil
}

func testServer(t *testing.T, runner AgentRunner) (*echo.Echo, *service.LayoutService) {
	t.Helper()
	dir := t.TempDir()
	db, err := storage.New(filepath.Join(dir, "fiona.db"), filepath.Join(dir, "data"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	broker := NewBroker()
	layouts := service.NewLayoutService(storage.NewLayoutStore(db), db, broker, log.New(io.Discard))

	e := echo.New()
	SetupMiddleware(e, []string{"*"}, "16M")
	RegisterRoutes(e, NewHandlers(&Dependencies{
		Layouts: layouts,
		Runner:  runner,
		Broker:  broker,
		Version: "test",
	}))
	return e, layouts
}

func doJSON(t *testing.T, e *echo.Echo, method, path string, payload any) *httptest.ResponseRecorder {
	t.Helper()
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(data)
	}
	req := httptest.NewRequest(method, path, body)
	if payload != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHealth(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodGet, "/api/health", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestGetLayoutDefault(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodGet, "/api/layout?project=Fresh+One", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var layout domain.Layout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &layout))
	assert.Equal(t, "fresh-one", layout.Project)
	assert.Equal(t, domain.FormatA4, layout.Format)
	assert.Empty(t, layout.Blocks)
}

func TestSaveLayoutRoundTrip(t *testing.T) {
	e, _ := testServer(t, nil)

	layout := domain.DefaultLayout("demo")
	layout.Blocks = []domain.Block{{ID: "block-1", Type: domain.BlockTypeText, Content: "hi"}}
	rec := doJSON(t, e, http.MethodPost, "/api/layout", map[string]any{
		"project": "demo",
		"layout":  layout,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doJSON(t, e, http.MethodGet, "/api/layout?project=demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var got domain.Layout
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got.Blocks, 1)
	assert.Equal(t, "hi", got.Blocks[0].Content)
}

func TestSaveLayoutMissingBody(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodPost, "/api/layout", map[string]any{"project": "demo"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestBlockOperations(t *testing.T) {
	e, _ := testServer(t, nil)

	// add
	rec := doJSON(t, e, http.MethodPost, "/api/block", map[string]any{
		"project":   "demo",
		"operation": "add",
		"block": map[string]any{
			"type":     "text",
			"content":  "first",
			"position": map[string]int{"left": 10, "top": 10, "width": 200, "height": 100},
		},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var addResp struct {
		Block domain.Block `json:"block"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &addResp))
	require.True(t, strings.HasPrefix(addResp.Block.ID, "block-"))

	// update
	rec = doJSON(t, e, http.MethodPost, "/api/block", map[string]any{
		"project":   "demo",
		"operation": "update",
		"block_id":  addResp.Block.ID,
		"updates":   map[string]any{"content": "second", "position": map[string]int{"width": 12}},
	})
	require.Equal(t, http.StatusOK, rec.Code)
	var updResp struct {
		Block domain.Block `json:"block"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &updResp))
	assert.Equal(t, "second", updResp.Block.Content)
	assert.Equal(t, domain.MinBlockSize, updResp.Block.Position.Width)

	// delete
	rec = doJSON(t, e, http.MethodPost, "/api/block", map[string]any{
		"project":   "demo",
		"operation": "delete",
		"block_id":  addResp.Block.ID,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	// delete again -> 404
	rec = doJSON(t, e, http.MethodPost, "/api/block", map[string]any{
		"project":   "demo",
		"operation": "delete",
		"block_id":  addResp.Block.ID,
	})
	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestBlockUnknownOperation(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodPost, "/api/block", map[string]any{
		"project":   "demo",
		"operation": "merge",
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "BAD_REQUEST")
}

func TestProjects(t *testing.T) {
	e, layouts := testServer(t, nil)
	require.NoError(t, layouts.SaveLayout(context.Background(), domain.DefaultLayout("alpha")))

	rec := doJSON(t, e, http.MethodGet, "/api/projects", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Projects []string `json:"projects"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Contains(t, resp.Projects, "default")
	assert.Contains(t, resp.Projects, "alpha")
}

func TestUploadAndServeAsset(t *testing.T) {
	e, _ := testServer(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("project", "demo"))
	part, err := w.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake-png-bytes"))
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		URL string `json:"url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.True(t, strings.HasPrefix(resp.URL, "/project-assets/demo/"))

	rec = doJSON(t, e, http.MethodGet, resp.URL, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake-png-bytes", rec.Body.String())
}

func TestUploadRejectsNonImage(t *testing.T) {
	e, _ := testServer(t, nil)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("project", "demo"))
	part, err := w.CreateFormFile("file", "virus.exe")
	require.NoError(t, err)
	part.Write([]byte("nope"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &body)
	req.Header.Set(echo.HeaderContentType, w.FormDataContentType())
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAssetTraversalRejected(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodGet, "/project-assets/demo/..%2F..%2Fsecret", nil)
	assert.NotEqual(t, http.StatusOK, rec.Code)
}

func TestExportPDF(t *testing.T) {
	e, layouts := testServer(t, nil)
	l := domain.DefaultLayout("demo")
	l.Blocks = []domain.Block{{ID: "block-1", Type: domain.BlockTypeText, Content: "print me"}}
	require.NoError(t, layouts.SaveLayout(context.Background(), l))

	rec := doJSON(t, e, http.MethodPost, "/api/export/pdf", map[string]any{"project": "demo"})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/pdf", rec.Header().Get(echo.HeaderContentType))
	assert.True(t, bytes.HasPrefix(rec.Body.Bytes(), []byte("%PDF")))
}

func TestSnapshotPNG(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodGet, "/api/snapshot?project=demo", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "image/png", rec.Header().Get(echo.HeaderContentType))
}

func TestAgentRunPersistsModifications(t *testing.T) {
	e, layouts := testServer(t, &fakeRunner{answer: "done", edit: true})

	rec := doJSON(t, e, http.MethodPost, "/api/agent/run", map[string]any{
		"project": "demo",
		"prompt":  "add a block",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Answer   string `json:"answer"`
		Modified bool   `json:"modified"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "done", resp.Answer)
	assert.True(t, resp.Modified)

	layout, err := layouts.GetLayout("demo")
	require.NoError(t, err)
	require.Len(t, layout.Blocks, 1)
	assert.Equal(t, "from agent", layout.Blocks[0].Content)
}

func TestAgentRunReadOnly(t *testing.T) {
	e, layouts := testServer(t, &fakeRunner{answer: "nothing to do"})

	rec := doJSON(t, e, http.MethodPost, "/api/agent/run", map[string]any{
		"project": "demo",
		"prompt":  "how many blocks are there?",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	layout, err := layouts.GetLayout("demo")
	require.NoError(t, err)
	assert.Empty(t, layout.Blocks)
}

func TestAgentRunRequiresPrompt(t *testing.T) {
	e, _ := testServer(t, &fakeRunner{})
	rec := doJSON(t, e, http.MethodPost, "/api/agent/run", map[string]any{"project": "demo"})
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAgentNotConfigured(t *testing.T) {
	e, _ := testServer(t, nil)
	rec := doJSON(t, e, http.MethodPost, "/api/agent/run", map[string]any{
		"project": "demo",
		"prompt":  "hello",
	})
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
}
