package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"fiona/internal/domain"
)

// Block operations accepted by the block endpoint.
const (
	OpAdd    = "add"
	OpUpdate = "update"
	OpDelete = "delete"
)

var imageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".webp": true,
	".svg":  true,
}

// Client talks to the layout backend. It implements editor.Persister so
// the editor's working copy can push mutations through it.
type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

func New(baseURL string, logger *log.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		logger:  logger,
	}
}

// blockRequest is the envelope for the block endpoint.
type blockRequest struct {
	Project string             `json:"project"`
	Op      string             `json:"operation"`
	Block   *domain.Block      `json:"block,omitempty"`
	ID      string             `json:"block_id,omitempty"`
	Patch   *domain.BlockPatch `json:"updates,omitempty"`
}

type blockResponse struct {
	Block *domain.Block `json:"block,omitempty"`
}

// Load fetches a project's layout. Any failure yields a usable default
// layout alongside the error: the editor always opens, even offline.
func (c *Client) Load(ctx context.Context, project string) (*domain.Layout, error) {
	var layout domain.Layout
	err := c.getJSON(ctx, "/api/layout?project="+url.QueryEscape(project), &layout)
	if err != nil {
		c.logger.Warn("layout load failed, starting empty", "project", project, "err", err)
		return domain.DefaultLayout(project), err
	}
	layout.Normalize()
	return &layout, nil
}

// Save persists the full layout.
func (c *Client) Save(ctx context.Context, layout *domain.Layout) error {
	payload := map[string]any{"project": layout.Project, "layout": layout}
	return c.postJSON(ctx, "/api/layout", payload, nil)
}

// CreateBlock asks the server to append a block and returns the stored
// copy with its assigned id.
func (c *Client) CreateBlock(ctx context.Context, project string, block domain.Block) (*domain.Block, error) {
	var resp blockResponse
	err := c.postJSON(ctx, "/api/block", blockRequest{Project: project, Op: OpAdd, Block: &block}, &resp)
	if err != nil {
		return nil, err
	}
	if resp.Block == nil {
		return nil, &ServerError{Status: http.StatusOK, Message: "block missing from response"}
	}
	return resp.Block, nil
}

// UpdateBlock sends a partial block update.
func (c *Client) UpdateBlock(ctx context.Context, project, blockID string, patch domain.BlockPatch) error {
	return c.postJSON(ctx, "/api/block", blockRequest{Project: project, Op: OpUpdate, ID: blockID, Patch: &patch}, nil)
}

// DeleteBlock removes a block.
func (c *Client) DeleteBlock(ctx context.Context, project, blockID string) error {
	return c.postJSON(ctx, "/api/block", blockRequest{Project: project, Op: OpDelete, ID: blockID}, nil)
}

// Projects lists the known project names.
func (c *Client) Projects(ctx context.Context) ([]string, error) {
	var resp struct {
		Projects []string `json:"projects"`
	}
	if err := c.getJSON(ctx, "/api/projects", &resp); err != nil {
		return nil, err
	}
	return resp.Projects, nil
}

// Upload sends an image to the project's media directory and returns the
// asset URL to embed. Non-image extensions are rejected before any bytes
// move.
func (c *Client) Upload(ctx context.Context, project, filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !imageExtensions[ext] {
		return "", &ValidationError{Message: fmt.Sprintf("unsupported image type %q", ext)}
	}

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	if err := w.WriteField("project", project); err != nil {
		return "", err
	}
	part, err := w.CreateFormFile("file", filepath.Base(filename))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/upload", &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", w.FormDataContentType())

	var resp struct {
		URL string `json:"url"`
	}
	if err := c.do(req, &resp); err != nil {
		return "", err
	}
	return resp.URL, nil
}

// AttachImage uploads image data and writes the returned asset URL into
// the block. A failed upload leaves the block without an image; the
// error surfaces to the caller, never a silent retry.
func (c *Client) AttachImage(ctx context.Context, project, blockID, filename string, r io.Reader) (string, error) {
	url, err := c.Upload(ctx, project, filename, r)
	if err != nil {
		return "", err
	}
	if err := c.UpdateBlock(ctx, project, blockID, domain.BlockPatch{ImageURL: &url}); err != nil {
		return "", err
	}
	return url, nil
}

// AgentResult is the outcome of one assistant run.
type AgentResult struct {
	Answer    string         `json:"answer"`
	Reasoning string         `json:"reasoning,omitempty"`
	Modified  bool           `json:"modified"`
	ToolCalls int            `json:"tool_calls"`
	Layout    *domain.Layout `json:"layout,omitempty"`
}

// RunAgent asks the assistant to act on the project. Cancelling the
// context aborts the run; late responses are discarded by the caller
// checking ErrAborted.
func (c *Client) RunAgent(ctx context.Context, project, prompt string) (*AgentResult, error) {
	var result AgentResult
	payload := map[string]string{"project": project, "prompt": prompt}
	if err := c.postJSON(ctx, "/api/agent/run", payload, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ExportPDF downloads the project rendered as a PDF.
func (c *Client) ExportPDF(ctx context.Context, project string) ([]byte, error) {
	body, err := json.Marshal(map[string]string{"project": project})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/export/pdf", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, wrapTransport(ctx, err)
	}
	defer resp.Body.Close()
	if err := checkStatus(resp); err != nil {
		return nil, err
	}
	return io.ReadAll(resp.Body)
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) postJSON(ctx context.Context, path string, payload, out any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return wrapTransport(req.Context(), err)
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &ServerError{Status: resp.StatusCode, Message: "malformed response: " + err.Error()}
	}
	return nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode < 400 {
		return nil
	}

	message := resp.Status
	var apiErr struct {
		Message string `json:"message"`
	}
	if body, err := io.ReadAll(io.LimitReader(resp.Body, 4096)); err == nil {
		if json.Unmarshal(body, &apiErr) == nil && apiErr.Message != "" {
			message = apiErr.Message
		}
	}

	if resp.StatusCode >= 500 {
		return &ServerError{Status: resp.StatusCode, Message: message}
	}
	return &ValidationError{Message: message}
}
