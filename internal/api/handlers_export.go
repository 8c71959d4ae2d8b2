package api

import (
	"bytes"
	"context"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"fiona/internal/agent"
	"fiona/internal/domain"
	"fiona/internal/render"
	"fiona/internal/service"
)

// AgentRunner drives a chat model against a layout session. The real
// implementation lives in internal/agent; tests substitute a fake.
type AgentRunner interface {
	Run(ctx context.Context, session *agent.LayoutSession, opts agent.RunOptions) (*agent.RunResult, error)
}

// ExportHandler serves PDF export, PNG snapshots, and agent runs.
type ExportHandler struct {
	layouts *service.LayoutService
	runner  AgentRunner
}

func NewExportHandler(layouts *service.LayoutService, runner AgentRunner) ExportHandler {
	return ExportHandler{layouts: layouts, runner: runner}
}

type exportRequest struct {
	Project string         `json:"project"`
	Layout  *domain.Layout `json:"layout"`
}

// HandleExportPDF renders a layout to PDF. The caller either names a
// stored project or posts an unsaved layout directly.
func (h ExportHandler) HandleExportPDF(c echo.Context) error {
	var req exportRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("malformed export payload", err)
	}

	layout := req.Layout
	if layout == nil {
		var err error
		layout, err = h.layouts.GetLayout(req.Project)
		if err != nil {
			return wrapServiceError("layout", req.Project, err)
		}
	} else {
		layout.Normalize()
	}

	resolve := func(imageURL string) (string, error) {
		name := imageURL[strings.LastIndex(imageURL, "/")+1:]
		return h.layouts.MediaPath(layout.Project, name)
	}

	var buf bytes.Buffer
	if err := render.PDF(layout, resolve, &buf); err != nil {
		return NewInternalError("pdf rendering failed", err)
	}

	c.Response().Header().Set(echo.HeaderContentDisposition, `attachment; filename="`+layout.Project+`.pdf"`)
	return c.Blob(http.StatusOK, "application/pdf", buf.Bytes())
}

// HandleSnapshot renders a project's layout preview as PNG.
func (h ExportHandler) HandleSnapshot(c echo.Context) error {
	layout, err := h.layouts.GetLayout(c.QueryParam("project"))
	if err != nil {
		return wrapServiceError("layout", c.QueryParam("project"), err)
	}

	var buf bytes.Buffer
	if err := render.Snapshot(layout, &buf); err != nil {
		return NewInternalError("snapshot rendering failed", err)
	}
	return c.Blob(http.StatusOK, "image/png", buf.Bytes())
}

type agentRunRequest struct {
	Project      string `json:"project"`
	Prompt       string `json:"prompt"`
	Model        string `json:"model"`
	SystemPrompt string `json:"systemPrompt"`
	Snapshot     string `json:"snapshot"`
}

// HandleAgentRun lets the assistant edit a project. The run works on a
// copy; the layout persists only when the session reports modifications.
// An aborted request persists nothing.
func (h ExportHandler) HandleAgentRun(c echo.Context) error {
	if h.runner == nil {
		return NewServiceUnavailableError("agent is not configured")
	}

	var req agentRunRequest
	if err := c.Bind(&req); err != nil {
		return NewBadRequestError("malformed agent payload", err)
	}
	if strings.TrimSpace(req.Prompt) == "" {
		return NewBadRequestError("prompt is required", nil)
	}

	layout, err := h.layouts.GetLayout(req.Project)
	if err != nil {
		return wrapServiceError("layout", req.Project, err)
	}

	snapshot, err := decodeSnapshot(req.Snapshot)
	if err != nil {
		return NewBadRequestError("malformed snapshot", err)
	}
	if snapshot == nil {
		var buf bytes.Buffer
		if err := render.Snapshot(layout, &buf); err == nil {
			snapshot = buf.Bytes()
		}
	}

	ctx := c.Request().Context()
	session := agent.NewLayoutSession(layout)
	result, err := h.runner.Run(ctx, session, agent.RunOptions{
		Prompt:       req.Prompt,
		SystemPrompt: req.SystemPrompt,
		Model:        req.Model,
		Snapshot:     snapshot,
	})
	if err != nil {
		if ctx.Err() != nil {
			// Client went away mid-run; the session copy is dropped.
			return nil
		}
		return NewInternalError("agent run failed", err)
	}

	if session.Modified() {
		if err := h.layouts.SaveLayout(ctx, session.Layout()); err != nil {
			return wrapServiceError("layout", layout.Project, err)
		}
	}

	return c.JSON(http.StatusOK, map[string]any{
		"success":    true,
		"project":    session.Layout().Project,
		"layout":     session.Layout(),
		"events":     session.Events(),
		"answer":     result.Answer,
		"reasoning":  result.Reasoning,
		"tool_calls": len(session.Events()),
		"modified":   session.Modified(),
	})
}

// decodeSnapshot accepts a raw base64 PNG or a full data URL.
func decodeSnapshot(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if i := strings.Index(s, "base64,"); i >= 0 {
		s = s[i+len("base64,"):]
	}
	data, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, err
	}
	return data, nil
}
